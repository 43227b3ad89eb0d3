package sender

import (
	"fmt"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// WebhookPayload is the JSON body posted to webhook endpoints.
type WebhookPayload struct {
	AlertID   int64            `json:"alert_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Priority  models.Priority  `json:"priority"`
	Status    string           `json:"status"`
	CreatedAt string           `json:"created_at"`
	Detection DetectionPayload `json:"detection"`
}

// DetectionPayload is the detection context embedded in webhook payloads.
type DetectionPayload struct {
	EventType  models.EventType `json:"event_type"`
	Camera     string           `json:"camera"`
	Zone       string           `json:"zone"`
	Confidence float64          `json:"confidence"`
}

// BuildWebhookPayload builds the webhook body for an alert. When the alert
// carries no detection context the detection block is zero-valued rather than
// omitted so consumers see a stable shape.
func BuildWebhookPayload(alert *models.Alert) WebhookPayload {
	payload := WebhookPayload{
		AlertID:   alert.ID,
		Title:     alert.Title,
		Message:   alert.Message,
		Priority:  alert.Priority,
		Status:    alert.Status.String(),
		CreatedAt: alert.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if alert.Detection != nil {
		payload.Detection = DetectionPayload{
			EventType:  alert.Detection.EventType,
			Camera:     alert.Detection.CameraName,
			Zone:       alert.Detection.ZoneName,
			Confidence: alert.Detection.Confidence,
		}
	}
	return payload
}

// EmailPayload is a rendered email subject and body.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload renders the surveillance alert email for an alert.
func BuildEmailPayload(alert *models.Alert) EmailPayload {
	subject := fmt.Sprintf("[SURVEILLANCE] %s", alert.Title)

	body := fmt.Sprintf(`A new surveillance alert was raised:

Title: %s
Priority: %s
Time: %s

Details:
%s
`, alert.Title, alert.Priority, alert.CreatedAt.Format("02/01/2006 15:04:05"), alert.Message)

	if alert.Detection != nil {
		body += fmt.Sprintf(`
Camera: %s
Zone: %s
Confidence: %.0f%%
`, alert.Detection.CameraName, alert.Detection.ZoneName, alert.Detection.Confidence*100)
	}

	body += "\nPlease acknowledge this alert in the surveillance system.\n"

	return EmailPayload{Subject: subject, Body: body}
}

// BuildSMSMessage renders the short-form alert text for SMS and push.
func BuildSMSMessage(alert *models.Alert) string {
	return fmt.Sprintf("[SURVEILLANCE] %s - Priority: %s - %s",
		alert.Title, alert.Priority, alert.CreatedAt.Format("15:04"))
}
