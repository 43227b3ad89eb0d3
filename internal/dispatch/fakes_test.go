package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/Wassi1m/app-surveince/internal/models"
	"github.com/Wassi1m/app-surveince/internal/sender"
)

// fakeStore is an in-memory Store for dispatcher tests.
type fakeStore struct {
	mu         sync.Mutex
	recipients []*models.AlertRecipient

	nextID        int64
	logs          map[int64]*models.NotificationLog
	alertStatus   map[int64]models.AlertStatus
	touchedChans  []int64
	deliveryCalls int
}

func newFakeStore(recipients ...*models.AlertRecipient) *fakeStore {
	return &fakeStore{
		recipients:  recipients,
		logs:        make(map[int64]*models.NotificationLog),
		alertStatus: make(map[int64]models.AlertStatus),
	}
}

func (s *fakeStore) GetRecipientsForLocation(ctx context.Context, locationID int64) ([]*models.AlertRecipient, error) {
	return s.recipients, nil
}

func (s *fakeStore) CreateNotificationLog(ctx context.Context, alertID, channelID int64, recipient string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	s.logs[s.nextID] = &models.NotificationLog{
		ID:        s.nextID,
		AlertID:   alertID,
		ChannelID: channelID,
		Recipient: recipient,
		Status:    models.NotificationPending,
	}
	return s.nextID, nil
}

func (s *fakeStore) MarkNotificationSending(ctx context.Context, notificationID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[notificationID]
	if !ok {
		return fmt.Errorf("notification %d not found", notificationID)
	}
	entry.Status = models.NotificationSending
	return nil
}

func (s *fakeStore) MarkNotificationSent(ctx context.Context, notificationID int64, externalID string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[notificationID]
	if !ok {
		return fmt.Errorf("notification %d not found", notificationID)
	}
	entry.Status = models.NotificationSent
	entry.ExternalID = externalID
	entry.Metadata = metadata
	return nil
}

func (s *fakeStore) MarkNotificationFailed(ctx context.Context, notificationID int64, errorMessage string, metadata map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.logs[notificationID]
	if !ok {
		return fmt.Errorf("notification %d not found", notificationID)
	}
	entry.Status = models.NotificationFailed
	entry.ErrorMessage = errorMessage
	if metadata != nil {
		entry.Metadata = metadata
	}
	return nil
}

func (s *fakeStore) TouchChannelLastUsed(ctx context.Context, channelID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchedChans = append(s.touchedChans, channelID)
	return nil
}

func (s *fakeStore) MarkAlertDelivery(ctx context.Context, alertID int64, status models.AlertStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveryCalls++
	s.alertStatus[alertID] = status
	return nil
}

func (s *fakeStore) logsByStatus(status models.NotificationStatus) []*models.NotificationLog {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.NotificationLog
	for _, entry := range s.logs {
		if entry.Status == status {
			out = append(out, entry)
		}
	}
	return out
}

// fakeSender succeeds or fails by recipient email. failMeta, when set, is
// returned alongside the failure like the webhook sender's response context.
type fakeSender struct {
	channelType models.ChannelType
	failFor     map[string]bool
	failMeta    map[string]any

	mu    sync.Mutex
	calls []string
}

func newFakeSender(channelType models.ChannelType) *fakeSender {
	return &fakeSender{
		channelType: channelType,
		failFor:     make(map[string]bool),
	}
}

func (f *fakeSender) Type() models.ChannelType {
	return f.channelType
}

func (f *fakeSender) Send(ctx context.Context, channel *models.NotificationChannel, alert *models.Alert, recipient *models.AlertRecipient) (*sender.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, recipient.User.Email)
	f.mu.Unlock()

	if f.failFor[recipient.User.Email] {
		var result *sender.Result
		if f.failMeta != nil {
			result = &sender.Result{Metadata: f.failMeta}
		}
		return result, fmt.Errorf("delivery rejected: invalid endpoint")
	}
	return &sender.Result{ExternalID: "ext-" + recipient.User.Email}, nil
}

func (f *fakeSender) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}
