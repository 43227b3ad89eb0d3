// Package recipients decides which alert recipients should be notified for a
// given alert.
package recipients

import (
	"fmt"
	"time"

	"github.com/Wassi1m/app-surveince/internal/models"
)

// ShouldNotify reports whether the recipient should receive an alert of the
// given priority at the given time. Inactive recipients, priority filter
// misses and time restriction misses all suppress delivery.
func ShouldNotify(r *models.AlertRecipient, priority models.Priority, now time.Time) bool {
	if !r.IsActive {
		return false
	}
	if !r.AllowsPriority(priority) {
		return false
	}
	return withinRestrictions(r.TimeRestrictions, now)
}

// Eligible filters candidates down to the recipients that should be notified
// for the alert at now.
func Eligible(candidates []models.AlertRecipient, priority models.Priority, now time.Time) []models.AlertRecipient {
	eligible := make([]models.AlertRecipient, 0, len(candidates))
	for i := range candidates {
		if ShouldNotify(&candidates[i], priority, now) {
			eligible = append(eligible, candidates[i])
		}
	}
	return eligible
}

// withinRestrictions applies the recipient's weekday allow-list and clock
// window. Weekdays use 0=Monday .. 6=Sunday. A clock window with
// start > end spans midnight. Empty restrictions allow everything.
func withinRestrictions(tr models.TimeRestrictions, now time.Time) bool {
	if len(tr.AllowedDays) > 0 {
		day := mondayWeekday(now)
		allowed := false
		for _, d := range tr.AllowedDays {
			if d == day {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	if tr.StartTime == "" || tr.EndTime == "" {
		return true
	}

	start, err := parseClock(tr.StartTime)
	if err != nil {
		return true
	}
	end, err := parseClock(tr.EndTime)
	if err != nil {
		return true
	}

	current := now.Hour()*60 + now.Minute()
	if start <= end {
		return current >= start && current <= end
	}
	// Overnight window, e.g. 22:00-06:00.
	return current >= start || current <= end
}

// mondayWeekday converts Go's Sunday-based weekday to the Monday-based
// encoding stored in time restrictions.
func mondayWeekday(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(s string) (int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return hour*60 + minute, nil
}
