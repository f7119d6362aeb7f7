package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type JobStatus string

const (
	JobStatusPending JobStatus = "pending"
	JobStatusSent    JobStatus = "sent"
	JobStatusFailed  JobStatus = "failed"
)

const (
	KindConfirmation      = "confirmation"
	KindWaitlistPromotion = "waitlist_promotion"

	reminderKindPrefix = "reminder:"
)

// MaxSendAttempts caps delivery attempts per job.
const MaxSendAttempts = 5

// ReminderKind builds the job kind for a reminder scheduled the given number
// of days before event start.
func ReminderKind(daysBefore int) string {
	return fmt.Sprintf("%s%d", reminderKindPrefix, daysBefore)
}

// IsReminderKind reports whether kind is a reminder and returns its day
// offset.
func IsReminderKind(kind string) (int, bool) {
	if !strings.HasPrefix(kind, reminderKindPrefix) {
		return 0, false
	}
	days, err := strconv.Atoi(strings.TrimPrefix(kind, reminderKindPrefix))
	if err != nil {
		return 0, false
	}
	return days, true
}

// NotificationJob is one scheduled delivery unit in the job ledger. Jobs are
// owned exclusively by their response: a status change away from an
// attending-like state, or a preference re-save, replaces all pending jobs.
type NotificationJob struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time

	ResponseID string `gorm:"not null;type:uuid;index"`
	EventID    string `gorm:"not null;type:uuid"`
	UserID     int64  `gorm:"not null"`

	Channel NotificationChannel `gorm:"not null"`
	Kind    string              `gorm:"not null"`

	ScheduledFor time.Time `gorm:"not null;index:idx_jobs_status_scheduled,priority:2"`
	Status       JobStatus `gorm:"not null;default:pending;index:idx_jobs_status_scheduled,priority:1"`

	Attempts      int
	LastAttemptAt *time.Time
	ErrorMessage  string
}
