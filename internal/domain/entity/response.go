package entity

import (
	"time"

	"github.com/lib/pq"
)

type ResponseStatus string

const (
	ResponseStatusAttending    ResponseStatus = "attending"
	ResponseStatusNotAttending ResponseStatus = "not_attending"
	ResponseStatusMaybe        ResponseStatus = "maybe"
	ResponseStatusWaitlisted   ResponseStatus = "waitlisted"
)

// Response is one user's recorded intent for one event. There is at most one
// row per (event, user) pair, enforced by a unique composite index; a
// re-submission updates the row in place.
type Response struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time

	EventID string         `gorm:"not null;type:uuid;uniqueIndex:idx_responses_event_user;index:idx_responses_event_status_created,priority:1;index:idx_responses_event_position,priority:1"`
	UserID  int64          `gorm:"not null;uniqueIndex:idx_responses_event_user"`
	Status  ResponseStatus `gorm:"not null;index:idx_responses_event_status_created,priority:2"`

	GuestCount int

	// Set iff Status is waitlisted. Positions are assigned max+1 per event and
	// never renumbered, so gaps appear after promotions.
	WaitlistPosition *int `gorm:"index:idx_responses_event_position,priority:2"`
	WaitlistJoinedAt *time.Time

	ConfirmationSent  bool
	SentReminderTypes pq.StringArray `gorm:"type:text[]"`
}

// AttendingLike reports whether the response holds or is waiting for a slot,
// which is what makes it eligible for scheduled notifications.
func (r *Response) AttendingLike() bool {
	return r.Status == ResponseStatusAttending || r.Status == ResponseStatusWaitlisted
}

// MarkAttending moves the response to attending, clearing any waitlist fields.
func (r *Response) MarkAttending(guestCount int) {
	r.Status = ResponseStatusAttending
	r.GuestCount = guestCount
	r.WaitlistPosition = nil
	r.WaitlistJoinedAt = nil
}

// MarkWaitlisted moves the response onto the waitlist at the given position.
func (r *Response) MarkWaitlisted(guestCount, position int, joinedAt time.Time) {
	r.Status = ResponseStatusWaitlisted
	r.GuestCount = guestCount
	pos := position
	at := joinedAt
	r.WaitlistPosition = &pos
	r.WaitlistJoinedAt = &at
}

// MarkStatus sets a non-capacity status (not_attending or maybe), clearing
// any waitlist fields.
func (r *Response) MarkStatus(status ResponseStatus, guestCount int) {
	r.Status = status
	r.GuestCount = guestCount
	r.WaitlistPosition = nil
	r.WaitlistJoinedAt = nil
}

// HasSentReminder reports whether a reminder of the given kind was already
// delivered for this response.
func (r *Response) HasSentReminder(kind string) bool {
	for _, t := range r.SentReminderTypes {
		if t == kind {
			return true
		}
	}
	return false
}

// AddSentReminder records a delivered reminder kind. Adding an already
// recorded kind is a no-op.
func (r *Response) AddSentReminder(kind string) {
	if r.HasSentReminder(kind) {
		return
	}
	r.SentReminderTypes = append(r.SentReminderTypes, kind)
}
