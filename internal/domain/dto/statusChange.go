package dto

import "github.com/gatherkit/rsvp-service/internal/domain/entity"

// StatusChange describes a response status transition. NotificationKind
// carries the immediate job kind the change should produce (confirmation on
// admission, waitlist promotion notice on promotion), or "" for none.
type StatusChange struct {
	ResponseID string
	EventID    string
	UserID     int64
	OldStatus  entity.ResponseStatus
	NewStatus  entity.ResponseStatus

	NotificationKind string
}
