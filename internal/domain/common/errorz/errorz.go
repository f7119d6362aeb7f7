package errorz

import "errors"

var (
	EventNotFound    = errors.New("event not found")
	EventInactive    = errors.New("event is not active")
	ResponseNotFound = errors.New("response not found")
	UserNotFound     = errors.New("user not found")

	// InvalidGuestCount is returned by input layers validating guest count
	// bounds; the admission core itself accepts whatever it is given.
	InvalidGuestCount = errors.New("invalid guest count")

	// DuplicateResponse surfaces only under a true race between two
	// first-time submissions for the same (event, user); the caller should
	// retry, which takes the update path.
	DuplicateResponse = errors.New("response already exists, update it instead")

	// CapacityExceeded is returned only when an event is full and its
	// waitlist is disabled; otherwise overflow is silently waitlisted.
	CapacityExceeded = errors.New("event is full")
)
