package dto

// EventStats summarizes responses for one event. TotalGuests sums guest
// counts of attending responses only.
type EventStats struct {
	Attending    int64
	NotAttending int64
	Maybe        int64
	Waitlisted   int64
	TotalGuests  int64
}
