package entity

import "time"

// Event is the projection of an event the core needs for admission and
// scheduling decisions. It is owned by the event directory; everything else
// only reads it (usually through the redis cache).
type Event struct {
	ID        string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Name      string    `gorm:"not null"`
	StartTime time.Time `gorm:"not null"`

	// MaxAttendees of 0 means unlimited. Capacity is counted in admission
	// slots, not guests.
	MaxAttendees  int
	AllowWaitlist bool `gorm:"default:true"`
	IsActive      bool `gorm:"default:true"`
}

// HasCapacity reports whether one more attending response fits under the
// event's limit given the current attending count.
func (e *Event) HasCapacity(attendingCount int64) bool {
	return e.MaxAttendees == 0 || attendingCount < int64(e.MaxAttendees)
}
