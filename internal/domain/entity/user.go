package entity

import (
	"time"

	"github.com/lib/pq"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelInApp NotificationChannel = "in_app"
)

type User struct {
	ID        int64 `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Email     string `gorm:"not null"`
	FirstName string
	Username  string

	EmailEnabled bool `gorm:"default:true"`
	InAppEnabled bool `gorm:"default:true"`

	// ReminderOffsets lists the day offsets before event start at which the
	// user wants reminders, e.g. [7, 1].
	ReminderOffsets pq.Int64Array `gorm:"type:bigint[]"`
}

// Channels returns the notification channels the user has enabled.
func (u *User) Channels() []NotificationChannel {
	var channels []NotificationChannel
	if u.EmailEnabled {
		channels = append(channels, ChannelEmail)
	}
	if u.InAppEnabled {
		channels = append(channels, ChannelInApp)
	}
	return channels
}
