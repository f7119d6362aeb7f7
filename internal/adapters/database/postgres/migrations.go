package postgres

import "github.com/gatherkit/rsvp-service/internal/domain/entity"

// Migrations is a list of all gorm migrations for the database.
var Migrations = []interface{}{
	&entity.User{},
	&entity.Event{},
	&entity.Response{},
	&entity.NotificationJob{},
}
