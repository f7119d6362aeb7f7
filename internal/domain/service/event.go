package service

import (
	"context"
	"time"

	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

const eventCacheTTL = 5 * time.Minute

type EventStorage interface {
	Create(ctx context.Context, event *entity.Event) (*entity.Event, error)
	Get(ctx context.Context, id string) (*entity.Event, error)
	Update(ctx context.Context, event *entity.Event) (*entity.Event, error)
}

type eventCache interface {
	Get(ctx context.Context, eventID string) (*entity.Event, error)
	Set(ctx context.Context, event *entity.Event, expiration time.Duration) error
	Clear(ctx context.Context, eventID string) error
}

type eventPromoter interface {
	Promote(ctx context.Context, eventID string, spotsAvailable int) ([]int64, error)
}

type eventResponseCounter interface {
	CountByEventIDAndStatus(ctx context.Context, eventID string, status entity.ResponseStatus) (int64, error)
}

// EventService is the event directory. Reads go through the redis cache;
// capacity edits invalidate it and trigger waitlist promotion for any freed
// spots.
type EventService struct {
	logger *types.Logger

	storage   EventStorage
	cache     eventCache
	responses eventResponseCounter
	promoter  eventPromoter
}

func NewEventService(
	logger *types.Logger,
	storage EventStorage,
	cache eventCache,
	responses eventResponseCounter,
	promoter eventPromoter,
) *EventService {
	return &EventService{
		logger: logger,

		storage:   storage,
		cache:     cache,
		responses: responses,
		promoter:  promoter,
	}
}

// SetPromoter injects the waitlist promoter after construction. The promoter
// consumes the event directory, so the two cannot be built in one pass.
func (s *EventService) SetPromoter(promoter eventPromoter) {
	s.promoter = promoter
}

func (s *EventService) Create(ctx context.Context, event *entity.Event) (*entity.Event, error) {
	return s.storage.Create(ctx, event)
}

// Get returns the event projection, preferring the cache. Cache failures are
// logged and fall back to the store.
func (s *EventService) Get(ctx context.Context, id string) (*entity.Event, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err != nil {
			s.logger.Errorf("event cache read failed (event_id=%s): %v", id, err)
		} else if cached != nil {
			return cached, nil
		}
	}

	event, err := s.storage.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err = s.cache.Set(ctx, event, eventCacheTTL); err != nil {
			s.logger.Errorf("event cache write failed (event_id=%s): %v", id, err)
		}
	}

	return event, nil
}

// SetCapacity changes an event's attendee limit. When the limit grows (or
// becomes unlimited) the freed spots are promoted from the waitlist.
func (s *EventService) SetCapacity(ctx context.Context, eventID string, maxAttendees int) (*entity.Event, error) {
	event, err := s.storage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	oldMax := event.MaxAttendees
	event.MaxAttendees = maxAttendees
	if event, err = s.storage.Update(ctx, event); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)

	if s.promoter != nil && capacityGrew(oldMax, maxAttendees) {
		attending, errCount := s.responses.CountByEventIDAndStatus(ctx, eventID, entity.ResponseStatusAttending)
		if errCount != nil {
			s.logger.Errorf("failed to count attending after capacity edit (event_id=%s): %v", eventID, errCount)
			return event, nil
		}

		available := maxAttendees - int(attending)
		if maxAttendees == 0 {
			// Unlimited now; the whole waitlist fits.
			waitlisted, errWaitlisted := s.responses.CountByEventIDAndStatus(ctx, eventID, entity.ResponseStatusWaitlisted)
			if errWaitlisted != nil {
				s.logger.Errorf("failed to count waitlisted after capacity edit (event_id=%s): %v", eventID, errWaitlisted)
				return event, nil
			}
			available = int(waitlisted)
		}

		if available > 0 {
			if _, errPromote := s.promoter.Promote(ctx, eventID, available); errPromote != nil {
				s.logger.Errorf("failed to promote waitlist after capacity edit (event_id=%s): %v", eventID, errPromote)
			}
		}
	}

	return event, nil
}

// SetActive flips the event's active flag.
func (s *EventService) SetActive(ctx context.Context, eventID string, active bool) (*entity.Event, error) {
	event, err := s.storage.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	event.IsActive = active
	if event, err = s.storage.Update(ctx, event); err != nil {
		return nil, err
	}

	s.invalidate(ctx, eventID)

	return event, nil
}

func (s *EventService) invalidate(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Clear(ctx, eventID); err != nil {
		s.logger.Errorf("event cache invalidation failed (event_id=%s): %v", eventID, err)
	}
}

// capacityGrew reports whether a capacity edit can free admission slots,
// treating 0 as unlimited.
func capacityGrew(oldMax, newMax int) bool {
	if oldMax == 0 {
		return false
	}
	return newMax == 0 || newMax > oldMax
}
