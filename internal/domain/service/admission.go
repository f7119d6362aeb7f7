package service

import (
	"context"
	"errors"
	"time"

	"github.com/gatherkit/rsvp-service/internal/domain/common/errorz"
	"github.com/gatherkit/rsvp-service/internal/domain/dto"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

type ResponseStorage interface {
	Create(ctx context.Context, response *entity.Response) (*entity.Response, error)
	Get(ctx context.Context, eventID string, userID int64) (*entity.Response, error)
	GetByID(ctx context.Context, id string) (*entity.Response, error)
	Update(ctx context.Context, response *entity.Response) (*entity.Response, error)
	CountByEventIDAndStatus(ctx context.Context, eventID string, status entity.ResponseStatus) (int64, error)
	MaxWaitlistPosition(ctx context.Context, eventID string) (int, error)
}

type admissionEventProvider interface {
	Get(ctx context.Context, eventID string) (*entity.Event, error)
}

// statusListener consumes response status transitions. The notification
// scheduler implements it; listener errors are logged and never propagate
// back to the operation that triggered them.
type statusListener interface {
	OnStatusChanged(ctx context.Context, change dto.StatusChange)
}

type admissionPromoter interface {
	Promote(ctx context.Context, eventID string, spotsAvailable int) ([]int64, error)
}

// AdmissionService decides whether a new attending request is admitted or
// diverted to the waitlist.
//
// The capacity check is read-then-write with no serializing primitive, so two
// first-time submissions racing past the count can over-admit by a small
// bounded amount under heavy load. Uniqueness of (event, user) is still hard:
// it rests on the store's unique index, surfaced as DuplicateResponse.
type AdmissionService struct {
	logger *types.Logger

	responses ResponseStorage
	events    admissionEventProvider
	listener  statusListener
	promoter  admissionPromoter
}

func NewAdmissionService(
	logger *types.Logger,
	responses ResponseStorage,
	events admissionEventProvider,
	listener statusListener,
	promoter admissionPromoter,
) *AdmissionService {
	return &AdmissionService{
		logger: logger,

		responses: responses,
		events:    events,
		listener:  listener,
		promoter:  promoter,
	}
}

// Submit records a user's intent for an event, creating or updating the
// single (event, user) response row. Attending requests over capacity are
// waitlisted at max(position)+1, or rejected with CapacityExceeded when the
// event's waitlist is disabled.
func (s *AdmissionService) Submit(ctx context.Context, eventID string, userID int64, desired entity.ResponseStatus, guestCount int) (*entity.Response, error) {
	event, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsActive {
		return nil, errorz.EventInactive
	}

	response, err := s.responses.Get(ctx, eventID, userID)
	isNew := errors.Is(err, errorz.ResponseNotFound)
	if err != nil && !isNew {
		return nil, err
	}

	var oldStatus entity.ResponseStatus
	if isNew {
		response = &entity.Response{
			EventID: eventID,
			UserID:  userID,
		}
	} else {
		oldStatus = response.Status
	}

	if desired != entity.ResponseStatusAttending {
		response.MarkStatus(desired, guestCount)
	} else {
		attending, errCount := s.responses.CountByEventIDAndStatus(ctx, eventID, entity.ResponseStatusAttending)
		if errCount != nil {
			return nil, errCount
		}

		// An already-attending response keeps its slot; only net-new
		// admissions consume capacity.
		if oldStatus == entity.ResponseStatusAttending || event.HasCapacity(attending) {
			response.MarkAttending(guestCount)
		} else {
			if !event.AllowWaitlist {
				return nil, errorz.CapacityExceeded
			}
			maxPosition, errMax := s.responses.MaxWaitlistPosition(ctx, eventID)
			if errMax != nil {
				return nil, errMax
			}
			if oldStatus == entity.ResponseStatusWaitlisted {
				// Keep the existing position, only refresh the guest count.
				response.GuestCount = guestCount
			} else {
				response.MarkWaitlisted(guestCount, maxPosition+1, time.Now())
			}
		}
	}

	if isNew {
		response, err = s.responses.Create(ctx, response)
	} else {
		response, err = s.responses.Update(ctx, response)
	}
	if err != nil {
		return nil, err
	}

	s.notifyStatusChange(ctx, response, oldStatus)

	// Moving off attending frees a slot just like a cancellation does.
	if oldStatus == entity.ResponseStatusAttending && !response.AttendingLike() && s.promoter != nil {
		if _, errPromote := s.promoter.Promote(ctx, eventID, 1); errPromote != nil {
			s.logger.Errorf("failed to promote waitlist after demotion (event_id=%s): %v", eventID, errPromote)
		}
	}

	return response, nil
}

// Cancel sets the response to not attending and, when an attending slot was
// freed, promotes the next waitlisted response.
func (s *AdmissionService) Cancel(ctx context.Context, eventID string, userID int64) error {
	response, err := s.responses.Get(ctx, eventID, userID)
	if err != nil {
		return err
	}

	oldStatus := response.Status
	if oldStatus == entity.ResponseStatusNotAttending {
		return nil
	}

	response.MarkStatus(entity.ResponseStatusNotAttending, 0)
	if response, err = s.responses.Update(ctx, response); err != nil {
		return err
	}

	s.notifyStatusChange(ctx, response, oldStatus)

	if oldStatus == entity.ResponseStatusAttending && s.promoter != nil {
		if _, errPromote := s.promoter.Promote(ctx, eventID, 1); errPromote != nil {
			s.logger.Errorf("failed to promote waitlist after cancellation (event_id=%s): %v", eventID, errPromote)
		}
	}

	return nil
}

// WaitlistPosition returns the user's waitlist position for an event, or nil
// when the response is not waitlisted.
func (s *AdmissionService) WaitlistPosition(ctx context.Context, eventID string, userID int64) (*int, error) {
	response, err := s.responses.Get(ctx, eventID, userID)
	if err != nil {
		return nil, err
	}
	if response.Status != entity.ResponseStatusWaitlisted {
		return nil, nil
	}
	return response.WaitlistPosition, nil
}

func (s *AdmissionService) notifyStatusChange(ctx context.Context, response *entity.Response, oldStatus entity.ResponseStatus) {
	if s.listener == nil || response.Status == oldStatus {
		return
	}

	var kind string
	if response.AttendingLike() {
		kind = entity.KindConfirmation
	}

	s.listener.OnStatusChanged(ctx, dto.StatusChange{
		ResponseID:       response.ID,
		EventID:          response.EventID,
		UserID:           response.UserID,
		OldStatus:        oldStatus,
		NewStatus:        response.Status,
		NotificationKind: kind,
	})
}
