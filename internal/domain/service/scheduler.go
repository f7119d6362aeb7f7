package service

import (
	"context"
	"time"

	"github.com/gatherkit/rsvp-service/internal/domain/dto"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

type NotificationJobStorage interface {
	Create(ctx context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error)
	Update(ctx context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error)
	DeletePendingByResponseID(ctx context.Context, responseID string) error
	GetDue(ctx context.Context, now time.Time, limit int) ([]entity.NotificationJob, error)
	RequeueFailed(ctx context.Context, responseID string) (int64, error)
}

type schedulerResponseStorage interface {
	GetByID(ctx context.Context, id string) (*entity.Response, error)
}

type schedulerEventProvider interface {
	Get(ctx context.Context, eventID string) (*entity.Event, error)
}

type schedulerUserProvider interface {
	Get(ctx context.Context, userID int64) (*entity.User, error)
}

// SchedulerService computes and persists notification jobs from a response,
// its owning event and the user's preferences. It consumes status changes
// from the admission controller and waitlist promoter.
type SchedulerService struct {
	logger *types.Logger

	jobs      NotificationJobStorage
	responses schedulerResponseStorage
	events    schedulerEventProvider
	users     schedulerUserProvider

	// now is swapped in tests.
	now func() time.Time
}

func NewSchedulerService(
	logger *types.Logger,
	jobs NotificationJobStorage,
	responses schedulerResponseStorage,
	events schedulerEventProvider,
	users schedulerUserProvider,
) *SchedulerService {
	return &SchedulerService{
		logger: logger,

		jobs:      jobs,
		responses: responses,
		events:    events,
		users:     users,

		now: time.Now,
	}
}

// Schedule replaces all pending jobs for a response with freshly computed
// ones: one reminder per enabled channel per future day offset, plus a single
// immediate job of immediateKind when non-empty (confirmation on admission,
// promotion notice on promotion). Calling it twice with unchanged preferences
// yields the same final job set.
func (s *SchedulerService) Schedule(ctx context.Context, responseID string, immediateKind string) error {
	response, err := s.responses.GetByID(ctx, responseID)
	if err != nil {
		return err
	}

	event, err := s.events.Get(ctx, response.EventID)
	if err != nil {
		return err
	}

	user, err := s.users.Get(ctx, response.UserID)
	if err != nil {
		return err
	}

	if err = s.jobs.DeletePendingByResponseID(ctx, responseID); err != nil {
		return err
	}

	now := s.now()

	if response.AttendingLike() {
		for _, channel := range user.Channels() {
			for _, offset := range user.ReminderOffsets {
				scheduledFor := event.StartTime.Add(-time.Duration(offset) * 24 * time.Hour)
				if !scheduledFor.After(now) {
					continue
				}

				job := &entity.NotificationJob{
					ResponseID:   response.ID,
					EventID:      event.ID,
					UserID:       user.ID,
					Channel:      channel,
					Kind:         entity.ReminderKind(int(offset)),
					ScheduledFor: scheduledFor,
					Status:       entity.JobStatusPending,
				}
				if _, err = s.jobs.Create(ctx, job); err != nil {
					return err
				}
			}
		}
	}

	if immediateKind != "" {
		channel := entity.ChannelInApp
		if user.EmailEnabled {
			channel = entity.ChannelEmail
		}

		job := &entity.NotificationJob{
			ResponseID:   response.ID,
			EventID:      event.ID,
			UserID:       user.ID,
			Channel:      channel,
			Kind:         immediateKind,
			ScheduledFor: now,
			Status:       entity.JobStatusPending,
		}
		if _, err = s.jobs.Create(ctx, job); err != nil {
			return err
		}
	}

	return nil
}

// Cancel deletes all pending jobs for a response.
func (s *SchedulerService) Cancel(ctx context.Context, responseID string) error {
	return s.jobs.DeletePendingByResponseID(ctx, responseID)
}

// RequeueFailed is the administrative action that puts a response's failed
// jobs with attempts left back into the dispatcher's reach.
func (s *SchedulerService) RequeueFailed(ctx context.Context, responseID string) (int64, error) {
	return s.jobs.RequeueFailed(ctx, responseID)
}

// OnStatusChanged reacts to response status transitions: attending-like
// states get a fresh job set, everything else cancels pending jobs. Failures
// are logged and never propagate to the triggering operation.
func (s *SchedulerService) OnStatusChanged(ctx context.Context, change dto.StatusChange) {
	var err error
	if change.NewStatus == entity.ResponseStatusAttending || change.NewStatus == entity.ResponseStatusWaitlisted {
		err = s.Schedule(ctx, change.ResponseID, change.NotificationKind)
	} else {
		err = s.Cancel(ctx, change.ResponseID)
	}
	if err != nil {
		s.logger.Errorf(
			"failed to reschedule notifications (response_id=%s, old=%s, new=%s): %v",
			change.ResponseID, change.OldStatus, change.NewStatus, err,
		)
	}
}
