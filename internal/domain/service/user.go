package service

import (
	"context"

	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

type UserStorage interface {
	Create(ctx context.Context, user *entity.User) (*entity.User, error)
	Get(ctx context.Context, id int64) (*entity.User, error)
	Update(ctx context.Context, user *entity.User) (*entity.User, error)
}

type userResponseStorage interface {
	GetActiveByUserID(ctx context.Context, userID int64) ([]entity.Response, error)
}

type userScheduler interface {
	Schedule(ctx context.Context, responseID string, immediateKind string) error
}

// UserService is the user directory: profile reads plus notification
// preference writes.
type UserService struct {
	logger *types.Logger

	storage   UserStorage
	responses userResponseStorage
	scheduler userScheduler
}

func NewUserService(
	logger *types.Logger,
	storage UserStorage,
	responses userResponseStorage,
	scheduler userScheduler,
) *UserService {
	return &UserService{
		logger: logger,

		storage:   storage,
		responses: responses,
		scheduler: scheduler,
	}
}

// SetScheduler injects the notification scheduler after construction. The
// scheduler consumes the user directory, so the two cannot be built in one
// pass.
func (s *UserService) SetScheduler(scheduler userScheduler) {
	s.scheduler = scheduler
}

func (s *UserService) Create(ctx context.Context, user *entity.User) (*entity.User, error) {
	return s.storage.Create(ctx, user)
}

func (s *UserService) Get(ctx context.Context, id int64) (*entity.User, error) {
	return s.storage.Get(ctx, id)
}

// SavePreferences persists new notification preferences and rebuilds the
// pending job set for each of the user's attending or waitlisted responses,
// so the ledger always reflects the current preference set.
func (s *UserService) SavePreferences(ctx context.Context, userID int64, emailEnabled, inAppEnabled bool, reminderOffsets []int64) (*entity.User, error) {
	user, err := s.storage.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.EmailEnabled = emailEnabled
	user.InAppEnabled = inAppEnabled
	user.ReminderOffsets = reminderOffsets
	if user, err = s.storage.Update(ctx, user); err != nil {
		return nil, err
	}

	if s.scheduler != nil {
		active, errActive := s.responses.GetActiveByUserID(ctx, userID)
		if errActive != nil {
			s.logger.Errorf("failed to list active responses for reschedule (user_id=%d): %v", userID, errActive)
			return user, nil
		}
		for _, response := range active {
			if errSchedule := s.scheduler.Schedule(ctx, response.ID, ""); errSchedule != nil {
				s.logger.Errorf("failed to reschedule notifications (response_id=%s): %v", response.ID, errSchedule)
			}
		}
	}

	return user, nil
}
