package service

import (
	"context"

	"github.com/gatherkit/rsvp-service/internal/domain/dto"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"github.com/gatherkit/rsvp-service/pkg/logger/types"
)

type waitlistResponseStorage interface {
	GetWaitlisted(ctx context.Context, eventID string, limit int) ([]entity.Response, error)
	Update(ctx context.Context, response *entity.Response) (*entity.Response, error)
}

type waitlistEventProvider interface {
	Get(ctx context.Context, eventID string) (*entity.Event, error)
}

// WaitlistService moves waitlisted responses to attending when capacity
// frees up.
type WaitlistService struct {
	logger *types.Logger

	responses waitlistResponseStorage
	events    waitlistEventProvider
	listener  statusListener
}

func NewWaitlistService(
	logger *types.Logger,
	responses waitlistResponseStorage,
	events waitlistEventProvider,
	listener statusListener,
) *WaitlistService {
	return &WaitlistService{
		logger: logger,

		responses: responses,
		events:    events,
		listener:  listener,
	}
}

// Promote moves up to spotsAvailable waitlisted responses to attending in
// ascending position order and returns the user IDs that were promoted.
// Promotion is best-effort per response: a persistence failure on one does
// not abort the rest. Positions of the remaining waitlisted responses are
// not compacted.
func (s *WaitlistService) Promote(ctx context.Context, eventID string, spotsAvailable int) ([]int64, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, err
	}
	if spotsAvailable <= 0 {
		return nil, nil
	}

	waitlisted, err := s.responses.GetWaitlisted(ctx, eventID, spotsAvailable)
	if err != nil {
		return nil, err
	}

	var promoted []int64
	for i := range waitlisted {
		response := &waitlisted[i]
		response.MarkAttending(response.GuestCount)

		updated, errUpdate := s.responses.Update(ctx, response)
		if errUpdate != nil {
			s.logger.Errorf("failed to promote response (event_id=%s, user_id=%d): %v", eventID, response.UserID, errUpdate)
			continue
		}

		promoted = append(promoted, updated.UserID)

		if s.listener != nil {
			s.listener.OnStatusChanged(ctx, dto.StatusChange{
				ResponseID:       updated.ID,
				EventID:          updated.EventID,
				UserID:           updated.UserID,
				OldStatus:        entity.ResponseStatusWaitlisted,
				NewStatus:        entity.ResponseStatusAttending,
				NotificationKind: entity.KindWaitlistPromotion,
			})
		}
	}

	return promoted, nil
}
