package service

import (
	"context"

	"github.com/gatherkit/rsvp-service/internal/domain/dto"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
)

type statsResponseStorage interface {
	CountsByStatus(ctx context.Context, eventID string) (map[entity.ResponseStatus]int64, error)
	SumGuests(ctx context.Context, eventID string) (int64, error)
	GetByEventID(ctx context.Context, eventID string, status entity.ResponseStatus, limit, offset int) ([]entity.Response, error)
}

// StatsService is read-only aggregation over the response store.
type StatsService struct {
	responses statsResponseStorage
}

func NewStatsService(responses statsResponseStorage) *StatsService {
	return &StatsService{
		responses: responses,
	}
}

func (s *StatsService) Stats(ctx context.Context, eventID string) (*dto.EventStats, error) {
	counts, err := s.responses.CountsByStatus(ctx, eventID)
	if err != nil {
		return nil, err
	}

	totalGuests, err := s.responses.SumGuests(ctx, eventID)
	if err != nil {
		return nil, err
	}

	return &dto.EventStats{
		Attending:    counts[entity.ResponseStatusAttending],
		NotAttending: counts[entity.ResponseStatusNotAttending],
		Maybe:        counts[entity.ResponseStatusMaybe],
		Waitlisted:   counts[entity.ResponseStatusWaitlisted],
		TotalGuests:  totalGuests,
	}, nil
}

// Attendees lists responses for an event page by page, newest first. Pass
// status "" to list all statuses. Pages are 1-based.
func (s *StatsService) Attendees(ctx context.Context, eventID string, status entity.ResponseStatus, page, limit int) ([]entity.Response, error) {
	if page < 1 {
		page = 1
	}
	return s.responses.GetByEventID(ctx, eventID, status, limit, (page-1)*limit)
}
