package postgres

import (
	"context"
	"errors"

	"github.com/gatherkit/rsvp-service/internal/domain/common/errorz"
	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"gorm.io/gorm"
)

type ResponseStorage struct {
	db *gorm.DB
}

func NewResponseStorage(db *gorm.DB) *ResponseStorage {
	return &ResponseStorage{
		db: db,
	}
}

// Create inserts a new response. A unique violation on the (event_id,
// user_id) index is translated into errorz.DuplicateResponse here, at the
// storage boundary, so callers never see driver-specific errors.
func (s *ResponseStorage) Create(ctx context.Context, response *entity.Response) (*entity.Response, error) {
	err := s.db.WithContext(ctx).Create(&response).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, errorz.DuplicateResponse
	}
	return response, err
}

func (s *ResponseStorage) Get(ctx context.Context, eventID string, userID int64) (*entity.Response, error) {
	var response entity.Response
	err := s.db.WithContext(ctx).Where("event_id = ? AND user_id = ?", eventID, userID).First(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ResponseNotFound
	}
	return &response, err
}

func (s *ResponseStorage) GetByID(ctx context.Context, id string) (*entity.Response, error) {
	var response entity.Response
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errorz.ResponseNotFound
	}
	return &response, err
}

func (s *ResponseStorage) Update(ctx context.Context, response *entity.Response) (*entity.Response, error) {
	err := s.db.WithContext(ctx).Save(&response).Error
	return response, err
}

// GetByEventID lists responses for an event ordered by creation time
// descending, optionally filtered by status. Pass "" to list all statuses.
func (s *ResponseStorage) GetByEventID(ctx context.Context, eventID string, status entity.ResponseStatus, limit, offset int) ([]entity.Response, error) {
	var responses []entity.Response
	query := s.db.WithContext(ctx).Where("event_id = ?", eventID)
	if status != "" {
		query = query.Where("status = ?", status)
	}
	err := query.Order("created_at DESC").Limit(limit).Offset(offset).Find(&responses).Error
	return responses, err
}

// GetActiveByUserID lists the user's attending and waitlisted responses.
func (s *ResponseStorage) GetActiveByUserID(ctx context.Context, userID int64) ([]entity.Response, error) {
	var responses []entity.Response
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, []entity.ResponseStatus{entity.ResponseStatusAttending, entity.ResponseStatusWaitlisted}).
		Find(&responses).Error
	return responses, err
}

// GetWaitlisted lists up to limit waitlisted responses for an event ordered
// ascending by waitlist position, oldest wait first.
func (s *ResponseStorage) GetWaitlisted(ctx context.Context, eventID string, limit int) ([]entity.Response, error) {
	var responses []entity.Response
	err := s.db.WithContext(ctx).
		Where("event_id = ? AND status = ?", eventID, entity.ResponseStatusWaitlisted).
		Order("waitlist_position ASC").
		Limit(limit).
		Find(&responses).Error
	return responses, err
}

func (s *ResponseStorage) CountByEventIDAndStatus(ctx context.Context, eventID string, status entity.ResponseStatus) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.Response{}).
		Where("event_id = ? AND status = ?", eventID, status).
		Count(&count).Error
	return count, err
}

// CountsByStatus returns per-status response counts for an event.
func (s *ResponseStorage) CountsByStatus(ctx context.Context, eventID string) (map[entity.ResponseStatus]int64, error) {
	var rows []struct {
		Status entity.ResponseStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&entity.Response{}).
		Select("status, COUNT(*) AS count").
		Where("event_id = ?", eventID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[entity.ResponseStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumGuests sums guest counts over attending responses for an event.
func (s *ResponseStorage) SumGuests(ctx context.Context, eventID string) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&entity.Response{}).
		Select("COALESCE(SUM(guest_count), 0)").
		Where("event_id = ? AND status = ?", eventID, entity.ResponseStatusAttending).
		Scan(&total).Error
	return total, err
}

// MaxWaitlistPosition returns the highest waitlist position currently in use
// for an event, or 0 when the waitlist is empty. Positions are never
// renumbered, so max+1 stays monotonic across promotions.
func (s *ResponseStorage) MaxWaitlistPosition(ctx context.Context, eventID string) (int, error) {
	var max int
	err := s.db.WithContext(ctx).Model(&entity.Response{}).
		Select("COALESCE(MAX(waitlist_position), 0)").
		Where("event_id = ? AND status = ?", eventID, entity.ResponseStatusWaitlisted).
		Scan(&max).Error
	return max, err
}
