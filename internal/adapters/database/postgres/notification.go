package postgres

import (
	"context"
	"time"

	"github.com/gatherkit/rsvp-service/internal/domain/entity"
	"gorm.io/gorm"
)

type NotificationJobStorage struct {
	db *gorm.DB
}

func NewNotificationJobStorage(db *gorm.DB) *NotificationJobStorage {
	return &NotificationJobStorage{
		db: db,
	}
}

func (s *NotificationJobStorage) Create(ctx context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error) {
	err := s.db.WithContext(ctx).Create(&job).Error
	return job, err
}

func (s *NotificationJobStorage) Update(ctx context.Context, job *entity.NotificationJob) (*entity.NotificationJob, error) {
	err := s.db.WithContext(ctx).Save(&job).Error
	return job, err
}

// DeletePendingByResponseID removes all pending jobs for a response.
// Re-scheduling replaces the pending set rather than merging into it.
func (s *NotificationJobStorage) DeletePendingByResponseID(ctx context.Context, responseID string) error {
	return s.db.WithContext(ctx).
		Where("response_id = ? AND status = ?", responseID, entity.JobStatusPending).
		Delete(&entity.NotificationJob{}).Error
}

// GetDue returns up to limit dispatch-eligible jobs: pending, due by now, and
// under the attempt cap, oldest scheduled first.
func (s *NotificationJobStorage) GetDue(ctx context.Context, now time.Time, limit int) ([]entity.NotificationJob, error) {
	var jobs []entity.NotificationJob
	err := s.db.WithContext(ctx).
		Where("status = ? AND scheduled_for <= ? AND attempts < ?", entity.JobStatusPending, now, entity.MaxSendAttempts).
		Order("scheduled_for ASC").
		Limit(limit).
		Find(&jobs).Error
	return jobs, err
}

// GetByResponseID lists all jobs for a response, newest scheduled first.
func (s *NotificationJobStorage) GetByResponseID(ctx context.Context, responseID string) ([]entity.NotificationJob, error) {
	var jobs []entity.NotificationJob
	err := s.db.WithContext(ctx).
		Where("response_id = ?", responseID).
		Order("scheduled_for DESC").
		Find(&jobs).Error
	return jobs, err
}

// RequeueFailed flips a response's failed jobs with attempts left back to
// pending. This is the explicit administrative reprocessing path; the
// dispatcher's due-job scan never picks up failed jobs on its own.
func (s *NotificationJobStorage) RequeueFailed(ctx context.Context, responseID string) (int64, error) {
	result := s.db.WithContext(ctx).Model(&entity.NotificationJob{}).
		Where("response_id = ? AND status = ? AND attempts < ?", responseID, entity.JobStatusFailed, entity.MaxSendAttempts).
		Update("status", entity.JobStatusPending)
	return result.RowsAffected, result.Error
}
