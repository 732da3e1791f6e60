package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"gorm.io/gorm"
)

// UploadRepository is the result ledger: an append-only record of every
// (video, service) attempt outcome.
type UploadRepository interface {
	Record(ctx context.Context, a *domain.UploadAttempt) error
	HasSucceeded(ctx context.Context, videoID int64, service domain.Service) (bool, error)
	HasAnyAttempt(ctx context.Context, videoID int64, service domain.Service) (bool, error)
	ListByVideoID(ctx context.Context, videoID int64) ([]domain.UploadAttempt, error)
	CountSuccessesByVideo(ctx context.Context) (map[int64]int64, error)
}

type GormUploadRepo struct {
	db *gorm.DB
}

func NewGormUploadRepo(db *gorm.DB) *GormUploadRepo {
	return &GormUploadRepo{db: db}
}

// Record appends one attempt row. The insert commits immediately; a crash
// mid-cycle leaves a consistent prefix of recorded outcomes.
func (r *GormUploadRepo) Record(ctx context.Context, a *domain.UploadAttempt) error {
	if a == nil {
		return fmt.Errorf("%w: attempt is required", domain.ErrValidation)
	}
	if err := a.Validate(); err != nil {
		return err
	}

	model := uploadModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}

	stored, err := uploadModelToDomain(model)
	if err != nil {
		return err
	}
	*a = *stored
	return nil
}

func (r *GormUploadRepo) HasSucceeded(ctx context.Context, videoID int64, service domain.Service) (bool, error) {
	return r.exists(ctx, r.db.WithContext(ctx).
		Where("video_id = ? AND service = ? AND status = ?", videoID, service.String(), domain.UploadStatusSuccess.String()))
}

func (r *GormUploadRepo) HasAnyAttempt(ctx context.Context, videoID int64, service domain.Service) (bool, error) {
	return r.exists(ctx, r.db.WithContext(ctx).
		Where("video_id = ? AND service = ?", videoID, service.String()))
}

func (r *GormUploadRepo) exists(ctx context.Context, query *gorm.DB) (bool, error) {
	var model VideoUploadModel
	err := query.Select("id").Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *GormUploadRepo) ListByVideoID(ctx context.Context, videoID int64) ([]domain.UploadAttempt, error) {
	var models []VideoUploadModel
	err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	attempts := make([]domain.UploadAttempt, 0, len(models))
	for i := range models {
		attempt, err := uploadModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, *attempt)
	}

	return attempts, nil
}

// CountSuccessesByVideo is the aggregate the calendar UI renders next to
// each video.
func (r *GormUploadRepo) CountSuccessesByVideo(ctx context.Context) (map[int64]int64, error) {
	type row struct {
		VideoID int64 `gorm:"column:video_id"`
		Count   int64 `gorm:"column:count"`
	}

	var rows []row
	err := r.db.WithContext(ctx).
		Model(&VideoUploadModel{}).
		Select("video_id, COUNT(*) AS count").
		Where("status = ?", domain.UploadStatusSuccess.String()).
		Group("video_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.VideoID] = r.Count
	}

	return counts, nil
}
