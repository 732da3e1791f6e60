package repository

import (
	"context"
	"errors"
	"time"

	"github.com/ersinak/upload-dispatcher/internal/domain"
	"gorm.io/gorm"
)

// boundedWindow is how far back the bounded due window reaches.
const boundedWindow = 24 * time.Hour

// VideoRepository is the read-only view over the collaborator's videos
// table; ListDue is the due-set selector.
type VideoRepository interface {
	ListDue(ctx context.Context, now time.Time, window domain.DueWindow) ([]domain.Video, error)
	GetByID(ctx context.Context, id int64) (*domain.Video, error)
}

type GormVideoRepo struct {
	db *gorm.DB
}

func NewGormVideoRepo(db *gorm.DB) *GormVideoRepo {
	return &GormVideoRepo{db: db}
}

// ListDue returns videos whose scheduled instant has arrived, ordered by
// taken_at ascending. taken_at is compared as the stored naive local
// minute-precision string; lexicographic order on that layout is
// chronological order, so the comparison happens in SQL. A video scheduled
// exactly at now is due.
func (r *GormVideoRepo) ListDue(ctx context.Context, now time.Time, window domain.DueWindow) ([]domain.Video, error) {
	query := r.db.WithContext(ctx).
		Where("taken_at <= ?", now.Format(domain.TakenAtLayout))

	if window == domain.WindowBounded24h {
		query = query.Where("taken_at >= ?", now.Add(-boundedWindow).Format(domain.TakenAtLayout))
	}

	var models []VideoModel
	if err := query.Order("taken_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	videos := make([]domain.Video, 0, len(models))
	for i := range models {
		video, err := videoModelToDomain(&models[i])
		if err != nil {
			return nil, err
		}
		videos = append(videos, *video)
	}

	return videos, nil
}

func (r *GormVideoRepo) GetByID(ctx context.Context, id int64) (*domain.Video, error) {
	var model VideoModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return videoModelToDomain(&model)
}
