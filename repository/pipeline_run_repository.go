package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// PipelineRunRepositoryImpl implements the PipelineRunRepository interface
type PipelineRunRepositoryImpl struct {
	*BaseRepository[models.PipelineRun, models.PipelineRunFilter]
}

// NewPipelineRunRepository creates a new pipeline run repository
func NewPipelineRunRepository(db *gorm.DB) PipelineRunRepository {
	return &PipelineRunRepositoryImpl{
		BaseRepository: NewBaseRepository[models.PipelineRun, models.PipelineRunFilter](db),
	}
}

// ByUUID retrieves a pipeline run by its public identifier
func (r *PipelineRunRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.PipelineRun, error) {
	db := r.getDB(ctx)

	var run models.PipelineRun
	err := db.Where("uuid = ?", id).Last(&run).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &run, nil
}

// ByFilter retrieves pipeline runs based on filter criteria
func (r *PipelineRunRepositoryImpl) ByFilter(ctx context.Context, filter models.PipelineRunFilter, orderBy string, limit, offset int) ([]*models.PipelineRun, error) {
	db := r.getDB(ctx)

	var runs []*models.PipelineRun
	query := r.applyFilter(db, filter)

	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&runs).Error
	if err != nil {
		return nil, err
	}

	return runs, nil
}

// Count returns the number of pipeline runs matching the filter
func (r *PipelineRunRepositoryImpl) Count(ctx context.Context, filter models.PipelineRunFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.PipelineRun{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *PipelineRunRepositoryImpl) applyFilter(db *gorm.DB, filter models.PipelineRunFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.HotelID != nil {
		db = db.Where("hotel_id = ?", *filter.HotelID)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	return db
}
