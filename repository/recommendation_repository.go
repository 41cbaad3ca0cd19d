package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RecommendationRepositoryImpl implements the RecommendationRepository interface
type RecommendationRepositoryImpl struct {
	*BaseRepository[models.Recommendation, models.RecommendationFilter]
}

// NewRecommendationRepository creates a new recommendation repository
func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &RecommendationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Recommendation, models.RecommendationFilter](db),
	}
}

// ByUUID retrieves a recommendation by its public identifier
func (r *RecommendationRepositoryImpl) ByUUID(ctx context.Context, id uuid.UUID) (*models.Recommendation, error) {
	db := r.getDB(ctx)

	var rec models.Recommendation
	err := db.Where("uuid = ?", id).Last(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

// ByIDForUpdate loads a recommendation with a row lock so concurrent decisions
// on the same record serialize. Must run inside a transaction context.
func (r *RecommendationRepositoryImpl) ByIDForUpdate(ctx context.Context, id uint) (*models.Recommendation, error) {
	db := r.getDB(ctx)

	var rec models.Recommendation
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

// ActiveByTarget retrieves the latest recommendation for a (date, category, channel) target
func (r *RecommendationRepositoryImpl) ActiveByTarget(ctx context.Context, date time.Time, category, channel string) (*models.Recommendation, error) {
	db := r.getDB(ctx)

	var rec models.Recommendation
	err := db.Where("date = ? AND room_category = ? AND channel = ?", date, category, channel).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &rec, nil
}

// ListPendingExport retrieves approved, not yet exported recommendations
// inside [from, to]
func (r *RecommendationRepositoryImpl) ListPendingExport(ctx context.Context, from, to time.Time) ([]*models.Recommendation, error) {
	db := r.getDB(ctx)

	var recs []*models.Recommendation
	err := db.Where("date >= ? AND date <= ? AND status = ?", from, to, models.RecommendationStatusApproved).
		Order("date ASC, room_category ASC, channel ASC").
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	return recs, nil
}

// ByFilter retrieves recommendations based on filter criteria
func (r *RecommendationRepositoryImpl) ByFilter(ctx context.Context, filter models.RecommendationFilter, orderBy string, limit, offset int) ([]*models.Recommendation, error) {
	db := r.getDB(ctx)

	var recs []*models.Recommendation
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

	err := query.Find(&recs).Error
	if err != nil {
		return nil, err
	}

	return recs, nil
}

// Count returns the number of recommendations matching the filter
func (r *RecommendationRepositoryImpl) Count(ctx context.Context, filter models.RecommendationFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Recommendation{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RecommendationRepositoryImpl) applyFilter(db *gorm.DB, filter models.RecommendationFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	if filter.Channel != nil {
		db = db.Where("channel = ?", *filter.Channel)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", *filter.DateTo)
	}
	if filter.PipelineRunID != nil {
		db = db.Where("pipeline_run_id = ?", *filter.PipelineRunID)
	}
	return db
}
