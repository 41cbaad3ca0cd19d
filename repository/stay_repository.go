package repository

import (
	"context"
	"time"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// RawStayRepositoryImpl implements the RawStayRepository interface
type RawStayRepositoryImpl struct {
	*BaseRepository[models.RawStay, models.RawStayFilter]
}

// NewRawStayRepository creates a new raw stay repository
func NewRawStayRepository(db *gorm.DB) RawStayRepository {
	return &RawStayRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RawStay, models.RawStayFilter](db),
	}
}

// ListByDateRange retrieves stay nights inside [from, to], optionally narrowed to a category
func (r *RawStayRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.RawStay, error) {
	db := r.getDB(ctx)

	query := db.Where("date >= ? AND date <= ?", from, to)
	if category != "" {
		query = query.Where("room_category = ?", category)
	}

	var stays []*models.RawStay
	err := query.Order("date ASC, id ASC").Find(&stays).Error
	if err != nil {
		return nil, err
	}

	return stays, nil
}

// ByFilter retrieves stays based on filter criteria
func (r *RawStayRepositoryImpl) ByFilter(ctx context.Context, filter models.RawStayFilter, orderBy string, limit, offset int) ([]*models.RawStay, error) {
	db := r.getDB(ctx)

	var stays []*models.RawStay
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

	err := query.Find(&stays).Error
	if err != nil {
		return nil, err
	}

	return stays, nil
}

// Count returns the number of stays matching the filter
func (r *RawStayRepositoryImpl) Count(ctx context.Context, filter models.RawStayFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.RawStay{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RawStayRepositoryImpl) applyFilter(db *gorm.DB, filter models.RawStayFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	if filter.SourceBookingID != nil {
		db = db.Where("source_booking_id = ?", *filter.SourceBookingID)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", *filter.DateTo)
	}
	return db
}
