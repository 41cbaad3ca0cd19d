package repository

import (
	"context"
	"time"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// RawBookingRepositoryImpl implements the RawBookingRepository interface
type RawBookingRepositoryImpl struct {
	*BaseRepository[models.RawBooking, models.RawBookingFilter]
}

// NewRawBookingRepository creates a new raw booking repository
func NewRawBookingRepository(db *gorm.DB) RawBookingRepository {
	return &RawBookingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RawBooking, models.RawBookingFilter](db),
	}
}

// ListByArrivalRange retrieves bookings whose arrival date falls inside [from, to]
func (r *RawBookingRepositoryImpl) ListByArrivalRange(ctx context.Context, from, to time.Time) ([]*models.RawBooking, error) {
	db := r.getDB(ctx)

	var bookings []*models.RawBooking
	err := db.Where("arrival_date >= ? AND arrival_date <= ?", from, to).
		Order("arrival_date ASC, id ASC").
		Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

// ByFilter retrieves bookings based on filter criteria
func (r *RawBookingRepositoryImpl) ByFilter(ctx context.Context, filter models.RawBookingFilter, orderBy string, limit, offset int) ([]*models.RawBooking, error) {
	db := r.getDB(ctx)

	var bookings []*models.RawBooking
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

	err := query.Find(&bookings).Error
	if err != nil {
		return nil, err
	}

	return bookings, nil
}

// Count returns the number of bookings matching the filter
func (r *RawBookingRepositoryImpl) Count(ctx context.Context, filter models.RawBookingFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.RawBooking{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *RawBookingRepositoryImpl) applyFilter(db *gorm.DB, filter models.RawBookingFilter) *gorm.DB {
	if filter.ID != nil {
		db = db.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		db = db.Where("uuid = ?", *filter.UUID)
	}
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	if filter.Status != nil {
		db = db.Where("status = ?", *filter.Status)
	}
	if filter.ArrivalAfter != nil {
		db = db.Where("arrival_date >= ?", *filter.ArrivalAfter)
	}
	if filter.ArrivalBefore != nil {
		db = db.Where("arrival_date <= ?", *filter.ArrivalBefore)
	}
	return db
}
