package repository

import (
	"context"
	"time"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// DailyOccupancyRepositoryImpl implements the DailyOccupancyRepository interface
type DailyOccupancyRepositoryImpl struct {
	*BaseRepository[models.DailyOccupancy, models.DailyOccupancyFilter]
}

// NewDailyOccupancyRepository creates a new daily occupancy repository
func NewDailyOccupancyRepository(db *gorm.DB) DailyOccupancyRepository {
	return &DailyOccupancyRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DailyOccupancy, models.DailyOccupancyFilter](db),
	}
}

// ListByDateRange retrieves occupancy rows inside [from, to], optionally narrowed to a category
func (r *DailyOccupancyRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.DailyOccupancy, error) {
	db := r.getDB(ctx)

	query := db.Where("date >= ? AND date <= ?", from, to)
	if category != "" {
		query = query.Where("room_category = ?", category)
	}

	var rows []*models.DailyOccupancy
	err := query.Order("date ASC, room_category ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ReplaceRange deletes existing rows inside [from, to] and inserts the given
// rows in a single transaction. Re-running an aggregation therefore overwrites
// rather than duplicates.
func (r *DailyOccupancyRepositoryImpl) ReplaceRange(ctx context.Context, from, to time.Time, rows []*models.DailyOccupancy) error {
	return WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		db := r.getDB(txCtx)

		err := db.Where("date >= ? AND date <= ?", from, to).Delete(&models.DailyOccupancy{}).Error
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		return db.CreateInBatches(rows, 500).Error
	})
}

// ByFilter retrieves occupancy rows based on filter criteria
func (r *DailyOccupancyRepositoryImpl) ByFilter(ctx context.Context, filter models.DailyOccupancyFilter, orderBy string, limit, offset int) ([]*models.DailyOccupancy, error) {
	db := r.getDB(ctx)

	var rows []*models.DailyOccupancy
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

	err := query.Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// Count returns the number of occupancy rows matching the filter
func (r *DailyOccupancyRepositoryImpl) Count(ctx context.Context, filter models.DailyOccupancyFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.DailyOccupancy{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *DailyOccupancyRepositoryImpl) applyFilter(db *gorm.DB, filter models.DailyOccupancyFilter) *gorm.DB {
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", *filter.DateTo)
	}
	return db
}
