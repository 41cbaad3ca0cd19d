package repository

import (
	"context"
	"time"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// DailyRevenueRepositoryImpl implements the DailyRevenueRepository interface
type DailyRevenueRepositoryImpl struct {
	*BaseRepository[models.DailyRevenue, models.DailyRevenueFilter]
}

// NewDailyRevenueRepository creates a new daily revenue repository
func NewDailyRevenueRepository(db *gorm.DB) DailyRevenueRepository {
	return &DailyRevenueRepositoryImpl{
		BaseRepository: NewBaseRepository[models.DailyRevenue, models.DailyRevenueFilter](db),
	}
}

// ListByDateRange retrieves revenue rows inside [from, to], optionally narrowed to a category
func (r *DailyRevenueRepositoryImpl) ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.DailyRevenue, error) {
	db := r.getDB(ctx)

	query := db.Where("date >= ? AND date <= ?", from, to)
	if category != "" {
		query = query.Where("room_category = ?", category)
	}

	var rows []*models.DailyRevenue
	err := query.Order("date ASC, room_category ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}

	return rows, nil
}

// ReplaceRange deletes existing rows inside [from, to] and inserts the given
// rows in a single transaction.
func (r *DailyRevenueRepositoryImpl) ReplaceRange(ctx context.Context, from, to time.Time, rows []*models.DailyRevenue) error {
	return WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		db := r.getDB(txCtx)

		err := db.Where("date >= ? AND date <= ?", from, to).Delete(&models.DailyRevenue{}).Error
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		return db.CreateInBatches(rows, 500).Error
	})
}

// ByFilter retrieves revenue rows based on filter criteria
func (r *DailyRevenueRepositoryImpl) ByFilter(ctx context.Context, filter models.DailyRevenueFilter, orderBy string, limit, offset int) ([]*models.DailyRevenue, error) {
	db := r.getDB(ctx)

	var rows []*models.DailyRevenue
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

// Count returns the number of revenue rows matching the filter
func (r *DailyRevenueRepositoryImpl) Count(ctx context.Context, filter models.DailyRevenueFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.DailyRevenue{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *DailyRevenueRepositoryImpl) applyFilter(db *gorm.DB, filter models.DailyRevenueFilter) *gorm.DB {
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
