package repository

import (
	"context"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// HistoricalSummaryRepositoryImpl implements the HistoricalSummaryRepository interface
type HistoricalSummaryRepositoryImpl struct {
	*BaseRepository[models.HistoricalSummary, models.HistoricalSummaryFilter]
}

// NewHistoricalSummaryRepository creates a new historical summary repository
func NewHistoricalSummaryRepository(db *gorm.DB) HistoricalSummaryRepository {
	return &HistoricalSummaryRepositoryImpl{
		BaseRepository: NewBaseRepository[models.HistoricalSummary, models.HistoricalSummaryFilter](db),
	}
}

// ReplaceByKind deletes all summaries of the given period kind and inserts the
// new rows in a single transaction.
func (r *HistoricalSummaryRepositoryImpl) ReplaceByKind(ctx context.Context, kind models.SummaryPeriodKind, rows []*models.HistoricalSummary) error {
	return WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		db := r.getDB(txCtx)

		err := db.Where("period_kind = ?", kind).Delete(&models.HistoricalSummary{}).Error
		if err != nil {
			return err
		}

		if len(rows) == 0 {
			return nil
		}
		return db.CreateInBatches(rows, 500).Error
	})
}

// ByFilter retrieves summaries based on filter criteria
func (r *HistoricalSummaryRepositoryImpl) ByFilter(ctx context.Context, filter models.HistoricalSummaryFilter, orderBy string, limit, offset int) ([]*models.HistoricalSummary, error) {
	db := r.getDB(ctx)

	var rows []*models.HistoricalSummary
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

// Count returns the number of summaries matching the filter
func (r *HistoricalSummaryRepositoryImpl) Count(ctx context.Context, filter models.HistoricalSummaryFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.HistoricalSummary{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *HistoricalSummaryRepositoryImpl) applyFilter(db *gorm.DB, filter models.HistoricalSummaryFilter) *gorm.DB {
	if filter.PeriodKind != nil {
		db = db.Where("period_kind = ?", *filter.PeriodKind)
	}
	if filter.PeriodKey != nil {
		db = db.Where("period_key = ?", *filter.PeriodKey)
	}
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	return db
}
