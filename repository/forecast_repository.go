package repository

import (
	"context"
	"errors"
	"time"

	"github.com/hotelops/tarifario/models"
	"gorm.io/gorm"
)

// ForecastRepositoryImpl implements the ForecastRepository interface
type ForecastRepositoryImpl struct {
	*BaseRepository[models.Forecast, models.ForecastFilter]
}

// NewForecastRepository creates a new forecast repository
func NewForecastRepository(db *gorm.DB) ForecastRepository {
	return &ForecastRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Forecast, models.ForecastFilter](db),
	}
}

// ActiveByDateAndCategory retrieves the non-superseded forecast for one target day
func (r *ForecastRepositoryImpl) ActiveByDateAndCategory(ctx context.Context, date time.Time, category string) (*models.Forecast, error) {
	db := r.getDB(ctx)

	var forecast models.Forecast
	err := db.Where("date = ? AND room_category = ? AND superseded = false", date, category).
		Order("generated_at DESC").
		First(&forecast).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	return &forecast, nil
}

// ListActiveByRange retrieves non-superseded forecasts inside [from, to],
// optionally narrowed to a category
func (r *ForecastRepositoryImpl) ListActiveByRange(ctx context.Context, from, to time.Time, category string) ([]*models.Forecast, error) {
	db := r.getDB(ctx)

	query := db.Where("date >= ? AND date <= ? AND superseded = false", from, to)
	if category != "" {
		query = query.Where("room_category = ?", category)
	}

	var forecasts []*models.Forecast
	err := query.Order("date ASC, room_category ASC").Find(&forecasts).Error
	if err != nil {
		return nil, err
	}

	return forecasts, nil
}

// SupersedeAndSave marks existing active forecasts for the rows' (date,
// category) pairs as superseded and inserts the new rows in one transaction.
// Prior rows stay queryable for audit.
func (r *ForecastRepositoryImpl) SupersedeAndSave(ctx context.Context, rows []*models.Forecast) error {
	if len(rows) == 0 {
		return nil
	}

	return WithTransaction(ctx, r.DB, func(txCtx context.Context) error {
		db := r.getDB(txCtx)

		for _, row := range rows {
			err := db.Model(&models.Forecast{}).
				Where("date = ? AND room_category = ? AND superseded = false", row.Date, row.RoomCategory).
				Update("superseded", true).Error
			if err != nil {
				return err
			}
		}

		return db.CreateInBatches(rows, 500).Error
	})
}

// ByFilter retrieves forecasts based on filter criteria
func (r *ForecastRepositoryImpl) ByFilter(ctx context.Context, filter models.ForecastFilter, orderBy string, limit, offset int) ([]*models.Forecast, error) {
	db := r.getDB(ctx)

	var forecasts []*models.Forecast
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

	err := query.Find(&forecasts).Error
	if err != nil {
		return nil, err
	}

	return forecasts, nil
}

// Count returns the number of forecasts matching the filter
func (r *ForecastRepositoryImpl) Count(ctx context.Context, filter models.ForecastFilter) (int64, error) {
	db := r.getDB(ctx)

	var count int64
	query := r.applyFilter(db.Model(&models.Forecast{}), filter)

	err := query.Count(&count).Error
	if err != nil {
		return 0, err
	}

	return count, nil
}

func (r *ForecastRepositoryImpl) applyFilter(db *gorm.DB, filter models.ForecastFilter) *gorm.DB {
	if filter.RoomCategory != nil {
		db = db.Where("room_category = ?", *filter.RoomCategory)
	}
	if filter.DateFrom != nil {
		db = db.Where("date >= ?", *filter.DateFrom)
	}
	if filter.DateTo != nil {
		db = db.Where("date <= ?", *filter.DateTo)
	}
	if filter.Superseded != nil {
		db = db.Where("superseded = ?", *filter.Superseded)
	}
	if filter.ModelVersion != nil {
		db = db.Where("model_version = ?", *filter.ModelVersion)
	}
	return db
}
