// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/models"
)

// contextKey is the key type for transaction values carried in a context
type contextKey string

const TxContextKey contextKey = "tx"

// Repository is the generic capability every persisted entity exposes to the
// rest of the system. Each entity owns its own filter mapping; callers depend
// only on this interface.
type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Update(ctx context.Context, entity *T) error
	Count(ctx context.Context, filter F) (int64, error)
}

// RoomRepository defines operations for room categories
type RoomRepository interface {
	Repository[models.Room, models.RoomFilter]
	ByCategory(ctx context.Context, category string) (*models.Room, error)
	ListActive(ctx context.Context) ([]*models.Room, error)
}

// RawBookingRepository defines operations for raw booking records
type RawBookingRepository interface {
	Repository[models.RawBooking, models.RawBookingFilter]
	ListByArrivalRange(ctx context.Context, from, to time.Time) ([]*models.RawBooking, error)
}

// RawStayRepository defines operations for raw stay records
type RawStayRepository interface {
	Repository[models.RawStay, models.RawStayFilter]
	ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.RawStay, error)
}

// DailyOccupancyRepository defines operations for daily occupancy rollups
type DailyOccupancyRepository interface {
	Repository[models.DailyOccupancy, models.DailyOccupancyFilter]
	ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.DailyOccupancy, error)
	ReplaceRange(ctx context.Context, from, to time.Time, rows []*models.DailyOccupancy) error
}

// DailyRevenueRepository defines operations for daily revenue rollups
type DailyRevenueRepository interface {
	Repository[models.DailyRevenue, models.DailyRevenueFilter]
	ListByDateRange(ctx context.Context, from, to time.Time, category string) ([]*models.DailyRevenue, error)
	ReplaceRange(ctx context.Context, from, to time.Time, rows []*models.DailyRevenue) error
}

// HistoricalSummaryRepository defines operations for period summaries
type HistoricalSummaryRepository interface {
	Repository[models.HistoricalSummary, models.HistoricalSummaryFilter]
	ReplaceByKind(ctx context.Context, kind models.SummaryPeriodKind, rows []*models.HistoricalSummary) error
}

// ForecastRepository defines operations for demand forecasts
type ForecastRepository interface {
	Repository[models.Forecast, models.ForecastFilter]
	ActiveByDateAndCategory(ctx context.Context, date time.Time, category string) (*models.Forecast, error)
	ListActiveByRange(ctx context.Context, from, to time.Time, category string) ([]*models.Forecast, error)
	// SupersedeAndSave marks existing active forecasts for the rows'
	// (date, category) pairs as superseded and inserts the new rows in one
	// transaction.
	SupersedeAndSave(ctx context.Context, rows []*models.Forecast) error
}

// RuleRepository defines operations for pricing rules
type RuleRepository interface {
	Repository[models.Rule, models.RuleFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Rule, error)
	ListEnabled(ctx context.Context) ([]*models.Rule, error)
}

// RecommendationRepository defines operations for tariff recommendations
type RecommendationRepository interface {
	Repository[models.Recommendation, models.RecommendationFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.Recommendation, error)
	// ByIDForUpdate loads a recommendation with a row lock so concurrent
	// decisions on the same record serialize.
	ByIDForUpdate(ctx context.Context, id uint) (*models.Recommendation, error)
	ActiveByTarget(ctx context.Context, date time.Time, category, channel string) (*models.Recommendation, error)
	ListPendingExport(ctx context.Context, from, to time.Time) ([]*models.Recommendation, error)
}

// ChannelRepository defines operations for distribution channels
type ChannelRepository interface {
	Repository[models.Channel, models.ChannelFilter]
	ListActive(ctx context.Context) ([]*models.Channel, error)
}

// PipelineRunRepository defines operations for pipeline run audit records
type PipelineRunRepository interface {
	Repository[models.PipelineRun, models.PipelineRunFilter]
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.PipelineRun, error)
}
