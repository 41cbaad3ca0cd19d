package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// SummaryPeriodKind identifies the bucketing scheme of a historical summary.
type SummaryPeriodKind string

const (
	// SummaryPeriodMonth buckets by calendar month (period key "2025-07").
	SummaryPeriodMonth SummaryPeriodKind = "month"
	// SummaryPeriodDayOfWeek buckets by weekday (period key "Saturday").
	SummaryPeriodDayOfWeek SummaryPeriodKind = "day_of_week"
)

// Valid checks if the period kind is valid
func (k SummaryPeriodKind) Valid() bool {
	switch k {
	case SummaryPeriodMonth, SummaryPeriodDayOfWeek:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for SummaryPeriodKind
func (k *SummaryPeriodKind) Scan(value any) error {
	if value == nil {
		*k = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*k = SummaryPeriodKind(v)
	case []byte:
		*k = SummaryPeriodKind(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SummaryPeriodKind", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SummaryPeriodKind
func (k SummaryPeriodKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid SummaryPeriodKind: %s", k)
	}
	return string(k), nil
}

// HistoricalSummary is a rollup of bookings and stays over a period bucket.
// Summaries are rebuilt as a whole whenever inputs for the period change;
// partial writes never happen (delete-then-insert in one transaction).
type HistoricalSummary struct {
	ID           uint              `gorm:"primaryKey;autoIncrement" json:"id"`
	PeriodKind   SummaryPeriodKind `gorm:"type:varchar(20);not null;uniqueIndex:uk_summaries_period_category" json:"period_kind"`
	PeriodKey    string            `gorm:"type:varchar(20);not null;uniqueIndex:uk_summaries_period_category" json:"period_key"`
	RoomCategory string            `gorm:"type:varchar(50);not null;uniqueIndex:uk_summaries_period_category" json:"room_category"`

	RoomNights int     `gorm:"not null" json:"room_nights"`
	Revenue    float64 `gorm:"not null" json:"revenue"`
	ADR        float64 `gorm:"column:adr;not null" json:"adr"`
	Occupancy  float64 `gorm:"not null" json:"occupancy"`

	// Cancellation statistics keep cancelled bookings visible even though
	// they are excluded from occupancy and revenue.
	CancelledBookings int     `gorm:"not null" json:"cancelled_bookings"`
	CancellationRate  float64 `gorm:"not null" json:"cancellation_rate"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (HistoricalSummary) TableName() string {
	return "historical_summaries"
}

// HistoricalSummaryFilter represents filter criteria for summaries
type HistoricalSummaryFilter struct {
	PeriodKind   *SummaryPeriodKind `json:"period_kind,omitempty"`
	PeriodKey    *string            `json:"period_key,omitempty"`
	RoomCategory *string            `json:"room_category,omitempty"`
}
