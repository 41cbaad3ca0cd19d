package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Forecast is the predicted demand for a future date and room category.
// Forecast rows are immutable: a later run inserts a superseding row and
// flips Superseded on the prior one, preserving the audit trail. At most one
// non-superseded row exists per (date, category).
type Forecast struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Date         time.Time `gorm:"type:date;not null;index:idx_forecasts_date_category" json:"date"`
	RoomCategory string    `gorm:"type:varchar(50);not null;index:idx_forecasts_date_category" json:"room_category"`

	// PredictedOccupancy is a ratio in [0, 1].
	PredictedOccupancy float64 `gorm:"not null" json:"predicted_occupancy"`
	PredictedADR       float64 `gorm:"column:predicted_adr;not null" json:"predicted_adr"`
	PredictedRevPAR    float64 `gorm:"column:predicted_revpar;not null" json:"predicted_revpar"`

	// Confidence interval bounds on predicted occupancy, clamped to [0, 1].
	ConfidenceLow  float64 `gorm:"not null" json:"confidence_low"`
	ConfidenceHigh float64 `gorm:"not null" json:"confidence_high"`

	ModelVersion string    `gorm:"type:varchar(50);not null" json:"model_version"`
	GeneratedAt  time.Time `gorm:"not null" json:"generated_at"`
	Superseded   bool      `gorm:"not null;default:false;index:idx_forecasts_superseded" json:"superseded"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (Forecast) TableName() string {
	return "forecasts"
}

// BeforeCreate is called before creating a new record
func (f *Forecast) BeforeCreate(tx *gorm.DB) error {
	if f.UUID == uuid.Nil {
		f.UUID = uuid.New()
	}
	if f.GeneratedAt.IsZero() {
		f.GeneratedAt = time.Now().UTC()
	}
	return nil
}

// ForecastFilter represents filter criteria for forecasts
type ForecastFilter struct {
	RoomCategory *string    `json:"room_category,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
	Superseded   *bool      `json:"superseded,omitempty"`
	ModelVersion *string    `json:"model_version,omitempty"`
}
