package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RawStay represents one realized night of occupancy as delivered by the
// ingestion collaborator. Immutable once stored.
type RawStay struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Date         time.Time `gorm:"type:date;not null;index:idx_raw_stays_date" json:"date"`
	RoomCategory string    `gorm:"type:varchar(50);not null;index:idx_raw_stays_category" json:"room_category"`
	RateCharged  float64   `gorm:"not null" json:"rate_charged"`

	// SourceBookingID links the stay night back to the reservation it realized.
	SourceBookingID uint `gorm:"not null;index:idx_raw_stays_booking" json:"source_booking_id"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (RawStay) TableName() string {
	return "raw_stays"
}

// BeforeCreate is called before creating a new record
func (s *RawStay) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	return nil
}

// RawStayFilter represents filter criteria for raw stays
type RawStayFilter struct {
	ID              *uint      `json:"id,omitempty"`
	RoomCategory    *string    `json:"room_category,omitempty"`
	SourceBookingID *uint      `json:"source_booking_id,omitempty"`
	DateFrom        *time.Time `json:"date_from,omitempty"`
	DateTo          *time.Time `json:"date_to,omitempty"`
}
