package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookingStatus represents the status of a raw booking record
type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// String returns the string representation of the status
func (s BookingStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusConfirmed, BookingStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for BookingStatus
func (s *BookingStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = BookingStatus(v)
	case []byte:
		*s = BookingStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into BookingStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for BookingStatus
func (s BookingStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid BookingStatus: %s", s)
	}
	return string(s), nil
}

// RawBooking represents one reservation transaction as delivered by the
// ingestion collaborator. Records are immutable once stored; the pipeline
// consumes them and never mutates them.
type RawBooking struct {
	ID            uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID          uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	RoomCategory  string        `gorm:"type:varchar(50);not null;index:idx_raw_bookings_category" json:"room_category"`
	ArrivalDate   time.Time     `gorm:"type:date;not null;index:idx_raw_bookings_arrival" json:"arrival_date"`
	DepartureDate time.Time     `gorm:"type:date;not null" json:"departure_date"`
	BookedOn      time.Time     `gorm:"type:date;not null" json:"booked_on"`
	Rate          float64       `gorm:"not null" json:"rate"`
	Status        BookingStatus `gorm:"type:varchar(20);not null;default:'confirmed';index:idx_raw_bookings_status" json:"status"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (RawBooking) TableName() string {
	return "raw_bookings"
}

// BeforeCreate is called before creating a new record
func (b *RawBooking) BeforeCreate(tx *gorm.DB) error {
	if b.UUID == uuid.Nil {
		b.UUID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BookingStatusConfirmed
	}
	return nil
}

// Nights returns the number of room-nights the booking spans.
func (b *RawBooking) Nights() int {
	n := int(b.DepartureDate.Sub(b.ArrivalDate).Hours() / 24)
	if n < 0 {
		return 0
	}
	return n
}

// IsCancelled reports whether the booking was cancelled.
func (b *RawBooking) IsCancelled() bool {
	return b.Status == BookingStatusCancelled
}

// LeadTimeDays returns the days between booking and arrival.
func (b *RawBooking) LeadTimeDays() int {
	return int(b.ArrivalDate.Sub(b.BookedOn).Hours() / 24)
}

// RawBookingFilter represents filter criteria for raw bookings
type RawBookingFilter struct {
	ID            *uint          `json:"id,omitempty"`
	UUID          *uuid.UUID     `json:"uuid,omitempty"`
	RoomCategory  *string        `json:"room_category,omitempty"`
	Status        *BookingStatus `json:"status,omitempty"`
	ArrivalAfter  *time.Time     `json:"arrival_after,omitempty"`
	ArrivalBefore *time.Time     `json:"arrival_before,omitempty"`
}
