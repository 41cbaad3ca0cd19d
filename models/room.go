package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Room represents a sellable room category of the hotel. The pipeline treats
// rooms as read-only configuration: forecasting and pricing operate per category.
type Room struct {
	ID       uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID     uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name     string    `gorm:"type:varchar(100);not null" json:"name"`
	Category string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_rooms_category" json:"category"`
	Capacity int       `gorm:"not null;default:2" json:"capacity"`

	// TotalUnits is the number of physical rooms in this category, i.e. the
	// denominator of occupancy and RevPAR.
	TotalUnits int `gorm:"not null" json:"total_units"`

	// BaseRate is the rack rate used as pricing baseline when no forecast ADR
	// is available.
	BaseRate float64 `gorm:"not null" json:"base_rate"`

	IsActive *bool `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Room) TableName() string {
	return "rooms"
}

// BeforeCreate is called before creating a new record
func (r *Room) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// RoomFilter represents filter criteria for rooms
type RoomFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Category *string    `json:"category,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
