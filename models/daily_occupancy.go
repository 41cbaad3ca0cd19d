package models

import (
	"time"
)

// DailyOccupancy is the occupancy rollup for one date and room category,
// rebuilt idempotently by the aggregator. One row per (date, category);
// recomputation overwrites, it never appends.
type DailyOccupancy struct {
	ID             uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date           time.Time `gorm:"type:date;not null;uniqueIndex:uk_daily_occupancy_date_category" json:"date"`
	RoomCategory   string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_daily_occupancy_date_category" json:"room_category"`
	RoomsSold      int       `gorm:"not null" json:"rooms_sold"`
	RoomsAvailable int       `gorm:"not null" json:"rooms_available"`

	// Occupancy is rooms sold over rooms available, clamped to [0, 1].
	Occupancy float64 `gorm:"not null" json:"occupancy"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (DailyOccupancy) TableName() string {
	return "daily_occupancy"
}

// DailyOccupancyFilter represents filter criteria for daily occupancy rows
type DailyOccupancyFilter struct {
	RoomCategory *string    `json:"room_category,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
}
