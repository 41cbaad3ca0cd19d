package models

import (
	"time"
)

// DailyRevenue is the revenue rollup for one date and room category, rebuilt
// alongside DailyOccupancy. ADR = revenue / rooms sold, RevPAR = revenue /
// rooms available.
type DailyRevenue struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Date         time.Time `gorm:"type:date;not null;uniqueIndex:uk_daily_revenue_date_category" json:"date"`
	RoomCategory string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_daily_revenue_date_category" json:"room_category"`
	Revenue      float64   `gorm:"not null" json:"revenue"`
	ADR          float64   `gorm:"column:adr;not null" json:"adr"`
	RevPAR       float64   `gorm:"column:revpar;not null" json:"revpar"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (DailyRevenue) TableName() string {
	return "daily_revenue"
}

// DailyRevenueFilter represents filter criteria for daily revenue rows
type DailyRevenueFilter struct {
	RoomCategory *string    `json:"room_category,omitempty"`
	DateFrom     *time.Time `json:"date_from,omitempty"`
	DateTo       *time.Time `json:"date_to,omitempty"`
}
