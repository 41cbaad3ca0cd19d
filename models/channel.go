package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Channel is a distribution channel (direct, OTA, tour operator). Pricing
// evaluates one recommendation per active channel; the channel commission is
// folded into the recommended rate after the rule set runs.
type Channel struct {
	ID         uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID       uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name       string    `gorm:"type:varchar(50);not null;uniqueIndex:uk_channels_name" json:"name"`
	Commission float64   `gorm:"not null" json:"commission"` // ratio, e.g. 0.18
	Priority   int       `gorm:"not null;default:0" json:"priority"`
	IsDirect   bool      `gorm:"not null;default:false" json:"is_direct"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Channel) TableName() string {
	return "channels"
}

// BeforeCreate is called before creating a new record
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	return nil
}

// ChannelFilter represents filter criteria for channels
type ChannelFilter struct {
	ID       *uint   `json:"id,omitempty"`
	Name     *string `json:"name,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
	IsDirect *bool   `json:"is_direct,omitempty"`
}
