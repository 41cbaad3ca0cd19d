package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PipelineRunStatus represents the status of a pipeline run
type PipelineRunStatus string

const (
	PipelineRunStatusRunning   PipelineRunStatus = "running"
	PipelineRunStatusCompleted PipelineRunStatus = "completed"
	PipelineRunStatusCancelled PipelineRunStatus = "cancelled"
	PipelineRunStatusFailed    PipelineRunStatus = "failed"
)

// Valid checks if the status is valid
func (s PipelineRunStatus) Valid() bool {
	switch s {
	case PipelineRunStatusRunning, PipelineRunStatusCompleted,
		PipelineRunStatusCancelled, PipelineRunStatusFailed:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for PipelineRunStatus
func (s *PipelineRunStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = PipelineRunStatus(v)
	case []byte:
		*s = PipelineRunStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PipelineRunStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for PipelineRunStatus
func (s PipelineRunStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid PipelineRunStatus: %s", s)
	}
	return string(s), nil
}

// RunFailure records one failed (date, category) unit of a run.
type RunFailure struct {
	Date         string `json:"date"`
	RoomCategory string `json:"room_category"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// RunFailures is the collected failure list of a run.
type RunFailures []RunFailure

// Value implements the driver.Valuer interface for RunFailures
func (f RunFailures) Value() (driver.Value, error) {
	if f == nil {
		return json.Marshal([]RunFailure{})
	}
	return json.Marshal(f)
}

// Scan implements the sql.Scanner interface for RunFailures
func (f *RunFailures) Scan(value any) error {
	if value == nil {
		*f = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RunFailures", value)
	}

	return json.Unmarshal(bytes, f)
}

// PipelineRun is the audit record of one end-to-end pipeline execution.
type PipelineRun struct {
	ID      uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	HotelID string    `gorm:"type:varchar(100);not null;index:idx_pipeline_runs_hotel" json:"hotel_id"`

	RangeFrom time.Time `gorm:"type:date;not null" json:"range_from"`
	RangeTo   time.Time `gorm:"type:date;not null" json:"range_to"`

	Status PipelineRunStatus `gorm:"type:varchar(20);not null;default:'running'" json:"status"`

	Created int `gorm:"not null;default:0" json:"created"`
	Skipped int `gorm:"not null;default:0" json:"skipped"`
	Failed  int `gorm:"not null;default:0" json:"failed"`

	Failures RunFailures `gorm:"type:jsonb;not null;default:'[]'" json:"failures"`

	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// TableName returns the table name for the model
func (PipelineRun) TableName() string {
	return "pipeline_runs"
}

// BeforeCreate is called before creating a new record
func (p *PipelineRun) BeforeCreate(tx *gorm.DB) error {
	if p.UUID == uuid.Nil {
		p.UUID = uuid.New()
	}
	if p.Status == "" {
		p.Status = PipelineRunStatusRunning
	}
	if p.StartedAt.IsZero() {
		p.StartedAt = time.Now().UTC()
	}
	return nil
}

// PipelineRunFilter represents filter criteria for pipeline runs
type PipelineRunFilter struct {
	ID      *uint              `json:"id,omitempty"`
	UUID    *uuid.UUID         `json:"uuid,omitempty"`
	HotelID *string            `json:"hotel_id,omitempty"`
	Status  *PipelineRunStatus `json:"status,omitempty"`
}
