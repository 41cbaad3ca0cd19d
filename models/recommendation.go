package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// RecommendationStatus represents the lifecycle state of a recommendation
type RecommendationStatus string

const (
	RecommendationStatusPending  RecommendationStatus = "pending"
	RecommendationStatusApproved RecommendationStatus = "approved"
	RecommendationStatusRejected RecommendationStatus = "rejected"
	RecommendationStatusExported RecommendationStatus = "exported"
)

// String returns the string representation of the status
func (s RecommendationStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s RecommendationStatus) Valid() bool {
	switch s {
	case RecommendationStatusPending, RecommendationStatusApproved,
		RecommendationStatusRejected, RecommendationStatusExported:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RecommendationStatus
func (s *RecommendationStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = RecommendationStatus(v)
	case []byte:
		*s = RecommendationStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RecommendationStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RecommendationStatus
func (s RecommendationStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid RecommendationStatus: %s", s)
	}
	return string(s), nil
}

// RuleDelta records one rule's contribution to the final rate for traceability.
type RuleDelta struct {
	RuleID     uint    `json:"rule_id"`
	RuleName   string  `json:"rule_name"`
	RateBefore float64 `json:"rate_before"`
	RateAfter  float64 `json:"rate_after"`
}

// RuleDeltas is the ordered trace of rule applications.
type RuleDeltas []RuleDelta

// Value implements the driver.Valuer interface for RuleDeltas
func (d RuleDeltas) Value() (driver.Value, error) {
	if d == nil {
		return json.Marshal([]RuleDelta{})
	}
	return json.Marshal(d)
}

// Scan implements the sql.Scanner interface for RuleDeltas
func (d *RuleDeltas) Scan(value any) error {
	if value == nil {
		*d = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleDeltas", value)
	}

	return json.Unmarshal(bytes, d)
}

// Recommendation is a tariff-change proposal and its human decision. It
// transitions exactly once along pending -> approved -> exported or
// pending -> rejected, and is immutable once exported.
type Recommendation struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Date         time.Time `gorm:"type:date;not null;index:idx_recommendations_date_category" json:"date"`
	RoomCategory string    `gorm:"type:varchar(50);not null;index:idx_recommendations_date_category" json:"room_category"`
	Channel      string    `gorm:"type:varchar(50);not null" json:"channel"`

	BaselineRate    float64 `gorm:"not null" json:"baseline_rate"`
	RecommendedRate float64 `gorm:"not null" json:"recommended_rate"`

	// ApprovedRate defaults to the recommended rate; the reviewer may adjust
	// it when approving.
	ApprovedRate *float64 `json:"approved_rate,omitempty"`

	ContributingRuleIDs pq.Int64Array `gorm:"type:bigint[]" json:"contributing_rule_ids"`
	Deltas              RuleDeltas    `gorm:"type:jsonb;not null;default:'[]'" json:"deltas"`

	Status       RecommendationStatus `gorm:"type:varchar(20);not null;default:'pending';index:idx_recommendations_status" json:"status"`
	DecidedBy    *string              `gorm:"type:varchar(150)" json:"decided_by,omitempty"`
	DecidedAt    *time.Time           `json:"decided_at,omitempty"`
	RejectReason *string              `gorm:"type:text" json:"reject_reason,omitempty"`
	ExportedAt   *time.Time           `json:"exported_at,omitempty"`

	// PipelineRunID links the recommendation to the run that produced it.
	PipelineRunID *uint `gorm:"index" json:"pipeline_run_id,omitempty"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Recommendation) TableName() string {
	return "recommendations"
}

// BeforeCreate is called before creating a new record
func (r *Recommendation) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.Status == "" {
		r.Status = RecommendationStatusPending
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (r *Recommendation) BeforeUpdate(tx *gorm.DB) error {
	now := time.Now().UTC()
	r.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks if the recommendation can move to the given status.
func (r *Recommendation) CanTransitionTo(newStatus RecommendationStatus) bool {
	switch r.Status {
	case RecommendationStatusPending:
		return newStatus == RecommendationStatusApproved ||
			newStatus == RecommendationStatusRejected
	case RecommendationStatusApproved:
		return newStatus == RecommendationStatusExported
	default:
		return false
	}
}

// IsDecided reports whether a human decision was recorded.
func (r *Recommendation) IsDecided() bool {
	return r.Status != RecommendationStatusPending
}

// IsTerminal reports whether no further transition is possible.
func (r *Recommendation) IsTerminal() bool {
	return r.Status == RecommendationStatusRejected ||
		r.Status == RecommendationStatusExported
}

// RecommendationFilter represents filter criteria for recommendations
type RecommendationFilter struct {
	ID            *uint                 `json:"id,omitempty"`
	UUID          *uuid.UUID            `json:"uuid,omitempty"`
	RoomCategory  *string               `json:"room_category,omitempty"`
	Channel       *string               `json:"channel,omitempty"`
	Status        *RecommendationStatus `json:"status,omitempty"`
	DateFrom      *time.Time            `json:"date_from,omitempty"`
	DateTo        *time.Time            `json:"date_to,omitempty"`
	PipelineRunID *uint                 `json:"pipeline_run_id,omitempty"`
}
