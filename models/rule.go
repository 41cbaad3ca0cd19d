package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleConditionKind is the closed set of condition variants a rule may carry.
type RuleConditionKind string

const (
	ConditionOccupancyAbove RuleConditionKind = "occupancy_above"
	ConditionOccupancyBelow RuleConditionKind = "occupancy_below"
	ConditionLeadTimeWithin RuleConditionKind = "lead_time_within"
	ConditionLeadTimeBeyond RuleConditionKind = "lead_time_beyond"
	ConditionDayOfWeek      RuleConditionKind = "day_of_week"
	ConditionSeason         RuleConditionKind = "season"
	ConditionAlways         RuleConditionKind = "always"
)

// Valid checks if the condition kind is valid
func (k RuleConditionKind) Valid() bool {
	switch k {
	case ConditionOccupancyAbove, ConditionOccupancyBelow,
		ConditionLeadTimeWithin, ConditionLeadTimeBeyond,
		ConditionDayOfWeek, ConditionSeason, ConditionAlways:
		return true
	default:
		return false
	}
}

// RuleAdjustmentKind is the closed set of adjustment variants a rule may carry.
type RuleAdjustmentKind string

const (
	AdjustmentPercent  RuleAdjustmentKind = "percent"  // value is a signed percentage, e.g. +15 or -5
	AdjustmentAbsolute RuleAdjustmentKind = "absolute" // value is a signed currency delta
)

// Valid checks if the adjustment kind is valid
func (k RuleAdjustmentKind) Valid() bool {
	switch k {
	case AdjustmentPercent, AdjustmentAbsolute:
		return true
	default:
		return false
	}
}

// RuleScope restricts the dates, room categories and channels a rule covers.
// Empty slices and nil dates mean "all".
type RuleScope struct {
	DateFrom       *time.Time `json:"date_from,omitempty"`
	DateTo         *time.Time `json:"date_to,omitempty"`
	RoomCategories []string   `json:"room_categories,omitempty"`
	Channels       []string   `json:"channels,omitempty"`
}

// Value implements the driver.Valuer interface for RuleScope
func (s RuleScope) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for RuleScope
func (s *RuleScope) Scan(value any) error {
	if value == nil {
		*s = RuleScope{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleScope", value)
	}

	return json.Unmarshal(bytes, s)
}

// Includes reports whether the scope covers the given date, category and channel.
func (s RuleScope) Includes(date time.Time, category, channel string) bool {
	if s.DateFrom != nil && date.Before(*s.DateFrom) {
		return false
	}
	if s.DateTo != nil && date.After(*s.DateTo) {
		return false
	}
	if len(s.RoomCategories) > 0 && !containsString(s.RoomCategories, category) {
		return false
	}
	if len(s.Channels) > 0 && channel != "" && !containsString(s.Channels, channel) {
		return false
	}
	return true
}

// RuleCondition is the matching predicate of a rule, a tagged variant over
// forecast occupancy, lead time, weekday and season facts.
type RuleCondition struct {
	Kind RuleConditionKind `json:"kind"`

	// Threshold is the occupancy ratio bound for occupancy_* kinds.
	Threshold *float64 `json:"threshold,omitempty"`

	// Days is the lead-time bound in days for lead_time_* kinds.
	Days *int `json:"days,omitempty"`

	// Weekdays holds time.Weekday values (0 = Sunday) for day_of_week.
	Weekdays []int `json:"weekdays,omitempty"`

	// Months holds calendar months (1-12) for the season kind.
	Months []int `json:"months,omitempty"`
}

// Value implements the driver.Valuer interface for RuleCondition
func (c RuleCondition) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for RuleCondition
func (c *RuleCondition) Scan(value any) error {
	if value == nil {
		*c = RuleCondition{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleCondition", value)
	}

	return json.Unmarshal(bytes, c)
}

// PricingFacts are the contextual inputs a condition is evaluated against.
type PricingFacts struct {
	PredictedOccupancy float64
	LeadTimeDays       int
	Weekday            time.Weekday
	Month              time.Month
}

// Matches evaluates the condition against the given facts.
func (c RuleCondition) Matches(facts PricingFacts) bool {
	switch c.Kind {
	case ConditionAlways:
		return true
	case ConditionOccupancyAbove:
		return c.Threshold != nil && facts.PredictedOccupancy >= *c.Threshold
	case ConditionOccupancyBelow:
		return c.Threshold != nil && facts.PredictedOccupancy < *c.Threshold
	case ConditionLeadTimeWithin:
		return c.Days != nil && facts.LeadTimeDays <= *c.Days
	case ConditionLeadTimeBeyond:
		return c.Days != nil && facts.LeadTimeDays > *c.Days
	case ConditionDayOfWeek:
		for _, d := range c.Weekdays {
			if time.Weekday(d) == facts.Weekday {
				return true
			}
		}
		return false
	case ConditionSeason:
		for _, m := range c.Months {
			if time.Month(m) == facts.Month {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// RuleAdjustment is the rate transformation a matching rule applies,
// optionally clamped to the rule's own min/max bounds.
type RuleAdjustment struct {
	Kind RuleAdjustmentKind `json:"kind"`

	// Amount is the signed percentage or currency delta. The JSON key stays
	// "value"; the Go name differs because Value is taken by driver.Valuer.
	Amount float64 `json:"value"`

	MinRate *float64 `json:"min_rate,omitempty"`
	MaxRate *float64 `json:"max_rate,omitempty"`
}

// Value implements the driver.Valuer interface for RuleAdjustment
func (a RuleAdjustment) Value() (driver.Value, error) {
	return json.Marshal(a)
}

// Scan implements the sql.Scanner interface for RuleAdjustment
func (a *RuleAdjustment) Scan(value any) error {
	if value == nil {
		*a = RuleAdjustment{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RuleAdjustment", value)
	}

	return json.Unmarshal(bytes, a)
}

// Apply transforms the running rate and clamps it to the rule's own bounds.
func (a RuleAdjustment) Apply(rate float64) float64 {
	var out float64
	switch a.Kind {
	case AdjustmentPercent:
		out = rate * (1 + a.Amount/100)
	case AdjustmentAbsolute:
		out = rate + a.Amount
	default:
		out = rate
	}
	if a.MinRate != nil && out < *a.MinRate {
		out = *a.MinRate
	}
	if a.MaxRate != nil && out > *a.MaxRate {
		out = *a.MaxRate
	}
	return out
}

// Rule is a configurable pricing policy. Rules are authored by a human,
// validated at save time and read-only during an evaluation run. Priority
// orders evaluation (lower first, ties broken by id ascending).
type Rule struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"uuid"`
	Name        string    `gorm:"type:varchar(150);not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Priority    int       `gorm:"not null;index:idx_rules_priority" json:"priority"`

	Scope      RuleScope      `gorm:"type:jsonb;not null;default:'{}'" json:"scope"`
	Condition  RuleCondition  `gorm:"type:jsonb;not null" json:"condition"`
	Adjustment RuleAdjustment `gorm:"type:jsonb;not null" json:"adjustment"`

	// ExclusionGroup marks same-priority rules as mutually exclusive: two
	// matching rules sharing a non-empty group at the same priority are a
	// configuration error, not a tie to break.
	ExclusionGroup string `gorm:"type:varchar(50)" json:"exclusion_group"`

	Enabled *bool `gorm:"not null;default:true;index:idx_rules_enabled" json:"enabled"`

	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (Rule) TableName() string {
	return "pricing_rules"
}

// BeforeCreate is called before creating a new record
func (r *Rule) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	return nil
}

// IsEnabled reports whether the rule participates in evaluation.
func (r *Rule) IsEnabled() bool {
	return r.Enabled != nil && *r.Enabled
}

// Validate checks the rule definition for structural errors. Malformed rules
// are rejected at save time and never reach evaluation.
func (r *Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !r.Condition.Kind.Valid() {
		return fmt.Errorf("unknown condition kind %q", r.Condition.Kind)
	}
	if !r.Adjustment.Kind.Valid() {
		return fmt.Errorf("unknown adjustment kind %q", r.Adjustment.Kind)
	}
	switch r.Condition.Kind {
	case ConditionOccupancyAbove, ConditionOccupancyBelow:
		if r.Condition.Threshold == nil {
			return fmt.Errorf("condition %s requires a threshold", r.Condition.Kind)
		}
		if *r.Condition.Threshold < 0 || *r.Condition.Threshold > 1 {
			return fmt.Errorf("occupancy threshold must be in [0, 1], got %v", *r.Condition.Threshold)
		}
	case ConditionLeadTimeWithin, ConditionLeadTimeBeyond:
		if r.Condition.Days == nil || *r.Condition.Days < 0 {
			return fmt.Errorf("condition %s requires a non-negative day bound", r.Condition.Kind)
		}
	case ConditionDayOfWeek:
		if len(r.Condition.Weekdays) == 0 {
			return fmt.Errorf("condition day_of_week requires at least one weekday")
		}
		for _, d := range r.Condition.Weekdays {
			if d < 0 || d > 6 {
				return fmt.Errorf("weekday must be in [0, 6], got %d", d)
			}
		}
	case ConditionSeason:
		if len(r.Condition.Months) == 0 {
			return fmt.Errorf("condition season requires at least one month")
		}
		for _, m := range r.Condition.Months {
			if m < 1 || m > 12 {
				return fmt.Errorf("month must be in [1, 12], got %d", m)
			}
		}
	}
	if r.Adjustment.Kind == AdjustmentPercent && r.Adjustment.Amount <= -100 {
		return fmt.Errorf("percent adjustment must be greater than -100, got %v", r.Adjustment.Amount)
	}
	if r.Adjustment.MinRate != nil && *r.Adjustment.MinRate < 0 {
		return fmt.Errorf("min rate cap must be non-negative")
	}
	if r.Adjustment.MinRate != nil && r.Adjustment.MaxRate != nil && *r.Adjustment.MinRate > *r.Adjustment.MaxRate {
		return fmt.Errorf("min rate cap %v exceeds max rate cap %v", *r.Adjustment.MinRate, *r.Adjustment.MaxRate)
	}
	if r.Scope.DateFrom != nil && r.Scope.DateTo != nil && r.Scope.DateFrom.After(*r.Scope.DateTo) {
		return fmt.Errorf("scope date_from is after date_to")
	}
	return nil
}

// RuleFilter represents filter criteria for rules
type RuleFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	Name           *string    `json:"name,omitempty"`
	Priority       *int       `json:"priority,omitempty"`
	Enabled        *bool      `json:"enabled,omitempty"`
	ExclusionGroup *string    `json:"exclusion_group,omitempty"`
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
