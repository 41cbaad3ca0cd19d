package dto

import (
	"time"
)

// RuleScopeDTO restricts the dates, categories and channels a rule covers
type RuleScopeDTO struct {
	DateFrom       *string  `json:"date_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DateTo         *string  `json:"date_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	RoomCategories []string `json:"room_categories,omitempty"`
	Channels       []string `json:"channels,omitempty"`
}

// RuleConditionDTO is the matching predicate of a rule
type RuleConditionDTO struct {
	Kind      string   `json:"kind" validate:"required,oneof=occupancy_above occupancy_below lead_time_within lead_time_beyond day_of_week season always"`
	Threshold *float64 `json:"threshold,omitempty" validate:"omitempty,min=0,max=1"`
	Days      *int     `json:"days,omitempty" validate:"omitempty,min=0"`
	Weekdays  []int    `json:"weekdays,omitempty" validate:"omitempty,dive,min=0,max=6"`
	Months    []int    `json:"months,omitempty" validate:"omitempty,dive,min=1,max=12"`
}

// RuleAdjustmentDTO is the rate transformation a matching rule applies
type RuleAdjustmentDTO struct {
	Kind    string   `json:"kind" validate:"required,oneof=percent absolute"`
	Value   float64  `json:"value" validate:"required"`
	MinRate *float64 `json:"min_rate,omitempty" validate:"omitempty,min=0"`
	MaxRate *float64 `json:"max_rate,omitempty" validate:"omitempty,min=0"`
}

// CreateRuleRequest represents the request to create a pricing rule
type CreateRuleRequest struct {
	Name           string            `json:"name" validate:"required,min=3,max=150"`
	Description    string            `json:"description" validate:"omitempty,max=1000"`
	Priority       int               `json:"priority" validate:"min=0"`
	Scope          RuleScopeDTO      `json:"scope"`
	Condition      RuleConditionDTO  `json:"condition" validate:"required"`
	Adjustment     RuleAdjustmentDTO `json:"adjustment" validate:"required"`
	ExclusionGroup string            `json:"exclusion_group" validate:"omitempty,max=50"`
	Enabled        *bool             `json:"enabled,omitempty"`
}

// UpdateRuleRequest represents the request to update a pricing rule
type UpdateRuleRequest struct {
	UUID           string             `json:"-"`
	Name           *string            `json:"name,omitempty" validate:"omitempty,min=3,max=150"`
	Description    *string            `json:"description,omitempty" validate:"omitempty,max=1000"`
	Priority       *int               `json:"priority,omitempty" validate:"omitempty,min=0"`
	Scope          *RuleScopeDTO      `json:"scope,omitempty"`
	Condition      *RuleConditionDTO  `json:"condition,omitempty"`
	Adjustment     *RuleAdjustmentDTO `json:"adjustment,omitempty"`
	ExclusionGroup *string            `json:"exclusion_group,omitempty" validate:"omitempty,max=50"`
	Enabled        *bool              `json:"enabled,omitempty"`
}

// RuleDTO represents a pricing rule in responses
type RuleDTO struct {
	UUID           string            `json:"uuid"`
	Name           string            `json:"name"`
	Description    string            `json:"description,omitempty"`
	Priority       int               `json:"priority"`
	Scope          RuleScopeDTO      `json:"scope"`
	Condition      RuleConditionDTO  `json:"condition"`
	Adjustment     RuleAdjustmentDTO `json:"adjustment"`
	ExclusionGroup string            `json:"exclusion_group,omitempty"`
	Enabled        bool              `json:"enabled"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      *time.Time        `json:"updated_at,omitempty"`
}

// ListRulesResponse represents the rule listing result
type ListRulesResponse struct {
	Items []RuleDTO `json:"items"`
	Total int64     `json:"total"`
}

// RuleResponse represents a single rule in responses
type RuleResponse struct {
	Message string  `json:"message"`
	Rule    RuleDTO `json:"rule"`
}
