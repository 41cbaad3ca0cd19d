package dto

import (
	"time"
)

// RuleDeltaDTO records one rule's contribution to the final rate
type RuleDeltaDTO struct {
	RuleID     uint    `json:"rule_id"`
	RuleName   string  `json:"rule_name"`
	RateBefore float64 `json:"rate_before"`
	RateAfter  float64 `json:"rate_after"`
}

// RecommendationDTO represents a tariff recommendation in responses
type RecommendationDTO struct {
	UUID                string         `json:"uuid"`
	Date                string         `json:"date"`
	RoomCategory        string         `json:"room_category"`
	Channel             string         `json:"channel"`
	BaselineRate        float64        `json:"baseline_rate"`
	RecommendedRate     float64        `json:"recommended_rate"`
	ApprovedRate        *float64       `json:"approved_rate,omitempty"`
	ContributingRuleIDs []int64        `json:"contributing_rule_ids"`
	Deltas              []RuleDeltaDTO `json:"deltas"`
	Status              string         `json:"status"`
	DecidedBy           *string        `json:"decided_by,omitempty"`
	DecidedAt           *time.Time     `json:"decided_at,omitempty"`
	RejectReason        *string        `json:"reject_reason,omitempty"`
	ExportedAt          *time.Time     `json:"exported_at,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
}

// ListRecommendationsRequest represents the recommendation listing query
type ListRecommendationsRequest struct {
	From         string `json:"from" validate:"omitempty,datetime=2006-01-02"`
	To           string `json:"to" validate:"omitempty,datetime=2006-01-02"`
	Status       string `json:"status" validate:"omitempty,oneof=pending approved rejected exported"`
	RoomCategory string `json:"room_category" validate:"omitempty,max=50"`
	Channel      string `json:"channel" validate:"omitempty,max=50"`
	Page         int    `json:"page" validate:"omitempty,min=1"`
	PageSize     int    `json:"page_size" validate:"omitempty,min=1,max=100"`
}

// ListRecommendationsResponse represents the recommendation listing result
type ListRecommendationsResponse struct {
	Items []RecommendationDTO `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
}

// ApproveRecommendationRequest represents the request to approve a recommendation
type ApproveRecommendationRequest struct {
	UUID      string `json:"-"`
	DecidedBy string `json:"-"`

	// ApprovedRate lets the reviewer adjust the rate while approving.
	ApprovedRate *float64 `json:"approved_rate,omitempty" validate:"omitempty,gt=0"`
}

// RejectRecommendationRequest represents the request to reject a recommendation
type RejectRecommendationRequest struct {
	UUID      string `json:"-"`
	DecidedBy string `json:"-"`
	Reason    string `json:"reason" validate:"required,min=3,max=500"`
}

// ExportRecommendationRequest represents the request to export a single recommendation
type ExportRecommendationRequest struct {
	UUID string `json:"-"`
}

// DecisionResponse represents the updated recommendation after a decision
type DecisionResponse struct {
	Message        string            `json:"message"`
	Recommendation RecommendationDTO `json:"recommendation"`
}
