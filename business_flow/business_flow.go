// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds client-related information for request tracing
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// DateRange is an inclusive [From, To] range of calendar dates (UTC midnight).
type DateRange struct {
	From time.Time
	To   time.Time
}

// NewDateRange normalizes both bounds to date-only UTC and validates ordering.
func NewDateRange(from, to time.Time) (DateRange, error) {
	from = utils.DateOnly(from)
	to = utils.DateOnly(to)
	if from.IsZero() || to.IsZero() {
		return DateRange{}, ErrDateRangeRequired
	}
	if from.After(to) {
		return DateRange{}, ErrStartDateAfterEndDate
	}
	return DateRange{From: from, To: to}, nil
}

// Contains reports whether the date falls inside the range.
func (r DateRange) Contains(date time.Time) bool {
	d := utils.DateOnly(date)
	return !d.Before(r.From) && !d.After(r.To)
}

// Days returns the number of calendar days in the range, inclusive.
func (r DateRange) Days() int {
	return utils.DaysBetween(r.From, r.To) + 1
}

// Dates returns every date in the range in ascending order.
func (r DateRange) Dates() []time.Time {
	return utils.DatesInRange(r.From, r.To)
}

// ToRecommendationDTO converts a recommendation model for API responses
func ToRecommendationDTO(rec models.Recommendation) dto.RecommendationDTO {
	deltas := make([]dto.RuleDeltaDTO, 0, len(rec.Deltas))
	for _, d := range rec.Deltas {
		deltas = append(deltas, dto.RuleDeltaDTO{
			RuleID:     d.RuleID,
			RuleName:   d.RuleName,
			RateBefore: d.RateBefore,
			RateAfter:  d.RateAfter,
		})
	}

	return dto.RecommendationDTO{
		UUID:                rec.UUID.String(),
		Date:                utils.FormatDate(rec.Date),
		RoomCategory:        rec.RoomCategory,
		Channel:             rec.Channel,
		BaselineRate:        rec.BaselineRate,
		RecommendedRate:     rec.RecommendedRate,
		ApprovedRate:        rec.ApprovedRate,
		ContributingRuleIDs: rec.ContributingRuleIDs,
		Deltas:              deltas,
		Status:              rec.Status.String(),
		DecidedBy:           rec.DecidedBy,
		DecidedAt:           rec.DecidedAt,
		RejectReason:        rec.RejectReason,
		ExportedAt:          rec.ExportedAt,
		CreatedAt:           rec.CreatedAt,
	}
}

// ToForecastDTO converts a forecast model for API responses
func ToForecastDTO(f models.Forecast) dto.ForecastDTO {
	return dto.ForecastDTO{
		UUID:               f.UUID.String(),
		Date:               utils.FormatDate(f.Date),
		RoomCategory:       f.RoomCategory,
		PredictedOccupancy: f.PredictedOccupancy,
		PredictedADR:       f.PredictedADR,
		PredictedRevPAR:    f.PredictedRevPAR,
		ConfidenceLow:      f.ConfidenceLow,
		ConfidenceHigh:     f.ConfidenceHigh,
		ModelVersion:       f.ModelVersion,
		GeneratedAt:        f.GeneratedAt,
	}
}

// ToRuleDTO converts a rule model for API responses
func ToRuleDTO(rule models.Rule) dto.RuleDTO {
	scope := dto.RuleScopeDTO{
		RoomCategories: rule.Scope.RoomCategories,
		Channels:       rule.Scope.Channels,
	}
	if rule.Scope.DateFrom != nil {
		scope.DateFrom = utils.ToPtr(utils.FormatDate(*rule.Scope.DateFrom))
	}
	if rule.Scope.DateTo != nil {
		scope.DateTo = utils.ToPtr(utils.FormatDate(*rule.Scope.DateTo))
	}

	return dto.RuleDTO{
		UUID:        rule.UUID.String(),
		Name:        rule.Name,
		Description: rule.Description,
		Priority:    rule.Priority,
		Scope:       scope,
		Condition: dto.RuleConditionDTO{
			Kind:      string(rule.Condition.Kind),
			Threshold: rule.Condition.Threshold,
			Days:      rule.Condition.Days,
			Weekdays:  rule.Condition.Weekdays,
			Months:    rule.Condition.Months,
		},
		Adjustment: dto.RuleAdjustmentDTO{
			Kind:    string(rule.Adjustment.Kind),
			Value:   rule.Adjustment.Amount,
			MinRate: rule.Adjustment.MinRate,
			MaxRate: rule.Adjustment.MaxRate,
		},
		ExclusionGroup: rule.ExclusionGroup,
		Enabled:        rule.IsEnabled(),
		CreatedAt:      rule.CreatedAt,
		UpdatedAt:      rule.UpdatedAt,
	}
}

// ToPipelineRunDTO converts a pipeline run model for API responses
func ToPipelineRunDTO(run models.PipelineRun, message string) dto.RunPipelineResponse {
	failures := make([]dto.RunFailureDTO, 0, len(run.Failures))
	for _, f := range run.Failures {
		failures = append(failures, dto.RunFailureDTO{
			Date:         f.Date,
			RoomCategory: f.RoomCategory,
			Code:         f.Code,
			Message:      f.Message,
		})
	}

	return dto.RunPipelineResponse{
		Message:    message,
		UUID:       run.UUID.String(),
		HotelID:    run.HotelID,
		Status:     string(run.Status),
		From:       utils.FormatDate(run.RangeFrom),
		To:         utils.FormatDate(run.RangeTo),
		Created:    run.Created,
		Skipped:    run.Skipped,
		Failed:     run.Failed,
		Failures:   failures,
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
	}
}
