// Package businessflow contains the core business logic of the revenue
// management pipeline: aggregation, forecasting, rule evaluation and the
// recommendation lifecycle.
package businessflow

import (
	"errors"
	"fmt"
	"time"
)

// Business flow error constants
var (
	// Lookup errors
	ErrRoomNotFound           = errors.New("room category not found")
	ErrRuleNotFound           = errors.New("rule not found")
	ErrRecommendationNotFound = errors.New("recommendation not found")
	ErrPipelineRunNotFound    = errors.New("pipeline run not found")
	ErrChannelNotFound        = errors.New("channel not found")

	// Input errors
	ErrDateRangeRequired     = errors.New("date range is required")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
	ErrRejectReasonRequired  = errors.New("reject reason is required")
	ErrDecidedByRequired     = errors.New("decided_by is required")
	ErrApprovedRateInvalid   = errors.New("approved rate must be positive")

	// Filter errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size must be between 1 and 100")

	ErrCacheNotAvailable = errors.New("cache not available")
	ErrNothingToExport   = errors.New("no approved recommendations to export")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// InsufficientDataError reports a (category, range) with zero stay-nights.
// It is surfaced rather than silently zero-filled because a silent zero would
// bias the forecast.
type InsufficientDataError struct {
	RoomCategory string
	From         time.Time
	To           time.Time
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("no stay-nights for category %q between %s and %s",
		e.RoomCategory, e.From.Format("2006-01-02"), e.To.Format("2006-01-02"))
}

// ForecastUnavailableError reports that a category has no historical series
// to project from. The orchestrator skips that category instead of pricing
// from stale data.
type ForecastUnavailableError struct {
	RoomCategory string
	Date         time.Time
}

func (e *ForecastUnavailableError) Error() string {
	if e.Date.IsZero() {
		return fmt.Sprintf("no historical series to forecast category %q", e.RoomCategory)
	}
	return fmt.Sprintf("no active forecast for category %q on %s",
		e.RoomCategory, e.Date.Format("2006-01-02"))
}

// InvalidRuleDefinitionError reports a malformed rule at save time. Malformed
// rules never reach evaluation.
type InvalidRuleDefinitionError struct {
	RuleName string
	Reason   error
}

func (e *InvalidRuleDefinitionError) Error() string {
	return fmt.Sprintf("invalid rule definition %q: %v", e.RuleName, e.Reason)
}

func (e *InvalidRuleDefinitionError) Unwrap() error {
	return e.Reason
}

// RuleConflictError reports two same-priority mutually exclusive rules that
// both match. This is a configuration error, not a tie to break, so the
// engine names both rules instead of guessing a winner.
type RuleConflictError struct {
	RuleA uint
	RuleB uint
}

func (e *RuleConflictError) Error() string {
	return fmt.Sprintf("rules %d and %d are mutually exclusive at the same priority and both match", e.RuleA, e.RuleB)
}

// InvalidStateTransitionError reports a decision attempted from an
// ineligible recommendation state. No state change happens.
type InvalidStateTransitionError struct {
	RecommendationID uint
	From             string
	To               string
}

func (e *InvalidStateTransitionError) Error() string {
	return fmt.Sprintf("recommendation %d cannot move from %s to %s", e.RecommendationID, e.From, e.To)
}

// ConcurrentRunError reports that a pipeline run is already active for the
// hotel. The caller may retry later.
type ConcurrentRunError struct {
	HotelID string
}

func (e *ConcurrentRunError) Error() string {
	return fmt.Sprintf("a pipeline run is already active for hotel %q", e.HotelID)
}

// Helper functions to check error types

func IsRoomNotFound(err error) bool {
	return errors.Is(err, ErrRoomNotFound)
}

func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

func IsRecommendationNotFound(err error) bool {
	return errors.Is(err, ErrRecommendationNotFound)
}

func IsPipelineRunNotFound(err error) bool {
	return errors.Is(err, ErrPipelineRunNotFound)
}

func IsNothingToExport(err error) bool {
	return errors.Is(err, ErrNothingToExport)
}

func IsInvalidDateRange(err error) bool {
	return errors.Is(err, ErrDateRangeRequired) || errors.Is(err, ErrStartDateAfterEndDate)
}

func IsConcurrentRun(err error) bool {
	var conflict *ConcurrentRunError
	return errors.As(err, &conflict)
}

func IsInvalidStateTransition(err error) bool {
	var transition *InvalidStateTransitionError
	return errors.As(err, &transition)
}

func IsInvalidRuleDefinition(err error) bool {
	var invalid *InvalidRuleDefinitionError
	return errors.As(err, &invalid)
}
