package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for dashboard access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 86400
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Revenue management constants
const (
	// OccupancyHigh and OccupancyLow are the default occupancy thresholds used
	// when seeding the default rule set.
	OccupancyHigh = 0.80
	OccupancyLow  = 0.40

	// DefaultForecastHorizonDays is how far ahead the nightly pipeline projects.
	DefaultForecastHorizonDays = 90

	// DefaultMinHistoricalWeeks is the minimum number of full weeks of history
	// required before the seasonal forecast model is trusted over the naive
	// moving-average baseline.
	DefaultMinHistoricalWeeks = 4

	// DaysPerWeek is used by day-of-week bucketing.
	DaysPerWeek = 7
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Context keys for request-scoped observability values
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
