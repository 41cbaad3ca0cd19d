package dto

import (
	"time"
)

// ListForecastsRequest represents the forecast listing query
type ListForecastsRequest struct {
	From         string `json:"from" validate:"required,datetime=2006-01-02"`
	To           string `json:"to" validate:"required,datetime=2006-01-02"`
	RoomCategory string `json:"room_category" validate:"omitempty,max=50"`
}

// ForecastDTO represents an active forecast in responses
type ForecastDTO struct {
	UUID               string    `json:"uuid"`
	Date               string    `json:"date"`
	RoomCategory       string    `json:"room_category"`
	PredictedOccupancy float64   `json:"predicted_occupancy"`
	PredictedADR       float64   `json:"predicted_adr"`
	PredictedRevPAR    float64   `json:"predicted_revpar"`
	ConfidenceLow      float64   `json:"confidence_low"`
	ConfidenceHigh     float64   `json:"confidence_high"`
	ModelVersion       string    `json:"model_version"`
	GeneratedAt        time.Time `json:"generated_at"`
}

// ListForecastsResponse represents the forecast listing result
type ListForecastsResponse struct {
	Items []ForecastDTO `json:"items"`
	Total int           `json:"total"`
}
