package dto

import (
	"time"
)

// RunPipelineRequest represents the request to start a pipeline run
type RunPipelineRequest struct {
	HotelID string `json:"hotel_id,omitempty"`
	From    string `json:"from" validate:"required,datetime=2006-01-02"`
	To      string `json:"to" validate:"required,datetime=2006-01-02"`
}

// RunFailureDTO represents one run report entry: a failed (date, category)
// unit or an informational note about skipped or anomalous input
type RunFailureDTO struct {
	Date         string `json:"date"`
	RoomCategory string `json:"room_category"`
	Code         string `json:"code"`
	Message      string `json:"message"`
}

// RunPipelineResponse represents the summary of a completed run
type RunPipelineResponse struct {
	Message    string          `json:"message"`
	UUID       string          `json:"uuid"`
	HotelID    string          `json:"hotel_id"`
	Status     string          `json:"status"`
	From       string          `json:"from"`
	To         string          `json:"to"`
	Created    int             `json:"created"`
	Skipped    int             `json:"skipped"`
	Failed     int             `json:"failed"`
	Failures   []RunFailureDTO `json:"failures,omitempty"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt *time.Time      `json:"finished_at,omitempty"`
}

// GetPipelineRunRequest represents the request to fetch a run audit record
type GetPipelineRunRequest struct {
	UUID string `json:"-"`
}
