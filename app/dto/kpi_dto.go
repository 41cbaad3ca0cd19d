package dto

// KPIRequest represents the KPI read query
type KPIRequest struct {
	From         string `json:"from" validate:"required,datetime=2006-01-02"`
	To           string `json:"to" validate:"required,datetime=2006-01-02"`
	RoomCategory string `json:"room_category" validate:"omitempty,max=50"`
	GroupBy      string `json:"group_by" validate:"omitempty,oneof=day category day_of_week"`
	NoCache      bool   `json:"no_cache"`
}

// DailyKPIDTO joins occupancy and revenue for one date and category
type DailyKPIDTO struct {
	Date           string  `json:"date"`
	RoomCategory   string  `json:"room_category"`
	RoomsSold      int     `json:"rooms_sold"`
	RoomsAvailable int     `json:"rooms_available"`
	Occupancy      float64 `json:"occupancy"`
	Revenue        float64 `json:"revenue"`
	ADR            float64 `json:"adr"`
	RevPAR         float64 `json:"revpar"`
}

// KPISummaryDTO aggregates KPIs over the requested range for one group key
type KPISummaryDTO struct {
	Key            string  `json:"key"`
	RoomNights     int     `json:"room_nights"`
	Revenue        float64 `json:"revenue"`
	AvgOccupancy   float64 `json:"avg_occupancy"`
	ADR            float64 `json:"adr"`
	RevPAR         float64 `json:"revpar"`
	DaysWithData   int     `json:"days_with_data"`
	DaysInRange    int     `json:"days_in_range"`
	OccupancyDelta float64 `json:"occupancy_delta_yoy"`
}

// KPIResponse represents the KPI read result
type KPIResponse struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	GroupBy   string          `json:"group_by"`
	Daily     []DailyKPIDTO   `json:"daily,omitempty"`
	Summaries []KPISummaryDTO `json:"summaries,omitempty"`
	FromCache bool            `json:"from_cache"`
}
