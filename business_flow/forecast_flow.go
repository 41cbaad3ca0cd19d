// Package businessflow contains the core business logic for demand forecasting
package businessflow

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
)

// SeriesPoint is one historical observation the projection consumes.
type SeriesPoint struct {
	Date      time.Time
	Occupancy float64
	ADR       float64
}

// ForecastParams are the projection tunables, fixed for the duration of a run
// so repeated calls on the same series reproduce the same output.
type ForecastParams struct {
	MinHistoricalWeeks int
	ConfidenceZ        float64
	RecencyHalfLife    int // days
	ModelVersion       string
	GeneratedAt        time.Time
	AsOf               time.Time // series age reference, date-only
}

// ForecastFlow projects future occupancy and ADR per room category from the
// aggregated historical series.
type ForecastFlow interface {
	GenerateForecasts(ctx context.Context, category string, horizon []time.Time) ([]*models.Forecast, error)
	ListForecasts(ctx context.Context, req *dto.ListForecastsRequest) (*dto.ListForecastsResponse, error)
}

// ForecastFlowImpl implements the forecast business flow
type ForecastFlowImpl struct {
	occupancyRepo repository.DailyOccupancyRepository
	revenueRepo   repository.DailyRevenueRepository
	forecastRepo  repository.ForecastRepository
	forecasting   config.ForecastingConfig
}

// NewForecastFlow creates a new forecast flow instance
func NewForecastFlow(
	occupancyRepo repository.DailyOccupancyRepository,
	revenueRepo repository.DailyRevenueRepository,
	forecastRepo repository.ForecastRepository,
	forecasting config.ForecastingConfig,
) ForecastFlow {
	return &ForecastFlowImpl{
		occupancyRepo: occupancyRepo,
		revenueRepo:   revenueRepo,
		forecastRepo:  forecastRepo,
		forecasting:   forecasting,
	}
}

// GenerateForecasts loads the stored series for the category, projects it
// over the horizon and persists superseding forecast rows.
func (s *ForecastFlowImpl) GenerateForecasts(ctx context.Context, category string, horizon []time.Time) ([]*models.Forecast, error) {
	if len(horizon) == 0 {
		return nil, nil
	}

	asOf := utils.UTCToday()
	historyFrom := asOf.AddDate(-1, 0, 0)
	historyTo := asOf.AddDate(0, 0, -1)

	series, err := s.loadSeries(ctx, category, historyFrom, historyTo)
	if err != nil {
		return nil, NewBusinessError("FORECAST_SERIES_LOAD_FAILED", "Failed to load historical series", err)
	}

	params := ForecastParams{
		MinHistoricalWeeks: s.forecasting.MinHistoricalWeeks,
		ConfidenceZ:        s.forecasting.ConfidenceZ,
		RecencyHalfLife:    s.forecasting.RecencyHalfLife,
		ModelVersion:       s.forecasting.ModelVersion,
		GeneratedAt:        utils.UTCNow(),
		AsOf:               asOf,
	}

	forecasts, err := ForecastSeries(category, horizon, series, params)
	if err != nil {
		return nil, err
	}

	if err := s.forecastRepo.SupersedeAndSave(ctx, forecasts); err != nil {
		return nil, NewBusinessError("FORECAST_PERSIST_FAILED", "Failed to persist forecasts", err)
	}

	return forecasts, nil
}

// ListForecasts returns the active forecasts in a range for display.
func (s *ForecastFlowImpl) ListForecasts(ctx context.Context, req *dto.ListForecastsRequest) (*dto.ListForecastsResponse, error) {
	from, err := utils.ParseDate(req.From)
	if err != nil {
		return nil, NewBusinessError("FORECAST_RANGE_INVALID", "Invalid from date", err)
	}
	to, err := utils.ParseDate(req.To)
	if err != nil {
		return nil, NewBusinessError("FORECAST_RANGE_INVALID", "Invalid to date", err)
	}
	rng, err := NewDateRange(from, to)
	if err != nil {
		return nil, NewBusinessError("FORECAST_RANGE_INVALID", "Invalid date range", err)
	}

	forecasts, err := s.forecastRepo.ListActiveByRange(ctx, rng.From, rng.To, req.RoomCategory)
	if err != nil {
		return nil, NewBusinessError("FORECAST_LIST_FAILED", "Failed to list forecasts", err)
	}

	items := make([]dto.ForecastDTO, 0, len(forecasts))
	for _, f := range forecasts {
		items = append(items, ToForecastDTO(*f))
	}

	return &dto.ListForecastsResponse{Items: items, Total: len(items)}, nil
}

func (s *ForecastFlowImpl) loadSeries(ctx context.Context, category string, from, to time.Time) ([]SeriesPoint, error) {
	occupancy, err := s.occupancyRepo.ListByDateRange(ctx, from, to, category)
	if err != nil {
		return nil, err
	}
	revenue, err := s.revenueRepo.ListByDateRange(ctx, from, to, category)
	if err != nil {
		return nil, err
	}

	adrByDate := make(map[string]float64, len(revenue))
	for _, r := range revenue {
		adrByDate[utils.FormatDate(r.Date)] = r.ADR
	}

	series := make([]SeriesPoint, 0, len(occupancy))
	for _, o := range occupancy {
		series = append(series, SeriesPoint{
			Date:      utils.DateOnly(o.Date),
			Occupancy: o.Occupancy,
			ADR:       adrByDate[utils.FormatDate(o.Date)],
		})
	}

	return series, nil
}

// ForecastSeries is the deterministic projection core: a recency-weighted
// occupancy level modulated by day-of-week factors, with a plain moving
// average fallback when history is too thin. Every forecast carries a
// symmetric confidence interval that widens with distance from the series.
func ForecastSeries(category string, horizon []time.Time, series []SeriesPoint, params ForecastParams) ([]*models.Forecast, error) {
	if len(series) == 0 {
		return nil, &ForecastUnavailableError{RoomCategory: category}
	}

	points := make([]SeriesPoint, len(series))
	copy(points, series)
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	halfLife := float64(params.RecencyHalfLife)
	if halfLife <= 0 {
		halfLife = float64(utils.DefaultMinHistoricalWeeks * utils.DaysPerWeek)
	}

	weightFor := func(date time.Time) float64 {
		age := float64(utils.DaysBetween(date, params.AsOf))
		if age < 0 {
			age = 0
		}
		return math.Exp2(-age / halfLife)
	}

	// Recency-weighted level and ADR.
	var levelNum, adrNum, adrDen, weightSum float64
	for _, p := range points {
		w := weightFor(p.Date)
		levelNum += w * p.Occupancy
		weightSum += w
		if p.ADR > 0 {
			adrNum += w * p.ADR
			adrDen += w
		}
	}
	level := levelNum / weightSum
	adr := 0.0
	if adrDen > 0 {
		adr = adrNum / adrDen
	}

	// Day-of-week factors need enough full weeks to be trustworthy;
	// otherwise the projection degrades to the flat moving-average level.
	weeks := distinctWeeks(points)
	useSeasonal := params.MinHistoricalWeeks > 0 && weeks >= params.MinHistoricalWeeks

	factors := [7]float64{1, 1, 1, 1, 1, 1, 1}
	if useSeasonal && level > 0 {
		var dowNum, dowDen [7]float64
		for _, p := range points {
			w := weightFor(p.Date)
			d := int(p.Date.Weekday())
			dowNum[d] += w * p.Occupancy
			dowDen[d] += w
		}
		for d := range factors {
			if dowDen[d] > 0 {
				factors[d] = (dowNum[d] / dowDen[d]) / level
			}
		}
	}

	// Residual spread of the fitted model over the history.
	var residualSq float64
	for _, p := range points {
		fitted := clamp01(level * factors[int(p.Date.Weekday())])
		diff := p.Occupancy - fitted
		residualSq += diff * diff
	}
	sigma := math.Sqrt(residualSq / float64(len(points)))

	forecasts := make([]*models.Forecast, 0, len(horizon))
	for _, date := range horizon {
		date = utils.DateOnly(date)
		predicted := clamp01(level * factors[int(date.Weekday())])

		weeksAhead := float64(utils.DaysBetween(params.AsOf, date)) / float64(utils.DaysPerWeek)
		if weeksAhead < 0 {
			weeksAhead = 0
		}
		margin := params.ConfidenceZ * sigma * math.Sqrt(1+weeksAhead)

		forecasts = append(forecasts, &models.Forecast{
			Date:               date,
			RoomCategory:       category,
			PredictedOccupancy: predicted,
			PredictedADR:       adr,
			PredictedRevPAR:    adr * predicted,
			ConfidenceLow:      clamp01(predicted - margin),
			ConfidenceHigh:     clamp01(predicted + margin),
			ModelVersion:       params.ModelVersion,
			GeneratedAt:        params.GeneratedAt,
		})
	}

	return forecasts, nil
}

func distinctWeeks(points []SeriesPoint) int {
	type week struct {
		year int
		week int
	}
	seen := make(map[week]bool)
	for _, p := range points {
		y, w := p.Date.ISOWeek()
		seen[week{year: y, week: w}] = true
	}
	return len(seen)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
