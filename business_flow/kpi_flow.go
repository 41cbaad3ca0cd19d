// Package businessflow contains the core business logic for KPI analysis
package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
	"github.com/redis/go-redis/v9"
)

// KPIFlow serves the read side of the pipeline: daily occupancy/revenue
// joins, range aggregates and year-over-year deltas, cached in redis.
type KPIFlow interface {
	GetKPIs(ctx context.Context, req *dto.KPIRequest) (*dto.KPIResponse, error)
}

// KPIFlowImpl implements the KPI analysis business flow
type KPIFlowImpl struct {
	occupancyRepo repository.DailyOccupancyRepository
	revenueRepo   repository.DailyRevenueRepository
	cacheConfig   *config.CacheConfig
	rc            *redis.Client
}

// NewKPIFlow creates a new KPI flow instance
func NewKPIFlow(
	occupancyRepo repository.DailyOccupancyRepository,
	revenueRepo repository.DailyRevenueRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) KPIFlow {
	return &KPIFlowImpl{
		occupancyRepo: occupancyRepo,
		revenueRepo:   revenueRepo,
		cacheConfig:   cacheConfig,
		rc:            rc,
	}
}

// GetKPIs computes the KPI view for a range, serving from cache when the
// identical query was answered recently.
func (s *KPIFlowImpl) GetKPIs(ctx context.Context, req *dto.KPIRequest) (*dto.KPIResponse, error) {
	from, err := utils.ParseDate(req.From)
	if err != nil {
		return nil, NewBusinessError("KPI_RANGE_INVALID", "Invalid from date", err)
	}
	to, err := utils.ParseDate(req.To)
	if err != nil {
		return nil, NewBusinessError("KPI_RANGE_INVALID", "Invalid to date", err)
	}
	rng, err := NewDateRange(from, to)
	if err != nil {
		return nil, NewBusinessError("KPI_RANGE_INVALID", "Invalid date range", err)
	}

	groupBy := req.GroupBy
	if groupBy == "" {
		groupBy = "day"
	}

	cacheKey := redisKey(*s.cacheConfig, fmt.Sprintf("kpi:%s:%s:%s:%s", req.From, req.To, req.RoomCategory, groupBy))

	if s.cacheEnabled() && !req.NoCache {
		if cached, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil {
			var resp dto.KPIResponse
			if err := json.Unmarshal(cached, &resp); err == nil {
				resp.FromCache = true
				return &resp, nil
			}
		}
	}

	resp, err := s.compute(ctx, rng, req.RoomCategory, groupBy)
	if err != nil {
		return nil, err
	}

	if s.cacheEnabled() {
		if bytes, err := json.Marshal(resp); err == nil {
			_ = s.rc.Set(ctx, cacheKey, bytes, s.cacheConfig.DefaultTTL).Err()
		}
	}

	return resp, nil
}

func (s *KPIFlowImpl) cacheEnabled() bool {
	return s.rc != nil && s.cacheConfig != nil && s.cacheConfig.Enabled
}

func (s *KPIFlowImpl) compute(ctx context.Context, rng DateRange, category, groupBy string) (*dto.KPIResponse, error) {
	occupancy, err := s.occupancyRepo.ListByDateRange(ctx, rng.From, rng.To, category)
	if err != nil {
		return nil, NewBusinessError("KPI_OCCUPANCY_LOAD_FAILED", "Failed to load occupancy rows", err)
	}
	revenue, err := s.revenueRepo.ListByDateRange(ctx, rng.From, rng.To, category)
	if err != nil {
		return nil, NewBusinessError("KPI_REVENUE_LOAD_FAILED", "Failed to load revenue rows", err)
	}

	daily := joinDaily(occupancy, revenue)

	resp := &dto.KPIResponse{
		From:    utils.FormatDate(rng.From),
		To:      utils.FormatDate(rng.To),
		GroupBy: groupBy,
	}

	switch groupBy {
	case "day":
		resp.Daily = daily
	case "category", "day_of_week":
		prior, err := s.priorYearOccupancy(ctx, rng, category, groupBy)
		if err != nil {
			return nil, err
		}
		resp.Summaries = summarize(daily, groupBy, rng, prior)
	}

	return resp, nil
}

// priorYearOccupancy returns last year's average occupancy per group key, the
// baseline of the year-over-year delta.
func (s *KPIFlowImpl) priorYearOccupancy(ctx context.Context, rng DateRange, category, groupBy string) (map[string]float64, error) {
	prevFrom := rng.From.AddDate(-1, 0, 0)
	prevTo := rng.To.AddDate(-1, 0, 0)

	rows, err := s.occupancyRepo.ListByDateRange(ctx, prevFrom, prevTo, category)
	if err != nil {
		return nil, NewBusinessError("KPI_OCCUPANCY_LOAD_FAILED", "Failed to load prior year occupancy", err)
	}

	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, row := range rows {
		key := groupKeyFor(groupBy, row.RoomCategory, utils.DateOnly(row.Date).Weekday().String())
		sums[key] += row.Occupancy
		counts[key]++
	}

	averages := make(map[string]float64, len(sums))
	for key, sum := range sums {
		averages[key] = sum / float64(counts[key])
	}
	return averages, nil
}

func joinDaily(occupancy []*models.DailyOccupancy, revenue []*models.DailyRevenue) []dto.DailyKPIDTO {
	type key struct {
		date     string
		category string
	}

	revByKey := make(map[key]*models.DailyRevenue, len(revenue))
	for _, r := range revenue {
		revByKey[key{date: utils.FormatDate(r.Date), category: r.RoomCategory}] = r
	}

	daily := make([]dto.DailyKPIDTO, 0, len(occupancy))
	for _, o := range occupancy {
		row := dto.DailyKPIDTO{
			Date:           utils.FormatDate(o.Date),
			RoomCategory:   o.RoomCategory,
			RoomsSold:      o.RoomsSold,
			RoomsAvailable: o.RoomsAvailable,
			Occupancy:      o.Occupancy,
		}
		if r, ok := revByKey[key{date: row.Date, category: row.RoomCategory}]; ok {
			row.Revenue = r.Revenue
			row.ADR = r.ADR
			row.RevPAR = r.RevPAR
		}
		daily = append(daily, row)
	}

	sort.Slice(daily, func(i, j int) bool {
		if daily[i].Date != daily[j].Date {
			return daily[i].Date < daily[j].Date
		}
		return daily[i].RoomCategory < daily[j].RoomCategory
	})

	return daily
}

func summarize(daily []dto.DailyKPIDTO, groupBy string, rng DateRange, prior map[string]float64) []dto.KPISummaryDTO {
	type accumulator struct {
		roomNights   int
		available    int
		revenue      float64
		occupancySum float64
		days         int
	}

	groups := make(map[string]*accumulator)
	for _, row := range daily {
		date, err := utils.ParseDate(row.Date)
		if err != nil {
			continue
		}
		key := groupKeyFor(groupBy, row.RoomCategory, date.Weekday().String())

		acc, ok := groups[key]
		if !ok {
			acc = &accumulator{}
			groups[key] = acc
		}
		acc.roomNights += row.RoomsSold
		acc.available += row.RoomsAvailable
		acc.revenue += row.Revenue
		acc.occupancySum += row.Occupancy
		acc.days++
	}

	summaries := make([]dto.KPISummaryDTO, 0, len(groups))
	for key, acc := range groups {
		adr := 0.0
		if acc.roomNights > 0 {
			adr = acc.revenue / float64(acc.roomNights)
		}
		revpar := 0.0
		if acc.available > 0 {
			revpar = acc.revenue / float64(acc.available)
		}
		avgOcc := 0.0
		if acc.days > 0 {
			avgOcc = acc.occupancySum / float64(acc.days)
		}

		delta := 0.0
		if priorAvg, ok := prior[key]; ok {
			delta = avgOcc - priorAvg
		}

		summaries = append(summaries, dto.KPISummaryDTO{
			Key:            key,
			RoomNights:     acc.roomNights,
			Revenue:        acc.revenue,
			AvgOccupancy:   avgOcc,
			ADR:            adr,
			RevPAR:         revpar,
			DaysWithData:   acc.days,
			DaysInRange:    rng.Days(),
			OccupancyDelta: delta,
		})
	}

	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Key < summaries[j].Key })

	return summaries
}

func groupKeyFor(groupBy, category, weekday string) string {
	if groupBy == "day_of_week" {
		return weekday
	}
	return category
}
