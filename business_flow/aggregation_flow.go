// Package businessflow contains the core business logic for historical aggregation
package businessflow

import (
	"context"
	"sort"
	"time"

	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
	"gorm.io/gorm"
)

// AggregationInput carries the raw records and configuration of one
// aggregation pass. Rooms supply the availability denominators.
type AggregationInput struct {
	Bookings []*models.RawBooking
	Stays    []*models.RawStay
	Rooms    []*models.Room
	Range    DateRange
}

// DataAnomaly flags a day whose raw records clash with the configured
// inventory, most often stays recorded against a category with no rooms.
// Anomalous rows are still aggregated; the flag makes them auditable.
type DataAnomaly struct {
	Date         time.Time
	RoomCategory string
	RoomsSold    int
	Detail       string
}

// AggregationResult is the full output of one aggregation pass, ordered
// deterministically so identical inputs produce identical outputs.
type AggregationResult struct {
	Occupancy []*models.DailyOccupancy
	Revenue   []*models.DailyRevenue
	Summaries []*models.HistoricalSummary
	Anomalies []DataAnomaly
}

// StayNights returns the total stay-nights counted for a category.
func (r *AggregationResult) StayNights(category string) int {
	total := 0
	for _, row := range r.Occupancy {
		if row.RoomCategory == category {
			total += row.RoomsSold
		}
	}
	return total
}

// AggregationFlow rebuilds the historical occupancy/revenue series and the
// period rollups from raw booking and stay records.
type AggregationFlow interface {
	Aggregate(ctx context.Context, rng DateRange) (*AggregationResult, error)
}

// AggregationFlowImpl implements the aggregation business flow
type AggregationFlowImpl struct {
	bookingRepo   repository.RawBookingRepository
	stayRepo      repository.RawStayRepository
	roomRepo      repository.RoomRepository
	occupancyRepo repository.DailyOccupancyRepository
	revenueRepo   repository.DailyRevenueRepository
	summaryRepo   repository.HistoricalSummaryRepository
	db            *gorm.DB
}

// NewAggregationFlow creates a new aggregation flow instance
func NewAggregationFlow(
	bookingRepo repository.RawBookingRepository,
	stayRepo repository.RawStayRepository,
	roomRepo repository.RoomRepository,
	occupancyRepo repository.DailyOccupancyRepository,
	revenueRepo repository.DailyRevenueRepository,
	summaryRepo repository.HistoricalSummaryRepository,
	db *gorm.DB,
) AggregationFlow {
	return &AggregationFlowImpl{
		bookingRepo:   bookingRepo,
		stayRepo:      stayRepo,
		roomRepo:      roomRepo,
		occupancyRepo: occupancyRepo,
		revenueRepo:   revenueRepo,
		summaryRepo:   summaryRepo,
		db:            db,
	}
}

// Aggregate loads the raw records for the range, reduces them and persists
// the result with overwrite semantics. Re-running on identical inputs leaves
// the stored series unchanged.
func (s *AggregationFlowImpl) Aggregate(ctx context.Context, rng DateRange) (*AggregationResult, error) {
	bookings, err := s.bookingRepo.ListByArrivalRange(ctx, rng.From, rng.To)
	if err != nil {
		return nil, NewBusinessError("AGGREGATION_BOOKING_LOAD_FAILED", "Failed to load raw bookings", err)
	}

	stays, err := s.stayRepo.ListByDateRange(ctx, rng.From, rng.To, "")
	if err != nil {
		return nil, NewBusinessError("AGGREGATION_STAY_LOAD_FAILED", "Failed to load raw stays", err)
	}

	rooms, err := s.roomRepo.ListActive(ctx)
	if err != nil {
		return nil, NewBusinessError("AGGREGATION_ROOM_LOAD_FAILED", "Failed to load rooms", err)
	}

	result := Aggregate(AggregationInput{
		Bookings: bookings,
		Stays:    stays,
		Rooms:    rooms,
		Range:    rng,
	})

	err = repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		if err := s.occupancyRepo.ReplaceRange(txCtx, rng.From, rng.To, result.Occupancy); err != nil {
			return err
		}
		if err := s.revenueRepo.ReplaceRange(txCtx, rng.From, rng.To, result.Revenue); err != nil {
			return err
		}

		var monthly, byWeekday []*models.HistoricalSummary
		for _, sm := range result.Summaries {
			if sm.PeriodKind == models.SummaryPeriodMonth {
				monthly = append(monthly, sm)
			} else {
				byWeekday = append(byWeekday, sm)
			}
		}
		if err := s.summaryRepo.ReplaceByKind(txCtx, models.SummaryPeriodMonth, monthly); err != nil {
			return err
		}
		return s.summaryRepo.ReplaceByKind(txCtx, models.SummaryPeriodDayOfWeek, byWeekday)
	})
	if err != nil {
		return nil, NewBusinessError("AGGREGATION_PERSIST_FAILED", "Failed to persist aggregation result", err)
	}

	return &result, nil
}

type dateCategoryKey struct {
	date     string
	category string
}

type periodKey struct {
	kind     models.SummaryPeriodKind
	key      string
	category string
}

type periodAccumulator struct {
	roomNights   int
	revenue      float64
	occupancySum float64
	occupancyN   int
	bookings     int
	cancelled    int
}

// Aggregate is the pure reduction at the heart of the aggregator: raw records
// in, date-indexed series and period rollups out. Cancelled bookings are
// excluded from occupancy and revenue but feed the cancellation-rate
// summaries. Records outside the range are ignored.
func Aggregate(input AggregationInput) AggregationResult {
	unitsByCategory := make(map[string]int, len(input.Rooms))
	for _, room := range input.Rooms {
		unitsByCategory[room.Category] = room.TotalUnits
	}

	cancelledBookingIDs := make(map[uint]bool)
	for _, b := range input.Bookings {
		if b.IsCancelled() {
			cancelledBookingIDs[b.ID] = true
		}
	}

	type dailyAccumulator struct {
		date      time.Time
		category  string
		roomsSold int
		revenue   float64
	}

	daily := make(map[dateCategoryKey]*dailyAccumulator)
	for _, stay := range input.Stays {
		if !input.Range.Contains(stay.Date) {
			continue
		}
		if cancelledBookingIDs[stay.SourceBookingID] {
			continue
		}

		date := utils.DateOnly(stay.Date)
		k := dateCategoryKey{date: utils.FormatDate(date), category: stay.RoomCategory}
		acc, ok := daily[k]
		if !ok {
			acc = &dailyAccumulator{date: date, category: stay.RoomCategory}
			daily[k] = acc
		}
		acc.roomsSold++
		acc.revenue += stay.RateCharged
	}

	occupancy := make([]*models.DailyOccupancy, 0, len(daily))
	revenue := make([]*models.DailyRevenue, 0, len(daily))
	periods := make(map[periodKey]*periodAccumulator)
	var anomalies []DataAnomaly

	for _, acc := range daily {
		available := unitsByCategory[acc.category]
		if available == 0 && acc.roomsSold > 0 {
			anomalies = append(anomalies, DataAnomaly{
				Date:         acc.date,
				RoomCategory: acc.category,
				RoomsSold:    acc.roomsSold,
				Detail:       "stays recorded for a category with no configured rooms",
			})
		}

		occ := 0.0
		if available > 0 {
			occ = float64(acc.roomsSold) / float64(available)
		}
		if occ > 1 {
			occ = 1
		}

		adr := 0.0
		if acc.roomsSold > 0 {
			adr = acc.revenue / float64(acc.roomsSold)
		}
		revpar := 0.0
		if available > 0 {
			revpar = acc.revenue / float64(available)
		}

		occupancy = append(occupancy, &models.DailyOccupancy{
			Date:           acc.date,
			RoomCategory:   acc.category,
			RoomsSold:      acc.roomsSold,
			RoomsAvailable: available,
			Occupancy:      occ,
		})
		revenue = append(revenue, &models.DailyRevenue{
			Date:         acc.date,
			RoomCategory: acc.category,
			Revenue:      acc.revenue,
			ADR:          adr,
			RevPAR:       revpar,
		})

		for _, pk := range periodKeysFor(acc.date, acc.category) {
			p, ok := periods[pk]
			if !ok {
				p = &periodAccumulator{}
				periods[pk] = p
			}
			p.roomNights += acc.roomsSold
			p.revenue += acc.revenue
			p.occupancySum += occ
			p.occupancyN++
		}
	}

	// Cancellation statistics bucket by arrival date, keeping cancelled
	// bookings visible even though their nights never count.
	for _, b := range input.Bookings {
		if !input.Range.Contains(b.ArrivalDate) {
			continue
		}
		for _, pk := range periodKeysFor(utils.DateOnly(b.ArrivalDate), b.RoomCategory) {
			p, ok := periods[pk]
			if !ok {
				p = &periodAccumulator{}
				periods[pk] = p
			}
			p.bookings++
			if b.IsCancelled() {
				p.cancelled++
			}
		}
	}

	summaries := make([]*models.HistoricalSummary, 0, len(periods))
	for pk, p := range periods {
		adr := 0.0
		if p.roomNights > 0 {
			adr = p.revenue / float64(p.roomNights)
		}
		avgOcc := 0.0
		if p.occupancyN > 0 {
			avgOcc = p.occupancySum / float64(p.occupancyN)
		}
		cancellationRate := 0.0
		if p.bookings > 0 {
			cancellationRate = float64(p.cancelled) / float64(p.bookings)
		}

		summaries = append(summaries, &models.HistoricalSummary{
			PeriodKind:        pk.kind,
			PeriodKey:         pk.key,
			RoomCategory:      pk.category,
			RoomNights:        p.roomNights,
			Revenue:           p.revenue,
			ADR:               adr,
			Occupancy:         avgOcc,
			CancelledBookings: p.cancelled,
			CancellationRate:  cancellationRate,
		})
	}

	sort.Slice(occupancy, func(i, j int) bool {
		if !occupancy[i].Date.Equal(occupancy[j].Date) {
			return occupancy[i].Date.Before(occupancy[j].Date)
		}
		return occupancy[i].RoomCategory < occupancy[j].RoomCategory
	})
	sort.Slice(revenue, func(i, j int) bool {
		if !revenue[i].Date.Equal(revenue[j].Date) {
			return revenue[i].Date.Before(revenue[j].Date)
		}
		return revenue[i].RoomCategory < revenue[j].RoomCategory
	})
	sort.Slice(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		if a.PeriodKind != b.PeriodKind {
			return a.PeriodKind < b.PeriodKind
		}
		if a.PeriodKey != b.PeriodKey {
			return a.PeriodKey < b.PeriodKey
		}
		return a.RoomCategory < b.RoomCategory
	})

	sort.Slice(anomalies, func(i, j int) bool {
		if !anomalies[i].Date.Equal(anomalies[j].Date) {
			return anomalies[i].Date.Before(anomalies[j].Date)
		}
		return anomalies[i].RoomCategory < anomalies[j].RoomCategory
	})

	return AggregationResult{
		Occupancy: occupancy,
		Revenue:   revenue,
		Summaries: summaries,
		Anomalies: anomalies,
	}
}

func periodKeysFor(date time.Time, category string) [2]periodKey {
	return [2]periodKey{
		{kind: models.SummaryPeriodMonth, key: date.Format("2006-01"), category: category},
		{kind: models.SummaryPeriodDayOfWeek, key: date.Weekday().String(), category: category},
	}
}
