package businessflow

import (
	"testing"
	"time"

	"github.com/hotelops/tarifario/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustRange(t *testing.T, from, to time.Time) DateRange {
	t.Helper()
	rng, err := NewDateRange(from, to)
	require.NoError(t, err)
	return rng
}

func standardRoom(units int) *models.Room {
	return &models.Room{Category: "standard", TotalUnits: units, BaseRate: 100}
}

func stayOn(day time.Time, category string, rate float64, bookingID uint) *models.RawStay {
	return &models.RawStay{
		Date:            day,
		RoomCategory:    category,
		RateCharged:     rate,
		SourceBookingID: bookingID,
	}
}

func TestAggregateDailyRollup(t *testing.T) {
	day := date(2026, 7, 10)
	rng := mustRange(t, date(2026, 7, 1), date(2026, 7, 31))

	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(10)},
		Stays: []*models.RawStay{
			stayOn(day, "standard", 100, 1),
			stayOn(day, "standard", 120, 2),
			stayOn(day, "standard", 110, 3),
		},
		Range: rng,
	}

	result := Aggregate(input)

	require.Len(t, result.Occupancy, 1)
	occ := result.Occupancy[0]
	assert.Equal(t, 3, occ.RoomsSold)
	assert.Equal(t, 10, occ.RoomsAvailable)
	assert.InDelta(t, 0.3, occ.Occupancy, 1e-9)

	require.Len(t, result.Revenue, 1)
	rev := result.Revenue[0]
	assert.InDelta(t, 330.0, rev.Revenue, 1e-9)
	assert.InDelta(t, 110.0, rev.ADR, 1e-9)
	assert.InDelta(t, 33.0, rev.RevPAR, 1e-9)
}

func TestAggregateExcludesCancelledBookingNights(t *testing.T) {
	day := date(2026, 7, 10)
	rng := mustRange(t, date(2026, 7, 1), date(2026, 7, 31))

	confirmed := &models.RawBooking{
		ID: 1, RoomCategory: "standard",
		ArrivalDate: day, DepartureDate: day.AddDate(0, 0, 1),
		BookedOn: day.AddDate(0, 0, -10), Rate: 100,
		Status: models.BookingStatusConfirmed,
	}
	cancelled := &models.RawBooking{
		ID: 2, RoomCategory: "standard",
		ArrivalDate: day, DepartureDate: day.AddDate(0, 0, 1),
		BookedOn: day.AddDate(0, 0, -5), Rate: 200,
		Status: models.BookingStatusCancelled,
	}

	input := AggregationInput{
		Bookings: []*models.RawBooking{confirmed, cancelled},
		Rooms:    []*models.Room{standardRoom(10)},
		Stays: []*models.RawStay{
			stayOn(day, "standard", 100, confirmed.ID),
			stayOn(day, "standard", 200, cancelled.ID),
		},
		Range: rng,
	}

	result := Aggregate(input)

	require.Len(t, result.Occupancy, 1)
	assert.Equal(t, 1, result.Occupancy[0].RoomsSold)
	require.Len(t, result.Revenue, 1)
	assert.InDelta(t, 100.0, result.Revenue[0].Revenue, 1e-9)

	// Cancelled bookings still feed the cancellation-rate summaries.
	var monthly *models.HistoricalSummary
	for _, sm := range result.Summaries {
		if sm.PeriodKind == models.SummaryPeriodMonth && sm.RoomCategory == "standard" {
			monthly = sm
		}
	}
	require.NotNil(t, monthly)
	assert.Equal(t, 1, monthly.CancelledBookings)
	assert.InDelta(t, 0.5, monthly.CancellationRate, 1e-9)
}

func TestAggregateIgnoresRecordsOutsideRange(t *testing.T) {
	rng := mustRange(t, date(2026, 7, 1), date(2026, 7, 31))

	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(10)},
		Stays: []*models.RawStay{
			stayOn(date(2026, 6, 30), "standard", 100, 1),
			stayOn(date(2026, 8, 1), "standard", 100, 2),
			stayOn(date(2026, 7, 15), "standard", 100, 3),
		},
		Range: rng,
	}

	result := Aggregate(input)

	require.Len(t, result.Occupancy, 1)
	assert.Equal(t, date(2026, 7, 15), result.Occupancy[0].Date)
}

func TestAggregateClampsOversoldOccupancy(t *testing.T) {
	day := date(2026, 7, 10)
	rng := mustRange(t, day, day)

	stays := make([]*models.RawStay, 0, 3)
	for i := uint(1); i <= 3; i++ {
		stays = append(stays, stayOn(day, "standard", 100, i))
	}

	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(2)},
		Stays: stays,
		Range: rng,
	}

	result := Aggregate(input)

	require.Len(t, result.Occupancy, 1)
	assert.Equal(t, 3, result.Occupancy[0].RoomsSold)
	assert.InDelta(t, 1.0, result.Occupancy[0].Occupancy, 1e-9)
}

func TestAggregateUnknownCategoryHasZeroAvailability(t *testing.T) {
	day := date(2026, 7, 10)
	rng := mustRange(t, day, day)

	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(10)},
		Stays: []*models.RawStay{stayOn(day, "penthouse", 500, 1)},
		Range: rng,
	}

	result := Aggregate(input)

	require.Len(t, result.Occupancy, 1)
	assert.Equal(t, 0, result.Occupancy[0].RoomsAvailable)
	assert.Equal(t, 0.0, result.Occupancy[0].Occupancy)
	require.Len(t, result.Revenue, 1)
	assert.Equal(t, 0.0, result.Revenue[0].RevPAR)

	// Stays against an unconfigured category are flagged, not dropped.
	require.Len(t, result.Anomalies, 1)
	assert.Equal(t, "penthouse", result.Anomalies[0].RoomCategory)
	assert.Equal(t, 1, result.Anomalies[0].RoomsSold)
	assert.True(t, result.Anomalies[0].Date.Equal(day))
}

func TestAggregateConfiguredCategoriesReportNoAnomalies(t *testing.T) {
	day := date(2026, 7, 10)
	rng := mustRange(t, day, day)

	// Oversold against configured inventory clamps, it is not an anomaly.
	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(2)},
		Stays: []*models.RawStay{
			stayOn(day, "standard", 100, 1),
			stayOn(day, "standard", 100, 2),
			stayOn(day, "standard", 100, 3),
		},
		Range: rng,
	}

	result := Aggregate(input)
	assert.Empty(t, result.Anomalies)
}

func TestAggregatePeriodSummaries(t *testing.T) {
	rng := mustRange(t, date(2026, 7, 1), date(2026, 7, 31))

	// Two Fridays and one Saturday in July 2026.
	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(10)},
		Stays: []*models.RawStay{
			stayOn(date(2026, 7, 3), "standard", 100, 1),
			stayOn(date(2026, 7, 10), "standard", 140, 2),
			stayOn(date(2026, 7, 11), "standard", 90, 3),
		},
		Range: rng,
	}

	result := Aggregate(input)

	summaries := make(map[string]*models.HistoricalSummary)
	for _, sm := range result.Summaries {
		summaries[string(sm.PeriodKind)+"/"+sm.PeriodKey] = sm
	}

	month := summaries[string(models.SummaryPeriodMonth)+"/2026-07"]
	require.NotNil(t, month)
	assert.Equal(t, 3, month.RoomNights)
	assert.InDelta(t, 330.0, month.Revenue, 1e-9)
	assert.InDelta(t, 110.0, month.ADR, 1e-9)

	friday := summaries[string(models.SummaryPeriodDayOfWeek)+"/Friday"]
	require.NotNil(t, friday)
	assert.Equal(t, 2, friday.RoomNights)
	assert.InDelta(t, 240.0, friday.Revenue, 1e-9)

	saturday := summaries[string(models.SummaryPeriodDayOfWeek)+"/Saturday"]
	require.NotNil(t, saturday)
	assert.Equal(t, 1, saturday.RoomNights)
}

func TestAggregateIdempotent(t *testing.T) {
	rng := mustRange(t, date(2026, 7, 1), date(2026, 7, 31))

	input := AggregationInput{
		Rooms: []*models.Room{standardRoom(10), {Category: "suite", TotalUnits: 4, BaseRate: 250}},
		Stays: []*models.RawStay{
			stayOn(date(2026, 7, 3), "standard", 100, 1),
			stayOn(date(2026, 7, 3), "suite", 260, 2),
			stayOn(date(2026, 7, 10), "standard", 140, 3),
		},
		Bookings: []*models.RawBooking{
			{ID: 1, RoomCategory: "standard", ArrivalDate: date(2026, 7, 3),
				DepartureDate: date(2026, 7, 4), BookedOn: date(2026, 6, 20), Rate: 100,
				Status: models.BookingStatusConfirmed},
		},
		Range: rng,
	}

	first := Aggregate(input)
	second := Aggregate(input)

	assert.Equal(t, first, second)
}

func TestDateRangeValidation(t *testing.T) {
	_, err := NewDateRange(date(2026, 7, 31), date(2026, 7, 1))
	assert.ErrorIs(t, err, ErrStartDateAfterEndDate)

	rng, err := NewDateRange(date(2026, 7, 1), date(2026, 7, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, rng.Days())
	assert.Len(t, rng.Dates(), 3)
	assert.True(t, rng.Contains(date(2026, 7, 2)))
	assert.False(t, rng.Contains(date(2026, 7, 4)))
}
