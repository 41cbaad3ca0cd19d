package businessflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func forecastParams(asOf time.Time) ForecastParams {
	return ForecastParams{
		MinHistoricalWeeks: 4,
		ConfidenceZ:        1.96,
		RecencyHalfLife:    28,
		ModelVersion:       "v1",
		GeneratedAt:        asOf,
		AsOf:               asOf,
	}
}

// flatSeries builds n consecutive days ending the day before asOf, all at the
// same occupancy and ADR.
func flatSeries(asOf time.Time, n int, occupancy, adr float64) []SeriesPoint {
	points := make([]SeriesPoint, 0, n)
	for i := n; i >= 1; i-- {
		points = append(points, SeriesPoint{
			Date:      asOf.AddDate(0, 0, -i),
			Occupancy: occupancy,
			ADR:       adr,
		})
	}
	return points
}

func TestForecastSeriesEmptyHistory(t *testing.T) {
	asOf := date(2026, 8, 26)
	horizon := []time.Time{asOf.AddDate(0, 0, 1)}

	_, err := ForecastSeries("standard", horizon, nil, forecastParams(asOf))
	require.Error(t, err)

	var unavailable *ForecastUnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "standard", unavailable.RoomCategory)
}

func TestForecastSeriesFlatHistory(t *testing.T) {
	asOf := date(2026, 8, 26)
	series := flatSeries(asOf, 56, 0.7, 120)
	horizon := []time.Time{asOf, asOf.AddDate(0, 0, 1), asOf.AddDate(0, 0, 2)}

	forecasts, err := ForecastSeries("standard", horizon, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 3)

	for _, f := range forecasts {
		assert.InDelta(t, 0.7, f.PredictedOccupancy, 1e-9)
		assert.InDelta(t, 120.0, f.PredictedADR, 1e-9)
		assert.InDelta(t, 0.7*120, f.PredictedRevPAR, 1e-9)
		// Zero residual on flat history collapses the interval to a point.
		assert.InDelta(t, f.PredictedOccupancy, f.ConfidenceLow, 1e-9)
		assert.InDelta(t, f.PredictedOccupancy, f.ConfidenceHigh, 1e-9)
		assert.Equal(t, "v1", f.ModelVersion)
		assert.Equal(t, "standard", f.RoomCategory)
		assert.False(t, f.Superseded)
	}
}

func TestForecastSeriesWeekendPattern(t *testing.T) {
	asOf := date(2026, 8, 24) // a Monday
	var series []SeriesPoint
	for i := 56; i >= 1; i-- {
		d := asOf.AddDate(0, 0, -i)
		occ := 0.5
		if d.Weekday() == time.Saturday {
			occ = 0.9
		}
		series = append(series, SeriesPoint{Date: d, Occupancy: occ, ADR: 100})
	}

	nextSaturday := date(2026, 8, 29)
	nextTuesday := date(2026, 8, 25)

	forecasts, err := ForecastSeries("standard", []time.Time{nextTuesday, nextSaturday}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	tuesday, saturday := forecasts[0], forecasts[1]
	assert.Greater(t, saturday.PredictedOccupancy, tuesday.PredictedOccupancy,
		"saturday demand should be projected above weekday demand")
	assert.InDelta(t, 0.9, saturday.PredictedOccupancy, 0.05)
	assert.InDelta(t, 0.5, tuesday.PredictedOccupancy, 0.05)
}

func TestForecastSeriesThinHistoryFallsBackToFlatAverage(t *testing.T) {
	asOf := date(2026, 8, 26)
	// Ten days of history is under the four-week seasonal threshold.
	var series []SeriesPoint
	for i := 10; i >= 1; i-- {
		d := asOf.AddDate(0, 0, -i)
		occ := 0.4
		if d.Weekday() == time.Saturday {
			occ = 0.9
		}
		series = append(series, SeriesPoint{Date: d, Occupancy: occ, ADR: 100})
	}

	nextSaturday := date(2026, 8, 29)
	nextMonday := date(2026, 8, 31)

	forecasts, err := ForecastSeries("standard", []time.Time{nextSaturday, nextMonday}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	// Without day-of-week factors both dates get the same level.
	assert.InDelta(t, forecasts[0].PredictedOccupancy, forecasts[1].PredictedOccupancy, 1e-9)
}

func TestForecastSeriesConfidenceWidensWithDistance(t *testing.T) {
	asOf := date(2026, 8, 26)
	// Alternate occupancy so the residual spread is non-zero.
	var series []SeriesPoint
	for i := 56; i >= 1; i-- {
		occ := 0.6
		if i%2 == 0 {
			occ = 0.8
		}
		series = append(series, SeriesPoint{Date: asOf.AddDate(0, 0, -i), Occupancy: occ, ADR: 100})
	}

	near := asOf.AddDate(0, 0, 1)
	far := asOf.AddDate(0, 0, 60)

	forecasts, err := ForecastSeries("standard", []time.Time{near, far}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 2)

	nearWidth := forecasts[0].ConfidenceHigh - forecasts[0].ConfidenceLow
	farWidth := forecasts[1].ConfidenceHigh - forecasts[1].ConfidenceLow
	assert.Greater(t, farWidth, nearWidth)
}

func TestForecastSeriesBoundsClamped(t *testing.T) {
	asOf := date(2026, 8, 26)
	var series []SeriesPoint
	for i := 56; i >= 1; i-- {
		occ := 0.5
		if i%2 == 0 {
			occ = 1.0
		}
		series = append(series, SeriesPoint{Date: asOf.AddDate(0, 0, -i), Occupancy: occ, ADR: 100})
	}

	forecasts, err := ForecastSeries("standard", []time.Time{asOf.AddDate(0, 0, 90)}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 1)

	f := forecasts[0]
	assert.GreaterOrEqual(t, f.ConfidenceLow, 0.0)
	assert.LessOrEqual(t, f.ConfidenceHigh, 1.0)
	assert.GreaterOrEqual(t, f.PredictedOccupancy, 0.0)
	assert.LessOrEqual(t, f.PredictedOccupancy, 1.0)
	assert.LessOrEqual(t, f.ConfidenceLow, f.PredictedOccupancy)
	assert.GreaterOrEqual(t, f.ConfidenceHigh, f.PredictedOccupancy)
}

func TestForecastSeriesDeterministic(t *testing.T) {
	asOf := date(2026, 8, 26)
	series := flatSeries(asOf, 56, 0.65, 110)
	series[10].Occupancy = 0.9
	series[30].Occupancy = 0.3

	horizon := []time.Time{asOf.AddDate(0, 0, 1), asOf.AddDate(0, 0, 14), asOf.AddDate(0, 0, 30)}
	params := forecastParams(asOf)

	first, err := ForecastSeries("standard", horizon, series, params)
	require.NoError(t, err)
	second, err := ForecastSeries("standard", horizon, series, params)
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, *first[i], *second[i])
	}
}

func TestForecastSeriesRecencyWeighting(t *testing.T) {
	asOf := date(2026, 8, 26)

	// Old half low, recent half high: the projection should sit closer to
	// the recent level than a plain average would.
	var series []SeriesPoint
	for i := 112; i >= 1; i-- {
		occ := 0.3
		if i <= 56 {
			occ = 0.8
		}
		series = append(series, SeriesPoint{Date: asOf.AddDate(0, 0, -i), Occupancy: occ, ADR: 100})
	}

	forecasts, err := ForecastSeries("standard", []time.Time{asOf.AddDate(0, 0, 1)}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 1)

	assert.Greater(t, forecasts[0].PredictedOccupancy, 0.55, "plain average of the series")
}

func TestForecastSeriesIgnoresZeroADRDays(t *testing.T) {
	asOf := date(2026, 8, 26)
	series := flatSeries(asOf, 56, 0.7, 120)
	series[0].ADR = 0
	series[1].ADR = 0

	forecasts, err := ForecastSeries("standard", []time.Time{asOf.AddDate(0, 0, 1)}, series, forecastParams(asOf))
	require.NoError(t, err)
	require.Len(t, forecasts, 1)
	assert.InDelta(t, 120.0, forecasts[0].PredictedADR, 1e-9)
}

func TestForecastSeriesEmptyHorizon(t *testing.T) {
	asOf := date(2026, 8, 26)
	series := flatSeries(asOf, 56, 0.7, 120)

	forecasts, err := ForecastSeries("standard", nil, series, forecastParams(asOf))
	require.NoError(t, err)
	assert.Empty(t, forecasts)
}
