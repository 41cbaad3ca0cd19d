package testing

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/utils"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestRoom creates a room category with the given name and unit count
func (tf *TestFixtures) CreateTestRoom(category string, totalUnits int, baseRate float64) (*models.Room, error) {
	room := &models.Room{
		Name:       fmt.Sprintf("Test %s Room", category),
		Category:   category,
		Capacity:   2,
		TotalUnits: totalUnits,
		BaseRate:   baseRate,
		IsActive:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(room).Error; err != nil {
		return nil, fmt.Errorf("failed to create test room: %w", err)
	}

	return room, nil
}

// CreateTestChannel creates a distribution channel
func (tf *TestFixtures) CreateTestChannel(name string, commission float64, isDirect bool) (*models.Channel, error) {
	channel := &models.Channel{
		Name:       name,
		Commission: commission,
		Priority:   rand.Intn(10),
		IsDirect:   isDirect,
		IsActive:   utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(channel).Error; err != nil {
		return nil, fmt.Errorf("failed to create test channel: %w", err)
	}

	return channel, nil
}

// CreateTestBooking creates a confirmed booking spanning the given nights
func (tf *TestFixtures) CreateTestBooking(category string, arrival time.Time, nights int, rate float64) (*models.RawBooking, error) {
	booking := &models.RawBooking{
		RoomCategory:  category,
		ArrivalDate:   arrival,
		DepartureDate: arrival.AddDate(0, 0, nights),
		BookedOn:      arrival.AddDate(0, 0, -14),
		Rate:          rate,
		Status:        models.BookingStatusConfirmed,
	}

	if err := tf.DB.DB.Create(booking).Error; err != nil {
		return nil, fmt.Errorf("failed to create test booking: %w", err)
	}

	return booking, nil
}

// CreateCancelledBooking creates a cancelled booking that aggregation must ignore
func (tf *TestFixtures) CreateCancelledBooking(category string, arrival time.Time, nights int, rate float64) (*models.RawBooking, error) {
	booking := &models.RawBooking{
		RoomCategory:  category,
		ArrivalDate:   arrival,
		DepartureDate: arrival.AddDate(0, 0, nights),
		BookedOn:      arrival.AddDate(0, 0, -7),
		Rate:          rate,
		Status:        models.BookingStatusCancelled,
	}

	if err := tf.DB.DB.Create(booking).Error; err != nil {
		return nil, fmt.Errorf("failed to create cancelled booking: %w", err)
	}

	return booking, nil
}

// CreateStaysForBooking materializes one stay night per booked night
func (tf *TestFixtures) CreateStaysForBooking(booking *models.RawBooking) ([]*models.RawStay, error) {
	var stays []*models.RawStay
	for d := booking.ArrivalDate; d.Before(booking.DepartureDate); d = d.AddDate(0, 0, 1) {
		stay := &models.RawStay{
			Date:            d,
			RoomCategory:    booking.RoomCategory,
			RateCharged:     booking.Rate,
			SourceBookingID: booking.ID,
		}
		if err := tf.DB.DB.Create(stay).Error; err != nil {
			return nil, fmt.Errorf("failed to create test stay: %w", err)
		}
		stays = append(stays, stay)
	}
	return stays, nil
}

// CreateTestRule creates an enabled rule with the given condition and adjustment
func (tf *TestFixtures) CreateTestRule(name string, priority int, condition models.RuleCondition, adjustment models.RuleAdjustment) (*models.Rule, error) {
	rule := &models.Rule{
		Name:       name,
		Priority:   priority,
		Condition:  condition,
		Adjustment: adjustment,
		Enabled:    utils.ToPtr(true),
	}

	if err := tf.DB.DB.Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create test rule: %w", err)
	}

	return rule, nil
}

// CreateTestForecast creates a current (non-superseded) forecast row
func (tf *TestFixtures) CreateTestForecast(category string, date time.Time, occupancy, adr float64) (*models.Forecast, error) {
	forecast := &models.Forecast{
		Date:               date,
		RoomCategory:       category,
		PredictedOccupancy: occupancy,
		PredictedADR:       adr,
		PredictedRevPAR:    adr * occupancy,
		ConfidenceLow:      clampRatio(occupancy - 0.1),
		ConfidenceHigh:     clampRatio(occupancy + 0.1),
		ModelVersion:       "test",
		GeneratedAt:        utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(forecast).Error; err != nil {
		return nil, fmt.Errorf("failed to create test forecast: %w", err)
	}

	return forecast, nil
}

// CreateTestRecommendation creates a pending recommendation for the given date and category
func (tf *TestFixtures) CreateTestRecommendation(category, channel string, date time.Time, baseline, recommended float64) (*models.Recommendation, error) {
	recommendation := &models.Recommendation{
		Date:            date,
		RoomCategory:    category,
		Channel:         channel,
		BaselineRate:    baseline,
		RecommendedRate: recommended,
		Status:          models.RecommendationStatusPending,
	}

	if err := tf.DB.DB.Create(recommendation).Error; err != nil {
		return nil, fmt.Errorf("failed to create test recommendation: %w", err)
	}

	return recommendation, nil
}

// SeedHistory populates bookings and matching stays for every night in the
// window so aggregation and forecasting have something to chew on.
func (tf *TestFixtures) SeedHistory(category string, from, to time.Time, nightlyStays int, rate float64) error {
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		booking, err := tf.CreateTestBooking(category, d, 1, rate)
		if err != nil {
			return err
		}
		for i := 0; i < nightlyStays; i++ {
			stay := &models.RawStay{
				Date:            d,
				RoomCategory:    category,
				RateCharged:     rate,
				SourceBookingID: booking.ID,
			}
			if err := tf.DB.DB.Create(stay).Error; err != nil {
				return fmt.Errorf("failed to seed stay for %s: %w", d.Format(time.DateOnly), err)
			}
		}
	}
	return nil
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
