// Package tests contains test cases for models and repository packages to avoid circular imports
package tests

import (
	"testing"
	"time"

	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	testingutil "github.com/hotelops/tarifario/testing"
	"github.com/hotelops/tarifario/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestRoomRepository(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewRoomRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	standard, err := fixtures.CreateTestRoom("standard", 20, 100)
	require.NoError(t, err)
	_, err = fixtures.CreateTestRoom("suite", 5, 250)
	require.NoError(t, err)

	t.Run("ByID", func(t *testing.T) {
		room, err := repo.ByID(ctx, standard.ID)
		require.NoError(t, err)
		require.NotNil(t, room)
		assert.Equal(t, "standard", room.Category)
		assert.Equal(t, 20, room.TotalUnits)
	})

	t.Run("ByIDNotFound", func(t *testing.T) {
		room, err := repo.ByID(ctx, 999)
		assert.NoError(t, err)
		assert.Nil(t, room)
	})

	t.Run("ByCategory", func(t *testing.T) {
		room, err := repo.ByCategory(ctx, "suite")
		require.NoError(t, err)
		require.NotNil(t, room)
		assert.Equal(t, 250.0, room.BaseRate)
	})

	t.Run("ListActive", func(t *testing.T) {
		inactive := &models.Room{
			Name: "Retired", Category: "retired",
			TotalUnits: 2, BaseRate: 60, IsActive: utils.ToPtr(false),
		}
		require.NoError(t, repo.Save(ctx, inactive))

		rooms, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Len(t, rooms, 2)
		for _, room := range rooms {
			assert.NotEqual(t, "retired", room.Category)
		}
	})
}

func TestDailyOccupancyRepositoryReplaceRange(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	repo := repository.NewDailyOccupancyRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	from, to := day(2026, 7, 1), day(2026, 7, 3)

	first := []*models.DailyOccupancy{
		{Date: from, RoomCategory: "standard", RoomsSold: 10, RoomsAvailable: 20, Occupancy: 0.5},
		{Date: from.AddDate(0, 0, 1), RoomCategory: "standard", RoomsSold: 12, RoomsAvailable: 20, Occupancy: 0.6},
	}
	require.NoError(t, repo.ReplaceRange(ctx, from, to, first))

	// Rebuilding the same range overwrites instead of appending.
	second := []*models.DailyOccupancy{
		{Date: from, RoomCategory: "standard", RoomsSold: 14, RoomsAvailable: 20, Occupancy: 0.7},
	}
	require.NoError(t, repo.ReplaceRange(ctx, from, to, second))

	rows, err := repo.ListByDateRange(ctx, from, to, "standard")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 14, rows[0].RoomsSold)
	assert.InDelta(t, 0.7, rows[0].Occupancy, 1e-9)
}

func TestForecastRepositorySupersedeAndSave(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	repo := repository.NewForecastRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	target := day(2026, 9, 10)

	first := []*models.Forecast{{
		Date: target, RoomCategory: "standard",
		PredictedOccupancy: 0.6, PredictedADR: 100, PredictedRevPAR: 60,
		ConfidenceLow: 0.5, ConfidenceHigh: 0.7,
		ModelVersion: "v1", GeneratedAt: utils.UTCNow(),
	}}
	require.NoError(t, repo.SupersedeAndSave(ctx, first))

	second := []*models.Forecast{{
		Date: target, RoomCategory: "standard",
		PredictedOccupancy: 0.8, PredictedADR: 110, PredictedRevPAR: 88,
		ConfidenceLow: 0.7, ConfidenceHigh: 0.9,
		ModelVersion: "v1", GeneratedAt: utils.UTCNow(),
	}}
	require.NoError(t, repo.SupersedeAndSave(ctx, second))

	active, err := repo.ActiveByDateAndCategory(ctx, target, "standard")
	require.NoError(t, err)
	require.NotNil(t, active)
	assert.InDelta(t, 0.8, active.PredictedOccupancy, 1e-9)

	// Both rows survive for the audit trail; only one stays active.
	all, err := repo.ByFilter(ctx, models.ForecastFilter{RoomCategory: utils.ToPtr("standard")}, "", 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	superseded := 0
	for _, f := range all {
		if f.Superseded {
			superseded++
		}
	}
	assert.Equal(t, 1, superseded)
}

func TestRecommendationRepository(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewRecommendationRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	target := day(2026, 9, 10)

	pending, err := fixtures.CreateTestRecommendation("standard", "direct", target, 100, 115)
	require.NoError(t, err)

	t.Run("ByUUID", func(t *testing.T) {
		rec, err := repo.ByUUID(ctx, pending.UUID)
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, models.RecommendationStatusPending, rec.Status)
	})

	t.Run("ActiveByTarget", func(t *testing.T) {
		rec, err := repo.ActiveByTarget(ctx, target, "standard", "direct")
		require.NoError(t, err)
		require.NotNil(t, rec)
		assert.Equal(t, pending.ID, rec.ID)

		rec, err = repo.ActiveByTarget(ctx, target, "standard", "booking.com")
		require.NoError(t, err)
		assert.Nil(t, rec)
	})

	t.Run("ListPendingExport", func(t *testing.T) {
		approved, err := fixtures.CreateTestRecommendation("suite", "direct", target, 200, 230)
		require.NoError(t, err)
		approved.Status = models.RecommendationStatusApproved
		approved.ApprovedRate = utils.ToPtr(230.0)
		require.NoError(t, repo.Update(ctx, approved))

		rows, err := repo.ListPendingExport(ctx, target, target)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, approved.ID, rows[0].ID)
	})

	t.Run("CountByStatus", func(t *testing.T) {
		status := models.RecommendationStatusPending
		count, err := repo.Count(ctx, models.RecommendationFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})
}

func TestRuleRepository(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	repo := repository.NewRuleRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	enabled, err := fixtures.CreateTestRule("weekend uplift", 1,
		models.RuleCondition{Kind: models.ConditionDayOfWeek, Weekdays: []int{5, 6}},
		models.RuleAdjustment{Kind: models.AdjustmentPercent, Amount: 10})
	require.NoError(t, err)

	disabled := &models.Rule{
		Name:     "dormant",
		Priority: 2,
		Condition: models.RuleCondition{
			Kind: models.ConditionAlways,
		},
		Adjustment: models.RuleAdjustment{Kind: models.AdjustmentPercent, Amount: 5},
		Enabled:    utils.ToPtr(false),
	}
	require.NoError(t, repo.Save(ctx, disabled))

	t.Run("ByUUID", func(t *testing.T) {
		rule, err := repo.ByUUID(ctx, enabled.UUID)
		require.NoError(t, err)
		require.NotNil(t, rule)
		assert.Equal(t, "weekend uplift", rule.Name)
		assert.Equal(t, models.ConditionDayOfWeek, rule.Condition.Kind)
		assert.Equal(t, []int{5, 6}, rule.Condition.Weekdays)
	})

	t.Run("ListEnabled", func(t *testing.T) {
		rules, err := repo.ListEnabled(ctx)
		require.NoError(t, err)
		require.Len(t, rules, 1)
		assert.Equal(t, enabled.ID, rules[0].ID)
	})
}

func TestPipelineRunRepository(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	repo := repository.NewPipelineRunRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	run := &models.PipelineRun{
		HotelID:   "hotel-1",
		RangeFrom: day(2026, 9, 1),
		RangeTo:   day(2026, 9, 30),
		Status:    models.PipelineRunStatusRunning,
		StartedAt: utils.UTCNow(),
	}
	require.NoError(t, repo.Save(ctx, run))
	require.NotZero(t, run.ID)

	run.Status = models.PipelineRunStatusCompleted
	run.Created = 42
	run.FinishedAt = utils.UTCNowPtr()
	require.NoError(t, repo.Update(ctx, run))

	loaded, err := repo.ByUUID(ctx, run.UUID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, models.PipelineRunStatusCompleted, loaded.Status)
	assert.Equal(t, 42, loaded.Created)
	assert.NotNil(t, loaded.FinishedAt)
}
