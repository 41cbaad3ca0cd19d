package tests

import (
	"os"
	"testing"

	"github.com/hotelops/tarifario/app/dto"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	testingutil "github.com/hotelops/tarifario/testing"
	"github.com/hotelops/tarifario/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipelineHarness struct {
	orchestrator businessflow.OrchestratorFlow
	locks        *businessflow.RunLockManager
	recRepo      repository.RecommendationRepository
	runRepo      repository.PipelineRunRepository
}

func newPipelineHarness(testDB *testingutil.TestDB) *pipelineHarness {
	db := testDB.DB

	bookingRepo := repository.NewRawBookingRepository(db)
	stayRepo := repository.NewRawStayRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	occupancyRepo := repository.NewDailyOccupancyRepository(db)
	revenueRepo := repository.NewDailyRevenueRepository(db)
	summaryRepo := repository.NewHistoricalSummaryRepository(db)
	forecastRepo := repository.NewForecastRepository(db)
	ruleRepo := repository.NewRuleRepository(db)
	recRepo := repository.NewRecommendationRepository(db)
	channelRepo := repository.NewChannelRepository(db)
	runRepo := repository.NewPipelineRunRepository(db)

	forecasting := config.ForecastingConfig{
		MinHistoricalWeeks: 4,
		ConfidenceZ:        1.96,
		RecencyHalfLife:    28,
		ModelVersion:       "v1",
	}
	pricing := config.PricingConfig{
		MinPriceFactor: 0.5,
		MaxPriceFactor: 2.0,
		WorkerCount:    4,
	}
	hotel := config.HotelConfig{ID: "test-hotel", Name: "Test Hotel"}

	aggregationFlow := businessflow.NewAggregationFlow(bookingRepo, stayRepo, roomRepo, occupancyRepo, revenueRepo, summaryRepo, db)
	forecastFlow := businessflow.NewForecastFlow(occupancyRepo, revenueRepo, forecastRepo, forecasting)
	locks := businessflow.NewRunLockManager(nil, nil)

	orchestrator := businessflow.NewOrchestratorFlow(
		aggregationFlow, forecastFlow,
		roomRepo, channelRepo, ruleRepo, forecastRepo, recRepo, runRepo,
		locks, hotel, pricing, db,
	)

	return &pipelineHarness{
		orchestrator: orchestrator,
		locks:        locks,
		recRepo:      recRepo,
		runRepo:      runRepo,
	}
}

// seedPipelineInputs populates a room, a direct channel, two months of steady
// history and a single always-on uplift rule.
func seedPipelineInputs(t *testing.T, fixtures *testingutil.TestFixtures) {
	t.Helper()

	_, err := fixtures.CreateTestRoom("standard", 10, 100)
	require.NoError(t, err)
	_, err = fixtures.CreateTestChannel("direct", 0, true)
	require.NoError(t, err)

	today := utils.UTCToday()
	require.NoError(t, fixtures.SeedHistory("standard",
		today.AddDate(0, 0, -60), today.AddDate(0, 0, -1), 7, 120))

	_, err = fixtures.CreateTestRule("steady uplift", 1,
		models.RuleCondition{Kind: models.ConditionAlways},
		models.RuleAdjustment{Kind: models.AdjustmentPercent, Amount: 10})
	require.NoError(t, err)
}

func TestPipelineRunEndToEnd(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	harness := newPipelineHarness(testDB)
	ctx := testingutil.CreateTestContext()

	seedPipelineInputs(t, fixtures)

	today := utils.UTCToday()
	req := &dto.RunPipelineRequest{
		From: utils.FormatDate(today.AddDate(0, 0, 1)),
		To:   utils.FormatDate(today.AddDate(0, 0, 7)),
	}

	resp, err := harness.orchestrator.Run(ctx, req, testMetadata())
	require.NoError(t, err)

	assert.Equal(t, string(models.PipelineRunStatusCompleted), resp.Status)
	assert.Equal(t, "test-hotel", resp.HotelID)
	assert.Equal(t, 7, resp.Created, "one recommendation per horizon date and channel")
	assert.Zero(t, resp.Failed)
	assert.NotNil(t, resp.FinishedAt)

	status := models.RecommendationStatusPending
	count, err := harness.recRepo.Count(ctx, models.RecommendationFilter{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)

	// Every recommendation carries the rule trace and a positive rate.
	recs, err := harness.recRepo.ByFilter(ctx, models.RecommendationFilter{Status: &status}, "", 0, 0)
	require.NoError(t, err)
	for _, rec := range recs {
		assert.Equal(t, "standard", rec.RoomCategory)
		assert.Equal(t, "direct", rec.Channel)
		assert.Greater(t, rec.RecommendedRate, 0.0)
		assert.NotEmpty(t, rec.Deltas)
		assert.NotNil(t, rec.PipelineRunID)
	}

	t.Run("GetRun", func(t *testing.T) {
		loaded, err := harness.orchestrator.GetRun(ctx, resp.UUID)
		require.NoError(t, err)
		assert.Equal(t, resp.UUID, loaded.UUID)
		assert.Equal(t, 7, loaded.Created)
	})

	t.Run("RerunSkipsCoveredTargets", func(t *testing.T) {
		second, err := harness.orchestrator.Run(ctx, req, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, string(models.PipelineRunStatusCompleted), second.Status)
		assert.Zero(t, second.Created, "pending targets must not be recreated")

		count, err := harness.recRepo.Count(ctx, models.RecommendationFilter{Status: &status})
		require.NoError(t, err)
		assert.Equal(t, int64(7), count)
	})

	t.Run("GetRunUnknownUUID", func(t *testing.T) {
		_, err := harness.orchestrator.GetRun(ctx, "00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
		assert.True(t, businessflow.IsPipelineRunNotFound(err))
	})
}

func TestPipelineRunSkipsCategoryWithoutHistory(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	harness := newPipelineHarness(testDB)
	ctx := testingutil.CreateTestContext()

	seedPipelineInputs(t, fixtures)

	// A second category with rooms but zero stay-nights in the history window.
	_, err := fixtures.CreateTestRoom("suite", 4, 250)
	require.NoError(t, err)

	today := utils.UTCToday()
	resp, err := harness.orchestrator.Run(ctx, &dto.RunPipelineRequest{
		From: utils.FormatDate(today.AddDate(0, 0, 1)),
		To:   utils.FormatDate(today.AddDate(0, 0, 7)),
	}, testMetadata())
	require.NoError(t, err)

	assert.Equal(t, string(models.PipelineRunStatusCompleted), resp.Status)
	assert.Equal(t, 7, resp.Created, "the category with history still prices")
	assert.Equal(t, 7, resp.Skipped, "every horizon date of the empty category is skipped")
	assert.Zero(t, resp.Failed, "missing history is not a failure")

	// The skip is auditable in the run report.
	require.Len(t, resp.Failures, 1)
	assert.Equal(t, "suite", resp.Failures[0].RoomCategory)
	assert.Equal(t, "INSUFFICIENT_DATA", resp.Failures[0].Code)

	// No recommendation was written for the empty category.
	suite := "suite"
	count, err := harness.recRepo.Count(ctx, models.RecommendationFilter{RoomCategory: &suite})
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestPipelineRunConcurrencyGuard(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	harness := newPipelineHarness(testDB)
	ctx := testingutil.CreateTestContext()

	seedPipelineInputs(t, fixtures)

	require.NoError(t, harness.locks.Acquire(ctx, "test-hotel"))
	defer harness.locks.Release("test-hotel")

	today := utils.UTCToday()
	_, err := harness.orchestrator.Run(ctx, &dto.RunPipelineRequest{
		From: utils.FormatDate(today.AddDate(0, 0, 1)),
		To:   utils.FormatDate(today.AddDate(0, 0, 3)),
	}, testMetadata())

	require.Error(t, err)
	assert.True(t, businessflow.IsConcurrentRun(err))
}

func TestPipelineRunInvalidRange(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	harness := newPipelineHarness(testDB)
	ctx := testingutil.CreateTestContext()

	_, err := harness.orchestrator.Run(ctx, &dto.RunPipelineRequest{
		From: "2026-09-30",
		To:   "2026-09-01",
	}, testMetadata())

	require.Error(t, err)
	assert.True(t, businessflow.IsInvalidDateRange(err))
}

func TestExportTariffs(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	ctx := testingutil.CreateTestContext()

	recRepo := repository.NewRecommendationRepository(testDB.DB)
	exportFlow := businessflow.NewExportFlow(recRepo, config.ExportConfig{
		Dir:           t.TempDir(),
		FilePrefix:    "tariffs",
		SheetPerRoom:  true,
		IncludeHeader: true,
	}, config.HotelConfig{ID: "test-hotel", Name: "Test Hotel"}, testDB.DB)

	target := day(2026, 9, 10)
	approved, err := fixtures.CreateTestRecommendation("standard", "direct", target, 100, 115)
	require.NoError(t, err)
	approved.Status = models.RecommendationStatusApproved
	approved.ApprovedRate = utils.ToPtr(115.0)
	approved.DecidedBy = utils.ToPtr("Dana Reyes")
	approved.DecidedAt = utils.UTCNowPtr()
	require.NoError(t, recRepo.Update(ctx, approved))

	// A pending record in range must not be swept into the export.
	_, err = fixtures.CreateTestRecommendation("suite", "direct", target, 200, 230)
	require.NoError(t, err)

	req := &dto.ExportTariffsRequest{From: "2026-09-01", To: "2026-09-30"}

	resp, err := exportFlow.ExportTariffs(ctx, req, testMetadata())
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Exported)

	info, err := os.Stat(resp.FilePath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	updated, err := recRepo.ByUUID(ctx, approved.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusExported, updated.Status)
	assert.NotNil(t, updated.ExportedAt)

	t.Run("SecondExportFindsNothing", func(t *testing.T) {
		_, err := exportFlow.ExportTariffs(ctx, req, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsNothingToExport(err))
	})
}

func TestKPIFlowCompute(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	ctx := testingutil.CreateTestContext()

	occupancyRepo := repository.NewDailyOccupancyRepository(testDB.DB)
	revenueRepo := repository.NewDailyRevenueRepository(testDB.DB)

	from, to := day(2026, 7, 1), day(2026, 7, 2)
	require.NoError(t, occupancyRepo.ReplaceRange(ctx, from, to, []*models.DailyOccupancy{
		{Date: from, RoomCategory: "standard", RoomsSold: 10, RoomsAvailable: 20, Occupancy: 0.5},
		{Date: to, RoomCategory: "standard", RoomsSold: 16, RoomsAvailable: 20, Occupancy: 0.8},
	}))
	require.NoError(t, revenueRepo.ReplaceRange(ctx, from, to, []*models.DailyRevenue{
		{Date: from, RoomCategory: "standard", Revenue: 1000, ADR: 100, RevPAR: 50},
		{Date: to, RoomCategory: "standard", Revenue: 1760, ADR: 110, RevPAR: 88},
	}))

	kpiFlow := businessflow.NewKPIFlow(occupancyRepo, revenueRepo, nil, &config.CacheConfig{})

	resp, err := kpiFlow.GetKPIs(ctx, &dto.KPIRequest{From: "2026-07-01", To: "2026-07-02"})
	require.NoError(t, err)

	assert.False(t, resp.FromCache)
	require.Len(t, resp.Daily, 2)
	assert.InDelta(t, 0.5, resp.Daily[0].Occupancy, 1e-9)
	assert.InDelta(t, 1760.0, resp.Daily[1].Revenue, 1e-9)

	require.NotEmpty(t, resp.Summaries)
	total := resp.Summaries[0]
	assert.Equal(t, 26, total.RoomNights)
	assert.InDelta(t, 2760.0, total.Revenue, 1e-9)
	assert.InDelta(t, 0.65, total.AvgOccupancy, 1e-9)
}
