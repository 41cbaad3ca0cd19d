package tests

import (
	"sync"
	"testing"

	"github.com/hotelops/tarifario/app/dto"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	testingutil "github.com/hotelops/tarifario/testing"
	"github.com/hotelops/tarifario/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecommendationFlow(testDB *testingutil.TestDB) businessflow.RecommendationFlow {
	repo := repository.NewRecommendationRepository(testDB.DB)
	return businessflow.NewRecommendationFlow(repo, testDB.DB)
}

func testMetadata() *businessflow.ClientMetadata {
	return businessflow.NewClientMetadata("127.0.0.1", "tests")
}

func TestRecommendationApprove(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	flow := newRecommendationFlow(testDB)
	ctx := testingutil.CreateTestContext()

	rec, err := fixtures.CreateTestRecommendation("standard", "direct", day(2026, 9, 10), 100, 115)
	require.NoError(t, err)

	t.Run("DefaultApprovedRate", func(t *testing.T) {
		resp, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "approved", resp.Recommendation.Status)
		require.NotNil(t, resp.Recommendation.ApprovedRate)
		assert.InDelta(t, 115.0, *resp.Recommendation.ApprovedRate, 1e-9)
		require.NotNil(t, resp.Recommendation.DecidedBy)
		assert.Equal(t, "Dana Reyes", *resp.Recommendation.DecidedBy)
		assert.NotNil(t, resp.Recommendation.DecidedAt)
	})

	t.Run("ApproveTwiceFails", func(t *testing.T) {
		_, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidStateTransition(err))
	})

	t.Run("AdjustedApprovedRate", func(t *testing.T) {
		other, err := fixtures.CreateTestRecommendation("suite", "direct", day(2026, 9, 10), 200, 230)
		require.NoError(t, err)

		resp, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:         other.UUID.String(),
			DecidedBy:    "Dana Reyes",
			ApprovedRate: utils.ToPtr(225.0),
		}, testMetadata())
		require.NoError(t, err)
		require.NotNil(t, resp.Recommendation.ApprovedRate)
		assert.InDelta(t, 225.0, *resp.Recommendation.ApprovedRate, 1e-9)
	})

	t.Run("MissingDecider", func(t *testing.T) {
		_, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID: rec.UUID.String(),
		}, testMetadata())
		assert.Error(t, err)
	})

	t.Run("UnknownUUID", func(t *testing.T) {
		_, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:      "00000000-0000-0000-0000-000000000000",
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsRecommendationNotFound(err))
	})
}

func TestRecommendationReject(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	flow := newRecommendationFlow(testDB)
	ctx := testingutil.CreateTestContext()

	rec, err := fixtures.CreateTestRecommendation("standard", "direct", day(2026, 9, 10), 100, 115)
	require.NoError(t, err)

	t.Run("MissingReason", func(t *testing.T) {
		_, err := flow.Reject(ctx, &dto.RejectRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		assert.Error(t, err)
	})

	t.Run("Reject", func(t *testing.T) {
		resp, err := flow.Reject(ctx, &dto.RejectRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
			Reason:    "rate too aggressive for shoulder season",
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, "rejected", resp.Recommendation.Status)
		require.NotNil(t, resp.Recommendation.RejectReason)
		assert.Equal(t, "rate too aggressive for shoulder season", *resp.Recommendation.RejectReason)
	})

	t.Run("RejectedIsTerminal", func(t *testing.T) {
		_, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidStateTransition(err))
	})
}

func TestRecommendationExport(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	flow := newRecommendationFlow(testDB)
	ctx := testingutil.CreateTestContext()

	rec, err := fixtures.CreateTestRecommendation("standard", "direct", day(2026, 9, 10), 100, 115)
	require.NoError(t, err)

	t.Run("PendingCannotExport", func(t *testing.T) {
		_, err := flow.Export(ctx, &dto.ExportRecommendationRequest{UUID: rec.UUID.String()}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidStateTransition(err))
	})

	t.Run("ApprovedExports", func(t *testing.T) {
		_, err := flow.Approve(ctx, &dto.ApproveRecommendationRequest{
			UUID:      rec.UUID.String(),
			DecidedBy: "Dana Reyes",
		}, testMetadata())
		require.NoError(t, err)

		resp, err := flow.Export(ctx, &dto.ExportRecommendationRequest{UUID: rec.UUID.String()}, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, "exported", resp.Recommendation.Status)
		assert.NotNil(t, resp.Recommendation.ExportedAt)
	})

	t.Run("ExportIsIdempotent", func(t *testing.T) {
		first, err := flow.Export(ctx, &dto.ExportRecommendationRequest{UUID: rec.UUID.String()}, testMetadata())
		require.NoError(t, err)
		second, err := flow.Export(ctx, &dto.ExportRecommendationRequest{UUID: rec.UUID.String()}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, first.Recommendation.UUID, second.Recommendation.UUID)
		require.NotNil(t, first.Recommendation.ExportedAt)
		require.NotNil(t, second.Recommendation.ExportedAt)
		assert.Equal(t, *first.Recommendation.ExportedAt, *second.Recommendation.ExportedAt)
	})
}

func TestRecommendationConcurrentApprove(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	fixtures := testingutil.NewTestFixtures(testDB)
	flow := newRecommendationFlow(testDB)
	ctx := testingutil.CreateTestContext()

	rec, err := fixtures.CreateTestRecommendation("standard", "direct", day(2026, 9, 10), 100, 115)
	require.NoError(t, err)

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = flow.Approve(ctx, &dto.ApproveRecommendationRequest{
				UUID:      rec.UUID.String(),
				DecidedBy: "Dana Reyes",
			}, testMetadata())
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.True(t, businessflow.IsInvalidStateTransition(err), "unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent approval must win")

	repo := repository.NewRecommendationRepository(testDB.DB)
	final, err := repo.ByUUID(ctx, rec.UUID)
	require.NoError(t, err)
	assert.Equal(t, models.RecommendationStatusApproved, final.Status)
}
