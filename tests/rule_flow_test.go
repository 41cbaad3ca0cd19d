package tests

import (
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

func newRuleFlow(testDB *testingutil.TestDB) businessflow.RuleFlow {
	return businessflow.NewRuleFlow(repository.NewRuleRepository(testDB.DB), config.PricingConfig{})
}

func TestRuleFlowCreateAndGet(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	flow := newRuleFlow(testDB)
	ctx := testingutil.CreateTestContext()

	created, err := flow.CreateRule(ctx, &dto.CreateRuleRequest{
		Name:     "weekend uplift",
		Priority: 5,
		Condition: dto.RuleConditionDTO{
			Kind:     "day_of_week",
			Weekdays: []int{5, 6},
		},
		Adjustment: dto.RuleAdjustmentDTO{
			Kind:  "percent",
			Value: 12,
		},
	}, testMetadata())
	require.NoError(t, err)
	assert.NotEmpty(t, created.Rule.UUID)
	assert.True(t, created.Rule.Enabled)

	loaded, err := flow.GetRule(ctx, created.Rule.UUID)
	require.NoError(t, err)
	assert.Equal(t, "weekend uplift", loaded.Rule.Name)
	assert.Equal(t, "day_of_week", loaded.Rule.Condition.Kind)
	assert.Equal(t, []int{5, 6}, loaded.Rule.Condition.Weekdays)
}

func TestRuleFlowRejectsMalformedDefinition(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	flow := newRuleFlow(testDB)
	ctx := testingutil.CreateTestContext()

	tests := []struct {
		name string
		req  *dto.CreateRuleRequest
	}{
		{
			name: "occupancy condition without threshold",
			req: &dto.CreateRuleRequest{
				Name:       "broken occupancy",
				Condition:  dto.RuleConditionDTO{Kind: "occupancy_above"},
				Adjustment: dto.RuleAdjustmentDTO{Kind: "percent", Value: 10},
			},
		},
		{
			name: "percent adjustment at minus hundred",
			req: &dto.CreateRuleRequest{
				Name:       "free rooms",
				Condition:  dto.RuleConditionDTO{Kind: "always"},
				Adjustment: dto.RuleAdjustmentDTO{Kind: "percent", Value: -100},
			},
		},
		{
			name: "inverted scope dates",
			req: &dto.CreateRuleRequest{
				Name: "backwards scope",
				Scope: dto.RuleScopeDTO{
					DateFrom: utils.ToPtr("2026-09-30"),
					DateTo:   utils.ToPtr("2026-09-01"),
				},
				Condition:  dto.RuleConditionDTO{Kind: "always"},
				Adjustment: dto.RuleAdjustmentDTO{Kind: "percent", Value: 10},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := flow.CreateRule(ctx, tt.req, testMetadata())
			assert.Error(t, err)
		})
	}
}

func TestRuleFlowUpdate(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	flow := newRuleFlow(testDB)
	ctx := testingutil.CreateTestContext()

	created, err := flow.CreateRule(ctx, &dto.CreateRuleRequest{
		Name:       "shoulder season discount",
		Priority:   5,
		Condition:  dto.RuleConditionDTO{Kind: "season", Months: []int{4, 5}},
		Adjustment: dto.RuleAdjustmentDTO{Kind: "percent", Value: -8},
	}, testMetadata())
	require.NoError(t, err)

	t.Run("PartialUpdate", func(t *testing.T) {
		updated, err := flow.UpdateRule(ctx, &dto.UpdateRuleRequest{
			UUID:     created.Rule.UUID,
			Priority: utils.ToPtr(7),
			Enabled:  utils.ToPtr(false),
		}, testMetadata())
		require.NoError(t, err)

		assert.Equal(t, 7, updated.Rule.Priority)
		assert.False(t, updated.Rule.Enabled)
		// Untouched fields survive the partial update.
		assert.Equal(t, "shoulder season discount", updated.Rule.Name)
		assert.Equal(t, []int{4, 5}, updated.Rule.Condition.Months)
	})

	t.Run("UpdateRevalidates", func(t *testing.T) {
		_, err := flow.UpdateRule(ctx, &dto.UpdateRuleRequest{
			UUID:      created.Rule.UUID,
			Condition: &dto.RuleConditionDTO{Kind: "occupancy_above"},
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsInvalidRuleDefinition(err))
	})

	t.Run("UnknownUUID", func(t *testing.T) {
		_, err := flow.UpdateRule(ctx, &dto.UpdateRuleRequest{
			UUID: "00000000-0000-0000-0000-000000000000",
			Name: utils.ToPtr("renamed"),
		}, testMetadata())
		require.Error(t, err)
		assert.True(t, businessflow.IsRuleNotFound(err))
	})
}

func TestRuleFlowSeedDefaultRules(t *testing.T) {
	testDB := testingutil.RequireTestDB(t)
	flow := newRuleFlow(testDB)
	repo := repository.NewRuleRepository(testDB.DB)
	ctx := testingutil.CreateTestContext()

	require.NoError(t, flow.SeedDefaultRules(ctx))

	seeded, err := repo.Count(ctx, models.RuleFilter{})
	require.NoError(t, err)
	assert.Greater(t, seeded, int64(0))

	// Seeding again must not duplicate the catalog.
	require.NoError(t, flow.SeedDefaultRules(ctx))
	again, err := repo.Count(ctx, models.RuleFilter{})
	require.NoError(t, err)
	assert.Equal(t, seeded, again)

	// The seeded catalog itself must evaluate cleanly.
	rules, err := repo.ListEnabled(ctx)
	require.NoError(t, err)
	for _, rule := range rules {
		assert.NoError(t, rule.Validate(), "seeded rule %q", rule.Name)
	}
}
