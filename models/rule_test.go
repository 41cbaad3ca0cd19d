package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func validRule() *Rule {
	enabled := true
	return &Rule{
		Name:       "weekend uplift",
		Priority:   1,
		Condition:  RuleCondition{Kind: ConditionDayOfWeek, Weekdays: []int{5, 6}},
		Adjustment: RuleAdjustment{Kind: AdjustmentPercent, Amount: 10},
		Enabled:    &enabled,
	}
}

func TestRuleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Rule)
		wantErr bool
	}{
		{"valid rule", func(r *Rule) {}, false},
		{"missing name", func(r *Rule) { r.Name = "" }, true},
		{"unknown condition kind", func(r *Rule) { r.Condition = RuleCondition{Kind: "full_moon"} }, true},
		{"unknown adjustment kind", func(r *Rule) { r.Adjustment.Kind = "multiply" }, true},
		{"occupancy without threshold", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionOccupancyAbove}
		}, true},
		{"occupancy threshold out of range", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionOccupancyAbove, Threshold: floatPtr(1.5)}
		}, true},
		{"lead time without days", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionLeadTimeWithin}
		}, true},
		{"negative lead time days", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionLeadTimeBeyond, Days: intPtr(-1)}
		}, true},
		{"day of week without weekdays", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionDayOfWeek}
		}, true},
		{"weekday out of range", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionDayOfWeek, Weekdays: []int{7}}
		}, true},
		{"season without months", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionSeason}
		}, true},
		{"month out of range", func(r *Rule) {
			r.Condition = RuleCondition{Kind: ConditionSeason, Months: []int{13}}
		}, true},
		{"percent at minus hundred", func(r *Rule) {
			r.Adjustment = RuleAdjustment{Kind: AdjustmentPercent, Amount: -100}
		}, true},
		{"negative min rate cap", func(r *Rule) {
			r.Adjustment.MinRate = floatPtr(-10)
		}, true},
		{"min cap above max cap", func(r *Rule) {
			r.Adjustment.MinRate = floatPtr(200)
			r.Adjustment.MaxRate = floatPtr(100)
		}, true},
		{"scope dates inverted", func(r *Rule) {
			from := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
			to := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
			r.Scope = RuleScope{DateFrom: &from, DateTo: &to}
		}, true},
		{"absolute discount is allowed", func(r *Rule) {
			r.Adjustment = RuleAdjustment{Kind: AdjustmentAbsolute, Amount: -20}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := validRule()
			tt.mutate(rule)
			err := rule.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRuleConditionMatches(t *testing.T) {
	facts := PricingFacts{
		PredictedOccupancy: 0.85,
		LeadTimeDays:       14,
		Weekday:            time.Friday,
		Month:              time.August,
	}

	assert.True(t, RuleCondition{Kind: ConditionAlways}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionOccupancyAbove, Threshold: floatPtr(0.8)}.Matches(facts))
	assert.False(t, RuleCondition{Kind: ConditionOccupancyAbove, Threshold: floatPtr(0.9)}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionOccupancyBelow, Threshold: floatPtr(0.9)}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionLeadTimeWithin, Days: intPtr(14)}.Matches(facts))
	assert.False(t, RuleCondition{Kind: ConditionLeadTimeWithin, Days: intPtr(13)}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionLeadTimeBeyond, Days: intPtr(7)}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionDayOfWeek, Weekdays: []int{int(time.Friday)}}.Matches(facts))
	assert.False(t, RuleCondition{Kind: ConditionDayOfWeek, Weekdays: []int{int(time.Monday)}}.Matches(facts))
	assert.True(t, RuleCondition{Kind: ConditionSeason, Months: []int{8}}.Matches(facts))
	assert.False(t, RuleCondition{Kind: ConditionSeason, Months: []int{12, 1}}.Matches(facts))

	// Threshold at the boundary: occupancy_above is inclusive.
	atBoundary := facts
	atBoundary.PredictedOccupancy = 0.8
	assert.True(t, RuleCondition{Kind: ConditionOccupancyAbove, Threshold: floatPtr(0.8)}.Matches(atBoundary))
	assert.False(t, RuleCondition{Kind: ConditionOccupancyBelow, Threshold: floatPtr(0.8)}.Matches(atBoundary))
}

func TestRuleAdjustmentApply(t *testing.T) {
	assert.InDelta(t, 115.0, RuleAdjustment{Kind: AdjustmentPercent, Amount: 15}.Apply(100), 1e-9)
	assert.InDelta(t, 95.0, RuleAdjustment{Kind: AdjustmentPercent, Amount: -5}.Apply(100), 1e-9)
	assert.InDelta(t, 120.0, RuleAdjustment{Kind: AdjustmentAbsolute, Amount: 20}.Apply(100), 1e-9)
	assert.InDelta(t, 80.0, RuleAdjustment{Kind: AdjustmentAbsolute, Amount: -20}.Apply(100), 1e-9)

	capped := RuleAdjustment{Kind: AdjustmentPercent, Amount: 100, MaxRate: floatPtr(150)}
	assert.InDelta(t, 150.0, capped.Apply(100), 1e-9)

	floored := RuleAdjustment{Kind: AdjustmentPercent, Amount: -50, MinRate: floatPtr(70)}
	assert.InDelta(t, 70.0, floored.Apply(100), 1e-9)
}

func TestRuleAdjustmentJSONKey(t *testing.T) {
	// The stored document keeps the "value" key while the Go field is Amount.
	raw, err := RuleAdjustment{Kind: AdjustmentPercent, Amount: 12}.Value()
	require.NoError(t, err)
	assert.Contains(t, string(raw.([]byte)), `"value":12`)

	var decoded RuleAdjustment
	require.NoError(t, decoded.Scan([]byte(`{"kind":"absolute","value":-7.5}`)))
	assert.Equal(t, AdjustmentAbsolute, decoded.Kind)
	assert.InDelta(t, -7.5, decoded.Amount, 1e-9)
}

func TestRuleScopeIncludes(t *testing.T) {
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	scope := RuleScope{
		DateFrom:       &from,
		DateTo:         &to,
		RoomCategories: []string{"standard", "suite"},
		Channels:       []string{"direct"},
	}

	inside := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)
	require.True(t, scope.Includes(inside, "standard", "direct"))
	assert.False(t, scope.Includes(inside.AddDate(0, 1, 0), "standard", "direct"))
	assert.False(t, scope.Includes(inside, "penthouse", "direct"))
	assert.False(t, scope.Includes(inside, "standard", "booking.com"))

	// Empty scope covers everything; an empty channel on the target bypasses
	// the channel filter.
	assert.True(t, RuleScope{}.Includes(inside, "anything", "anywhere"))
	assert.True(t, scope.Includes(inside, "suite", ""))
}
