// Package businessflow contains the core business logic for pricing rule evaluation
package businessflow

import (
	"sort"
	"time"

	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/utils"
)

// RecommendationCandidate is the rule engine output for one
// (date, category, channel) target: the final rate plus the ordered trace of
// how each contributing rule moved it.
type RecommendationCandidate struct {
	Date         time.Time
	RoomCategory string
	Channel      string

	BaselineRate float64
	Rate         float64

	ContributingRuleIDs []int64
	Deltas              models.RuleDeltas

	// Matched is false when no forecast was available or no rule fired; the
	// orchestrator creates no recommendation for an unmatched candidate.
	Matched bool
}

// PricingBounds are the global rate guards applied after all rules run.
type PricingBounds struct {
	GlobalFloor           float64
	GlobalCeiling         float64
	CostRecoveryRate      float64
	MinPriceFactor        float64
	MaxPriceFactor        float64
	DirectChannelDiscount float64
}

// BoundsFromConfig builds the pricing bounds from configuration.
func BoundsFromConfig(cfg config.PricingConfig) PricingBounds {
	return PricingBounds{
		GlobalFloor:           cfg.GlobalFloor,
		GlobalCeiling:         cfg.GlobalCeiling,
		CostRecoveryRate:      cfg.CostRecoveryRate,
		MinPriceFactor:        cfg.MinPriceFactor,
		MaxPriceFactor:        cfg.MaxPriceFactor,
		DirectChannelDiscount: cfg.DirectChannelDiscount,
	}
}

// EvaluateRules runs the rule set against one (date, category, channel)
// target. Selection keeps enabled rules whose scope covers the target;
// ordering is ascending (priority, id); matching rules apply sequentially to
// a running rate, each clamped to its own caps, with global bounds and the
// channel adjustment folded in after the last rule. A nil forecast yields an
// unmatched candidate: the engine never prices from stale data.
func EvaluateRules(
	date time.Time,
	category string,
	channel *models.Channel,
	baseline float64,
	forecast *models.Forecast,
	rules []*models.Rule,
	asOf time.Time,
	bounds PricingBounds,
) (RecommendationCandidate, error) {
	channelName := ""
	if channel != nil {
		channelName = channel.Name
	}

	candidate := RecommendationCandidate{
		Date:         utils.DateOnly(date),
		RoomCategory: category,
		Channel:      channelName,
		BaselineRate: baseline,
		Rate:         baseline,
	}

	if forecast == nil {
		return candidate, nil
	}

	facts := models.PricingFacts{
		PredictedOccupancy: forecast.PredictedOccupancy,
		LeadTimeDays:       utils.DaysBetween(utils.DateOnly(asOf), candidate.Date),
		Weekday:            candidate.Date.Weekday(),
		Month:              candidate.Date.Month(),
	}

	selected := make([]*models.Rule, 0, len(rules))
	for _, rule := range rules {
		if !rule.IsEnabled() {
			continue
		}
		if !rule.Scope.Includes(candidate.Date, category, channelName) {
			continue
		}
		selected = append(selected, rule)
	}
	sort.Slice(selected, func(i, j int) bool {
		if selected[i].Priority != selected[j].Priority {
			return selected[i].Priority < selected[j].Priority
		}
		return selected[i].ID < selected[j].ID
	})

	matching := make([]*models.Rule, 0, len(selected))
	for _, rule := range selected {
		if rule.Condition.Matches(facts) {
			matching = append(matching, rule)
		}
	}

	if err := detectConflicts(matching); err != nil {
		return candidate, err
	}

	rate := baseline
	for _, rule := range matching {
		before := rate
		rate = rule.Adjustment.Apply(rate)
		candidate.ContributingRuleIDs = append(candidate.ContributingRuleIDs, int64(rule.ID))
		candidate.Deltas = append(candidate.Deltas, models.RuleDelta{
			RuleID:     rule.ID,
			RuleName:   rule.Name,
			RateBefore: before,
			RateAfter:  rate,
		})
	}

	if len(matching) == 0 {
		return candidate, nil
	}

	// Commission folds into the rate before the global clamp so the published
	// rate never escapes the ceiling; only the direct discount comes after.
	if channel != nil && !channel.IsDirect {
		rate = rate * (1 + channel.Commission)
	}

	rate = applyGlobalBounds(rate, baseline, bounds)

	if channel != nil && channel.IsDirect {
		rate = rate * (1 - bounds.DirectChannelDiscount)
	}

	candidate.Rate = rate
	candidate.Matched = true

	return candidate, nil
}

// detectConflicts fails when two matching rules share a priority and a
// non-empty exclusion group. The configuration is ambiguous, so the engine
// refuses to pick a winner.
func detectConflicts(matching []*models.Rule) error {
	for i := 0; i < len(matching); i++ {
		for j := i + 1; j < len(matching); j++ {
			a, b := matching[i], matching[j]
			if a.Priority != b.Priority {
				continue
			}
			if a.ExclusionGroup == "" || a.ExclusionGroup != b.ExclusionGroup {
				continue
			}
			return &RuleConflictError{RuleA: a.ID, RuleB: b.ID}
		}
	}
	return nil
}

func applyGlobalBounds(rate, baseline float64, bounds PricingBounds) float64 {
	if bounds.MinPriceFactor > 0 && rate < baseline*bounds.MinPriceFactor {
		rate = baseline * bounds.MinPriceFactor
	}
	if bounds.MaxPriceFactor > 0 && rate > baseline*bounds.MaxPriceFactor {
		rate = baseline * bounds.MaxPriceFactor
	}

	floor := bounds.GlobalFloor
	if bounds.CostRecoveryRate > floor {
		floor = bounds.CostRecoveryRate
	}
	if floor > 0 && rate < floor {
		rate = floor
	}
	if bounds.GlobalCeiling > 0 && rate > bounds.GlobalCeiling {
		rate = bounds.GlobalCeiling
	}

	return rate
}
