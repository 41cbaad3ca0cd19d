// Package businessflow contains the core business logic for pricing rule management
package businessflow

import (
	"context"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
)

// RuleFlow manages the pricing rule catalog. Every write validates the full
// definition first; malformed rules never reach evaluation.
type RuleFlow interface {
	CreateRule(ctx context.Context, req *dto.CreateRuleRequest, metadata *ClientMetadata) (*dto.RuleResponse, error)
	UpdateRule(ctx context.Context, req *dto.UpdateRuleRequest, metadata *ClientMetadata) (*dto.RuleResponse, error)
	GetRule(ctx context.Context, rawUUID string) (*dto.RuleResponse, error)
	ListRules(ctx context.Context) (*dto.ListRulesResponse, error)
	SeedDefaultRules(ctx context.Context) error
}

// RuleFlowImpl implements the rule management business flow
type RuleFlowImpl struct {
	ruleRepo repository.RuleRepository
	pricing  config.PricingConfig
}

// NewRuleFlow creates a new rule flow instance
func NewRuleFlow(ruleRepo repository.RuleRepository, pricing config.PricingConfig) RuleFlow {
	return &RuleFlowImpl{
		ruleRepo: ruleRepo,
		pricing:  pricing,
	}
}

// CreateRule validates and persists a new pricing rule.
func (s *RuleFlowImpl) CreateRule(ctx context.Context, req *dto.CreateRuleRequest, metadata *ClientMetadata) (*dto.RuleResponse, error) {
	rule, err := ruleFromCreateRequest(req)
	if err != nil {
		return nil, NewBusinessError("RULE_DEFINITION_INVALID", "Invalid rule definition", err)
	}

	if err := rule.Validate(); err != nil {
		return nil, NewBusinessError("RULE_DEFINITION_INVALID", "Invalid rule definition",
			&InvalidRuleDefinitionError{RuleName: rule.Name, Reason: err})
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, NewBusinessError("RULE_SAVE_FAILED", "Failed to save rule", err)
	}

	return &dto.RuleResponse{
		Message: "Rule created",
		Rule:    ToRuleDTO(*rule),
	}, nil
}

// UpdateRule applies a partial update then revalidates the whole definition.
func (s *RuleFlowImpl) UpdateRule(ctx context.Context, req *dto.UpdateRuleRequest, metadata *ClientMetadata) (*dto.RuleResponse, error) {
	id, err := uuid.Parse(req.UUID)
	if err != nil {
		return nil, NewBusinessError("RULE_UUID_INVALID", "Invalid rule UUID", err)
	}

	rule, err := s.ruleRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to lookup rule", err)
	}
	if rule == nil {
		return nil, NewBusinessError("RULE_NOT_FOUND", "Rule not found", ErrRuleNotFound)
	}

	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Description != nil {
		rule.Description = *req.Description
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Scope != nil {
		scope, err := scopeFromDTO(*req.Scope)
		if err != nil {
			return nil, NewBusinessError("RULE_DEFINITION_INVALID", "Invalid rule scope", err)
		}
		rule.Scope = scope
	}
	if req.Condition != nil {
		rule.Condition = conditionFromDTO(*req.Condition)
	}
	if req.Adjustment != nil {
		rule.Adjustment = adjustmentFromDTO(*req.Adjustment)
	}
	if req.ExclusionGroup != nil {
		rule.ExclusionGroup = *req.ExclusionGroup
	}
	if req.Enabled != nil {
		rule.Enabled = req.Enabled
	}

	if err := rule.Validate(); err != nil {
		return nil, NewBusinessError("RULE_DEFINITION_INVALID", "Invalid rule definition",
			&InvalidRuleDefinitionError{RuleName: rule.Name, Reason: err})
	}

	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return nil, NewBusinessError("RULE_UPDATE_FAILED", "Failed to update rule", err)
	}

	return &dto.RuleResponse{
		Message: "Rule updated",
		Rule:    ToRuleDTO(*rule),
	}, nil
}

// GetRule returns one rule by its public identifier.
func (s *RuleFlowImpl) GetRule(ctx context.Context, rawUUID string) (*dto.RuleResponse, error) {
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, NewBusinessError("RULE_UUID_INVALID", "Invalid rule UUID", err)
	}

	rule, err := s.ruleRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("RULE_LOOKUP_FAILED", "Failed to lookup rule", err)
	}
	if rule == nil {
		return nil, NewBusinessError("RULE_NOT_FOUND", "Rule not found", ErrRuleNotFound)
	}

	return &dto.RuleResponse{
		Message: "OK",
		Rule:    ToRuleDTO(*rule),
	}, nil
}

// ListRules returns the whole catalog in evaluation order.
func (s *RuleFlowImpl) ListRules(ctx context.Context) (*dto.ListRulesResponse, error) {
	rules, err := s.ruleRepo.ByFilter(ctx, models.RuleFilter{}, "priority ASC, id ASC", 0, 0)
	if err != nil {
		return nil, NewBusinessError("RULE_LIST_FAILED", "Failed to list rules", err)
	}

	items := make([]dto.RuleDTO, 0, len(rules))
	for _, rule := range rules {
		items = append(items, ToRuleDTO(*rule))
	}

	return &dto.ListRulesResponse{
		Items: items,
		Total: int64(len(items)),
	}, nil
}

// SeedDefaultRules installs the starter rule set on an empty catalog:
// a high-season uplift, demand-driven occupancy rules and a last-minute
// discount. Existing catalogs are left untouched.
func (s *RuleFlowImpl) SeedDefaultRules(ctx context.Context) error {
	count, err := s.ruleRepo.Count(ctx, models.RuleFilter{})
	if err != nil {
		return NewBusinessError("RULE_COUNT_FAILED", "Failed to count rules", err)
	}
	if count > 0 {
		return nil
	}

	defaults := []*models.Rule{
		{
			Name:        "High season uplift",
			Description: "December, January and Easter season carry peak demand",
			Priority:    10,
			Condition: models.RuleCondition{
				Kind:   models.ConditionSeason,
				Months: []int{1, 3, 6, 7, 12},
			},
			Adjustment: models.RuleAdjustment{
				Kind:   models.AdjustmentPercent,
				Amount: 15,
			},
			Enabled: utils.ToPtr(true),
		},
		{
			Name:        "High demand uplift",
			Description: "Raise rates when predicted occupancy is high",
			Priority:    20,
			Condition: models.RuleCondition{
				Kind:      models.ConditionOccupancyAbove,
				Threshold: utils.ToPtr(utils.OccupancyHigh),
			},
			Adjustment: models.RuleAdjustment{
				Kind:   models.AdjustmentPercent,
				Amount: 10,
			},
			ExclusionGroup: "demand",
			Enabled:        utils.ToPtr(true),
		},
		{
			Name:        "Low demand discount",
			Description: "Stimulate demand when predicted occupancy is low",
			Priority:    20,
			Condition: models.RuleCondition{
				Kind:      models.ConditionOccupancyBelow,
				Threshold: utils.ToPtr(utils.OccupancyLow),
			},
			Adjustment: models.RuleAdjustment{
				Kind:   models.AdjustmentPercent,
				Amount: -10,
			},
			ExclusionGroup: "demand",
			Enabled:        utils.ToPtr(true),
		},
		{
			Name:        "Weekend uplift",
			Description: "Friday and Saturday nights price above the week",
			Priority:    30,
			Condition: models.RuleCondition{
				Kind:     models.ConditionDayOfWeek,
				Weekdays: []int{5, 6},
			},
			Adjustment: models.RuleAdjustment{
				Kind:   models.AdjustmentPercent,
				Amount: 8,
			},
			Enabled: utils.ToPtr(true),
		},
		{
			Name:        "Last minute discount",
			Description: "Fill remaining inventory inside the booking window",
			Priority:    40,
			Condition: models.RuleCondition{
				Kind: models.ConditionLeadTimeWithin,
				Days: utils.ToPtr(3),
			},
			Adjustment: models.RuleAdjustment{
				Kind:   models.AdjustmentPercent,
				Amount: -5,
			},
			Enabled: utils.ToPtr(true),
		},
	}

	for _, rule := range defaults {
		if err := rule.Validate(); err != nil {
			return NewBusinessError("RULE_DEFINITION_INVALID", "Invalid default rule",
				&InvalidRuleDefinitionError{RuleName: rule.Name, Reason: err})
		}
	}

	if err := s.ruleRepo.SaveBatch(ctx, defaults); err != nil {
		return NewBusinessError("RULE_SEED_FAILED", "Failed to seed default rules", err)
	}

	return nil
}

func ruleFromCreateRequest(req *dto.CreateRuleRequest) (*models.Rule, error) {
	scope, err := scopeFromDTO(req.Scope)
	if err != nil {
		return nil, err
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	return &models.Rule{
		Name:           req.Name,
		Description:    req.Description,
		Priority:       req.Priority,
		Scope:          scope,
		Condition:      conditionFromDTO(req.Condition),
		Adjustment:     adjustmentFromDTO(req.Adjustment),
		ExclusionGroup: req.ExclusionGroup,
		Enabled:        utils.ToPtr(enabled),
	}, nil
}

func scopeFromDTO(d dto.RuleScopeDTO) (models.RuleScope, error) {
	scope := models.RuleScope{
		RoomCategories: d.RoomCategories,
		Channels:       d.Channels,
	}
	if d.DateFrom != nil {
		from, err := utils.ParseDate(*d.DateFrom)
		if err != nil {
			return models.RuleScope{}, err
		}
		scope.DateFrom = &from
	}
	if d.DateTo != nil {
		to, err := utils.ParseDate(*d.DateTo)
		if err != nil {
			return models.RuleScope{}, err
		}
		scope.DateTo = &to
	}
	return scope, nil
}

func conditionFromDTO(d dto.RuleConditionDTO) models.RuleCondition {
	return models.RuleCondition{
		Kind:      models.RuleConditionKind(d.Kind),
		Threshold: d.Threshold,
		Days:      d.Days,
		Weekdays:  d.Weekdays,
		Months:    d.Months,
	}
}

func adjustmentFromDTO(d dto.RuleAdjustmentDTO) models.RuleAdjustment {
	return models.RuleAdjustment{
		Kind:    models.RuleAdjustmentKind(d.Kind),
		Amount:  d.Value,
		MinRate: d.MinRate,
		MaxRate: d.MaxRate,
	}
}
