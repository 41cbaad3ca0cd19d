package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hotelops/tarifario/app/dto"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/utils"
)

// RuleHandlerInterface defines the contract for pricing rule handlers
type RuleHandlerInterface interface {
	CreateRule(c fiber.Ctx) error
	UpdateRule(c fiber.Ctx) error
	GetRule(c fiber.Ctx) error
	ListRules(c fiber.Ctx) error
}

// RuleHandler handles pricing rule HTTP requests
type RuleHandler struct {
	ruleFlow  businessflow.RuleFlow
	validator *validator.Validate
}

// NewRuleHandler creates a new rule handler
func NewRuleHandler(ruleFlow businessflow.RuleFlow) RuleHandlerInterface {
	return &RuleHandler{
		ruleFlow:  ruleFlow,
		validator: validator.New(),
	}
}

func (h *RuleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RuleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateRule creates a new pricing rule
// @Summary Create Rule
// @Description Create a new pricing rule with scope, condition and adjustment
// @Tags Rules
// @Accept json
// @Produce json
// @Param request body dto.CreateRuleRequest true "Rule definition"
// @Success 201 {object} dto.APIResponse{data=dto.RuleResponse} "Rule created"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid rule definition"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rules [post]
func (h *RuleHandler) CreateRule(c fiber.Ctx) error {
	var req dto.CreateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.ruleFlow.CreateRule(h.createRequestContext(c, "/api/v1/rules"), &req, metadata)
	if err != nil {
		if businessflow.IsInvalidRuleDefinition(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rule definition", "RULE_DEFINITION_INVALID", err.Error())
		}

		log.Println("Rule creation failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rule creation failed", "RULE_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Rule created", result)
}

// UpdateRule updates an existing pricing rule
// @Summary Update Rule
// @Description Update fields of an existing pricing rule. Omitted fields are left unchanged.
// @Tags Rules
// @Accept json
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Param request body dto.UpdateRuleRequest true "Rule fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.RuleResponse} "Rule updated"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid rule definition"
// @Failure 404 {object} dto.APIResponse "Rule not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rules/{uuid} [put]
func (h *RuleHandler) UpdateRule(c fiber.Ctx) error {
	var req dto.UpdateRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	req.UUID = c.Params("uuid")

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.ruleFlow.UpdateRule(h.createRequestContext(c, "/api/v1/rules/:uuid"), &req, metadata)
	if err != nil {
		if businessflow.IsRuleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Rule not found", "RULE_NOT_FOUND", nil)
		}
		if businessflow.IsInvalidRuleDefinition(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid rule definition", "RULE_DEFINITION_INVALID", err.Error())
		}

		log.Println("Rule update failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Rule update failed", "RULE_UPDATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Rule updated", result)
}

// GetRule returns a pricing rule by UUID
// @Summary Get Rule
// @Description Fetch a pricing rule by UUID
// @Tags Rules
// @Produce json
// @Param uuid path string true "Rule UUID"
// @Success 200 {object} dto.APIResponse{data=dto.RuleResponse} "Rule retrieved"
// @Failure 404 {object} dto.APIResponse "Rule not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rules/{uuid} [get]
func (h *RuleHandler) GetRule(c fiber.Ctx) error {
	rawUUID := c.Params("uuid")
	if rawUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Rule UUID is required", "MISSING_RULE_UUID", nil)
	}

	result, err := h.ruleFlow.GetRule(h.createRequestContext(c, "/api/v1/rules/:uuid"), rawUUID)
	if err != nil {
		if businessflow.IsRuleNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Rule not found", "RULE_NOT_FOUND", nil)
		}

		log.Println("Get rule failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get rule failed", "RULE_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Rule retrieved", result)
}

// ListRules lists all pricing rules
// @Summary List Rules
// @Description List all pricing rules ordered by priority
// @Tags Rules
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListRulesResponse} "Rules retrieved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/rules [get]
func (h *RuleHandler) ListRules(c fiber.Ctx) error {
	result, err := h.ruleFlow.ListRules(h.createRequestContext(c, "/api/v1/rules"))
	if err != nil {
		log.Println("List rules failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List rules failed", "RULE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Rules retrieved", result)
}

func (h *RuleHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *RuleHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
