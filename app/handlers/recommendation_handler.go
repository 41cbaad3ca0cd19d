package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hotelops/tarifario/app/dto"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/utils"
)

// RecommendationHandlerInterface defines the contract for recommendation handlers
type RecommendationHandlerInterface interface {
	ListRecommendations(c fiber.Ctx) error
	ApproveRecommendation(c fiber.Ctx) error
	RejectRecommendation(c fiber.Ctx) error
	ExportRecommendation(c fiber.Ctx) error
}

// RecommendationHandler handles recommendation-related HTTP requests
type RecommendationHandler struct {
	recommendationFlow businessflow.RecommendationFlow
	validator          *validator.Validate
}

// NewRecommendationHandler creates a new recommendation handler
func NewRecommendationHandler(recommendationFlow businessflow.RecommendationFlow) RecommendationHandlerInterface {
	return &RecommendationHandler{
		recommendationFlow: recommendationFlow,
		validator:          validator.New(),
	}
}

func (h *RecommendationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RecommendationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListRecommendations lists recommendations with optional filters
// @Summary List Recommendations
// @Description List tariff recommendations filtered by date range, status, category and channel
// @Tags Recommendations
// @Produce json
// @Param from query string false "Start date (2006-01-02)"
// @Param to query string false "End date (2006-01-02)"
// @Param status query string false "Status filter (pending, approved, rejected, exported)"
// @Param room_category query string false "Room category filter"
// @Param channel query string false "Channel filter"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (max 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListRecommendationsResponse} "Recommendations retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/recommendations [get]
func (h *RecommendationHandler) ListRecommendations(c fiber.Ctx) error {
	req := dto.ListRecommendationsRequest{
		From:         c.Query("from"),
		To:           c.Query("to"),
		Status:       c.Query("status"),
		RoomCategory: c.Query("room_category"),
		Channel:      c.Query("channel"),
	}
	if page := c.Query("page"); page != "" {
		v, err := strconv.Atoi(page)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page", "INVALID_PAGE", nil)
		}
		req.Page = v
	}
	if pageSize := c.Query("page_size"); pageSize != "" {
		v, err := strconv.Atoi(pageSize)
		if err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid page size", "INVALID_PAGE_SIZE", nil)
		}
		req.PageSize = v
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.recommendationFlow.List(h.createRequestContext(c, "/api/v1/recommendations"), &req)
	if err != nil {
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}

		log.Println("List recommendations failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List recommendations failed", "RECOMMENDATION_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recommendations retrieved", result)
}

// ApproveRecommendation approves a pending recommendation
// @Summary Approve Recommendation
// @Description Approve a pending recommendation, optionally overriding the rate
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param uuid path string true "Recommendation UUID"
// @Param request body dto.ApproveRecommendationRequest false "Approval data"
// @Success 200 {object} dto.APIResponse{data=dto.DecisionResponse} "Recommendation approved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Recommendation not found"
// @Failure 409 {object} dto.APIResponse "Recommendation is not pending"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/recommendations/{uuid}/approve [post]
func (h *RecommendationHandler) ApproveRecommendation(c fiber.Ctx) error {
	var req dto.ApproveRecommendationRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
		}
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	req.UUID = c.Params("uuid")

	// The decision is attributed to the authenticated manager, never to a
	// client-supplied name.
	managerName, ok := c.Locals("manager_name").(string)
	if !ok || managerName == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Manager identity not found in context", "MISSING_MANAGER_IDENTITY", nil)
	}
	req.DecidedBy = managerName

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.recommendationFlow.Approve(h.createRequestContext(c, "/api/v1/recommendations/:uuid/approve"), &req, metadata)
	if err != nil {
		return h.decisionErrorResponse(c, "Approve recommendation failed", "RECOMMENDATION_APPROVE_FAILED", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recommendation approved", result)
}

// RejectRecommendation rejects a pending recommendation
// @Summary Reject Recommendation
// @Description Reject a pending recommendation with a reason
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param uuid path string true "Recommendation UUID"
// @Param request body dto.RejectRecommendationRequest true "Rejection data"
// @Success 200 {object} dto.APIResponse{data=dto.DecisionResponse} "Recommendation rejected"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Recommendation not found"
// @Failure 409 {object} dto.APIResponse "Recommendation is not pending"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/recommendations/{uuid}/reject [post]
func (h *RecommendationHandler) RejectRecommendation(c fiber.Ctx) error {
	var req dto.RejectRecommendationRequest
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

	managerName, ok := c.Locals("manager_name").(string)
	if !ok || managerName == "" {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Manager identity not found in context", "MISSING_MANAGER_IDENTITY", nil)
	}
	req.DecidedBy = managerName

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.recommendationFlow.Reject(h.createRequestContext(c, "/api/v1/recommendations/:uuid/reject"), &req, metadata)
	if err != nil {
		return h.decisionErrorResponse(c, "Reject recommendation failed", "RECOMMENDATION_REJECT_FAILED", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recommendation rejected", result)
}

// ExportRecommendation marks an approved recommendation as exported
// @Summary Export Recommendation
// @Description Mark an approved recommendation as exported. Exporting an already exported record is a no-op.
// @Tags Recommendations
// @Produce json
// @Param uuid path string true "Recommendation UUID"
// @Success 200 {object} dto.APIResponse{data=dto.DecisionResponse} "Recommendation exported"
// @Failure 404 {object} dto.APIResponse "Recommendation not found"
// @Failure 409 {object} dto.APIResponse "Recommendation is not approved"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/recommendations/{uuid}/export [post]
func (h *RecommendationHandler) ExportRecommendation(c fiber.Ctx) error {
	req := dto.ExportRecommendationRequest{UUID: c.Params("uuid")}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))

	result, err := h.recommendationFlow.Export(h.createRequestContext(c, "/api/v1/recommendations/:uuid/export"), &req, metadata)
	if err != nil {
		return h.decisionErrorResponse(c, "Export recommendation failed", "RECOMMENDATION_EXPORT_FAILED", err)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Recommendation exported", result)
}

func (h *RecommendationHandler) decisionErrorResponse(c fiber.Ctx, message, errorCode string, err error) error {
	if businessflow.IsRecommendationNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Recommendation not found", "RECOMMENDATION_NOT_FOUND", nil)
	}
	if businessflow.IsInvalidStateTransition(err) {
		return h.ErrorResponse(c, fiber.StatusConflict, "Recommendation is not in an eligible state", "INVALID_STATE_TRANSITION", err.Error())
	}

	log.Println(message+":", err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, message, errorCode, nil)
}

func (h *RecommendationHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *RecommendationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
