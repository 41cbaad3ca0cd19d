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

// KPIHandlerInterface defines the contract for KPI handlers
type KPIHandlerInterface interface {
	GetKPIs(c fiber.Ctx) error
}

// KPIHandler handles KPI read HTTP requests
type KPIHandler struct {
	kpiFlow   businessflow.KPIFlow
	validator *validator.Validate
}

// NewKPIHandler creates a new KPI handler
func NewKPIHandler(kpiFlow businessflow.KPIFlow) KPIHandlerInterface {
	return &KPIHandler{
		kpiFlow:   kpiFlow,
		validator: validator.New(),
	}
}

func (h *KPIHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *KPIHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetKPIs returns occupancy and revenue KPIs over a date range
// @Summary Get KPIs
// @Description Occupancy, ADR and RevPAR over a date range, grouped by day, category or day of week
// @Tags KPIs
// @Produce json
// @Param from query string true "Start date (2006-01-02)"
// @Param to query string true "End date (2006-01-02)"
// @Param room_category query string false "Room category filter"
// @Param group_by query string false "Grouping (day, category, day_of_week)"
// @Param no_cache query bool false "Bypass the KPI cache"
// @Success 200 {object} dto.APIResponse{data=dto.KPIResponse} "KPIs retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/kpis [get]
func (h *KPIHandler) GetKPIs(c fiber.Ctx) error {
	req := dto.KPIRequest{
		From:         c.Query("from"),
		To:           c.Query("to"),
		RoomCategory: c.Query("room_category"),
		GroupBy:      c.Query("group_by"),
		NoCache:      c.Query("no_cache") == "true",
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.kpiFlow.GetKPIs(h.createRequestContext(c, "/api/v1/kpis"), &req)
	if err != nil {
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}

		log.Println("Get KPIs failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get KPIs failed", "KPI_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "KPIs retrieved", result)
}

func (h *KPIHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *KPIHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
