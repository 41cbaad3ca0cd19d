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

// ForecastHandlerInterface defines the contract for forecast handlers
type ForecastHandlerInterface interface {
	ListForecasts(c fiber.Ctx) error
}

// ForecastHandler handles forecast-related HTTP requests
type ForecastHandler struct {
	forecastFlow businessflow.ForecastFlow
	validator    *validator.Validate
}

// NewForecastHandler creates a new forecast handler
func NewForecastHandler(forecastFlow businessflow.ForecastFlow) ForecastHandlerInterface {
	return &ForecastHandler{
		forecastFlow: forecastFlow,
		validator:    validator.New(),
	}
}

func (h *ForecastHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ForecastHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListForecasts lists active forecasts for a date range
// @Summary List Forecasts
// @Description List active (non superseded) forecasts for a date range, optionally filtered by room category
// @Tags Forecasts
// @Produce json
// @Param from query string true "Start date (2006-01-02)"
// @Param to query string true "End date (2006-01-02)"
// @Param room_category query string false "Room category filter"
// @Success 200 {object} dto.APIResponse{data=dto.ListForecastsResponse} "Forecasts retrieved"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/forecasts [get]
func (h *ForecastHandler) ListForecasts(c fiber.Ctx) error {
	req := dto.ListForecastsRequest{
		From:         c.Query("from"),
		To:           c.Query("to"),
		RoomCategory: c.Query("room_category"),
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	result, err := h.forecastFlow.ListForecasts(h.createRequestContext(c, "/api/v1/forecasts"), &req)
	if err != nil {
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}

		log.Println("List forecasts failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "List forecasts failed", "FORECAST_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Forecasts retrieved", result)
}

func (h *ForecastHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *ForecastHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
