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

// ExportHandlerInterface defines the contract for export handlers
type ExportHandlerInterface interface {
	ExportTariffs(c fiber.Ctx) error
}

// ExportHandler handles bulk tariff export HTTP requests
type ExportHandler struct {
	exportFlow businessflow.ExportFlow
	validator  *validator.Validate
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportFlow businessflow.ExportFlow) ExportHandlerInterface {
	return &ExportHandler{
		exportFlow: exportFlow,
		validator:  validator.New(),
	}
}

func (h *ExportHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ExportHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ExportTariffs writes all approved recommendations in a range to a spreadsheet
// @Summary Export Tariffs
// @Description Write approved recommendations in the range to an xlsx workbook and mark them exported
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body dto.ExportTariffsRequest true "Export range"
// @Success 200 {object} dto.APIResponse{data=dto.ExportTariffsResponse} "Tariffs exported"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "No approved recommendations in range"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/exports/tariffs [post]
func (h *ExportHandler) ExportTariffs(c fiber.Ctx) error {
	var req dto.ExportTariffsRequest
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

	// Workbook generation can touch thousands of rows.
	result, err := h.exportFlow.ExportTariffs(h.createRequestContextWithTimeout(c, "/api/v1/exports/tariffs", 2*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsNothingToExport(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "No approved recommendations to export in this range", "EXPORT_NOTHING_TO_EXPORT", nil)
		}
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}

		log.Println("Tariff export failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Tariff export failed", "TARIFF_EXPORT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tariffs exported", result)
}

func (h *ExportHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
