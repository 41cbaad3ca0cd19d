package handlers

import (
	"context"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/app/middleware"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/utils"
)

// PipelineHandlerInterface defines the contract for pipeline handlers
type PipelineHandlerInterface interface {
	RunPipeline(c fiber.Ctx) error
	GetRun(c fiber.Ctx) error
}

// PipelineHandler handles pipeline-related HTTP requests
type PipelineHandler struct {
	orchestratorFlow businessflow.OrchestratorFlow
	validator        *validator.Validate
}

// NewPipelineHandler creates a new pipeline handler
func NewPipelineHandler(orchestratorFlow businessflow.OrchestratorFlow) PipelineHandlerInterface {
	return &PipelineHandler{
		orchestratorFlow: orchestratorFlow,
		validator:        validator.New(),
	}
}

func (h *PipelineHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *PipelineHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// RunPipeline runs the aggregation, forecasting and pricing pipeline over a date range
// @Summary Run Pipeline
// @Description Aggregate history, generate forecasts and produce tariff recommendations for the requested range
// @Tags Pipeline
// @Accept json
// @Produce json
// @Param request body dto.RunPipelineRequest true "Pipeline run parameters"
// @Success 201 {object} dto.APIResponse{data=dto.RunPipelineResponse} "Pipeline run completed"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 409 {object} dto.APIResponse "A run is already active for this hotel"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pipeline/runs [post]
func (h *PipelineHandler) RunPipeline(c fiber.Ctx) error {
	var req dto.RunPipelineRequest
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

	start := time.Now()

	// A full run aggregates a year of history before pricing, so it gets a
	// longer deadline than regular API requests.
	result, err := h.orchestratorFlow.Run(h.createRequestContextWithTimeout(c, "/api/v1/pipeline/runs", 10*time.Minute), &req, metadata)
	if err != nil {
		if businessflow.IsConcurrentRun(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "A pipeline run is already active for this hotel", "PIPELINE_RUN_ACTIVE", nil)
		}
		if businessflow.IsInvalidDateRange(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid date range", "INVALID_DATE_RANGE", err.Error())
		}

		log.Println("Pipeline run failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Pipeline run failed", "PIPELINE_RUN_FAILED", nil)
	}

	middleware.ObservePipelineRun(result.Status, time.Since(start), result.Created, result.Skipped, result.Failed)

	return h.SuccessResponse(c, fiber.StatusCreated, "Pipeline run completed", result)
}

// GetRun returns the audit record of a pipeline run
// @Summary Get Pipeline Run
// @Description Fetch the audit record of a pipeline run by UUID
// @Tags Pipeline
// @Produce json
// @Param uuid path string true "Pipeline run UUID"
// @Success 200 {object} dto.APIResponse{data=dto.RunPipelineResponse} "Pipeline run retrieved"
// @Failure 404 {object} dto.APIResponse "Pipeline run not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/pipeline/runs/{uuid} [get]
func (h *PipelineHandler) GetRun(c fiber.Ctx) error {
	rawUUID := c.Params("uuid")
	if rawUUID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Run UUID is required", "MISSING_RUN_UUID", nil)
	}

	result, err := h.orchestratorFlow.GetRun(h.createRequestContext(c, "/api/v1/pipeline/runs/:uuid"), rawUUID)
	if err != nil {
		if businessflow.IsPipelineRunNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Pipeline run not found", "PIPELINE_RUN_NOT_FOUND", nil)
		}

		log.Println("Get pipeline run failed:", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Get pipeline run failed", "PIPELINE_RUN_FETCH_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Pipeline run retrieved", result)
}

func (h *PipelineHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *PipelineHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
