// Package businessflow contains the core business logic for pipeline orchestration
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/models"
	"github.com/hotelops/tarifario/repository"
	"github.com/hotelops/tarifario/utils"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// OrchestratorFlow is the single entry point external callers use to drive
// the pipeline: aggregation, forecasting and rule evaluation for every
// (date, category) in range, ending in pending recommendations.
type OrchestratorFlow interface {
	Run(ctx context.Context, req *dto.RunPipelineRequest, metadata *ClientMetadata) (*dto.RunPipelineResponse, error)
	GetRun(ctx context.Context, rawUUID string) (*dto.RunPipelineResponse, error)
}

// OrchestratorFlowImpl implements the pipeline orchestration business flow
type OrchestratorFlowImpl struct {
	aggregationFlow    AggregationFlow
	forecastFlow       ForecastFlow
	roomRepo           repository.RoomRepository
	channelRepo        repository.ChannelRepository
	ruleRepo           repository.RuleRepository
	forecastRepo       repository.ForecastRepository
	recommendationRepo repository.RecommendationRepository
	runRepo            repository.PipelineRunRepository
	locks              *RunLockManager
	hotel              config.HotelConfig
	pricing            config.PricingConfig
	db                 *gorm.DB
}

// NewOrchestratorFlow creates a new orchestrator flow instance
func NewOrchestratorFlow(
	aggregationFlow AggregationFlow,
	forecastFlow ForecastFlow,
	roomRepo repository.RoomRepository,
	channelRepo repository.ChannelRepository,
	ruleRepo repository.RuleRepository,
	forecastRepo repository.ForecastRepository,
	recommendationRepo repository.RecommendationRepository,
	runRepo repository.PipelineRunRepository,
	locks *RunLockManager,
	hotel config.HotelConfig,
	pricing config.PricingConfig,
	db *gorm.DB,
) OrchestratorFlow {
	return &OrchestratorFlowImpl{
		aggregationFlow:    aggregationFlow,
		forecastFlow:       forecastFlow,
		roomRepo:           roomRepo,
		channelRepo:        channelRepo,
		ruleRepo:           ruleRepo,
		forecastRepo:       forecastRepo,
		recommendationRepo: recommendationRepo,
		runRepo:            runRepo,
		locks:              locks,
		hotel:              hotel,
		pricing:            pricing,
		db:                 db,
	}
}

// runCounters collects the per-unit outcomes of a run under a shared mutex.
type runCounters struct {
	mu       sync.Mutex
	created  int
	skipped  int
	failed   int
	failures models.RunFailures
}

func (c *runCounters) addCreated(n int) {
	c.mu.Lock()
	c.created += n
	c.mu.Unlock()
}

func (c *runCounters) addSkipped(n int) {
	c.mu.Lock()
	c.skipped += n
	c.mu.Unlock()
}

// addSkippedWithReason counts n units as skipped and records why in the run
// report. The entry is informational and does not raise the failed count.
func (c *runCounters) addSkippedWithReason(n int, date time.Time, category, code string, err error) {
	c.mu.Lock()
	c.skipped += n
	c.mu.Unlock()
	c.addReport(date, category, code, err.Error())
}

// addReport records an informational report entry without touching a counter.
func (c *runCounters) addReport(date time.Time, category, code, message string) {
	c.mu.Lock()
	c.failures = append(c.failures, models.RunFailure{
		Date:         utils.FormatDate(date),
		RoomCategory: category,
		Code:         code,
		Message:      message,
	})
	c.mu.Unlock()
}

func (c *runCounters) addFailure(date time.Time, category, code string, err error) {
	c.mu.Lock()
	c.failed++
	c.failures = append(c.failures, models.RunFailure{
		Date:         utils.FormatDate(date),
		RoomCategory: category,
		Code:         code,
		Message:      err.Error(),
	})
	c.mu.Unlock()
}

// Run executes the whole pipeline for the requested range. Failures are
// scoped to their (date, category) unit and collected; successes persist even
// when other units fail or the context is cancelled mid-run.
func (s *OrchestratorFlowImpl) Run(ctx context.Context, req *dto.RunPipelineRequest, metadata *ClientMetadata) (*dto.RunPipelineResponse, error) {
	hotelID := req.HotelID
	if hotelID == "" {
		hotelID = s.hotel.ID
	}

	from, err := utils.ParseDate(req.From)
	if err != nil {
		return nil, NewBusinessError("PIPELINE_RANGE_INVALID", "Invalid from date", err)
	}
	to, err := utils.ParseDate(req.To)
	if err != nil {
		return nil, NewBusinessError("PIPELINE_RANGE_INVALID", "Invalid to date", err)
	}
	rng, err := NewDateRange(from, to)
	if err != nil {
		return nil, NewBusinessError("PIPELINE_RANGE_INVALID", "Invalid date range", err)
	}

	if err := s.locks.Acquire(ctx, hotelID); err != nil {
		return nil, err
	}
	defer s.locks.Release(hotelID)

	run := &models.PipelineRun{
		HotelID:   hotelID,
		RangeFrom: rng.From,
		RangeTo:   rng.To,
		Status:    models.PipelineRunStatusRunning,
		StartedAt: utils.UTCNow(),
	}
	if err := s.runRepo.Save(ctx, run); err != nil {
		return nil, NewBusinessError("PIPELINE_RUN_SAVE_FAILED", "Failed to record pipeline run", err)
	}

	counters := &runCounters{}
	runErr := s.execute(ctx, run.ID, rng, counters)

	run.Created = counters.created
	run.Skipped = counters.skipped
	run.Failed = counters.failed
	run.Failures = counters.failures
	run.FinishedAt = utils.UTCNowPtr()

	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		run.Status = models.PipelineRunStatusCancelled
	case runErr != nil:
		run.Status = models.PipelineRunStatusFailed
	default:
		run.Status = models.PipelineRunStatusCompleted
	}

	// Persist the summary with a fresh context: the run record must survive
	// the cancellation that ended the run.
	if err := s.runRepo.Update(context.WithoutCancel(ctx), run); err != nil {
		return nil, NewBusinessError("PIPELINE_RUN_UPDATE_FAILED", "Failed to finalize pipeline run", err)
	}

	if runErr != nil && run.Status == models.PipelineRunStatusFailed {
		return nil, NewBusinessError("PIPELINE_RUN_FAILED", "Pipeline run failed", runErr)
	}

	return utils.ToPtr(ToPipelineRunDTO(*run, "Pipeline run finished")), nil
}

// GetRun returns the audit record of a past run.
func (s *OrchestratorFlowImpl) GetRun(ctx context.Context, rawUUID string) (*dto.RunPipelineResponse, error) {
	id, err := uuid.Parse(rawUUID)
	if err != nil {
		return nil, NewBusinessError("PIPELINE_RUN_UUID_INVALID", "Invalid run UUID", err)
	}

	run, err := s.runRepo.ByUUID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("PIPELINE_RUN_LOOKUP_FAILED", "Failed to lookup pipeline run", err)
	}
	if run == nil {
		return nil, NewBusinessError("PIPELINE_RUN_NOT_FOUND", "Pipeline run not found", ErrPipelineRunNotFound)
	}

	return utils.ToPtr(ToPipelineRunDTO(*run, "OK")), nil
}

func (s *OrchestratorFlowImpl) execute(ctx context.Context, runID uint, rng DateRange, counters *runCounters) error {
	// Snapshot shared inputs once: rules must not change mid-run.
	rules, err := s.ruleRepo.ListEnabled(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot rules: %w", err)
	}
	rooms, err := s.roomRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot rooms: %w", err)
	}
	channels, err := s.channelRepo.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot channels: %w", err)
	}
	if len(channels) == 0 {
		channels = []*models.Channel{{Name: "direct", IsDirect: true}}
	}

	asOf := utils.UTCToday()
	historyTo := asOf.AddDate(0, 0, -1)
	historyFrom := historyTo.AddDate(-1, 0, 0)
	historyRange, err := NewDateRange(historyFrom, historyTo)
	if err != nil {
		return fmt.Errorf("failed to build history range: %w", err)
	}

	aggregated, err := s.aggregationFlow.Aggregate(ctx, historyRange)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}
	for _, anomaly := range aggregated.Anomalies {
		counters.addReport(anomaly.Date, anomaly.RoomCategory, "DATA_QUALITY", anomaly.Detail)
	}

	horizon := rng.Dates()
	bounds := BoundsFromConfig(s.pricing)

	// Forecast per category up front, then fan out pricing per (date,
	// category). Categories without history are skipped, not failed.
	forecastsByCategory := make(map[string]map[string]*models.Forecast, len(rooms))
	for _, room := range rooms {
		if aggregated.StayNights(room.Category) == 0 {
			insufficient := &InsufficientDataError{
				RoomCategory: room.Category,
				From:         historyRange.From,
				To:           historyRange.To,
			}
			counters.addSkippedWithReason(len(horizon), rng.From, room.Category, "INSUFFICIENT_DATA", insufficient)
			continue
		}

		forecasts, err := s.forecastFlow.GenerateForecasts(ctx, room.Category, horizon)
		if err != nil {
			var unavailable *ForecastUnavailableError
			if errors.As(err, &unavailable) {
				counters.addSkippedWithReason(len(horizon), rng.From, room.Category, "FORECAST_UNAVAILABLE", unavailable)
				continue
			}
			return fmt.Errorf("forecast for category %q failed: %w", room.Category, err)
		}

		byDate := make(map[string]*models.Forecast, len(forecasts))
		for _, f := range forecasts {
			byDate[utils.FormatDate(f.Date)] = f
		}
		forecastsByCategory[room.Category] = byDate
	}

	workers := s.pricing.WorkerCount
	if workers < 1 {
		workers = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, room := range rooms {
		byDate, ok := forecastsByCategory[room.Category]
		if !ok {
			continue
		}

		for _, date := range horizon {
			// Cancellation stops between units; persisted units stay valid.
			if err := gctx.Err(); err != nil {
				return err
			}

			room, date := room, date
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				s.priceUnit(gctx, runID, date, room, byDate[utils.FormatDate(date)], channels, rules, asOf, bounds, counters)
				return nil
			})
		}
	}

	return g.Wait()
}

// priceUnit evaluates one (date, category) against every channel. Unit errors
// are recorded, never propagated: one bad unit must not abort the run.
func (s *OrchestratorFlowImpl) priceUnit(
	ctx context.Context,
	runID uint,
	date time.Time,
	room *models.Room,
	forecast *models.Forecast,
	channels []*models.Channel,
	rules []*models.Rule,
	asOf time.Time,
	bounds PricingBounds,
	counters *runCounters,
) {
	if forecast == nil {
		counters.addSkipped(1)
		return
	}

	baseline := forecast.PredictedADR
	if baseline <= 0 {
		baseline = room.BaseRate
	}

	for _, channel := range channels {
		candidate, err := EvaluateRules(date, room.Category, channel, baseline, forecast, rules, asOf, bounds)
		if err != nil {
			var conflict *RuleConflictError
			if errors.As(err, &conflict) {
				counters.addFailure(date, room.Category, "RULE_CONFLICT", err)
			} else {
				counters.addFailure(date, room.Category, "RULE_EVALUATION_FAILED", err)
			}
			continue
		}
		if !candidate.Matched {
			counters.addSkipped(1)
			continue
		}

		created, err := s.persistCandidate(ctx, runID, candidate)
		if err != nil {
			counters.addFailure(date, room.Category, "RECOMMENDATION_PERSIST_FAILED", err)
			continue
		}
		if created {
			counters.addCreated(1)
		} else {
			counters.addSkipped(1)
		}
	}
}

// persistCandidate creates a pending recommendation unless a non-rejected one
// already covers the target. The check and insert share a transaction so the
// at-most-one invariant holds even with parallel workers.
func (s *OrchestratorFlowImpl) persistCandidate(ctx context.Context, runID uint, candidate RecommendationCandidate) (bool, error) {
	created := false
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		existing, err := s.recommendationRepo.ActiveByTarget(txCtx, candidate.Date, candidate.RoomCategory, candidate.Channel)
		if err != nil {
			return err
		}
		if existing != nil && existing.Status != models.RecommendationStatusRejected {
			return nil
		}

		rec := &models.Recommendation{
			Date:                candidate.Date,
			RoomCategory:        candidate.RoomCategory,
			Channel:             candidate.Channel,
			BaselineRate:        candidate.BaselineRate,
			RecommendedRate:     candidate.Rate,
			ContributingRuleIDs: candidate.ContributingRuleIDs,
			Deltas:              candidate.Deltas,
			Status:              models.RecommendationStatusPending,
			PipelineRunID:       &runID,
		}
		if err := s.recommendationRepo.Save(txCtx, rec); err != nil {
			return err
		}

		created = true
		return nil
	})

	return created, err
}
