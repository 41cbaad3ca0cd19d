// Package scheduler
package scheduler

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/hotelops/tarifario/app/dto"
	"github.com/hotelops/tarifario/app/middleware"
	businessflow "github.com/hotelops/tarifario/business_flow"
	"github.com/hotelops/tarifario/config"
	"github.com/hotelops/tarifario/utils"
	"gopkg.in/natefinch/lumberjack.v2"
)

// PipelineScheduler periodically triggers a full pipeline run over the
// configured horizon. A hotel typically runs it nightly; the run lock makes a
// scheduler tick that overlaps a manual run a harmless no-op.
type PipelineScheduler struct {
	orchestratorFlow businessflow.OrchestratorFlow
	logger           *log.Logger
	interval         time.Duration
	horizonDays      int
}

func NewPipelineScheduler(
	orchestratorFlow businessflow.OrchestratorFlow,
	cfg config.SchedulerConfig,
) *PipelineScheduler {
	interval := cfg.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}

	horizonDays := cfg.HorizonDays
	if horizonDays <= 0 {
		horizonDays = utils.DefaultForecastHorizonDays
	}

	s := &PipelineScheduler{
		orchestratorFlow: orchestratorFlow,
		interval:         interval,
		horizonDays:      horizonDays,
	}
	s.initSchedulerLogger(cfg.LogPath)

	return s
}

// initSchedulerLogger configures a logger that writes to both stdout and a
// size-rotated persistent file.
func (s *PipelineScheduler) initSchedulerLogger(logPath string) {
	if logPath == "" {
		s.logger = log.New(os.Stdout, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
		return
	}

	rotated := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotated)
	// log.Logger is goroutine-safe; include timestamps with microseconds and UTC
	s.logger = log.New(mw, "scheduler ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

// Start launches the scheduler loop in a background goroutine and returns a stop function
func (s *PipelineScheduler) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)

	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.runOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.runOnce(ctx)
			}
		}
	}()

	return cancel
}

func (s *PipelineScheduler) runOnce(ctx context.Context) {
	today := utils.UTCToday()
	req := &dto.RunPipelineRequest{
		From: today.Format(time.DateOnly),
		To:   today.AddDate(0, 0, s.horizonDays-1).Format(time.DateOnly),
	}

	s.logger.Printf("scheduler: starting pipeline run %s..%s", req.From, req.To)

	start := time.Now()
	result, err := s.orchestratorFlow.Run(ctx, req, businessflow.NewClientMetadata("scheduler", "pipeline-scheduler"))
	if err != nil {
		if businessflow.IsConcurrentRun(err) {
			s.logger.Printf("scheduler: skipping tick, a run is already active")
			return
		}
		s.logger.Printf("scheduler: pipeline run failed: %v", err)
		return
	}

	middleware.ObservePipelineRun(result.Status, time.Since(start), result.Created, result.Skipped, result.Failed)

	s.logger.Printf("scheduler: pipeline run %s finished status=%s created=%d skipped=%d failed=%d",
		result.UUID, result.Status, result.Created, result.Skipped, result.Failed)
}
