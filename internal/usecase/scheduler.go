package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"chainbrief/internal/ports"
)

// Scheduler binds the interval driver to the ingestion pipeline.
type Scheduler struct {
	driver   ports.Scheduler
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewScheduler returns a helper to start/stop recurring cycles.
func NewScheduler(driver ports.Scheduler, pipeline *Pipeline, logger *slog.Logger) *Scheduler {
	return &Scheduler{driver: driver, pipeline: pipeline, logger: logger}
}

// Start registers the pipeline with the provided driver. Cycle failures are
// logged and never stop the schedule; the next tick always fires.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.pipeline == nil {
		return nil
	}

	job := func(trigger time.Time) {
		stored, err := s.pipeline.RunCycle(ctx)
		switch {
		case errors.Is(err, ErrCycleRunning):
			s.log("previous cycle still running, skipping tick", "trigger", trigger)
		case err != nil:
			s.log("cycle failed", "trigger", trigger, "error", err)
		default:
			s.log("cycle finished", "trigger", trigger, "stored", stored)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}

func (s *Scheduler) log(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Info(msg, args...)
	}
}
