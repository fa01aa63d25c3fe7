// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs periodic background work: the auto-translation
// sweep and retention pruning of finished jobs and old events.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/service"
	"github.com/olegiv/travelcms/internal/translate"
)

// DefaultPruneSpec runs retention pruning once a day.
const DefaultPruneSpec = "@daily"

// Config holds scheduler configuration.
type Config struct {
	SweepSpec      string // Cron spec for the auto-translation sweep; empty disables it
	PruneSpec      string // Cron spec for pruning; defaults to DefaultPruneSpec
	JobRetention   time.Duration
	EventRetention time.Duration
}

// SweepResult counts what a sweep did with the items needing translation.
type SweepResult struct {
	Queued  int `json:"queued"`
	Busy    int `json:"busy"` // already had a job in flight
	Failed  int `json:"failed"`
	Pending int `json:"pending"`
}

// Scheduler handles scheduled translation and housekeeping tasks.
type Scheduler struct {
	cron       *cron.Cron
	coverage   *service.CoverageService
	dispatcher *translate.Dispatcher
	events     *service.EventService
	logger     *slog.Logger
	cfg        Config
}

// New creates a new scheduler instance.
func New(coverage *service.CoverageService, dispatcher *translate.Dispatcher, events *service.EventService, logger *slog.Logger, cfg Config) *Scheduler {
	if cfg.PruneSpec == "" {
		cfg.PruneSpec = DefaultPruneSpec
	}
	return &Scheduler{
		cron:       cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		coverage:   coverage,
		dispatcher: dispatcher,
		events:     events,
		logger:     logger.With("category", model.EventCategoryScheduler),
		cfg:        cfg,
	}
}

// Start registers the jobs and starts the cron runner.
func (s *Scheduler) Start() error {
	if s.cfg.SweepSpec != "" {
		if _, err := s.cron.AddFunc(s.cfg.SweepSpec, func() {
			if _, err := s.Sweep(context.Background()); err != nil {
				s.logger.Error("auto-translation sweep failed", "error", err)
			}
		}); err != nil {
			return err
		}
	}

	if _, err := s.cron.AddFunc(s.cfg.PruneSpec, func() {
		if err := s.Prune(context.Background()); err != nil {
			s.logger.Error("retention pruning failed", "error", err)
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "sweep", s.cfg.SweepSpec != "")
	return nil
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Sweep queues a non-forced translation job for every item that is not fully
// translated. Items that already have a job in flight are counted as busy.
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	items, err := s.coverage.ItemsNeedingTranslation(ctx)
	if err != nil {
		return SweepResult{}, err
	}

	res := SweepResult{Pending: len(items)}
	for _, item := range items {
		_, err := s.dispatcher.Enqueue(ctx, string(item.Section), item.ItemID, false)
		switch {
		case err == nil:
			res.Queued++
		case errors.Is(err, translate.ErrConflict):
			res.Busy++
		default:
			res.Failed++
			s.logger.Warn("failed to queue translation",
				"content_type", item.Section, "content_id", item.ItemID, "error", err)
		}
	}

	if res.Pending > 0 {
		s.events.LogInfo(ctx, model.EventCategoryScheduler, "auto-translation sweep", map[string]any{
			"pending": res.Pending,
			"queued":  res.Queued,
			"busy":    res.Busy,
			"failed":  res.Failed,
		})
	}
	s.logger.Info("auto-translation sweep finished",
		"pending", res.Pending, "queued", res.Queued, "busy", res.Busy, "failed", res.Failed)
	return res, nil
}

// Prune removes finished jobs and events past their retention window. A
// non-positive retention keeps everything.
func (s *Scheduler) Prune(ctx context.Context) error {
	var errs []error
	if s.cfg.JobRetention > 0 {
		n, err := s.dispatcher.PruneFinished(ctx, s.cfg.JobRetention)
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			s.logger.Info("pruned translation jobs", "count", n)
		}
	}
	if s.cfg.EventRetention > 0 {
		n, err := s.events.DeleteOldEvents(ctx, s.cfg.EventRetention)
		if err != nil {
			errs = append(errs, err)
		} else if n > 0 {
			s.logger.Info("pruned events", "count", n)
		}
	}
	return errors.Join(errs...)
}
