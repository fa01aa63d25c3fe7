// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
)

// ErrNotRunning is returned by Enqueue when the workers are not started.
var ErrNotRunning = errors.New("translation dispatcher is not running")

// Dispatcher queues translation jobs and runs them on a pool of workers.
// Jobs are persisted so their state can be polled after Enqueue returns.
type Dispatcher struct {
	queries    *store.Queries
	translator *Translator
	logger     *slog.Logger
	queue      chan string
	workers    int
	poll       time.Duration
	wg         sync.WaitGroup
	done       chan struct{}
	mu         sync.RWMutex
	running    bool
	now        func() time.Time
}

// Config holds dispatcher configuration.
type Config struct {
	Workers      int           // Number of concurrent translation workers
	QueueSize    int           // Jobs buffered before Enqueue blocks
	PollInterval time.Duration // Wait polling interval
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:      2,
		QueueSize:    100,
		PollInterval: 200 * time.Millisecond,
	}
}

// NewDispatcher creates a new translation job dispatcher.
func NewDispatcher(db *sql.DB, translator *Translator, logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		queries:    store.New(db),
		translator: translator,
		logger:     logger.With("category", model.EventCategoryTranslation),
		queue:      make(chan string, cfg.QueueSize),
		workers:    cfg.Workers,
		poll:       cfg.PollInterval,
		done:       make(chan struct{}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Start marks jobs abandoned by a previous process as failed and starts the
// workers.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return nil
	}
	d.running = true
	d.mu.Unlock()

	n, err := d.queries.FailUnfinishedJobs(ctx, "interrupted by restart", d.now())
	if err != nil {
		d.mu.Lock()
		d.running = false
		d.mu.Unlock()
		return err
	}
	if n > 0 {
		d.logger.Warn("failed translation jobs left unfinished by a previous run", "count", n)
	}

	d.logger.Info("starting translation dispatcher", "workers", d.workers)
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	return nil
}

// Stop stops the dispatcher and waits for running jobs to finish.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping translation dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("translation dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("translation worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("translation worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			d.logger.Debug("translation worker context cancelled", "worker_id", id)
			return
		case jobID := <-d.queue:
			d.process(ctx, jobID)
		}
	}
}

// Enqueue validates the request, checks that the item exists and queues a
// job for it. It returns ErrInvalidInput, ErrNotFound, or ErrConflict when
// the item already has a queued or running job.
func (d *Dispatcher) Enqueue(ctx context.Context, contentType, contentID string, force bool) (model.TranslationJob, error) {
	if strings.TrimSpace(contentType) == "" {
		return model.TranslationJob{}, fmt.Errorf("%w: contentType is required", ErrInvalidInput)
	}
	family, ok := model.ParseFamily(contentType)
	if !ok {
		return model.TranslationJob{}, fmt.Errorf("%w: unknown contentType %q", ErrInvalidInput, contentType)
	}
	contentID = strings.TrimSpace(contentID)
	if contentID == "" {
		return model.TranslationJob{}, fmt.Errorf("%w: contentId is required", ErrInvalidInput)
	}

	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return model.TranslationJob{}, ErrNotRunning
	}

	schema := model.MustSchema(family)
	if _, err := d.queries.GetItem(ctx, schema, contentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.TranslationJob{}, fmt.Errorf("%w: %s %q", ErrNotFound, family, contentID)
		}
		return model.TranslationJob{}, fmt.Errorf("loading %s %q: %w", family, contentID, err)
	}

	job := model.TranslationJob{
		ID:        uuid.NewString(),
		Family:    family,
		ContentID: contentID,
		Force:     force,
		Status:    model.JobQueued,
		Results:   []model.LanguageResult{},
		Logs:      []string{},
		CreatedAt: d.now(),
	}
	if err := d.queries.CreateJob(ctx, job); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			if active, aerr := d.queries.GetActiveJob(ctx, family, contentID); aerr == nil {
				return model.TranslationJob{}, fmt.Errorf("%w: %s %q already has job %s %s", ErrConflict, family, contentID, active.ID, active.Status)
			}
			return model.TranslationJob{}, fmt.Errorf("%w: %s %q already has a translation job in progress", ErrConflict, family, contentID)
		}
		return model.TranslationJob{}, err
	}

	select {
	case d.queue <- job.ID:
	case <-ctx.Done():
		d.abandon(job, ctx.Err())
		return model.TranslationJob{}, ctx.Err()
	}

	d.logger.Info("translation job queued", "job_id", job.ID, "content_type", family, "content_id", contentID, "force", force)
	return job, nil
}

// abandon marks a job that never reached a worker as failed.
func (d *Dispatcher) abandon(job model.TranslationJob, cause error) {
	d.release(context.Background(), job.ID, "not queued: "+cause.Error())
}

// release marks a job failed so the in-flight guard lets the item be
// triggered again.
func (d *Dispatcher) release(ctx context.Context, jobID, reason string) {
	finished := d.now()
	job := model.TranslationJob{
		ID:         jobID,
		Status:     model.JobFailed,
		Error:      reason,
		Results:    []model.LanguageResult{},
		Logs:       []string{},
		FinishedAt: &finished,
	}
	if err := d.queries.FinishJob(context.WithoutCancel(ctx), job); err != nil {
		d.logger.Error("failed to release translation job", "job_id", jobID, "error", err)
	}
}

func (d *Dispatcher) process(ctx context.Context, jobID string) {
	start := d.now()
	if err := d.queries.MarkJobRunning(ctx, jobID, start); err != nil {
		d.logger.Error("failed to start translation job", "job_id", jobID, "error", err)
		d.release(ctx, jobID, "not started: "+err.Error())
		return
	}
	job, err := d.queries.GetJob(ctx, jobID)
	if err != nil {
		d.logger.Error("failed to load translation job", "job_id", jobID, "error", err)
		d.release(ctx, jobID, "not loaded: "+err.Error())
		return
	}

	outcome, err := d.translator.Run(ctx, job.Family, job.ContentID, job.Force)
	finished := d.now()
	job.FinishedAt = &finished
	job.Results = outcome.Results
	job.Logs = outcome.Logs
	if err != nil {
		job.Status = model.JobFailed
		job.Error = err.Error()
	} else {
		job.Status = outcome.Status()
	}

	// The job row must reach a terminal state even when ctx was cancelled
	// mid-run, or the item stays locked by the in-flight guard.
	if err := d.queries.FinishJob(context.WithoutCancel(ctx), job); err != nil {
		d.logger.Error("failed to store translation job result", "job_id", jobID, "error", err)
		return
	}

	translated, skipped, failed := job.Counts()
	attrs := []any{
		"job_id", jobID, "content_type", job.Family, "content_id", job.ContentID,
		"status", job.Status, "translated", translated, "skipped", skipped, "failed", failed,
		"duration", finished.Sub(start),
	}
	if job.Status == model.JobCompleted {
		d.logger.Info("translation job finished", attrs...)
	} else {
		d.logger.Warn("translation job finished with errors", attrs...)
	}
}

// Get returns a job by id.
func (d *Dispatcher) Get(ctx context.Context, id string) (model.TranslationJob, error) {
	job, err := d.queries.GetJob(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TranslationJob{}, fmt.Errorf("%w: translation job %q", ErrNotFound, id)
	}
	return job, err
}

// List returns the most recent jobs.
func (d *Dispatcher) List(ctx context.Context, limit int) ([]model.TranslationJob, error) {
	return d.queries.ListJobs(ctx, limit)
}

// Wait polls a job until it reaches a terminal status or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context, id string) (model.TranslationJob, error) {
	ticker := time.NewTicker(d.poll)
	defer ticker.Stop()

	for {
		job, err := d.Get(ctx, id)
		if err != nil {
			return model.TranslationJob{}, err
		}
		if job.Status.Finished() {
			return job, nil
		}
		select {
		case <-ctx.Done():
			return job, ctx.Err()
		case <-ticker.C:
		}
	}
}

// PruneFinished removes finished jobs older than retention.
func (d *Dispatcher) PruneFinished(ctx context.Context, retention time.Duration) (int64, error) {
	return d.queries.DeleteFinishedJobsBefore(ctx, d.now().Add(-retention))
}

// ProviderName returns the name of the translation provider in use.
func (d *Dispatcher) ProviderName() string {
	return d.translator.Provider().Name()
}
