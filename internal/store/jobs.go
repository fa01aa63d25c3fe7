// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/olegiv/travelcms/internal/model"
)

const jobColumns = "id, family, content_id, force, status, results, logs, error, created_at, started_at, finished_at"

func scanJob(row interface{ Scan(...any) error }) (model.TranslationJob, error) {
	var (
		job                   model.TranslationJob
		family, status        string
		results, logs         string
		startedAt, finishedAt sql.NullTime
	)
	if err := row.Scan(&job.ID, &family, &job.ContentID, &job.Force, &status,
		&results, &logs, &job.Error, &job.CreatedAt, &startedAt, &finishedAt); err != nil {
		return job, err
	}
	job.Family = model.Family(family)
	job.Status = model.JobStatus(status)
	if err := json.Unmarshal([]byte(results), &job.Results); err != nil {
		return job, fmt.Errorf("decoding job results: %w", err)
	}
	if err := json.Unmarshal([]byte(logs), &job.Logs); err != nil {
		return job, fmt.Errorf("decoding job logs: %w", err)
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if finishedAt.Valid {
		t := finishedAt.Time
		job.FinishedAt = &t
	}
	return job, nil
}

func encodeJSON[T any](v []T) (string, error) {
	if v == nil {
		return "[]", nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CreateJob inserts a queued job. It returns ErrDuplicate when the item
// already has a queued or running job.
func (q *Queries) CreateJob(ctx context.Context, job model.TranslationJob) error {
	_, err := q.db.ExecContext(ctx,
		"INSERT INTO translation_jobs (id, family, content_id, force, status, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		job.ID, string(job.Family), job.ContentID, job.Force, string(job.Status), job.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("creating translation job: %w", ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("creating translation job: %w", err)
	}
	return nil
}

// GetJob returns a job by id. It returns sql.ErrNoRows when absent.
func (q *Queries) GetJob(ctx context.Context, id string) (model.TranslationJob, error) {
	return scanJob(q.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM translation_jobs WHERE id = ?", id))
}

// GetActiveJob returns the queued or running job of an item.
// It returns sql.ErrNoRows when there is none.
func (q *Queries) GetActiveJob(ctx context.Context, family model.Family, contentID string) (model.TranslationJob, error) {
	return scanJob(q.db.QueryRowContext(ctx,
		"SELECT "+jobColumns+" FROM translation_jobs WHERE family = ? AND content_id = ? AND status IN ('queued', 'running')",
		string(family), contentID))
}

// ListJobs returns the most recent jobs, newest first.
func (q *Queries) ListJobs(ctx context.Context, limit int) ([]model.TranslationJob, error) {
	rows, err := q.db.QueryContext(ctx,
		"SELECT "+jobColumns+" FROM translation_jobs ORDER BY created_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("listing translation jobs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := []model.TranslationJob{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning translation job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// MarkJobRunning moves a queued job to running.
func (q *Queries) MarkJobRunning(ctx context.Context, id string, at time.Time) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE translation_jobs SET status = ?, started_at = ? WHERE id = ? AND status = ?",
		string(model.JobRunning), at, id, string(model.JobQueued))
	if err != nil {
		return fmt.Errorf("starting translation job: %w", err)
	}
	return requireAffected(res)
}

// FinishJob stores the outcome of a job.
func (q *Queries) FinishJob(ctx context.Context, job model.TranslationJob) error {
	results, err := encodeJSON(job.Results)
	if err != nil {
		return fmt.Errorf("encoding job results: %w", err)
	}
	logs, err := encodeJSON(job.Logs)
	if err != nil {
		return fmt.Errorf("encoding job logs: %w", err)
	}
	var finished any
	if job.FinishedAt != nil {
		finished = *job.FinishedAt
	}
	res, err := q.db.ExecContext(ctx,
		"UPDATE translation_jobs SET status = ?, results = ?, logs = ?, error = ?, finished_at = ? WHERE id = ?",
		string(job.Status), results, logs, job.Error, finished, job.ID)
	if err != nil {
		return fmt.Errorf("finishing translation job: %w", err)
	}
	return requireAffected(res)
}

// FailUnfinishedJobs marks every queued or running job as failed. It is used
// at startup to release jobs abandoned by a previous process.
func (q *Queries) FailUnfinishedJobs(ctx context.Context, reason string, at time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"UPDATE translation_jobs SET status = ?, error = ?, finished_at = ? WHERE status IN ('queued', 'running')",
		string(model.JobFailed), reason, at)
	if err != nil {
		return 0, fmt.Errorf("failing unfinished jobs: %w", err)
	}
	return res.RowsAffected()
}

// DeleteFinishedJobsBefore removes finished jobs older than cutoff.
func (q *Queries) DeleteFinishedJobsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM translation_jobs WHERE status NOT IN ('queued', 'running') AND finished_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("pruning translation jobs: %w", err)
	}
	return res.RowsAffected()
}
