// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import "time"

// JobStatus is the lifecycle state of a translation job.
type JobStatus string

// Job statuses
const (
	JobQueued              JobStatus = "queued"
	JobRunning             JobStatus = "running"
	JobCompleted           JobStatus = "completed"
	JobCompletedWithErrors JobStatus = "completed_with_errors"
	JobFailed              JobStatus = "failed"
)

// Finished reports whether the status is terminal.
func (s JobStatus) Finished() bool {
	switch s {
	case JobCompleted, JobCompletedWithErrors, JobFailed:
		return true
	}
	return false
}

// LanguageOutcome is the result of translating an item into one language.
type LanguageOutcome string

// Per-language outcomes
const (
	OutcomeTranslated LanguageOutcome = "translated"
	OutcomeSkipped    LanguageOutcome = "skipped"
	OutcomeFailed     LanguageOutcome = "failed"
)

// LanguageResult records what happened for one target language.
type LanguageResult struct {
	Language string          `json:"language"`
	Status   LanguageOutcome `json:"status"`
	Error    string          `json:"error,omitempty"`
}

// TranslationJob is a queued or finished request to auto-translate one item.
type TranslationJob struct {
	ID         string           `json:"id"`
	Family     Family           `json:"contentType"`
	ContentID  string           `json:"contentId"`
	Force      bool             `json:"force"`
	Status     JobStatus        `json:"status"`
	Results    []LanguageResult `json:"results"`
	Logs       []string         `json:"logs"`
	Error      string           `json:"error,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finishedAt,omitempty"`
}

// Counts returns the number of translated, skipped and failed languages.
func (j TranslationJob) Counts() (translated, skipped, failed int) {
	for _, r := range j.Results {
		switch r.Status {
		case OutcomeTranslated:
			translated++
		case OutcomeSkipped:
			skipped++
		case OutcomeFailed:
			failed++
		}
	}
	return translated, skipped, failed
}
