// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package translate

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/travelcms/internal/model"
	"github.com/olegiv/travelcms/internal/store"
	"github.com/olegiv/travelcms/internal/testutil"
)

func startDispatcher(t *testing.T, db *sql.DB, p Provider) *Dispatcher {
	t.Helper()
	logger := testutil.TestLogger()
	d := NewDispatcher(db, NewTranslator(db, p, logger), logger, Config{
		Workers:      2,
		PollInterval: 10 * time.Millisecond,
	})
	require.NoError(t, d.Start(context.Background()))
	t.Cleanup(d.Stop)
	return d
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestDispatcher_EnqueueAndWait(t *testing.T) {
	db := testutil.TestDB(t)
	fake := &testutil.FakeProvider{}
	d := startDispatcher(t, db, fake)

	testutil.CreateItem(t, db, model.FamilyPackage, "p1", model.StatusPublished,
		testutil.FullFields(model.FamilyPackage, "ID"))

	job, err := d.Enqueue(context.Background(), "package", "p1", false)
	require.NoError(t, err)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.JobQueued, job.Status)

	done, err := d.Wait(waitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, done.Status)
	require.Len(t, done.Results, 4)
	require.NotNil(t, done.StartedAt)
	require.NotNil(t, done.FinishedAt)
	assert.NotEmpty(t, done.Logs)
	assert.Equal(t, 4, fake.CallCount())

	// A second non-forced trigger makes no provider calls.
	fake.Reset()
	again, err := d.Enqueue(context.Background(), "packages", "p1", false)
	require.NoError(t, err)
	done, err = d.Wait(waitCtx(t), again.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobCompleted, done.Status)
	assert.Equal(t, 0, fake.CallCount())
	translated, skipped, failed := done.Counts()
	assert.Equal(t, [3]int{0, 4, 0}, [3]int{translated, skipped, failed})
}

func TestDispatcher_EnqueueValidation(t *testing.T) {
	db := testutil.TestDB(t)
	d := startDispatcher(t, db, &testutil.FakeProvider{})
	ctx := context.Background()

	_, err := d.Enqueue(ctx, "", "x", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = d.Enqueue(ctx, "hotel", "x", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = d.Enqueue(ctx, "blog", "  ", false)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = d.Enqueue(ctx, "blog", "nonexistent", false)
	assert.ErrorIs(t, err, ErrNotFound)

	jobs, err := d.List(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, jobs, "rejected requests create no job")
}

// blockingProvider holds every call until release is closed.
type blockingProvider struct {
	testutil.FakeProvider
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (p *blockingProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	p.once.Do(func() { close(p.started) })
	select {
	case <-p.release:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return p.FakeProvider.Translate(ctx, texts, source, target)
}

func TestDispatcher_InFlightGuard(t *testing.T) {
	db := testutil.TestDB(t)
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	d := startDispatcher(t, db, p)
	ctx := context.Background()

	testutil.CreateItem(t, db, model.FamilyBlog, "b1", model.StatusPublished, testutil.Fields{"title": "Judul"})

	first, err := d.Enqueue(ctx, "blog", "b1", false)
	require.NoError(t, err)
	<-p.started

	_, err = d.Enqueue(ctx, "blog", "b1", true)
	assert.ErrorIs(t, err, ErrConflict)
	assert.Contains(t, err.Error(), first.ID)

	close(p.release)
	done, err := d.Wait(waitCtx(t), first.ID)
	require.NoError(t, err)
	assert.True(t, done.Status.Finished())

	// The item is free again once the job finished.
	next, err := d.Enqueue(ctx, "blog", "b1", true)
	require.NoError(t, err)
	_, err = d.Wait(waitCtx(t), next.ID)
	require.NoError(t, err)
}

func TestDispatcher_StartFailureReleasesItem(t *testing.T) {
	db := testutil.TestDB(t)
	logger := testutil.TestLogger()
	d := NewDispatcher(db, NewTranslator(db, &testutil.FakeProvider{}, logger), logger, Config{})
	q := store.New(db)
	ctx := context.Background()

	testutil.CreateItem(t, db, model.FamilyBlog, "b1", model.StatusPublished, testutil.Fields{"title": "Judul"})
	job := model.TranslationJob{
		ID:        "job-1",
		Family:    model.FamilyBlog,
		ContentID: "b1",
		Status:    model.JobQueued,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, q.CreateJob(ctx, job))

	// The worker cannot even mark the job running.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	d.process(cancelled, job.ID)

	got, err := q.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, got.Status)
	assert.Contains(t, got.Error, "not started")
	require.NotNil(t, got.FinishedAt)

	_, err = q.GetActiveJob(ctx, model.FamilyBlog, "b1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	next := job
	next.ID = "job-2"
	assert.NoError(t, q.CreateJob(ctx, next), "the item is no longer locked")
}

func TestDispatcher_ItemDeletedBeforeRun(t *testing.T) {
	db := testutil.TestDB(t)
	p := &blockingProvider{started: make(chan struct{}), release: make(chan struct{})}
	d := startDispatcher(t, db, p)
	ctx := context.Background()

	testutil.CreateItem(t, db, model.FamilyGallery, "busy", model.StatusPublished, testutil.Fields{"title": "A"})
	testutil.CreateItem(t, db, model.FamilyGallery, "busy2", model.StatusPublished, testutil.Fields{"title": "B"})
	testutil.CreateItem(t, db, model.FamilyGallery, "gone", model.StatusPublished, testutil.Fields{"title": "C"})

	// Occupy both workers so the third job stays queued.
	_, err := d.Enqueue(ctx, "gallery", "busy", false)
	require.NoError(t, err)
	_, err = d.Enqueue(ctx, "gallery", "busy2", false)
	require.NoError(t, err)
	<-p.started

	job, err := d.Enqueue(ctx, "gallery", "gone", false)
	require.NoError(t, err)
	require.NoError(t, store.New(db).DeleteItem(ctx, model.MustSchema(model.FamilyGallery), "gone"))

	close(p.release)
	done, err := d.Wait(waitCtx(t), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, done.Status)
	assert.Contains(t, done.Error, "not found")
}

func TestDispatcher_StartFailsAbandonedJobs(t *testing.T) {
	db := testutil.TestDB(t)
	q := store.New(db)
	ctx := context.Background()

	require.NoError(t, q.CreateJob(ctx, model.TranslationJob{
		ID: "stale", Family: model.FamilyBlog, ContentID: "b1",
		Status: model.JobQueued, CreatedAt: time.Now().UTC(),
	}))

	d := startDispatcher(t, db, &testutil.FakeProvider{})

	job, err := d.Get(ctx, "stale")
	require.NoError(t, err)
	assert.Equal(t, model.JobFailed, job.Status)
	assert.NotEmpty(t, job.Error)

	_, err = d.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = d.Wait(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDispatcher_NotRunning(t *testing.T) {
	db := testutil.TestDB(t)
	logger := testutil.TestLogger()
	d := NewDispatcher(db, NewTranslator(db, &testutil.FakeProvider{}, logger), logger, DefaultConfig())

	testutil.CreateItem(t, db, model.FamilyBlog, "b1", model.StatusPublished, testutil.Fields{"title": "x"})
	_, err := d.Enqueue(context.Background(), "blog", "b1", false)
	assert.ErrorIs(t, err, ErrNotRunning)

	d.Stop() // no-op when not started
}

func TestDispatcher_PruneFinished(t *testing.T) {
	db := testutil.TestDB(t)
	d := startDispatcher(t, db, &testutil.FakeProvider{})
	ctx := context.Background()

	testutil.CreateItem(t, db, model.FamilySection, "s1", model.StatusPublished, testutil.Fields{"title": "x"})
	job, err := d.Enqueue(ctx, "section", "s1", false)
	require.NoError(t, err)
	_, err = d.Wait(waitCtx(t), job.ID)
	require.NoError(t, err)

	n, err := d.PruneFinished(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = d.PruneFinished(ctx, -time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, "fake", d.ProviderName())
}
