// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package testutil

import (
	"context"
	"errors"
	"sync"
)

// ErrFakeProvider is returned by FakeProvider for languages listed in FailFor.
var ErrFakeProvider = errors.New("fake provider failure")

// FakeProvider is a scripted translation provider. It returns every text
// prefixed with "[<target>] " and records each call.
type FakeProvider struct {
	// FailFor lists target languages that fail.
	FailFor map[string]bool

	mu    sync.Mutex
	calls []FakeCall
}

// FakeCall records one Translate invocation.
type FakeCall struct {
	Source, Target string
	Texts          []string
}

// Name implements the provider interface.
func (p *FakeProvider) Name() string { return "fake" }

// Translate implements the provider interface.
func (p *FakeProvider) Translate(ctx context.Context, texts []string, source, target string) ([]string, error) {
	p.mu.Lock()
	p.calls = append(p.calls, FakeCall{Source: source, Target: target, Texts: append([]string(nil), texts...)})
	p.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.FailFor[target] {
		return nil, ErrFakeProvider
	}
	out := make([]string, len(texts))
	for i, s := range texts {
		out[i] = "[" + target + "] " + s
	}
	return out, nil
}

// Calls returns a copy of the recorded calls.
func (p *FakeProvider) Calls() []FakeCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]FakeCall(nil), p.calls...)
}

// CallCount returns the number of Translate calls.
func (p *FakeProvider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

// Reset clears the recorded calls.
func (p *FakeProvider) Reset() {
	p.mu.Lock()
	p.calls = nil
	p.mu.Unlock()
}
