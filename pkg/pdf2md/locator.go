// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// LoadFunc attempts to load one engine candidate. It returns either an
// Engine, an EngineFunc, or a bare conversion function.
type LoadFunc func(ctx context.Context) (any, error)

// Candidate is one possible location of a conversion engine.
type Candidate struct {
	Name string
	Load LoadFunc
}

// ResolvedEngine is the engine picked by a Locator together with the name
// of the candidate that supplied it.
type ResolvedEngine struct {
	Name   string
	Engine Engine
}

// Locator resolves one working engine from an ordered candidate list.
// Resolution runs at most once; its outcome, success or failure, is kept for
// the lifetime of the Locator.
type Locator struct {
	candidates []Candidate
	logger     *slog.Logger

	once     sync.Once
	done     chan struct{}
	resolved *ResolvedEngine
	failure  *ResolutionFailure
	attempts []Attempt
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithLocatorLogger sets the logger that records each load attempt.
func WithLocatorLogger(l *slog.Logger) LocatorOption {
	return func(loc *Locator) {
		if l != nil {
			loc.logger = l
		}
	}
}

// NewLocator returns a Locator over candidates, tried in the given order.
func NewLocator(candidates []Candidate, opts ...LocatorOption) *Locator {
	l := &Locator{
		candidates: append([]Candidate(nil), candidates...),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Resolve returns the memoised engine, running resolution on first use.
// Concurrent first callers share one in-flight resolution. Resolution is not
// tied to any caller's context; a caller whose ctx ends while waiting gets
// ctx.Err() and resolution carries on for everyone else.
func (l *Locator) Resolve(ctx context.Context) (*ResolvedEngine, error) {
	l.once.Do(func() {
		go l.run()
	})

	select {
	case <-l.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if l.failure != nil {
		return nil, l.failure
	}
	return l.resolved, nil
}

// Resolved reports whether resolution has finished.
func (l *Locator) Resolved() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Attempts returns the failed attempts recorded during resolution, in
// candidate order. It is empty until resolution has finished.
func (l *Locator) Attempts() []Attempt {
	if !l.Resolved() {
		return nil
	}
	return append([]Attempt(nil), l.attempts...)
}

// Candidates returns the candidate names in resolution order.
func (l *Locator) Candidates() []string {
	names := make([]string, len(l.candidates))
	for i, c := range l.candidates {
		names[i] = c.Name
	}
	return names
}

func (l *Locator) run() {
	defer close(l.done)

	ctx := context.Background()
	for _, c := range l.candidates {
		l.logger.Debug("loading engine candidate", "candidate", c.Name)

		engine, err := l.load(ctx, c)
		if err != nil {
			l.logger.Warn("engine candidate failed", "candidate", c.Name, "error", err)
			l.attempts = append(l.attempts, Attempt{Candidate: c.Name, Err: err})
			continue
		}

		l.logger.Info("engine resolved", "candidate", c.Name)
		l.resolved = &ResolvedEngine{Name: c.Name, Engine: engine}
		return
	}

	l.failure = &ResolutionFailure{Attempts: append([]Attempt(nil), l.attempts...)}
}

// load isolates one candidate: an error, a panic, or an unusable value all
// become that candidate's failure.
func (l *Locator) load(ctx context.Context, c Candidate) (engine Engine, err error) {
	defer func() {
		if r := recover(); r != nil {
			engine, err = nil, fmt.Errorf("panic while loading: %v", r)
		}
	}()

	if c.Load == nil {
		return nil, fmt.Errorf("candidate has no loader")
	}
	v, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	return asEngine(v)
}
