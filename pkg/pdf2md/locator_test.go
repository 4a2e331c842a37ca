// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdf2md

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/pdf2md/pkg/types"
)

// stubEngine returns a fixed text or error.
type stubEngine struct {
	text string
	err  error
}

func (s stubEngine) Convert(context.Context, []byte, types.ConversionOptions) (string, error) {
	return s.text, s.err
}

// countingCandidate counts how many times its loader runs.
func countingCandidate(name string, calls *int32, v any, err error) Candidate {
	return Candidate{
		Name: name,
		Load: func(context.Context) (any, error) {
			atomic.AddInt32(calls, 1)
			return v, err
		},
	}
}

func TestLocator_FirstMatchWins(t *testing.T) {
	var a, b, c int32
	loc := NewLocator([]Candidate{
		countingCandidate("A", &a, nil, errors.New("A missing")),
		countingCandidate("B", &b, stubEngine{text: "from B"}, nil),
		countingCandidate("C", &c, stubEngine{text: "from C"}, nil),
	})

	r, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "B", r.Name)

	out, err := r.Engine.Convert(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "from B", out)

	assert.Equal(t, int32(1), atomic.LoadInt32(&a))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b))
	assert.Equal(t, int32(0), atomic.LoadInt32(&c), "candidates after the first success must never load")

	attempts := loc.Attempts()
	require.Len(t, attempts, 1)
	assert.Equal(t, "A", attempts[0].Candidate)
}

func TestLocator_AllFailRecordsEveryCause(t *testing.T) {
	errA, errB, errC := errors.New("A-cause"), errors.New("B-cause"), errors.New("C-cause")
	var n int32
	loc := NewLocator([]Candidate{
		countingCandidate("A", &n, nil, errA),
		countingCandidate("B", &n, nil, errB),
		countingCandidate("C", &n, nil, errC),
	})

	_, err := loc.Resolve(context.Background())
	require.Error(t, err)

	var failure *ResolutionFailure
	require.ErrorAs(t, err, &failure)
	require.Len(t, failure.Attempts, 3)
	assert.Equal(t, []string{"A", "B", "C"}, []string{
		failure.Attempts[0].Candidate, failure.Attempts[1].Candidate, failure.Attempts[2].Candidate,
	})
	assert.Equal(t, []error{errA, errB, errC}, failure.Unwrap())

	assert.ErrorIs(t, err, ErrResolution)
	assert.ErrorIs(t, err, errB)
	assert.Contains(t, err.Error(), "A: A-cause; B: B-cause; C: C-cause")
}

func TestLocator_IsolatesPanicsAndBadShapes(t *testing.T) {
	loc := NewLocator([]Candidate{
		{Name: "panics", Load: func(context.Context) (any, error) { panic("boom") }},
		{Name: "wrong-shape", Load: func(context.Context) (any, error) { return 42, nil }},
		{Name: "nil-value", Load: func(context.Context) (any, error) { return nil, nil }},
		{Name: "no-loader"},
		{Name: "works", Load: func(context.Context) (any, error) {
			return func(context.Context, []byte, types.ConversionOptions) (string, error) { return "ok", nil }, nil
		}},
	})

	r, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "works", r.Name)

	attempts := loc.Attempts()
	require.Len(t, attempts, 4)
	assert.Contains(t, attempts[0].Err.Error(), "panic while loading: boom")
	assert.Contains(t, attempts[1].Err.Error(), "int")
	assert.ErrorIs(t, attempts[1].Err, errNoConvertFunc)
	assert.ErrorIs(t, attempts[2].Err, errNoConvertFunc)
	assert.Contains(t, attempts[3].Err.Error(), "no loader")
}

func TestLocator_EmptyCandidateList(t *testing.T) {
	_, err := NewLocator(nil).Resolve(context.Background())
	var failure *ResolutionFailure
	require.ErrorAs(t, err, &failure)
	assert.Empty(t, failure.Attempts)
	assert.Contains(t, err.Error(), "no engine candidates configured")
}

func TestLocator_ConcurrentFirstCallsResolveOnce(t *testing.T) {
	release := make(chan struct{})
	var a, b int32
	loc := NewLocator([]Candidate{
		{Name: "A", Load: func(context.Context) (any, error) {
			atomic.AddInt32(&a, 1)
			<-release
			return nil, errors.New("A missing")
		}},
		countingCandidate("B", &b, stubEngine{text: "ok"}, nil),
	})

	const callers = 32
	var wg sync.WaitGroup
	names := make([]string, callers)
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := loc.Resolve(context.Background())
			if err == nil {
				names[i] = r.Name
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&a))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b))
	for _, n := range names {
		assert.Equal(t, "B", n)
	}
}

func TestLocator_FailureIsMemoised(t *testing.T) {
	var n int32
	loc := NewLocator([]Candidate{countingCandidate("A", &n, nil, errors.New("missing"))})

	_, err1 := loc.Resolve(context.Background())
	_, err2 := loc.Resolve(context.Background())
	require.Error(t, err1)
	assert.Same(t, err1, err2)
	assert.Equal(t, int32(1), atomic.LoadInt32(&n))
}

func TestLocator_WaiterCancellationDoesNotPoisonResult(t *testing.T) {
	release := make(chan struct{})
	loc := NewLocator([]Candidate{{Name: "slow", Load: func(context.Context) (any, error) {
		<-release
		return stubEngine{text: "ok"}, nil
	}}})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := loc.Resolve(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, loc.Resolved())

	close(release)
	r, err := loc.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "slow", r.Name)
	assert.True(t, loc.Resolved())
}

func TestLocator_Candidates(t *testing.T) {
	loc := NewLocator([]Candidate{{Name: "markitdown"}, {Name: "builtin"}})
	assert.Equal(t, []string{"markitdown", "builtin"}, loc.Candidates())
	assert.Nil(t, loc.Attempts(), "attempts are unknown before resolution")
}
