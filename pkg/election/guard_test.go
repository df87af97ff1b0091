package election

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGuardElector(t *testing.T, leading bool) *Elector {
	t.Helper()
	e := newTestElector(t, newTestStore(t, 400*time.Millisecond), "p1", Config{})
	e.isLeader.Store(leading)
	return e
}

func TestAsLeaderRejectsWhenNotLeader(t *testing.T) {
	e := newGuardElector(t, false)

	called := false
	err := e.AsLeader(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.ErrorIs(t, err, ErrNotLeader)
	assert.False(t, called, "guarded function must not run without leadership")
}

func TestAsLeaderRunsWhenLeader(t *testing.T) {
	e := newGuardElector(t, true)

	called := false
	err := e.AsLeader(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
}

func TestAsLeaderPropagatesFunctionError(t *testing.T) {
	e := newGuardElector(t, true)

	boom := errors.New("work failed")
	err := e.AsLeader(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotLeader)
}

func TestLeaderOnlyEvaluatesAtCallTime(t *testing.T) {
	e := newGuardElector(t, false)

	calls := 0
	guarded := e.LeaderOnly(func(context.Context) error {
		calls++
		return nil
	})

	// Wrapping while not leader must not freeze the decision.
	require.ErrorIs(t, guarded(context.Background()), ErrNotLeader)
	assert.Zero(t, calls)

	e.isLeader.Store(true)
	require.NoError(t, guarded(context.Background()))
	assert.Equal(t, 1, calls)

	e.isLeader.Store(false)
	require.ErrorIs(t, guarded(context.Background()), ErrNotLeader)
	assert.Equal(t, 1, calls)
}
