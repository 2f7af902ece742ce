package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lox/stakeledger/internal/game"
)

// recordingStore wraps a Memory store and records every save attempt.
type recordingStore struct {
	*Memory

	mu    sync.Mutex
	saves []Session
	fail  error
}

func (r *recordingStore) Save(ctx context.Context, s Session) (Session, error) {
	r.mu.Lock()
	r.saves = append(r.saves, s.Clone())
	fail := r.fail
	r.mu.Unlock()
	if fail != nil {
		return Session{}, fail
	}
	return r.Memory.Save(ctx, s)
}

func (r *recordingStore) attempts() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Session(nil), r.saves...)
}

func newDebounceFixture(t *testing.T) (*quartz.Mock, *recordingStore, *Debouncer) {
	t.Helper()
	clock := quartz.NewMock(t)
	rs := &recordingStore{Memory: NewMemory(WithClock(clock))}
	d := NewDebouncer(rs, quietLogger(), DebounceConfig{Delay: 2 * time.Second, Clock: clock})
	return clock, rs, d
}

func TestDebouncerCoalescesBursts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock, rs, d := newDebounceFixture(t)

	for i, name := range []string{"one", "two", "three"} {
		s := sampleSession("acct")
		s.SessionName = name
		d.Schedule(s)
		if i < 2 {
			clock.Advance(time.Second).MustWait(ctx)
		}
	}
	assert.Empty(t, rs.attempts(), "no save before the delay passes")
	assert.True(t, d.Pending())

	clock.Advance(2 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(rs.attempts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "three", rs.attempts()[0].SessionName)
	assert.False(t, d.Pending())
}

func TestDebouncerReusesAssignedID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock, rs, d := newDebounceFixture(t)

	var mu sync.Mutex
	var savedIDs []string
	d.cfg.OnSaved = func(s Session) {
		mu.Lock()
		defer mu.Unlock()
		savedIDs = append(savedIDs, s.ID)
	}

	d.Schedule(sampleSession("acct"))
	clock.Advance(2 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(rs.attempts()) == 1 }, time.Second, 5*time.Millisecond)

	// The caller has not learned the id yet and schedules without one.
	d.Schedule(sampleSession("acct"))
	clock.Advance(2 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(rs.attempts()) == 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, savedIDs, 2)
	assert.Equal(t, savedIDs[0], savedIDs[1])

	list, err := rs.List(ctx, "acct", game.Pot)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestDebouncerFailureIsNotRetried(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clock, rs, d := newDebounceFixture(t)
	rs.fail = errors.New("disk full")

	d.Schedule(sampleSession("acct"))
	clock.Advance(2 * time.Second).MustWait(ctx)
	require.Eventually(t, func() bool { return len(rs.attempts()) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, d.Pending(), "a failed save is dropped")

	clock.Advance(10 * time.Second).MustWait(ctx)
	assert.Len(t, rs.attempts(), 1)
}

func TestDebouncerFlush(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, rs, d := newDebounceFixture(t)

	require.NoError(t, d.Flush(ctx), "flushing with nothing pending is a no-op")
	assert.Empty(t, rs.attempts())

	d.Schedule(sampleSession("acct"))
	require.NoError(t, d.Flush(ctx))
	assert.Len(t, rs.attempts(), 1)
	assert.False(t, d.Pending())
}

func TestDebouncerCloseFlushesAndStops(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, rs, d := newDebounceFixture(t)

	d.Schedule(sampleSession("acct"))
	require.NoError(t, d.Close(ctx))
	assert.Len(t, rs.attempts(), 1)

	d.Schedule(sampleSession("acct"))
	assert.False(t, d.Pending())
}

func TestDebouncerFlushReportsError(t *testing.T) {
	t.Parallel()
	_, rs, d := newDebounceFixture(t)
	rs.fail = errors.New("offline")

	d.Schedule(sampleSession("acct"))
	assert.EqualError(t, d.Flush(context.Background()), "offline")
}
