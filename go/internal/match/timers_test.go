package match

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tickRecord captures one OnTick callback.
type tickRecord struct {
	remaining int
	lowTime   bool
}

// newTestRegistry builds a registry whose dispatch hands steps to the test
// goroutine through a channel. The fake clock fires AfterFunc callbacks on
// their own goroutine, so the advance helper drains the channel after every
// advance; executing the steps here keeps all countdown state on a single
// goroutine, same as the engine loop does in production.
func newTestRegistry(t *testing.T) (*TimerRegistry, *clockwork.FakeClock, func(seconds int)) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	steps := make(chan func(), 64)
	reg := NewTimerRegistry(clock, func(step func()) { steps <- step })
	advance := func(seconds int) {
		for i := 0; i < seconds; i++ {
			clock.Advance(time.Second)
			for {
				select {
				case step := <-steps:
					step()
					continue
				case <-time.After(5 * time.Millisecond):
				}
				break
			}
		}
	}
	return reg, clock, advance
}

func TestTimerRegistry_CountsDownAndExpiresOnce(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	var ticks []tickRecord
	expired := 0
	reg.Start("owner", CountdownConfig{
		Seconds:   3,
		LowTimeAt: 0,
		OnTick: func(remaining int, lowTime bool) {
			ticks = append(ticks, tickRecord{remaining, lowTime})
		},
		OnExpire: func() { expired++ },
	})

	advance(2)
	require.Len(t, ticks, 2)
	assert.Equal(t, 2, ticks[0].remaining)
	assert.Equal(t, 1, ticks[1].remaining)
	assert.Zero(t, expired)

	advance(1)
	assert.Equal(t, 1, expired)
	assert.Len(t, ticks, 2, "expiry should not emit a tick")

	// Nothing left to fire.
	advance(3)
	assert.Equal(t, 1, expired)
	assert.Len(t, ticks, 2)
}

func TestTimerRegistry_LowTimeTagging(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	var ticks []tickRecord
	reg.Start("owner", CountdownConfig{
		Seconds:   5,
		LowTimeAt: 3,
		OnTick: func(remaining int, lowTime bool) {
			ticks = append(ticks, tickRecord{remaining, lowTime})
		},
		OnExpire: func() {},
	})

	advance(4)
	require.Len(t, ticks, 4)
	assert.Equal(t, []tickRecord{
		{4, false},
		{3, true},
		{2, true},
		{1, true},
	}, ticks)
}

func TestTimerRegistry_CancelStopsTicks(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	ticks := 0
	expired := 0
	reg.Start("owner", CountdownConfig{
		Seconds:  10,
		OnTick:   func(int, bool) { ticks++ },
		OnExpire: func() { expired++ },
	})

	advance(2)
	require.Equal(t, 2, ticks)

	reg.Cancel("owner")
	advance(10)
	assert.Equal(t, 2, ticks)
	assert.Zero(t, expired)

	// Cancel is idempotent, including for unknown owners.
	reg.Cancel("owner")
	reg.Cancel("stranger")
}

func TestTimerRegistry_CancelAfterExpiryIsNoOp(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	expired := 0
	reg.Start("owner", CountdownConfig{
		Seconds:  1,
		OnExpire: func() { expired++ },
	})

	advance(1)
	require.Equal(t, 1, expired)
	reg.Cancel("owner")
	advance(2)
	assert.Equal(t, 1, expired)
}

func TestTimerRegistry_StartReplacesExisting(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	firstExpired := 0
	secondExpired := 0
	reg.Start("owner", CountdownConfig{
		Seconds:  2,
		OnExpire: func() { firstExpired++ },
	})
	reg.Start("owner", CountdownConfig{
		Seconds:  5,
		OnExpire: func() { secondExpired++ },
	})

	advance(4)
	assert.Zero(t, firstExpired, "replaced countdown must never fire")
	assert.Zero(t, secondExpired)

	advance(1)
	assert.Zero(t, firstExpired)
	assert.Equal(t, 1, secondExpired)
}

func TestTimerRegistry_Remaining(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	reg.Start("owner", CountdownConfig{Seconds: 7, OnExpire: func() {}})
	remaining, ok := reg.Remaining("owner")
	require.True(t, ok)
	assert.Equal(t, 7, remaining)

	advance(3)
	remaining, ok = reg.Remaining("owner")
	require.True(t, ok)
	assert.Equal(t, 4, remaining)

	reg.Cancel("owner")
	_, ok = reg.Remaining("owner")
	assert.False(t, ok)
	_, ok = reg.Remaining("stranger")
	assert.False(t, ok)
}

func TestTimerRegistry_IndependentOwners(t *testing.T) {
	reg, _, advance := newTestRegistry(t)

	aExpired := 0
	bTicks := 0
	reg.Start("a", CountdownConfig{Seconds: 2, OnExpire: func() { aExpired++ }})
	reg.Start("b", CountdownConfig{
		Seconds:  10,
		OnTick:   func(int, bool) { bTicks++ },
		OnExpire: func() {},
	})

	advance(2)
	assert.Equal(t, 1, aExpired)
	assert.Equal(t, 2, bTicks)

	reg.Cancel("b")
	advance(3)
	assert.Equal(t, 2, bTicks)
}
