package match

import (
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// CountdownConfig describes one owner-keyed countdown.
type CountdownConfig struct {
	// Seconds is the starting value of the counter.
	Seconds int
	// LowTimeAt tags OnTick notifications once the counter falls to or
	// below this value.
	LowTimeAt int
	// OnTick runs once per elapsed second while the countdown is live.
	OnTick func(remaining int, lowTime bool)
	// OnExpire runs exactly once, when the counter reaches zero.
	OnExpire func()
}

// countdown is the live state of one timer. Ticks are armed one second at a
// time; a tick that arrives after the owner was cancelled or replaced finds
// itself stale and does nothing.
type countdown struct {
	owner     string
	remaining int
	cfg       CountdownConfig
}

// TimerRegistry schedules cancellable countdowns keyed by an owner id, one
// per owner (a session id or a participant id). Ticks and expiries execute
// as engine steps via the dispatch function, so every callback runs on the
// engine loop.
type TimerRegistry struct {
	clock    clockwork.Clock
	dispatch func(func())
	active   map[string]*countdown
}

// NewTimerRegistry creates a registry whose callbacks run through dispatch.
func NewTimerRegistry(clock clockwork.Clock, dispatch func(func())) *TimerRegistry {
	return &TimerRegistry{
		clock:    clock,
		dispatch: dispatch,
		active:   make(map[string]*countdown),
	}
}

// Start installs a countdown for owner, first cancelling any countdown the
// owner already has.
func (r *TimerRegistry) Start(owner string, cfg CountdownConfig) {
	r.Cancel(owner)

	cd := &countdown{owner: owner, remaining: cfg.Seconds, cfg: cfg}
	r.active[owner] = cd
	r.arm(cd)

	log.Debug().Str("owner", owner).Int("seconds", cfg.Seconds).Msg("countdown started")
}

// Cancel removes the owner's countdown. Cancelling an unknown or already
// expired owner is a no-op; the expiry callback never fires after Cancel.
func (r *TimerRegistry) Cancel(owner string) {
	if _, ok := r.active[owner]; ok {
		delete(r.active, owner)
		log.Debug().Str("owner", owner).Msg("countdown cancelled")
	}
}

// Remaining returns the seconds left on the owner's countdown, if one runs.
func (r *TimerRegistry) Remaining(owner string) (int, bool) {
	cd, ok := r.active[owner]
	if !ok {
		return 0, false
	}
	return cd.remaining, true
}

func (r *TimerRegistry) arm(cd *countdown) {
	r.clock.AfterFunc(time.Second, func() {
		r.dispatch(func() { r.tick(cd) })
	})
}

func (r *TimerRegistry) tick(cd *countdown) {
	if r.active[cd.owner] != cd {
		// Cancelled or replaced between arming and firing.
		return
	}

	cd.remaining--
	if cd.remaining <= 0 {
		delete(r.active, cd.owner)
		cd.cfg.OnExpire()
		return
	}

	if cd.cfg.OnTick != nil {
		cd.cfg.OnTick(cd.remaining, cd.remaining <= cd.cfg.LowTimeAt)
	}
	r.arm(cd)
}
