// Package timectrl drives simulation time. A TimeController advances the
// clock one tick at a time, in lockstep with the wall clock or as fast as
// the loop can run, and notifies registered listeners on every advance.
package timectrl

import (
	"sync"
	"time"
)

// SimClock is an interface for accessing simulation time. Components that
// only read the clock depend on this rather than the concrete controller.
type SimClock interface {
	// Now returns the current simulation time.
	Now() time.Time
	// After returns a channel that receives the simulation time once the
	// duration d has elapsed in simulation time.
	After(d time.Duration) <-chan time.Time
}

// Mode describes how the TimeController advances simulation time.
type Mode int

const (
	// RealTime advances according to wall-clock time.
	RealTime Mode = iota
	// Accelerated advances as quickly as the loop can run while still stepping by Tick.
	Accelerated
)

// TimeController drives simulation time and notifies registered listeners.
// It implements SimClock.
type TimeController struct {
	mu        sync.RWMutex
	StartTime time.Time
	Tick      time.Duration
	Mode      Mode

	// currentTime tracks the current simulation time. Start resumes from
	// it, so a stopped controller picks up where it paused.
	currentTime time.Time

	listeners []func(time.Time)
	timers    []*simTimer
	stop      chan struct{}
	running   bool
}

type simTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// NewTimeController constructs a controller.
func NewTimeController(start time.Time, tick time.Duration, mode Mode) *TimeController {
	return &TimeController{
		StartTime:   start,
		Tick:        tick,
		Mode:        mode,
		currentTime: start,
	}
}

// Now returns the current simulation time. Implements SimClock.
func (tc *TimeController) Now() time.Time {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.currentTime
}

// SetTime moves the clock without ticking listeners. Pending timers keep
// their original deadlines. Call it only while the controller is stopped.
func (tc *TimeController) SetTime(t time.Time) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.currentTime = t
}

// After returns a channel that receives the simulation time once the
// duration d has elapsed in simulation time. The channel fires on the
// first tick at or past the deadline; a stopped controller never fires it.
// Implements SimClock.
func (tc *TimeController) After(d time.Duration) <-chan time.Time {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	ch := make(chan time.Time, 1)
	tc.timers = append(tc.timers, &simTimer{deadline: tc.currentTime.Add(d), ch: ch})
	return ch
}

// AddListener registers a callback invoked on every tick.
func (tc *TimeController) AddListener(fn func(time.Time)) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.listeners = append(tc.listeners, fn)
}

// Running reports whether a tick loop is live.
func (tc *TimeController) Running() bool {
	tc.mu.RLock()
	defer tc.mu.RUnlock()
	return tc.running
}

// Start runs the tick loop in a separate goroutine, resuming from the
// current simulation time. A positive duration bounds the run in
// simulation time; zero runs until Stop. The returned channel is closed
// when the loop exits. Starting a running controller returns an already
// closed channel.
func (tc *TimeController) Start(duration time.Duration) <-chan struct{} {
	done := make(chan struct{})

	tc.mu.Lock()
	if tc.running {
		tc.mu.Unlock()
		close(done)
		return done
	}
	tc.running = true
	stop := make(chan struct{})
	tc.stop = stop
	simTime := tc.currentTime
	tick := tc.Tick
	mode := tc.Mode
	tc.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			tc.mu.Lock()
			tc.running = false
			tc.stop = nil
			tc.mu.Unlock()
		}()

		var ticker *time.Ticker
		if mode == RealTime {
			ticker = time.NewTicker(tick)
			defer ticker.Stop()
		}

		elapsed := time.Duration(0)
		for {
			if duration > 0 && elapsed >= duration {
				return
			}

			if ticker != nil {
				select {
				case <-stop:
					return
				case <-ticker.C:
				}
			} else {
				select {
				case <-stop:
					return
				default:
				}
			}

			simTime = simTime.Add(tick)
			elapsed += tick
			tc.advance(simTime)
		}
	}()
	return done
}

// Stop halts a running tick loop. The done channel returned by Start
// closes once the loop exits. Stopping an idle controller is a no-op.
func (tc *TimeController) Stop() {
	tc.mu.Lock()
	stop := tc.stop
	tc.stop = nil
	tc.mu.Unlock()

	if stop != nil {
		close(stop)
	}
}

// advance publishes one tick: it updates the clock, fires due timers,
// then notifies listeners outside the lock.
func (tc *TimeController) advance(simTime time.Time) {
	tc.mu.Lock()
	tc.currentTime = simTime

	listeners := make([]func(time.Time), len(tc.listeners))
	copy(listeners, tc.listeners)

	var due []*simTimer
	remaining := tc.timers[:0]
	for _, tm := range tc.timers {
		if tm.deadline.After(simTime) {
			remaining = append(remaining, tm)
		} else {
			due = append(due, tm)
		}
	}
	tc.timers = remaining
	tc.mu.Unlock()

	for _, tm := range due {
		tm.ch <- simTime
	}
	for _, fn := range listeners {
		fn(simTime)
	}
}
