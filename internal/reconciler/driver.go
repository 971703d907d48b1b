package reconciler

import (
	"time"

	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
)

const (
	// tickTimeout is the loop's blocking wait; the loop wakes at
	// least once a second even with no events.
	tickTimeout = 1 * time.Second

	// quiescenceDelay lets in-flight callbacks observe ShuttingDown
	// before resources are torn down.
	quiescenceDelay = 50 * time.Millisecond
)

// Driver integrates the reconciler with the host run loop: it wakes
// per event, per submitted command and per 1 s tick, runs one settle
// pass per wake, and runs periodic validation from the idle path.
type Driver struct {
	R *Reconciler

	commands chan func()
}

// NewDriver wires a driver to a reconciler, installing the deferred
// second-pass scheduler.
func NewDriver(r *Reconciler) *Driver {
	d := &Driver{
		R:        r,
		commands: make(chan func(), 64),
	}
	r.SchedulePass = func(space platform.SpaceID) {
		time.AfterFunc(secondPassDelay, func() {
			d.Submit(func() {
				r.LayoutSpace(space)
			})
		})
	}
	return d
}

// Submit queues fn for execution on the loop thread. Safe from any
// goroutine; dropped silently during shutdown.
func (d *Driver) Submit(fn func()) {
	if d.R.ShuttingDown.Load() {
		return
	}
	select {
	case d.commands <- fn:
	default:
		logging.Warn().Msg("loop command queue full, dropping")
	}
}

// Call runs fn on the loop thread and waits for it to finish. Used by
// the IPC server so command handlers share the reconciler's mutation
// paths.
func (d *Driver) Call(fn func()) {
	done := make(chan struct{})
	d.Submit(func() {
		defer close(done)
		fn()
	})
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logging.Error().Msg("loop call timed out")
	}
}

// Run drives the loop until Running is cleared.
func (d *Driver) Run() {
	d.run(0)
}

// RunWithTimeout drives the loop for at most the given duration,
// checking elapsed time each tick. Used by tests.
func (d *Driver) RunWithTimeout(timeout time.Duration) {
	d.run(timeout)
}

func (d *Driver) run(timeout time.Duration) {
	r := d.R
	r.Running.Store(true)
	start := time.Now()

	events := r.Adapter.Events()
	ticker := time.NewTicker(tickTimeout)
	defer ticker.Stop()

	for r.Running.Load() {
		if timeout > 0 && time.Since(start) >= timeout {
			break
		}

		idle := false
		select {
		case ev := <-events:
			r.HandleEvent(ev, time.Now())
			d.drainEvents(events)
		case fn := <-d.commands:
			fn()
		case <-ticker.C:
			idle = true
		}

		now := time.Now()
		r.Tick(now)
		if idle {
			r.PeriodicValidation(now)
		}
	}
}

// drainEvents consumes whatever burst is already queued so one settle
// pass covers it.
func (d *Driver) drainEvents(events <-chan platform.Event) {
	for {
		select {
		case ev := <-events:
			d.R.HandleEvent(ev, time.Now())
		default:
			return
		}
	}
}

// Stop initiates teardown: callbacks are told to return early, a
// short quiescence window passes, then the loop exits.
func (d *Driver) Stop() {
	d.R.ShuttingDown.Store(true)
	time.Sleep(quiescenceDelay)
	d.R.Running.Store(false)
}
