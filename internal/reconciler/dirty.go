package reconciler

import (
	"sync/atomic"

	"github.com/yourusername/skyline/internal/platform"
)

// Flag is one bit of the dirty set.
type Flag uint32

const (
	// Layout group
	FlagLayoutCurrent Flag = 1 << iota
	FlagLayoutAll
	FlagRebuildView

	// Sync group
	FlagScanApps
	FlagSyncSpaces
	FlagSyncConfig

	// Validation group
	FlagValidateState
	FlagRefreshWindowSpaces

	// App-event group
	FlagAppsLaunched
	FlagAppsTerminated
	FlagAppFocusChanged
	FlagAppsHidden
	FlagAppsShown

	// Window-event group
	FlagWindowsCreated
	FlagWindowsMoved
	FlagSpaceChanged
)

// DirtyFlags is a bit-packed flag set. Writers may run off the loop
// thread, so the bits live behind an atomic.
type DirtyFlags struct {
	bits atomic.Uint32
}

// Set turns flags on.
func (d *DirtyFlags) Set(f Flag) {
	for {
		old := d.bits.Load()
		if d.bits.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Has reports whether any of the given flags are set.
func (d *DirtyFlags) Has(f Flag) bool {
	return d.bits.Load()&uint32(f) != 0
}

// Any reports whether any flag at all is set.
func (d *DirtyFlags) Any() bool {
	return d.bits.Load() != 0
}

// Clear turns flags off.
func (d *DirtyFlags) Clear(f Flag) {
	for {
		old := d.bits.Load()
		if d.bits.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Reset clears every flag.
func (d *DirtyFlags) Reset() {
	d.bits.Store(0)
}

const (
	dirtySpaceCap = 16
	pidQueueCap   = 32
)

// DirtySpaces is a fixed-capacity dedup set of spaces needing layout.
// Overflow is ignored: the capacity is sized so hitting it implies
// pathological input, and the next layout_all sweep recovers.
type DirtySpaces struct {
	ids [dirtySpaceCap]platform.SpaceID
	n   int
}

// Push inserts a space id, deduplicating.
func (d *DirtySpaces) Push(id platform.SpaceID) {
	for i := 0; i < d.n; i++ {
		if d.ids[i] == id {
			return
		}
	}
	if d.n == dirtySpaceCap {
		return
	}
	d.ids[d.n] = id
	d.n++
}

// Len returns the number of pending spaces.
func (d *DirtySpaces) Len() int { return d.n }

// Drain returns the pending spaces and empties the set.
func (d *DirtySpaces) Drain() []platform.SpaceID {
	out := make([]platform.SpaceID, d.n)
	copy(out, d.ids[:d.n])
	d.n = 0
	return out
}

// pendingWindow is one queued window event. info is kept when the
// host delivered the full description with the callback, sparing an
// enumeration later.
type pendingWindow struct {
	id   platform.WindowID
	pid  platform.PID
	info *platform.WindowInfo
}

// WindowQueue is a fixed-capacity dedup queue of pending window
// events, keyed by window id. Overflow is ignored like the PID
// queues; a later scan pass recovers anything dropped.
type WindowQueue struct {
	entries [pidQueueCap]pendingWindow
	n       int
}

// Push enqueues a window event, deduplicating by id.
func (q *WindowQueue) Push(entry pendingWindow) {
	for i := 0; i < q.n; i++ {
		if q.entries[i].id == entry.id {
			if entry.info != nil {
				q.entries[i].info = entry.info
			}
			return
		}
	}
	if q.n == pidQueueCap {
		return
	}
	q.entries[q.n] = entry
	q.n++
}

// Len returns the queue length.
func (q *WindowQueue) Len() int { return q.n }

// Drain returns the queued entries in push order and empties the
// queue.
func (q *WindowQueue) Drain() []pendingWindow {
	out := make([]pendingWindow, q.n)
	copy(out, q.entries[:q.n])
	q.n = 0
	return out
}

// PIDQueue is a fixed-capacity dedup queue of process ids pending one
// kind of app event.
type PIDQueue struct {
	pids [pidQueueCap]platform.PID
	n    int
}

// Push enqueues a pid, deduplicating and ignoring overflow.
func (q *PIDQueue) Push(pid platform.PID) {
	for i := 0; i < q.n; i++ {
		if q.pids[i] == pid {
			return
		}
	}
	if q.n == pidQueueCap {
		return
	}
	q.pids[q.n] = pid
	q.n++
}

// Len returns the queue length.
func (q *PIDQueue) Len() int { return q.n }

// Drain returns the queued pids in push order and empties the queue.
func (q *PIDQueue) Drain() []platform.PID {
	out := make([]platform.PID, q.n)
	copy(out, q.pids[:q.n])
	q.n = 0
	return out
}
