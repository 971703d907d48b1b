package store

import (
	"github.com/yourusername/skyline/internal/platform"
)

// AppRecord is one tracked application. Both handles are exclusively
// owned once stored and released on removal.
type AppRecord struct {
	PID       platform.PID
	Name      string
	Handle    platform.Handle
	Observer  platform.Handle
	Observing bool
}

// Apps tracks running applications by pid.
type Apps struct {
	byPID map[platform.PID]*AppRecord
}

// NewApps creates an empty application collection.
func NewApps() *Apps {
	return &Apps{byPID: make(map[platform.PID]*AppRecord)}
}

// Len returns the number of tracked applications.
func (as *Apps) Len() int {
	return len(as.byPID)
}

// Get returns an app record, or nil.
func (as *Apps) Get(pid platform.PID) *AppRecord {
	return as.byPID[pid]
}

// Has reports whether the pid is tracked.
func (as *Apps) Has(pid platform.PID) bool {
	_, ok := as.byPID[pid]
	return ok
}

// Add inserts an app. An already-tracked pid keeps its record and the
// incoming handles are released.
func (as *Apps) Add(rec *AppRecord) bool {
	if _, ok := as.byPID[rec.PID]; ok {
		if rec.Handle != nil {
			rec.Handle.Release()
		}
		if rec.Observer != nil {
			rec.Observer.Release()
		}
		return false
	}
	as.byPID[rec.PID] = rec
	return true
}

// Remove drops an app and releases its handles.
func (as *Apps) Remove(pid platform.PID) *AppRecord {
	rec, ok := as.byPID[pid]
	if !ok {
		return nil
	}
	delete(as.byPID, pid)
	if rec.Handle != nil {
		rec.Handle.Release()
		rec.Handle = nil
	}
	if rec.Observer != nil {
		rec.Observer.Release()
		rec.Observer = nil
	}
	return rec
}

// Iter calls fn for every tracked app until fn returns false.
func (as *Apps) Iter(fn func(*AppRecord) bool) {
	for _, rec := range as.byPID {
		if !fn(rec) {
			return
		}
	}
}

// PIDs returns every tracked pid, unordered.
func (as *Apps) PIDs() []platform.PID {
	out := make([]platform.PID, 0, len(as.byPID))
	for pid := range as.byPID {
		out = append(out, pid)
	}
	return out
}
