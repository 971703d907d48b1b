package store

import (
	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
)

// Flag identifies a toggleable window attribute.
type Flag int

const (
	FlagFloating Flag = iota
	FlagSticky
	FlagShadow
	FlagMinimized
	FlagHidden
)

// WindowRecord is the daemon's view of one tracked window.
// Space is the space the daemon believes the window lives on; the
// platform is the authority and disagreements are resolved by the
// refresh step of the reconciler.
type WindowRecord struct {
	ID      platform.WindowID
	PID     platform.PID
	Space   platform.SpaceID
	App     string
	Title   string
	Role    string
	Subrole string
	Level   int
	Frame   geometry.Rect
	Handle  platform.Handle

	Floating  bool
	Sticky    bool
	Shadow    bool
	Minimized bool
	Hidden    bool

	Opacity float64
	Layer   int
}

// Tileable reports whether the window participates in layout.
func (w *WindowRecord) Tileable() bool {
	return !w.Floating && !w.Sticky && !w.Minimized && !w.Hidden
}

// Windows is the primary window collection: id → record, with
// secondary indices by owning pid and by space. The by-space bucket
// order is the tiling order.
type Windows struct {
	byID    map[platform.WindowID]*WindowRecord
	byPID   map[platform.PID]map[platform.WindowID]struct{}
	bySpace map[platform.SpaceID][]platform.WindowID
}

// NewWindows creates an empty window collection.
func NewWindows() *Windows {
	return &Windows{
		byID:    make(map[platform.WindowID]*WindowRecord),
		byPID:   make(map[platform.PID]map[platform.WindowID]struct{}),
		bySpace: make(map[platform.SpaceID][]platform.WindowID),
	}
}

// Len returns the number of tracked windows.
func (ws *Windows) Len() int {
	return len(ws.byID)
}

// Get returns a window record, or nil when untracked.
func (ws *Windows) Get(id platform.WindowID) *WindowRecord {
	return ws.byID[id]
}

// Has reports whether the window is tracked.
func (ws *Windows) Has(id platform.WindowID) bool {
	_, ok := ws.byID[id]
	return ok
}

// Add inserts a window and updates both secondary indices. A window
// that is already tracked keeps its record; the handle passed in is
// released since the stored one stays authoritative.
func (ws *Windows) Add(w *WindowRecord) bool {
	if _, ok := ws.byID[w.ID]; ok {
		if w.Handle != nil {
			w.Handle.Release()
		}
		return false
	}

	ws.byID[w.ID] = w

	set, ok := ws.byPID[w.PID]
	if !ok {
		set = make(map[platform.WindowID]struct{})
		ws.byPID[w.PID] = set
	}
	set[w.ID] = struct{}{}

	ws.bySpace[w.Space] = append(ws.bySpace[w.Space], w.ID)
	return true
}

// Remove drops a window from all indices and releases its handle.
func (ws *Windows) Remove(id platform.WindowID) *WindowRecord {
	w, ok := ws.byID[id]
	if !ok {
		return nil
	}

	delete(ws.byID, id)

	if set, ok := ws.byPID[w.PID]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(ws.byPID, w.PID)
		}
	}

	ws.removeFromSpace(id, w.Space)

	if w.Handle != nil {
		w.Handle.Release()
		w.Handle = nil
	}
	return w
}

// RemoveAllForPID drops every window owned by pid, returning the
// removed records.
func (ws *Windows) RemoveAllForPID(pid platform.PID) []*WindowRecord {
	set, ok := ws.byPID[pid]
	if !ok {
		return nil
	}

	ids := make([]platform.WindowID, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}

	var removed []*WindowRecord
	for _, id := range ids {
		if w := ws.Remove(id); w != nil {
			removed = append(removed, w)
		}
	}
	return removed
}

// SetSpace moves a window between by-space buckets atomically and
// updates the record. Appends to the new bucket's tail.
func (ws *Windows) SetSpace(id platform.WindowID, space platform.SpaceID) bool {
	w, ok := ws.byID[id]
	if !ok {
		return false
	}
	if w.Space == space {
		return true
	}

	ws.removeFromSpace(id, w.Space)
	w.Space = space
	ws.bySpace[space] = append(ws.bySpace[space], id)
	return true
}

// SetFlag flips one flag on a window.
func (ws *Windows) SetFlag(id platform.WindowID, flag Flag, value bool) bool {
	w, ok := ws.byID[id]
	if !ok {
		return false
	}
	switch flag {
	case FlagFloating:
		w.Floating = value
	case FlagSticky:
		w.Sticky = value
	case FlagShadow:
		w.Shadow = value
	case FlagMinimized:
		w.Minimized = value
	case FlagHidden:
		w.Hidden = value
	}
	return true
}

// SwapOrder exchanges the positions of two windows in their shared
// by-space bucket. All other ids keep their relative positions.
func (ws *Windows) SwapOrder(a, b platform.WindowID) bool {
	wa, wb := ws.byID[a], ws.byID[b]
	if wa == nil || wb == nil || wa.Space != wb.Space {
		return false
	}

	bucket := ws.bySpace[wa.Space]
	ia, ib := -1, -1
	for i, id := range bucket {
		if id == a {
			ia = i
		}
		if id == b {
			ib = i
		}
	}
	if ia < 0 || ib < 0 {
		return false
	}

	bucket[ia], bucket[ib] = bucket[ib], bucket[ia]
	return true
}

// ForSpace returns the ordered window ids on a space (copy).
func (ws *Windows) ForSpace(space platform.SpaceID) []platform.WindowID {
	bucket := ws.bySpace[space]
	out := make([]platform.WindowID, len(bucket))
	copy(out, bucket)
	return out
}

// TileableForSpace returns the ordered tileable window ids on a space.
func (ws *Windows) TileableForSpace(space platform.SpaceID) []platform.WindowID {
	var out []platform.WindowID
	for _, id := range ws.bySpace[space] {
		if w := ws.byID[id]; w != nil && w.Tileable() {
			out = append(out, id)
		}
	}
	return out
}

// ForPID returns the ids owned by a pid, unordered.
func (ws *Windows) ForPID(pid platform.PID) []platform.WindowID {
	set := ws.byPID[pid]
	out := make([]platform.WindowID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// Iter calls fn for every tracked window until fn returns false.
func (ws *Windows) Iter(fn func(*WindowRecord) bool) {
	for _, w := range ws.byID {
		if !fn(w) {
			return
		}
	}
}

// Spaces returns every space id that currently has a bucket.
func (ws *Windows) Spaces() []platform.SpaceID {
	out := make([]platform.SpaceID, 0, len(ws.bySpace))
	for sid := range ws.bySpace {
		out = append(out, sid)
	}
	return out
}

func (ws *Windows) removeFromSpace(id platform.WindowID, space platform.SpaceID) {
	bucket := ws.bySpace[space]
	for i, wid := range bucket {
		if wid == id {
			ws.bySpace[space] = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(ws.bySpace[space]) == 0 {
		delete(ws.bySpace, space)
	}
}
