package store

import (
	"github.com/yourusername/skyline/internal/platform"
)

// Displays caches the active display list and maintains the
// label ↔ id bijection. The cache is refreshed by the planner from
// the platform's active display list.
type Displays struct {
	active    []platform.DisplayInfo
	labelToID map[string]platform.DisplayID
	idToLabel map[platform.DisplayID]string
}

// NewDisplays creates an empty display collection.
func NewDisplays() *Displays {
	return &Displays{
		labelToID: make(map[string]platform.DisplayID),
		idToLabel: make(map[platform.DisplayID]string),
	}
}

// Refresh replaces the cached active list. Labels on departed
// displays are cleared.
func (ds *Displays) Refresh(active []platform.DisplayInfo) {
	present := make(map[platform.DisplayID]bool, len(active))
	for _, d := range active {
		present[d.ID] = true
	}
	for id := range ds.idToLabel {
		if !present[id] {
			ds.RemoveLabel(id)
		}
	}
	ds.active = append(ds.active[:0], active...)
}

// ActiveList returns the cached active displays in platform order.
func (ds *Displays) ActiveList() []platform.DisplayInfo {
	out := make([]platform.DisplayInfo, len(ds.active))
	copy(out, ds.active)
	return out
}

// Get returns a cached display by id.
func (ds *Displays) Get(id platform.DisplayID) (platform.DisplayInfo, bool) {
	for _, d := range ds.active {
		if d.ID == id {
			return d, true
		}
	}
	return platform.DisplayInfo{}, false
}

// MainID returns the main display's id, falling back to the first
// active display.
func (ds *Displays) MainID() (platform.DisplayID, bool) {
	for _, d := range ds.active {
		if d.Main {
			return d.ID, true
		}
	}
	if len(ds.active) > 0 {
		return ds.active[0].ID, true
	}
	return 0, false
}

// ByIndex returns the display at a 1-based index.
func (ds *Displays) ByIndex(index int) (platform.DisplayInfo, bool) {
	if index < 1 || index > len(ds.active) {
		return platform.DisplayInfo{}, false
	}
	return ds.active[index-1], true
}

// IndexOf returns a display's 1-based index, or 0.
func (ds *Displays) IndexOf(id platform.DisplayID) int {
	for i, d := range ds.active {
		if d.ID == id {
			return i + 1
		}
	}
	return 0
}

// SetLabel binds a label to a display, keeping the bijection.
func (ds *Displays) SetLabel(id platform.DisplayID, label string) {
	if label == "" {
		return
	}
	if old, ok := ds.labelToID[label]; ok && old != id {
		delete(ds.idToLabel, old)
	}
	if prev, ok := ds.idToLabel[id]; ok && prev != label {
		delete(ds.labelToID, prev)
	}
	ds.labelToID[label] = id
	ds.idToLabel[id] = label
}

// RemoveLabel clears a display's label.
func (ds *Displays) RemoveLabel(id platform.DisplayID) {
	if label, ok := ds.idToLabel[id]; ok {
		delete(ds.idToLabel, id)
		delete(ds.labelToID, label)
	}
}

// ClearLabels drops every display label.
func (ds *Displays) ClearLabels() {
	ds.labelToID = make(map[string]platform.DisplayID)
	ds.idToLabel = make(map[platform.DisplayID]string)
}

// Label returns a display's label, or empty.
func (ds *Displays) Label(id platform.DisplayID) string {
	return ds.idToLabel[id]
}

// ByLabel resolves a label to a display id.
func (ds *Displays) ByLabel(label string) (platform.DisplayID, bool) {
	id, ok := ds.labelToID[label]
	return id, ok
}
