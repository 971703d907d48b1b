package store

import (
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/view"
)

// SpaceRecord is the daemon's view of one host space.
type SpaceRecord struct {
	ID      platform.SpaceID
	UUID    string
	Kind    platform.SpaceKind
	Display platform.DisplayID
}

// Spaces tracks known spaces, their labels (a bijection) and their
// views. Views exist only for spaces that need layout.
type Spaces struct {
	byID      map[platform.SpaceID]*SpaceRecord
	views     map[platform.SpaceID]*view.View
	labelToID map[string]platform.SpaceID
	idToLabel map[platform.SpaceID]string

	Current platform.SpaceID
	Last    platform.SpaceID
}

// NewSpaces creates an empty space collection.
func NewSpaces() *Spaces {
	return &Spaces{
		byID:      make(map[platform.SpaceID]*SpaceRecord),
		views:     make(map[platform.SpaceID]*view.View),
		labelToID: make(map[string]platform.SpaceID),
		idToLabel: make(map[platform.SpaceID]string),
	}
}

// Put inserts or refreshes a space record.
func (ss *Spaces) Put(rec *SpaceRecord) {
	ss.byID[rec.ID] = rec
}

// Remove drops a space, its view and its label.
func (ss *Spaces) Remove(id platform.SpaceID) {
	delete(ss.byID, id)
	delete(ss.views, id)
	ss.RemoveLabel(id)
}

// Get returns a space record, or nil.
func (ss *Spaces) Get(id platform.SpaceID) *SpaceRecord {
	return ss.byID[id]
}

// Has reports whether the space is known.
func (ss *Spaces) Has(id platform.SpaceID) bool {
	_, ok := ss.byID[id]
	return ok
}

// IDs returns every known space id, unordered.
func (ss *Spaces) IDs() []platform.SpaceID {
	out := make([]platform.SpaceID, 0, len(ss.byID))
	for id := range ss.byID {
		out = append(out, id)
	}
	return out
}

// SetLabel binds a label to a space. Labels are unique: assigning an
// existing label to a new space removes it from the old one, and a
// space gaining a label sheds any previous label.
func (ss *Spaces) SetLabel(id platform.SpaceID, label string) {
	if label == "" {
		return
	}
	if old, ok := ss.labelToID[label]; ok && old != id {
		delete(ss.idToLabel, old)
	}
	if prev, ok := ss.idToLabel[id]; ok && prev != label {
		delete(ss.labelToID, prev)
	}
	ss.labelToID[label] = id
	ss.idToLabel[id] = label
}

// RemoveLabel clears a space's label, if any.
func (ss *Spaces) RemoveLabel(id platform.SpaceID) {
	if label, ok := ss.idToLabel[id]; ok {
		delete(ss.idToLabel, id)
		delete(ss.labelToID, label)
	}
}

// ClearLabels drops every label.
func (ss *Spaces) ClearLabels() {
	ss.labelToID = make(map[string]platform.SpaceID)
	ss.idToLabel = make(map[platform.SpaceID]string)
}

// Label returns a space's label, or empty.
func (ss *Spaces) Label(id platform.SpaceID) string {
	return ss.idToLabel[id]
}

// ByLabel resolves a label to a space id.
func (ss *Spaces) ByLabel(label string) (platform.SpaceID, bool) {
	id, ok := ss.labelToID[label]
	return id, ok
}

// Labels returns a copy of the label → id map.
func (ss *Spaces) Labels() map[string]platform.SpaceID {
	out := make(map[string]platform.SpaceID, len(ss.labelToID))
	for l, id := range ss.labelToID {
		out[l] = id
	}
	return out
}

// View returns the space's view, or nil.
func (ss *Spaces) View(id platform.SpaceID) *view.View {
	return ss.views[id]
}

// GetOrCreateView returns the space's view, creating it with the
// given mode and default ratio when absent.
func (ss *Spaces) GetOrCreateView(id platform.SpaceID, mode view.Mode, splitRatio float64) *view.View {
	if v, ok := ss.views[id]; ok {
		return v
	}
	v := view.New(mode, splitRatio)
	ss.views[id] = v
	return v
}

// RemoveView drops a space's view.
func (ss *Spaces) RemoveView(id platform.SpaceID) {
	delete(ss.views, id)
}

// SetCurrent records a space change, remembering the previous one.
func (ss *Spaces) SetCurrent(id platform.SpaceID) {
	if ss.Current == id {
		return
	}
	ss.Last = ss.Current
	ss.Current = id
}
