package store

import (
	"fmt"

	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/view"
)

// Store is the single source of truth for managed state. It is only
// ever touched on the loop thread and therefore carries no lock.
type Store struct {
	Windows  *Windows
	Spaces   *Spaces
	Displays *Displays
	Apps     *Apps

	FocusedWindow platform.WindowID
	LastFocused   platform.WindowID
}

// SetFocused records a focus change, remembering the previous window.
func (s *Store) SetFocused(id platform.WindowID) {
	if s.FocusedWindow == id {
		return
	}
	s.LastFocused = s.FocusedWindow
	s.FocusedWindow = id
}

// New creates an empty store.
func New() *Store {
	return &Store{
		Windows:  NewWindows(),
		Spaces:   NewSpaces(),
		Displays: NewDisplays(),
		Apps:     NewApps(),
	}
}

// FrameSetter is the slice of the platform adapter layout needs.
type FrameSetter interface {
	SetWindowFrame(id platform.WindowID, frame geometry.Rect) error
	RaiseWindow(id platform.WindowID) error
}

// ApplyLayout lays out one space: the view is refreshed against the
// current tileable window set (rebuilding when the leaf set drifted)
// and a frame request is emitted per window. A window refusing its
// frame does not stop later windows.
//
// bounds must already account for padding and any external bar.
func (s *Store) ApplyLayout(adapter FrameSetter, space platform.SpaceID, bounds geometry.Rect, gap float64, mode view.Mode, splitRatio float64, autoBalance bool) error {
	windows := s.Windows.TileableForSpace(space)
	if len(windows) == 0 {
		// No tileable windows: the view becomes unnecessary unless it
		// was explicitly requested, which GetOrCreateView models by
		// the caller re-creating it.
		s.Spaces.RemoveView(space)
		return nil
	}

	v := s.Spaces.GetOrCreateView(space, mode, splitRatio)

	anchor := platform.WindowID(0)
	if f := s.Windows.Get(s.FocusedWindow); f != nil && f.Space == space {
		anchor = s.FocusedWindow
	}
	if changed := v.Refresh(windows, anchor); changed && autoBalance {
		v.Balance()
	}

	frames := v.Frames(bounds, gap, windows, s.FocusedWindow)

	var failed int
	for _, id := range windows {
		frame, ok := frames[id]
		if !ok {
			continue
		}
		if err := adapter.SetWindowFrame(id, frame); err != nil {
			failed++
			logging.Warn().
				Uint64("space", uint64(space)).
				Uint32("wid", uint32(id)).
				Err(err).
				Msg("window refused frame")
			continue
		}
		if w := s.Windows.Get(id); w != nil {
			w.Frame = frame
		}
	}

	if v.Mode() == view.ModeStack && s.FocusedWindow != 0 {
		if f := s.Windows.Get(s.FocusedWindow); f != nil && f.Space == space {
			if err := adapter.RaiseWindow(s.FocusedWindow); err != nil {
				logging.Debug().Uint32("wid", uint32(s.FocusedWindow)).Err(err).Msg("raise failed")
			}
		}
	}

	if failed == len(windows) && failed > 0 {
		return fmt.Errorf("all %d windows refused layout on space %d", failed, space)
	}
	return nil
}

// CheckInvariants verifies the cross-index consistency the reconciler
// promises after every tick. Returns the violations found.
func (s *Store) CheckInvariants() []string {
	var problems []string

	// Window ↔ by_space round trip.
	s.Windows.Iter(func(w *WindowRecord) bool {
		found := false
		for _, id := range s.Windows.ForSpace(w.Space) {
			if id == w.ID {
				found = true
				break
			}
		}
		if !found {
			problems = append(problems, fmt.Sprintf("window %d missing from space %d bucket", w.ID, w.Space))
		}
		return true
	})

	// Focused window must be tracked.
	if s.FocusedWindow != 0 && !s.Windows.Has(s.FocusedWindow) {
		problems = append(problems, fmt.Sprintf("focused window %d not tracked", s.FocusedWindow))
	}

	// A view's leaf set must equal the tileable subset of its space.
	for _, sid := range s.Spaces.IDs() {
		v := s.Spaces.View(sid)
		if v == nil {
			continue
		}
		leaves := v.Leaves()
		tileable := s.Windows.TileableForSpace(sid)
		if len(leaves) != len(tileable) {
			problems = append(problems, fmt.Sprintf("space %d view has %d leaves, %d tileable windows", sid, len(leaves), len(tileable)))
			continue
		}
		set := make(map[platform.WindowID]bool, len(tileable))
		for _, id := range tileable {
			set[id] = true
		}
		for _, id := range leaves {
			if !set[id] {
				problems = append(problems, fmt.Sprintf("space %d view leaf %d is not tileable there", sid, id))
			}
		}
	}

	return problems
}
