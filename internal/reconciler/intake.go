package reconciler

import (
	"time"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/store"
)

// HandleEvent is the event intake. It does minimal work per event:
// flags, queue pushes, single timestamp updates, small store writes.
// Platform round-trips are deferred to the tick pipeline; the one
// exception is focus follows mouse, which must feel immediate.
func (r *Reconciler) HandleEvent(ev platform.Event, now time.Time) {
	if r.ShuttingDown.Load() {
		return
	}

	switch ev.Kind {
	case platform.EventWindowCreated:
		id := ev.Window
		if id == 0 && ev.Info != nil {
			id = ev.Info.ID
		}
		if id != 0 {
			r.created.Push(pendingWindow{id: id, pid: ev.PID, info: ev.Info})
			r.Flags.Set(FlagWindowsCreated)
		}

	case platform.EventWindowDestroyed:
		if w := r.Store.Windows.Get(ev.Window); w != nil {
			r.dirtySpaces.Push(w.Space)
			r.Store.Windows.Remove(ev.Window)
		}
		if r.Store.FocusedWindow == ev.Window {
			r.Store.SetFocused(0)
		}

	case platform.EventWindowMinimized:
		r.Store.Windows.SetFlag(ev.Window, store.FlagMinimized, true)
		r.markWindowSpaceDirty(ev.Window)

	case platform.EventWindowDeminimized:
		r.Store.Windows.SetFlag(ev.Window, store.FlagMinimized, false)
		r.markWindowSpaceDirty(ev.Window)

	case platform.EventWindowFocused:
		if r.Store.Windows.Has(ev.Window) {
			r.Store.SetFocused(ev.Window)
		}
		r.pendingFocusPID = ev.PID
		r.Flags.Set(FlagAppFocusChanged)

	case platform.EventWindowMoved, platform.EventWindowResized:
		r.moved.Push(pendingWindow{id: ev.Window, pid: ev.PID})
		r.Flags.Set(FlagWindowsMoved)

	case platform.EventWindowTitleChanged:
		if w := r.Store.Windows.Get(ev.Window); w != nil && ev.Info != nil {
			w.Title = ev.Info.Title
		}

	case platform.EventSpaceChanged:
		// Only the timestamp and the pending id here; the pipeline
		// resolves an unknown current space from the platform.
		r.pendingSpace = ev.Space
		r.lastSpaceChange = now
		r.Flags.Set(FlagSpaceChanged)

	case platform.EventDisplayAdded, platform.EventDisplayRemoved,
		platform.EventDisplayMoved, platform.EventDisplayResized:
		r.MarkDisplayChange(now)

	case platform.EventAppLaunched:
		r.launched.Push(ev.PID)
		r.Flags.Set(FlagAppsLaunched)

	case platform.EventAppTerminated:
		r.terminated.Push(ev.PID)
		r.Flags.Set(FlagAppsTerminated)

	case platform.EventAppHidden:
		r.hidden.Push(ev.PID)
		r.Flags.Set(FlagAppsHidden)

	case platform.EventAppShown:
		r.shown.Push(ev.PID)
		r.Flags.Set(FlagAppsShown)

	case platform.EventAppFrontSwitched:
		r.pendingFocusPID = ev.PID
		r.Flags.Set(FlagAppFocusChanged)

	case platform.EventSystemWoke:
		r.Flags.Set(FlagValidateState | FlagRefreshWindowSpaces | FlagLayoutAll)

	case platform.EventMouseMoved:
		r.handleMouseMoved(ev, now)

	default:
		logging.Debug().Str("kind", ev.Kind.String()).Msg("unhandled event")
	}
}

func (r *Reconciler) markWindowSpaceDirty(id platform.WindowID) {
	if w := r.Store.Windows.Get(id); w != nil {
		r.dirtySpaces.Push(w.Space)
	}
}

// handleMouseMoved implements focus follows mouse. It is allowed
// inline work because it must feel immediate; it is suppressed for a
// short window after a space change to avoid focusing whatever lands
// under a cursor that did not move.
func (r *Reconciler) handleMouseMoved(ev platform.Event, now time.Time) {
	mode := r.cfg.FocusFollowsMouse
	if mode == config.FFMOff {
		return
	}
	if now.Sub(r.lastSpaceChange) < ffmSuppress {
		return
	}

	id, _, err := r.Adapter.WindowUnderPoint(ev.Point)
	if err != nil || id == 0 || id == r.Store.FocusedWindow {
		return
	}
	if !r.Store.Windows.Has(id) {
		return
	}

	if err := r.Adapter.FocusWindow(id); err != nil {
		logging.Debug().Uint32("wid", uint32(id)).Err(err).Msg("ffm focus failed")
		return
	}
	if mode == config.FFMAutoraise {
		if err := r.Adapter.RaiseWindow(id); err != nil {
			logging.Debug().Uint32("wid", uint32(id)).Err(err).Msg("ffm raise failed")
		}
	}
	r.Store.SetFocused(id)
}
