package platform

import (
	"github.com/yourusername/skyline/internal/geometry"
)

// EventKind enumerates every host callback the daemon consumes.
// Handlers never branch on a call site; the kind is the whole story.
type EventKind int

const (
	EventUnknown EventKind = iota

	EventWindowCreated
	EventWindowDestroyed
	EventWindowMinimized
	EventWindowDeminimized
	EventWindowFocused
	EventWindowMoved
	EventWindowResized
	EventWindowTitleChanged

	EventSpaceChanged

	EventDisplayAdded
	EventDisplayRemoved
	EventDisplayMoved
	EventDisplayResized

	EventAppLaunched
	EventAppTerminated
	EventAppHidden
	EventAppShown
	EventAppFrontSwitched

	EventSystemWoke
	EventMouseMoved
)

// String returns the event kind name used in logs.
func (k EventKind) String() string {
	switch k {
	case EventWindowCreated:
		return "window_created"
	case EventWindowDestroyed:
		return "window_destroyed"
	case EventWindowMinimized:
		return "window_minimized"
	case EventWindowDeminimized:
		return "window_deminimized"
	case EventWindowFocused:
		return "window_focused"
	case EventWindowMoved:
		return "window_moved"
	case EventWindowResized:
		return "window_resized"
	case EventWindowTitleChanged:
		return "window_title_changed"
	case EventSpaceChanged:
		return "space_changed"
	case EventDisplayAdded:
		return "display_added"
	case EventDisplayRemoved:
		return "display_removed"
	case EventDisplayMoved:
		return "display_moved"
	case EventDisplayResized:
		return "display_resized"
	case EventAppLaunched:
		return "app_launched"
	case EventAppTerminated:
		return "app_terminated"
	case EventAppHidden:
		return "app_hidden"
	case EventAppShown:
		return "app_shown"
	case EventAppFrontSwitched:
		return "app_front_switched"
	case EventSystemWoke:
		return "system_woke"
	case EventMouseMoved:
		return "mouse_moved"
	default:
		return "unknown"
	}
}

// Event is one host callback. Only the fields relevant to the kind
// are populated; the rest are zero.
type Event struct {
	Kind    EventKind
	Window  WindowID
	PID     PID
	Space   SpaceID
	Display DisplayID
	Point   geometry.Point

	// Info carries the full window description when the host supplies
	// one with the callback (window creation).
	Info *WindowInfo
}
