package platform

import (
	"github.com/yourusername/skyline/internal/geometry"
)

// Opaque host identifiers. Values come from the OS and are never
// interpreted beyond equality and ordering.
type (
	WindowID  uint32
	SpaceID   uint64
	DisplayID uint32
	PID       int32
)

// SpaceKind classifies a host space.
type SpaceKind string

const (
	SpaceUser       SpaceKind = "user"
	SpaceSystem     SpaceKind = "system"
	SpaceFullscreen SpaceKind = "fullscreen"
)

// Handle is an opaque platform reference (accessibility element,
// observer subscription). Whoever stores a Handle owns it exclusively
// and must Release it exactly once on every exit route.
type Handle interface {
	Release()
}

// WindowInfo is the host's description of a window at query time.
type WindowInfo struct {
	ID        WindowID
	PID       PID
	App       string
	Title     string
	Frame     geometry.Rect
	Role      string
	Subrole   string
	Level     int
	SubLevel  int
	Minimized bool
	Hidden    bool
	Handle    Handle
}

// SpaceInfo is the host's description of a space.
type SpaceInfo struct {
	ID      SpaceID
	UUID    string
	Kind    SpaceKind
	Display DisplayID
}

// DisplayInfo is the host's description of a display.
type DisplayInfo struct {
	ID      DisplayID
	UUID    string
	Frame   geometry.Rect
	Builtin bool
	Main    bool
}

// AppInfo is the host's description of a running application.
type AppInfo struct {
	PID    PID
	Name   string
	Handle Handle
}

// Adapter is the blocking RPC surface into the host windowing system.
// All calls are made from the loop thread. Implementations deliver
// asynchronous events through Events(); those may originate on other
// host threads, so consumers only touch atomics in response.
type Adapter interface {
	// Topology
	ActiveDisplayList() ([]DisplayInfo, error)
	SpacesForDisplay(id DisplayID) ([]SpaceInfo, error)
	CurrentSpace(id DisplayID) (SpaceID, error)

	// Windows
	WindowSpace(id WindowID) (SpaceID, error)
	WindowFrame(id WindowID) (geometry.Rect, error)
	SetWindowFrame(id WindowID, frame geometry.Rect) error
	MoveWindowToSpace(id WindowID, space SpaceID) error
	WindowUnderPoint(p geometry.Point) (WindowID, PID, error)
	FocusWindow(id WindowID) error
	RaiseWindow(id WindowID) error
	FocusedWindow() (WindowID, error)

	// Applications
	RunningApps() ([]AppInfo, error)
	WindowsForApp(pid PID) ([]WindowInfo, error)
	ObserveApp(pid PID) (Handle, error)

	// Input
	SetEventTapEnabled(enabled bool) error
	WarpCursor(p geometry.Point) error

	// Events is the stream of host callbacks, one enum value each.
	Events() <-chan Event
}

// SAChannel is the best-effort out-of-band control channel. Every
// caller checks Available first; operations fail when the channel is
// not loaded on the host.
type SAChannel interface {
	Available() bool

	// CreateSpace asks for a new space next to ref. Depending on host
	// version the new id is returned synchronously or as 0, in which
	// case the caller resolves it by polling the display's space list.
	CreateSpace(ref SpaceID) (SpaceID, error)
	DestroySpace(id SpaceID) error
	MoveSpaceAfter(src, dst SpaceID, preserveFocus bool) error
	FocusSpace(id SpaceID) error

	SetWindowOpacity(id WindowID, opacity float64) error
	SetWindowShadow(id WindowID, shadow bool) error
	SetWindowSticky(id WindowID, sticky bool) error
	SetWindowLayer(id WindowID, layer int) error
}
