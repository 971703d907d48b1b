package platform

import (
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/yourusername/skyline/internal/geometry"
)

// Fake is an in-memory Adapter and SAChannel used by tests and replay
// harnesses. It models displays, spaces and windows, records every
// mutating call, and lets tests emit events as if the host fired them.
type Fake struct {
	mu sync.Mutex

	displays      []DisplayInfo
	spaces        map[DisplayID][]SpaceInfo
	currentSpace  map[DisplayID]SpaceID
	windows       map[WindowID]*WindowInfo
	windowSpace   map[WindowID]SpaceID
	apps          map[PID]AppInfo
	focusedWindow WindowID

	saLoaded    bool
	saAsyncIDs  bool // when set, CreateSpace returns 0 and the id must be polled
	nextSpaceID SpaceID

	// RefuseFrames lists windows that reject SetWindowFrame, used to
	// exercise partial-failure layout paths.
	RefuseFrames map[WindowID]bool

	events chan Event

	// Ops records mutating calls in order, one short string each.
	Ops []string

	// Handles tracks outstanding retains so tests can assert balance.
	Handles int
}

type fakeHandle struct {
	f        *Fake
	released bool
}

func (h *fakeHandle) Release() {
	h.f.mu.Lock()
	defer h.f.mu.Unlock()
	if !h.released {
		h.released = true
		h.f.Handles--
	}
}

// NewFake creates an empty fake host with a loaded SA channel.
func NewFake() *Fake {
	return &Fake{
		spaces:       make(map[DisplayID][]SpaceInfo),
		currentSpace: make(map[DisplayID]SpaceID),
		windows:      make(map[WindowID]*WindowInfo),
		windowSpace:  make(map[WindowID]SpaceID),
		apps:         make(map[PID]AppInfo),
		RefuseFrames: make(map[WindowID]bool),
		saLoaded:     true,
		nextSpaceID:  1000,
		events:       make(chan Event, 256),
	}
}

// NewHandle allocates a tracked handle.
func (f *Fake) NewHandle() Handle {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Handles++
	return &fakeHandle{f: f}
}

func (f *Fake) record(format string, args ...interface{}) {
	f.Ops = append(f.Ops, fmt.Sprintf(format, args...))
}

// SetSALoaded toggles SA channel availability.
func (f *Fake) SetSALoaded(loaded bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saLoaded = loaded
}

// SetAsyncSpaceIDs makes CreateSpace return 0, forcing callers onto
// the polling path.
func (f *Fake) SetAsyncSpaceIDs(async bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saAsyncIDs = async
}

// AddDisplay registers a display with no spaces. Like the real host,
// every display carries a UUID.
func (f *Fake) AddDisplay(d DisplayInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d.UUID == "" {
		d.UUID = uuid.NewString()
	}
	f.displays = append(f.displays, d)
	if _, ok := f.spaces[d.ID]; !ok {
		f.spaces[d.ID] = nil
	}
}

// RemoveDisplay drops a display and its spaces.
func (f *Fake) RemoveDisplay(id DisplayID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, d := range f.displays {
		if d.ID == id {
			f.displays = append(f.displays[:i], f.displays[i+1:]...)
			break
		}
	}
	delete(f.spaces, id)
	delete(f.currentSpace, id)
}

// AddSpace appends a space to a display, making it current when first.
func (f *Fake) AddSpace(s SpaceInfo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.addSpaceLocked(s)
}

func (f *Fake) addSpaceLocked(s SpaceInfo) {
	if s.UUID == "" {
		s.UUID = uuid.NewString()
	}
	f.spaces[s.Display] = append(f.spaces[s.Display], s)
	if _, ok := f.currentSpace[s.Display]; !ok {
		f.currentSpace[s.Display] = s.ID
	}
}

// AddWindow registers a window on a space and its owning app.
func (f *Fake) AddWindow(w WindowInfo, space SpaceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := w
	f.windows[w.ID] = &cp
	f.windowSpace[w.ID] = space
	if _, ok := f.apps[w.PID]; !ok {
		f.apps[w.PID] = AppInfo{PID: w.PID, Name: w.App}
	}
}

// DropWindow removes a window from the fake host.
func (f *Fake) DropWindow(id WindowID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.windows, id)
	delete(f.windowSpace, id)
}

// SetCurrentSpace marks a space current on its display.
func (f *Fake) SetCurrentSpace(display DisplayID, space SpaceID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.currentSpace[display] = space
}

// Emit delivers an event as the host would.
func (f *Fake) Emit(ev Event) {
	f.events <- ev
}

// Adapter implementation

func (f *Fake) ActiveDisplayList() ([]DisplayInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]DisplayInfo, len(f.displays))
	copy(out, f.displays)
	return out, nil
}

func (f *Fake) SpacesForDisplay(id DisplayID) ([]SpaceInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	list, ok := f.spaces[id]
	if !ok {
		return nil, fmt.Errorf("display %d not connected", id)
	}
	out := make([]SpaceInfo, len(list))
	copy(out, list)
	return out, nil
}

func (f *Fake) CurrentSpace(id DisplayID) (SpaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sid, ok := f.currentSpace[id]
	if !ok {
		return 0, fmt.Errorf("display %d not connected", id)
	}
	return sid, nil
}

func (f *Fake) WindowSpace(id WindowID) (SpaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	sid, ok := f.windowSpace[id]
	if !ok {
		return 0, fmt.Errorf("window %d not found", id)
	}
	return sid, nil
}

func (f *Fake) WindowFrame(id WindowID) (geometry.Rect, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok {
		return geometry.Rect{}, fmt.Errorf("window %d not found", id)
	}
	return w.Frame, nil
}

func (f *Fake) SetWindowFrame(id WindowID, frame geometry.Rect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	w, ok := f.windows[id]
	if !ok {
		return fmt.Errorf("window %d not found", id)
	}
	if f.RefuseFrames[id] {
		f.record("refuse_frame %d", id)
		return fmt.Errorf("window %d refused frame change", id)
	}
	w.Frame = frame
	f.record("set_frame %d %.0f,%.0f %.0fx%.0f", id, frame.X, frame.Y, frame.Width, frame.Height)
	return nil
}

func (f *Fake) MoveWindowToSpace(id WindowID, space SpaceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[id]; !ok {
		return fmt.Errorf("window %d not found", id)
	}
	f.windowSpace[id] = space
	f.record("move_window %d space %d", id, space)
	return nil
}

func (f *Fake) WindowUnderPoint(p geometry.Point) (WindowID, PID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	// Deterministic: smallest matching id wins.
	ids := make([]WindowID, 0, len(f.windows))
	for id := range f.windows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		if f.windows[id].Frame.Contains(p) {
			return id, f.windows[id].PID, nil
		}
	}
	return 0, 0, fmt.Errorf("no window under point")
}

func (f *Fake) FocusWindow(id WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.windows[id]; !ok {
		return fmt.Errorf("window %d not found", id)
	}
	f.focusedWindow = id
	f.record("focus_window %d", id)
	return nil
}

func (f *Fake) RaiseWindow(id WindowID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("raise_window %d", id)
	return nil
}

func (f *Fake) FocusedWindow() (WindowID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.focusedWindow == 0 {
		return 0, fmt.Errorf("no focused window")
	}
	return f.focusedWindow, nil
}

func (f *Fake) RunningApps() ([]AppInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]AppInfo, 0, len(f.apps))
	for _, a := range f.apps {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PID < out[j].PID })
	return out, nil
}

func (f *Fake) WindowsForApp(pid PID) ([]WindowInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []WindowInfo
	for _, w := range f.windows {
		if w.PID == pid {
			out = append(out, *w)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) ObserveApp(pid PID) (Handle, error) {
	f.mu.Lock()
	f.Handles++
	f.record("observe_app %d", pid)
	f.mu.Unlock()
	return &fakeHandle{f: f}, nil
}

func (f *Fake) SetEventTapEnabled(enabled bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("event_tap %v", enabled)
	return nil
}

func (f *Fake) WarpCursor(p geometry.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("warp_cursor %.0f,%.0f", p.X, p.Y)
	return nil
}

func (f *Fake) Events() <-chan Event {
	return f.events
}

// SAChannel implementation

func (f *Fake) Available() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.saLoaded
}

func (f *Fake) CreateSpace(ref SpaceID) (SpaceID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.saLoaded {
		return 0, fmt.Errorf("sa channel not loaded")
	}

	var display DisplayID
	found := false
	for did, list := range f.spaces {
		for _, s := range list {
			if s.ID == ref {
				display = did
				found = true
			}
		}
	}
	if !found {
		return 0, fmt.Errorf("reference space %d not found", ref)
	}

	f.nextSpaceID++
	id := f.nextSpaceID
	f.addSpaceLocked(SpaceInfo{ID: id, Kind: SpaceUser, Display: display})
	f.record("create_space after %d -> %d", ref, id)

	if f.saAsyncIDs {
		return 0, nil
	}
	return id, nil
}

func (f *Fake) DestroySpace(id SpaceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.saLoaded {
		return fmt.Errorf("sa channel not loaded")
	}
	for did, list := range f.spaces {
		for i, s := range list {
			if s.ID == id {
				f.spaces[did] = append(list[:i], list[i+1:]...)
				if f.currentSpace[did] == id && len(f.spaces[did]) > 0 {
					f.currentSpace[did] = f.spaces[did][0].ID
				}
				f.record("destroy_space %d", id)
				return nil
			}
		}
	}
	return fmt.Errorf("space %d not found", id)
}

func (f *Fake) MoveSpaceAfter(src, dst SpaceID, preserveFocus bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.saLoaded {
		return fmt.Errorf("sa channel not loaded")
	}
	f.record("move_space %d after %d", src, dst)
	return nil
}

func (f *Fake) FocusSpace(id SpaceID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.saLoaded {
		return fmt.Errorf("sa channel not loaded")
	}
	for did, list := range f.spaces {
		for _, s := range list {
			if s.ID == id {
				f.currentSpace[did] = id
				f.record("focus_space %d", id)
				return nil
			}
		}
	}
	return fmt.Errorf("space %d not found", id)
}

func (f *Fake) SetWindowOpacity(id WindowID, opacity float64) error {
	return f.saOp("set_opacity %d %.2f", id, opacity)
}

func (f *Fake) SetWindowShadow(id WindowID, shadow bool) error {
	return f.saOp("set_shadow %d %v", id, shadow)
}

func (f *Fake) SetWindowSticky(id WindowID, sticky bool) error {
	return f.saOp("set_sticky %d %v", id, sticky)
}

func (f *Fake) SetWindowLayer(id WindowID, layer int) error {
	return f.saOp("set_layer %d %d", id, layer)
}

func (f *Fake) saOp(format string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.saLoaded {
		return fmt.Errorf("sa channel not loaded")
	}
	f.record(format, args...)
	return nil
}
