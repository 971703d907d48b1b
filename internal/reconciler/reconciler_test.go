package reconciler

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/store"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

// newFixture builds a reconciler over a fake host with one display
// and one user space.
func newFixture(t *testing.T, cfg *config.Config) (*Reconciler, *platform.Fake) {
	t.Helper()
	if cfg == nil {
		cfg = config.Default()
	}

	fake := platform.NewFake()
	fake.AddDisplay(platform.DisplayInfo{
		ID:      1,
		Frame:   geometry.Rect{Width: 1000, Height: 1000},
		Builtin: true,
		Main:    true,
	})
	fake.AddSpace(platform.SpaceInfo{ID: 5, Kind: platform.SpaceUser, Display: 1})

	r := New(store.New(), fake, fake, cfg)
	r.Planner.Sleep = func(time.Duration) {}

	active, _ := fake.ActiveDisplayList()
	r.Store.Displays.Refresh(active)
	r.Store.Spaces.Put(&store.SpaceRecord{ID: 5, Kind: platform.SpaceUser, Display: 1})
	r.Store.Spaces.SetCurrent(5)
	return r, fake
}

func addAppWindows(t *testing.T, r *Reconciler, fake *platform.Fake, pid platform.PID, ids ...platform.WindowID) {
	t.Helper()
	for _, id := range ids {
		fake.AddWindow(platform.WindowInfo{
			ID:    id,
			PID:   pid,
			App:   "TestApp",
			Frame: geometry.Rect{Width: 100, Height: 100},
		}, 5)
	}
	r.trackApp(platform.AppInfo{PID: pid, Name: "TestApp"})
}

func countOps(fake *platform.Fake, prefix string) int {
	n := 0
	for _, op := range fake.Ops {
		if strings.HasPrefix(op, prefix) {
			n++
		}
	}
	return n
}

// App termination removes every owned window and re-lays-out the
// space on the next tick.
func TestTick_AppTerminated(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10, 11)
	r.Tick(t0)
	fake.Ops = nil

	fake.DropWindow(10)
	fake.DropWindow(11)
	r.HandleEvent(platform.Event{Kind: platform.EventAppTerminated, PID: 9}, t0)
	r.Tick(t0.Add(time.Second))

	if r.Store.Windows.Has(10) || r.Store.Windows.Has(11) {
		t.Error("terminated app's windows still tracked")
	}
	if len(r.Store.Windows.ForSpace(5)) != 0 {
		t.Errorf("space bucket = %v, want empty", r.Store.Windows.ForSpace(5))
	}
	if r.Store.Apps.Has(9) {
		t.Error("terminated app still tracked")
	}
}

// After any tick, flags and queues are clean.
func TestTick_LeavesNoDirtyState(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10)

	r.HandleEvent(platform.Event{Kind: platform.EventAppLaunched, PID: 42}, t0)
	r.HandleEvent(platform.Event{Kind: platform.EventAppHidden, PID: 9}, t0)
	r.HandleEvent(platform.Event{Kind: platform.EventWindowCreated, Window: 77, PID: 9}, t0)
	r.HandleEvent(platform.Event{Kind: platform.EventWindowMoved, Window: 10}, t0)
	r.HandleEvent(platform.Event{Kind: platform.EventSpaceChanged, Space: 5}, t0)
	r.Tick(t0)

	if r.Flags.Any() {
		t.Error("flags survived the tick")
	}
	if r.launched.Len() != 0 || r.terminated.Len() != 0 || r.hidden.Len() != 0 || r.shown.Len() != 0 {
		t.Error("pid queues survived the tick")
	}
	if r.created.Len() != 0 || r.moved.Len() != 0 {
		t.Error("window queues survived the tick")
	}
	if r.dirtySpaces.Len() != 0 {
		t.Error("dirty spaces survived the tick")
	}
	if r.pendingSpace != 0 {
		t.Error("pending space survived the tick")
	}
}

// Window creation events queue at intake; the window is tracked on
// the next tick, not inline.
func TestTick_WindowCreatedDeferred(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10)
	r.Tick(t0)

	fake.AddWindow(platform.WindowInfo{
		ID:    77,
		PID:   9,
		App:   "TestApp",
		Frame: geometry.Rect{Width: 100, Height: 100},
	}, 5)
	r.HandleEvent(platform.Event{Kind: platform.EventWindowCreated, Window: 77, PID: 9}, t0)

	if r.Store.Windows.Has(77) {
		t.Fatal("intake tracked the window inline")
	}

	r.Tick(t0.Add(time.Second))
	if !r.Store.Windows.Has(77) {
		t.Error("created window not tracked by the tick")
	}
}

// Move/resize events refresh the cached frame during the tick.
func TestTick_WindowMovedDeferred(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10)
	r.Tick(t0)

	moved := geometry.Rect{X: 300, Y: 300, Width: 200, Height: 150}
	fake.SetWindowFrame(10, moved)
	r.HandleEvent(platform.Event{Kind: platform.EventWindowMoved, Window: 10}, t0)

	r.Tick(t0.Add(time.Second))
	if got := r.Store.Windows.Get(10).Frame; got != moved {
		t.Errorf("cached frame = %+v, want %+v", got, moved)
	}
}

// Space changes queue at intake and settle during the tick, including
// the platform fallback when the event names no space.
func TestTick_SpaceChangeDeferred(t *testing.T) {
	r, fake := newFixture(t, nil)
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})
	r.Store.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})

	r.HandleEvent(platform.Event{Kind: platform.EventSpaceChanged, Space: 6}, t0)
	if r.Store.Spaces.Current != 5 {
		t.Fatal("intake switched the current space inline")
	}

	r.Tick(t0)
	if r.Store.Spaces.Current != 6 || r.Store.Spaces.Last != 5 {
		t.Errorf("current/last = %d/%d, want 6/5", r.Store.Spaces.Current, r.Store.Spaces.Last)
	}

	// An event with no space id resolves through the platform.
	fake.SetCurrentSpace(1, 5)
	r.HandleEvent(platform.Event{Kind: platform.EventSpaceChanged}, t0.Add(time.Second))
	r.Tick(t0.Add(2 * time.Second))
	if r.Store.Spaces.Current != 5 {
		t.Errorf("fallback current = %d, want 5", r.Store.Spaces.Current)
	}
}

func TestTick_HiddenExcludesFromLayout(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10, 11)
	r.Tick(t0)

	r.HandleEvent(platform.Event{Kind: platform.EventAppHidden, PID: 9}, t0)
	r.Tick(t0.Add(time.Second))

	for _, id := range []platform.WindowID{10, 11} {
		w := r.Store.Windows.Get(id)
		if w == nil || !w.Hidden {
			t.Errorf("window %d not hidden", id)
		}
	}
	if got := r.Store.Windows.TileableForSpace(5); len(got) != 0 {
		t.Errorf("tileable = %v, want none", got)
	}
}

// Display changes debounce: nothing settles until 500 ms of quiet.
func TestTick_DisplayChangeDebounce(t *testing.T) {
	r, fake := newFixture(t, nil)
	r.HandleEvent(platform.Event{Kind: platform.EventDisplayAdded, Display: 2}, t0)

	r.Tick(t0.Add(100 * time.Millisecond))
	if !r.displayChangePending.Load() {
		t.Fatal("display change consumed too early")
	}

	fake.AddDisplay(platform.DisplayInfo{ID: 2, Frame: geometry.Rect{X: 1000, Width: 800, Height: 600}})
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 2})

	r.Tick(t0.Add(600 * time.Millisecond))
	if r.displayChangePending.Load() {
		t.Error("display change not consumed after debounce")
	}
	if _, ok := r.Store.Displays.Get(2); !ok {
		t.Error("new display not adopted")
	}
	if !r.Store.Spaces.Has(6) {
		t.Error("new display's space not adopted")
	}
}

// A mouse move within 500 ms of a space change must not focus.
func TestFFM_SuppressedDuringSpaceTransition(t *testing.T) {
	cfg := config.Default()
	cfg.FocusFollowsMouse = config.FFMAutofocus
	r, fake := newFixture(t, cfg)
	addAppWindows(t, r, fake, 9, 10)
	r.Tick(t0)
	fake.Ops = nil

	r.HandleEvent(platform.Event{Kind: platform.EventSpaceChanged, Space: 5}, t0)
	r.HandleEvent(platform.Event{
		Kind:  platform.EventMouseMoved,
		Point: geometry.Point{X: 50, Y: 50},
	}, t0.Add(100*time.Millisecond))

	if countOps(fake, "focus_window") != 0 {
		t.Error("ffm fired during suppression window")
	}

	r.HandleEvent(platform.Event{
		Kind:  platform.EventMouseMoved,
		Point: geometry.Point{X: 50, Y: 50},
	}, t0.Add(700*time.Millisecond))

	if countOps(fake, "focus_window") != 1 {
		t.Errorf("ffm focus ops = %d, want 1", countOps(fake, "focus_window"))
	}
	if r.Store.FocusedWindow != 10 {
		t.Errorf("focused = %d, want 10", r.Store.FocusedWindow)
	}
}

func TestFFM_OffDoesNothing(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10)
	r.Tick(t0)
	fake.Ops = nil

	r.HandleEvent(platform.Event{
		Kind:  platform.EventMouseMoved,
		Point: geometry.Point{X: 50, Y: 50},
	}, t0.Add(time.Hour))

	if countOps(fake, "focus_window") != 0 {
		t.Error("ffm fired while off")
	}
}

// manage=false rules float the window out of layout.
func TestRules_UnmanagedWindowFloats(t *testing.T) {
	cfg := config.Default()
	manage := false
	cfg.Rules = []config.Rule{{App: "TestApp", Manage: &manage}}
	r, fake := newFixture(t, cfg)
	addAppWindows(t, r, fake, 9, 10)

	w := r.Store.Windows.Get(10)
	if w == nil {
		t.Fatal("window not tracked")
	}
	if !w.Floating {
		t.Error("unmanaged window should float")
	}
	if got := r.Store.Windows.TileableForSpace(5); len(got) != 0 {
		t.Errorf("tileable = %v, want none", got)
	}
}

func TestValidateState_RemovesDeadWindows(t *testing.T) {
	r, fake := newFixture(t, nil)
	// The validation pass also probes process liveness; our own pid
	// is the one process guaranteed alive.
	self := platform.PID(os.Getpid())
	addAppWindows(t, r, fake, self, 10, 11)
	r.Store.SetFocused(10)

	fake.DropWindow(10)
	r.Flags.Set(FlagValidateState)
	r.Tick(t0)

	if r.Store.Windows.Has(10) {
		t.Error("window with no platform space survived validation")
	}
	if !r.Store.Windows.Has(11) {
		t.Error("live window removed by validation")
	}
	if r.Store.FocusedWindow == 10 {
		t.Error("stale focused window survived validation")
	}
}

func TestRefreshWindowSpaces_FollowsPlatform(t *testing.T) {
	r, fake := newFixture(t, nil)
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})
	r.Store.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})
	addAppWindows(t, r, fake, 9, 10)

	// The platform moved the window behind our back.
	fake.MoveWindowToSpace(10, 6)
	r.Flags.Set(FlagRefreshWindowSpaces)
	r.Tick(t0)

	if got := r.Store.Windows.Get(10).Space; got != 6 {
		t.Errorf("window space = %d, want 6", got)
	}
	bucket := r.Store.Windows.ForSpace(6)
	if len(bucket) != 1 || bucket[0] != 10 {
		t.Errorf("space 6 bucket = %v, want [10]", bucket)
	}
}

func TestProcessFocus_TracksUnknownWindow(t *testing.T) {
	r, fake := newFixture(t, nil)
	addAppWindows(t, r, fake, 9, 10)

	// A second window the store never saw becomes focused.
	fake.AddWindow(platform.WindowInfo{ID: 77, PID: 9, App: "TestApp"}, 5)
	fake.FocusWindow(77)
	r.HandleEvent(platform.Event{Kind: platform.EventAppFrontSwitched, PID: 9}, t0)
	r.Tick(t0)

	if !r.Store.Windows.Has(77) {
		t.Error("newly focused window not adopted")
	}
	if r.Store.FocusedWindow != 77 {
		t.Errorf("focused = %d, want 77", r.Store.FocusedWindow)
	}
}

func TestDeferredMoves_GiveUpAfterTimeout(t *testing.T) {
	r, _ := newFixture(t, nil)
	r.pendingMovesTime.Store(t0.UnixNano())
	r.pendingMoves.Store(true)
	r.SA.(*platform.Fake).SetSALoaded(false)

	r.Tick(t0.Add(time.Second))
	if !r.pendingMoves.Load() {
		t.Fatal("gave up too early")
	}

	r.Tick(t0.Add(6 * time.Second))
	if r.pendingMoves.Load() {
		t.Error("deferred moves not abandoned after 5 s")
	}
}

func TestDirtyBounds(t *testing.T) {
	var ds DirtySpaces
	for i := 0; i < 40; i++ {
		ds.Push(platform.SpaceID(i % 4))
	}
	if ds.Len() != 4 {
		t.Errorf("dedup failed: len = %d", ds.Len())
	}
	for i := 0; i < 40; i++ {
		ds.Push(platform.SpaceID(100 + i))
	}
	if ds.Len() != 16 {
		t.Errorf("capacity not enforced: len = %d", ds.Len())
	}

	var q PIDQueue
	for i := 0; i < 100; i++ {
		q.Push(platform.PID(i))
	}
	if q.Len() != 32 {
		t.Errorf("queue capacity not enforced: len = %d", q.Len())
	}
	q.Drain()
	if q.Len() != 0 {
		t.Error("drain left entries")
	}
}
