package selector

import (
	"errors"
	"testing"

	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

// fixture: one display, two spaces, four windows laid out in a
// 2x2 arrangement on the current space.
//
//	10 | 20
//	-------
//	30 | 40
func newResolver(t *testing.T) (*Resolver, *platform.Fake) {
	t.Helper()
	st := store.New()
	fake := platform.NewFake()
	fake.AddDisplay(platform.DisplayInfo{ID: 1, Frame: geometry.Rect{Width: 1000, Height: 1000}, Main: true, Builtin: true})
	fake.AddSpace(platform.SpaceInfo{ID: 5, Kind: platform.SpaceUser, Display: 1})
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})

	active, _ := fake.ActiveDisplayList()
	st.Displays.Refresh(active)
	st.Spaces.Put(&store.SpaceRecord{ID: 5, Kind: platform.SpaceUser, Display: 1})
	st.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})
	st.Spaces.SetCurrent(5)

	frames := []struct {
		id    platform.WindowID
		frame geometry.Rect
	}{
		{10, geometry.Rect{X: 0, Y: 0, Width: 500, Height: 500}},
		{20, geometry.Rect{X: 500, Y: 0, Width: 500, Height: 500}},
		{30, geometry.Rect{X: 0, Y: 500, Width: 500, Height: 500}},
		{40, geometry.Rect{X: 500, Y: 500, Width: 500, Height: 500}},
	}
	for _, w := range frames {
		st.Windows.Add(&store.WindowRecord{ID: w.id, PID: 1, Space: 5, Frame: w.frame})
	}
	st.SetFocused(10)
	return New(st, fake), fake
}

func TestWindow_Directional(t *testing.T) {
	r, _ := newResolver(t)

	tests := []struct {
		sel  string
		want platform.WindowID
	}{
		{"east", 20},
		{"south", 30},
	}
	for _, tt := range tests {
		got, err := r.Window(tt.sel)
		if err != nil {
			t.Fatalf("%s: %v", tt.sel, err)
		}
		if got != tt.want {
			t.Errorf("%s = %d, want %d", tt.sel, got, tt.want)
		}
	}

	if _, err := r.Window("west"); err == nil {
		t.Error("west from the left column should fail")
	}
	if _, err := r.Window("north"); err == nil {
		t.Error("north from the top row should fail")
	}
}

// East must return a window whose center-x strictly exceeds the
// origin's.
func TestWindow_DirectionalMonotonic(t *testing.T) {
	r, _ := newResolver(t)

	origin := r.Store.Windows.Get(10).Frame.Center()
	id, err := r.Window("east")
	if err != nil {
		t.Fatalf("east: %v", err)
	}
	if c := r.Store.Windows.Get(id).Frame.Center(); c.X <= origin.X {
		t.Errorf("east center-x %v not strictly greater than %v", c.X, origin.X)
	}
}

func TestWindow_FocusedAndID(t *testing.T) {
	r, _ := newResolver(t)

	if got, _ := r.Window("focused"); got != 10 {
		t.Errorf("focused = %d, want 10", got)
	}
	if got, _ := r.Window("40"); got != 40 {
		t.Errorf("id selector = %d, want 40", got)
	}
	if _, err := r.Window("999"); err == nil {
		t.Error("unknown id should fail")
	}
}

func TestWindow_StackNeighbors(t *testing.T) {
	r, _ := newResolver(t)

	next, err := r.Window("stack.next")
	if err != nil {
		t.Fatalf("stack.next: %v", err)
	}
	if next != 20 {
		t.Errorf("stack.next = %d, want 20", next)
	}

	prev, err := r.Window("stack.prev")
	if err != nil {
		t.Fatalf("stack.prev: %v", err)
	}
	// Wraps to the tail.
	if prev != 40 {
		t.Errorf("stack.prev = %d, want 40", prev)
	}
}

func TestWindow_Recent(t *testing.T) {
	r, _ := newResolver(t)
	r.Store.SetFocused(20)

	got, err := r.Window("recent")
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if got != 10 {
		t.Errorf("recent = %d, want 10", got)
	}
}

func TestWindow_LargestSmallest(t *testing.T) {
	r, _ := newResolver(t)
	r.Store.Windows.Get(40).Frame = geometry.Rect{X: 500, Y: 500, Width: 100, Height: 100}

	if got, _ := r.Window("smallest"); got != 40 {
		t.Errorf("smallest = %d, want 40", got)
	}
	if got, _ := r.Window("largest"); got == 40 {
		t.Error("largest should not be the shrunken window")
	}
}

func TestSpace_IndexAndID(t *testing.T) {
	r, _ := newResolver(t)

	// Small integers are 1-based indices.
	if got, _ := r.Space("2"); got != 6 {
		t.Errorf("index 2 = %d, want 6", got)
	}
	// Large integers are raw ids; these spaces have small ids so the
	// lookup must fail.
	if _, err := r.Space("12345"); err == nil {
		t.Error("unknown raw id should fail")
	}
	if got, _ := r.Space("focused"); got != 5 {
		t.Errorf("focused = %d, want 5", got)
	}
}

func TestSpace_PrevNextLabel(t *testing.T) {
	r, _ := newResolver(t)
	r.Store.Spaces.SetLabel(6, "web")

	if got, _ := r.Space("next"); got != 6 {
		t.Errorf("next = %d, want 6", got)
	}
	if _, err := r.Space("prev"); err == nil {
		t.Error("prev from the first space should fail")
	}
	if got, _ := r.Space("web"); got != 6 {
		t.Errorf("label = %d, want 6", got)
	}

	var werr *wmerr.Error
	_, err := r.Space("nosuchlabel")
	if !errors.As(err, &werr) || werr.Code != wmerr.SpaceNotFound {
		t.Errorf("unknown label error = %v, want space_not_found", err)
	}
}

func TestSpace_Recent(t *testing.T) {
	r, _ := newResolver(t)
	r.Store.Spaces.SetCurrent(6)

	if got, _ := r.Space("recent"); got != 5 {
		t.Errorf("recent = %d, want 5", got)
	}
}

func TestDisplay_Selectors(t *testing.T) {
	r, fake := newResolver(t)
	fake.AddDisplay(platform.DisplayInfo{ID: 2, Frame: geometry.Rect{X: 1000, Width: 800, Height: 600}})
	active, _ := fake.ActiveDisplayList()
	r.Store.Displays.Refresh(active)
	r.Store.Displays.SetLabel(2, "ext")

	if got, _ := r.Display("focused"); got != 1 {
		t.Errorf("focused display = %d, want 1", got)
	}
	if got, _ := r.Display("2"); got != 2 {
		t.Errorf("index 2 = %d, want display 2", got)
	}
	if got, _ := r.Display("ext"); got != 2 {
		t.Errorf("label = %d, want 2", got)
	}
	if got, _ := r.Display("east"); got != 2 {
		t.Errorf("east = %d, want 2", got)
	}
	if _, err := r.Display("west"); err == nil {
		t.Error("west from the leftmost display should fail")
	}
	if got, _ := r.Display("next"); got != 2 {
		t.Errorf("next = %d, want 2", got)
	}
}
