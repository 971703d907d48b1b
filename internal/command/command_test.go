package command

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

var t0 = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newDispatcher(t *testing.T) (*Dispatcher, *platform.Fake) {
	t.Helper()
	cfg := config.Default()
	fake := platform.NewFake()
	fake.AddDisplay(platform.DisplayInfo{
		ID:      1,
		Frame:   geometry.Rect{Width: 1000, Height: 1000},
		Builtin: true,
		Main:    true,
	})
	fake.AddSpace(platform.SpaceInfo{ID: 5, Kind: platform.SpaceUser, Display: 1})

	rec := reconciler.New(store.New(), fake, fake, cfg)
	rec.Planner.Sleep = func(time.Duration) {}

	active, _ := fake.ActiveDisplayList()
	rec.Store.Displays.Refresh(active)
	rec.Store.Spaces.Put(&store.SpaceRecord{ID: 5, Kind: platform.SpaceUser, Display: 1})
	rec.Store.Spaces.SetCurrent(5)

	return NewDispatcher(rec), fake
}

func addWindows(t *testing.T, d *Dispatcher, fake *platform.Fake, ids ...platform.WindowID) {
	t.Helper()
	for i, id := range ids {
		frame := geometry.Rect{X: float64(i) * 100, Width: 100, Height: 100}
		fake.AddWindow(platform.WindowInfo{ID: id, PID: 7, App: "App", Frame: frame}, 5)
		d.Store.Windows.Add(&store.WindowRecord{ID: id, PID: 7, Space: 5, App: "App", Frame: frame, Opacity: 1})
	}
}

func codeOf(t *testing.T, resp Response) wmerr.Code {
	t.Helper()
	if resp.Err == nil {
		t.Fatal("expected an error response")
	}
	var e *wmerr.Error
	if !errors.As(resp.Err, &e) {
		t.Fatalf("error %v carries no code", resp.Err)
	}
	return e.Code
}

func TestExecute_ErrorTaxonomy(t *testing.T) {
	d, _ := newDispatcher(t)

	tests := []struct {
		name string
		argv []string
		want wmerr.Code
	}{
		{"empty", nil, wmerr.EmptyCommand},
		{"bad domain", []string{"volume", "--up"}, wmerr.UnknownDomain},
		{"bad verb", []string{"window", "focused", "--frobnicate"}, wmerr.UnknownCommand},
		{"missing arg", []string{"window", "focused", "--swap"}, wmerr.MissingArgument},
		{"no focus", []string{"window", "focused", "--focus"}, wmerr.NoFocusedWindow},
		{"unknown window", []string{"window", "424242", "--focus"}, wmerr.WindowNotFound},
		{"bad space label", []string{"space", "nope", "--focus"}, wmerr.SpaceNotFound},
		{"bad config key", []string{"config", "get", "shadow_quality"}, wmerr.InvalidArgument},
	}
	for _, tt := range tests {
		if got := codeOf(t, d.Execute(tt.argv)); got != tt.want {
			t.Errorf("%s: code = %s, want %s", tt.name, got, tt.want)
		}
	}
}

// Swap exchanges tiling order; re-layout puts the swapped window into
// the other's former rectangle.
func TestWindowSwap(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100, 200, 300)
	d.Rec.LayoutSpace(5)
	frame100 := d.Store.Windows.Get(100).Frame

	resp := d.Execute([]string{"window", "100", "--swap", "300"})
	if resp.Err != nil {
		t.Fatalf("swap: %v", resp.Err)
	}

	order := d.Store.Windows.ForSpace(5)
	want := []platform.WindowID{300, 200, 100}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}

	d.Rec.Tick(t0)
	if got := d.Store.Windows.Get(300).Frame; got != frame100 {
		t.Errorf("window 300 frame = %+v, want 100's old rect %+v", got, frame100)
	}
}

func TestWindowSwap_MismatchedSpace(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100, 200)
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})
	d.Store.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})
	d.Store.Windows.SetSpace(200, 6)

	resp := d.Execute([]string{"window", "100", "--swap", "200"})
	if got := codeOf(t, resp); got != wmerr.WindowNotFound {
		t.Errorf("code = %s, want window_not_found", got)
	}
}

func TestWindowWarp(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100, 200, 300)
	d.Rec.LayoutSpace(5)

	resp := d.Execute([]string{"window", "300", "--warp", "100"})
	if resp.Err != nil {
		t.Fatalf("warp: %v", resp.Err)
	}
	v := d.Store.Spaces.View(5)
	if v == nil {
		t.Fatal("view missing")
	}
	if sib, ok := v.Sibling(300); !ok || sib != 100 {
		t.Errorf("sibling of 300 = %d, %v; want 100", sib, ok)
	}
}

func TestWindowToSpace(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100)
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})
	d.Store.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})
	d.Store.Spaces.SetLabel(6, "web")

	resp := d.Execute([]string{"window", "100", "--space", "web"})
	if resp.Err != nil {
		t.Fatalf("move: %v", resp.Err)
	}
	if got := d.Store.Windows.Get(100).Space; got != 6 {
		t.Errorf("window space = %d, want 6", got)
	}
	if hostSpace, _ := fake.WindowSpace(100); hostSpace != 6 {
		t.Errorf("platform membership = %d, want 6", hostSpace)
	}
}

func TestWindowToggle_SANotLoaded(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100)
	fake.SetSALoaded(false)

	for _, flag := range []string{"sticky", "shadow"} {
		resp := d.Execute([]string{"window", "100", "--toggle", flag})
		if got := codeOf(t, resp); got != wmerr.SANotLoaded {
			t.Errorf("%s: code = %s, want sa_not_loaded", flag, got)
		}
	}

	// float does not need the SA channel.
	resp := d.Execute([]string{"window", "100", "--toggle", "float"})
	if resp.Err != nil {
		t.Fatalf("float toggle: %v", resp.Err)
	}
	if !d.Store.Windows.Get(100).Floating {
		t.Error("float flag not set")
	}
}

// space --create focused --focus --take: the new space appears, the
// previously focused window moves there and becomes current.
func TestSpaceCreate_TakeAndFocus(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100)
	d.Store.SetFocused(100)

	resp := d.Execute([]string{"space", "focused", "--create", "--focus", "--take"})
	if resp.Err != nil {
		t.Fatalf("create: %v", resp.Err)
	}

	w := d.Store.Windows.Get(100)
	if w.Space == 5 {
		t.Fatal("window did not move to the new space")
	}
	newSpace := w.Space

	cur, err := fake.CurrentSpace(1)
	if err != nil || cur != newSpace {
		t.Errorf("current space = %d, want %d", cur, newSpace)
	}
	if d.Store.Spaces.Current != newSpace {
		t.Errorf("store current = %d, want %d", d.Store.Spaces.Current, newSpace)
	}
}

// With a host that does not return the new id, creation resolves it
// by polling the display space list.
func TestSpaceCreate_AsyncIDResolution(t *testing.T) {
	d, fake := newDispatcher(t)
	fake.SetAsyncSpaceIDs(true)

	before, _ := fake.SpacesForDisplay(1)
	resp := d.Execute([]string{"space", "--create", "focused"})
	if resp.Err != nil {
		t.Fatalf("create: %v", resp.Err)
	}
	after, _ := fake.SpacesForDisplay(1)
	if len(after) != len(before)+1 {
		t.Fatalf("space count %d, want %d", len(after), len(before)+1)
	}
	// The polled id must be tracked.
	newID := after[len(after)-1].ID
	if !d.Store.Spaces.Has(newID) {
		t.Errorf("polled space %d not tracked", newID)
	}
}

func TestSpaceDestroy_EvacuatesFirst(t *testing.T) {
	d, fake := newDispatcher(t)
	fake.AddSpace(platform.SpaceInfo{ID: 6, Kind: platform.SpaceUser, Display: 1})
	d.Store.Spaces.Put(&store.SpaceRecord{ID: 6, Kind: platform.SpaceUser, Display: 1})
	addWindows(t, d, fake, 100)
	d.Store.Windows.SetSpace(100, 6)
	fake.MoveWindowToSpace(100, 6)

	// Index 2 on display 1 is space 6.
	resp := d.Execute([]string{"space", "2", "--destroy"})
	if resp.Err != nil {
		t.Fatalf("destroy: %v", resp.Err)
	}
	if d.Store.Spaces.Has(6) {
		t.Error("space survived")
	}
	if got := d.Store.Windows.Get(100).Space; got != 5 {
		t.Errorf("evacuated window on %d, want 5", got)
	}
}

func TestSpaceLabel_RoundTrip(t *testing.T) {
	d, _ := newDispatcher(t)

	if resp := d.Execute([]string{"space", "1", "--label", "code"}); resp.Err != nil {
		t.Fatalf("label: %v", resp.Err)
	}
	if resp := d.Execute([]string{"space", "code", "--focus"}); resp.Err != nil {
		t.Fatalf("focus by label: %v", resp.Err)
	}
}

func TestConfig_GetSet(t *testing.T) {
	d, _ := newDispatcher(t)

	if resp := d.Execute([]string{"config", "set", "split_ratio", "0.6"}); resp.Err != nil {
		t.Fatalf("set: %v", resp.Err)
	}
	resp := d.Execute([]string{"config", "get", "split_ratio"})
	if resp.Err != nil {
		t.Fatalf("get: %v", resp.Err)
	}
	if string(resp.Payload) != "0.6\n" {
		t.Errorf("payload = %q, want 0.6", resp.Payload)
	}

	// Layout-affecting keys mark the current space dirty.
	if !d.Rec.Flags.Has(reconciler.FlagLayoutCurrent) {
		t.Error("layout key did not mark layout dirty")
	}

	// Out-of-range values are rejected.
	resp = d.Execute([]string{"config", "set", "split_ratio", "0.95"})
	if got := codeOf(t, resp); got != wmerr.InvalidValue {
		t.Errorf("code = %s, want invalid_value", got)
	}
}

func TestQueryWindows_JSON(t *testing.T) {
	d, fake := newDispatcher(t)
	addWindows(t, d, fake, 100, 200)
	d.Store.SetFocused(100)

	resp := d.Execute([]string{"query", "--windows"})
	if resp.Err != nil {
		t.Fatalf("query: %v", resp.Err)
	}
	if resp.Payload[len(resp.Payload)-1] != '\n' {
		t.Error("query output must end with a newline")
	}

	var out []map[string]interface{}
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("got %d windows, want 2", len(out))
	}
	for _, w := range out {
		for _, key := range []string{"id", "pid", "app", "frame", "space", "has-focus", "is-floating"} {
			if _, ok := w[key]; !ok {
				t.Errorf("window entry missing %q", key)
			}
		}
	}
}

func TestQuerySpaces_JSON(t *testing.T) {
	d, _ := newDispatcher(t)
	d.Store.Spaces.SetLabel(5, "code")

	resp := d.Execute([]string{"query", "--spaces"})
	if resp.Err != nil {
		t.Fatalf("query: %v", resp.Err)
	}
	var out []map[string]interface{}
	if err := json.Unmarshal(resp.Payload, &out); err != nil {
		t.Fatalf("bad JSON: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("got %d spaces, want 1", len(out))
	}
	if out[0]["label"] != "code" {
		t.Errorf("label = %v, want code", out[0]["label"])
	}
	if out[0]["is-visible"] != true {
		t.Error("current space should be visible")
	}
}

func TestRuleAddList(t *testing.T) {
	d, _ := newDispatcher(t)

	resp := d.Execute([]string{"rule", "--add", "app=Browser", "space=web", "opacity=0.9"})
	if resp.Err != nil {
		t.Fatalf("add: %v", resp.Err)
	}
	rules := d.Rec.Rules().Rules()
	if len(rules) != 1 || rules[0].App != "Browser" || rules[0].Space != "web" {
		t.Errorf("rules = %+v", rules)
	}

	resp = d.Execute([]string{"rule", "--add", "space=web"})
	if got := codeOf(t, resp); got != wmerr.MissingArgument {
		t.Errorf("missing app: code = %s", got)
	}

	resp = d.Execute([]string{"rule", "--remove", "0"})
	if resp.Err != nil {
		t.Fatalf("remove: %v", resp.Err)
	}
	if len(d.Rec.Rules().Rules()) != 0 {
		t.Error("rule not removed")
	}
}
