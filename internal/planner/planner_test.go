package planner

import (
	"testing"
	"time"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/rules"
	"github.com/yourusername/skyline/internal/store"
)

// newPlanner wires a planner over a fake host. TrackApp adopts the
// fake's windows straight into the store.
func newPlanner(t *testing.T, cfg *config.Config, fake *platform.Fake) (*Planner, *store.Store) {
	t.Helper()
	st := store.New()
	p := &Planner{
		Store:   st,
		Adapter: fake,
		SA:      fake,
		Config:  cfg,
		Rules:   rules.NewEngine(cfg.Rules),
		Sleep:   func(time.Duration) {},
	}
	p.TrackApp = func(a platform.AppInfo) {
		st.Apps.Add(&store.AppRecord{PID: a.PID, Name: a.Name})
		windows, err := fake.WindowsForApp(a.PID)
		if err != nil {
			return
		}
		for _, w := range windows {
			space, _ := fake.WindowSpace(w.ID)
			st.Windows.Add(&store.WindowRecord{
				ID: w.ID, PID: w.PID, Space: space, App: w.App, Frame: w.Frame,
			})
		}
	}
	return p, st
}

func singleDisplayHost() *platform.Fake {
	fake := platform.NewFake()
	fake.AddDisplay(platform.DisplayInfo{
		ID:      1,
		Frame:   geometry.Rect{Width: 1920, Height: 1080},
		Builtin: true,
		Main:    true,
	})
	fake.AddSpace(platform.SpaceInfo{ID: 10, Kind: platform.SpaceUser, Display: 1})
	return fake
}

// Labels whose display is absent land on display index one.
func TestSync_AbsentDisplayFallsBack(t *testing.T) {
	cfg := config.Default()
	cfg.Displays = []config.DisplayConfig{
		{Label: "main", Kind: "builtin"},
		{Label: "ext", Kind: "external"},
	}
	cfg.Spaces = []config.SpaceConfig{
		{Name: "code", Display: "main"},
		{Name: "web", Display: "ext"},
	}

	fake := singleDisplayHost()
	p, st := newPlanner(t, cfg, fake)

	res, err := p.Sync(TriggerStartup)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.CreatedSpaces != 1 {
		t.Errorf("created %d spaces, want 1 (two labels, one space)", res.CreatedSpaces)
	}

	codeID, ok := st.Spaces.ByLabel("code")
	if !ok {
		t.Fatal("code label unassigned")
	}
	webID, ok := st.Spaces.ByLabel("web")
	if !ok {
		t.Fatal("web label unassigned")
	}
	if st.Spaces.Get(codeID).Display != 1 || st.Spaces.Get(webID).Display != 1 {
		t.Error("both labels must land on the only display")
	}
	if codeID == webID {
		t.Error("labels share a space")
	}
}

// Reconnecting the external display triggers re-labeling and rule
// moves onto it.
func TestSync_DisplayReconnectMovesWindows(t *testing.T) {
	cfg := config.Default()
	cfg.Displays = []config.DisplayConfig{
		{Label: "main", Kind: "builtin"},
		{Label: "ext", Kind: "external"},
	}
	cfg.Spaces = []config.SpaceConfig{
		{Name: "code", Display: "main"},
		{Name: "web", Display: "ext"},
	}
	cfg.Rules = []config.Rule{{App: "Browser", Space: "web"}}

	fake := singleDisplayHost()
	fake.AddWindow(platform.WindowInfo{ID: 100, PID: 50, App: "Browser"}, 10)
	p, st := newPlanner(t, cfg, fake)

	if _, err := p.Sync(TriggerStartup); err != nil {
		t.Fatalf("startup sync: %v", err)
	}

	// External display appears with its own space.
	fake.AddDisplay(platform.DisplayInfo{
		ID:    2,
		Frame: geometry.Rect{X: 1920, Width: 2560, Height: 1440},
	})
	fake.AddSpace(platform.SpaceInfo{ID: 20, Kind: platform.SpaceUser, Display: 2})

	if _, err := p.Sync(TriggerDisplayChange); err != nil {
		t.Fatalf("display change sync: %v", err)
	}

	webID, ok := st.Spaces.ByLabel("web")
	if !ok {
		t.Fatal("web label unassigned after reconnect")
	}
	if got := st.Spaces.Get(webID).Display; got != 2 {
		t.Errorf("web label on display %d, want 2", got)
	}

	w := st.Windows.Get(100)
	if w == nil {
		t.Fatal("browser window lost")
	}
	if w.Space != webID {
		t.Errorf("browser window on space %d, want %d (web)", w.Space, webID)
	}
	if hostSpace, _ := fake.WindowSpace(100); hostSpace != webID {
		t.Errorf("platform membership %d, want %d", hostSpace, webID)
	}
}

// Destroying a non-empty trailing space moves its windows to the
// display's first space before destruction.
func TestSync_DestroyEvacuatesWindows(t *testing.T) {
	cfg := config.Default()
	cfg.Spaces = []config.SpaceConfig{{Name: "one"}}

	fake := singleDisplayHost()
	fake.AddSpace(platform.SpaceInfo{ID: 11, Kind: platform.SpaceUser, Display: 1})
	fake.AddWindow(platform.WindowInfo{ID: 100, PID: 50, App: "App"}, 11)

	p, st := newPlanner(t, cfg, fake)
	res, err := p.Sync(TriggerStartup)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if res.DestroyedSpaces != 1 {
		t.Fatalf("destroyed %d spaces, want 1", res.DestroyedSpaces)
	}

	if st.Spaces.Has(11) {
		t.Error("trailing space survived")
	}
	w := st.Windows.Get(100)
	if w == nil || w.Space != 10 {
		t.Errorf("evacuated window on space %v, want 10", w)
	}
}

// Empty trailing spaces are destroyed before occupied ones.
func TestSync_EmptyTrailingDestroyedFirst(t *testing.T) {
	cfg := config.Default()
	cfg.Spaces = []config.SpaceConfig{{Name: "one"}}

	fake := singleDisplayHost()
	fake.AddWindow(platform.WindowInfo{ID: 100, PID: 50, App: "App"}, 10)
	fake.AddSpace(platform.SpaceInfo{ID: 11, Kind: platform.SpaceUser, Display: 1})

	p, st := newPlanner(t, cfg, fake)
	if _, err := p.Sync(TriggerStartup); err != nil {
		t.Fatalf("sync: %v", err)
	}

	if st.Spaces.Has(11) {
		t.Error("empty trailing space should be the victim")
	}
	if !st.Spaces.Has(10) {
		t.Error("occupied space destroyed instead of the empty one")
	}
	if w := st.Windows.Get(100); w == nil || w.Space != 10 {
		t.Error("window should stay put")
	}
}

// Without the SA channel, window moves defer instead of failing.
func TestMoveWindows_DeferredWithoutSA(t *testing.T) {
	cfg := config.Default()
	cfg.Rules = []config.Rule{{App: "Browser", Space: "web"}}

	fake := singleDisplayHost()
	fake.AddWindow(platform.WindowInfo{ID: 100, PID: 50, App: "Browser"}, 10)
	fake.SetSALoaded(false)

	p, st := newPlanner(t, cfg, fake)
	p.TrackApp(platform.AppInfo{PID: 50, Name: "Browser"})
	st.Spaces.Put(&store.SpaceRecord{ID: 10, Kind: platform.SpaceUser, Display: 1})

	moved, deferred := p.MoveWindowsToMatchLabels()
	if moved != 0 || !deferred {
		t.Errorf("moved=%d deferred=%v, want 0/true", moved, deferred)
	}
}

// Smart labeling keeps a rule-matched window's space and labels it in
// place instead of moving the window.
func TestSync_SmartLabelAvoidsMove(t *testing.T) {
	cfg := config.Default()
	cfg.Spaces = []config.SpaceConfig{{Name: "web"}, {Name: "code"}}
	cfg.Rules = []config.Rule{{App: "Browser", Space: "web"}}

	fake := singleDisplayHost()
	fake.AddSpace(platform.SpaceInfo{ID: 11, Kind: platform.SpaceUser, Display: 1})
	// Browser already lives on the second space.
	fake.AddWindow(platform.WindowInfo{ID: 100, PID: 50, App: "Browser"}, 11)

	p, st := newPlanner(t, cfg, fake)
	res, err := p.Sync(TriggerStartup)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}

	webID, _ := st.Spaces.ByLabel("web")
	if webID != 11 {
		t.Errorf("web label on space %d, want 11 (where the browser sits)", webID)
	}
	if res.MovedWindows != 0 {
		t.Errorf("moved %d windows, want 0", res.MovedWindows)
	}
}
