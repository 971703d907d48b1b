package store

import (
	"testing"

	"github.com/yourusername/skyline/internal/platform"
)

func addWindow(t *testing.T, ws *Windows, id platform.WindowID, pid platform.PID, space platform.SpaceID) {
	t.Helper()
	if !ws.Add(&WindowRecord{ID: id, PID: pid, Space: space}) {
		t.Fatalf("window %d already tracked", id)
	}
}

func TestWindows_AddUpdatesIndices(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 10, 9, 1)
	addWindow(t, ws, 11, 9, 1)

	if got := ws.ForPID(9); len(got) != 2 {
		t.Errorf("by_pid bucket = %v, want 2 entries", got)
	}
	order := ws.ForSpace(1)
	if len(order) != 2 || order[0] != 10 || order[1] != 11 {
		t.Errorf("by_space bucket = %v, want [10 11]", order)
	}
}

func TestWindows_RemoveCleansIndices(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 10, 9, 1)
	addWindow(t, ws, 11, 9, 1)

	ws.Remove(10)
	if ws.Has(10) {
		t.Error("window 10 still tracked")
	}
	if got := ws.ForSpace(1); len(got) != 1 || got[0] != 11 {
		t.Errorf("by_space bucket = %v, want [11]", got)
	}
	if got := ws.ForPID(9); len(got) != 1 {
		t.Errorf("by_pid bucket = %v, want one entry", got)
	}
}

func TestWindows_RemoveAllForPID(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 10, 9, 1)
	addWindow(t, ws, 11, 9, 1)
	addWindow(t, ws, 20, 7, 1)

	removed := ws.RemoveAllForPID(9)
	if len(removed) != 2 {
		t.Fatalf("removed %d windows, want 2", len(removed))
	}
	order := ws.ForSpace(1)
	if len(order) != 1 || order[0] != 20 {
		t.Errorf("by_space bucket = %v, want [20]", order)
	}
	if ws.ForPID(9) != nil && len(ws.ForPID(9)) != 0 {
		t.Errorf("by_pid bucket for 9 should be empty")
	}
}

// set_space round trip: s1 → s2 → s1 restores the original bucket
// contents.
func TestWindows_SetSpaceRoundTrip(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 10, 9, 1)
	addWindow(t, ws, 11, 9, 1)

	before := ws.ForSpace(1)

	ws.SetSpace(10, 2)
	if got := ws.ForSpace(2); len(got) != 1 || got[0] != 10 {
		t.Fatalf("space 2 bucket = %v", got)
	}
	if ws.Get(10).Space != 2 {
		t.Fatalf("record space = %d, want 2", ws.Get(10).Space)
	}

	ws.SetSpace(10, 1)
	after := ws.ForSpace(1)
	set := map[platform.WindowID]bool{}
	for _, id := range after {
		set[id] = true
	}
	for _, id := range before {
		if !set[id] {
			t.Errorf("window %d lost in round trip: %v", id, after)
		}
	}
	if len(after) != len(before) {
		t.Errorf("bucket grew or shrank: %v vs %v", after, before)
	}
}

func TestWindows_SwapOrder(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 100, 1, 5)
	addWindow(t, ws, 200, 1, 5)
	addWindow(t, ws, 300, 1, 5)

	if !ws.SwapOrder(100, 300) {
		t.Fatal("swap failed")
	}
	order := ws.ForSpace(5)
	want := []platform.WindowID{300, 200, 100}
	for i, id := range want {
		if order[i] != id {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestWindows_SwapOrderMismatchedSpace(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 1, 1, 5)
	addWindow(t, ws, 2, 1, 6)

	if ws.SwapOrder(1, 2) {
		t.Error("swap across spaces should fail")
	}
}

func TestWindows_TileableForSpace(t *testing.T) {
	ws := NewWindows()
	addWindow(t, ws, 1, 1, 5)
	addWindow(t, ws, 2, 1, 5)
	addWindow(t, ws, 3, 1, 5)
	addWindow(t, ws, 4, 1, 5)
	addWindow(t, ws, 5, 1, 5)

	ws.SetFlag(2, FlagFloating, true)
	ws.SetFlag(3, FlagMinimized, true)
	ws.SetFlag(4, FlagHidden, true)
	ws.SetFlag(5, FlagSticky, true)

	got := ws.TileableForSpace(5)
	if len(got) != 1 || got[0] != 1 {
		t.Errorf("tileable = %v, want [1]", got)
	}
}

type countingHandle struct {
	releases *int
}

func (h countingHandle) Release() { *h.releases++ }

func TestWindows_HandleReleasedOnRemove(t *testing.T) {
	ws := NewWindows()
	releases := 0
	ws.Add(&WindowRecord{ID: 1, PID: 1, Space: 1, Handle: countingHandle{&releases}})

	ws.Remove(1)
	if releases != 1 {
		t.Errorf("handle released %d times, want 1", releases)
	}
}

func TestWindows_DuplicateAddReleasesHandle(t *testing.T) {
	ws := NewWindows()
	releases := 0
	ws.Add(&WindowRecord{ID: 1, PID: 1, Space: 1})
	if ws.Add(&WindowRecord{ID: 1, PID: 1, Space: 1, Handle: countingHandle{&releases}}) {
		t.Fatal("duplicate add should report false")
	}
	if releases != 1 {
		t.Errorf("duplicate handle released %d times, want 1", releases)
	}
}
