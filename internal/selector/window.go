package selector

import (
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/wmerr"
)

// Window resolves a window selector. Directional selectors operate on
// the focused window's space; first/last/largest/smallest operate on
// the current space's tiling order.
func (r *Resolver) Window(sel string) (platform.WindowID, error) {
	st := r.Store

	switch sel {
	case "":
		return 0, wmerr.New(wmerr.InvalidSelector)
	case "focused":
		if st.FocusedWindow == 0 || !st.Windows.Has(st.FocusedWindow) {
			return 0, wmerr.New(wmerr.NoFocusedWindow)
		}
		return st.FocusedWindow, nil
	case "recent":
		if st.LastFocused == 0 || !st.Windows.Has(st.LastFocused) {
			return 0, wmerr.New(wmerr.WindowNotFound)
		}
		return st.LastFocused, nil
	case "first", "last":
		ids := st.Windows.TileableForSpace(st.Spaces.Current)
		if len(ids) == 0 {
			return 0, wmerr.New(wmerr.WindowNotFound)
		}
		if sel == "first" {
			return ids[0], nil
		}
		return ids[len(ids)-1], nil
	case "largest", "smallest":
		return r.extremeWindow(sel == "largest")
	case "north", "south", "east", "west":
		return r.directionalWindow(sel)
	case "sibling":
		focused, err := r.Window("focused")
		if err != nil {
			return 0, err
		}
		w := st.Windows.Get(focused)
		v := st.Spaces.View(w.Space)
		if v == nil {
			return 0, wmerr.New(wmerr.WindowNotFound)
		}
		sib, ok := v.Sibling(focused)
		if !ok {
			return 0, wmerr.Newf(wmerr.WindowNotFound, "window %d has no sibling", focused)
		}
		return sib, nil
	case "stack.next", "stack.prev":
		return r.stackNeighbor(sel == "stack.next")
	}

	if n, ok := parseUint(sel); ok {
		id := platform.WindowID(n)
		if !st.Windows.Has(id) {
			return 0, wmerr.Newf(wmerr.WindowNotFound, "id %d", n)
		}
		return id, nil
	}
	return 0, wmerr.Newf(wmerr.InvalidSelector, "%q", sel)
}

func (r *Resolver) extremeWindow(largest bool) (platform.WindowID, error) {
	st := r.Store
	ids := st.Windows.TileableForSpace(st.Spaces.Current)
	best := platform.WindowID(0)
	bestArea := 0.0
	for _, id := range ids {
		w := st.Windows.Get(id)
		area := w.Frame.Width * w.Frame.Height
		better := area > bestArea
		if !largest {
			better = area < bestArea
		}
		if best == 0 || better || (area == bestArea && id < best) {
			best = id
			bestArea = area
		}
	}
	if best == 0 {
		return 0, wmerr.New(wmerr.WindowNotFound)
	}
	return best, nil
}

// directionalWindow picks the nearest window by center-to-center
// distance in the given direction, within the focused window's space.
// Ties break toward the smaller id.
func (r *Resolver) directionalWindow(dir string) (platform.WindowID, error) {
	st := r.Store
	focused, err := r.Window("focused")
	if err != nil {
		return 0, err
	}
	origin := st.Windows.Get(focused)
	oc := origin.Frame.Center()

	best := platform.WindowID(0)
	bestDist := 0.0
	for _, id := range st.Windows.TileableForSpace(origin.Space) {
		if id == focused {
			continue
		}
		c := st.Windows.Get(id).Frame.Center()
		if !inDirection(oc.X, oc.Y, c.X, c.Y, dir) {
			continue
		}
		dist := oc.DistanceSq(c)
		if best == 0 || dist < bestDist || (dist == bestDist && id < best) {
			best = id
			bestDist = dist
		}
	}
	if best == 0 {
		return 0, wmerr.Newf(wmerr.WindowNotFound, "no window to the %s", dir)
	}
	return best, nil
}

// stackNeighbor walks the tiling order of the focused window's space,
// wrapping at the ends.
func (r *Resolver) stackNeighbor(next bool) (platform.WindowID, error) {
	st := r.Store
	focused, err := r.Window("focused")
	if err != nil {
		return 0, err
	}
	w := st.Windows.Get(focused)
	ids := st.Windows.TileableForSpace(w.Space)
	if len(ids) < 2 {
		return 0, wmerr.New(wmerr.WindowNotFound)
	}
	for i, id := range ids {
		if id == focused {
			j := i - 1
			if next {
				j = i + 1
			}
			j = (j + len(ids)) % len(ids)
			return ids[j], nil
		}
	}
	return 0, wmerr.New(wmerr.WindowNotFound)
}
