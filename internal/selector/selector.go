// Package selector resolves the symbolic window, space and display
// selectors commands accept into concrete host ids.
package selector

import (
	"strconv"

	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

// indexCutoff separates 1-based index selectors from raw ids: integer
// space and display selectors below this are indices.
const indexCutoff = 100

// SpaceLister is the slice of the platform adapter the resolver needs
// for platform-ordered space lists.
type SpaceLister interface {
	SpacesForDisplay(id platform.DisplayID) ([]platform.SpaceInfo, error)
	CurrentSpace(id platform.DisplayID) (platform.SpaceID, error)
}

// Resolver turns selector strings into ids against the current store.
type Resolver struct {
	Store   *store.Store
	Adapter SpaceLister
}

// New creates a resolver over the given store and adapter.
func New(st *store.Store, adapter SpaceLister) *Resolver {
	return &Resolver{Store: st, Adapter: adapter}
}

// orderedSpaces returns every known space in platform order: displays
// in active-list order, spaces in each display's list order.
func (r *Resolver) orderedSpaces() []platform.SpaceInfo {
	var out []platform.SpaceInfo
	for _, d := range r.Store.Displays.ActiveList() {
		spaces, err := r.Adapter.SpacesForDisplay(d.ID)
		if err != nil {
			continue
		}
		out = append(out, spaces...)
	}
	return out
}

// focusedDisplay returns the display carrying the current space.
func (r *Resolver) focusedDisplay() (platform.DisplayID, bool) {
	if rec := r.Store.Spaces.Get(r.Store.Spaces.Current); rec != nil {
		return rec.Display, true
	}
	return r.Store.Displays.MainID()
}

func parseUint(s string) (uint64, bool) {
	n, err := strconv.ParseUint(s, 10, 64)
	return n, err == nil
}

// Space resolves a space selector.
func (r *Resolver) Space(sel string) (platform.SpaceID, error) {
	st := r.Store
	switch sel {
	case "":
		return 0, wmerr.New(wmerr.InvalidSelector)
	case "focused":
		if st.Spaces.Current == 0 {
			return 0, wmerr.New(wmerr.NoFocusedSpace)
		}
		return st.Spaces.Current, nil
	case "recent":
		if st.Spaces.Last == 0 {
			return 0, wmerr.New(wmerr.SpaceNotFound)
		}
		return st.Spaces.Last, nil
	case "first", "last":
		ordered := r.orderedSpaces()
		if len(ordered) == 0 {
			return 0, wmerr.New(wmerr.SpaceNotFound)
		}
		if sel == "first" {
			return ordered[0].ID, nil
		}
		return ordered[len(ordered)-1].ID, nil
	case "prev", "next":
		ordered := r.orderedSpaces()
		for i, s := range ordered {
			if s.ID == st.Spaces.Current {
				j := i - 1
				if sel == "next" {
					j = i + 1
				}
				if j < 0 || j >= len(ordered) {
					return 0, wmerr.Newf(wmerr.SpaceNotFound, "no %s space", sel)
				}
				return ordered[j].ID, nil
			}
		}
		return 0, wmerr.New(wmerr.NoFocusedSpace)
	}

	if n, ok := parseUint(sel); ok {
		// Small integers are 1-based mission-control indices, large
		// ones raw space ids.
		if n < indexCutoff {
			ordered := r.orderedSpaces()
			if n < 1 || int(n) > len(ordered) {
				return 0, wmerr.Newf(wmerr.SpaceNotFound, "index %d out of range", n)
			}
			return ordered[n-1].ID, nil
		}
		id := platform.SpaceID(n)
		if !st.Spaces.Has(id) {
			return 0, wmerr.Newf(wmerr.SpaceNotFound, "id %d", n)
		}
		return id, nil
	}

	if id, ok := st.Spaces.ByLabel(sel); ok {
		return id, nil
	}
	return 0, wmerr.Newf(wmerr.SpaceNotFound, "label %q", sel)
}

// Display resolves a display selector.
func (r *Resolver) Display(sel string) (platform.DisplayID, error) {
	st := r.Store
	active := st.Displays.ActiveList()
	if len(active) == 0 {
		return 0, wmerr.New(wmerr.DisplayNotFound)
	}

	switch sel {
	case "", "focused":
		id, ok := r.focusedDisplay()
		if !ok {
			return 0, wmerr.New(wmerr.DisplayNotFound)
		}
		return id, nil
	case "first":
		return active[0].ID, nil
	case "last":
		return active[len(active)-1].ID, nil
	case "recent":
		if rec := st.Spaces.Get(st.Spaces.Last); rec != nil {
			return rec.Display, nil
		}
		return 0, wmerr.New(wmerr.DisplayNotFound)
	case "prev", "next":
		cur, ok := r.focusedDisplay()
		if !ok {
			return 0, wmerr.New(wmerr.DisplayNotFound)
		}
		idx := st.Displays.IndexOf(cur)
		if idx == 0 {
			return 0, wmerr.New(wmerr.DisplayNotFound)
		}
		j := idx - 1
		if sel == "next" {
			j = idx + 1
		}
		d, ok := st.Displays.ByIndex(j)
		if !ok {
			return 0, wmerr.Newf(wmerr.DisplayNotFound, "no %s display", sel)
		}
		return d.ID, nil
	case "north", "south", "east", "west":
		cur, ok := r.focusedDisplay()
		if !ok {
			return 0, wmerr.New(wmerr.DisplayNotFound)
		}
		return r.directionalDisplay(cur, sel)
	}

	if n, ok := parseUint(sel); ok {
		if n < indexCutoff {
			d, ok := st.Displays.ByIndex(int(n))
			if !ok {
				return 0, wmerr.Newf(wmerr.DisplayNotFound, "index %d out of range", n)
			}
			return d.ID, nil
		}
		id := platform.DisplayID(n)
		if _, ok := st.Displays.Get(id); !ok {
			return 0, wmerr.Newf(wmerr.DisplayNotFound, "id %d", n)
		}
		return id, nil
	}

	if id, ok := st.Displays.ByLabel(sel); ok {
		return id, nil
	}
	return 0, wmerr.Newf(wmerr.DisplayNotFound, "label %q", sel)
}

func (r *Resolver) directionalDisplay(from platform.DisplayID, dir string) (platform.DisplayID, error) {
	origin, ok := r.Store.Displays.Get(from)
	if !ok {
		return 0, wmerr.New(wmerr.DisplayNotFound)
	}
	oc := origin.Frame.Center()

	best := platform.DisplayID(0)
	bestDist := 0.0
	for _, d := range r.Store.Displays.ActiveList() {
		if d.ID == from {
			continue
		}
		c := d.Frame.Center()
		if !inDirection(oc.X, oc.Y, c.X, c.Y, dir) {
			continue
		}
		dist := oc.DistanceSq(c)
		if best == 0 || dist < bestDist || (dist == bestDist && d.ID < best) {
			best = d.ID
			bestDist = dist
		}
	}
	if best == 0 {
		return 0, wmerr.Newf(wmerr.DisplayNotFound, "no display to the %s", dir)
	}
	return best, nil
}

// inDirection reports whether (x,y) lies in the given direction's
// half-plane relative to (ox,oy). North is up in screen coordinates.
func inDirection(ox, oy, x, y float64, dir string) bool {
	switch dir {
	case "north":
		return y < oy
	case "south":
		return y > oy
	case "east":
		return x > ox
	case "west":
		return x < ox
	}
	return false
}
