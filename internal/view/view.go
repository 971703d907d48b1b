package view

import (
	"fmt"

	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
)

// Mode selects how a view arranges its windows.
type Mode string

const (
	ModeBSP   Mode = "bsp"
	ModeStack Mode = "stack"
	ModeFloat Mode = "float"
)

// View is the layout tree for one space. BSP views keep a binary
// tree of window ids; stack and float views carry no structure beyond
// the store's tiling order.
type View struct {
	mode Mode
	root *node

	// splitRatio seeds every new split.
	splitRatio float64
}

// New creates an empty view.
func New(mode Mode, splitRatio float64) *View {
	return &View{
		mode:       mode,
		splitRatio: clampRatio(splitRatio),
	}
}

// Mode returns the view's layout mode.
func (v *View) Mode() Mode { return v.mode }

// SetMode changes the layout mode. Switching away from BSP keeps the
// tree so a switch back restores the arrangement.
func (v *View) SetMode(mode Mode) { v.mode = mode }

// Len returns the number of windows the view holds.
func (v *View) Len() int {
	if v.root == nil {
		return 0
	}
	return len(v.root.leaves(nil))
}

// Leaves returns the window ids in tree order.
func (v *View) Leaves() []platform.WindowID {
	if v.root == nil {
		return nil
	}
	return v.root.leaves(nil)
}

// Contains reports whether the view holds a window.
func (v *View) Contains(id platform.WindowID) bool {
	return v.root.findLeaf(id) != nil
}

// Insert attaches a window next to the given anchor window. When the
// anchor is absent (or zero), the first leaf is split instead. The
// new leaf takes half the sibling's rect; the split runs
// perpendicular to the parent's.
func (v *View) Insert(id, anchor platform.WindowID) {
	if v.root.findLeaf(id) != nil {
		return
	}

	if v.root == nil {
		v.root = &node{window: id}
		return
	}

	target := v.root.findLeaf(anchor)
	if target == nil {
		target = v.root.firstLeaf()
	}
	target.split(id, v.splitRatio)
}

// Remove drops a window's leaf, promoting its sibling.
func (v *View) Remove(id platform.WindowID) bool {
	leaf := v.root.findLeaf(id)
	if leaf == nil {
		return false
	}
	v.root = removeLeaf(v.root, leaf)
	return true
}

// Swap exchanges the window ids of two leaves in place.
func (v *View) Swap(a, b platform.WindowID) error {
	la := v.root.findLeaf(a)
	lb := v.root.findLeaf(b)
	if la == nil || lb == nil {
		return fmt.Errorf("window not in view")
	}
	la.window, lb.window = lb.window, la.window
	return nil
}

// Warp relocates window a to become the sibling of window b: a's leaf
// is removed and b's leaf is split to host it.
func (v *View) Warp(a, b platform.WindowID) error {
	if a == b {
		return nil
	}
	if v.root.findLeaf(a) == nil || v.root.findLeaf(b) == nil {
		return fmt.Errorf("window not in view")
	}
	v.Remove(a)
	target := v.root.findLeaf(b)
	if target == nil {
		// b was a's sibling and got promoted into a different shape;
		// fall back to the first leaf.
		target = v.root.firstLeaf()
	}
	target.split(a, v.splitRatio)
	return nil
}

// Balance resets every split ratio to 0.5.
func (v *View) Balance() {
	v.root.balance()
}

// Rotate turns the tree by 90, 180 or 270 degrees.
func (v *View) Rotate(degrees int) error {
	switch degrees {
	case 90:
		v.root.rotate90()
	case 180:
		v.root.rotate90()
		v.root.rotate90()
	case 270:
		v.root.rotate90()
		v.root.rotate90()
		v.root.rotate90()
	default:
		return fmt.Errorf("rotation must be 90, 180 or 270, got %d", degrees)
	}
	return nil
}

// Mirror flips the tree across the x or y axis.
func (v *View) Mirror(axis string) error {
	switch axis {
	case "x":
		v.root.flip(SplitVertical)
	case "y":
		v.root.flip(SplitHorizontal)
	default:
		return fmt.Errorf("mirror axis must be x or y, got %q", axis)
	}
	return nil
}

// SetRatio adjusts the split directly above a window's leaf.
func (v *View) SetRatio(id platform.WindowID, ratio float64) error {
	leaf := v.root.findLeaf(id)
	if leaf == nil || leaf.parent == nil {
		return fmt.Errorf("window has no split")
	}
	leaf.parent.ratio = clampRatio(ratio)
	return nil
}

// Sibling returns the window sharing a split with id: the first leaf
// of the other child under id's parent.
func (v *View) Sibling(id platform.WindowID) (platform.WindowID, bool) {
	leaf := v.root.findLeaf(id)
	if leaf == nil || leaf.parent == nil {
		return 0, false
	}
	other := leaf.parent.left
	if other == leaf {
		other = leaf.parent.right
	}
	return other.firstLeaf().window, true
}

// SplitInfo describes the split above a window for query output.
// splitType is "none" for a root leaf.
func (v *View) SplitInfo(id platform.WindowID) (splitType string, child string) {
	leaf := v.root.findLeaf(id)
	if leaf == nil || leaf.parent == nil {
		return "none", "none"
	}
	child = "first_child"
	if leaf.parent.right == leaf {
		child = "second_child"
	}
	return leaf.parent.axis.String(), child
}

// Refresh reconciles the view's leaf set against the given tiling
// order: stale leaves are removed and missing windows are inserted at
// the anchor (focused window when present, first leaf otherwise).
// Returns true when the tree changed.
func (v *View) Refresh(windows []platform.WindowID, anchor platform.WindowID) bool {
	want := make(map[platform.WindowID]struct{}, len(windows))
	for _, id := range windows {
		want[id] = struct{}{}
	}

	changed := false
	for _, id := range v.Leaves() {
		if _, ok := want[id]; !ok {
			v.Remove(id)
			changed = true
		}
	}

	have := make(map[platform.WindowID]struct{})
	for _, id := range v.Leaves() {
		have[id] = struct{}{}
	}
	for _, id := range windows {
		if _, ok := have[id]; !ok {
			v.Insert(id, anchor)
			changed = true
		}
	}
	return changed
}

// Frames computes the target rect for every window.
//
// Parameters:
//   - bounds: usable display bounds, already inset by padding and any
//     external bar
//   - gap: window gap in pixels
//   - windows: tiling order, used by stack mode
//   - focused: focused window id; Frames does not read it (stack mode
//     gives every window the same rect)
//
// Float mode returns no frames: floating windows keep whatever frame
// they have.
func (v *View) Frames(bounds geometry.Rect, gap float64, windows []platform.WindowID, focused platform.WindowID) map[platform.WindowID]geometry.Rect {
	out := make(map[platform.WindowID]geometry.Rect)

	switch v.mode {
	case ModeBSP:
		v.root.frames(bounds, gap, out)
	case ModeStack:
		full := bounds.Inset(gap/2, gap/2, gap/2, gap/2)
		for _, id := range windows {
			out[id] = full
		}
	case ModeFloat:
		// No frames: float leaves windows alone.
	}

	return out
}
