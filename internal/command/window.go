package command

import (
	"strconv"
	"strings"

	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

func (d *Dispatcher) windowCommand(args []string) Response {
	sel, rest := splitSelector(args)
	if len(rest) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "window needs a verb"))
	}
	if sel == "" {
		sel = "focused"
	}

	// The verb and its argument are checked before the selector resolves.
	for i, verb := range rest {
		if !strings.HasPrefix(verb, "--") {
			continue
		}
		switch verb {
		case "--focus", "--swap", "--warp", "--space", "--toggle", "--grid":
		default:
			return fail(wmerr.Newf(wmerr.UnknownCommand, "window %s", verb))
		}
		if verb != "--focus" && len(verbArgs(rest, i)) == 0 {
			return fail(wmerr.Newf(wmerr.MissingArgument, "%s needs an argument", verb))
		}
		break
	}

	wid, err := d.Resolver.Window(sel)
	if err != nil {
		return fail(err)
	}

	for i, verb := range rest {
		if !strings.HasPrefix(verb, "--") {
			continue
		}
		va := verbArgs(rest, i)
		switch verb {
		case "--focus":
			return d.windowFocus(wid)
		case "--swap":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--swap needs a window selector"))
			}
			return d.windowSwap(wid, va[0])
		case "--warp":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--warp needs a window selector"))
			}
			return d.windowWarp(wid, va[0])
		case "--space":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--space needs a space selector"))
			}
			return d.windowToSpace(wid, va[0])
		case "--toggle":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--toggle needs a flag name"))
			}
			return d.windowToggle(wid, va[0])
		case "--grid":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--grid needs R:C:X:Y:W:H"))
			}
			return d.windowGrid(wid, va[0])
		default:
			return fail(wmerr.Newf(wmerr.UnknownCommand, "window %s", verb))
		}
	}
	return fail(wmerr.Newf(wmerr.UnknownCommand, "window needs a verb"))
}

// windowFocus focuses immediately: focus must not wait for a tick.
func (d *Dispatcher) windowFocus(wid platform.WindowID) Response {
	if err := d.Adapter.FocusWindow(wid); err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	d.Store.SetFocused(wid)

	if d.Rec.Config().MouseFollowsFocus {
		if w := d.Store.Windows.Get(wid); w != nil {
			if err := d.Adapter.WarpCursor(w.Frame.Center()); err != nil {
				return ok() // focus landed; cursor warp is best-effort
			}
		}
	}
	return ok()
}

// windowSwap exchanges the tiling positions of two windows on the
// same space.
func (d *Dispatcher) windowSwap(a platform.WindowID, otherSel string) Response {
	b, err := d.Resolver.Window(otherSel)
	if err != nil {
		return fail(err)
	}
	wa, wb := d.Store.Windows.Get(a), d.Store.Windows.Get(b)
	if wa == nil || wb == nil {
		return fail(wmerr.New(wmerr.WindowNotFound))
	}
	if wa.Space != wb.Space {
		return fail(wmerr.Newf(wmerr.WindowNotFound, "mismatched space"))
	}

	if !d.Store.Windows.SwapOrder(a, b) {
		return fail(wmerr.New(wmerr.WindowNotManaged))
	}
	if v := d.Store.Spaces.View(wa.Space); v != nil {
		if err := v.Swap(a, b); err != nil {
			// Leaf sets drift during event storms; a rebuild settles it.
			d.Rec.Flags.Set(reconciler.FlagRebuildView)
		}
	}
	d.Rec.MarkDirtySpace(wa.Space)
	return ok()
}

// windowWarp re-attaches window a as the sibling of window b.
func (d *Dispatcher) windowWarp(a platform.WindowID, otherSel string) Response {
	b, err := d.Resolver.Window(otherSel)
	if err != nil {
		return fail(err)
	}
	if a == b {
		return fail(wmerr.Newf(wmerr.InvalidArgument, "cannot warp a window onto itself"))
	}
	wa, wb := d.Store.Windows.Get(a), d.Store.Windows.Get(b)
	if wa == nil || wb == nil {
		return fail(wmerr.New(wmerr.WindowNotFound))
	}

	if wa.Space != wb.Space {
		// Cross-space warp: move first, then attach next to b.
		if err := d.Adapter.MoveWindowToSpace(a, wb.Space); err != nil {
			return fail(wmerr.Wrap(wmerr.PlatformError, err))
		}
		old := wa.Space
		if v := d.Store.Spaces.View(old); v != nil {
			v.Remove(a)
		}
		d.Store.Windows.SetSpace(a, wb.Space)
		d.Rec.MarkDirtySpace(old)
		if v := d.Store.Spaces.View(wb.Space); v != nil {
			v.Insert(a, b)
		}
	} else if v := d.Store.Spaces.View(wb.Space); v != nil {
		if err := v.Warp(a, b); err != nil {
			d.Rec.Flags.Set(reconciler.FlagRebuildView)
		}
	}
	d.Rec.MarkDirtySpace(wb.Space)
	return ok()
}

// windowToSpace moves a window's platform membership to a space.
func (d *Dispatcher) windowToSpace(wid platform.WindowID, spaceSel string) Response {
	sid, err := d.Resolver.Space(spaceSel)
	if err != nil {
		return fail(err)
	}
	w := d.Store.Windows.Get(wid)
	if w == nil {
		return fail(wmerr.New(wmerr.WindowNotFound))
	}
	if w.Space == sid {
		return ok()
	}

	if err := d.Adapter.MoveWindowToSpace(wid, sid); err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	old := w.Space
	d.Store.Windows.SetSpace(wid, sid)
	d.Rec.MarkDirtySpace(old)
	d.Rec.MarkDirtySpace(sid)
	return ok()
}

// windowToggle flips a window flag. sticky and shadow ride the SA
// channel and fail when it is not loaded.
func (d *Dispatcher) windowToggle(wid platform.WindowID, flag string) Response {
	w := d.Store.Windows.Get(wid)
	if w == nil {
		return fail(wmerr.New(wmerr.WindowNotFound))
	}

	switch flag {
	case "float":
		d.Store.Windows.SetFlag(wid, store.FlagFloating, !w.Floating)
	case "sticky":
		if !d.SA.Available() {
			return fail(wmerr.New(wmerr.SANotLoaded))
		}
		if err := d.SA.SetWindowSticky(wid, !w.Sticky); err != nil {
			return fail(wmerr.Wrap(wmerr.PlatformError, err))
		}
		d.Store.Windows.SetFlag(wid, store.FlagSticky, !w.Sticky)
	case "shadow":
		if !d.SA.Available() {
			return fail(wmerr.New(wmerr.SANotLoaded))
		}
		if err := d.SA.SetWindowShadow(wid, !w.Shadow); err != nil {
			return fail(wmerr.Wrap(wmerr.PlatformError, err))
		}
		d.Store.Windows.SetFlag(wid, store.FlagShadow, !w.Shadow)
	default:
		return fail(wmerr.Newf(wmerr.InvalidArgument, "unknown toggle %q", flag))
	}

	d.Rec.MarkDirtySpace(w.Space)
	return ok()
}

// windowGrid floats a window onto an R:C:X:Y:W:H grid cell of its
// display. Direct frame moves apply immediately.
func (d *Dispatcher) windowGrid(wid platform.WindowID, spec string) Response {
	w := d.Store.Windows.Get(wid)
	if w == nil {
		return fail(wmerr.New(wmerr.WindowNotFound))
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 6 {
		return fail(wmerr.Newf(wmerr.InvalidArgument, "grid must be R:C:X:Y:W:H, got %q", spec))
	}
	vals := make([]int, 6)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return fail(wmerr.Newf(wmerr.InvalidValue, "grid component %q", p))
		}
		vals[i] = n
	}
	rows, cols, x, y, cw, ch := vals[0], vals[1], vals[2], vals[3], vals[4], vals[5]
	if rows < 1 || cols < 1 || cw < 1 || ch < 1 || x+cw > cols || y+ch > rows {
		return fail(wmerr.Newf(wmerr.InvalidValue, "grid %q out of range", spec))
	}

	rec := d.Store.Spaces.Get(w.Space)
	if rec == nil {
		return fail(wmerr.New(wmerr.SpaceNotFound))
	}
	disp, found := d.Store.Displays.Get(rec.Display)
	if !found {
		return fail(wmerr.New(wmerr.DisplayNotFound))
	}

	cellW := disp.Frame.Width / float64(cols)
	cellH := disp.Frame.Height / float64(rows)
	frame := geometry.Rect{
		X:      disp.Frame.X + float64(x)*cellW,
		Y:      disp.Frame.Y + float64(y)*cellH,
		Width:  float64(cw) * cellW,
		Height: float64(ch) * cellH,
	}

	if !w.Floating {
		d.Store.Windows.SetFlag(wid, store.FlagFloating, true)
		d.Rec.MarkDirtySpace(w.Space)
	}
	if err := d.Adapter.SetWindowFrame(wid, frame); err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	w.Frame = frame
	return ok()
}
