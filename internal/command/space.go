package command

import (
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/view"
	"github.com/yourusername/skyline/internal/wmerr"
)

const (
	// Space creation is asynchronous on some hosts; the new id is
	// resolved by polling when the SA call returns none.
	createPollAttempts = 10
	createPollDelay    = 100 * time.Millisecond
)

func (d *Dispatcher) spaceCommand(args []string) Response {
	sel, rest := splitSelector(args)
	if len(rest) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "space needs a verb"))
	}

	// --create resolves its own display argument instead of a space.
	if rest[0] == "--create" {
		return d.spaceCreate(sel, rest)
	}

	if sel == "" {
		sel = "focused"
	}
	sid, err := d.Resolver.Space(sel)
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
			return d.spaceFocus(sid)
		case "--label":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--label needs a name"))
			}
			return d.spaceLabel(sid, va[0])
		case "--destroy":
			return d.spaceDestroy(sid)
		case "--balance":
			return d.spaceTreeOp(sid, func(v *view.View) error { v.Balance(); return nil })
		case "--rotate":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--rotate needs degrees"))
			}
			deg, err := strconv.Atoi(va[0])
			if err != nil {
				return fail(wmerr.Newf(wmerr.InvalidValue, "%q", va[0]))
			}
			return d.spaceTreeOp(sid, func(v *view.View) error { return v.Rotate(deg) })
		case "--mirror":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--mirror needs x or y"))
			}
			return d.spaceTreeOp(sid, func(v *view.View) error { return v.Mirror(va[0]) })
		case "--layout":
			if len(va) == 0 {
				return fail(wmerr.Newf(wmerr.MissingArgument, "--layout needs bsp, stack or float"))
			}
			return d.spaceSetLayout(sid, va[0])
		case "--rebuild":
			d.Store.Spaces.RemoveView(sid)
			d.Rec.MarkDirtySpace(sid)
			return ok()
		default:
			return fail(wmerr.Newf(wmerr.UnknownCommand, "space %s", verb))
		}
	}
	return fail(wmerr.Newf(wmerr.UnknownCommand, "space needs a verb"))
}

func (d *Dispatcher) spaceFocus(sid platform.SpaceID) Response {
	if !d.SA.Available() {
		return fail(wmerr.New(wmerr.SANotLoaded))
	}
	if err := d.SA.FocusSpace(sid); err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	d.Store.Spaces.SetCurrent(sid)
	d.Rec.Flags.Set(reconciler.FlagLayoutCurrent)
	return ok()
}

func (d *Dispatcher) spaceLabel(sid platform.SpaceID, label string) Response {
	if label == "" {
		return fail(wmerr.Newf(wmerr.InvalidValue, "label cannot be empty"))
	}
	d.Store.Spaces.SetLabel(sid, label)
	return ok()
}

// spaceDestroy removes the label and asks the host to destroy the
// space, evacuating windows first.
func (d *Dispatcher) spaceDestroy(sid platform.SpaceID) Response {
	if !d.SA.Available() {
		return fail(wmerr.New(wmerr.SANotLoaded))
	}
	rec := d.Store.Spaces.Get(sid)
	if rec == nil {
		return fail(wmerr.New(wmerr.SpaceNotFound))
	}
	if rec.Kind != platform.SpaceUser {
		return fail(wmerr.Newf(wmerr.InvalidArgument, "only user spaces can be destroyed"))
	}

	// Relocate occupants to the display's first space.
	if windows := d.Store.Windows.ForSpace(sid); len(windows) > 0 {
		spaces, err := d.Adapter.SpacesForDisplay(rec.Display)
		if err != nil || len(spaces) == 0 {
			return fail(wmerr.Wrap(wmerr.PlatformError, err))
		}
		refuge := spaces[0].ID
		if refuge == sid {
			if len(spaces) < 2 {
				return fail(wmerr.Newf(wmerr.InvalidArgument, "cannot destroy the last space on its display"))
			}
			refuge = spaces[1].ID
		}
		for _, wid := range windows {
			if err := d.Adapter.MoveWindowToSpace(wid, refuge); err != nil {
				logging.Warn().Uint32("wid", uint32(wid)).Err(err).Msg("evacuation failed")
				continue
			}
			d.Store.Windows.SetSpace(wid, refuge)
		}
		d.Rec.MarkDirtySpace(refuge)
	}

	d.Store.Spaces.RemoveLabel(sid)
	if err := d.SA.DestroySpace(sid); err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	d.Store.Spaces.Remove(sid)
	return ok()
}

// spaceCreate creates a space on the named (or focused) display and
// resolves the new id synchronously or by polling.
func (d *Dispatcher) spaceCreate(displaySel string, rest []string) Response {
	if !d.SA.Available() {
		return fail(wmerr.New(wmerr.SANotLoaded))
	}

	// The display may come as "--create <sel>" or a leading selector.
	if displaySel == "" {
		if va := verbArgs(rest, 0); len(va) > 0 {
			displaySel = va[0]
		}
	}
	did, err := d.Resolver.Display(displaySel)
	if err != nil {
		return fail(err)
	}

	before, err := d.Adapter.SpacesForDisplay(did)
	if err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	var ref platform.SpaceID
	for _, s := range before {
		if s.Kind == platform.SpaceUser {
			ref = s.ID
		}
	}
	if ref == 0 {
		return fail(wmerr.New(wmerr.SpaceNotFound))
	}

	prevFocused := d.Store.FocusedWindow

	newID, err := d.SA.CreateSpace(ref)
	if err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	if newID == 0 {
		newID = d.pollForNewSpace(did, before)
	}
	if newID == 0 {
		return fail(wmerr.Newf(wmerr.PlatformError, "created space did not appear"))
	}

	d.Store.Spaces.Put(&store.SpaceRecord{ID: newID, Kind: platform.SpaceUser, Display: did})

	if hasVerb(rest, "--take") && prevFocused != 0 {
		if resp := d.windowToSpace(prevFocused, strconv.FormatUint(uint64(newID), 10)); resp.Err != nil {
			logging.Warn().Err(resp.Err).Msg("take failed")
		}
	}
	if hasVerb(rest, "--focus") {
		if resp := d.spaceFocus(newID); resp.Err != nil {
			return resp
		}
	}
	d.Rec.MarkDirtySpace(newID)
	return ok()
}

// pollForNewSpace watches the display's space list for an id that was
// not there before.
func (d *Dispatcher) pollForNewSpace(did platform.DisplayID, before []platform.SpaceInfo) platform.SpaceID {
	known := make(map[platform.SpaceID]bool, len(before))
	for _, s := range before {
		known[s.ID] = true
	}

	for attempt := 0; attempt < createPollAttempts; attempt++ {
		after, err := d.Adapter.SpacesForDisplay(did)
		if err == nil {
			for _, s := range after {
				if !known[s.ID] {
					return s.ID
				}
			}
		}
		time.Sleep(createPollDelay)
	}
	return 0
}

func (d *Dispatcher) spaceSetLayout(sid platform.SpaceID, mode string) Response {
	switch view.Mode(mode) {
	case view.ModeBSP, view.ModeStack, view.ModeFloat:
	default:
		return fail(wmerr.Newf(wmerr.InvalidValue, "layout %q", mode))
	}
	v := d.Store.Spaces.GetOrCreateView(sid, view.Mode(mode), d.Rec.Config().SplitRatio)
	v.SetMode(view.Mode(mode))
	d.Rec.MarkDirtySpace(sid)
	return ok()
}

// spaceTreeOp applies a BSP tree mutation and marks the space dirty.
func (d *Dispatcher) spaceTreeOp(sid platform.SpaceID, op func(*view.View) error) Response {
	v := d.Store.Spaces.View(sid)
	if v == nil {
		return fail(wmerr.Newf(wmerr.SpaceNotFound, "space %d has no view", sid))
	}
	if err := op(v); err != nil {
		return fail(wmerr.Wrap(wmerr.InvalidValue, err))
	}
	d.Rec.MarkDirtySpace(sid)
	return ok()
}
