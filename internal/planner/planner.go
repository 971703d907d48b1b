// Package planner reconciles configured logical spaces and labels
// against the platform's current topology. One subroutine serves both
// startup (after config load) and settled display changes.
package planner

import (
	"time"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/rules"
	"github.com/yourusername/skyline/internal/store"
)

// settleDelay is slept between space create/destroy requests so the
// host can settle.
const settleDelay = 100 * time.Millisecond

// Trigger names what woke the planner.
type Trigger int

const (
	TriggerStartup Trigger = iota
	TriggerDisplayChange
)

// Planner carries the collaborators one sync pass needs.
type Planner struct {
	Store   *store.Store
	Adapter platform.Adapter
	SA      platform.SAChannel
	Config  *config.Config
	Rules   *rules.Engine

	// ApplyVisible lays out the current space of every display. Wired
	// to the reconciler's layout path.
	ApplyVisible func()

	// Sleep is replaceable in tests.
	Sleep func(time.Duration)

	// TrackApp adopts an untracked app and its windows into the store
	// without moving anything. Wired to the reconciler's scan path.
	TrackApp func(app platform.AppInfo)
}

// target is one configured space resolved to a display.
type target struct {
	label   string
	display platform.DisplayID
}

// Result reports what a sync pass did.
type Result struct {
	CreatedSpaces   int
	DestroyedSpaces int
	MovedWindows    int
	// DeferredMoves is set when window moves needed the SA channel and
	// it was unavailable; the reconciler retries them later.
	DeferredMoves bool
}

func (p *Planner) sleep(d time.Duration) {
	if p.Sleep != nil {
		p.Sleep(d)
		return
	}
	time.Sleep(d)
}

// Sync runs the full reconciliation pass.
func (p *Planner) Sync(trigger Trigger) (*Result, error) {
	res := &Result{}

	active, err := p.Adapter.ActiveDisplayList()
	if err != nil {
		return nil, err
	}
	p.Store.Displays.Refresh(active)
	if len(active) == 0 {
		return res, nil
	}

	// Remember what each display showed; creating spaces shifts focus
	// on some hosts and a display change must not change the visible
	// space underneath the user.
	restore := make(map[platform.DisplayID]platform.SpaceID)
	if trigger == TriggerDisplayChange {
		for _, d := range active {
			if cur, err := p.Adapter.CurrentSpace(d.ID); err == nil {
				restore[d.ID] = cur
			}
		}
	}

	// Step 1: match configured display labels to physical displays.
	p.matchDisplayLabels(active)

	// Step 2: adopt untracked apps and refresh space topology.
	p.refreshSpaces(active)
	p.scanApps()

	// Step 3: decide which display each configured label targets.
	targets := p.buildTargets(active)
	p.dropMisplacedLabels(targets)

	// Step 4: label spaces already hosting rule-matched windows on the
	// right display, minimising subsequent moves.
	p.smartLabel(targets)

	// Step 5: reconcile user-space counts per display.
	created, destroyed := p.reconcileSpaceCounts(active, targets)
	res.CreatedSpaces = created
	res.DestroyedSpaces = destroyed

	// Step 6: topology changed, rescan and redo smart labeling.
	if created > 0 || destroyed > 0 {
		p.refreshSpaces(active)
		p.scanApps()
		p.smartLabel(targets)
	}

	// Step 7: position-label whatever targets remain unassigned.
	p.positionLabel(active, targets)

	// Step 8: move windows onto their rule labels.
	moved, deferred := p.MoveWindowsToMatchLabels()
	res.MovedWindows = moved
	res.DeferredMoves = deferred

	if trigger == TriggerDisplayChange {
		p.restoreCurrentSpaces(restore)
	}

	// Step 9: lay out visible spaces, twice, 200 ms apart.
	if p.ApplyVisible != nil {
		p.ApplyVisible()
		p.sleep(200 * time.Millisecond)
		p.ApplyVisible()
	}

	logging.Info().
		Int("created", res.CreatedSpaces).
		Int("destroyed", res.DestroyedSpaces).
		Int("moved", res.MovedWindows).
		Bool("deferred", res.DeferredMoves).
		Msg("space sync complete")
	return res, nil
}

// matchDisplayLabels assigns each configured display label to the
// first physical display of the matching kind.
func (p *Planner) matchDisplayLabels(active []platform.DisplayInfo) {
	p.Store.Displays.ClearLabels()
	claimed := make(map[platform.DisplayID]bool)
	for _, dc := range p.Config.Displays {
		for _, d := range active {
			if claimed[d.ID] {
				continue
			}
			if (dc.Kind == "builtin") != d.Builtin {
				continue
			}
			p.Store.Displays.SetLabel(d.ID, dc.Label)
			claimed[d.ID] = true
			break
		}
	}
}

// refreshSpaces reloads the space records for every active display.
func (p *Planner) refreshSpaces(active []platform.DisplayInfo) {
	seen := make(map[platform.SpaceID]bool)
	for _, d := range active {
		spaces, err := p.Adapter.SpacesForDisplay(d.ID)
		if err != nil {
			logging.Warn().Uint32("display", uint32(d.ID)).Err(err).Msg("space list failed")
			continue
		}
		for _, s := range spaces {
			seen[s.ID] = true
			p.Store.Spaces.Put(&store.SpaceRecord{
				ID:      s.ID,
				UUID:    s.UUID,
				Kind:    s.Kind,
				Display: s.Display,
			})
		}
	}
	for _, id := range p.Store.Spaces.IDs() {
		if !seen[id] {
			p.Store.Spaces.Remove(id)
		}
	}
}

// scanApps adopts every running app the store does not know yet.
func (p *Planner) scanApps() {
	if p.TrackApp == nil {
		return
	}
	apps, err := p.Adapter.RunningApps()
	if err != nil {
		logging.Warn().Err(err).Msg("running app scan failed")
		return
	}
	for _, a := range apps {
		if !p.Store.Apps.Has(a.PID) {
			p.TrackApp(a)
		}
	}
}

// buildTargets decides the display each configured space label should
// live on: the display matching its display key, or display index 1
// when that display is absent.
func (p *Planner) buildTargets(active []platform.DisplayInfo) []target {
	fallback := active[0].ID
	var targets []target
	for _, sc := range p.Config.Spaces {
		display := fallback
		if sc.Display != "" {
			if id, ok := p.Store.Displays.ByLabel(sc.Display); ok {
				display = id
			}
		}
		targets = append(targets, target{label: sc.Name, display: display})
	}
	return targets
}

// dropMisplacedLabels detaches labels whose space sits on a display
// other than the one the label now targets, so the pass below can
// re-home them.
func (p *Planner) dropMisplacedLabels(targets []target) {
	for _, t := range targets {
		sid, ok := p.Store.Spaces.ByLabel(t.label)
		if !ok {
			continue
		}
		rec := p.Store.Spaces.Get(sid)
		if rec == nil || rec.Display != t.display {
			p.Store.Spaces.RemoveLabel(sid)
		}
	}
}

// smartLabel labels spaces that already host rule-matched windows on
// the display their label targets.
func (p *Planner) smartLabel(targets []target) {
	byLabel := make(map[string]platform.DisplayID, len(targets))
	for _, t := range targets {
		byLabel[t.label] = t.display
	}

	p.Store.Windows.Iter(func(w *store.WindowRecord) bool {
		label := p.Rules.TargetLabel(w.App)
		if label == "" {
			return true
		}
		wantDisplay, ok := byLabel[label]
		if !ok {
			return true
		}
		rec := p.Store.Spaces.Get(w.Space)
		if rec == nil || rec.Kind != platform.SpaceUser || rec.Display != wantDisplay {
			return true
		}
		if _, taken := p.Store.Spaces.ByLabel(label); taken {
			return true
		}
		if p.Store.Spaces.Label(w.Space) != "" {
			return true
		}
		p.Store.Spaces.SetLabel(w.Space, label)
		return true
	})
}

// userSpaces returns the user spaces of a display in platform order.
func (p *Planner) userSpaces(display platform.DisplayID) []platform.SpaceInfo {
	spaces, err := p.Adapter.SpacesForDisplay(display)
	if err != nil {
		return nil
	}
	var out []platform.SpaceInfo
	for _, s := range spaces {
		if s.Kind == platform.SpaceUser {
			out = append(out, s)
		}
	}
	return out
}

// reconcileSpaceCounts creates or destroys user spaces so each display
// has exactly as many as the labels targeting it.
func (p *Planner) reconcileSpaceCounts(active []platform.DisplayInfo, targets []target) (created, destroyed int) {
	want := make(map[platform.DisplayID]int)
	for _, t := range targets {
		want[t.display]++
	}

	for _, d := range active {
		have := p.userSpaces(d.ID)
		need := want[d.ID]

		for len(have) > 0 && len(have) < need {
			if !p.SA.Available() {
				logging.Warn().Msg("cannot create spaces: sa channel unavailable")
				return created, destroyed
			}
			ref := have[len(have)-1].ID
			if _, err := p.SA.CreateSpace(ref); err != nil {
				logging.Error().Err(err).Uint32("display", uint32(d.ID)).Msg("space create failed")
				break
			}
			created++
			p.sleep(settleDelay)
			have = p.userSpaces(d.ID)
		}

		// A display always keeps at least one user space.
		for len(have) > need && len(have) > 1 && need > 0 {
			victim := p.pickVictim(have, need)
			if victim == 0 {
				break
			}
			if !p.destroySpace(victim, have[0].ID) {
				break
			}
			destroyed++
			p.sleep(settleDelay)
			have = p.userSpaces(d.ID)
		}
	}
	return created, destroyed
}

// pickVictim selects the space to destroy from the trailing excess:
// empty trailing spaces go first, then the last space outright.
func (p *Planner) pickVictim(have []platform.SpaceInfo, need int) platform.SpaceID {
	for i := len(have) - 1; i >= need && i > 0; i-- {
		if len(p.Store.Windows.ForSpace(have[i].ID)) == 0 {
			return have[i].ID
		}
	}
	return have[len(have)-1].ID
}

// destroySpace evacuates a space's windows to refuge and destroys it.
// The label is detached first; position-labeling rebuilds labels
// afterwards.
func (p *Planner) destroySpace(id, refuge platform.SpaceID) bool {
	if !p.SA.Available() {
		logging.Warn().Msg("cannot destroy spaces: sa channel unavailable")
		return false
	}
	for _, wid := range p.Store.Windows.ForSpace(id) {
		if err := p.Adapter.MoveWindowToSpace(wid, refuge); err != nil {
			logging.Warn().Uint32("wid", uint32(wid)).Err(err).Msg("window evacuation failed")
			continue
		}
		p.Store.Windows.SetSpace(wid, refuge)
	}
	p.Store.Spaces.RemoveLabel(id)
	if err := p.SA.DestroySpace(id); err != nil {
		logging.Error().Uint64("space", uint64(id)).Err(err).Msg("space destroy failed")
		return false
	}
	p.Store.Spaces.Remove(id)
	return true
}

// positionLabel assigns every still-unassigned target label to the
// next unlabeled user space on its display, in list order.
func (p *Planner) positionLabel(active []platform.DisplayInfo, targets []target) {
	for _, t := range targets {
		if _, ok := p.Store.Spaces.ByLabel(t.label); ok {
			continue
		}
		assigned := false
		for _, s := range p.userSpaces(t.display) {
			if p.Store.Spaces.Label(s.ID) == "" {
				p.Store.Spaces.SetLabel(s.ID, t.label)
				assigned = true
				break
			}
		}
		if !assigned {
			// Fall back to any unlabeled user space so the label is
			// never silently dropped.
			for _, d := range active {
				for _, s := range p.userSpaces(d.ID) {
					if p.Store.Spaces.Label(s.ID) == "" {
						p.Store.Spaces.SetLabel(s.ID, t.label)
						assigned = true
						break
					}
				}
				if assigned {
					break
				}
			}
		}
	}
}

// MoveWindowsToMatchLabels moves every tracked window whose app has a
// space-assigning rule onto the space bearing that label. Returns the
// move count and whether moves had to be deferred for the SA channel.
func (p *Planner) MoveWindowsToMatchLabels() (moved int, deferred bool) {
	if !p.SA.Available() {
		return 0, true
	}

	type move struct {
		wid    platform.WindowID
		target platform.SpaceID
	}
	var moves []move

	p.Store.Windows.Iter(func(w *store.WindowRecord) bool {
		label := p.Rules.TargetLabel(w.App)
		if label == "" {
			return true
		}
		target, ok := p.Store.Spaces.ByLabel(label)
		if !ok || target == w.Space {
			return true
		}
		moves = append(moves, move{wid: w.ID, target: target})
		return true
	})

	for _, m := range moves {
		if err := p.Adapter.MoveWindowToSpace(m.wid, m.target); err != nil {
			logging.Warn().Uint32("wid", uint32(m.wid)).Err(err).Msg("rule move failed")
			continue
		}
		p.Store.Windows.SetSpace(m.wid, m.target)
		moved++
	}
	return moved, false
}

// restoreCurrentSpaces refocuses each display's previously current
// space when it still exists.
func (p *Planner) restoreCurrentSpaces(restore map[platform.DisplayID]platform.SpaceID) {
	for display, space := range restore {
		if !p.Store.Spaces.Has(space) {
			continue
		}
		cur, err := p.Adapter.CurrentSpace(display)
		if err != nil || cur == space {
			continue
		}
		if p.SA.Available() {
			if err := p.SA.FocusSpace(space); err != nil {
				logging.Debug().Uint64("space", uint64(space)).Err(err).Msg("space restore failed")
			}
		}
	}
}
