package command

import (
	"encoding/json"

	"github.com/yourusername/skyline/internal/geometry"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

// Query output shapes. Field names are part of the wire contract.

type displayJSON struct {
	ID       platform.DisplayID   `json:"id"`
	UUID     string               `json:"uuid"`
	Index    int                  `json:"index"`
	Label    string               `json:"label"`
	Frame    geometry.Rect        `json:"frame"`
	Spaces   []platform.SpaceID   `json:"spaces"`
	HasFocus bool                 `json:"has-focus"`
}

type spaceJSON struct {
	ID                 platform.SpaceID    `json:"id"`
	UUID               string              `json:"uuid"`
	Index              int                 `json:"index"`
	Label              string              `json:"label"`
	Type               platform.SpaceKind  `json:"type"`
	Display            platform.DisplayID  `json:"display"`
	Windows            []platform.WindowID `json:"windows"`
	FirstWindow        platform.WindowID   `json:"first-window"`
	LastWindow         platform.WindowID   `json:"last-window"`
	HasFocus           bool                `json:"has-focus"`
	IsVisible          bool                `json:"is-visible"`
	IsNativeFullscreen bool                `json:"is-native-fullscreen"`
}

type windowJSON struct {
	ID                platform.WindowID  `json:"id"`
	PID               platform.PID       `json:"pid"`
	App               string             `json:"app"`
	Title             string             `json:"title"`
	Frame             geometry.Rect      `json:"frame"`
	Role              string             `json:"role"`
	Subrole           string             `json:"subrole"`
	Display           platform.DisplayID `json:"display"`
	Space             platform.SpaceID   `json:"space"`
	Level             int                `json:"level"`
	SubLevel          int                `json:"sub-level"`
	Layer             string             `json:"layer"`
	SubLayer          string             `json:"sub-layer"`
	Opacity           float64            `json:"opacity"`
	SplitType         string             `json:"split-type"`
	SplitChild        string             `json:"split-child"`
	StackIndex        int                `json:"stack-index"`
	CanMove           bool               `json:"can-move"`
	CanResize         bool               `json:"can-resize"`
	HasFocus          bool               `json:"has-focus"`
	HasShadow         bool               `json:"has-shadow"`
	HasParentZoom     bool               `json:"has-parent-zoom"`
	HasFullscreenZoom bool               `json:"has-fullscreen-zoom"`
	HasAXReference    bool               `json:"has-ax-reference"`
	IsNativeFS        bool               `json:"is-native-fullscreen"`
	IsVisible         bool               `json:"is-visible"`
	IsMinimized       bool               `json:"is-minimized"`
	IsHidden          bool               `json:"is-hidden"`
	IsFloating        bool               `json:"is-floating"`
	IsSticky          bool               `json:"is-sticky"`
	IsGrabbed         bool               `json:"is-grabbed"`
}

func (d *Dispatcher) queryCommand(args []string) Response {
	if len(args) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "query needs --windows, --spaces or --displays"))
	}

	switch args[0] {
	case "--displays":
		return d.queryDisplays()
	case "--spaces":
		return d.querySpaces(args[1:])
	case "--windows":
		return d.queryWindows(args[1:])
	default:
		return fail(wmerr.Newf(wmerr.UnknownCommand, "query %s", args[0]))
	}
}

func marshal(v interface{}) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return fail(wmerr.Wrap(wmerr.PlatformError, err))
	}
	return okPayload(append(data, '\n'))
}

func (d *Dispatcher) queryDisplays() Response {
	var out []displayJSON
	focusedDisplay := d.focusedDisplayID()

	for i, disp := range d.Store.Displays.ActiveList() {
		entry := displayJSON{
			ID:       disp.ID,
			UUID:     disp.UUID,
			Index:    i + 1,
			Label:    d.Store.Displays.Label(disp.ID),
			Frame:    disp.Frame,
			Spaces:   []platform.SpaceID{},
			HasFocus: disp.ID == focusedDisplay,
		}
		if spaces, err := d.Adapter.SpacesForDisplay(disp.ID); err == nil {
			for _, s := range spaces {
				entry.Spaces = append(entry.Spaces, s.ID)
			}
		}
		out = append(out, entry)
	}
	return marshal(out)
}

func (d *Dispatcher) querySpaces(args []string) Response {
	onlyDisplay := platform.DisplayID(0)
	if len(args) >= 2 && args[0] == "--display" {
		did, err := d.Resolver.Display(args[1])
		if err != nil {
			return fail(err)
		}
		onlyDisplay = did
	}

	var out []spaceJSON
	index := 0
	for _, disp := range d.Store.Displays.ActiveList() {
		spaces, err := d.Adapter.SpacesForDisplay(disp.ID)
		if err != nil {
			continue
		}
		current, _ := d.Adapter.CurrentSpace(disp.ID)
		for _, s := range spaces {
			index++
			if onlyDisplay != 0 && disp.ID != onlyDisplay {
				continue
			}
			windows := d.Store.Windows.ForSpace(s.ID)
			entry := spaceJSON{
				ID:                 s.ID,
				UUID:               s.UUID,
				Index:              index,
				Label:              d.Store.Spaces.Label(s.ID),
				Type:               s.Kind,
				Display:            disp.ID,
				Windows:            windows,
				HasFocus:           s.ID == d.Store.Spaces.Current,
				IsVisible:          s.ID == current,
				IsNativeFullscreen: s.Kind == platform.SpaceFullscreen,
			}
			if len(windows) > 0 {
				entry.FirstWindow = windows[0]
				entry.LastWindow = windows[len(windows)-1]
			}
			if entry.Windows == nil {
				entry.Windows = []platform.WindowID{}
			}
			out = append(out, entry)
		}
	}
	return marshal(out)
}

func (d *Dispatcher) queryWindows(args []string) Response {
	onlySpace := platform.SpaceID(0)
	onlyDisplay := platform.DisplayID(0)
	for i := 0; i+1 < len(args); i += 2 {
		switch args[i] {
		case "--space":
			sid, err := d.Resolver.Space(args[i+1])
			if err != nil {
				return fail(err)
			}
			onlySpace = sid
		case "--display":
			did, err := d.Resolver.Display(args[i+1])
			if err != nil {
				return fail(err)
			}
			onlyDisplay = did
		}
	}

	var out []windowJSON
	d.Store.Windows.Iter(func(w *store.WindowRecord) bool {
		if onlySpace != 0 && w.Space != onlySpace {
			return true
		}
		rec := d.Store.Spaces.Get(w.Space)
		display := platform.DisplayID(0)
		if rec != nil {
			display = rec.Display
		}
		if onlyDisplay != 0 && display != onlyDisplay {
			return true
		}

		entry := windowJSON{
			ID:             w.ID,
			PID:            w.PID,
			App:            w.App,
			Title:          w.Title,
			Frame:          w.Frame,
			Role:           w.Role,
			Subrole:        w.Subrole,
			Display:        display,
			Space:          w.Space,
			Level:          w.Level,
			Layer:          layerName(w.Layer),
			SubLayer:       layerName(0),
			Opacity:        w.Opacity,
			SplitType:      "none",
			SplitChild:     "none",
			StackIndex:     0,
			CanMove:        true,
			CanResize:      true,
			HasFocus:       w.ID == d.Store.FocusedWindow,
			HasShadow:      !w.Shadow,
			HasAXReference: w.Handle != nil,
			IsVisible:      d.windowVisible(w),
			IsMinimized:    w.Minimized,
			IsHidden:       w.Hidden,
			IsFloating:     w.Floating,
			IsSticky:       w.Sticky,
		}
		if v := d.Store.Spaces.View(w.Space); v != nil {
			entry.SplitType, entry.SplitChild = v.SplitInfo(w.ID)
			for i, id := range v.Leaves() {
				if id == w.ID {
					entry.StackIndex = i
					break
				}
			}
		}
		out = append(out, entry)
		return true
	})
	return marshal(out)
}

func (d *Dispatcher) queryRules() Response {
	return marshal(d.Rec.Rules().Rules())
}

func (d *Dispatcher) focusedDisplayID() platform.DisplayID {
	if rec := d.Store.Spaces.Get(d.Store.Spaces.Current); rec != nil {
		return rec.Display
	}
	if id, ok := d.Store.Displays.MainID(); ok {
		return id
	}
	return 0
}

func (d *Dispatcher) windowVisible(w *store.WindowRecord) bool {
	if w.Minimized || w.Hidden {
		return false
	}
	rec := d.Store.Spaces.Get(w.Space)
	if rec == nil {
		return false
	}
	cur, err := d.Adapter.CurrentSpace(rec.Display)
	return err == nil && cur == w.Space
}

func layerName(layer int) string {
	switch {
	case layer < 0:
		return "below"
	case layer > 0:
		return "above"
	default:
		return "normal"
	}
}
