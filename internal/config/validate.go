package config

import (
	"fmt"
)

// Validate checks the configuration for consistency.
// Returns the first problem found.
func (c *Config) Validate() error {
	switch c.Layout {
	case LayoutBSP, LayoutStack, LayoutFloat:
	default:
		return fmt.Errorf("layout must be bsp, stack or float, got %q", c.Layout)
	}

	if c.Gap < 0 {
		return fmt.Errorf("gap must be non-negative, got %v", c.Gap)
	}
	if c.Padding.Top < 0 || c.Padding.Bottom < 0 || c.Padding.Left < 0 || c.Padding.Right < 0 {
		return fmt.Errorf("padding values must be non-negative")
	}

	if c.SplitRatio < 0.1 || c.SplitRatio > 0.9 {
		return fmt.Errorf("split_ratio must be within [0.1, 0.9], got %v", c.SplitRatio)
	}

	switch c.FocusFollowsMouse {
	case FFMOff, FFMAutofocus, FFMAutoraise:
	default:
		return fmt.Errorf("focus_follows_mouse must be off, autofocus or autoraise, got %q", c.FocusFollowsMouse)
	}

	switch c.ExternalBar.Position {
	case BarOff, BarMain, BarAll:
	default:
		return fmt.Errorf("external_bar.position must be off, main or all, got %q", c.ExternalBar.Position)
	}
	if c.ExternalBar.Top < 0 || c.ExternalBar.Bottom < 0 {
		return fmt.Errorf("external_bar offsets must be non-negative")
	}

	seenSpaces := make(map[string]bool)
	for i, sc := range c.Spaces {
		if sc.Name == "" {
			return fmt.Errorf("spaces[%d]: name is required", i)
		}
		if seenSpaces[sc.Name] {
			return fmt.Errorf("spaces[%d]: duplicate space name %q", i, sc.Name)
		}
		seenSpaces[sc.Name] = true
	}

	seenDisplays := make(map[string]bool)
	for i, dc := range c.Displays {
		if dc.Label == "" {
			return fmt.Errorf("displays[%d]: label is required", i)
		}
		if seenDisplays[dc.Label] {
			return fmt.Errorf("displays[%d]: duplicate display label %q", i, dc.Label)
		}
		seenDisplays[dc.Label] = true
		if dc.Kind != "builtin" && dc.Kind != "external" {
			return fmt.Errorf("displays[%d]: kind must be builtin or external, got %q", i, dc.Kind)
		}
	}

	// Space display references must name a configured display label.
	for i, sc := range c.Spaces {
		if sc.Display != "" && !seenDisplays[sc.Display] {
			return fmt.Errorf("spaces[%d]: unknown display label %q", i, sc.Display)
		}
	}

	for i, r := range c.Rules {
		if r.App == "" {
			return fmt.Errorf("rules[%d]: app pattern is required", i)
		}
		if r.Opacity != nil && (*r.Opacity < 0 || *r.Opacity > 1) {
			return fmt.Errorf("rules[%d]: opacity must be within [0, 1], got %v", i, *r.Opacity)
		}
		if r.Layer != nil {
			switch *r.Layer {
			case LayerBelow, LayerNormal, LayerAbove:
			default:
				return fmt.Errorf("rules[%d]: layer must be below, normal or above, got %q", i, *r.Layer)
			}
		}
	}

	return nil
}
