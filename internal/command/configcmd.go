package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yourusername/skyline/internal/config"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/rules"
	"github.com/yourusername/skyline/internal/wmerr"
)

func (d *Dispatcher) displayCommand(args []string) Response {
	sel, rest := splitSelector(args)
	if len(rest) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "display needs a verb"))
	}
	if sel == "" {
		sel = "focused"
	}
	did, err := d.Resolver.Display(sel)
	if err != nil {
		return fail(err)
	}

	switch rest[0] {
	case "--focus":
		cur, err := d.Adapter.CurrentSpace(did)
		if err != nil {
			return fail(wmerr.Wrap(wmerr.PlatformError, err))
		}
		return d.spaceFocus(cur)
	default:
		return fail(wmerr.Newf(wmerr.UnknownCommand, "display %s", rest[0]))
	}
}

// layoutKeys are the config keys whose change requires a re-layout of
// the current space.
var layoutKeys = map[string]bool{
	"layout":       true,
	"gap":          true,
	"split_ratio":  true,
	"auto_balance": true,
	"top_padding":  true, "bottom_padding": true,
	"left_padding": true, "right_padding": true,
	"external_bar": true,
}

func (d *Dispatcher) configCommand(args []string) Response {
	if len(args) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "config needs get, set or --reload"))
	}

	switch args[0] {
	case "get":
		if len(args) < 2 {
			return fail(wmerr.Newf(wmerr.MissingArgument, "config get needs a key"))
		}
		return d.configGet(args[1])
	case "set":
		if len(args) < 3 {
			return fail(wmerr.Newf(wmerr.MissingArgument, "config set needs a key and value"))
		}
		return d.configSet(args[1], args[2])
	case "--reload":
		cfg, err := config.LoadConfig("")
		if err != nil {
			return fail(wmerr.Wrap(wmerr.InvalidValue, err))
		}
		d.Rec.SubmitConfig(cfg)
		return ok()
	default:
		return fail(wmerr.Newf(wmerr.UnknownCommand, "config %s", args[0]))
	}
}

func (d *Dispatcher) configGet(key string) Response {
	cfg := d.Rec.Config()
	var val string
	switch key {
	case "layout":
		val = string(cfg.Layout)
	case "gap":
		val = strconv.FormatFloat(cfg.Gap, 'f', -1, 64)
	case "split_ratio":
		val = strconv.FormatFloat(cfg.SplitRatio, 'f', -1, 64)
	case "auto_balance":
		val = strconv.FormatBool(cfg.AutoBalance)
	case "focus_follows_mouse":
		val = string(cfg.FocusFollowsMouse)
	case "mouse_follows_focus":
		val = strconv.FormatBool(cfg.MouseFollowsFocus)
	case "top_padding":
		val = strconv.FormatFloat(cfg.Padding.Top, 'f', -1, 64)
	case "bottom_padding":
		val = strconv.FormatFloat(cfg.Padding.Bottom, 'f', -1, 64)
	case "left_padding":
		val = strconv.FormatFloat(cfg.Padding.Left, 'f', -1, 64)
	case "right_padding":
		val = strconv.FormatFloat(cfg.Padding.Right, 'f', -1, 64)
	case "external_bar":
		val = fmt.Sprintf("%s:%g:%g", cfg.ExternalBar.Position, cfg.ExternalBar.Top, cfg.ExternalBar.Bottom)
	default:
		return fail(wmerr.Newf(wmerr.InvalidArgument, "unknown config key %q", key))
	}
	return okPayload([]byte(val + "\n"))
}

func (d *Dispatcher) configSet(key, value string) Response {
	cfg := d.Rec.Config()
	switch key {
	case "layout":
		switch config.LayoutMode(value) {
		case config.LayoutBSP, config.LayoutStack, config.LayoutFloat:
			cfg.Layout = config.LayoutMode(value)
		default:
			return fail(wmerr.Newf(wmerr.InvalidValue, "layout %q", value))
		}
	case "gap":
		f, err := parseNonNegative(value)
		if err != nil {
			return fail(err)
		}
		cfg.Gap = f
	case "split_ratio":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f < 0.1 || f > 0.9 {
			return fail(wmerr.Newf(wmerr.InvalidValue, "split_ratio must be within [0.1, 0.9]"))
		}
		cfg.SplitRatio = f
	case "auto_balance":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fail(wmerr.Newf(wmerr.InvalidValue, "%q", value))
		}
		cfg.AutoBalance = b
	case "focus_follows_mouse":
		switch config.FFMMode(value) {
		case config.FFMOff, config.FFMAutofocus, config.FFMAutoraise:
			cfg.FocusFollowsMouse = config.FFMMode(value)
		default:
			return fail(wmerr.Newf(wmerr.InvalidValue, "focus_follows_mouse %q", value))
		}
	case "mouse_follows_focus":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fail(wmerr.Newf(wmerr.InvalidValue, "%q", value))
		}
		cfg.MouseFollowsFocus = b
	case "top_padding", "bottom_padding", "left_padding", "right_padding":
		f, err := parseNonNegative(value)
		if err != nil {
			return fail(err)
		}
		switch key {
		case "top_padding":
			cfg.Padding.Top = f
		case "bottom_padding":
			cfg.Padding.Bottom = f
		case "left_padding":
			cfg.Padding.Left = f
		case "right_padding":
			cfg.Padding.Right = f
		}
	case "external_bar":
		// position:top:bottom
		parts := strings.Split(value, ":")
		if len(parts) != 3 {
			return fail(wmerr.Newf(wmerr.InvalidValue, "external_bar must be position:top:bottom"))
		}
		switch config.BarPosition(parts[0]) {
		case config.BarOff, config.BarMain, config.BarAll:
		default:
			return fail(wmerr.Newf(wmerr.InvalidValue, "external_bar position %q", parts[0]))
		}
		top, err1 := parseNonNegative(parts[1])
		bottom, err2 := parseNonNegative(parts[2])
		if err1 != nil {
			return fail(err1)
		}
		if err2 != nil {
			return fail(err2)
		}
		cfg.ExternalBar = config.ExternalBar{Position: config.BarPosition(parts[0]), Top: top, Bottom: bottom}
	default:
		return fail(wmerr.Newf(wmerr.InvalidArgument, "unknown config key %q", key))
	}

	if layoutKeys[key] {
		d.Rec.Flags.Set(reconciler.FlagLayoutCurrent)
	}
	return ok()
}

func parseNonNegative(value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || f < 0 {
		return 0, wmerr.Newf(wmerr.InvalidValue, "%q must be a non-negative number", value)
	}
	return f, nil
}

// ruleCommand manipulates the runtime rule list. The config file is
// untouched; reloading restores the configured rules.
func (d *Dispatcher) ruleCommand(args []string) Response {
	if len(args) == 0 {
		return fail(wmerr.Newf(wmerr.MissingArgument, "rule needs --add, --list or --remove"))
	}

	switch args[0] {
	case "--list":
		return d.queryRules()
	case "--add":
		rule, err := parseRuleSpec(args[1:])
		if err != nil {
			return fail(err)
		}
		list := append(d.Rec.Rules().Rules(), rule)
		d.Rec.ReplaceRules(rules.NewEngine(list))
		d.Rec.Flags.Set(reconciler.FlagSyncSpaces)
		return ok()
	case "--remove":
		if len(args) < 2 {
			return fail(wmerr.Newf(wmerr.MissingArgument, "--remove needs an index"))
		}
		idx, err := strconv.Atoi(args[1])
		if err != nil {
			return fail(wmerr.Newf(wmerr.InvalidValue, "%q", args[1]))
		}
		list := d.Rec.Rules().Rules()
		if idx < 0 || idx >= len(list) {
			return fail(wmerr.Newf(wmerr.InvalidArgument, "rule index %d out of range", idx))
		}
		list = append(list[:idx], list[idx+1:]...)
		d.Rec.ReplaceRules(rules.NewEngine(list))
		return ok()
	default:
		return fail(wmerr.Newf(wmerr.UnknownCommand, "rule %s", args[0]))
	}
}

// parseRuleSpec parses key=value rule arguments: app=, space=,
// manage=, opacity=, layer=.
func parseRuleSpec(args []string) (config.Rule, error) {
	var rule config.Rule
	for _, a := range args {
		k, v, found := strings.Cut(a, "=")
		if !found {
			return rule, wmerr.Newf(wmerr.InvalidArgument, "rule argument %q is not key=value", a)
		}
		switch k {
		case "app":
			rule.App = v
		case "space":
			rule.Space = v
		case "manage":
			b, err := strconv.ParseBool(v)
			if err != nil {
				return rule, wmerr.Newf(wmerr.InvalidValue, "manage=%q", v)
			}
			rule.Manage = &b
		case "opacity":
			f, err := strconv.ParseFloat(v, 64)
			if err != nil || f < 0 || f > 1 {
				return rule, wmerr.Newf(wmerr.InvalidValue, "opacity=%q", v)
			}
			rule.Opacity = &f
		case "layer":
			l := config.WindowLayer(v)
			switch l {
			case config.LayerBelow, config.LayerNormal, config.LayerAbove:
			default:
				return rule, wmerr.Newf(wmerr.InvalidValue, "layer=%q", v)
			}
			rule.Layer = &l
		default:
			return rule, wmerr.Newf(wmerr.InvalidArgument, "unknown rule key %q", k)
		}
	}
	if rule.App == "" {
		return rule, wmerr.Newf(wmerr.MissingArgument, "rule needs app=")
	}
	return rule, nil
}
