// Package command maps typed IPC commands onto reconciler-safe state
// mutations. Handlers run on the loop thread and share the state
// store APIs the event pipeline uses; mutations that need a layout
// mark dirty state instead of laying out directly, except where a
// user action must feel instantaneous.
package command

import (
	"strings"

	"github.com/yourusername/skyline/internal/logging"
	"github.com/yourusername/skyline/internal/platform"
	"github.com/yourusername/skyline/internal/reconciler"
	"github.com/yourusername/skyline/internal/selector"
	"github.com/yourusername/skyline/internal/store"
	"github.com/yourusername/skyline/internal/wmerr"
)

// Response is the outcome of one command.
type Response struct {
	OK      bool
	Payload []byte
	Err     error
}

func ok() Response {
	return Response{OK: true}
}

func okPayload(payload []byte) Response {
	return Response{OK: true, Payload: payload}
}

func fail(err error) Response {
	return Response{Err: err}
}

// Dispatcher executes parsed commands.
type Dispatcher struct {
	Store    *store.Store
	Adapter  platform.Adapter
	SA       platform.SAChannel
	Rec      *reconciler.Reconciler
	Resolver *selector.Resolver
}

// NewDispatcher assembles a dispatcher around a reconciler.
func NewDispatcher(rec *reconciler.Reconciler) *Dispatcher {
	return &Dispatcher{
		Store:    rec.Store,
		Adapter:  rec.Adapter,
		SA:       rec.SA,
		Rec:      rec,
		Resolver: selector.New(rec.Store, rec.Adapter),
	}
}

// Execute dispatches one argv-style command.
func (d *Dispatcher) Execute(argv []string) Response {
	if len(argv) == 0 {
		return fail(wmerr.New(wmerr.EmptyCommand))
	}

	domain, rest := argv[0], argv[1:]
	logging.Debug().Str("domain", domain).Strs("args", rest).Msg("command")

	switch domain {
	case "window":
		return d.windowCommand(rest)
	case "space":
		return d.spaceCommand(rest)
	case "display":
		return d.displayCommand(rest)
	case "config":
		return d.configCommand(rest)
	case "rule":
		return d.ruleCommand(rest)
	case "query":
		return d.queryCommand(rest)
	case "signal":
		// Reserved for event subscriptions; accepted so scripts can
		// probe for support.
		return fail(wmerr.Newf(wmerr.UnknownCommand, "signal is not supported"))
	default:
		return fail(wmerr.Newf(wmerr.UnknownDomain, "%q", domain))
	}
}

// splitSelector separates the leading selector token (if any) from
// the dashed verb and its arguments.
func splitSelector(args []string) (sel string, rest []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "--") {
		return "", args
	}
	return args[0], args[1:]
}

// verbArgs returns the arguments following a verb up to the next
// dashed verb.
func verbArgs(args []string, i int) []string {
	var out []string
	for j := i + 1; j < len(args) && !strings.HasPrefix(args[j], "--"); j++ {
		out = append(out, args[j])
	}
	return out
}

// hasVerb reports whether a dashed verb appears anywhere in args.
func hasVerb(args []string, verb string) bool {
	for _, a := range args {
		if a == verb {
			return true
		}
	}
	return false
}
