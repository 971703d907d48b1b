package rules

import (
	"regexp"
	"strings"

	"github.com/yourusername/skyline/internal/config"
)

// Match is the resolved treatment for an application.
type Match struct {
	Manage     *bool
	SpaceLabel string
	Opacity    *float64
	Layer      *config.WindowLayer
}

// Managed reports whether a matched window should be tracked for layout.
// A rule without a manage override leaves the window managed.
func (m *Match) Managed() bool {
	return m == nil || m.Manage == nil || *m.Manage
}

type compiledRule struct {
	rule config.Rule
	re   *regexp.Regexp
}

// Engine matches application names against the configured rule list.
// First match wins. Immutable after construction.
type Engine struct {
	rules []compiledRule
}

// NewEngine compiles the rule list. Patterns that fail to compile fall
// back to case-insensitive exact matching on the pattern text.
func NewEngine(list []config.Rule) *Engine {
	e := &Engine{}
	for _, r := range list {
		cr := compiledRule{rule: r}
		if re, err := regexp.Compile("(?i)^(?:" + r.App + ")$"); err == nil {
			cr.re = re
		}
		e.rules = append(e.rules, cr)
	}
	return e
}

// Lookup returns the first rule matching appName, or nil.
func (e *Engine) Lookup(appName string) *Match {
	for _, cr := range e.rules {
		if cr.matches(appName) {
			return &Match{
				Manage:     cr.rule.Manage,
				SpaceLabel: cr.rule.Space,
				Opacity:    cr.rule.Opacity,
				Layer:      cr.rule.Layer,
			}
		}
	}
	return nil
}

// TargetLabel returns the space label a managed app should land on,
// or empty when no space-assigning rule matches.
func (e *Engine) TargetLabel(appName string) string {
	m := e.Lookup(appName)
	if m == nil || !m.Managed() {
		return ""
	}
	return m.SpaceLabel
}

// Rules returns a copy of the rule list.
func (e *Engine) Rules() []config.Rule {
	out := make([]config.Rule, len(e.rules))
	for i, cr := range e.rules {
		out[i] = cr.rule
	}
	return out
}

func (cr *compiledRule) matches(appName string) bool {
	if cr.re != nil {
		return cr.re.MatchString(appName)
	}
	return strings.EqualFold(cr.rule.App, appName)
}
