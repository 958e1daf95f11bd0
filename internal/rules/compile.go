package rules

import (
	"fmt"
	"regexp"
	"strings"

	"callwire/internal/model"
)

// Compiled pairs a rule with its pre-compiled regex patterns. Patterns that
// fail to compile are recorded in Skipped and never retried at evaluation
// time; a bad pattern is a per-pattern defect, not a load failure.
type Compiled struct {
	model.Rule
	Patterns []*regexp.Regexp
	Skipped  []string
}

// Library is an ordered, immutable view of a compiled rule set. Loaded once
// per process lifetime.
type Library struct {
	set   model.RuleSet
	rules []Compiled
	byID  map[string]*Compiled
}

// Compile validates and pre-compiles every pattern in the set. Matching is
// done against the lower-cased transcript, and (?i) is prepended so patterns
// stay case-insensitive even for literals containing upper case.
func Compile(set model.RuleSet, includeOptional bool) *Library {
	lib := &Library{
		set:   set,
		rules: make([]Compiled, 0, len(set.Rules)),
		byID:  make(map[string]*Compiled, len(set.Rules)),
	}
	for _, r := range set.Rules {
		if r.Optional && !includeOptional {
			r.Enabled = false
		}
		cr := Compiled{Rule: r}
		for _, pattern := range r.RegexPatterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				cr.Skipped = append(cr.Skipped, fmt.Sprintf("%s: %v", pattern, err))
				continue
			}
			cr.Patterns = append(cr.Patterns, re)
		}
		lib.rules = append(lib.rules, cr)
	}
	for i := range lib.rules {
		lib.byID[lib.rules[i].ID] = &lib.rules[i]
	}
	return lib
}

// Rules returns all compiled rules in declared order, enabled or not.
func (l *Library) Rules() []Compiled {
	return l.rules
}

func (l *Library) Get(id string) (*Compiled, bool) {
	r, ok := l.byID[id]
	return r, ok
}

func (l *Library) Enabled() []Compiled {
	out := make([]Compiled, 0, len(l.rules))
	for _, r := range l.rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

func (l *Library) ByCategory(cat model.Category) []Compiled {
	out := make([]Compiled, 0)
	for _, r := range l.rules {
		if r.Category == cat {
			out = append(out, r)
		}
	}
	return out
}

func (l *Library) Version() string {
	return l.set.Version
}

func (l *Library) Disclaimer() string {
	return l.set.Disclaimer
}

// SkippedPatterns reports every pattern dropped at compile time, keyed by
// rule id, for startup logging.
func (l *Library) SkippedPatterns() map[string][]string {
	out := make(map[string][]string)
	for _, r := range l.rules {
		if len(r.Skipped) > 0 {
			out[r.ID] = r.Skipped
		}
	}
	return out
}

// IsTextDriven reports whether the rule consults transcript text at all.
// Metadata-driven and text-driven detection are mutually exclusive.
func (r *Compiled) IsTextDriven() bool {
	return !r.RequiresMetadata && (len(r.Triggers) > 0 || len(r.Patterns) > 0)
}

// Validate checks the exclusivity invariant on a raw set before compiling.
func Validate(set model.RuleSet) error {
	seen := make(map[string]struct{}, len(set.Rules))
	for _, r := range set.Rules {
		id := strings.TrimSpace(r.ID)
		if id == "" {
			return fmt.Errorf("rule with empty id (title %q)", r.Title)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("duplicate rule id %s", id)
		}
		seen[id] = struct{}{}
		if r.RequiresMetadata && (len(r.Triggers) > 0 || len(r.RegexPatterns) > 0) {
			return fmt.Errorf("rule %s: metadata-driven rules must not declare triggers or patterns", id)
		}
	}
	return nil
}
