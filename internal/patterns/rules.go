// Package patterns finds curated vocabulary in transcripts with a versioned,
// weighted rule table.
//
// A [RuleSet] is compiled once and never mutated; it is safe to share between
// goroutines. Every match becomes a [types.Candidate] carrying the rule's
// meaning, difficulty, category and priority weight. Overlapping matches are
// all reported: conflict resolution belongs to the ranker.
package patterns

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/MrWong99/lexora/pkg/types"
)

// Rule is a single curated expression.
type Rule struct {
	// ID identifies the rule in logs and candidate sources. Assigned from the
	// group position when empty.
	ID string

	// Pattern is an RE2 expression. English patterns are matched
	// case-insensitively and anchored on word boundaries; Japanese patterns
	// are matched exactly.
	Pattern string

	Meaning  string
	Reading  string
	Level    types.Level
	Priority int
	Tags     []string

	re *regexp.Regexp
}

// Group is a set of rules sharing a language and category.
type Group struct {
	Language types.Language
	Category types.Category

	// Tags are attached to every candidate produced by the group's rules.
	Tags  []string
	Rules []Rule
}

// RuleSet is an immutable, compiled rule table.
type RuleSet struct {
	version string
	groups  []Group
	size    int
}

// NewRuleSet validates and compiles groups. The groups slice is copied.
func NewRuleSet(version string, groups []Group) (*RuleSet, error) {
	if version == "" {
		return nil, errors.New("patterns: rule set version must not be empty")
	}
	rs := &RuleSet{version: version, groups: make([]Group, len(groups))}
	var errs []error
	for gi, g := range groups {
		if g.Language != types.Japanese && g.Language != types.English {
			errs = append(errs, fmt.Errorf("group %d: language must be japanese or english, got %q", gi, g.Language))
		}
		if !g.Category.IsValid() {
			errs = append(errs, fmt.Errorf("group %d: unknown category %q", gi, g.Category))
		}
		compiled := Group{
			Language: g.Language,
			Category: g.Category,
			Tags:     append([]string(nil), g.Tags...),
			Rules:    make([]Rule, len(g.Rules)),
		}
		for ri, r := range g.Rules {
			if r.ID == "" {
				r.ID = fmt.Sprintf("%s.%s.%d-%d", shortLang(g.Language), g.Category, gi, ri)
			}
			if !r.Level.Valid(g.Language) {
				errs = append(errs, fmt.Errorf("rule %s: level %d outside the %s scale", r.ID, r.Level, g.Language))
			}
			if r.Priority < 1 || r.Priority > 10 {
				errs = append(errs, fmt.Errorf("rule %s: priority %d outside 1..10", r.ID, r.Priority))
			}
			re, err := compile(g.Language, r.Pattern)
			if err != nil {
				errs = append(errs, fmt.Errorf("rule %s: %w", r.ID, err))
			}
			r.re = re
			r.Tags = append([]string(nil), r.Tags...)
			compiled.Rules[ri] = r
		}
		rs.groups[gi] = compiled
		rs.size += len(g.Rules)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("patterns: invalid rule set %q: %w", version, err)
	}
	return rs, nil
}

// MustNewRuleSet is like [NewRuleSet] but panics on error. Intended for
// built-in tables.
func MustNewRuleSet(version string, groups []Group) *RuleSet {
	rs, err := NewRuleSet(version, groups)
	if err != nil {
		panic(err)
	}
	return rs
}

func compile(lang types.Language, pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, errors.New("empty pattern")
	}
	if lang == types.English {
		pattern = `(?i)\b(?:` + pattern + `)\b`
	}
	return regexp.Compile(pattern)
}

func shortLang(l types.Language) string {
	if l == types.Japanese {
		return "ja"
	}
	return "en"
}

// Version identifies the rule table. It participates in cache keys so that a
// table change invalidates cached results.
func (rs *RuleSet) Version() string { return rs.version }

// Len returns the number of rules.
func (rs *RuleSet) Len() int { return rs.size }

// Groups returns a copy of the compiled groups, in table order.
func (rs *RuleSet) Groups() []Group {
	out := make([]Group, len(rs.groups))
	copy(out, rs.groups)
	return out
}

// Extend returns a new rule set holding rs's groups followed by extra.
func (rs *RuleSet) Extend(version string, extra []Group) (*RuleSet, error) {
	groups := rs.Groups()
	for i := range groups {
		rules := make([]Rule, len(groups[i].Rules))
		copy(rules, groups[i].Rules)
		groups[i].Rules = rules
	}
	return NewRuleSet(version, append(groups, extra...))
}
