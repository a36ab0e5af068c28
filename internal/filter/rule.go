// Package filter decides which discovered objects a crawl keeps.
package filter

import (
	"fmt"
	"regexp"
	"strings"
)

// Rule is an include pattern paired with an exclude pattern. Both patterns
// must match the whole name.
type Rule struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// NewRule compiles a rule. An empty include pattern matches everything and an
// empty exclude pattern matches nothing.
func NewRule(include, exclude string) (*Rule, error) {
	if include == "" {
		include = ".*"
	}
	inc, err := compile(include)
	if err != nil {
		return nil, fmt.Errorf("invalid include pattern %q: %w", include, err)
	}
	r := &Rule{include: inc}
	if exclude != "" {
		exc, err := compile(exclude)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", exclude, err)
		}
		r.exclude = exc
	}
	return r, nil
}

// MustRule is like NewRule but panics on an invalid pattern. It is meant for
// patterns fixed at compile time.
func MustRule(include, exclude string) *Rule {
	r, err := NewRule(include, exclude)
	if err != nil {
		panic(err)
	}
	return r
}

// IncludeAll returns the rule that keeps every non-blank name.
func IncludeAll() *Rule {
	return MustRule("", "")
}

// ExcludeAll returns the rule that keeps nothing.
func ExcludeAll() *Rule {
	return MustRule("", ".*")
}

// Test reports whether name passes the rule.
func (r *Rule) Test(name string) bool {
	if strings.TrimSpace(name) == "" {
		return false
	}
	if !r.include.MatchString(name) {
		return false
	}
	if r.exclude != nil && r.exclude.MatchString(name) {
		return false
	}
	return true
}

// String describes the rule.
func (r *Rule) String() string {
	exclude := ""
	if r.exclude != nil {
		exclude = unanchor(r.exclude.String())
	}
	return fmt.Sprintf("+/%s/ -/%s/", unanchor(r.include.String()), exclude)
}

func compile(pattern string) (*regexp.Regexp, error) {
	return regexp.Compile("^(?:" + pattern + ")$")
}

func unanchor(pattern string) string {
	return strings.TrimSuffix(strings.TrimPrefix(pattern, "^(?:"), ")$")
}
