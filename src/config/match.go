package config

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is a compiled ref filter. Entries are policy names, inline regex
// ("re:^v1\\."), or plain regex; a leading "!" negates an entry.
//
// Excludes win over includes. A filter with only excludes allows everything
// it does not exclude; an empty filter allows everything.
type Filter struct {
	include []*regexp.Regexp
	exclude []*regexp.Regexp
}

// identifierRe matches valid policy key names: letter-first, alphanumeric + _ . -
var identifierRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_.\-]*$`)

func isIdentifier(s string) bool {
	return identifierRe.MatchString(s)
}

// CompileFilter resolves entries against policies and compiles them.
// Unknown identifier-like names are kept as literal regexes and reported
// as warnings, since they are usually typos of a policy name.
func CompileFilter(entries []string, policies map[string]string) (*Filter, []string, error) {
	f := &Filter{}
	var warnings []string

	for _, entry := range entries {
		negate := strings.HasPrefix(entry, "!")
		raw := strings.TrimPrefix(entry, "!")

		var pattern string
		switch {
		case strings.HasPrefix(raw, "re:"):
			pattern = raw[3:]
		case policies[raw] != "":
			pattern = policies[raw]
		default:
			pattern = raw
			if isIdentifier(raw) && !strings.ContainsAny(raw, `^$.*+?()[]{}|\`) {
				warnings = append(warnings, fmt.Sprintf("unknown policy name %q; matching it literally", raw))
				pattern = "^" + regexp.QuoteMeta(raw) + "$"
			}
		}

		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, warnings, fmt.Errorf("invalid pattern %q: %w", entry, err)
		}
		if negate {
			f.exclude = append(f.exclude, re)
		} else {
			f.include = append(f.include, re)
		}
	}

	return f, warnings, nil
}

// Match reports whether value passes the filter.
func (f *Filter) Match(value string) bool {
	if f == nil {
		return true
	}
	for _, re := range f.exclude {
		if re.MatchString(value) {
			return false
		}
	}
	if len(f.include) == 0 {
		return true
	}
	for _, re := range f.include {
		if re.MatchString(value) {
			return true
		}
	}
	return false
}

// MatchRef compiles entries and matches value in one go. An invalid pattern
// never matches; Validate reports it at load time.
func MatchRef(entries []string, value string, policies map[string]string) bool {
	f, _, err := CompileFilter(entries, policies)
	if err != nil {
		return false
	}
	return f.Match(value)
}
