package state

import (
	"fmt"
	"regexp"
)

// templateToken matches "{{$.path}}" occurrences inside a larger string.
var templateToken = regexp.MustCompile(`\{\{\s*(\$\.[A-Za-z0-9_.\[\]]+)\s*\}\}`)

// bareToken matches a value that is *entirely* a "$.path" reference,
// with no surrounding text — the case where the substituted value keeps
// its original JSON type instead of being stringified.
var bareToken = regexp.MustCompile(`^\$\.[A-Za-z0-9_.\[\]]+$`)

// Report summarises one Interpolate call for the caller's own policy
// decision on unresolved references (spec.md leaves that per-caller).
type Report struct {
	Found      []string
	Replaced   []string
	Unresolved []string
}

// Interpolate walks value (which may be a string, map, or slice)
// replacing every "{{$.path}}" or bare "$.path" occurrence with the
// corresponding state value. Nested templates are resolved once: the
// substituted value is never re-scanned for further tokens.
func (m *Manager) Interpolate(value any) (any, Report) {
	rep := Report{}
	out := m.interpolateValue(value, &rep)
	return out, rep
}

func (m *Manager) interpolateValue(value any, rep *Report) any {
	switch v := value.(type) {
	case string:
		return m.interpolateString(v, rep)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, vv := range v {
			out[k] = m.interpolateValue(vv, rep)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, vv := range v {
			out[i] = m.interpolateValue(vv, rep)
		}
		return out
	default:
		return value
	}
}

func (m *Manager) interpolateString(s string, rep *Report) any {
	if bareToken.MatchString(s) {
		rep.Found = append(rep.Found, s)
		resolved, ok := m.Get(s)
		if !ok {
			rep.Unresolved = append(rep.Unresolved, s)
			return s
		}
		rep.Replaced = append(rep.Replaced, s)
		return resolved
	}

	if !templateToken.MatchString(s) {
		return s
	}

	result := templateToken.ReplaceAllStringFunc(s, func(token string) string {
		path := templateToken.FindStringSubmatch(token)[1]
		rep.Found = append(rep.Found, path)
		resolved, ok := m.Get(path)
		if !ok {
			rep.Unresolved = append(rep.Unresolved, path)
			return token
		}
		rep.Replaced = append(rep.Replaced, path)
		return fmt.Sprintf("%v", resolved)
	})
	return result
}
