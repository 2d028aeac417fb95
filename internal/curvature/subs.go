package curvature

import (
	"fmt"
	"sort"
	"strings"

	"github.com/njchilds90/gocurvature/symbolic"
)

// ParseSubstitutions turns {"G": "1", "c": "1"} into symbol replacements.
// Keys must be plain symbol names; values use the expression syntax of
// symbolic.Parse.
func ParseSubstitutions(raw map[string]string) (map[string]symbolic.Expr, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]symbolic.Expr, len(raw))
	for _, name := range names {
		key, err := symbolic.Parse(name)
		if sym, ok := key.(*symbolic.Sym); err != nil || !ok || sym.Name() != name {
			return nil, fmt.Errorf("%w: %q is not a symbol name", ErrInvalidSubstitution, name)
		}
		val, err := symbolic.Parse(raw[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q: %v", ErrInvalidSubstitution, name, raw[name], err)
		}
		out[name] = val
	}
	return out, nil
}

// ParseAssignments splits NAME=VALUE pairs, as given on a command line or in
// a comma-separated list.
func ParseAssignments(pairs []string) (map[string]string, error) {
	out := map[string]string{}
	for _, p := range pairs {
		for _, part := range strings.Split(p, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			name, val, ok := strings.Cut(part, "=")
			name, val = strings.TrimSpace(name), strings.TrimSpace(val)
			if !ok || name == "" || val == "" {
				return nil, fmt.Errorf("%w: %q is not NAME=VALUE", ErrInvalidSubstitution, part)
			}
			out[name] = val
		}
	}
	return out, nil
}
