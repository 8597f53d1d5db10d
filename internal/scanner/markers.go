package scanner

import (
	"fmt"
	"slices"
	"strings"
)

// NormalizeType lower-cases an extension and gives it a leading dot.
func NormalizeType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if t != "" && !strings.HasPrefix(t, ".") {
		t = "." + t
	}
	return t
}

// SelectTypes validates requested marker types against the recognized set.
// An empty request selects every recognized type. The result is sorted and
// unique.
func SelectTypes(requested, recognized []string) ([]string, error) {
	allowed := make([]string, 0, len(recognized))
	for _, r := range recognized {
		if n := NormalizeType(r); n != "" {
			allowed = append(allowed, n)
		}
	}

	if len(requested) == 0 {
		out := slices.Clone(allowed)
		slices.Sort(out)
		return slices.Compact(out), nil
	}

	var valid, invalid []string
	for _, r := range requested {
		n := NormalizeType(r)
		if n == "" {
			continue
		}
		if slices.Contains(allowed, n) {
			valid = append(valid, n)
		} else {
			invalid = append(invalid, n)
		}
	}
	if len(invalid) > 0 {
		slices.Sort(invalid)
		invalid = slices.Compact(invalid)
		return nil, fmt.Errorf("invalid project type values: %s. Allowed: %s",
			strings.Join(invalid, ", "), strings.Join(allowed, ", "))
	}
	if len(valid) == 0 {
		return SelectTypes(nil, recognized)
	}

	slices.Sort(valid)
	return slices.Compact(valid), nil
}

// IsFullSet reports whether selected covers exactly the recognized types.
func IsFullSet(selected, recognized []string) bool {
	all, _ := SelectTypes(nil, recognized)
	sel := slices.Clone(selected)
	slices.Sort(sel)
	return slices.Equal(slices.Compact(sel), all)
}
