package api

import "strings"

// fqnMatches compares the name an import implies with a candidate's
// recorded name. Equality or either one being a suffix of the other counts
// as a match. The suffix test is on plain strings, so "xcore.add" matches
// "core.add"; callers treat the result as an approximation.
func fqnMatches(expected, actual string) bool {
	return expected == actual ||
		strings.HasSuffix(actual, expected) ||
		strings.HasSuffix(expected, actual)
}

func firstSegment(dotted string) string {
	head, _, _ := strings.Cut(dotted, ".")
	return head
}

func lastSegment(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[i+1:]
	}
	return dotted
}

// TargetNames is the set of module names that identify the target: the
// root package and the leaf name of every target module.
type TargetNames map[string]struct{}

func NewTargetNames(moduleNames ...string) TargetNames {
	t := make(TargetNames, 2*len(moduleNames))
	for _, m := range moduleNames {
		if m == "" {
			continue
		}
		t[firstSegment(m)] = struct{}{}
		t[lastSegment(m)] = struct{}{}
	}
	return t
}

// Owns reports whether a dotted module path belongs to the target, judged
// by its first segment.
func (t TargetNames) Owns(module string) bool {
	_, ok := t[firstSegment(module)]
	return ok
}
