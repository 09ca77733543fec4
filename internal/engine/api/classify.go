package api

import (
	"pubscan/internal/engine/discovery"
	"pubscan/internal/shared/util"
)

// Classify splits project files into those inside the boundary and the
// rest. Membership is tested on each file's resolved path, canonicalizing
// Path when no resolved form is present.
func Classify(files []discovery.File, boundary Boundary) (target, external []discovery.File) {
	for _, f := range files {
		if boundary.Contains(resolvedPath(f)) {
			target = append(target, f)
		} else {
			external = append(external, f)
		}
	}
	return target, external
}

// withBoundaryFiles appends boundary members that discovery did not report,
// such as a target outside the project root or under an excluded directory.
func withBoundaryFiles(target []discovery.File, boundary Boundary) ([]discovery.File, int) {
	seen := make(map[string]struct{}, len(target))
	for _, f := range target {
		seen[resolvedPath(f)] = struct{}{}
	}
	added := 0
	for _, p := range boundary.Paths() {
		if _, ok := seen[p]; ok {
			continue
		}
		target = append(target, discovery.File{Path: p, Resolved: p})
		added++
	}
	return target, added
}

func resolvedPath(f discovery.File) string {
	if f.Resolved != "" {
		return f.Resolved
	}
	return util.CanonicalOrRaw(f.Path)
}
