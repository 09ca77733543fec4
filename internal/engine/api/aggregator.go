// # internal/engine/api/aggregator.go
package api

import (
	"sync"

	"pubscan/internal/shared/observability"
)

// Usage is the aggregated usage of one candidate. Count always equals
// len(Importers).
type Usage struct {
	Count     int
	Importers map[string]struct{}
}

// Aggregator accumulates usages from concurrent file scans. Every candidate
// starts with a zero entry; entries only grow.
type Aggregator struct {
	mu    sync.Mutex
	usage map[string]*Usage
}

func NewAggregator(candidates Candidates) *Aggregator {
	a := &Aggregator{usage: make(map[string]*Usage, len(candidates))}
	for name := range candidates {
		a.usage[name] = &Usage{Importers: make(map[string]struct{})}
	}
	return a
}

// Record counts one usage of name by the file at path. It reports false
// when name is not a candidate or path was already counted for it.
func (a *Aggregator) Record(name, path string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	u, ok := a.usage[name]
	if !ok {
		return false
	}
	if _, seen := u.Importers[path]; seen {
		return false
	}
	u.Importers[path] = struct{}{}
	u.Count++
	observability.UsagesRecordedTotal.Inc()
	return true
}

// Snapshot returns a deep copy of the current state.
func (a *Aggregator) Snapshot() map[string]Usage {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]Usage, len(a.usage))
	for name, u := range a.usage {
		importers := make(map[string]struct{}, len(u.Importers))
		for p := range u.Importers {
			importers[p] = struct{}{}
		}
		out[name] = Usage{Count: u.Count, Importers: importers}
	}
	return out
}
