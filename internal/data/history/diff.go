package history

import "sort"

// Compare reports symbols that appeared, disappeared or changed usage
// count between prev and cur. A nil prev yields an empty diff.
func Compare(prev *Run, cur Run) Diff {
	if prev == nil {
		return Diff{}
	}
	d := Diff{PreviousID: prev.ID, PreviousAt: prev.Timestamp}

	before := make(map[string]SymbolRecord, len(prev.Symbols))
	for _, sym := range prev.Symbols {
		before[sym.Name] = sym
	}
	after := make(map[string]SymbolRecord, len(cur.Symbols))
	for _, sym := range cur.Symbols {
		after[sym.Name] = sym
		old, ok := before[sym.Name]
		switch {
		case !ok:
			d.Added = append(d.Added, sym)
		case old.UsageCount != sym.UsageCount:
			d.Changed = append(d.Changed, UsageChange{Name: sym.Name, Before: old.UsageCount, After: sym.UsageCount})
		}
	}
	for _, sym := range prev.Symbols {
		if _, ok := after[sym.Name]; !ok {
			d.Removed = append(d.Removed, sym)
		}
	}

	sort.Slice(d.Added, func(i, j int) bool { return d.Added[i].Name < d.Added[j].Name })
	sort.Slice(d.Removed, func(i, j int) bool { return d.Removed[i].Name < d.Removed[j].Name })
	sort.Slice(d.Changed, func(i, j int) bool { return d.Changed[i].Name < d.Changed[j].Name })
	return d
}
