package api

import (
	"fmt"

	"pubscan/internal/core/errors"
	"pubscan/internal/shared/util"
)

// Assemble joins usage back onto the candidates, keeps symbols used at
// least once and sorts them by name. An inconsistent usage entry is an
// internal fault.
func Assemble(candidates Candidates, usage map[string]Usage) ([]APISymbol, error) {
	symbols := make([]APISymbol, 0)
	for _, name := range util.SortedStringKeys(usage) {
		u := usage[name]
		if u.Count != len(u.Importers) {
			return nil, errors.AddContext(
				errors.New(errors.CodeInternal, fmt.Sprintf("usage count %d does not match %d importers", u.Count, len(u.Importers))),
				errors.CtxSymbol, name)
		}
		if u.Count == 0 {
			continue
		}
		def, ok := candidates[name]
		if !ok {
			return nil, errors.AddContext(errors.New(errors.CodeInternal, "usage recorded for unknown symbol"), errors.CtxSymbol, name)
		}
		symbols = append(symbols, APISymbol{
			Name:       name,
			Definition: def,
			UsageCount: u.Count,
			Importers:  util.SortedStringKeys(u.Importers),
		})
	}
	return symbols, nil
}
