package report

import (
	"encoding/json"
	"io"
	"time"

	"pubscan/internal/data/history"
	"pubscan/internal/engine/api"
)

type jsonOutput struct {
	PublicAPI  []jsonSymbol `json:"public_api"`
	TargetPath string       `json:"target_path"`
	Changes    *jsonChanges `json:"changes,omitempty"`
}

type jsonSymbol struct {
	Name               string         `json:"name"`
	FullyQualifiedName string         `json:"fully_qualified_name"`
	Kind               api.SymbolKind `json:"kind"`
	Location           string         `json:"location"`
	Docstring          *string        `json:"docstring"`
	UsageCount         int            `json:"usage_count"`
	Importers          []string       `json:"importers"`
	IsPublic           bool           `json:"is_public"`
}

type jsonChanges struct {
	PreviousRun string          `json:"previous_run"`
	PreviousAt  time.Time       `json:"previous_at"`
	Added       []string        `json:"added"`
	Removed     []string        `json:"removed"`
	Changed     []jsonUsageDiff `json:"changed"`
}

type jsonUsageDiff struct {
	Name   string `json:"name"`
	Before int    `json:"before"`
	After  int    `json:"after"`
}

// RenderJSON writes rep as an indented JSON document.
func RenderJSON(w io.Writer, rep Report) error {
	out := jsonOutput{
		PublicAPI:  make([]jsonSymbol, 0, len(rep.Symbols)),
		TargetPath: rep.Target,
	}
	for _, sym := range rep.Symbols {
		importers := sym.Importers
		if importers == nil {
			importers = []string{}
		}
		out.PublicAPI = append(out.PublicAPI, jsonSymbol{
			Name:               sym.Name,
			FullyQualifiedName: sym.Definition.FullyQualifiedName,
			Kind:               sym.Definition.Kind,
			Location:           sym.Definition.Location,
			Docstring:          sym.Definition.Docstring,
			UsageCount:         sym.UsageCount,
			Importers:          importers,
			IsPublic:           sym.Definition.IsPublic,
		})
	}
	if rep.Changes != nil {
		out.Changes = changesJSON(*rep.Changes)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}

func changesJSON(d history.Diff) *jsonChanges {
	c := &jsonChanges{
		PreviousRun: d.PreviousID,
		PreviousAt:  d.PreviousAt.UTC(),
		Added:       make([]string, 0, len(d.Added)),
		Removed:     make([]string, 0, len(d.Removed)),
		Changed:     make([]jsonUsageDiff, 0, len(d.Changed)),
	}
	for _, sym := range d.Added {
		c.Added = append(c.Added, sym.Name)
	}
	for _, sym := range d.Removed {
		c.Removed = append(c.Removed, sym.Name)
	}
	for _, u := range d.Changed {
		c.Changed = append(c.Changed, jsonUsageDiff{Name: u.Name, Before: u.Before, After: u.After})
	}
	return c
}
