package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"pubscan/internal/data/history"
	"pubscan/internal/engine/api"
)

const emptyMessage = "No public API symbols found with external usage."

// RenderText writes the full report grouped by symbol kind.
func RenderText(w io.Writer, rep Report) error {
	st := newStyles(w)
	var b strings.Builder

	if len(rep.Symbols) == 0 {
		b.WriteString(emptyMessage + "\n")
	} else {
		fmt.Fprintf(&b, "Public API for %s:\n\n", st.target.Render(rep.Target))

		byKind := make(map[api.SymbolKind][]api.APISymbol)
		for _, sym := range rep.Symbols {
			byKind[sym.Definition.Kind] = append(byKind[sym.Definition.Kind], sym)
		}
		for _, kind := range api.KindOrder {
			group := byKind[kind]
			if len(group) == 0 {
				continue
			}
			fmt.Fprintf(&b, "%s:\n", st.heading.Render(strings.ToUpper(kind.String())))
			for _, sym := range group {
				writeSymbol(&b, st, sym)
			}
		}
		fmt.Fprintf(&b, "Found %s public API symbols with external usage.\n",
			st.heading.Render(fmt.Sprint(len(rep.Symbols))))
	}

	if rep.Changes != nil {
		writeChanges(&b, st, *rep.Changes)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeSymbol(b *strings.Builder, st styles, sym api.APISymbol) {
	visibility := st.public.Render("public")
	if !sym.Definition.IsPublic {
		visibility = st.private.Render("private")
	}
	fmt.Fprintf(b, "  %s (%s external usages, %s)\n",
		st.name.Render(sym.Name), st.count.Render(fmt.Sprint(sym.UsageCount)), visibility)
	fmt.Fprintf(b, "    Fully qualified: %s\n", st.fqn.Render(sym.Definition.FullyQualifiedName))

	if sym.Definition.Docstring != nil {
		doc := strings.TrimSpace(*sym.Definition.Docstring)
		if doc != "" {
			fmt.Fprintf(b, "    %s\n", st.doc.Render(doc))
		}
	}
	fmt.Fprintf(b, "    Location: %s\n", st.dim.Render(sym.Definition.Location))

	if n := len(sym.Importers); n > 0 {
		sample := sym.Importers
		if n > importerSample {
			sample = sample[:importerSample]
		}
		line := st.dim.Render(strings.Join(sample, ", "))
		if n > importerSample {
			fmt.Fprintf(b, "    Imported by: %s and %s more files\n", line, st.dim.Render(fmt.Sprint(n-importerSample)))
		} else {
			fmt.Fprintf(b, "    Imported by: %s\n", line)
		}
	}
	b.WriteString("\n")
}

func writeChanges(b *strings.Builder, st styles, d history.Diff) {
	when := d.PreviousAt.UTC().Format("2006-01-02T15:04:05Z")
	if d.Empty() {
		fmt.Fprintf(b, "\nNo public API changes since run %s (%s).\n", d.PreviousID, when)
		return
	}
	fmt.Fprintf(b, "\nChanges since run %s (%s):\n", d.PreviousID, when)
	for _, sym := range d.Added {
		fmt.Fprintf(b, "  %s %s (%s)\n", st.added.Render("+"), sym.Name, usages(sym.UsageCount))
	}
	for _, sym := range d.Removed {
		fmt.Fprintf(b, "  %s %s\n", st.removed.Render("-"), sym.Name)
	}
	for _, c := range d.Changed {
		fmt.Fprintf(b, "  %s %s (%d -> %d external usages)\n", st.modified.Render("~"), c.Name, c.Before, c.After)
	}
}

func usages(n int) string {
	if n == 1 {
		return "1 external usage"
	}
	return fmt.Sprintf("%d external usages", n)
}

// RenderShort writes one line per symbol, most used first.
func RenderShort(w io.Writer, rep Report) error {
	if len(rep.Symbols) == 0 {
		_, err := io.WriteString(w, emptyMessage+"\n")
		return err
	}

	st := newStyles(w)
	sorted := append([]api.APISymbol(nil), rep.Symbols...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UsageCount != sorted[j].UsageCount {
			return sorted[i].UsageCount > sorted[j].UsageCount
		}
		return sorted[i].Name < sorted[j].Name
	})

	var b strings.Builder
	fmt.Fprintf(&b, "Public API Summary for %s:\n", st.target.Render(rep.Target))
	for _, sym := range sorted {
		fmt.Fprintf(&b, "  %s (%s)\n", st.fqn.Render(sym.Name), usages(sym.UsageCount))
	}
	_, err := io.WriteString(w, b.String())
	return err
}
