// # internal/ui/report/report.go
package report

import (
	"fmt"
	"io"
	"strings"

	"pubscan/internal/data/history"
	"pubscan/internal/engine/api"
)

const (
	FormatText = "text"
	FormatJSON = "json"

	// importerSample is how many importers text output lists by name.
	importerSample = 3
)

// Formats lists the accepted --output-format values.
var Formats = []string{FormatText, FormatJSON}

// Report is everything a renderer needs for one analysis.
type Report struct {
	Target  string
	Symbols []api.APISymbol
	// Changes is set when history is enabled and a previous run exists.
	Changes *history.Diff
}

type Options struct {
	Format string
	Short  bool
}

// Render writes rep to w. Short output takes precedence over the format.
func Render(w io.Writer, rep Report, opts Options) error {
	switch {
	case opts.Short:
		return RenderShort(w, rep)
	case strings.EqualFold(opts.Format, FormatJSON):
		return RenderJSON(w, rep)
	case opts.Format == "" || strings.EqualFold(opts.Format, FormatText):
		return RenderText(w, rep)
	default:
		return fmt.Errorf("unsupported output format %q", opts.Format)
	}
}
