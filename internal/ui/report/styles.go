package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// styles holds the terminal styles for one writer. The renderer inspects w:
// anything that is not a terminal, or a terminal with NO_COLOR set, gets
// plain text.
type styles struct {
	target   lipgloss.Style
	heading  lipgloss.Style
	name     lipgloss.Style
	count    lipgloss.Style
	public   lipgloss.Style
	private  lipgloss.Style
	fqn      lipgloss.Style
	doc      lipgloss.Style
	dim      lipgloss.Style
	added    lipgloss.Style
	removed  lipgloss.Style
	modified lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		target:   r.NewStyle().Bold(true),
		heading:  r.NewStyle().Bold(true),
		name:     r.NewStyle().Foreground(lipgloss.Color("6")).Bold(true),
		count:    r.NewStyle().Foreground(lipgloss.Color("2")),
		public:   r.NewStyle().Foreground(lipgloss.Color("2")),
		private:  r.NewStyle().Foreground(lipgloss.Color("1")),
		fqn:      r.NewStyle().Foreground(lipgloss.Color("6")),
		doc:      r.NewStyle().Italic(true),
		dim:      r.NewStyle().Faint(true),
		added:    r.NewStyle().Foreground(lipgloss.Color("2")),
		removed:  r.NewStyle().Foreground(lipgloss.Color("1")),
		modified: r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}
