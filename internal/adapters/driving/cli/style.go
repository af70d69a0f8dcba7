package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/sercha-docs/internal/core/domain"
)

const progressInterval = 100 * time.Millisecond

var (
	dimStyle   = lipgloss.NewStyle().Faint(true)
	titleStyle = lipgloss.NewStyle().Bold(true)
)

// labelChip renders a label on its own colour.
func labelChip(l domain.Label) string {
	fg := lipgloss.Color("#ffffff")
	if l.IsLight() {
		fg = lipgloss.Color("#000000")
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(l.ColorString())).
		Foreground(fg).
		Padding(0, 1).
		Render(l.Name)
}

func labelChips(labels domain.LabelSet) string {
	chips := make([]string, len(labels))
	for i, l := range labels {
		chips[i] = labelChip(l)
	}
	return strings.Join(chips, " ")
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// newProgress prints throttled progress on a single terminal line.
// Nothing is printed when w is not a terminal.
func newProgress(w io.Writer) domain.ProgressFunc {
	if !isTerminal(w) {
		return domain.NoProgress
	}
	return progressTo(w, &rate.Sometimes{Interval: progressInterval})
}

func progressTo(w io.Writer, sometimes *rate.Sometimes) domain.ProgressFunc {
	return func(current, total int, step domain.Step, doc domain.Document) {
		line := func() {
			name := ""
			if doc != nil {
				name = doc.ID()
			}
			_, _ = io.WriteString(w, "\r\033[K"+progressLine(current, total, step, name))
		}
		if current >= total {
			line()
			_, _ = io.WriteString(w, "\n")
			return
		}
		sometimes.Do(line)
	}
}

func progressLine(current, total int, step domain.Step, name string) string {
	line := string(step)
	if total > 0 {
		line += fmt.Sprintf(" %d/%d", current, total)
	}
	if name != "" {
		line += " " + name
	}
	return line
}
