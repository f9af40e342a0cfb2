// Package reporter renders diagnostics for the terminal.
package reporter

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/strata/internal/core/ports"
	"go.trai.ch/strata/internal/ui/output"
	"go.trai.ch/strata/internal/ui/style"
)

// contextLines is the number of source lines shown around a highlight.
const contextLines = 2

var _ ports.DiagnosticSink = (*Reporter)(nil)

// Reporter writes diagnostics with code frames.
type Reporter struct {
	mu     sync.Mutex
	w      io.Writer
	styles styles
}

type styles struct {
	err, warn, info, muted, accent, bold lipgloss.Style
}

// New creates a Reporter writing to w. A nil writer means stderr.
func New(w io.Writer) *Reporter {
	if w == nil {
		w = os.Stderr
	}

	r := lipgloss.NewRenderer(w, termenv.WithProfile(output.ColorProfile()))
	r.SetColorProfile(output.ColorProfile())

	return &Reporter{
		w: w,
		styles: styles{
			err:    r.NewStyle().Foreground(style.Red).Bold(true),
			warn:   r.NewStyle().Foreground(style.Yellow).Bold(true),
			info:   r.NewStyle().Foreground(style.Blue),
			muted:  r.NewStyle().Foreground(style.Muted),
			accent: r.NewStyle().Foreground(style.Accent),
			bold:   r.NewStyle().Bold(true),
		},
	}
}

// Report writes diags in order.
func (r *Reporter) Report(_ context.Context, diags []domain.Diagnostic) {
	if len(diags) == 0 {
		return
	}

	var b strings.Builder
	for _, d := range diags {
		r.render(&b, d)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	_, _ = io.WriteString(r.w, b.String())
}

func (r *Reporter) render(b *strings.Builder, d domain.Diagnostic) {
	icon, head := style.Cross, r.styles.err
	switch d.Severity {
	case domain.SeverityWarning:
		icon, head = style.Warning, r.styles.warn
	case domain.SeverityInfo:
		icon, head = style.Info, r.styles.info
	}

	title := d.Message
	if d.Origin != "" {
		title = d.Origin + ": " + title
	}
	b.WriteString(head.Render(icon+" "+title) + "\n")

	for _, frame := range d.CodeFrames {
		r.renderFrame(b, frame)
	}
	for _, hint := range d.Hints {
		b.WriteString("  " + r.styles.accent.Render(style.Arrow+" "+hint) + "\n")
	}
	if d.DocumentationURL != "" {
		b.WriteString("  " + r.styles.muted.Render("Learn more: "+d.DocumentationURL) + "\n")
	}
	b.WriteString("\n")
}

// renderFrame prints the file location followed by the highlighted lines and their neighbours.
func (r *Reporter) renderFrame(b *strings.Builder, frame domain.CodeFrame) {
	location := frame.FilePath
	if len(frame.Highlights) > 0 {
		start := frame.Highlights[0].Start
		location = fmt.Sprintf("%s:%d:%d", frame.FilePath, start.Line, start.Column)
	}
	b.WriteString("  " + r.styles.bold.Render(location) + "\n")

	if frame.Code == "" || len(frame.Highlights) == 0 {
		return
	}

	lines := strings.Split(frame.Code, "\n")
	first, last := len(lines), 0
	for _, h := range frame.Highlights {
		first = min(first, h.Start.Line-contextLines)
		last = max(last, h.End.Line+contextLines)
	}
	first = max(first, 1)
	last = min(last, len(lines))
	width := len(strconv.Itoa(last))

	for n := first; n <= last; n++ {
		gutter := fmt.Sprintf("%*d %s", width, n, style.Gutter)
		b.WriteString("  " + r.styles.muted.Render(gutter) + " " + lines[n-1] + "\n")

		for _, h := range frame.Highlights {
			if h.Start.Line != n {
				continue
			}
			end := h.End.Column
			if h.End.Line != h.Start.Line {
				end = len(lines[n-1])
			}
			length := max(end-h.Start.Column+1, 1)
			marker := strings.Repeat(" ", max(h.Start.Column-1, 0)) + strings.Repeat(style.Caret, length)
			if h.Message != "" {
				marker += " " + h.Message
			}
			pad := strings.Repeat(" ", width) + " " + style.Gutter
			b.WriteString("  " + r.styles.muted.Render(pad) + " " + r.styles.err.Render(marker) + "\n")
		}
	}
}
