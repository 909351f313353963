package diagfmt

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"jasmc/internal/diag"
)

type palette struct {
	err, warn, info, code, where, note *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:   color.New(color.FgRed, color.Bold),
		warn:  color.New(color.FgYellow, color.Bold),
		info:  color.New(color.FgCyan, color.Bold),
		code:  color.New(color.Faint),
		where: color.New(color.Bold),
		note:  color.New(color.FgBlue),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.code, p.where, p.note} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <file>:<stmt path>: <SEV> <CODE>: <Message>
// затем Notes с отступом.
func Pretty(w io.Writer, bag *diag.Bag, opts PrettyOpts) {
	if bag == nil {
		return
	}
	p := newPalette(opts.Color)
	for _, d := range bag.Items() {
		where := formatLocation(d.Primary, opts.PathMode, opts.BaseDir)
		fmt.Fprintf(w, "%s: %s %s: %s\n",
			p.where.Sprint(where.String()),
			p.severity(d.Severity).Sprint(d.Severity.String()),
			p.code.Sprint(d.Code.ID()),
			clip(d.Message, opts.Width))
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			noteWhere := formatLocation(n.Where, opts.PathMode, opts.BaseDir)
			fmt.Fprintf(w, "  %s %s: %s\n", p.note.Sprint("note:"), noteWhere.String(), clip(n.Msg, opts.Width))
		}
	}
	if opts.Summary {
		errs, warns := bag.Counts()
		fmt.Fprintf(w, "%s, %s\n",
			p.err.Sprint(plural(errs, "error")),
			p.warn.Sprint(plural(warns, "warning")))
	}
}

func clip(msg string, width uint8) string {
	if width == 0 {
		return msg
	}
	return runewidth.Truncate(msg, int(width), "…")
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
