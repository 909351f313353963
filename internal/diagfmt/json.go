package diagfmt

import (
	"encoding/json"
	"io"

	"jasmc/internal/diag"
)

// LocationJSON представляет местоположение в юните для JSON
type LocationJSON struct {
	File  string `json:"file"`
	Index int    `json:"index"`
	Path  string `json:"path,omitempty"`
}

// NoteJSON представляет дополнительную заметку для JSON
type NoteJSON struct {
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
}

// DiagnosticJSON представляет диагностику в JSON формате
type DiagnosticJSON struct {
	Severity string       `json:"severity"`
	Code     string       `json:"code"`
	Title    string       `json:"title"`
	Message  string       `json:"message"`
	Location LocationJSON `json:"location"`
	Notes    []NoteJSON   `json:"notes,omitempty"`
}

// DiagnosticsOutput представляет корневую структуру JSON вывода
type DiagnosticsOutput struct {
	Diagnostics []DiagnosticJSON `json:"diagnostics"`
	Count       int              `json:"count"`
	Errors      int              `json:"errors"`
	Warnings    int              `json:"warnings"`
}

func makeLocation(loc diag.Location, opts JSONOpts) LocationJSON {
	return LocationJSON{
		File:  formatPath(loc.File, opts.PathMode, opts.BaseDir),
		Index: loc.Index,
		Path:  loc.Path,
	}
}

// BuildDiagnosticsOutput формирует структуру JSON-вывода без сериализации.
func BuildDiagnosticsOutput(bag *diag.Bag, opts JSONOpts) DiagnosticsOutput {
	if bag == nil {
		return DiagnosticsOutput{Diagnostics: []DiagnosticJSON{}}
	}
	items := bag.Items()
	maxItems := len(items)
	if opts.Max > 0 && opts.Max < maxItems {
		maxItems = opts.Max
	}

	diagnostics := make([]DiagnosticJSON, 0, maxItems)
	for i := 0; i < maxItems; i++ {
		d := items[i]
		entry := DiagnosticJSON{
			Severity: d.Severity.String(),
			Code:     d.Code.ID(),
			Title:    d.Code.Title(),
			Message:  d.Message,
			Location: makeLocation(d.Primary, opts),
		}
		if opts.IncludeNotes && len(d.Notes) > 0 {
			entry.Notes = make([]NoteJSON, len(d.Notes))
			for j, note := range d.Notes {
				entry.Notes[j] = NoteJSON{Message: note.Msg, Location: makeLocation(note.Where, opts)}
			}
		}
		diagnostics = append(diagnostics, entry)
	}

	errs, warns := bag.Counts()
	return DiagnosticsOutput{
		Diagnostics: diagnostics,
		Count:       len(diagnostics),
		Errors:      errs,
		Warnings:    warns,
	}
}

// JSON форматирует диагностики в JSON формат.
func JSON(w io.Writer, bag *diag.Bag, opts JSONOpts) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildDiagnosticsOutput(bag, opts))
}

// JSONByUnit writes one object keyed by unit path.
func JSONByUnit(w io.Writer, bags map[string]*diag.Bag, opts JSONOpts) error {
	out := make(map[string]DiagnosticsOutput, len(bags))
	for path, bag := range bags {
		out[formatPath(path, opts.PathMode, opts.BaseDir)] = BuildDiagnosticsOutput(bag, opts)
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(out)
}
