package diag

import "fmt"

// Location points at a statement inside a unit description. Index is the
// statement ordinal in program order and drives sorting; Path is the human
// form, e.g. "fn add/body[2]".
type Location struct {
	File  string
	Index int
	Path  string
}

func (l Location) String() string {
	switch {
	case l.File == "" && l.Path == "":
		return "<unknown>"
	case l.Path == "":
		return l.File
	case l.File == "":
		return l.Path
	}
	return fmt.Sprintf("%s:%s", l.File, l.Path)
}

type Note struct {
	Where Location
	Msg   string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  Location
	Notes    []Note
}
