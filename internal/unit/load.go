package unit

import (
	"fmt"
	"os"
	"slices"
	"strconv"

	"github.com/BurntSushi/toml"
)

// Load reads and decodes the unit at path.
func Load(path string) (*Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read unit: %w", err)
	}
	u, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Parse decodes data as a unit named path and numbers its statements.
func Parse(path string, data []byte) (*Unit, error) {
	u := &Unit{}
	meta, err := toml.Decode(string(data), u)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", path, ErrMalformed, err)
	}
	u.Path = path
	u.Source = data
	for _, key := range meta.Undecoded() {
		u.Unknown = append(u.Unknown, key.String())
	}
	slices.Sort(u.Unknown)
	u.locate()
	return u, nil
}

// locate numbers statements in program order: globals, functions, main.
func (u *Unit) locate() {
	n := 0
	var walk func(stmts []Stmt, prefix string)
	walk = func(stmts []Stmt, prefix string) {
		for i := range stmts {
			s := &stmts[i]
			s.Pos = Pos{Index: n, Path: prefix + "[" + strconv.Itoa(i) + "]"}
			n++
			walk(s.Then, s.Pos.Path+".then")
			walk(s.Else, s.Pos.Path+".else")
			walk(s.Body, s.Pos.Path+".body")
		}
	}
	walk(u.Globals, "globals")
	for i := range u.Functions {
		fn := &u.Functions[i]
		fn.Pos = Pos{Index: n, Path: "fn " + fn.Name}
		n++
		walk(fn.Body, "fn "+fn.Name+"/body")
	}
	u.Main.Pos = Pos{Index: n, Path: "main"}
	n++
	walk(u.Main.Body, "main/body")
}
