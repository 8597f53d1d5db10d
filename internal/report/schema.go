// Package report builds the canonical CSV schema for a run, validates rows
// against it and serializes them.
package report

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/blackwell-systems/projhist/internal/analyzer"
	"github.com/blackwell-systems/projhist/internal/scanner"
)

// Fixed column names.
const (
	ColDirectory   = "Directory"
	ColProjectType = "ProjectType"
	ColProjectFile = "ProjectFile"
	ColTotal       = "Total"
)

// RowMode selects the reporting unit.
type RowMode int

const (
	// PerDirectory emits one row per project directory.
	PerDirectory RowMode = iota

	// PerFile emits one row per marker file; every file in a directory
	// carries that directory's counts.
	PerFile
)

// String returns the config spelling of the mode.
func (m RowMode) String() string {
	if m == PerFile {
		return "file"
	}
	return "directory"
}

// ParseRowMode converts "directory" or "file" into a RowMode.
func ParseRowMode(s string) (RowMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "directory", "dir":
		return PerDirectory, nil
	case "file":
		return PerFile, nil
	default:
		return PerDirectory, fmt.Errorf("unknown row mode %q (want directory or file)", s)
	}
}

// Cell is one named value of a row.
type Cell struct {
	Column string
	Value  string
}

// Row is an ordered list of cells.
type Row []Cell

// Columns returns the column names of r in order.
func (r Row) Columns() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Column
	}
	return out
}

// Values returns the cell values of r in order.
func (r Row) Values() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Value
	}
	return out
}

// Schema is the canonical header of a run, derived once from the window.
type Schema struct {
	Mode    RowMode
	Columns []string
}

// NewSchema derives the header:
// [Directory, ProjectType|ProjectFile, Total, <window years>, Acc_1..Acc_k].
func NewSchema(mode RowMode, w analyzer.Window) Schema {
	unit := ColProjectType
	if mode == PerFile {
		unit = ColProjectFile
	}
	cols := []string{ColDirectory, unit, ColTotal}
	cols = append(cols, w.Labels()...)
	cols = append(cols, w.AccLabels()...)
	return Schema{Mode: mode, Columns: cols}
}

// Rows generates the rows for one project from its recorded activity.
func (s Schema) Rows(p *scanner.Project) []Row {
	base := func(unitCol, unitVal string) Row {
		r := Row{
			{ColDirectory, p.RelDir},
			{unitCol, unitVal},
			{ColTotal, strconv.Itoa(p.Activity.Total)},
		}
		for _, yc := range p.Activity.YearCounts {
			r = append(r, Cell{yc.Year, strconv.Itoa(yc.Count)})
		}
		for i, acc := range p.Activity.Accumulators {
			r = append(r, Cell{fmt.Sprintf("Acc_%d", i+1), strconv.Itoa(acc)})
		}
		return r
	}

	if s.Mode == PerFile {
		rows := make([]Row, 0, len(p.Files))
		for _, f := range p.Files {
			rows = append(rows, base(ColProjectFile, f))
		}
		return rows
	}
	return []Row{base(ColProjectType, p.ProjectType())}
}

// Validate checks that r has exactly the schema's columns in order.
func (s Schema) Validate(r Row) error {
	got := r.Columns()
	if slices.Equal(got, s.Columns) {
		return nil
	}
	return &MismatchError{Want: s.Columns, Got: got}
}

// MismatchError describes a row whose columns disagree with the schema.
type MismatchError struct {
	Want []string
	Got  []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("row columns [%s] do not match header [%s]",
		strings.Join(e.Got, ","), strings.Join(e.Want, ","))
}

// ValidRows builds and validates the rows of p. On any mismatch it returns
// no rows and the first validation error.
func (s Schema) ValidRows(p *scanner.Project) ([]Row, error) {
	rows := s.Rows(p)
	for _, r := range rows {
		if err := s.Validate(r); err != nil {
			return nil, err
		}
	}
	return rows, nil
}
