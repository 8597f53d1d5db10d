// Package scanner discovers project directories by their marker files.
package scanner

import (
	"strings"

	"github.com/blackwell-systems/projhist/internal/analyzer"
)

// Project is one directory holding at least one marker file.
type Project struct {
	// Path is the absolute filesystem path of the directory.
	Path string `json:"path"`

	// RelDir is the slash-separated path relative to the scan root; "." for
	// the root itself. It is the project's unique key.
	RelDir string `json:"rel_dir"`

	// Files lists the marker filenames in the directory, sorted and unique.
	Files []string `json:"files"`

	// Extensions lists the lower-case marker extensions present, sorted and
	// unique.
	Extensions []string `json:"extensions"`

	// Activity is filled in once, after the history query.
	Activity analyzer.Activity `json:"activity"`

	// HistoryAvailable is false when the history query failed.
	HistoryAvailable bool `json:"history_available"`
}

// ProjectType renders the marker extensions as a single column value.
func (p *Project) ProjectType() string {
	return strings.Join(p.Extensions, ", ")
}
