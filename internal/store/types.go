// Package store provides SQLite persistence for projhist run snapshots.
package store

import "time"

// Run is one recorded report run.
type Run struct {
	ID         int64     `json:"id"`
	TakenAt    time.Time `json:"taken_at"`
	Root       string    `json:"root"`
	Branch     string    `json:"branch"`
	Head       string    `json:"head"`
	Years      int       `json:"years"`
	ReportPath string    `json:"report_path"`
}

// YearCount is one bucket of a stored window.
type YearCount struct {
	Year  string `json:"year"`
	Count int    `json:"count"`
}

// ProjectActivity is the stored activity of one project directory in a run.
type ProjectActivity struct {
	RunID        int64       `json:"run_id"`
	Directory    string      `json:"directory"`
	ProjectType  string      `json:"project_type"`
	Total        int         `json:"total"`
	Window       []YearCount `json:"window"`
	Accumulators []int       `json:"accumulators"`
}

// Acc1 returns the most recent year's count, or 0 when nothing was stored.
func (p ProjectActivity) Acc1() int {
	if len(p.Accumulators) == 0 {
		return 0
	}
	return p.Accumulators[0]
}

// Change classifies a directory across two runs.
type Change string

const (
	ChangeAdded     Change = "added"
	ChangeRemoved   Change = "removed"
	ChangeChanged   Change = "changed"
	ChangeUnchanged Change = "unchanged"
)

// ActivityDelta compares one directory between two runs.
type ActivityDelta struct {
	Directory  string `json:"directory"`
	Change     Change `json:"change"`
	PrevTotal  int    `json:"prev_total"`
	CurrTotal  int    `json:"curr_total"`
	TotalDelta int    `json:"total_delta"`
	PrevAcc1   int    `json:"prev_acc_1"`
	CurrAcc1   int    `json:"curr_acc_1"`
	Acc1Delta  int    `json:"acc_1_delta"`
}

// RunDiff holds the comparison between two runs of the same root.
type RunDiff struct {
	Previous *Run            `json:"previous"`
	Current  *Run            `json:"current"`
	Deltas   []ActivityDelta `json:"deltas"`
}
