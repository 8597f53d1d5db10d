package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// CreateRun inserts a new run and returns its ID. TakenAt defaults to now.
func (db *DB) CreateRun(r *Run) (int64, error) {
	taken := r.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	result, err := db.conn.Exec(
		"INSERT INTO runs (taken_at, root, branch, head, years, report_path) VALUES (?, ?, ?, ?, ?, ?)",
		taken.UTC().Format(time.RFC3339Nano), r.Root, r.Branch, r.Head, r.Years, r.ReportPath,
	)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// GetRun returns a run by ID, or nil if it does not exist.
func (db *DB) GetRun(id int64) (*Run, error) {
	row := db.conn.QueryRow(
		"SELECT id, taken_at, root, branch, head, years, report_path FROM runs WHERE id = ?", id)
	return scanRun(row)
}

// GetRunN returns the Nth most recent run of root (1 = latest, 2 = previous,
// etc.), or nil if there are fewer than n runs.
func (db *DB) GetRunN(root string, n int) (*Run, error) {
	if n < 1 {
		return nil, fmt.Errorf("run index must be at least 1, got %d", n)
	}
	row := db.conn.QueryRow(
		`SELECT id, taken_at, root, branch, head, years, report_path FROM runs
		 WHERE root = ? ORDER BY id DESC LIMIT 1 OFFSET ?`,
		root, n-1,
	)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var r Run
	var takenAt string
	err := row.Scan(&r.ID, &takenAt, &r.Root, &r.Branch, &r.Head, &r.Years, &r.ReportPath)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.TakenAt, _ = time.Parse(time.RFC3339Nano, takenAt)
	return &r, nil
}

// InsertActivity stores the activity rows of one run in a single
// transaction.
func (db *DB) InsertActivity(runID int64, activities []ProjectActivity) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO project_activity
		(run_id, directory, project_type, total, window_json, acc_json)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	for _, a := range activities {
		window, err := json.Marshal(nonNil(a.Window))
		if err != nil {
			return err
		}
		acc, err := json.Marshal(nonNil(a.Accumulators))
		if err != nil {
			return err
		}
		if _, err := stmt.Exec(runID, a.Directory, a.ProjectType, a.Total, string(window), string(acc)); err != nil {
			return fmt.Errorf("inserting activity for %s: %w", a.Directory, err)
		}
	}
	return tx.Commit()
}

// GetActivities returns the activity rows of a run ordered by directory.
func (db *DB) GetActivities(runID int64) ([]ProjectActivity, error) {
	rows, err := db.conn.Query(
		`SELECT run_id, directory, project_type, total, window_json, acc_json
		 FROM project_activity WHERE run_id = ? ORDER BY directory`,
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []ProjectActivity
	for rows.Next() {
		var a ProjectActivity
		var window, acc string
		if err := rows.Scan(&a.RunID, &a.Directory, &a.ProjectType, &a.Total, &window, &acc); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(window), &a.Window); err != nil {
			return nil, fmt.Errorf("decoding window of %s: %w", a.Directory, err)
		}
		if err := json.Unmarshal([]byte(acc), &a.Accumulators); err != nil {
			return nil, fmt.Errorf("decoding accumulators of %s: %w", a.Directory, err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Diff compares two runs' activity by directory. Directories present in
// only one run are reported as added or removed. The result is sorted by
// directory.
func Diff(prev, curr []ProjectActivity) []ActivityDelta {
	prevMap := make(map[string]ProjectActivity, len(prev))
	for _, p := range prev {
		prevMap[p.Directory] = p
	}

	seen := make(map[string]bool, len(curr))
	var deltas []ActivityDelta
	for _, c := range curr {
		seen[c.Directory] = true
		d := ActivityDelta{
			Directory: c.Directory,
			CurrTotal: c.Total,
			CurrAcc1:  c.Acc1(),
		}
		p, ok := prevMap[c.Directory]
		switch {
		case !ok:
			d.Change = ChangeAdded
		default:
			d.PrevTotal = p.Total
			d.PrevAcc1 = p.Acc1()
			d.Change = ChangeUnchanged
			if d.PrevTotal != d.CurrTotal || d.PrevAcc1 != d.CurrAcc1 {
				d.Change = ChangeChanged
			}
		}
		d.TotalDelta = d.CurrTotal - d.PrevTotal
		d.Acc1Delta = d.CurrAcc1 - d.PrevAcc1
		deltas = append(deltas, d)
	}

	for _, p := range prev {
		if seen[p.Directory] {
			continue
		}
		deltas = append(deltas, ActivityDelta{
			Directory:  p.Directory,
			Change:     ChangeRemoved,
			PrevTotal:  p.Total,
			PrevAcc1:   p.Acc1(),
			TotalDelta: -p.Total,
			Acc1Delta:  -p.Acc1(),
		})
	}

	sort.Slice(deltas, func(i, j int) bool {
		return deltas[i].Directory < deltas[j].Directory
	})
	return deltas
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
