package watcher

import (
	"fmt"
	"path/filepath"
	"time"
)

// Compare reports a HEAD change between two states.
func Compare(prev, curr *WatchState) []Alert {
	if prev == nil || curr == nil || prev.Head == curr.Head {
		return nil
	}
	return []Alert{{
		Level:   "info",
		Title:   "New commit",
		Message: fmt.Sprintf("HEAD moved %s -> %s", prev.Head, curr.Head),
		Time:    curr.Timestamp,
	}}
}

// ReportWritten announces a freshly generated report.
func ReportWritten(path string, rows int, at time.Time) Alert {
	return Alert{
		Level:   "info",
		Title:   "Report written",
		Message: fmt.Sprintf("%d rows in %s", rows, filepath.Base(path)),
		Time:    at,
		Path:    path,
	}
}
