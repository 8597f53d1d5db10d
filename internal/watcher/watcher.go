// Package watcher polls a repository's HEAD and triggers a report whenever
// the checked-out commit changes.
package watcher

import (
	"context"
	"fmt"
	"time"
)

// WatchState captures the repository state observed at one poll.
type WatchState struct {
	Timestamp time.Time
	Head      string
}

// Alert represents a notable event detected by the watcher.
type Alert struct {
	Level   string // "info", "warning"
	Title   string
	Message string
	Time    time.Time

	// Path is the report file the alert concerns, if any.
	Path string
}

// HeadFunc resolves the abbreviated commit id of the watched repository.
type HeadFunc func(ctx context.Context) (string, error)

// ChangeFunc is called once per observed HEAD change.
type ChangeFunc func(ctx context.Context, prev, curr string) error

// Watcher polls HEAD at a regular interval and runs onChange when it moves.
type Watcher struct {
	root          string
	interval      time.Duration
	headFn        HeadFunc
	onChange      ChangeFunc
	previous      *WatchState
	lastAlertKeys map[string]bool // dedup: suppress repeated identical alerts

	// AlertFn receives alerts produced during Run. Nil discards them.
	AlertFn func(Alert)

	now func() time.Time
}

// New creates a Watcher for the repository at root.
func New(root string, interval time.Duration, headFn HeadFunc, onChange ChangeFunc) *Watcher {
	return &Watcher{
		root:          root,
		interval:      interval,
		headFn:        headFn,
		onChange:      onChange,
		lastAlertKeys: make(map[string]bool),
		now:           time.Now,
	}
}

// Root returns the watched repository root.
func (w *Watcher) Root() string {
	return w.root
}

// Run takes an initial snapshot, then checks at every interval. Blocks until
// ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	initial, err := w.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}
	w.previous = initial

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range w.Check(ctx) {
				if w.AlertFn != nil {
					w.AlertFn(a)
				}
			}
		}
	}
}

// Check performs a single cycle: read HEAD, compare against the previous
// state and run onChange when it moved. The previous state only advances
// when onChange succeeds, so a failed regeneration is retried next cycle.
// Identical alerts are suppressed until the underlying state changes.
func (w *Watcher) Check(ctx context.Context) []Alert {
	var raw []Alert

	curr, err := w.Snapshot(ctx)
	switch {
	case err != nil:
		raw = append(raw, Alert{
			Level:   "warning",
			Title:   "HEAD lookup failed",
			Message: fmt.Sprintf("Could not read %s: %v", w.root, err),
			Time:    w.now(),
		})
	case w.previous == nil:
		w.previous = curr
	default:
		changes := Compare(w.previous, curr)
		if len(changes) > 0 && w.onChange != nil {
			if err := w.onChange(ctx, w.previous.Head, curr.Head); err != nil {
				raw = append(raw, Alert{
					Level:   "warning",
					Title:   "Report failed",
					Message: err.Error(),
					Time:    w.now(),
				})
				break
			}
		}
		raw = append(raw, changes...)
		w.previous = curr
	}

	currentKeys := make(map[string]bool, len(raw))
	var alerts []Alert
	for _, a := range raw {
		key := a.Level + ":" + a.Title + ":" + a.Message
		currentKeys[key] = true
		if !w.lastAlertKeys[key] {
			alerts = append(alerts, a)
		}
	}
	w.lastAlertKeys = currentKeys

	return alerts
}

// Snapshot reads the current HEAD.
func (w *Watcher) Snapshot(ctx context.Context) (*WatchState, error) {
	head, err := w.headFn(ctx)
	if err != nil {
		return nil, err
	}
	return &WatchState{Timestamp: w.now(), Head: head}, nil
}
