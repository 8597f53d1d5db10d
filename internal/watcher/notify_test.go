package watcher

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestNotify_DoesNotPanic(t *testing.T) {
	tests := []struct {
		name  string
		alert Alert
	}{
		{
			name:  "report written",
			alert: ReportWritten("/tmp/out/mono_main_def456.csv", 12, time.Now()),
		},
		{
			name: "warning alert",
			alert: Alert{
				Level:   "warning",
				Title:   "Report failed",
				Message: "opening report: permission denied",
				Time:    time.Now(),
			},
		},
		{
			name:  "empty fields",
			alert: Alert{},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// The result depends on which notifier the host has.
			_ = Notify(tc.alert)
		})
	}
}

func TestNewNotification_ReportWritten(t *testing.T) {
	n := newNotification(ReportWritten("/tmp/out/mono_main_def456.csv", 12, time.Now()))

	if n.title != "projhist: Report written" {
		t.Errorf("title = %q", n.title)
	}
	if n.body != "12 rows in mono_main_def456.csv\n/tmp/out/mono_main_def456.csv" {
		t.Errorf("body = %q", n.body)
	}
	if n.urgency != "normal" {
		t.Errorf("urgency = %q, want normal", n.urgency)
	}
}

func TestNewNotification_Warning(t *testing.T) {
	n := newNotification(Alert{Level: "warning", Title: "Report failed", Message: "disk full"})
	if n.urgency != "critical" {
		t.Errorf("urgency = %q, want critical", n.urgency)
	}
	if n.body != "disk full" {
		t.Errorf("body = %q", n.body)
	}
	if !strings.Contains(n.appleScript(), `with title "projhist: Report failed"`) {
		t.Errorf("unexpected script: %s", n.appleScript())
	}
}

func TestNewNotification_UntitledAlert(t *testing.T) {
	if n := newNotification(Alert{Message: "x"}); n.title != "projhist" {
		t.Errorf("title = %q, want projhist", n.title)
	}
}

func TestNotification_Print(t *testing.T) {
	var buf bytes.Buffer
	n := newNotification(Alert{Level: "info", Title: "New commit", Message: "HEAD moved a -> b"})
	if err := n.print(&buf); err != nil {
		t.Fatalf("print: %v", err)
	}
	if got, want := buf.String(), "[info] projhist: New commit: HEAD moved a -> b\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
