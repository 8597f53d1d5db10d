package watcher

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
)

// Notify shows an alert on the desktop: osascript on macOS, notify-send on
// Linux. Anything else, or a failing notifier, prints to stderr instead.
func Notify(alert Alert) error {
	n := newNotification(alert)
	switch runtime.GOOS {
	case "darwin":
		if err := exec.Command("osascript", "-e", n.appleScript()).Run(); err == nil {
			return nil
		}
	case "linux":
		if _, err := exec.LookPath("notify-send"); err == nil {
			args := []string{"--app-name=projhist", "--urgency=" + n.urgency, n.title, n.body}
			if err := exec.Command("notify-send", args...).Run(); err == nil {
				return nil
			}
		}
	}
	return n.print(os.Stderr)
}

// notification is an alert laid out for a desktop notifier.
type notification struct {
	level   string
	title   string
	body    string
	urgency string
}

func newNotification(a Alert) notification {
	n := notification{
		level:   a.Level,
		title:   "projhist",
		body:    a.Message,
		urgency: "normal",
	}
	if a.Title != "" {
		n.title = "projhist: " + a.Title
	}
	if a.Path != "" {
		n.body += "\n" + a.Path
	}
	if a.Level == "warning" {
		n.urgency = "critical"
	}
	return n
}

func (n notification) appleScript() string {
	return fmt.Sprintf(`display notification %q with title %q`, n.body, n.title)
}

func (n notification) print(w io.Writer) error {
	_, err := fmt.Fprintf(w, "[%s] %s: %s\n", n.level, n.title, n.body)
	return err
}
