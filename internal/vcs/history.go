package vcs

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// dateLayout matches git's --date=short output.
const dateLayout = "2006-01-02"

// History is the commit history of one directory.
type History struct {
	// Dates holds one author date per commit, newest first.
	Dates []time.Time

	// Available is false when the query failed. Dates is then empty, which
	// downstream code treats the same as a directory without commits.
	Available bool
}

// HistoryQuerier returns the commit dates for commits touching files under a
// directory. Implementations never fail: errors become an unavailable History.
type HistoryQuerier interface {
	History(ctx context.Context, dir string) History
}

// GitQuerier implements HistoryQuerier with directory-scoped git log calls.
type GitQuerier struct {
	run     Runner
	logger  *zap.Logger
	timeout time.Duration
}

// NewGitQuerier creates a GitQuerier. A nil run uses ExecRunner. A zero
// timeout lets each query run until git exits.
func NewGitQuerier(run Runner, logger *zap.Logger, timeout time.Duration) *GitQuerier {
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GitQuerier{run: run, logger: logger, timeout: timeout}
}

// History runs `git -C dir log --pretty=format:%ad --date=short -- .`.
func (g *GitQuerier) History(ctx context.Context, dir string) History {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.run(ctx, "-C", dir, "log", "--pretty=format:%ad", "--date=short", "--", ".")
	if err != nil {
		g.logger.Warn("git log failed", zap.String("dir", dir), zap.Error(err))
		return History{}
	}

	dates, err := ParseDates(out)
	if err != nil {
		g.logger.Warn("git log output undecodable", zap.String("dir", dir), zap.Error(err))
		return History{}
	}

	return History{Dates: dates, Available: true}
}

// ParseDates decodes one YYYY-MM-DD date per non-blank line.
func ParseDates(out []byte) ([]time.Time, error) {
	var dates []time.Time
	sc := bufio.NewScanner(bytes.NewReader(out))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		d, err := time.Parse(dateLayout, text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		dates = append(dates, d)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return dates, nil
}
