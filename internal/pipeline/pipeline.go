// Package pipeline runs one analysis: discover projects, drop ignored ones,
// query each directory's history, aggregate it and write the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/blackwell-systems/projhist/internal/analyzer"
	"github.com/blackwell-systems/projhist/internal/pattern"
	"github.com/blackwell-systems/projhist/internal/report"
	"github.com/blackwell-systems/projhist/internal/scanner"
	"github.com/blackwell-systems/projhist/internal/vcs"
)

// ErrNoProjects is returned by Execute when nothing survives discovery and
// filtering. No report is written in that case.
var ErrNoProjects = errors.New("no project directories found")

// Options describe one run. They are fixed once the Run is created.
type Options struct {
	// Root is the scan root; it must be inside a git work tree.
	Root string

	// OutputDir receives the report. Created if missing.
	OutputDir string

	// Window is the year window, most recent first.
	Window analyzer.Window

	// Types are the selected marker extensions.
	Types []string

	// Recognized is the full set of marker extensions; a selection that
	// differs from it adds a suffix to the report name.
	Recognized []string

	// Ignore excludes directories from the report.
	Ignore *pattern.Set

	// Mode selects per-directory or per-file rows.
	Mode report.RowMode

	// Incremental appends rows as projects complete instead of buffering.
	Incremental bool

	// Workers bounds concurrent history queries; <= 1 is sequential.
	Workers int
}

// Result summarizes a finished run.
type Result struct {
	Path     string
	Rows     int
	Columns  int
	Fallback bool
	Repo     vcs.RepoInfo

	// Dropped lists directories whose rows failed schema validation.
	Dropped []string
}

// Run is a single analysis.
type Run struct {
	opts    Options
	querier vcs.HistoryQuerier
	runner  vcs.Runner
	logger  *zap.Logger
	now     func() time.Time
	open    report.OpenFunc

	aggregate func([]time.Time, analyzer.Window) analyzer.Activity

	// Kept and Ignored partition the discovered projects. Kept projects
	// carry their activity after Execute.
	Kept    []*scanner.Project
	Ignored []*scanner.Project
}

// New creates a Run. runner is used for repository identity; querier for
// per-directory history.
func New(opts Options, querier vcs.HistoryQuerier, runner vcs.Runner, logger *zap.Logger) *Run {
	if logger == nil {
		logger = zap.NewNop()
	}
	if runner == nil {
		runner = vcs.ExecRunner
	}
	return &Run{
		opts:      opts,
		querier:   querier,
		runner:    runner,
		logger:    logger,
		now:       time.Now,
		aggregate: analyzer.Aggregate,
	}
}

// Options returns the options the run was created with.
func (r *Run) Options() Options {
	return r.opts
}

// Schema returns the canonical report header for this run.
func (r *Run) Schema() report.Schema {
	return report.NewSchema(r.opts.Mode, r.opts.Window)
}

// Discover walks the root and partitions the projects by the ignore rules.
func (r *Run) Discover() error {
	projects, err := scanner.DiscoverProjects(r.opts.Root, r.opts.Types, r.logger)
	if err != nil {
		return fmt.Errorf("discovering projects: %w", err)
	}
	r.logger.Info("found project directories before filtering", zap.Int("count", len(projects)))

	r.Kept, r.Ignored = scanner.Partition(projects, r.opts.Ignore.Match)
	if len(r.Ignored) > 0 {
		r.logger.Info("ignored directories via patterns",
			zap.Int("count", len(r.Ignored)),
			zap.Strings("patterns", r.opts.Ignore.Patterns()))
		ignored := make([]string, len(r.Ignored))
		for i, p := range r.Ignored {
			ignored[i] = p.RelDir
		}
		r.logger.Debug("ignored", zap.String("dirs", strings.Join(ignored, " | ")))
	}
	return nil
}

// Execute performs the whole run and returns where the report was written.
func (r *Run) Execute(ctx context.Context) (*Result, error) {
	r.logger.Info("starting analysis",
		zap.String("root", r.opts.Root),
		zap.Int("years", len(r.opts.Window)),
		zap.Strings("types", r.opts.Types),
		zap.Strings("ignore", r.opts.Ignore.Patterns()))
	r.logger.Debug("ignore rules compiled", zap.Int("grammar", pattern.GrammarVersion), zap.Int("rules", r.opts.Ignore.Len()))

	if err := r.Discover(); err != nil {
		return nil, err
	}
	if len(r.Kept) == 0 {
		return nil, ErrNoProjects
	}
	r.logger.Info("using project directories after filtering", zap.Int("count", len(r.Kept)))

	schema := r.Schema()
	repo := vcs.Describe(ctx, r.runner, r.opts.Root, r.logger)
	path, err := r.outputPath(repo)
	if err != nil {
		return nil, err
	}

	w, err := report.Create(path, schema, report.Options{
		Incremental: r.opts.Incremental,
		Now:         r.now,
		Open:        r.open,
	})
	if err != nil {
		return nil, err
	}
	if w.UsedFallback() {
		r.logger.Warn("report path not writable, using timestamped name",
			zap.String("requested", path), zap.String("path", w.Path()))
	}

	res := &Result{Columns: len(schema.Columns), Repo: repo}
	if err := r.process(ctx, schema, w, res); err != nil {
		_ = w.Close()
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	res.Path = w.Path()
	res.Rows = w.Rows()
	res.Fallback = w.UsedFallback()
	return res, nil
}

// process queries, aggregates and appends every kept project in discovery
// order. Incremental runs work in batches of Workers so rows reach the file
// as soon as their batch completes; buffered runs query everything at once.
func (r *Run) process(ctx context.Context, schema report.Schema, w *report.Writer, res *Result) error {
	batch := len(r.Kept)
	if r.opts.Incremental {
		batch = max(1, r.opts.Workers)
	}

	total := len(r.Kept)
	for start := 0; start < total; start += batch {
		end := min(start+batch, total)
		chunk := r.Kept[start:end]

		dirs := make([]string, len(chunk))
		for i, p := range chunk {
			dirs[i] = p.Path
		}
		histories := vcs.QueryAll(ctx, r.querier, dirs, r.opts.Workers)

		for i, p := range chunk {
			r.logger.Info(fmt.Sprintf("[%d/%d] analyzing", start+i+1, total), zap.String("dir", p.RelDir))
			r.record(p, histories[i])

			rows, err := schema.ValidRows(p)
			if err != nil {
				r.logger.Warn("dropping project with mismatched row schema",
					zap.String("dir", p.RelDir), zap.Error(err))
				res.Dropped = append(res.Dropped, p.RelDir)
				continue
			}
			if err := w.Append(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// record stores the aggregated history on p. It is the only mutation a
// project sees after discovery.
func (r *Run) record(p *scanner.Project, h vcs.History) {
	p.Activity = r.aggregate(h.Dates, r.opts.Window)
	p.HistoryAvailable = h.Available
	r.logger.Debug("commits",
		zap.String("dir", p.RelDir),
		zap.Int("all_time", p.Activity.Total),
		zap.Int("in_range", p.Activity.InWindow()),
		zap.Bool("history_available", h.Available))
}

// outputPath resolves the report filename inside OutputDir.
func (r *Run) outputPath(repo vcs.RepoInfo) (string, error) {
	dir := r.opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		return "", fmt.Errorf("output directory %s is not a directory", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	var suffix []string
	if !scanner.IsFullSet(r.opts.Types, r.opts.Recognized) {
		suffix = r.opts.Types
	}
	name := report.FileName(report.RepoName(r.opts.Root), repo.Branch, repo.Head, suffix)
	return filepath.Join(dir, name), nil
}
