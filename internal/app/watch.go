package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/projhist/internal/config"
	"github.com/blackwell-systems/projhist/internal/pipeline"
	"github.com/blackwell-systems/projhist/internal/vcs"
	"github.com/blackwell-systems/projhist/internal/watcher"
)

var (
	watchOpts     reportFlags
	watchInterval time.Duration
	watchNotify   bool
)

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Regenerate the report whenever HEAD moves",
	Long: `Watch writes the report once, then polls the repository's HEAD and
writes a fresh report each time the abbreviated commit id changes.

Examples:
  projhist watch .                   # check every 5 minutes (default)
  projhist watch . --interval 1m     # check every minute
  projhist watch . --notify          # also send a desktop notification`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	bindReportFlags(watchCmd, &watchOpts)
	watchCmd.Flags().DurationVar(&watchInterval, "interval", config.DefaultWatchInterval, "Check interval (minimum 30s)")
	watchCmd.Flags().BoolVar(&watchNotify, "notify", false, "Send desktop notifications for new reports")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()
	watchOpts.apply(cmd, e.cfg)

	interval := e.cfg.WatchInterval
	if cmd.Flags().Changed("interval") {
		interval = watchInterval
	}
	if interval < config.MinWatchInterval {
		return fmt.Errorf("interval must be at least %s, got %s", config.MinWatchInterval, interval)
	}

	root, err := validateRoot(args[0])
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), shutdownSignals...)
	defer stop()

	w := newReportWatcher(e, root, interval)
	if err := w.regenerate(ctx); err != nil {
		return err
	}
	e.logger.Info("watching", zap.String("root", w.Root()), zap.Duration("interval", interval))

	err = w.Run(ctx)
	if errors.Is(err, context.Canceled) {
		fmt.Fprintln(e.out, "\nStopped.")
		return nil
	}
	return err
}

// reportWatcher ties a HEAD watcher to report generation.
type reportWatcher struct {
	*watcher.Watcher
	env  *env
	root string
}

func newReportWatcher(e *env, root string, interval time.Duration) *reportWatcher {
	rw := &reportWatcher{env: e, root: root}
	headFn := func(ctx context.Context) (string, error) {
		return vcs.Head(ctx, e.runner, root)
	}
	onChange := func(ctx context.Context, prev, curr string) error {
		e.logger.Info("HEAD moved", zap.String("from", prev), zap.String("to", curr))
		return rw.regenerate(ctx)
	}
	rw.Watcher = watcher.New(root, interval, headFn, onChange)
	rw.AlertFn = rw.alert
	return rw
}

// regenerate writes a fresh report. A tree without projects is not an error
// while watching.
func (rw *reportWatcher) regenerate(ctx context.Context) error {
	res, run, err := executeReport(ctx, rw.env, rw.root)
	if errors.Is(err, pipeline.ErrNoProjects) {
		fmt.Fprintln(rw.env.out, noProjectsMessage)
		return nil
	}
	if err != nil {
		return err
	}
	printResult(rw.env.out, res, run, 0)
	rw.alert(watcher.ReportWritten(res.Path, res.Rows, time.Now()))
	return nil
}

func (rw *reportWatcher) alert(a watcher.Alert) {
	fields := []zap.Field{zap.String("detail", a.Message)}
	if a.Path != "" {
		fields = append(fields, zap.String("path", a.Path))
	}
	if a.Level == "warning" {
		rw.env.logger.Warn(a.Title, fields...)
	} else {
		rw.env.logger.Info(a.Title, fields...)
	}
	if watchNotify {
		_ = watcher.Notify(a)
	}
}
