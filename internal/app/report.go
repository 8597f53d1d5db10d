package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/blackwell-systems/projhist/internal/analyzer"
	"github.com/blackwell-systems/projhist/internal/config"
	"github.com/blackwell-systems/projhist/internal/output"
	"github.com/blackwell-systems/projhist/internal/pattern"
	"github.com/blackwell-systems/projhist/internal/pipeline"
	"github.com/blackwell-systems/projhist/internal/report"
	"github.com/blackwell-systems/projhist/internal/scanner"
	"github.com/blackwell-systems/projhist/internal/store"
	"github.com/blackwell-systems/projhist/internal/vcs"
)

// reportFlags are the analysis flags shared by report, track and watch.
type reportFlags struct {
	years        int
	outputDir    string
	projectTypes []string
	ignore       []string
	ignoreMode   string
	rows         string
	incremental  bool
	workers      int
	queryTimeout time.Duration
	top          int
}

func bindReportFlags(cmd *cobra.Command, f *reportFlags) {
	fl := cmd.Flags()
	fl.IntVarP(&f.years, "years", "y", config.DefaultYears, "Number of calendar years to report, counting back from the current one")
	fl.StringVarP(&f.outputDir, "output-dir", "o", config.DefaultOutputDir, "Directory that receives the CSV report")
	fl.StringSliceVar(&f.projectTypes, "project-type", nil, "Marker extensions to include (repeatable or comma-separated)")
	fl.StringSliceVarP(&f.ignore, "ignore", "i", nil, "Ignore patterns relative to the root (repeatable or comma-separated)")
	fl.StringVar(&f.ignoreMode, "ignore-mode", config.DefaultIgnoreMode, "Pattern anchoring: anchored or substring")
	fl.StringVar(&f.rows, "rows", config.DefaultRowMode, "Report unit: directory or file")
	fl.BoolVar(&f.incremental, "incremental", false, "Append rows as each project completes")
	fl.IntVar(&f.workers, "workers", config.DefaultWorkers, "Concurrent git queries (1 = sequential)")
	fl.DurationVar(&f.queryTimeout, "query-timeout", 0, "Per-directory git log timeout (0 = none)")
	fl.IntVar(&f.top, "top", config.DefaultOutput.Top, "Most active projects to summarize (0 = none)")
}

// apply overrides cfg with every flag the user set explicitly.
func (f *reportFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	if fl.Changed("years") {
		cfg.Years = f.years
	}
	if fl.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if fl.Changed("project-type") {
		cfg.ProjectTypes = pattern.SplitList(f.projectTypes)
	}
	if fl.Changed("ignore") {
		cfg.Ignore = pattern.SplitList(f.ignore)
	}
	if fl.Changed("ignore-mode") {
		cfg.IgnoreMode = f.ignoreMode
	}
	if fl.Changed("rows") {
		cfg.RowMode = f.rows
	}
	if fl.Changed("incremental") {
		cfg.Incremental = f.incremental
	}
	if fl.Changed("workers") {
		cfg.Workers = f.workers
	}
	if fl.Changed("query-timeout") {
		cfg.QueryTimeout = f.queryTimeout
	}
	if fl.Changed("top") {
		cfg.Output.Top = f.top
	}
}

var (
	reportOpts   reportFlags
	reportRecord bool
)

var reportCmd = &cobra.Command{
	Use:   "report <root>",
	Short: "Write the activity report for a repository",
	Long: `Report discovers every directory under <root> that holds a project file,
counts the commits touching each directory per calendar year and writes
{repo}_{branch}_{sha}.csv with yearly counts and Acc_1..Acc_k columns, where
Acc_i is the commit count over the i most recent years.

Examples:
  projhist report .                            # last 10 years
  projhist report ~/src/mono -y 3 -o reports   # last 3 years into reports/
  projhist report . -i src/Legacy -i "**/obj"  # skip directories
  projhist report . --project-type .csproj     # C# projects only`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	bindReportFlags(reportCmd, &reportOpts)
	reportCmd.Flags().BoolVar(&reportRecord, "record", false, "Store a snapshot of this run in the history database")
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()
	reportOpts.apply(cmd, e.cfg)

	root, err := validateRoot(args[0])
	if err != nil {
		return err
	}

	res, run, err := executeReport(cmd.Context(), e, root)
	if errors.Is(err, pipeline.ErrNoProjects) {
		fmt.Fprintln(e.out, noProjectsMessage)
		return nil
	}
	if err != nil {
		return err
	}
	printResult(e.out, res, run, e.cfg.Output.Top)

	if reportRecord {
		db, err := store.Open(e.cfg.HistoryDB)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer func() { _ = db.Close() }()
		id, err := recordRun(db, root, res, run)
		if err != nil {
			return err
		}
		e.logger.Info("recorded run", zap.Int64("id", id), zap.String("db", e.cfg.HistoryDB))
	}
	return nil
}

const noProjectsMessage = "No project directories found (after filtering). Nothing to write."

// buildOptions turns configuration into pipeline options for root.
func buildOptions(cfg *config.Config, root string, now time.Time) (pipeline.Options, error) {
	if err := cfg.Validate(); err != nil {
		return pipeline.Options{}, err
	}

	window, err := analyzer.YearWindow(now, cfg.Years)
	if err != nil {
		return pipeline.Options{}, err
	}

	recognized, err := scanner.SelectTypes(nil, cfg.RecognizedTypes)
	if err != nil {
		return pipeline.Options{}, err
	}
	types, err := scanner.SelectTypes(cfg.ProjectTypes, recognized)
	if err != nil {
		return pipeline.Options{}, err
	}

	mode, err := pattern.ParseMode(cfg.IgnoreMode)
	if err != nil {
		return pipeline.Options{}, err
	}
	ignore, err := pattern.Compile(cfg.Ignore, mode)
	if err != nil {
		return pipeline.Options{}, err
	}

	rows, err := report.ParseRowMode(cfg.RowMode)
	if err != nil {
		return pipeline.Options{}, err
	}

	return pipeline.Options{
		Root:        root,
		OutputDir:   cfg.OutputDir,
		Window:      window,
		Types:       types,
		Recognized:  recognized,
		Ignore:      ignore,
		Mode:        rows,
		Incremental: cfg.Incremental,
		Workers:     cfg.Workers,
	}, nil
}

// executeReport runs one full analysis of root and logs the elapsed time.
func executeReport(ctx context.Context, e *env, root string) (*pipeline.Result, *pipeline.Run, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := buildOptions(e.cfg, root, time.Now())
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	querier := vcs.NewGitQuerier(e.runner, e.logger, e.cfg.QueryTimeout)
	run := pipeline.New(opts, querier, e.runner, e.logger)
	res, err := run.Execute(ctx)
	if err != nil {
		return nil, run, err
	}
	if len(res.Dropped) > 0 {
		e.logger.Warn("projects dropped for schema mismatch", zap.Strings("dirs", res.Dropped))
	}
	e.logger.Info(fmt.Sprintf("Done in %.2fs", time.Since(start).Seconds()))
	return res, run, nil
}

// printResult writes the creation summary and the most active projects.
func printResult(w io.Writer, res *pipeline.Result, run *pipeline.Run, top int) {
	fmt.Fprintf(w, "CSV created: '%s'\n", res.Path)
	fmt.Fprintf(w, "    rows: %d\n", res.Rows)
	fmt.Fprintf(w, "    columns: %d\n", res.Columns)
	if res.Fallback {
		fmt.Fprintln(w, "    note: requested name was not writable, used a timestamped name")
	}

	if top <= 0 || run == nil || len(run.Kept) == 0 {
		return
	}
	ranked := mostActive(run.Kept, top)

	peak := ranked[0].Activity.InWindow()
	years := ranked[0].Activity.Years()
	fmt.Fprintln(w, output.Section(fmt.Sprintf("Most active projects (%s, %s-%s)", res.Repo.Branch, years[len(years)-1], years[0])))
	fmt.Fprintln(w)
	tbl := output.NewTable("Directory", "Type", "Total", "In window", "Latest year", "Activity").AlignRight(2, 3, 4)
	for _, p := range ranked {
		tbl.AddRow(
			p.RelDir,
			p.ProjectType(),
			strconv.Itoa(p.Activity.Total),
			strconv.Itoa(p.Activity.InWindow()),
			strconv.Itoa(p.Activity.Acc(1)),
			output.ActivityBar(p.Activity.InWindow(), peak, 20),
		)
	}
	tbl.Print(w)
}

// mostActive returns up to n projects ordered by in-window commits, then by
// lifetime total, then by directory.
func mostActive(projects []*scanner.Project, n int) []*scanner.Project {
	ranked := make([]*scanner.Project, len(projects))
	copy(ranked, projects)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i].Activity, ranked[j].Activity
		if a.InWindow() != b.InWindow() {
			return a.InWindow() > b.InWindow()
		}
		if a.Total != b.Total {
			return a.Total > b.Total
		}
		return ranked[i].RelDir < ranked[j].RelDir
	})
	return ranked[:min(n, len(ranked))]
}

// toActivities converts the kept projects of a run into store rows,
// skipping directories whose rows were dropped from the report.
func toActivities(run *pipeline.Run, dropped []string) []store.ProjectActivity {
	skip := make(map[string]bool, len(dropped))
	for _, d := range dropped {
		skip[d] = true
	}

	var out []store.ProjectActivity
	for _, p := range run.Kept {
		if skip[p.RelDir] {
			continue
		}
		window := make([]store.YearCount, len(p.Activity.YearCounts))
		for i, yc := range p.Activity.YearCounts {
			window[i] = store.YearCount{Year: yc.Year, Count: yc.Count}
		}
		out = append(out, store.ProjectActivity{
			Directory:    p.RelDir,
			ProjectType:  p.ProjectType(),
			Total:        p.Activity.Total,
			Window:       window,
			Accumulators: p.Activity.Accumulators,
		})
	}
	return out
}

// recordRun stores res and the activity of run under root.
func recordRun(db *store.DB, root string, res *pipeline.Result, run *pipeline.Run) (int64, error) {
	id, err := db.CreateRun(&store.Run{
		Root:       root,
		Branch:     res.Repo.Branch,
		Head:       res.Repo.Head,
		Years:      len(run.Options().Window),
		ReportPath: res.Path,
	})
	if err != nil {
		return 0, fmt.Errorf("creating run: %w", err)
	}
	if err := db.InsertActivity(id, toActivities(run, res.Dropped)); err != nil {
		return 0, fmt.Errorf("inserting activity: %w", err)
	}
	return id, nil
}
