package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/projhist/internal/output"
	"github.com/blackwell-systems/projhist/internal/pipeline"
	"github.com/blackwell-systems/projhist/internal/store"
)

var (
	trackOpts    reportFlags
	trackCompare int
	trackAll     bool
	trackJSON    bool
)

var trackCmd = &cobra.Command{
	Use:   "track <root>",
	Short: "Report, store a snapshot and compare with an earlier run",
	Long: `Track writes the report like 'report', stores the per-project activity in
the history database, and compares it with an earlier run of the same root
to show how Total and Acc_1 moved for each directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runTrack,
}

func init() {
	bindReportFlags(trackCmd, &trackOpts)
	trackCmd.Flags().IntVar(&trackCompare, "compare", 1, "Compare against Nth previous run of this root (1 = most recent)")
	trackCmd.Flags().BoolVar(&trackAll, "all", false, "Include unchanged directories in the comparison")
	trackCmd.Flags().BoolVar(&trackJSON, "json", false, "Output the comparison as JSON")
	rootCmd.AddCommand(trackCmd)
}

func runTrack(cmd *cobra.Command, args []string) error {
	if trackCompare < 1 {
		return fmt.Errorf("--compare must be at least 1, got %d", trackCompare)
	}

	e, err := setup()
	if err != nil {
		return err
	}
	defer e.close()
	trackOpts.apply(cmd, e.cfg)

	root, err := validateRoot(args[0])
	if err != nil {
		return err
	}

	db, err := store.Open(e.cfg.HistoryDB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() { _ = db.Close() }()

	res, run, err := executeReport(cmd.Context(), e, root)
	if errors.Is(err, pipeline.ErrNoProjects) {
		fmt.Fprintln(e.out, noProjectsMessage)
		return nil
	}
	if err != nil {
		return err
	}
	if !trackJSON {
		printResult(e.out, res, run, 0)
	}

	diff, err := trackRun(db, root, res, run, trackCompare)
	if err != nil {
		return err
	}

	if trackJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(diff)
	}
	renderTrackOutput(e.out, diff, trackAll)
	return nil
}

// trackRun looks up the Nth previous run of root, records the current one,
// and diffs their activity. Previous is nil on the first run.
func trackRun(db *store.DB, root string, res *pipeline.Result, run *pipeline.Run, n int) (*store.RunDiff, error) {
	prev, err := db.GetRunN(root, n)
	if err != nil {
		return nil, fmt.Errorf("loading previous run: %w", err)
	}

	id, err := recordRun(db, root, res, run)
	if err != nil {
		return nil, err
	}
	curr, err := db.GetRun(id)
	if err != nil {
		return nil, fmt.Errorf("loading current run: %w", err)
	}

	diff := &store.RunDiff{Previous: prev, Current: curr}
	if prev == nil {
		return diff, nil
	}

	prevActs, err := db.GetActivities(prev.ID)
	if err != nil {
		return nil, fmt.Errorf("loading previous activity: %w", err)
	}
	currActs, err := db.GetActivities(id)
	if err != nil {
		return nil, fmt.Errorf("loading current activity: %w", err)
	}
	diff.Deltas = store.Diff(prevActs, currActs)
	return diff, nil
}

func renderTrackOutput(w io.Writer, diff *store.RunDiff, all bool) {
	fmt.Fprintln(w, output.Section("Track: Run Comparison"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, " %s taken at %s (%s@%s)\n\n",
		output.StyleBold.Render(fmt.Sprintf("Run #%d", diff.Current.ID)), diff.Current.TakenAt.Local().Format("2006-01-02 15:04:05"),
		diff.Current.Branch, diff.Current.Head)

	if diff.Previous == nil {
		fmt.Fprintln(w, " First run recorded for this root. Run 'projhist track' again later to see trends.")
		return
	}

	fmt.Fprintf(w, " Comparing against run #%d (%s, %s@%s)\n\n",
		diff.Previous.ID, diff.Previous.TakenAt.Local().Format("2006-01-02 15:04:05"),
		diff.Previous.Branch, diff.Previous.Head)

	tbl := output.NewTable("Directory", "Change", "Total", "Trend", "Acc_1", "Trend").AlignRight(2, 4)
	for _, d := range diff.Deltas {
		if d.Change == store.ChangeUnchanged && !all {
			continue
		}
		tbl.AddRow(
			d.Directory,
			string(d.Change),
			strconv.Itoa(d.CurrTotal),
			output.TrendArrow(d.TotalDelta),
			strconv.Itoa(d.CurrAcc1),
			output.TrendArrow(d.Acc1Delta),
		)
	}

	if tbl.Len() == 0 {
		fmt.Fprintln(w, " No activity changes since the previous run.")
		return
	}
	tbl.Print(w)
}
