// Package app contains the Cobra command tree for projhist.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var appVersion = "dev"

// SetVersion sets the application version (called from main with ldflags value).
func SetVersion(v string) {
	appVersion = v
	rootCmd.Version = v
}

var (
	flagNoColor bool
	flagQuiet   bool
	flagVerbose bool
	flagConfig  string
)

var rootCmd = &cobra.Command{
	Use:   "projhist",
	Short: "Score projects in a git repository by commit history",
	Long: `projhist walks a source tree, finds directories holding project files
(.bproj, .csproj, .vcxproj, .xproj, .sln), asks git how often each directory
changed per year, and writes a CSV report with yearly counts and cumulative
recency columns.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("projhist", appVersion)
		fmt.Println()
		fmt.Println("Use a subcommand:")
		fmt.Println("  report    Write the activity report for a repository")
		fmt.Println("  track     Report, store a snapshot and compare with an earlier run")
		fmt.Println("  watch     Regenerate the report whenever HEAD moves")
		return nil
	},
}

// Execute is the entry point called from main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file path (default: ~/.config/projhist/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log warnings and errors")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.MarkFlagsMutuallyExclusive("quiet", "verbose")
}
