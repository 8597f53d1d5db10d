package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/blackwell-systems/projhist/internal/config"
	"github.com/blackwell-systems/projhist/internal/logging"
	"github.com/blackwell-systems/projhist/internal/output"
	"github.com/blackwell-systems/projhist/internal/vcs"
)

// env carries what every command needs once flags are parsed.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	runner vcs.Runner
	close  func()
}

// setup loads config, applies color settings and builds the logger.
func setup() (*env, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	output.SetNoColor(!output.ColorEnabled(os.Stdout, flagNoColor, cfg.Output.Color))

	logger, closeFn, err := logging.New(logging.Options{
		Quiet:   flagQuiet,
		Verbose: flagVerbose,
		File:    cfg.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		out:    os.Stdout,
		runner: vcs.ExecRunner,
		close:  closeFn,
	}, nil
}

// validateRoot checks that root is an existing directory at the top of a
// git work tree and returns its absolute path.
func validateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("root directory does not exist: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("root is not a directory: %s", abs)
	}
	// .git is a directory in a clone and a file in a linked worktree.
	if _, err := os.Stat(filepath.Join(abs, ".git")); err != nil {
		return "", fmt.Errorf("%s is not a git repository root (no .git found)", abs)
	}
	return abs, nil
}
