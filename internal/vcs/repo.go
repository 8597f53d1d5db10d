package vcs

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
)

// Unknown is the sentinel used when git cannot identify the branch or head.
const Unknown = "unknown"

// Detached is the branch label used when HEAD is not on a branch.
const Detached = "detached"

// RepoInfo identifies the checked-out state of a repository.
type RepoInfo struct {
	// Branch is the current branch, Detached, or Unknown.
	Branch string

	// Head is the 6-character abbreviated commit id, or Unknown.
	Head string
}

// Describe resolves the current branch and abbreviated head of the
// repository at root. Failures degrade to Unknown with a warning.
func Describe(ctx context.Context, run Runner, root string, logger *zap.Logger) RepoInfo {
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	branch := ""
	if out, err := run(ctx, "-C", root, "branch", "--show-current"); err == nil {
		branch = strings.TrimSpace(string(out))
	}
	if branch == "" {
		if out, err := run(ctx, "-C", root, "rev-parse", "--abbrev-ref", "HEAD"); err == nil {
			branch = strings.TrimSpace(string(out))
		}
	}
	if branch == "" || strings.EqualFold(branch, "HEAD") {
		branch = Detached
	}

	head, err := Head(ctx, run, root)
	if err != nil {
		logger.Warn("git rev-parse failed", zap.String("root", root), zap.Error(err))
		return RepoInfo{Branch: Unknown, Head: Unknown}
	}

	return RepoInfo{Branch: branch, Head: head}
}

// Head returns the 6-character abbreviated commit id of HEAD.
func Head(ctx context.Context, run Runner, root string) (string, error) {
	if run == nil {
		run = ExecRunner
	}
	out, err := run(ctx, "-C", root, "rev-parse", "--short=6", "HEAD")
	if err != nil {
		return "", err
	}
	head := strings.TrimSpace(string(out))
	if head == "" {
		return "", errors.New("rev-parse returned no commit id")
	}
	return head, nil
}
