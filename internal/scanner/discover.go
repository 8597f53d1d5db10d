package scanner

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"go.uber.org/zap"
)

// DiscoverProjects walks root once and returns one Project per directory that
// contains a file whose extension (case-insensitive) is in exts. Projects are
// sorted by RelDir. Unreadable sub-paths are logged and skipped; only an
// unreadable root is an error. Symlinked directories are not followed.
func DiscoverProjects(root string, exts []string, logger *zap.Logger) ([]*Project, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", abs)
	}

	wanted := make(map[string]bool, len(exts))
	for _, e := range exts {
		wanted[NormalizeType(e)] = true
	}

	byDir := make(map[string]*Project)
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == abs {
				return err
			}
			logger.Warn("skipping unreadable path", zap.String("path", path), zap.Error(err))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if d.Name() == ".git" && path != abs {
				return fs.SkipDir
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(d.Name()))
		if !wanted[ext] {
			return nil
		}

		dir := filepath.Dir(path)
		p, ok := byDir[dir]
		if !ok {
			rel, err := filepath.Rel(abs, dir)
			if err != nil {
				logger.Warn("skipping path outside root", zap.String("path", dir), zap.Error(err))
				return nil
			}
			p = &Project{Path: dir, RelDir: filepath.ToSlash(rel)}
			byDir[dir] = p
		}
		p.Files = append(p.Files, d.Name())
		p.Extensions = append(p.Extensions, ext)
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walking %s: %w", abs, walkErr)
	}

	projects := make([]*Project, 0, len(byDir))
	for _, p := range byDir {
		slices.Sort(p.Files)
		p.Files = slices.Compact(p.Files)
		slices.Sort(p.Extensions)
		p.Extensions = slices.Compact(p.Extensions)
		projects = append(projects, p)
	}

	sort.Slice(projects, func(i, j int) bool {
		return projects[i].RelDir < projects[j].RelDir
	})

	return projects, nil
}

// Partition splits projects into kept and ignored using match on RelDir.
// Both slices preserve the input order.
func Partition(projects []*Project, match func(relDir string) bool) (kept, ignored []*Project) {
	for _, p := range projects {
		if match != nil && match(p.RelDir) {
			ignored = append(ignored, p)
			continue
		}
		kept = append(kept, p)
	}
	return kept, ignored
}
