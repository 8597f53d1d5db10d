package report

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// Sanitize replaces path separators and any character outside
// [A-Za-z0-9._-] with "-". An empty result becomes "unknown".
func Sanitize(name string) string {
	safe := strings.ReplaceAll(name, string(os.PathSeparator), "-")
	safe = strings.ReplaceAll(safe, "/", "-")
	safe = unsafeChars.ReplaceAllString(safe, "-")
	if safe == "" {
		return "unknown"
	}
	return safe
}

// FileName builds {repo}_{branch}_{head}[_{types}].csv. typeSuffix holds the
// selected extensions when they differ from the full recognized set, and is
// empty otherwise.
func FileName(repo, branch, head string, typeSuffix []string) string {
	name := Sanitize(repo) + "_" + Sanitize(branch) + "_" + Sanitize(head)
	if len(typeSuffix) > 0 {
		tokens := make([]string, len(typeSuffix))
		for i, t := range typeSuffix {
			tokens[i] = strings.TrimPrefix(t, ".")
		}
		name += "_" + strings.Join(tokens, "_")
	}
	return name + ".csv"
}

// RepoName returns the base name of root, or "repo" when it has none.
func RepoName(root string) string {
	base := filepath.Base(filepath.Clean(root))
	if base == "." || base == string(os.PathSeparator) || base == "" {
		return "repo"
	}
	return base
}

// TimestampedPath inserts _YYYYMMDD_HHMMSS before the extension of path.
func TimestampedPath(path string, now time.Time) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + now.Format("20060102_150405") + ext
}
