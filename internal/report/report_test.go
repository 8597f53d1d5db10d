package report

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/projhist/internal/analyzer"
	"github.com/blackwell-systems/projhist/internal/scanner"
)

var window = analyzer.Window{2025, 2024, 2023}

func project(rel string, files []string, exts []string, dates ...time.Time) *scanner.Project {
	return &scanner.Project{
		RelDir:     rel,
		Files:      files,
		Extensions: exts,
		Activity:   analyzer.Aggregate(dates, window),
	}
}

func ymd(y int) time.Time { return time.Date(y, time.June, 1, 0, 0, 0, 0, time.UTC) }

func TestNewSchema(t *testing.T) {
	s := NewSchema(PerDirectory, window)
	assert.Equal(t, []string{"Directory", "ProjectType", "Total", "2025", "2024", "2023", "Acc_1", "Acc_2", "Acc_3"}, s.Columns)

	s = NewSchema(PerFile, analyzer.Window{2025, 2024, 2023, 2022, 2021, 2020, 2019})
	assert.Equal(t, "ProjectFile", s.Columns[1])
	assert.Len(t, s.Columns, 3+7+5)
	assert.Equal(t, "Acc_5", s.Columns[len(s.Columns)-1])
}

func TestSchema_RowsPerDirectory(t *testing.T) {
	s := NewSchema(PerDirectory, window)
	p := project("src/App", []string{"App.csproj", "App.sln"}, []string{".csproj", ".sln"}, ymd(2024), ymd(2024), ymd(2022))

	rows, err := s.ValidRows(p)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"src/App", ".csproj, .sln", "3", "0", "2", "0", "0", "2", "2"}, rows[0].Values())
}

func TestSchema_RowsPerFile(t *testing.T) {
	s := NewSchema(PerFile, window)
	p := project("lib", []string{"A.csproj", "B.csproj"}, []string{".csproj"}, ymd(2025))

	rows, err := s.ValidRows(p)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A.csproj", rows[0][1].Value)
	assert.Equal(t, "B.csproj", rows[1][1].Value)
	for _, r := range rows {
		assert.Equal(t, s.Columns, r.Columns())
		assert.Equal(t, "1", r[2].Value)
	}
}

func TestSchema_MismatchIsRejected(t *testing.T) {
	s := NewSchema(PerDirectory, window)

	// Aggregated against a different window than the run's header.
	p := &scanner.Project{
		RelDir:     "stale",
		Extensions: []string{".csproj"},
		Activity:   analyzer.Aggregate(nil, analyzer.Window{2024, 2023}),
	}

	rows, err := s.ValidRows(p)
	assert.Nil(t, rows)
	var mismatch *MismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, s.Columns, mismatch.Want)
}

func TestSchema_ReorderedRowIsRejected(t *testing.T) {
	s := NewSchema(PerDirectory, window)
	p := project("x", nil, []string{".sln"})
	row := s.Rows(p)[0]
	row[3], row[4] = row[4], row[3]

	assert.Error(t, s.Validate(row))
}

func TestParseRowMode(t *testing.T) {
	m, err := ParseRowMode("FILE")
	require.NoError(t, err)
	assert.Equal(t, PerFile, m)
	assert.Equal(t, "file", m.String())

	m, err = ParseRowMode("")
	require.NoError(t, err)
	assert.Equal(t, PerDirectory, m)

	_, err = ParseRowMode("repo")
	assert.Error(t, err)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "feature-login", Sanitize("feature/login"))
	assert.Equal(t, "a-b-c", Sanitize("a b:c"))
	assert.Equal(t, "v1.2_rc-3", Sanitize("v1.2_rc-3"))
	assert.Equal(t, "unknown", Sanitize(""))
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "my-repo_main_a1b2c3.csv", FileName("my repo", "main", "a1b2c3", nil))
	assert.Equal(t, "repo_feature-x_unknown_csproj_sln.csv",
		FileName("repo", "feature/x", "unknown", []string{".csproj", ".sln"}))
}

func TestRepoName(t *testing.T) {
	assert.Equal(t, "Monolith", RepoName("/src/Monolith/"))
	assert.Equal(t, "repo", RepoName("/"))
}

func TestTimestampedPath(t *testing.T) {
	now := time.Date(2025, 3, 9, 14, 5, 7, 0, time.UTC)
	assert.Equal(t, "/out/r_main_abc123_20250309_140507.csv", TimestampedPath("/out/r_main_abc123.csv", now))
}

func writeReport(t *testing.T, path string, incremental bool, projects []*scanner.Project) string {
	t.Helper()
	s := NewSchema(PerDirectory, window)
	w, err := Create(path, s, Options{Incremental: incremental})
	require.NoError(t, err)
	for _, p := range projects {
		rows, err := s.ValidRows(p)
		require.NoError(t, err)
		require.NoError(t, w.Append(rows))
	}
	require.NoError(t, w.Close())
	data, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	return string(data)
}

func TestWriter_BufferedAndIncrementalAreIdentical(t *testing.T) {
	projects := []*scanner.Project{
		project("a", []string{"A.csproj"}, []string{".csproj"}, ymd(2025), ymd(2023)),
		project("b, with comma", []string{"B.sln"}, []string{".sln"}),
	}
	dir := t.TempDir()

	buffered := writeReport(t, filepath.Join(dir, "buffered.csv"), false, projects)
	incremental := writeReport(t, filepath.Join(dir, "incremental.csv"), true, projects)

	assert.Equal(t, buffered, incremental)
	assert.Equal(t, strings.Join([]string{
		"Directory,ProjectType,Total,2025,2024,2023,Acc_1,Acc_2,Acc_3",
		"a,.csproj,2,1,0,1,1,1,2",
		`"b, with comma",.sln,0,0,0,0,0,0,0`,
		"",
	}, "\n"), buffered)
}

func TestWriter_HeaderOnlyWhenNoRows(t *testing.T) {
	got := writeReport(t, filepath.Join(t.TempDir(), "empty.csv"), false, nil)
	assert.Equal(t, "Directory,ProjectType,Total,2025,2024,2023,Acc_1,Acc_2,Acc_3\n", got)
}

func TestWriter_IncrementalFlushesEachProject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "live.csv")
	s := NewSchema(PerDirectory, window)
	w, err := Create(path, s, Options{Incremental: true})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, strings.Join(s.Columns, ",")+"\n", string(data))

	require.NoError(t, w.Append(s.Rows(project("a", nil, []string{".sln"}))))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(data), "\n"))
	assert.Equal(t, 1, w.Rows())

	require.NoError(t, w.Close())
}

func TestWriter_PermissionFallback(t *testing.T) {
	dir := t.TempDir()
	primary := filepath.Join(dir, "r_main_abc123.csv")
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	var opened []string
	open := func(name string, flag int, perm os.FileMode) (*os.File, error) {
		opened = append(opened, name)
		if name == primary {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrPermission}
		}
		return os.OpenFile(name, flag, perm)
	}

	w, err := Create(primary, NewSchema(PerDirectory, window), Options{
		Now:  func() time.Time { return now },
		Open: open,
	})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	want := filepath.Join(dir, "r_main_abc123_20250102_030405.csv")
	assert.Equal(t, []string{primary, want}, opened)
	assert.Equal(t, want, w.Path())
	assert.True(t, w.UsedFallback())
	assert.FileExists(t, want)
	assertUnlocked(t, primary)
}

func TestWriter_SecondPermissionFailureIsFatal(t *testing.T) {
	calls := 0
	open := func(name string, flag int, perm os.FileMode) (*os.File, error) {
		calls++
		return nil, fs.ErrPermission
	}

	_, err := Create(filepath.Join(t.TempDir(), "r.csv"), NewSchema(PerDirectory, window), Options{Open: open})
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.Equal(t, 2, calls)
}

func TestWriter_OtherOpenErrorsAreNotRetried(t *testing.T) {
	calls := 0
	open := func(name string, flag int, perm os.FileMode) (*os.File, error) {
		calls++
		return nil, fmt.Errorf("disk on fire")
	}

	_, err := Create(filepath.Join(t.TempDir(), "r.csv"), NewSchema(PerDirectory, window), Options{Open: open})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWriter_LockedPathIsRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.csv")
	s := NewSchema(PerDirectory, window)

	first, err := Create(path, s, Options{})
	require.NoError(t, err)

	_, err = Create(path, s, Options{})
	assert.ErrorContains(t, err, "another run")

	require.NoError(t, first.Close())
	assert.FileExists(t, path+".lock")

	again, err := Create(path, s, Options{})
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestWriter_AppendAfterClose(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "r.csv"), NewSchema(PerDirectory, window), Options{})
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.Error(t, w.Append(nil))
	assert.NoError(t, w.Close())
}

// assertUnlocked checks that no writer holds the lock for path.
func assertUnlocked(t *testing.T, path string) {
	t.Helper()
	l := flock.New(path + ".lock")
	locked, err := l.TryLock()
	require.NoError(t, err)
	assert.True(t, locked, "lock for %s is still held", path)
	require.NoError(t, l.Unlock())
}

// openDevFull opens /dev/full in place of the report, so every write fails
// with ENOSPC.
func openDevFull(t *testing.T) OpenFunc {
	t.Helper()
	if _, err := os.Stat("/dev/full"); err != nil {
		t.Skip("/dev/full not available")
	}
	return func(_ string, flag int, perm os.FileMode) (*os.File, error) {
		return os.OpenFile("/dev/full", flag, perm)
	}
}

func TestWriter_MidWriteFailureIsFatal(t *testing.T) {
	s := NewSchema(PerDirectory, window)
	rows := s.Rows(project("a", []string{"A.csproj"}, []string{".csproj"}, ymd(2025)))

	t.Run("incremental", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "r.csv")
		w, err := Create(path, s, Options{Incremental: true, Open: openDevFull(t)})
		require.Error(t, err)
		assert.Nil(t, w)
		assert.ErrorContains(t, err, "writing report")
		assert.ErrorIs(t, err, syscall.ENOSPC)
		assertUnlocked(t, path)
	})

	t.Run("buffered", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "r.csv")
		w, err := Create(path, s, Options{Open: openDevFull(t)})
		require.NoError(t, err)
		require.NoError(t, w.Append(rows))

		err = w.Close()
		require.Error(t, err)
		assert.ErrorContains(t, err, "writing report")
		assert.ErrorIs(t, err, syscall.ENOSPC)
		assertUnlocked(t, path)

		assert.Error(t, w.Append(rows))
		assert.NoError(t, w.Close())
	})
}
