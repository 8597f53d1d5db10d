package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTest(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func activity(dir string, total int, acc ...int) ProjectActivity {
	return ProjectActivity{
		Directory:    dir,
		ProjectType:  ".csproj",
		Total:        total,
		Window:       []YearCount{{"2025", acc[0]}},
		Accumulators: acc,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTest(t)
	require.NoError(t, db.Migrate())
	require.NoError(t, db.Migrate())

	var version int
	require.NoError(t, db.conn.QueryRow("SELECT version FROM schema_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "projhist.db")
	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
	assert.FileExists(t, path)

	// Reopening an existing database keeps its schema.
	db, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Close())
}

func TestCreateRun_RoundTrip(t *testing.T) {
	db := openTest(t)
	taken := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	id, err := db.CreateRun(&Run{
		TakenAt:    taken,
		Root:       "/src/mono",
		Branch:     "main",
		Head:       "abc123",
		Years:      10,
		ReportPath: "out/mono_main_abc123.csv",
	})
	require.NoError(t, err)

	got, err := db.GetRun(id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.True(t, taken.Equal(got.TakenAt))
	assert.Equal(t, "/src/mono", got.Root)
	assert.Equal(t, "abc123", got.Head)
	assert.Equal(t, 10, got.Years)

	missing, err := db.GetRun(id + 100)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestGetRunN_ScopedByRoot(t *testing.T) {
	db := openTest(t)
	for _, r := range []Run{
		{Root: "/a", Head: "111111"},
		{Root: "/b", Head: "999999"},
		{Root: "/a", Head: "222222"},
		{Root: "/a", Head: "333333"},
	} {
		_, err := db.CreateRun(&r)
		require.NoError(t, err)
	}

	latest, err := db.GetRunN("/a", 1)
	require.NoError(t, err)
	assert.Equal(t, "333333", latest.Head)

	prev, err := db.GetRunN("/a", 3)
	require.NoError(t, err)
	assert.Equal(t, "111111", prev.Head)

	none, err := db.GetRunN("/a", 4)
	require.NoError(t, err)
	assert.Nil(t, none)

	_, err = db.GetRunN("/a", 0)
	assert.Error(t, err)
}

func TestInsertActivity_RoundTrip(t *testing.T) {
	db := openTest(t)
	id, err := db.CreateRun(&Run{Root: "/a"})
	require.NoError(t, err)

	require.NoError(t, db.InsertActivity(id, []ProjectActivity{
		activity("src/B", 4, 1, 3),
		activity("src/A", 9, 2, 5),
		{Directory: "empty", ProjectType: ".sln"},
	}))

	got, err := db.GetActivities(id)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "empty", got[0].Directory)
	assert.Empty(t, got[0].Accumulators)
	assert.Equal(t, 0, got[0].Acc1())

	assert.Equal(t, "src/A", got[1].Directory)
	assert.Equal(t, id, got[1].RunID)
	assert.Equal(t, 9, got[1].Total)
	assert.Equal(t, []int{2, 5}, got[1].Accumulators)
	assert.Equal(t, []YearCount{{"2025", 2}}, got[1].Window)
}

func TestInsertActivity_UnknownRunRejected(t *testing.T) {
	db := openTest(t)
	err := db.InsertActivity(42, []ProjectActivity{activity("x", 1, 1)})
	assert.Error(t, err)
}

func TestDiff(t *testing.T) {
	prev := []ProjectActivity{
		activity("same", 5, 1),
		activity("grew", 5, 1),
		activity("gone", 3, 2),
	}
	curr := []ProjectActivity{
		activity("same", 5, 1),
		activity("grew", 8, 3),
		activity("new", 2, 2),
	}

	deltas := Diff(prev, curr)
	require.Len(t, deltas, 4)

	byDir := map[string]ActivityDelta{}
	for _, d := range deltas {
		byDir[d.Directory] = d
	}

	assert.Equal(t, ChangeUnchanged, byDir["same"].Change)
	assert.Zero(t, byDir["same"].TotalDelta)

	assert.Equal(t, ChangeChanged, byDir["grew"].Change)
	assert.Equal(t, 3, byDir["grew"].TotalDelta)
	assert.Equal(t, 2, byDir["grew"].Acc1Delta)

	assert.Equal(t, ChangeAdded, byDir["new"].Change)
	assert.Equal(t, 2, byDir["new"].TotalDelta)

	assert.Equal(t, ChangeRemoved, byDir["gone"].Change)
	assert.Equal(t, -3, byDir["gone"].TotalDelta)
	assert.Equal(t, -2, byDir["gone"].Acc1Delta)

	assert.Equal(t, []string{"gone", "grew", "new", "same"},
		[]string{deltas[0].Directory, deltas[1].Directory, deltas[2].Directory, deltas[3].Directory})
}

func TestDiff_Empty(t *testing.T) {
	assert.Empty(t, Diff(nil, nil))
}
