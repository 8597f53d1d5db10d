package analyzer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestYearWindow(t *testing.T) {
	now := day(2025, time.June, 1)

	w, err := YearWindow(now, 3)
	require.NoError(t, err)
	assert.Equal(t, Window{2025, 2024, 2023}, w)
	assert.Equal(t, []string{"2025", "2024", "2023"}, w.Labels())
	assert.Equal(t, []string{"Acc_1", "Acc_2", "Acc_3"}, w.AccLabels())

	_, err = YearWindow(now, 0)
	assert.Error(t, err)
}

func TestYearWindow_StrictlyDecreasingFromCurrentYear(t *testing.T) {
	now := day(2026, time.January, 1)
	for size := 1; size <= 12; size++ {
		w, err := YearWindow(now, size)
		require.NoError(t, err)
		require.Len(t, w, size)
		assert.Equal(t, 2026, w[0])
		for i := 1; i < len(w); i++ {
			assert.Equal(t, w[i-1]-1, w[i])
		}
		for _, label := range w.Labels() {
			assert.Len(t, label, 4)
		}
	}
}

func TestWindow_AccDepthCapsAtFive(t *testing.T) {
	w, err := YearWindow(day(2025, time.May, 5), 10)
	require.NoError(t, err)
	assert.Equal(t, 5, w.AccDepth())

	w, err = YearWindow(day(2025, time.May, 5), 2)
	require.NoError(t, err)
	assert.Equal(t, 2, w.AccDepth())
}

func TestAggregate_EndToEndExample(t *testing.T) {
	w := Window{2025, 2024, 2023}
	dates := []time.Time{
		day(2024, time.March, 3),
		day(2024, time.November, 20),
		day(2022, time.July, 1),
	}

	a := Aggregate(dates, w)

	assert.Equal(t, 3, a.Total)
	assert.Equal(t, []YearCount{
		{Year: "2025", Count: 0},
		{Year: "2024", Count: 2},
		{Year: "2023", Count: 0},
	}, a.YearCounts)
	assert.Equal(t, []int{0, 2, 2}, a.Accumulators)
	assert.Equal(t, 2, a.InWindow())
}

func TestAggregate_NoCommits(t *testing.T) {
	w := Window{2025, 2024}
	a := Aggregate(nil, w)

	assert.Equal(t, 0, a.Total)
	assert.Equal(t, []YearCount{{"2025", 0}, {"2024", 0}}, a.YearCounts)
	assert.Equal(t, []int{0, 0}, a.Accumulators)
}

func TestAggregate_WindowOfOne(t *testing.T) {
	w := Window{2025}
	a := Aggregate([]time.Time{day(2025, time.January, 2), day(2024, time.January, 2)}, w)

	assert.Equal(t, 2, a.Total)
	require.Len(t, a.Accumulators, 1)
	assert.Equal(t, a.YearCounts[0].Count, a.Acc(1))
	assert.Equal(t, 1, a.Acc(1))
	assert.Equal(t, 0, a.Acc(2))
}

func TestAggregate_Invariants(t *testing.T) {
	w, err := YearWindow(day(2025, time.December, 31), 7)
	require.NoError(t, err)

	var dates []time.Time
	for y := 2012; y <= 2025; y++ {
		for n := 0; n < y%4+1; n++ {
			dates = append(dates, day(y, time.Month(n+1), 10))
		}
	}

	a := Aggregate(dates, w)

	assert.Len(t, a.YearCounts, 7)
	assert.GreaterOrEqual(t, a.Total, a.InWindow())
	require.Len(t, a.Accumulators, 5)

	running := 0
	for i, acc := range a.Accumulators {
		running += a.YearCounts[i].Count
		assert.Equal(t, running, acc, "Acc_%d", i+1)
		if i > 0 {
			assert.GreaterOrEqual(t, acc, a.Accumulators[i-1])
		}
	}
}

func TestAggregate_UsesWindowOrderNotMagnitude(t *testing.T) {
	w := Window{2025, 2024, 2023}
	dates := []time.Time{
		day(2023, time.May, 1), day(2023, time.May, 2), day(2023, time.May, 3),
		day(2025, time.May, 1),
	}

	a := Aggregate(dates, w)
	assert.Equal(t, []int{1, 1, 4}, a.Accumulators)
}

func TestActivity_Years(t *testing.T) {
	a := Aggregate(nil, Window{2025, 2024})
	assert.Equal(t, []string{"2025", "2024"}, a.Years())
}
