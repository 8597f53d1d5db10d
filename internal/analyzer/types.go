// Package analyzer turns raw commit dates into a fixed year-window histogram
// and cumulative recency accumulators.
package analyzer

// MaxAccumulators caps the number of Acc_i columns regardless of window size.
const MaxAccumulators = 5

// YearCount is the number of commits that landed in one calendar year.
type YearCount struct {
	// Year is the four-digit year label, e.g. "2024".
	Year string `json:"year"`

	// Count is the number of commits dated in Year.
	Count int `json:"count"`
}

// Activity is the aggregated commit history of one project directory.
type Activity struct {
	// Total is the lifetime commit count, including commits older than the
	// window.
	Total int `json:"total"`

	// YearCounts holds one bucket per window year, most recent first.
	YearCounts []YearCount `json:"year_counts"`

	// Accumulators[i] is the commit count over the i+1 most recent window
	// years. Its length is min(MaxAccumulators, window size).
	Accumulators []int `json:"accumulators"`
}

// InWindow returns the number of commits that fell inside the window.
func (a Activity) InWindow() int {
	n := 0
	for _, yc := range a.YearCounts {
		n += yc.Count
	}
	return n
}

// Years returns the year labels of the buckets in order.
func (a Activity) Years() []string {
	out := make([]string, len(a.YearCounts))
	for i, yc := range a.YearCounts {
		out[i] = yc.Year
	}
	return out
}

// Acc returns Acc_i (1-based), or 0 when i is out of range.
func (a Activity) Acc(i int) int {
	if i < 1 || i > len(a.Accumulators) {
		return 0
	}
	return a.Accumulators[i-1]
}
