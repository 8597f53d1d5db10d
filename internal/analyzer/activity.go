package analyzer

import "time"

// Aggregate tallies commit dates into the window.
//
// Every date counts toward Total. Only dates whose year is in the window land
// in a bucket, so Total >= InWindow always holds. Accumulators walk the window
// in its given order, not sorted by magnitude.
func Aggregate(dates []time.Time, w Window) Activity {
	a := Activity{
		Total:        len(dates),
		YearCounts:   make([]YearCount, len(w)),
		Accumulators: make([]int, w.AccDepth()),
	}

	index := make(map[int]int, len(w))
	for i, y := range w {
		index[y] = i
	}
	for i, label := range w.Labels() {
		a.YearCounts[i] = YearCount{Year: label}
	}

	for _, d := range dates {
		if i, ok := index[d.Year()]; ok {
			a.YearCounts[i].Count++
		}
	}

	running := 0
	for i := range a.Accumulators {
		running += a.YearCounts[i].Count
		a.Accumulators[i] = running
	}

	return a
}
