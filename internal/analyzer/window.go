package analyzer

import (
	"fmt"
	"strconv"
	"time"
)

// Window is the ordered list of calendar years under analysis, most recent
// first.
type Window []int

// YearWindow returns the size most recent calendar years ending at now's year.
func YearWindow(now time.Time, size int) (Window, error) {
	if size < 1 {
		return nil, fmt.Errorf("year range must be an integer greater than or equal to 1, got %d", size)
	}
	w := make(Window, size)
	for i := range w {
		w[i] = now.Year() - i
	}
	return w, nil
}

// Labels returns the window years as four-digit strings.
func (w Window) Labels() []string {
	out := make([]string, len(w))
	for i, y := range w {
		out[i] = strconv.Itoa(y)
	}
	return out
}

// AccDepth is the number of accumulators produced for this window.
func (w Window) AccDepth() int {
	return min(MaxAccumulators, len(w))
}

// AccLabels returns "Acc_1".."Acc_k" for k = AccDepth.
func (w Window) AccLabels() []string {
	out := make([]string, w.AccDepth())
	for i := range out {
		out[i] = fmt.Sprintf("Acc_%d", i+1)
	}
	return out
}
