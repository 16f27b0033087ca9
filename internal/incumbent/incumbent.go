// Package incumbent turns the performance sequence of one run into its
// best-so-far step curve.
package incumbent

import (
	"errors"
	"math"
)

var ErrEmpty = errors.New("empty performance sequence")

// Curve is the best-so-far step function of a run. Indices are strictly
// increasing evaluation indices and always end at the last evaluation;
// Values[k] is the best value seen up to and including Indices[k].
type Curve struct {
	Indices []int     `json:"indices"`
	Values  []float64 `json:"values"`
}

func (c *Curve) Len() int {
	return len(c.Indices)
}

// Final is the best value of the whole run.
func (c *Curve) Final() float64 {
	return c.Values[len(c.Values)-1]
}

func (c *Curve) add(i int, v float64) {
	c.Indices = append(c.Indices, i)
	c.Values = append(c.Values, v)
}

// RunningMin returns the prefix minima of perf. NaN compares as +Inf, so it
// never becomes the incumbent once a real value has been seen.
func RunningMin(perf []float64) []float64 {
	m := make([]float64, len(perf))
	best := math.Inf(1)
	for i, v := range perf {
		if !math.IsNaN(v) && v < best {
			best = v
		}
		m[i] = best
	}
	return m
}

// Compute builds the incumbent curve of perf.
//
// Every improvement over the starting value contributes the last index of
// its plateau, i.e. the evaluation just before the next improvement. The
// final plateau additionally contributes the index where the overall best
// was first reached, and the last evaluation is always present so the
// curve reaches the end of the run. For [5 3 3 1 4 1] this yields indices
// [2 3 5] with values [3 1 1].
func Compute(perf []float64) (Curve, error) {
	n := len(perf)
	if n == 0 {
		return Curve{}, ErrEmpty
	}
	m := RunningMin(perf)
	start := m[0]

	var c Curve
	for k := 1; k < n; k++ {
		if m[k] < m[k-1] && m[k-1] < start {
			c.add(k-1, m[k-1])
		}
	}
	best := m[n-1]
	if best < start {
		first := n - 1
		for first > 0 && m[first-1] == best {
			first--
		}
		if first < n-1 {
			c.add(first, best)
		}
	}
	c.add(n-1, best)
	return c, nil
}

// Best returns the index and value of the first evaluation that reached the
// run's best value. A run of only NaNs reports index 0 and +Inf.
func Best(perf []float64) (int, float64) {
	idx, best := 0, math.Inf(1)
	for i, v := range perf {
		if !math.IsNaN(v) && v < best {
			idx, best = i, v
		}
	}
	return idx, best
}
