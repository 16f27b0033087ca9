// Package objective folds the per-instance values of one validated
// configuration into a single performance number, following the scenario's
// overall objective.
package objective

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
)

var ErrUnknownMode = errors.New("unknown overall objective")

type Mode string

const (
	Mean     Mode = "MEAN"
	Mean10   Mode = "MEAN10"
	Mean1000 Mode = "MEAN1000"
	Median   Mode = "MEDIAN"
)

// ParseMode accepts the objective names SMAC scenario files use, in any case.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToUpper(strings.TrimSpace(s))); m {
	case Mean, Mean10, Mean1000, Median:
		return m, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownMode)
	}
}

// penalty is the PARk factor applied to values at or above the cutoff.
func (m Mode) penalty() float64 {
	switch m {
	case Mean10:
		return 10
	case Mean1000:
		return 1000
	default:
		return 1
	}
}

// Aggregate reduces values to one number. For the penalized means a value
// that reached the cutoff counts as penalty*cutoff; without a cutoff they are
// plain means. An empty slice yields NaN.
func (m Mode) Aggregate(values []float64, cutoff *float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	if m == Median {
		return median(values)
	}
	factor := m.penalty()
	var sum float64
	for _, v := range values {
		if cutoff != nil && factor != 1 && v >= *cutoff {
			v = factor * *cutoff
		}
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
