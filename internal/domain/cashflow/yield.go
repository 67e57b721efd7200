package cashflow

import (
	"math"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

const (
	solverLower     = -0.99
	solverUpper     = 10.0
	solverTolerance = 1e-6
	solverMaxIter   = 100

	// solverResolution is the relative bracket width below which float64
	// cannot separate the two ends any further.
	solverResolution = 4e-16
)

// bracketGrid is scanned outwards from zero for the first sign change of the
// NPV. Dense around realistic periodic yields, sparse towards the bounds.
var bracketGrid = []float64{
	solverLower, -0.9, -0.75, -0.5, -0.25, -0.1, -0.05, -0.01,
	0,
	0.001, 0.005, 0.01, 0.02, 0.03, 0.05, 0.075, 0.1, 0.15, 0.25, 0.5, 1, 2.5, 5,
	solverUpper,
}

// NPV returns Σ flow(k)·(1+r)^-k over k = 0..N and its derivative in r.
func NPV(flows []float64, r float64) (float64, float64) {
	base := 1 + r
	var value, deriv float64
	factor := 1.0
	for k, flow := range flows {
		value += flow * factor
		deriv -= float64(k) * flow * factor / base
		factor /= base
	}
	return value, deriv
}

// SolveRate finds the periodic rate that zeroes the NPV of flows. It
// brackets a root on a fixed grid inside [-0.99, 10] and refines it with
// Newton steps, falling back to bisection whenever a step leaves the bracket.
// It stops when the NPV is within tolerance or the bracket has shrunk to
// float64 resolution.
func SolveRate(flows []float64) (float64, error) {
	if !hasSignChange(flows) {
		return 0, &bonds.ConvergenceError{Reason: "flow series has no sign change"}
	}

	lo, hi, flo, ok := bracket(flows)
	if !ok {
		return 0, &bonds.ConvergenceError{Reason: "no root inside [-0.99, 10]"}
	}
	if lo == hi {
		return lo, nil
	}

	x := (lo + hi) / 2
	for iter := 1; iter <= solverMaxIter; iter++ {
		fx, dfx := NPV(flows, x)
		if math.Abs(fx) < solverTolerance {
			return x, nil
		}
		if math.Signbit(fx) == math.Signbit(flo) {
			lo, flo = x, fx
		} else {
			hi = x
		}
		// large nominals leave NPV rounding noise above the tolerance
		if hi-lo <= solverResolution*math.Max(1, math.Abs(x)) {
			return x, nil
		}

		next := x - fx/dfx
		if dfx == 0 || math.IsNaN(next) || next <= lo || next >= hi {
			next = (lo + hi) / 2
		}
		x = next
	}
	return 0, &bonds.ConvergenceError{Iterations: solverMaxIter, Reason: "iteration cap reached"}
}

// Annualize compounds a periodic rate over a year of `frequency` periods.
func Annualize(r float64, frequency int) float64 {
	return math.Pow(1+r, float64(frequency)) - 1
}

// bracket scans grid pairs upwards from zero first, then downwards, and
// returns the first pair whose NPVs have opposite signs. A grid point that
// already meets the tolerance is returned as a degenerate bracket.
func bracket(flows []float64) (lo, hi, flo float64, ok bool) {
	zero := 0
	for i, r := range bracketGrid {
		if r == 0 {
			zero = i
			break
		}
	}

	try := func(a, b float64) (float64, float64, float64, bool) {
		fa, _ := NPV(flows, a)
		fb, _ := NPV(flows, b)
		if !finite(fa) || !finite(fb) {
			return 0, 0, 0, false
		}
		if math.Abs(fa) < solverTolerance {
			return a, a, fa, true
		}
		if math.Abs(fb) < solverTolerance {
			return b, b, fb, true
		}
		if math.Signbit(fa) != math.Signbit(fb) {
			return a, b, fa, true
		}
		return 0, 0, 0, false
	}

	for i := zero; i < len(bracketGrid)-1; i++ {
		if lo, hi, flo, ok = try(bracketGrid[i], bracketGrid[i+1]); ok {
			return lo, hi, flo, true
		}
	}
	for i := zero; i > 0; i-- {
		if lo, hi, flo, ok = try(bracketGrid[i-1], bracketGrid[i]); ok {
			return lo, hi, flo, true
		}
	}
	return 0, 0, 0, false
}

func hasSignChange(flows []float64) bool {
	var pos, neg bool
	for _, f := range flows {
		switch {
		case f > 0:
			pos = true
		case f < 0:
			neg = true
		}
	}
	return pos && neg
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
