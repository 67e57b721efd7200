package cashflow

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/Eduvent/bono-app-sub002/internal/domain/entity/bonds"
)

// Discounted holds the per-period discount columns of one flow series.
// Index k of every slice is period k.
type Discounted struct {
	Factors           []float64
	Flows             []float64
	TimeWeighted      []float64
	ConvexityWeighted []float64
}

// Discount applies a periodic rate to a flow series:
//
//	factor(k)    = (1+rate)^-k
//	flow(k)      = flow(k) * factor(k)
//	time(k)      = k * flow(k)
//	convexity(k) = k * (k+1) * flow(k)
func Discount(flows []float64, rate float64) Discounted {
	d := Discounted{
		Factors:           make([]float64, len(flows)),
		Flows:             make([]float64, len(flows)),
		TimeWeighted:      make([]float64, len(flows)),
		ConvexityWeighted: make([]float64, len(flows)),
	}
	for k, flow := range flows {
		kf := float64(k)
		factor := math.Pow(1+rate, -kf)
		d.Factors[k] = factor
		d.Flows[k] = flow * factor
		d.TimeWeighted[k] = kf * d.Flows[k]
		d.ConvexityWeighted[k] = kf * (kf + 1) * d.Flows[k]
	}
	return d
}

// PresentValue is the sum of discounted flows for periods 1..N.
func (d Discounted) PresentValue() float64 {
	if len(d.Flows) < 2 {
		return 0
	}
	return floats.Sum(d.Flows[1:])
}

// Measure aggregates duration, modified duration and convexity of a flow
// series over periods 1..N; period 0 (the initial outlay or proceeds) is
// left out. frequency converts period units to years.
func Measure(flows []float64, rate float64, frequency int) bonds.ViewMetrics {
	d := Discount(flows, rate)
	metrics := bonds.ViewMetrics{PeriodicRate: rate}

	pv := d.PresentValue()
	if pv == 0 || len(flows) < 2 || frequency <= 0 {
		return metrics
	}
	f := float64(frequency)
	durationPeriods := floats.Sum(d.TimeWeighted[1:]) / pv
	convexityPeriods := floats.Sum(d.ConvexityWeighted[1:]) / (pv * math.Pow(1+rate, 2))

	metrics.Duration = durationPeriods / f
	metrics.ModifiedDuration = metrics.Duration / (1 + rate)
	metrics.Convexity = convexityPeriods / (f * f)
	return metrics
}
