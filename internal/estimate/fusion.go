package estimate

import (
	"math"

	"github.com/dasper/backend/internal/models"
)

// Sample is one primitive's contribution to a fused quantity. A non-positive
// value means the method abstained or failed; fusion filters it out but the
// method still appears in the result's contributing map.
type Sample struct {
	Method string
	Value  float64
}

// Sanity is the global floor/ceiling applied on top of type/region bounds
// when more than one method contributed. Values outside [Min, Max] are
// snapped to the tighter SnapLow/SnapHigh defaults rather than clipped.
type Sanity struct {
	Min, Max          float64
	SnapLow, SnapHigh float64
}

// Quantity-specific fusion parameters.
var (
	// AreaSanity: area in [1, 100000] sqm; nonsense snaps to 50 / 10000.
	AreaSanity = Sanity{Min: 1, Max: 100000, SnapLow: 50, SnapHigh: 10000}
	// HeightSanity: height in [0.5, 1000] m; nonsense snaps to 2 / 100.
	HeightSanity = Sanity{Min: 0.5, Max: 1000, SnapLow: 2, SnapHigh: 100}
)

// Variance normalization constants, chosen so realistic spread between
// methods maps into the [0.3, 0.95] confidence band.
const (
	AreaVarianceNorm   = 1000.0
	HeightVarianceNorm = 10.0
)

// Fuse combines independent noisy samples of one physical quantity into a
// bounded estimate with a variance-derived confidence.
//
// weights is indexed by sample position and is renormalized over the methods
// actually present: absent methods contribute neither value nor weight. (The
// alternative — truncating the weight vector without renormalizing — under-
// weights the combined estimate and is deliberately not reproduced here.)
//
// With zero usable samples the type/region default average is returned with
// confidence 0.3. With exactly one sample confidence is 1.0; otherwise it is
// clip(1/(1+variance/varNorm), 0.3, 0.95).
func Fuse(samples []Sample, weights []float64, bounds models.Bounds, sanity Sanity, fallbackAvg, varNorm float64) models.GeometryEstimate {
	contributing := make(map[string]float64, len(samples))
	var present []Sample
	var presentWeights []float64
	for i, s := range samples {
		if s.Value > 0 {
			contributing[s.Method] = s.Value
			present = append(present, s)
			w := 0.0
			if i < len(weights) {
				w = weights[i]
			}
			presentWeights = append(presentWeights, w)
		} else {
			contributing[s.Method] = 0
		}
	}

	if len(present) == 0 {
		return models.GeometryEstimate{
			Value:        fallbackAvg,
			Confidence:   0.3,
			Method:       models.MethodDefaultFallback,
			Contributing: contributing,
			Bounds:       bounds,
		}
	}

	weightSum := 0.0
	for _, w := range presentWeights {
		weightSum += w
	}
	var value float64
	if weightSum > 0 {
		for i, s := range present {
			value += presentWeights[i] * s.Value
		}
		value /= weightSum
	} else {
		for _, s := range present {
			value += s.Value
		}
		value /= float64(len(present))
	}

	value = clamp(value, bounds.Min, bounds.Max)
	if len(present) > 1 {
		if value < sanity.Min {
			value = sanity.SnapLow
		} else if value > sanity.Max {
			value = sanity.SnapHigh
		}
	}

	confidence := 1.0
	if len(present) > 1 {
		confidence = clamp(1.0/(1.0+variance(present)/varNorm), 0.3, 0.95)
	}

	return models.GeometryEstimate{
		Value:        value,
		Confidence:   confidence,
		Method:       models.MethodMultiFusion,
		Contributing: contributing,
		Bounds:       bounds,
	}
}

func variance(samples []Sample) float64 {
	mean := 0.0
	for _, s := range samples {
		mean += s.Value
	}
	mean /= float64(len(samples))
	v := 0.0
	for _, s := range samples {
		d := s.Value - mean
		v += d * d
	}
	return v / float64(len(samples))
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
