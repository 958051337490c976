package estimate

import (
	"context"
	"image"
	"math"

	"github.com/dasper/backend/internal/models"
)

// DepthEstimator produces a monocular depth spread for an image. Implemented
// by the remote depth service client; nil means the method abstains.
type DepthEstimator interface {
	DepthRange(ctx context.Context, img image.Image) (minDepth, maxDepth float64, err error)
}

// EstimateHeightFromDepth converts the depth spread of the central building
// region into meters with a fixed scale. Abstains when no depth model is
// configured or the call fails.
func EstimateHeightFromDepth(ctx context.Context, depth DepthEstimator, img image.Image) (float64, bool) {
	if depth == nil {
		return 0, false
	}
	minD, maxD, err := depth.DepthRange(ctx, img)
	if err != nil || maxD <= minD {
		return 0, false
	}
	h := (maxD - minD) * 0.1
	if h <= 0 {
		return 0, false
	}
	return h, true
}

// EstimateHeightFromShadows measures the longest dimension of the darkest
// connected region and scales it assuming a mid-day sun angle.
func EstimateHeightFromShadows(f *Frame) (float64, bool) {
	minX, minY := f.W, f.H
	maxX, maxY := -1, -1
	shadowPixels := 0
	for y := 0; y < f.H; y++ {
		for x := 0; x < f.W; x++ {
			i := y*f.W + x
			if f.Luma[i] < 120 && f.Sat[i] < 80 {
				shadowPixels++
				if x < minX {
					minX = x
				}
				if x > maxX {
					maxX = x
				}
				if y < minY {
					minY = y
				}
				if y > maxY {
					maxY = y
				}
			}
		}
	}
	if maxX < 0 || shadowPixels < f.W*f.H/200 {
		return 0, false
	}
	shadowLength := math.Max(float64(maxX-minX), float64(maxY-minY))
	scale := float64(f.H) / 1000.0
	h := shadowLength * scale * 0.005
	return clampHeight(h), true
}

// EstimateHeightFromPerspective uses the longest vertical edge run as a proxy
// for the building's facade extent.
func EstimateHeightFromPerspective(f *Frame) (float64, bool) {
	edges := f.Edges()
	longest := 0
	for x := 0; x < f.W; x++ {
		run := 0
		for y := 0; y < f.H; y++ {
			if edges[y*f.W+x] {
				run++
				if run > longest {
					longest = run
				}
			} else {
				run = 0
			}
		}
	}
	if longest < f.H/10 {
		return 0, false
	}
	scale := float64(f.H) / 1000.0
	h := float64(longest) * scale * 0.01
	return clampHeight(h), true
}

// EstimateHeightFromFeatures counts floors from horizontal line structure and
// multiplies by a per-type storey height.
func EstimateHeightFromFeatures(f *Frame, bt models.BuildingType) (float64, bool) {
	horiz, _ := lineRows(f)
	var floors int
	if len(horiz) > 0 {
		floors = clusterFloors(horiz, f.H, 0.03, 20, 1)
	} else {
		// Coarse fallback: typical photos show two to five storeys.
		floors = int(float64(f.H) * 0.002)
		if floors < 2 {
			floors = 2
		}
		if floors > 5 {
			floors = 5
		}
	}
	var storey float64
	switch bt {
	case models.Commercial:
		storey = 3.5
	case models.Industrial:
		storey = 4.0
	default:
		storey = 3.0
	}
	h := float64(floors) * storey
	return h, h > 0
}

func clampHeight(h float64) float64 {
	if h < 2.0 {
		return 2.0
	}
	if h > 50.0 {
		return 50.0
	}
	return h
}
