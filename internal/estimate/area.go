package estimate

import (
	"math"
	"sort"

	"github.com/dasper/backend/internal/models"
)

// Area estimator primitives. Each returns (value in sqm, ok); ok=false means
// the method abstained. None of them panic across this boundary.

// EstimateAreaFromEdges derives a footprint from the edge map: the fraction
// of the image covered by edge-dense cells approximates how much of the frame
// the building occupies, then a distance-dependent scale converts the ratio
// to square meters.
func EstimateAreaFromEdges(f *Frame) (float64, bool) {
	ratio := coverageRatio(f, 16, 0.06)
	if ratio <= 0 {
		return 0, false
	}
	var area float64
	switch {
	case ratio > 0.6:
		area = 200 * ratio // close-up shot
	case ratio > 0.3:
		area = 300 * ratio // medium shot
	default:
		area = 500 * ratio // wide shot
	}
	return area, area > 0
}

// EstimateAreaFromSegmentation masks building-like colors (concrete grays,
// brick reds) and converts the masked ratio to square meters.
func EstimateAreaFromSegmentation(f *Frame) (float64, bool) {
	masked := 0
	for i := range f.Luma {
		if isBuildingColor(f.Luma[i], f.Sat[i], f.Hue[i]) {
			masked++
		}
	}
	if masked == 0 || len(f.Luma) == 0 {
		return 0, false
	}
	ratio := float64(masked) / float64(len(f.Luma))
	var area float64
	switch {
	case ratio > 0.5:
		area = 250 * ratio
	case ratio > 0.2:
		area = 400 * ratio
	default:
		area = 600 * ratio
	}
	return area, area > 0
}

// EstimateAreaFromFeatures counts floors from horizontal line structure and
// building width from vertical lines, then applies per-type floor areas.
func EstimateAreaFromFeatures(f *Frame, bt models.BuildingType) (float64, bool) {
	horiz, vert := lineRows(f)
	if len(horiz) == 0 && len(vert) == 0 {
		return 0, false
	}

	floors := clusterFloors(horiz, f.H, 0.05, 10, 2)

	widthRatio := 0.5
	if len(vert) > 0 {
		minX, maxX := vert[0], vert[0]
		for _, x := range vert[1:] {
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
		}
		widthRatio = float64(maxX-minX) / float64(f.W)
	}

	var area float64
	switch bt {
	case models.Commercial:
		area = (200 + float64(floors-1)*150) * (1 + widthRatio*1.5)
	case models.Industrial:
		area = (500 + float64(floors-1)*300) * (1 + widthRatio*2)
	default:
		area = (100 + float64(floors-1)*80) * (1 + widthRatio)
	}
	return area, area > 0
}

// DamageImpactFactor estimates how visible damage inflates the repair
// surface, from facade texture and shadowed debris. Capped at 0.5.
func DamageImpactFactor(f *Frame) float64 {
	factor := f.TextureScore()*0.1 + f.DarkRatio()*0.2
	return math.Min(factor, 0.5)
}

// coverageRatio divides the frame into cells x cells and reports the fraction
// whose edge density exceeds the threshold.
func coverageRatio(f *Frame, cells int, threshold float64) float64 {
	edges := f.Edges()
	if f.W < cells || f.H < cells {
		return 0
	}
	cw, ch := f.W/cells, f.H/cells
	covered := 0
	for cy := 0; cy < cells; cy++ {
		for cx := 0; cx < cells; cx++ {
			on := 0
			for y := cy * ch; y < (cy+1)*ch; y++ {
				for x := cx * cw; x < (cx+1)*cw; x++ {
					if edges[y*f.W+x] {
						on++
					}
				}
			}
			if float64(on)/float64(cw*ch) > threshold {
				covered++
			}
		}
	}
	return float64(covered) / float64(cells*cells)
}

func isBuildingColor(luma, sat, hue float64) bool {
	// Concrete and plaster: low saturation, mid luminance.
	if sat < 30 && luma >= 50 && luma <= 200 {
		return true
	}
	// Brick: saturated reds at either end of the hue circle.
	if sat >= 50 && luma >= 50 && (hue <= 20 || hue >= 340) {
		return true
	}
	return false
}

// lineRows scans for rows and columns with strong aligned edge runs,
// approximating horizontal and vertical Hough lines.
func lineRows(f *Frame) (horizRows []int, vertCols []int) {
	edges := f.Edges()
	rowThreshold := float64(f.W) * 0.25
	for y := 0; y < f.H; y++ {
		run, best := 0, 0
		for x := 0; x < f.W; x++ {
			if edges[y*f.W+x] {
				run++
				if run > best {
					best = run
				}
			} else {
				run = 0
			}
		}
		if float64(best) >= rowThreshold*0.4 || rowEdgeCount(edges, f.W, y) >= rowThreshold {
			horizRows = append(horizRows, y)
		}
	}
	colThreshold := float64(f.H) * 0.25
	for x := 0; x < f.W; x++ {
		count := 0
		for y := 0; y < f.H; y++ {
			if edges[y*f.W+x] {
				count++
			}
		}
		if float64(count) >= colThreshold {
			vertCols = append(vertCols, x)
		}
	}
	return horizRows, vertCols
}

func rowEdgeCount(edges []bool, w, y int) float64 {
	count := 0
	for x := 0; x < w; x++ {
		if edges[y*w+x] {
			count++
		}
	}
	return float64(count)
}

// clusterFloors groups row coordinates separated by at least minGapFrac of
// the image height into floor boundaries.
func clusterFloors(rows []int, imgH int, minGapFrac float64, maxFloors, base int) int {
	if len(rows) == 0 {
		return base
	}
	sorted := append([]int(nil), rows...)
	sort.Ints(sorted)
	floors := base
	minGap := float64(imgH) * minGapFrac
	prev := sorted[0]
	for _, y := range sorted[1:] {
		if float64(y-prev) > minGap {
			floors++
			prev = y
		}
	}
	if floors > maxFloors {
		floors = maxFloors
	}
	return floors
}
