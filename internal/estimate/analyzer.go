package estimate

import (
	"context"
	"image"

	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/models"
)

// Method names recorded in GeometryEstimate.Contributing.
const (
	methodEdgeBased    = "edge_based"
	methodSegmentation = "segmentation_based"
	methodFeatureBased = "feature_based"
	methodSatellite    = "satellite_imagery"
	methodDepthBased   = "depth_based"
	methodShadowBased  = "shadow_based"
	methodPerspective  = "perspective_based"
)

// Fixed fusion weight vectors, indexed by estimator position.
var (
	areaWeights            = []float64{0.3, 0.4, 0.3}
	areaWeightsSatellite   = []float64{0.25, 0.3, 0.25, 0.2}
	heightWeightsWithDepth = []float64{0.4, 0.2, 0.2, 0.2}
	heightWeights          = []float64{0.3, 0.3, 0.4}
)

// BuildingAnalyzer fuses the estimator primitives into area, height and
// volume estimates for one building photo. Depth and Satellite are optional;
// when absent their methods abstain.
type BuildingAnalyzer struct {
	Depth     DepthEstimator
	Satellite *SatelliteClient
	Logger    zerolog.Logger
}

// EstimateArea runs the area primitives and fuses them. Individual estimator
// failures are abstentions; the only way to get the error fallback is a nil
// image.
func (a *BuildingAnalyzer) EstimateArea(ctx context.Context, img image.Image, bt models.BuildingType, loc *models.LocationHint) models.GeometryEstimate {
	region := RegionType(loc)
	defaults := AreaDefaults(bt, region)
	bounds := models.Bounds{Min: defaults.Min, Max: defaults.Max}

	if img == nil {
		return errorFallback(defaults, bounds)
	}
	frame := NewFrame(img)

	edge, _ := EstimateAreaFromEdges(frame)
	segment, _ := EstimateAreaFromSegmentation(frame)
	feature, _ := EstimateAreaFromFeatures(frame, bt)

	samples := []Sample{
		{Method: methodEdgeBased, Value: edge},
		{Method: methodSegmentation, Value: segment},
		{Method: methodFeatureBased, Value: feature},
	}
	weights := areaWeights

	if loc != nil && loc.HasPin {
		sat, ok := a.Satellite.EstimateFootprintArea(ctx, loc.Lat, loc.Lon)
		if ok {
			samples = append(samples, Sample{Method: methodSatellite, Value: sat})
			weights = areaWeightsSatellite
		}
	}

	est := Fuse(samples, weights, bounds, AreaSanity, defaults.Avg, AreaVarianceNorm)

	// Visible damage slightly inflates the effective repair surface. The
	// adjustment can push past the upper bound, so clamp again.
	if est.Method == models.MethodMultiFusion {
		est.Value = clamp(est.Value*(1+DamageImpactFactor(frame)*0.1), bounds.Min, bounds.Max)
	}

	a.Logger.Debug().
		Float64("area_sqm", est.Value).
		Float64("confidence", est.Confidence).
		Str("method", string(est.Method)).
		Str("region", region).
		Msg("area estimate")
	return est
}

// EstimateHeight runs the height primitives and fuses them. The depth method
// gets the dominant weight when it contributes.
func (a *BuildingAnalyzer) EstimateHeight(ctx context.Context, img image.Image, bt models.BuildingType, loc *models.LocationHint) models.GeometryEstimate {
	region := RegionType(loc)
	defaults := HeightDefaults(bt, region)
	bounds := models.Bounds{Min: defaults.Min, Max: defaults.Max}

	if img == nil {
		return errorFallback(defaults, bounds)
	}
	frame := NewFrame(img)

	depth, depthOK := EstimateHeightFromDepth(ctx, a.Depth, img)
	shadow, _ := EstimateHeightFromShadows(frame)
	perspective, _ := EstimateHeightFromPerspective(frame)
	feature, _ := EstimateHeightFromFeatures(frame, bt)

	var samples []Sample
	var weights []float64
	if depthOK {
		samples = []Sample{
			{Method: methodDepthBased, Value: depth},
			{Method: methodShadowBased, Value: shadow},
			{Method: methodPerspective, Value: perspective},
			{Method: methodFeatureBased, Value: feature},
		}
		weights = heightWeightsWithDepth
	} else {
		samples = []Sample{
			{Method: methodShadowBased, Value: shadow},
			{Method: methodPerspective, Value: perspective},
			{Method: methodFeatureBased, Value: feature},
		}
		weights = heightWeights
	}

	est := Fuse(samples, weights, bounds, HeightSanity, defaults.Avg, HeightVarianceNorm)
	if !depthOK {
		est.Contributing[methodDepthBased] = 0
	}

	a.Logger.Debug().
		Float64("height_m", est.Value).
		Float64("confidence", est.Confidence).
		Str("method", string(est.Method)).
		Msg("height estimate")
	return est
}

// Analyze produces the full geometry picture: area, height and the derived
// volume with averaged confidence.
func (a *BuildingAnalyzer) Analyze(ctx context.Context, img image.Image, bt models.BuildingType, loc *models.LocationHint) (models.GeometryEstimate, models.GeometryEstimate, models.VolumeAnalysis) {
	area := a.EstimateArea(ctx, img, bt, loc)
	height := a.EstimateHeight(ctx, img, bt, loc)
	volume := models.VolumeAnalysis{
		VolumeCubicM: round2(area.Value * height.Value),
		HeightM:      height.Value,
		AreaSqm:      area.Value,
		Confidence:   (area.Confidence + height.Confidence) / 2,
	}
	return area, height, volume
}

func errorFallback(d typeDefaults, bounds models.Bounds) models.GeometryEstimate {
	return models.GeometryEstimate{
		Value:      d.Avg,
		Confidence: 0.3,
		Method:     models.MethodErrorFallback,
		Bounds:     bounds,
	}
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
