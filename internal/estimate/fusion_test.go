package estimate

import (
	"math"
	"testing"

	"github.com/dasper/backend/internal/models"
)

func TestFuseSingleEstimateFullConfidence(t *testing.T) {
	samples := []Sample{
		{Method: "edge_based", Value: 120},
		{Method: "segmentation_based", Value: 0},
		{Method: "feature_based", Value: -5},
	}
	est := Fuse(samples, areaWeights, models.Bounds{Min: 50, Max: 2000}, AreaSanity, 150, AreaVarianceNorm)

	if est.Method != models.MethodMultiFusion {
		t.Fatalf("method = %s, want %s", est.Method, models.MethodMultiFusion)
	}
	if est.Value != 120 {
		t.Fatalf("value = %f, want 120", est.Value)
	}
	if est.Confidence != 1.0 {
		t.Fatalf("single-method confidence = %f, want 1.0", est.Confidence)
	}
	if est.Contributing["segmentation_based"] != 0 || est.Contributing["feature_based"] != 0 {
		t.Fatalf("abstaining methods must be recorded as 0: %v", est.Contributing)
	}
}

func TestFuseRenormalizesWeights(t *testing.T) {
	// Only positions 0 and 2 contribute, so weights 0.3 and 0.3 renormalize
	// to 0.5 each.
	samples := []Sample{
		{Method: "edge_based", Value: 100},
		{Method: "segmentation_based", Value: 0},
		{Method: "feature_based", Value: 200},
	}
	est := Fuse(samples, areaWeights, models.Bounds{Min: 50, Max: 2000}, AreaSanity, 150, AreaVarianceNorm)

	if math.Abs(est.Value-150) > 1e-9 {
		t.Fatalf("renormalized value = %f, want 150", est.Value)
	}
	if est.Confidence < 0.3 || est.Confidence > 0.95 {
		t.Fatalf("confidence %f outside [0.3, 0.95]", est.Confidence)
	}
}

func TestFuseAllAbstainDefaultFallback(t *testing.T) {
	samples := []Sample{
		{Method: "edge_based", Value: 0},
		{Method: "segmentation_based", Value: 0},
		{Method: "feature_based", Value: 0},
	}
	est := Fuse(samples, areaWeights, models.Bounds{Min: 50, Max: 2000}, AreaSanity, 150, AreaVarianceNorm)

	if est.Method != models.MethodDefaultFallback {
		t.Fatalf("method = %s, want %s", est.Method, models.MethodDefaultFallback)
	}
	if est.Value != 150 {
		t.Fatalf("fallback value = %f, want 150", est.Value)
	}
	if est.Confidence != 0.3 {
		t.Fatalf("fallback confidence = %f, want 0.3", est.Confidence)
	}
}

func TestFuseConfidenceDropsWithSpread(t *testing.T) {
	tight := []Sample{
		{Method: "a", Value: 100},
		{Method: "b", Value: 101},
		{Method: "c", Value: 99},
	}
	wide := []Sample{
		{Method: "a", Value: 100},
		{Method: "b", Value: 400},
		{Method: "c", Value: 900},
	}
	bounds := models.Bounds{Min: 50, Max: 2000}
	tightEst := Fuse(tight, areaWeights, bounds, AreaSanity, 150, AreaVarianceNorm)
	wideEst := Fuse(wide, areaWeights, bounds, AreaSanity, 150, AreaVarianceNorm)

	if wideEst.Confidence >= tightEst.Confidence {
		t.Fatalf("spread confidence %f should be below tight confidence %f",
			wideEst.Confidence, tightEst.Confidence)
	}
	if wideEst.Confidence < 0.3 {
		t.Fatalf("confidence floor violated: %f", wideEst.Confidence)
	}
	if tightEst.Confidence > 0.95 {
		t.Fatalf("confidence ceiling violated: %f", tightEst.Confidence)
	}
}

func TestFuseClampsToBounds(t *testing.T) {
	samples := []Sample{
		{Method: "a", Value: 10},
		{Method: "b", Value: 12},
	}
	est := Fuse(samples, []float64{0.5, 0.5}, models.Bounds{Min: 80, Max: 2000}, AreaSanity, 150, AreaVarianceNorm)
	if est.Value != 80 {
		t.Fatalf("value = %f, want clamp to lower bound 80", est.Value)
	}
}

func TestHeightSanitySnap(t *testing.T) {
	samples := []Sample{
		{Method: "a", Value: 1500},
		{Method: "b", Value: 1600},
	}
	est := Fuse(samples, []float64{0.5, 0.5}, models.Bounds{Min: 0.5, Max: 5000}, HeightSanity, 8, HeightVarianceNorm)
	if est.Value != HeightSanity.SnapHigh {
		t.Fatalf("value = %f, want snap to %f", est.Value, HeightSanity.SnapHigh)
	}
}

func TestRegionTypeLookup(t *testing.T) {
	cases := []struct {
		loc  *models.LocationHint
		want string
	}{
		{nil, RegionDefault},
		{&models.LocationHint{RegionType: "urban"}, RegionUrban},
		{&models.LocationHint{RegionType: "SEZ"}, RegionSEZ},
		{&models.LocationHint{City: "Karachi"}, RegionUrban},
		{&models.LocationHint{City: "LAHORE"}, RegionUrban},
		{&models.LocationHint{City: "Chakwal"}, RegionRural},
		{&models.LocationHint{}, RegionRural},
	}
	for _, tc := range cases {
		if got := RegionType(tc.loc); got != tc.want {
			t.Fatalf("RegionType(%+v) = %s, want %s", tc.loc, got, tc.want)
		}
	}
}

func TestDefaultsCoverAllTypes(t *testing.T) {
	for _, bt := range []models.BuildingType{models.Residential, models.Commercial, models.Industrial} {
		for _, region := range []string{RegionUrban, RegionRural, RegionSEZ, RegionDefault} {
			a := AreaDefaults(bt, region)
			if !(a.Min < a.Avg && a.Avg < a.Max) {
				t.Fatalf("area defaults for %s/%s not ordered: %+v", bt, region, a)
			}
			h := HeightDefaults(bt, region)
			if !(h.Min < h.Avg && h.Avg < h.Max) {
				t.Fatalf("height defaults for %s/%s not ordered: %+v", bt, region, h)
			}
		}
	}
}
