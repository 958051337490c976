package cost

import (
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/models"
)

func neutralProfile() models.RegionalCostProfile {
	return models.RegionalCostProfile{
		Region:           "Pakistan_Urban",
		Construction:     1.0,
		Materials:        1.0,
		Labor:            1.0,
		InflationFactor:  1.0,
		MarketVolatility: 0,
	}
}

func testEstimator() *Estimator {
	e := NewEstimator(zerolog.Nop())
	e.now = func() time.Time { return time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC) }
	return e
}

func componentSubtotal(b models.CostBreakdown) float64 {
	return b.Structural + b.NonStructural + b.Content + b.Demolition +
		b.ProfessionalFees + b.PermitCosts + b.EmergencyResponse + b.Equipment
}

func TestEstimateModerateResidential(t *testing.T) {
	e := testEstimator()
	b := e.Estimate(Input{
		SeverityScore: 0.5,
		DamageRatio:   0.5,
		AreaSqm:       100,
		BuildingType:  models.Residential,
		Profile:       neutralProfile(),
		DamageTypes:   []string{"structural_damage", "fire_damage"},
		Confidence:    0.8,
	})

	if b.FallbackUsed {
		t.Fatalf("unexpected fallback: %s", b.Error)
	}
	if b.CalculationMethod != models.AreaBased {
		t.Fatalf("method = %s, want area_based without height", b.CalculationMethod)
	}
	if b.DamageMultiplier != 1.2 {
		t.Fatalf("damage multiplier = %f, want fire's 1.2 over structural's 1.1", b.DamageMultiplier)
	}
	if b.RepairTimeDays <= 30 {
		t.Fatalf("repair days = %d, want > 30 for moderate damage with multiplier", b.RepairTimeDays)
	}
	// 100 sqm at severity 0.5 prices above the moderate ceiling, so the
	// tier cap takes over.
	if b.TotalCost != ModerateDamageCap {
		t.Fatalf("total = %f, want moderate-tier ceiling %f", b.TotalCost, ModerateDamageCap)
	}
	if !(b.CostRangeLow <= b.TotalCost && b.TotalCost <= b.CostRangeHigh) {
		t.Fatalf("range [%f, %f] does not bracket total %f", b.CostRangeLow, b.CostRangeHigh, b.TotalCost)
	}
}

func TestEstimateSubtotalInvariantUncapped(t *testing.T) {
	e := testEstimator()
	b := e.Estimate(Input{
		SeverityScore: 0.5,
		DamageRatio:   0.5,
		AreaSqm:       50,
		BuildingType:  models.Residential,
		Profile:       neutralProfile(),
		DamageTypes:   []string{"structural_damage", "fire_damage"},
		Confidence:    0.8,
	})

	if b.TotalCost >= ModerateDamageCap {
		t.Fatalf("total = %f, expected an uncapped case below %f", b.TotalCost, ModerateDamageCap)
	}
	if got := componentSubtotal(b) + b.Contingency; math.Abs(got-b.TotalCost) > 0.5 {
		t.Fatalf("total %f != subtotal + contingency %f", b.TotalCost, got)
	}
}

func TestEstimateVolumeBasis(t *testing.T) {
	e := testEstimator()
	b := e.Estimate(Input{
		SeverityScore: 0.6,
		DamageRatio:   0.6,
		AreaSqm:       200,
		HeightM:       10,
		BuildingType:  models.Commercial,
		Profile:       neutralProfile(),
		Confidence:    0.7,
	})

	if b.CalculationMethod != models.VolumeBased {
		t.Fatalf("method = %s, want volume_based with height", b.CalculationMethod)
	}
	if b.Dimensions.VolumeCubicM != 2000 {
		t.Fatalf("volume = %f, want 200*10", b.Dimensions.VolumeCubicM)
	}
	if b.EmergencyResponse <= 0 {
		t.Fatal("severity 0.6 should include emergency response cost")
	}
	if b.Demolition != 0 {
		t.Fatalf("demolition = %f, want 0 at severity 0.6", b.Demolition)
	}
}

func TestEstimateDemolitionAboveThreshold(t *testing.T) {
	e := testEstimator()
	b := e.Estimate(Input{
		SeverityScore: 0.9,
		DamageRatio:   0.9,
		AreaSqm:       100,
		BuildingType:  models.Residential,
		Profile:       neutralProfile(),
		Confidence:    0.8,
	})
	if b.Demolition <= 0 {
		t.Fatal("severity 0.9 should include demolition cost")
	}
	if b.RepairTimeDays < 180 {
		t.Fatalf("repair days = %d, want >= 180 for destructive damage", b.RepairTimeDays)
	}
}

func TestEstimateLowSeverityCap(t *testing.T) {
	e := testEstimator()
	b := e.Estimate(Input{
		SeverityScore: 0.1,
		DamageRatio:   0.1,
		AreaSqm:       10000,
		BuildingType:  models.Industrial,
		Profile:       neutralProfile(),
		Confidence:    0.9,
	})

	// The ceiling binds regardless of building size: a 10000 sqm industrial
	// subtotal dwarfs the cap and the total still settles at the ceiling.
	if b.TotalCost != MinimalDamageCap {
		t.Fatalf("total = %f, want minimal-tier ceiling %f", b.TotalCost, MinimalDamageCap)
	}
	if b.Contingency != 0 {
		t.Fatalf("contingency = %f, want floor at 0 when the subtotal exceeds the ceiling", b.Contingency)
	}
}

func TestEstimateIdempotent(t *testing.T) {
	e := testEstimator()
	in := Input{
		SeverityScore: 0.45,
		DamageRatio:   0.45,
		AreaSqm:       250,
		HeightM:       8,
		BuildingType:  models.Commercial,
		Profile:       neutralProfile(),
		DamageTypes:   []string{"cracks"},
		Confidence:    0.75,
	}
	first := e.Estimate(in)
	second := e.Estimate(in)
	if first != second {
		t.Fatalf("identical inputs gave different breakdowns:\n%+v\n%+v", first, second)
	}
}

func TestEstimateFallbackOnBadInput(t *testing.T) {
	e := testEstimator()

	b := e.Estimate(Input{SeverityScore: 0.5, AreaSqm: 0, Profile: neutralProfile(), Confidence: 0.5})
	if !b.FallbackUsed || b.Error == "" {
		t.Fatalf("zero area should use tagged fallback: %+v", b)
	}
	if b.CalculationMethod != models.FallbackCalc {
		t.Fatalf("method = %s, want fallback", b.CalculationMethod)
	}
	if math.Abs(b.Structural+b.NonStructural+b.Content+b.ProfessionalFees+b.PermitCosts+b.Equipment+b.Contingency-b.TotalCost) > 0.5 {
		t.Fatal("fallback breakdown does not sum to its total")
	}

	bad := neutralProfile()
	bad.Construction = -1
	b = e.Estimate(Input{SeverityScore: 0.5, AreaSqm: 100, Profile: bad, Confidence: 0.5})
	if !b.FallbackUsed {
		t.Fatal("invalid regional profile should use fallback")
	}
}

func TestDamageMultiplier(t *testing.T) {
	cases := []struct {
		types []string
		want  float64
	}{
		{nil, 1.0},
		{[]string{"minor cosmetic"}, 1.0},
		{[]string{"surface cracks"}, 1.02},
		{[]string{"earthquake damage", "fire"}, 1.3},
		{[]string{"partial collapse"}, 1.4},
	}
	for _, tc := range cases {
		if got := DamageMultiplier(tc.types); got != tc.want {
			t.Fatalf("DamageMultiplier(%v) = %f, want %f", tc.types, got, tc.want)
		}
	}
}

func TestRegionalMultiplier(t *testing.T) {
	p := models.RegionalCostProfile{
		Construction:     1.2,
		Materials:        1.4,
		Labor:            0.8,
		InflationFactor:  1.15,
		MarketVolatility: 0.2,
	}
	want := (1.2*0.3 + 1.4*0.5 + 0.8*0.2) * 1.15 * 1.1
	if got := RegionalMultiplier(p); math.Abs(got-want) > 1e-9 {
		t.Fatalf("RegionalMultiplier = %f, want %f", got, want)
	}
}

func TestApplySeverityCapRecomputesContingency(t *testing.T) {
	// Room left under the ceiling: contingency shrinks to keep the sum.
	b := models.CostBreakdown{SeverityScore: 0.2, TotalCost: 550000, Contingency: 100000}
	ApplySeverityCap(&b)
	if b.TotalCost != MinimalDamageCap {
		t.Fatalf("total = %f, want %f", b.TotalCost, MinimalDamageCap)
	}
	if b.Contingency != 50000 {
		t.Fatalf("contingency = %f, want 50000", b.Contingency)
	}

	// No room: contingency floors at zero, ceiling still holds.
	b = models.CostBreakdown{SeverityScore: 0.2, TotalCost: 700000, Contingency: 50000}
	ApplySeverityCap(&b)
	if b.TotalCost != MinimalDamageCap {
		t.Fatalf("total = %f, want ceiling %f even when the subtotal exceeds it", b.TotalCost, MinimalDamageCap)
	}
	if b.Contingency != 0 {
		t.Fatalf("contingency = %f, want 0", b.Contingency)
	}
}

func TestApplySeverityCapNoOpAboveModerate(t *testing.T) {
	b := models.CostBreakdown{SeverityScore: 0.8, TotalCost: 9000000, Contingency: 1000000}
	ApplySeverityCap(&b)
	if b.TotalCost != 9000000 {
		t.Fatalf("high severity must not be capped, got %f", b.TotalCost)
	}
}
