package cost

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/models"
)

// unitRange is a {min, max} unit cost in PKR per square or cubic meter.
type unitRange struct {
	Min, Max float64
}

type componentRates struct {
	Structural    unitRange
	NonStructural unitRange
	Content       unitRange
}

// Per-square-meter rates by building type.
var areaRates = map[models.BuildingType]componentRates{
	models.Residential: {
		Structural:    unitRange{5000, 15000},
		NonStructural: unitRange{2500, 7500},
		Content:       unitRange{1000, 3000},
	},
	models.Commercial: {
		Structural:    unitRange{8000, 24000},
		NonStructural: unitRange{4000, 12000},
		Content:       unitRange{2000, 6000},
	},
	models.Industrial: {
		Structural:    unitRange{6000, 18000},
		NonStructural: unitRange{3000, 9000},
		Content:       unitRange{1500, 4500},
	},
}

// Per-cubic-meter rates by building type.
var volumeRates = map[models.BuildingType]componentRates{
	models.Residential: {
		Structural:    unitRange{4200, 33600},
		NonStructural: unitRange{2240, 16800},
		Content:       unitRange{1400, 8400},
	},
	models.Commercial: {
		Structural:    unitRange{5600, 50400},
		NonStructural: unitRange{3360, 25200},
		Content:       unitRange{1680, 12600},
	},
	models.Industrial: {
		Structural:    unitRange{7000, 63000},
		NonStructural: unitRange{4200, 31360},
		Content:       unitRange{2520, 16800},
	},
}

// Damage-type keyword multipliers; the maximum matching entry wins.
var damageTypeMultipliers = map[string]float64{
	"collapse":   1.4,
	"earthquake": 1.3,
	"fire":       1.2,
	"structural": 1.1,
	"flood":      1.1,
	"settlement": 1.1,
	"water":      1.1,
	"wind":       1.05,
	"cracks":     1.02,
}

// Base repair days per severity category before damage-type scaling.
var repairBaseDays = map[models.SeverityCategory]int{
	models.SeverityMinimal:     7,
	models.SeverityModerate:    30,
	models.SeveritySevere:      90,
	models.SeverityDestructive: 180,
}

// Input collects everything one cost estimate depends on. Volume is used when
// positive, otherwise derived from area and height, otherwise the estimate
// falls back to the per-square-meter basis.
type Input struct {
	SeverityScore float64
	DamageRatio   float64
	AreaSqm       float64
	HeightM       float64
	VolumeCubicM  float64
	BuildingType  models.BuildingType
	Profile       models.RegionalCostProfile
	DamageTypes   []string
	Confidence    float64
}

// Estimator is the deterministic cost engine. Estimate never returns an
// error: anything that goes wrong degrades to the linear fallback breakdown.
type Estimator struct {
	Logger   zerolog.Logger
	Validate *validator.Validate

	now func() time.Time
}

func NewEstimator(logger zerolog.Logger) *Estimator {
	return &Estimator{
		Logger:   logger,
		Validate: validator.New(),
		now:      time.Now,
	}
}

// Estimate computes a full cost breakdown. Pure given its input and the
// current clock; identical inputs produce identical numbers.
func (e *Estimator) Estimate(in Input) (out models.CostBreakdown) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Error().Interface("panic", r).Msg("cost estimate panicked, using fallback")
			out = e.fallback(in, fmt.Sprintf("cost computation failed: %v", r))
		}
	}()

	if in.AreaSqm <= 0 {
		return e.fallback(in, "building area must be positive")
	}
	if e.Validate != nil {
		if err := e.Validate.Struct(in.Profile); err != nil {
			return e.fallback(in, fmt.Sprintf("invalid regional profile: %v", err))
		}
	}

	severity := clamp01(in.SeverityScore)
	damage := clamp01(in.DamageRatio)
	confidence := clamp01(in.Confidence)
	bt := in.BuildingType
	if _, ok := areaRates[bt]; !ok {
		bt = models.Residential
	}

	volume := in.VolumeCubicM
	if volume <= 0 && in.HeightM > 0 {
		volume = in.AreaSqm * in.HeightM
	}

	var (
		rates    componentRates
		quantity float64
		method   models.CalculationMethod
	)
	if volume > 0 {
		rates, quantity, method = volumeRates[bt], volume, models.VolumeBased
	} else {
		rates, quantity, method = areaRates[bt], in.AreaSqm, models.AreaBased
	}

	regionalMult := RegionalMultiplier(in.Profile)
	damageMult := DamageMultiplier(in.DamageTypes)

	// Secondary systems degrade less than primary structure at the same
	// overall severity, hence the dampened inputs.
	structural := componentCost(rates.Structural, quantity, severity, damage)
	nonStructural := componentCost(rates.NonStructural, quantity, severity*0.8, damage*0.7)
	content := componentCost(rates.Content, quantity, severity*0.6, damage*0.5)

	structural *= regionalMult
	nonStructural *= regionalMult
	content *= regionalMult

	structural *= damageMult
	nonStructural *= 1 + (damageMult-1)*0.8
	content *= 1 + (damageMult-1)*0.6

	var demolition float64
	if severity > 0.75 {
		if method == models.VolumeBased {
			demolition = volume * 8 * regionalMult
		} else {
			demolition = in.AreaSqm * 50 * regionalMult
		}
	}

	core := structural + nonStructural + content
	professional := core * 0.15
	permits := core * 0.05
	var emergency float64
	if severity > 0.5 {
		emergency = core * 0.10
	}
	equipment := (structural + nonStructural) * 0.10

	subtotal := core + demolition + professional + permits + emergency + equipment

	uncertainty := (1 - confidence) * 0.4
	contingency := subtotal * (0.1 + uncertainty)
	total := subtotal + contingency

	breakdown := models.CostBreakdown{
		Structural:        round2(structural),
		NonStructural:     round2(nonStructural),
		Content:           round2(content),
		Demolition:        round2(demolition),
		ProfessionalFees:  round2(professional),
		PermitCosts:       round2(permits),
		EmergencyResponse: round2(emergency),
		Equipment:         round2(equipment),
		Labor:             round2((structural + nonStructural) * 0.4),
		Material:          round2((structural + nonStructural) * 0.6),
		Contingency:       round2(contingency),
		TotalCost:         round2(total),

		SeverityScore:      severity,
		DamageRatio:        damage,
		RegionalMultiplier: round2(regionalMult),
		DamageMultiplier:   damageMult,
		ConfidenceScore:    confidence,
		CalculationMethod:  method,
		CalculatedAt:       e.timestamp(),
	}

	breakdown.Dimensions = models.BuildingDimensions{AreaSqm: in.AreaSqm}
	if method == models.VolumeBased {
		breakdown.Dimensions.HeightM = in.HeightM
		breakdown.Dimensions.VolumeCubicM = round2(volume)
	}

	ApplySeverityCap(&breakdown)

	breakdown.CostRangeLow = round2(breakdown.TotalCost * (1 - uncertainty))
	breakdown.CostRangeHigh = round2(breakdown.TotalCost * (1 + uncertainty))
	breakdown.RepairTimeDays = repairDays(severity, damageMult)

	e.Logger.Debug().
		Float64("total", breakdown.TotalCost).
		Str("method", string(method)).
		Float64("regional_multiplier", regionalMult).
		Msg("cost estimate")
	return breakdown
}

// componentCost interpolates the unit rate by the blended severity/damage
// factor and scales by quantity.
func componentCost(r unitRange, quantity, severity, damage float64) float64 {
	severityFactor := math.Pow(severity, 1.5)
	damageFactor := math.Pow(damage, 1.3)
	costFactor := (severityFactor + damageFactor) / 2
	unit := r.Min + (r.Max-r.Min)*costFactor
	return unit * quantity
}

// RegionalMultiplier combines a profile's factor weights with inflation and
// volatility scaling.
func RegionalMultiplier(p models.RegionalCostProfile) float64 {
	base := p.Construction*0.3 + p.Materials*0.5 + p.Labor*0.2
	return base * p.InflationFactor * (1 + p.MarketVolatility*0.5)
}

// DamageMultiplier returns the largest multiplier whose keyword appears in
// any of the supplied damage types, or 1.0 when none match.
func DamageMultiplier(damageTypes []string) float64 {
	mult := 1.0
	for _, dt := range damageTypes {
		lower := strings.ToLower(dt)
		for keyword, m := range damageTypeMultipliers {
			if strings.Contains(lower, keyword) && m > mult {
				mult = m
			}
		}
	}
	return mult
}

func repairDays(severity, damageMult float64) int {
	base := repairBaseDays[models.CategorizeSeverity(severity)]
	return int(float64(base) * (1 + damageMult*0.2))
}

// fallback is the linear formula used when the main computation cannot run.
// The fixed splits keep total == subtotal + contingency.
func (e *Estimator) fallback(in Input, errMsg string) models.CostBreakdown {
	area := in.AreaSqm
	if area <= 0 {
		area = 100
	}
	severity := clamp01(in.SeverityScore)
	base := area * 500 * severity

	b := models.CostBreakdown{
		Structural:       round2(base * 0.5),
		NonStructural:    round2(base * 0.3),
		Content:          round2(base * 0.1),
		ProfessionalFees: round2(base * 0.15),
		PermitCosts:      round2(base * 0.05),
		Equipment:        round2(base * 0.1),
		Labor:            round2(base * 0.8 * 0.4),
		Material:         round2(base * 0.8 * 0.6),
		Contingency:      round2(base * 0.2),
		TotalCost:        round2(base * 1.4),
		CostRangeLow:     round2(base * 1.2),
		CostRangeHigh:    round2(base * 1.6),

		RepairTimeDays: 60,

		SeverityScore:      severity,
		DamageRatio:        clamp01(in.DamageRatio),
		RegionalMultiplier: 1,
		DamageMultiplier:   1,
		ConfidenceScore:    clamp01(in.Confidence),
		CalculationMethod:  models.FallbackCalc,

		FallbackUsed: true,
		Error:        errMsg,
		CalculatedAt: e.timestamp(),
	}
	b.Dimensions = models.BuildingDimensions{AreaSqm: area}
	return b
}

func (e *Estimator) timestamp() time.Time {
	if e.now != nil {
		return e.now().UTC()
	}
	return time.Now().UTC()
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
