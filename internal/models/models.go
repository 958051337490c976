package models

import "time"

// BuildingType is the coarse structural classification used by the cost
// tables. Unrecognized values resolve to Residential.
type BuildingType string

const (
	Residential BuildingType = "residential"
	Commercial  BuildingType = "commercial"
	Industrial  BuildingType = "industrial"
)

// ResolveBuildingType maps free-form input onto a known building type.
func ResolveBuildingType(s string) BuildingType {
	switch BuildingType(s) {
	case Commercial:
		return Commercial
	case Industrial:
		return Industrial
	default:
		return Residential
	}
}

// SeverityCategory buckets a continuous severity score.
type SeverityCategory string

const (
	SeverityMinimal     SeverityCategory = "minimal"
	SeverityModerate    SeverityCategory = "moderate"
	SeveritySevere      SeverityCategory = "severe"
	SeverityDestructive SeverityCategory = "destructive"
)

// CategorizeSeverity converts a score in [0,1] to a category. Thresholds are
// closed on the lower bound: score <= 0.25 is minimal.
func CategorizeSeverity(score float64) SeverityCategory {
	switch {
	case score <= 0.25:
		return SeverityMinimal
	case score <= 0.5:
		return SeverityModerate
	case score <= 0.75:
		return SeveritySevere
	default:
		return SeverityDestructive
	}
}

// SeverityAssessment is the vision model's output for one image.
type SeverityAssessment struct {
	Score      float64          `json:"severity_score"`
	Category   SeverityCategory `json:"severity_category"`
	Confidence float64          `json:"confidence"`
	ModelName  string           `json:"model_name,omitempty"`
}

// EstimationMethod tags how a GeometryEstimate was produced.
type EstimationMethod string

const (
	MethodMultiFusion     EstimationMethod = "multi_method_fusion"
	MethodDefaultFallback EstimationMethod = "default_fallback"
	MethodErrorFallback   EstimationMethod = "error_fallback"
)

// GeometryEstimate is a fused estimate of one physical quantity (area in
// square meters or height in meters). Contributing holds per-method raw
// values; abstaining methods are recorded as 0.
type GeometryEstimate struct {
	Value        float64            `json:"value"`
	Confidence   float64            `json:"confidence"`
	Method       EstimationMethod   `json:"method"`
	Contributing map[string]float64 `json:"individual_estimates"`
	Bounds       Bounds             `json:"bounds"`
}

// Bounds is a {min, max} pair from the type/region default tables.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// RegionalCostProfile carries the per-region inputs of the regional cost
// multiplier. Weights are nominally centered at 1.
type RegionalCostProfile struct {
	Region           string  `json:"region" bson:"region_name" validate:"required"`
	City             string  `json:"city" bson:"city"`
	Construction     float64 `json:"construction" bson:"construction" validate:"gt=0,lte=2"`
	Materials        float64 `json:"materials" bson:"materials" validate:"gt=0,lte=2"`
	Labor            float64 `json:"labor" bson:"labor" validate:"gt=0,lte=2"`
	Currency         string  `json:"currency" bson:"currency"`
	ExchangeRate     float64 `json:"exchange_rate" bson:"exchange_rate"`
	InflationFactor  float64 `json:"inflation_factor" bson:"inflation_factor" validate:"gt=0"`
	MarketVolatility float64 `json:"market_volatility" bson:"market_volatility" validate:"gte=0,lte=1"`
	EmergencyPremium float64 `json:"emergency_premium" bson:"emergency_premium"`
}

// CalculationMethod records the unit basis a CostBreakdown was computed on.
type CalculationMethod string

const (
	VolumeBased  CalculationMethod = "volume_based"
	AreaBased    CalculationMethod = "area_based"
	FallbackCalc CalculationMethod = "fallback"
)

// CostBreakdown is the cost engine's output. TotalCost = subtotal of the
// component costs (contingency excluded) + contingency.
type CostBreakdown struct {
	Structural        float64 `json:"structural_cost"`
	NonStructural     float64 `json:"non_structural_cost"`
	Content           float64 `json:"content_cost"`
	Demolition        float64 `json:"demolition_cost"`
	ProfessionalFees  float64 `json:"professional_fees"`
	PermitCosts       float64 `json:"permit_costs"`
	EmergencyResponse float64 `json:"emergency_response_cost"`
	Labor             float64 `json:"labor_cost"`
	Material          float64 `json:"material_cost"`
	Equipment         float64 `json:"equipment_cost"`
	Contingency       float64 `json:"contingency"`

	TotalCost     float64 `json:"total_estimated_cost"`
	CostRangeLow  float64 `json:"cost_range_low"`
	CostRangeHigh float64 `json:"cost_range_high"`

	RepairTimeDays int `json:"repair_time_days"`

	SeverityScore      float64           `json:"severity_score"`
	DamageRatio        float64           `json:"damage_ratio"`
	RegionalMultiplier float64           `json:"regional_multiplier"`
	DamageMultiplier   float64           `json:"damage_multiplier"`
	ConfidenceScore    float64           `json:"confidence_score"`
	CalculationMethod  CalculationMethod `json:"calculation_method"`

	Dimensions BuildingDimensions `json:"building_dimensions"`

	FallbackUsed bool      `json:"fallback_used,omitempty"`
	Error        string    `json:"error,omitempty"`
	CalculatedAt time.Time `json:"calculation_timestamp"`
}

// BuildingDimensions echoes the geometry the breakdown was computed from.
// Height and volume are zero when the area basis was used.
type BuildingDimensions struct {
	AreaSqm      float64 `json:"area_sqm"`
	HeightM      float64 `json:"height_m,omitempty"`
	VolumeCubicM float64 `json:"volume_cubic_m,omitempty"`
}

// LocationHint narrows region typing for the default lookup tables.
// RegionType is one of urban/rural/sez when set; otherwise City is matched.
type LocationHint struct {
	RegionType string  `json:"region_type,omitempty"`
	City       string  `json:"city,omitempty"`
	Lat        float64 `json:"lat,omitempty"`
	Lon        float64 `json:"lon,omitempty"`
	HasPin     bool    `json:"-"`
}

// AssessmentResult is the combined output of one assessment request.
type AssessmentResult struct {
	Severity SeverityAssessment `json:"damage_assessment"`
	Area     GeometryEstimate   `json:"area_analysis"`
	Height   GeometryEstimate   `json:"height_analysis"`
	Volume   VolumeAnalysis     `json:"volume_analysis"`
	Cost     CostBreakdown      `json:"cost_estimation"`

	BuildingType BuildingType `json:"building_type"`
	RegionType   string       `json:"region_type"`
	AssessedAt   time.Time    `json:"assessed_at"`
}

// VolumeAnalysis is the derived height*area volume with averaged confidence.
type VolumeAnalysis struct {
	VolumeCubicM float64 `json:"estimated_volume_cubic_m"`
	HeightM      float64 `json:"height_m"`
	AreaSqm      float64 `json:"area_sqm"`
	Confidence   float64 `json:"confidence"`
}
