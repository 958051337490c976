package cost

import "github.com/dasper/backend/internal/models"

// Severity-tier ceilings in PKR. A business-policy override on top of the
// multiplicative model: low-severity damage cannot produce arbitrarily large
// totals regardless of building size or region.
const (
	MinimalDamageCap  = 500000.0
	ModerateDamageCap = 2000000.0
)

// ApplySeverityCap clamps the total to the severity tier's ceiling and
// recomputes contingency to keep total == subtotal + contingency where it
// can. Contingency never goes below zero; when the component subtotal alone
// exceeds the ceiling the total is still held at the ceiling, so the sum
// identity yields to the cap in that corner.
func ApplySeverityCap(b *models.CostBreakdown) {
	var ceiling float64
	switch {
	case b.SeverityScore <= 0.25:
		ceiling = MinimalDamageCap
	case b.SeverityScore <= 0.5:
		ceiling = ModerateDamageCap
	default:
		return
	}
	if b.TotalCost <= ceiling {
		return
	}

	subtotal := b.TotalCost - b.Contingency
	contingency := ceiling - subtotal
	if contingency < 0 {
		contingency = 0
	}
	b.Contingency = round2(contingency)
	b.TotalCost = ceiling
}
