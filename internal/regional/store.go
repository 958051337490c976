package regional

import (
	"context"
	"strings"

	"github.com/dasper/backend/internal/models"
)

// Store resolves a city or region name to its cost profile. Implementations
// must always return a usable profile; lookups that find nothing fall back to
// the national default.
type Store interface {
	Profile(ctx context.Context, city string) (models.RegionalCostProfile, error)
	List(ctx context.Context) ([]models.RegionalCostProfile, error)
}

// DefaultProfile is the national baseline used when a city has no entry.
var DefaultProfile = models.RegionalCostProfile{
	Region:           "Pakistan",
	City:             "",
	Construction:     1.0,
	Materials:        1.0,
	Labor:            1.0,
	Currency:         "PKR",
	ExchangeRate:     280,
	InflationFactor:  1.05,
	MarketVolatility: 0.08,
	EmergencyPremium: 1.25,
}

// Reference table for major Pakistani cities. Factor weights are relative to
// the Multan baseline; inflation and volatility come from provincial market
// surveys.
var pakistanProfiles = []models.RegionalCostProfile{
	{Region: "Sindh", City: "Karachi", Construction: 1.25, Materials: 1.20, Labor: 1.25, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.15, MarketVolatility: 0.08, EmergencyPremium: 1.30},
	{Region: "Punjab", City: "Lahore", Construction: 1.15, Materials: 1.12, Labor: 1.15, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.12, MarketVolatility: 0.06, EmergencyPremium: 1.25},
	{Region: "Federal", City: "Islamabad", Construction: 1.30, Materials: 1.25, Labor: 1.30, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.18, MarketVolatility: 0.05, EmergencyPremium: 1.30},
	{Region: "Punjab", City: "Rawalpindi", Construction: 1.10, Materials: 1.08, Labor: 1.10, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.08, MarketVolatility: 0.07, EmergencyPremium: 1.25},
	{Region: "Punjab", City: "Faisalabad", Construction: 1.05, Materials: 1.04, Labor: 1.05, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.05, MarketVolatility: 0.09, EmergencyPremium: 1.20},
	{Region: "Punjab", City: "Multan", Construction: 1.00, Materials: 1.00, Labor: 1.00, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.02, MarketVolatility: 0.06, EmergencyPremium: 1.20},
	{Region: "Khyber Pakhtunkhwa", City: "Peshawar", Construction: 1.03, Materials: 1.05, Labor: 1.03, Currency: "PKR", ExchangeRate: 280, InflationFactor: 1.03, MarketVolatility: 0.08, EmergencyPremium: 1.25},
	{Region: "Balochistan", City: "Quetta", Construction: 0.95, Materials: 1.08, Labor: 0.95, Currency: "PKR", ExchangeRate: 280, InflationFactor: 0.98, MarketVolatility: 0.12, EmergencyPremium: 1.35},
}

// StaticStore serves the built-in reference table. It backs the Mongo store
// as its fallback and stands alone when no database is configured.
type StaticStore struct{}

func NewStaticStore() *StaticStore { return &StaticStore{} }

func (s *StaticStore) Profile(ctx context.Context, city string) (models.RegionalCostProfile, error) {
	needle := strings.ToLower(strings.TrimSpace(city))
	if needle == "" {
		return DefaultProfile, nil
	}
	for _, p := range pakistanProfiles {
		if strings.Contains(needle, strings.ToLower(p.City)) || strings.EqualFold(p.Region, city) {
			return p, nil
		}
	}
	return DefaultProfile, nil
}

func (s *StaticStore) List(ctx context.Context) ([]models.RegionalCostProfile, error) {
	out := make([]models.RegionalCostProfile, len(pakistanProfiles))
	copy(out, pakistanProfiles)
	return out, nil
}
