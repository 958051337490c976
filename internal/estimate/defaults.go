package estimate

import (
	"strings"

	"github.com/dasper/backend/internal/models"
)

// Region types used by the default lookup tables.
const (
	RegionUrban   = "Pakistan_Urban"
	RegionRural   = "Pakistan_Rural"
	RegionSEZ     = "Pakistan_SEZ"
	RegionDefault = "default"
)

// typeDefaults is a {min, avg, max} triple for one building type in one region.
type typeDefaults struct {
	Min, Avg, Max float64
}

var areaDefaults = map[models.BuildingType]map[string]typeDefaults{
	models.Residential: {
		RegionUrban:   {80, 150, 2000},
		RegionRural:   {60, 120, 1500},
		RegionSEZ:     {100, 200, 2500},
		RegionDefault: {100, 200, 2000},
	},
	models.Commercial: {
		RegionUrban:   {200, 500, 5000},
		RegionRural:   {100, 300, 3000},
		RegionSEZ:     {300, 800, 6000},
		RegionDefault: {300, 800, 5000},
	},
	models.Industrial: {
		RegionUrban:   {500, 1500, 10000},
		RegionRural:   {300, 800, 5000},
		RegionSEZ:     {800, 2000, 12000},
		RegionDefault: {1000, 2500, 10000},
	},
}

var heightDefaults = map[models.BuildingType]map[string]typeDefaults{
	models.Residential: {
		RegionUrban:   {3.0, 8.0, 30.0},
		RegionRural:   {2.5, 5.0, 20.0},
		RegionSEZ:     {4.0, 10.0, 35.0},
		RegionDefault: {3.0, 8.0, 30.0},
	},
	models.Commercial: {
		RegionUrban:   {4.0, 15.0, 80.0},
		RegionRural:   {3.0, 10.0, 40.0},
		RegionSEZ:     {6.0, 20.0, 100.0},
		RegionDefault: {4.0, 15.0, 80.0},
	},
	models.Industrial: {
		RegionUrban:   {6.0, 18.0, 60.0},
		RegionRural:   {4.0, 12.0, 40.0},
		RegionSEZ:     {8.0, 22.0, 80.0},
		RegionDefault: {6.0, 18.0, 60.0},
	},
}

var urbanCities = []string{"karachi", "lahore", "islamabad", "rawalpindi"}

// RegionType resolves a location hint to a region key for the default tables.
func RegionType(loc *models.LocationHint) string {
	if loc == nil {
		return RegionDefault
	}
	switch strings.ToLower(strings.TrimSpace(loc.RegionType)) {
	case "urban":
		return RegionUrban
	case "rural":
		return RegionRural
	case "sez":
		return RegionSEZ
	}
	city := strings.ToLower(loc.City)
	for _, u := range urbanCities {
		if strings.Contains(city, u) {
			return RegionUrban
		}
	}
	return RegionRural
}

// AreaDefaults returns the {min, avg, max} area table entry for a building
// type and region. Unknown building types fall back to residential, unknown
// regions to the type's default row.
func AreaDefaults(bt models.BuildingType, region string) typeDefaults {
	return lookupDefaults(areaDefaults, bt, region)
}

// HeightDefaults is the height counterpart of AreaDefaults.
func HeightDefaults(bt models.BuildingType, region string) typeDefaults {
	return lookupDefaults(heightDefaults, bt, region)
}

func lookupDefaults(table map[models.BuildingType]map[string]typeDefaults, bt models.BuildingType, region string) typeDefaults {
	byRegion, ok := table[bt]
	if !ok {
		byRegion = table[models.Residential]
	}
	if d, ok := byRegion[region]; ok {
		return d
	}
	return byRegion[RegionDefault]
}
