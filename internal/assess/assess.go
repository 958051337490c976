package assess

import (
	"context"
	"image"
	"time"

	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/cost"
	"github.com/dasper/backend/internal/estimate"
	"github.com/dasper/backend/internal/geocode"
	"github.com/dasper/backend/internal/manager"
	"github.com/dasper/backend/internal/models"
	"github.com/dasper/backend/internal/regional"
)

// Request carries the caller-supplied context for one assessment.
type Request struct {
	BuildingType string
	DamageTypes  []string
	Location     *models.LocationHint
}

// Pipeline runs one photo through severity scoring, geometry estimation and
// cost estimation against a checked-out model bundle.
type Pipeline struct {
	Models   *manager.Manager
	Regions  regional.Store
	Geocoder geocode.Geocoder
	Logger   zerolog.Logger
}

// Assess produces the combined result. The only hard failure is a model
// load failure; estimator and cost problems degrade inside their engines.
func (p *Pipeline) Assess(ctx context.Context, img image.Image, req Request) (models.AssessmentResult, error) {
	handle, err := p.Models.Checkout(ctx)
	if err != nil {
		return models.AssessmentResult{}, err
	}
	defer handle.Release()
	bundle := handle.Bundle()

	bt := models.ResolveBuildingType(req.BuildingType)
	if loc := req.Location; loc != nil && loc.HasPin && loc.City == "" && p.Geocoder != nil {
		if city, err := p.Geocoder.ReverseCity(ctx, loc.Lat, loc.Lon); err == nil {
			loc.City = city
		}
	}
	region := estimate.RegionType(req.Location)

	sev, err := bundle.Severity.Predict(ctx, img)
	if err != nil {
		return models.AssessmentResult{}, err
	}

	area, height, volume := bundle.Analyzer.Analyze(ctx, img, bt, req.Location)

	city := ""
	if req.Location != nil {
		city = req.Location.City
	}
	profile, err := p.Regions.Profile(ctx, city)
	if err != nil {
		p.Logger.Warn().Err(err).Str("city", city).Msg("regional profile lookup failed")
		profile = regional.DefaultProfile
	}

	breakdown := bundle.Cost.Estimate(cost.Input{
		SeverityScore: sev.Score,
		DamageRatio:   sev.Score,
		AreaSqm:       area.Value,
		HeightM:       height.Value,
		VolumeCubicM:  volume.VolumeCubicM,
		BuildingType:  bt,
		Profile:       profile,
		DamageTypes:   req.DamageTypes,
		Confidence:    volume.Confidence,
	})

	p.Logger.Info().
		Float64("severity", sev.Score).
		Str("category", string(sev.Category)).
		Float64("total_cost", breakdown.TotalCost).
		Str("building_type", string(bt)).
		Msg("assessment complete")

	return models.AssessmentResult{
		Severity:     sev,
		Area:         area,
		Height:       height,
		Volume:       volume,
		Cost:         breakdown,
		BuildingType: bt,
		RegionType:   region,
		AssessedAt:   time.Now().UTC(),
	}, nil
}
