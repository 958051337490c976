package assess

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dasper/backend/internal/cost"
	"github.com/dasper/backend/internal/estimate"
	"github.com/dasper/backend/internal/manager"
	"github.com/dasper/backend/internal/models"
	"github.com/dasper/backend/internal/regional"
	"github.com/dasper/backend/internal/severity"
)

func testPipeline(t *testing.T, model severity.Model) *Pipeline {
	t.Helper()
	m := manager.New(manager.Config{
		IdleTimeout:     time.Hour,
		MonitorInterval: time.Hour,
		Logger:          zerolog.Nop(),
	})
	t.Cleanup(m.Shutdown)
	// Point the manager at a fixed bundle instead of a checkpoint file.
	m.SetLoader(func(ctx context.Context) (*manager.Bundle, error) {
		return &manager.Bundle{
			Severity: model,
			Analyzer: &estimate.BuildingAnalyzer{Logger: zerolog.Nop()},
			Cost:     cost.NewEstimator(zerolog.Nop()),
		}, nil
	})
	return &Pipeline{Models: m, Regions: regional.NewStaticStore(), Logger: zerolog.Nop()}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 120, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 120; x++ {
			c := color.RGBA{R: 150, G: 150, B: 150, A: 255}
			if y%15 == 0 {
				c = color.RGBA{R: 30, G: 30, B: 30, A: 255}
			}
			img.Set(x, y, c)
		}
	}
	return img
}

func TestAssessEndToEnd(t *testing.T) {
	p := testPipeline(t, severity.Static{Score: 0.6, Confidence: 0.9})

	res, err := p.Assess(context.Background(), testImage(), Request{
		BuildingType: "residential",
		DamageTypes:  []string{"cracks", "fire"},
		Location:     &models.LocationHint{City: "Karachi"},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}

	if res.Severity.Category != models.SeveritySevere {
		t.Fatalf("category = %s, want severe at score 0.6", res.Severity.Category)
	}
	if res.Cost.TotalCost <= 0 {
		t.Fatalf("total cost = %f, want > 0", res.Cost.TotalCost)
	}
	if res.Cost.DamageRatio != res.Severity.Score {
		t.Fatalf("damage ratio %f should mirror severity %f", res.Cost.DamageRatio, res.Severity.Score)
	}
	if res.RegionType != estimate.RegionUrban {
		t.Fatalf("region = %s, want urban for Karachi", res.RegionType)
	}
	if res.Volume.VolumeCubicM <= 0 {
		t.Fatal("volume analysis missing")
	}
	if res.AssessedAt.IsZero() {
		t.Fatal("assessed_at not set")
	}
}

func TestAssessSeverityErrorPropagates(t *testing.T) {
	p := testPipeline(t, severity.Static{Err: errors.New("model exploded")})

	if _, err := p.Assess(context.Background(), testImage(), Request{}); err == nil {
		t.Fatal("severity failure should propagate")
	}
}

func TestAssessUnknownCityUsesDefaultProfile(t *testing.T) {
	p := testPipeline(t, severity.Static{Score: 0.3, Confidence: 0.8})

	res, err := p.Assess(context.Background(), testImage(), Request{
		Location: &models.LocationHint{City: "Atlantis"},
	})
	if err != nil {
		t.Fatalf("assess: %v", err)
	}
	if res.Cost.FallbackUsed {
		t.Fatalf("default profile should not trigger cost fallback: %s", res.Cost.Error)
	}
}
