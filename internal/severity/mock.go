package severity

import (
	"context"
	"image"

	"github.com/dasper/backend/internal/models"
)

// Static is a fixed-output model for tests and local development.
type Static struct {
	Score      float64
	Confidence float64
	Err        error
}

func (s Static) Predict(ctx context.Context, img image.Image) (models.SeverityAssessment, error) {
	if s.Err != nil {
		return models.SeverityAssessment{}, s.Err
	}
	return models.SeverityAssessment{
		Score:      s.Score,
		Category:   models.CategorizeSeverity(s.Score),
		Confidence: s.Confidence,
		ModelName:  s.Name(),
	}, nil
}

func (s Static) Name() string { return "static" }
