package severity

import (
	"context"
	"image"

	"github.com/dasper/backend/internal/models"
)

// Model scores the structural damage visible in one building photo.
type Model interface {
	Predict(ctx context.Context, img image.Image) (models.SeverityAssessment, error)
	Name() string
}
