package severity

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"math"
	"os"

	"github.com/dasper/backend/internal/estimate"
	"github.com/dasper/backend/internal/models"
)

// checkpoint is the on-disk JSON format of a trained severity head: a linear
// calibration over frame statistics.
type checkpoint struct {
	ModelName  string             `json:"model_name"`
	Version    string             `json:"version"`
	Bias       float64            `json:"bias"`
	Weights    map[string]float64 `json:"weights"`
	Confidence float64            `json:"confidence"`
}

// CheckpointModel scores damage with calibration weights loaded from a
// checkpoint file. Loading is the expensive step; Predict itself only runs
// the per-image feature passes.
type CheckpointModel struct {
	ckpt checkpoint
}

// LoadCheckpointModel reads and validates a checkpoint. Any failure here
// propagates to the caller so a broken model file is caught at load time,
// not mid-request.
func LoadCheckpointModel(path string) (*CheckpointModel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read severity checkpoint: %w", err)
	}
	var c checkpoint
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse severity checkpoint %s: %w", path, err)
	}
	if len(c.Weights) == 0 {
		return nil, fmt.Errorf("severity checkpoint %s has no weights", path)
	}
	if c.Confidence <= 0 || c.Confidence > 1 {
		c.Confidence = 0.8
	}
	if c.ModelName == "" {
		c.ModelName = "damagenet"
	}
	return &CheckpointModel{ckpt: c}, nil
}

func (m *CheckpointModel) Name() string { return m.ckpt.ModelName }

// Predict computes frame statistics and applies the calibration. The score
// is clamped to [0,1] before categorization.
func (m *CheckpointModel) Predict(ctx context.Context, img image.Image) (models.SeverityAssessment, error) {
	if err := ctx.Err(); err != nil {
		return models.SeverityAssessment{}, err
	}
	if img == nil {
		return models.SeverityAssessment{}, fmt.Errorf("severity predict: nil image")
	}

	f := estimate.NewFrame(img)
	features := map[string]float64{
		"mean_luma":    f.MeanLuma() / 255,
		"edge_density": f.EdgeDensity(),
		"dark_ratio":   f.DarkRatio(),
		"texture":      f.TextureScore(),
	}

	score := m.ckpt.Bias
	for name, w := range m.ckpt.Weights {
		score += w * features[name]
	}
	score = math.Min(math.Max(score, 0), 1)

	return models.SeverityAssessment{
		Score:      score,
		Category:   models.CategorizeSeverity(score),
		Confidence: m.ckpt.Confidence,
		ModelName:  m.ckpt.ModelName,
	}, nil
}
