package severity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/dasper/backend/internal/models"
)

// HTTPModel delegates scoring to a remote inference service. The image is
// re-encoded as JPEG and posted to BaseURL/predict.
type HTTPModel struct {
	BaseURL string
	Client  *http.Client
}

type httpResponse struct {
	SeverityScore float64 `json:"severity_score"`
	Confidence    float64 `json:"confidence"`
	ModelVersion  string  `json:"model_version"`
}

func (h HTTPModel) Name() string { return "remote" }

func (h HTTPModel) Predict(ctx context.Context, img image.Image) (models.SeverityAssessment, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 15 * time.Second}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return models.SeverityAssessment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/predict", &buf)
	if err != nil {
		return models.SeverityAssessment{}, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := h.Client.Do(req)
	if err != nil {
		return models.SeverityAssessment{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.SeverityAssessment{}, errors.New("severity service error")
	}

	var r httpResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return models.SeverityAssessment{}, err
	}

	name := h.Name()
	if r.ModelVersion != "" {
		name = r.ModelVersion
	}
	return models.SeverityAssessment{
		Score:      r.SeverityScore,
		Category:   models.CategorizeSeverity(r.SeverityScore),
		Confidence: r.Confidence,
		ModelName:  name,
	}, nil
}
