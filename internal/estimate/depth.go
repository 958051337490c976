package estimate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"net/http"
	"time"
)

// HTTPDepthEstimator queries a remote monocular depth service. Satisfies
// DepthEstimator; callers treat failures as abstentions.
type HTTPDepthEstimator struct {
	BaseURL string
	Client  *http.Client
}

type depthResponse struct {
	MinDepth float64 `json:"min_depth"`
	MaxDepth float64 `json:"max_depth"`
}

func (h *HTTPDepthEstimator) DepthRange(ctx context.Context, img image.Image) (float64, float64, error) {
	if h.Client == nil {
		h.Client = &http.Client{Timeout: 20 * time.Second}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return 0, 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.BaseURL+"/depth", &buf)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := h.Client.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, 0, errors.New("depth service error")
	}

	var r depthResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return 0, 0, err
	}
	if r.MaxDepth <= r.MinDepth {
		return 0, 0, errors.New("depth service returned an empty range")
	}
	return r.MinDepth, r.MaxDepth, nil
}
