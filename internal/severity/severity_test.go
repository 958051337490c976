package severity

import (
	"context"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dasper/backend/internal/models"
)

func writeCheckpoint(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write checkpoint: %v", err)
	}
	return path
}

func grayImage(w, h int, level uint8) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: level, G: level, B: level, A: 255})
		}
	}
	return img
}

func TestLoadCheckpointModel(t *testing.T) {
	path := writeCheckpoint(t, `{
		"model_name": "damagenet_best",
		"bias": 0.2,
		"weights": {"dark_ratio": 0.8, "edge_density": 0.5},
		"confidence": 0.85
	}`)
	m, err := LoadCheckpointModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Name() != "damagenet_best" {
		t.Fatalf("name = %s, want damagenet_best", m.Name())
	}

	a, err := m.Predict(context.Background(), grayImage(40, 40, 150))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a.Score < 0 || a.Score > 1 {
		t.Fatalf("score %f outside [0,1]", a.Score)
	}
	if a.Confidence != 0.85 {
		t.Fatalf("confidence = %f, want 0.85", a.Confidence)
	}
	if a.Category != models.CategorizeSeverity(a.Score) {
		t.Fatalf("category %s inconsistent with score %f", a.Category, a.Score)
	}
}

func TestLoadCheckpointModelErrors(t *testing.T) {
	if _, err := LoadCheckpointModel(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatal("missing file should fail")
	}
	if _, err := LoadCheckpointModel(writeCheckpoint(t, "{broken")); err == nil {
		t.Fatal("malformed JSON should fail")
	}
	if _, err := LoadCheckpointModel(writeCheckpoint(t, `{"bias": 0.5}`)); err == nil {
		t.Fatal("checkpoint without weights should fail")
	}
}

func TestCheckpointModelClampsScore(t *testing.T) {
	path := writeCheckpoint(t, `{"bias": 5.0, "weights": {"mean_luma": 10.0}}`)
	m, err := LoadCheckpointModel(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a, err := m.Predict(context.Background(), grayImage(20, 20, 255))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a.Score != 1 {
		t.Fatalf("score = %f, want clamp to 1", a.Score)
	}
	if a.Category != models.SeverityDestructive {
		t.Fatalf("category = %s, want destructive", a.Category)
	}
}

func TestHTTPModelPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/predict" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"severity_score": 0.62, "confidence": 0.9, "model_version": "damagenet-v2"}`))
	}))
	defer srv.Close()

	m := HTTPModel{BaseURL: srv.URL}
	a, err := m.Predict(context.Background(), grayImage(20, 20, 128))
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if a.Score != 0.62 {
		t.Fatalf("score = %f, want 0.62", a.Score)
	}
	if a.Category != models.SeveritySevere {
		t.Fatalf("category = %s, want severe", a.Category)
	}
	if a.ModelName != "damagenet-v2" {
		t.Fatalf("model name = %s, want damagenet-v2", a.ModelName)
	}
}

func TestHTTPModelServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	m := HTTPModel{BaseURL: srv.URL}
	if _, err := m.Predict(context.Background(), grayImage(20, 20, 128)); err == nil {
		t.Fatal("5xx should surface as an error")
	}
}
