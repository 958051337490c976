package estimate

import (
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"net/http"
	"sync"
	"time"
)

// SatelliteClient downloads static satellite tiles and estimates building
// footprints from them. Without a token the estimator abstains.
type SatelliteClient struct {
	BaseURL     string
	Token       string
	Zoom        int
	TileSize    int
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string]float64
}

func (s *SatelliteClient) defaults() {
	if s.Client == nil {
		s.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if s.BaseURL == "" {
		s.BaseURL = "https://api.mapbox.com/styles/v1/mapbox/satellite-v9/static"
	}
	if s.Zoom == 0 {
		s.Zoom = 19
	}
	if s.TileSize == 0 {
		s.TileSize = 1024
	}
	if s.MinInterval <= 0 {
		s.MinInterval = time.Second
	}
}

// EstimateFootprintArea returns the building footprint in square meters at a
// pin location, or (0, false) when imagery is unavailable.
func (s *SatelliteClient) EstimateFootprintArea(ctx context.Context, lat, lon float64) (float64, bool) {
	if s == nil || s.Token == "" {
		return 0, false
	}
	s.defaults()

	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	s.mu.Lock()
	if s.cache == nil {
		s.cache = map[string]float64{}
	}
	if cached, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return cached, cached > 0
	}
	sleepFor := time.Until(s.lastReqAt.Add(s.MinInterval))
	if sleepFor > 0 {
		s.mu.Unlock()
		time.Sleep(sleepFor)
		s.mu.Lock()
	}
	s.lastReqAt = time.Now()
	s.mu.Unlock()

	tile, err := s.fetchTile(ctx, lat, lon)
	if err != nil {
		return 0, false
	}

	frame := NewFrame(tile)
	footprintPixels := 0
	for i := range frame.Luma {
		if isBuildingColor(frame.Luma[i], frame.Sat[i], frame.Hue[i]) {
			footprintPixels++
		}
	}
	if footprintPixels == 0 {
		return 0, false
	}

	mpp := metersPerPixel(lat, s.Zoom)
	area := float64(footprintPixels) * mpp * mpp

	s.mu.Lock()
	s.cache[key] = area
	s.mu.Unlock()
	return area, area > 0
}

func (s *SatelliteClient) fetchTile(ctx context.Context, lat, lon float64) (image.Image, error) {
	endpoint := fmt.Sprintf("%s/%f,%f,%d/%dx%d?access_token=%s",
		s.BaseURL, lon, lat, s.Zoom, s.TileSize, s.TileSize, s.Token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("satellite tile http error: %s", resp.Status)
	}
	img, _, err := image.Decode(resp.Body)
	return img, err
}

// metersPerPixel for Web Mercator tiles at a given latitude and zoom.
func metersPerPixel(lat float64, zoom int) float64 {
	return 156543.03392 * math.Cos(lat*math.Pi/180) / math.Pow(2, float64(zoom))
}
