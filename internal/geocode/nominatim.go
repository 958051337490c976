package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// NominatimGeocoder reverse-geocodes pins against the OSM Nominatim API with
// a per-instance cache and a polite request interval. When the service is
// unreachable it falls back to the offline nearest-city match.
type NominatimGeocoder struct {
	BaseURL     string
	UserAgent   string
	MinInterval time.Duration
	Client      *http.Client

	mu        sync.Mutex
	lastReqAt time.Time
	cache     map[string]string
}

type reverseResponse struct {
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
	} `json:"address"`
}

func (g *NominatimGeocoder) ReverseCity(ctx context.Context, lat, lon float64) (string, error) {
	if g.Client == nil {
		g.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if g.BaseURL == "" {
		g.BaseURL = "https://nominatim.openstreetmap.org"
	}
	if g.UserAgent == "" {
		g.UserAgent = "dasper-backend"
	}
	if g.MinInterval <= 0 {
		g.MinInterval = time.Second
	}

	key := fmt.Sprintf("%.4f,%.4f", lat, lon)
	g.mu.Lock()
	if g.cache == nil {
		g.cache = map[string]string{}
	}
	if cached, ok := g.cache[key]; ok {
		g.mu.Unlock()
		return cached, nil
	}
	sleepFor := time.Until(g.lastReqAt.Add(g.MinInterval))
	if sleepFor > 0 {
		g.mu.Unlock()
		time.Sleep(sleepFor)
		g.mu.Lock()
	}
	g.lastReqAt = time.Now()
	g.mu.Unlock()

	city, err := g.reverse(ctx, lat, lon)
	if err != nil {
		if offline, ok := NearestCity(lat, lon); ok {
			return offline, nil
		}
		return "", err
	}

	g.mu.Lock()
	g.cache[key] = city
	g.mu.Unlock()
	return city, nil
}

func (g *NominatimGeocoder) reverse(ctx context.Context, lat, lon float64) (string, error) {
	endpoint := fmt.Sprintf("%s/reverse?lat=%f&lon=%f&format=json&zoom=10", g.BaseURL, lat, lon)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", g.UserAgent)

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("nominatim http error: %s", resp.Status)
	}

	var r reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return "", err
	}
	for _, name := range []string{r.Address.City, r.Address.Town, r.Address.Village, r.Address.County} {
		if name != "" {
			return name, nil
		}
	}
	return "", ErrNotFound
}
