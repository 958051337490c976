package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNearestCity(t *testing.T) {
	city, ok := NearestCity(24.9, 67.05)
	if !ok || city != "Karachi" {
		t.Fatalf("NearestCity near Karachi = %q, %v", city, ok)
	}

	// Gwadar is hundreds of km from every reference city.
	if city, ok := NearestCity(25.1264, 62.3225); ok {
		t.Fatalf("remote pin matched %q, want no match", city)
	}
}

func TestReverseCityFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address": {"city": "Lahore", "county": "Lahore District"}}`))
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL}
	city, err := g.ReverseCity(context.Background(), 31.52, 74.35)
	if err != nil {
		t.Fatalf("reverse: %v", err)
	}
	if city != "Lahore" {
		t.Fatalf("city = %s, want Lahore", city)
	}

	// Second lookup for the same pin is served from the cache.
	if cached, _ := g.ReverseCity(context.Background(), 31.52, 74.35); cached != "Lahore" {
		t.Fatalf("cached city = %s, want Lahore", cached)
	}
}

func TestReverseCityOfflineFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	g := &NominatimGeocoder{BaseURL: srv.URL}
	city, err := g.ReverseCity(context.Background(), 33.69, 73.05)
	if err != nil {
		t.Fatalf("reverse with fallback: %v", err)
	}
	if city != "Islamabad" {
		t.Fatalf("city = %s, want offline match Islamabad", city)
	}
}
