package regional

import (
	"context"
	"testing"
)

func TestStaticStoreProfile(t *testing.T) {
	s := NewStaticStore()
	ctx := context.Background()

	p, err := s.Profile(ctx, "Karachi")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if p.Region != "Sindh" {
		t.Fatalf("region = %s, want Sindh", p.Region)
	}

	// Substring and case-insensitive matches.
	p, _ = s.Profile(ctx, "lahore cantonment")
	if p.City != "Lahore" {
		t.Fatalf("city = %s, want Lahore", p.City)
	}

	p, _ = s.Profile(ctx, "Gwadar")
	if p != DefaultProfile {
		t.Fatalf("unknown city should use the default profile, got %+v", p)
	}

	p, _ = s.Profile(ctx, "")
	if p != DefaultProfile {
		t.Fatalf("empty city should use the default profile, got %+v", p)
	}
}

func TestStaticStoreList(t *testing.T) {
	s := NewStaticStore()
	list, err := s.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 8 {
		t.Fatalf("list length = %d, want 8 reference cities", len(list))
	}
	for _, p := range list {
		if p.Construction <= 0 || p.Materials <= 0 || p.Labor <= 0 {
			t.Fatalf("profile %s has non-positive factors: %+v", p.City, p)
		}
		if p.InflationFactor <= 0 {
			t.Fatalf("profile %s has non-positive inflation", p.City)
		}
	}
}
