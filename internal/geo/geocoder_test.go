package geo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"propwatch/internal/config"
	"propwatch/internal/domain"
)

// fakeProvider scripts responses per request and records every query the
// cascade sends.
type fakeProvider struct {
	mu        sync.Mutex
	responses []string
	statuses  []int
	queries   []string
}

func (f *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		label := r.URL.Query().Get("q")
		if label == "" {
			label = "street:" + r.URL.Query().Get("street")
		}
		f.queries = append(f.queries, label)

		i := len(f.queries) - 1
		status := http.StatusOK
		if i < len(f.statuses) {
			status = f.statuses[i]
		}
		body := "[]"
		if i < len(f.responses) {
			body = f.responses[i]
		}
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func testGeocoder(t *testing.T, f *fakeProvider) *Geocoder {
	t.Helper()
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	g := NewGeocoder(config.GeocodingConfig{
		APIKey:      "test-key",
		Host:        "unused",
		Timeout:     2 * time.Second,
		MinInterval: 0,
		CountryBias: "ar",
	}, nil, nil)
	g.searchURL = srv.URL
	return g
}

func hit(lat, lng string) string {
	return fmt.Sprintf(`[{"lat":"%s","lon":"%s"}]`, lat, lng)
}

func TestResolveStreetLevel(t *testing.T) {
	f := &fakeProvider{responses: []string{hit("-34.5612", "-58.4433")}}
	g := testGeocoder(t, f)

	res, err := g.Resolve(context.Background(), Request{
		Street:       "Moldes",
		StreetNumber: "1757",
		City:         "Capital Federal",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Latitude != -34.5612 || res.Longitude != -58.4433 {
		t.Errorf("coords = (%v, %v)", res.Latitude, res.Longitude)
	}
	if res.Approx {
		t.Error("street-level result should not be approximate")
	}
	if f.count() != 1 {
		t.Errorf("requests = %d, want 1 (first level hit)", f.count())
	}
}

func TestResolveCascadeSkipsBadLevels(t *testing.T) {
	f := &fakeProvider{responses: []string{
		hit("-31.4201", "-64.1888"), // a street with the same name in Córdoba
		"[]",
		hit("-34.5465", "-58.4620"),
	}}
	g := testGeocoder(t, f)

	res, err := g.Resolve(context.Background(), Request{
		Address:      "Superí al 2500",
		Neighborhood: "Núñez",
		City:         "Capital Federal",
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Latitude != -34.5465 {
		t.Errorf("latitude = %v, want the level-3 result", res.Latitude)
	}
	if f.count() != 3 {
		t.Fatalf("requests = %d, want 3", f.count())
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.queries[0] != "street:Superí 2500" {
		t.Errorf("level 1 query = %q, want structured street from the cleaned address", f.queries[0])
	}
	if f.queries[2] != "Superí 2500, Núñez, Capital Federal, Argentina" {
		t.Errorf("level 3 query = %q", f.queries[2])
	}
}

func TestResolveCentroidGetsJitter(t *testing.T) {
	// Exact palermo centroid: a neighborhood-level match.
	f := &fakeProvider{responses: []string{hit("-34.5740", "-58.4240")}}
	g := testGeocoder(t, f)

	res, err := g.Resolve(context.Background(), Request{Neighborhood: "Palermo", City: "Capital Federal"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !res.Approx {
		t.Error("centroid result should be approximate")
	}
	if d := res.Latitude - (-34.5740); d < -0.0011 || d > 0.0011 {
		t.Errorf("jittered latitude drifted too far: %v", res.Latitude)
	}
	if d := res.Longitude - (-58.4240); d < -0.0011 || d > 0.0011 {
		t.Errorf("jittered longitude drifted too far: %v", res.Longitude)
	}
}

func TestResolveRateLimitAbortsCascade(t *testing.T) {
	f := &fakeProvider{statuses: []int{http.StatusTooManyRequests}}
	g := testGeocoder(t, f)

	_, err := g.Resolve(context.Background(), Request{
		Street:       "Moldes",
		StreetNumber: "1757",
		Neighborhood: "Belgrano",
		City:         "Capital Federal",
	})
	if !errors.Is(err, domain.ErrProviderRateLimited) {
		t.Fatalf("err = %v, want ErrProviderRateLimited", err)
	}
	if f.count() != 1 {
		t.Errorf("requests = %d, want 1 (remaining levels aborted)", f.count())
	}
}

func TestResolveUnresolvedIsCached(t *testing.T) {
	f := &fakeProvider{}
	g := testGeocoder(t, f)

	req := Request{Address: "Calle Inexistente 1", City: "Capital Federal"}
	_, err := g.Resolve(context.Background(), req)
	if !errors.Is(err, domain.ErrGeocodeUnresolved) {
		t.Fatalf("err = %v, want ErrGeocodeUnresolved", err)
	}
	first := f.count()
	if first == 0 {
		t.Fatal("expected at least one provider call")
	}

	_, err = g.Resolve(context.Background(), req)
	if !errors.Is(err, domain.ErrGeocodeUnresolved) {
		t.Fatalf("second err = %v", err)
	}
	if f.count() != first {
		t.Errorf("requests grew from %d to %d, miss should be cached for the run", first, f.count())
	}

	g.ClearCache()
	if _, err := g.Resolve(context.Background(), req); !errors.Is(err, domain.ErrGeocodeUnresolved) {
		t.Fatalf("post-clear err = %v", err)
	}
	if f.count() == first {
		t.Error("ClearCache should force a re-resolve")
	}
}

func TestResolveIdenticalAddressesShareCoordinates(t *testing.T) {
	f := &fakeProvider{responses: []string{hit("-34.5612", "-58.4433")}}
	g := testGeocoder(t, f)

	req := Request{Street: "Moldes", StreetNumber: "1757", City: "Capital Federal"}
	a, err := g.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	b, err := g.Resolve(context.Background(), req)
	if err != nil {
		t.Fatalf("Resolve (cached): %v", err)
	}
	if a != b {
		t.Errorf("cached coords differ: %+v vs %+v", a, b)
	}
	if f.count() != 1 {
		t.Errorf("requests = %d, want 1", f.count())
	}
}
