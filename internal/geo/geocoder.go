package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"propwatch/internal/config"
	"propwatch/internal/domain"
	"propwatch/internal/infrastructure/cache"
)

const (
	// jitterRange is roughly 100m in degrees, applied to centroid-level
	// results so markers for the same barrio do not stack.
	jitterRange = 0.001

	// rateLimitCooldown pauses all provider calls after a 429.
	rateLimitCooldown = 5 * time.Second

	geocodeCachePrefix = "geocode:"
)

var errRateLimited = errors.New("provider returned 429")

// Request carries one property's address components. Empty fields are
// simply skipped in the cascade.
type Request struct {
	Address      string
	Street       string
	StreetNumber string
	Neighborhood string
	City         string
	Province     string
}

// Result is a resolved coordinate pair. Approx marks centroid-level
// matches that received jitter.
type Result struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Approx    bool    `json:"approx"`
}

// Geocoder resolves addresses through a Nominatim-compatible provider
// (LocationIQ) with a five-level precision cascade:
//
//	1. structured street + city
//	2. structured street + province
//	3. free text: cleaned address, neighborhood, city
//	4. free text: cleaned address, city
//	5. free text: neighborhood, city, province
//
// Results outside the Buenos Aires bounding box are discarded. Identical
// address components within one run resolve to identical coordinates.
type Geocoder struct {
	logger      *log.Logger
	httpClient  *http.Client
	searchURL   string
	apiKey      string
	countryBias string
	minInterval time.Duration

	redis *cache.Redis

	mu            sync.Mutex
	lastRequest   time.Time
	cooldownUntil time.Time
	results       map[string]*Result
}

func NewGeocoder(cfg config.GeocodingConfig, redis *cache.Redis, logger *log.Logger) *Geocoder {
	return &Geocoder{
		logger:      logger,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		searchURL:   "https://" + cfg.Host + "/v1/search",
		apiKey:      cfg.APIKey,
		countryBias: strings.ToLower(cfg.CountryBias),
		minInterval: cfg.MinInterval,
		redis:       redis,
		results:     map[string]*Result{},
	}
}

// ClearCache drops the in-run result cache. Call it after a batch run so
// a later run re-resolves addresses the provider may know better by then.
func (g *Geocoder) ClearCache() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results = map[string]*Result{}
}

// Resolve geocodes one address. It returns domain.ErrGeocodeUnresolved
// when every cascade level misses and domain.ErrProviderRateLimited when
// the provider throttles us mid-cascade.
func (g *Geocoder) Resolve(ctx context.Context, req Request) (Result, error) {
	if req.City == "" {
		req.City = "Buenos Aires"
	}
	if req.Province == "" {
		req.Province = "Buenos Aires"
	}

	key := cacheKey(req)
	if res, hit := g.cached(key); hit {
		if res == nil {
			return Result{}, domain.ErrGeocodeUnresolved
		}
		return *res, nil
	}

	var stored Result
	if found, _ := g.redis.GetJSON(ctx, geocodeCachePrefix+key, &stored); found {
		g.store(key, &stored)
		return stored, nil
	}

	for _, q := range g.buildQueries(req) {
		if err := g.waitTurn(ctx); err != nil {
			return Result{}, err
		}

		lat, lng, found, err := g.search(ctx, q.params)
		if err != nil {
			if errors.Is(err, errRateLimited) {
				g.startCooldown()
				g.logf("[Geocoder] 429 at level %d, aborting cascade for %q", q.level, q.label)
				return Result{}, fmt.Errorf("%w: %q", domain.ErrProviderRateLimited, q.label)
			}
			g.logf("[Geocoder] level %d failed for %q: %v", q.level, q.label, err)
			continue
		}
		if !found {
			continue
		}
		if !InBuenosAires(lat, lng) {
			g.logf("[Geocoder] level %d resolved %q to (%f, %f) outside Buenos Aires, skipping", q.level, q.label, lat, lng)
			continue
		}

		res := Result{Latitude: lat, Longitude: lng}
		if barrio := MatchCentroid(lat, lng); barrio != "" {
			res.Latitude += jitter()
			res.Longitude += jitter()
			res.Approx = true
			g.logf("[Geocoder] level %d resolved %q to the centroid of %s, jittered", q.level, q.label, barrio)
		}

		g.store(key, &res)
		_ = g.redis.SetJSON(ctx, geocodeCachePrefix+key, res, 0)
		return res, nil
	}

	g.store(key, nil)
	return Result{}, domain.ErrGeocodeUnresolved
}

type geocodeQuery struct {
	level  int
	label  string
	params url.Values
}

func (g *Geocoder) buildQueries(req Request) []geocodeQuery {
	var queries []geocodeQuery

	cleaned := ""
	if req.Address != "" {
		cleaned = CleanRawAddress(req.Address)
	}
	streetStr := streetQuery(req, cleaned)

	if streetStr != "" {
		queries = append(queries, geocodeQuery{
			level: 1,
			label: streetStr + ", " + req.City,
			params: url.Values{
				"street":  {streetStr},
				"city":    {req.City},
				"country": {"Argentina"},
			},
		})
		queries = append(queries, geocodeQuery{
			level: 2,
			label: streetStr + ", " + req.Province,
			params: url.Values{
				"street":  {streetStr},
				"state":   {req.Province},
				"country": {"Argentina"},
			},
		})
	}

	if cleaned != "" && req.Neighborhood != "" {
		q := fmt.Sprintf("%s, %s, %s, Argentina", cleaned, req.Neighborhood, req.City)
		queries = append(queries, geocodeQuery{level: 3, label: q, params: url.Values{"q": {q}}})
	}
	if cleaned != "" {
		q := fmt.Sprintf("%s, %s, Argentina", cleaned, req.City)
		queries = append(queries, geocodeQuery{level: 4, label: q, params: url.Values{"q": {q}}})
	}
	if req.Neighborhood != "" {
		q := fmt.Sprintf("%s, %s, %s, Argentina", req.Neighborhood, req.City, req.Province)
		queries = append(queries, geocodeQuery{level: 5, label: q, params: url.Values{"q": {q}}})
	}

	return queries
}

// streetQuery builds "Calle 1234" from structured fields, falling back
// to a street-and-number parse of the cleaned address.
func streetQuery(req Request, cleaned string) string {
	if req.Street != "" {
		if req.StreetNumber != "" {
			return strings.TrimSpace(req.Street) + " " + strings.TrimSpace(req.StreetNumber)
		}
		return strings.TrimSpace(req.Street)
	}
	if cleaned == "" {
		return ""
	}
	street, number := ParseStreetAndNumber(cleaned)
	if number != "" {
		return street + " " + number
	}
	return cleaned
}

func (g *Geocoder) search(ctx context.Context, params url.Values) (float64, float64, bool, error) {
	params.Set("key", g.apiKey)
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("countrycodes", g.countryBias)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.searchURL+"?"+params.Encode(), nil)
	if err != nil {
		return 0, 0, false, err
	}

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return 0, 0, false, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, 0, false, errRateLimited
	case resp.StatusCode == http.StatusNotFound:
		// Nominatim-style "no results".
		return 0, 0, false, nil
	case resp.StatusCode != http.StatusOK:
		return 0, 0, false, fmt.Errorf("geocoding provider status %d", resp.StatusCode)
	}

	var hits []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&hits); err != nil {
		return 0, 0, false, err
	}
	if len(hits) == 0 {
		return 0, 0, false, nil
	}

	lat, err := strconv.ParseFloat(hits[0].Lat, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse lat %q: %w", hits[0].Lat, err)
	}
	lng, err := strconv.ParseFloat(hits[0].Lon, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse lon %q: %w", hits[0].Lon, err)
	}
	return lat, lng, true, nil
}

// waitTurn enforces the provider's request spacing, including any active
// rate-limit cooldown.
func (g *Geocoder) waitTurn(ctx context.Context) error {
	g.mu.Lock()
	next := g.lastRequest.Add(g.minInterval)
	if g.cooldownUntil.After(next) {
		next = g.cooldownUntil
	}
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	g.lastRequest = next
	g.mu.Unlock()

	wait := time.Until(next)
	if wait <= 0 {
		return nil
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *Geocoder) startCooldown() {
	g.mu.Lock()
	g.cooldownUntil = time.Now().Add(rateLimitCooldown)
	g.mu.Unlock()
}

func (g *Geocoder) cached(key string) (*Result, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	res, hit := g.results[key]
	return res, hit
}

func (g *Geocoder) store(key string, res *Result) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.results[key] = res
}

func (g *Geocoder) logf(format string, args ...any) {
	if g.logger != nil {
		g.logger.Printf(format, args...)
	}
}

func jitter() float64 {
	return (rand.Float64()*2 - 1) * jitterRange
}

// cacheKey joins the lowercased address components. Province is left out
// on purpose; it rarely varies and the city already disambiguates.
func cacheKey(req Request) string {
	parts := []string{
		strings.ToLower(strings.TrimSpace(req.Address)),
		strings.ToLower(strings.TrimSpace(req.Street)),
		strings.ToLower(strings.TrimSpace(req.StreetNumber)),
		strings.ToLower(strings.TrimSpace(req.Neighborhood)),
		strings.ToLower(strings.TrimSpace(req.City)),
	}
	return strings.Join(parts, "|")
}
