// Package osm queries OpenStreetMap services: Nominatim to resolve a city to an
// Overpass area, and Overpass to list the restaurants inside it.
package osm

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const (
	// Overpass area IDs are OSM IDs shifted by a per-type offset.
	relationAreaOffset int64 = 3600000000
	wayAreaOffset      int64 = 2400000000

	defaultTimeout = 30 * time.Second
)

// ErrAreaNotFound is returned when Nominatim has no match for a place.
var ErrAreaNotFound = errors.New("area not found")

// Place identifies the area to search in.
type Place struct {
	Country string
	State   string
	City    string
}

func (p Place) String() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.City, p.State, p.Country} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Config holds the OSM client configuration.
type Config struct {
	NominatimURL string
	OverpassURL  string
	UserAgent    string
	// RequestsPerSecond paces outbound calls; Nominatim allows one per second.
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to Nominatim and Overpass.
type Client struct {
	config     Config
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new OSM client.
func NewClient(cfg Config) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 1
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// LookupArea resolves a place to an Overpass area ID.
func (c *Client) LookupArea(ctx context.Context, place Place) (int64, error) {
	query := url.Values{}
	query.Set("city", place.City)
	query.Set("state", place.State)
	query.Set("country", place.Country)
	query.Set("format", "json")
	query.Set("limit", "1")

	endpoint := strings.TrimRight(c.config.NominatimURL, "/") + "/search?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, errors.Wrap(err, "failed to build nominatim request")
	}

	body, err := c.do(req, "nominatim")
	if err != nil {
		return 0, err
	}

	first := gjson.GetBytes(body, "0")
	osmID := first.Get("osm_id")
	if !first.Exists() || !osmID.Exists() || osmID.Int() == 0 {
		return 0, errors.Wrapf(ErrAreaNotFound, "no location data for %q", place.String())
	}

	areaID := AreaID(first.Get("osm_type").String(), osmID.Int())
	slog.Debug("resolved area",
		slog.String("place", place.String()),
		slog.Int64("area_id", areaID))
	return areaID, nil
}

// AreaID converts a Nominatim result to an Overpass area ID. Unknown types
// are assumed to be relations, which is what cities usually are.
func AreaID(osmType string, osmID int64) int64 {
	if osmType == "way" {
		return wayAreaOffset + osmID
	}
	return relationAreaOffset + osmID
}

// RestaurantQuery returns the Overpass QL query for restaurants in an area.
func RestaurantQuery(areaID int64) string {
	return fmt.Sprintf(`[out:json][timeout:25];
area(%d)->.searchArea;
(
  node["amenity"="restaurant"](area.searchArea);
  way["amenity"="restaurant"](area.searchArea);
  relation["amenity"="restaurant"](area.searchArea);
);
out center;`, areaID)
}

// Restaurants lists the restaurants inside an area.
func (c *Client) Restaurants(ctx context.Context, areaID int64) ([]*Element, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.OverpassURL,
		strings.NewReader(RestaurantQuery(areaID)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to build overpass request")
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")

	body, err := c.do(req, "overpass")
	if err != nil {
		return nil, err
	}

	if !gjson.ValidBytes(body) {
		return nil, errors.New("overpass returned invalid JSON")
	}
	return ParseElements(body), nil
}

func (c *Client) do(req *http.Request, service string) ([]byte, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrapf(err, "%s request not sent", service)
	}
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s request failed", service)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s response", service)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Service: service, StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return body, nil
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Service    string
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s API error: %s", e.Service, e.Status)
}
