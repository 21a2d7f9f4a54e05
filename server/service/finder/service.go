// Package finder searches OpenStreetMap for restaurants, evaluates their
// opening hours and manages favorites.
package finder

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/hrygo/finder/internal/openinghours"
	"github.com/hrygo/finder/plugin/osm"
	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/internal/observability"
	"github.com/hrygo/finder/store"
	"github.com/hrygo/finder/store/cache"
)

const (
	// DefaultSort applies when neither the request nor the settings name one.
	DefaultSort = "name-asc"

	areaTTL       = 24 * time.Hour
	restaurantTTL = 10 * time.Minute
)

// Config wires the service dependencies.
type Config struct {
	Store   Store
	Locator Locator
	// Cache and Metrics are optional.
	Cache   *cache.TieredCache
	Metrics *observability.Metrics
	// Location is the timezone opening hours are evaluated in.
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

type Service struct {
	store    Store
	locator  Locator
	cache    *cache.TieredCache
	metrics  *observability.Metrics
	location *time.Location
	now      func() time.Time
}

// NewService creates a finder service.
func NewService(cfg Config) *Service {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		store:    cfg.Store,
		locator:  cfg.Locator,
		cache:    cfg.Cache,
		metrics:  cfg.Metrics,
		location: cfg.Location,
		now:      cfg.Now,
	}
}

// Now returns the current time in the service timezone.
func (s *Service) Now() time.Time {
	return s.now().In(s.location)
}

// Search finds restaurants in a place, applying filters in order:
// cuisine substring, open now, hide unnamed, then the CEL filter.
func (s *Service) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	req.Country = strings.TrimSpace(req.Country)
	req.State = strings.TrimSpace(req.State)
	req.City = strings.TrimSpace(req.City)
	if req.Country == "" || req.City == "" {
		return nil, apierrors.InvalidArgument("Country and City are required fields.")
	}

	filter, err := CompileFilter(req.Filter)
	if err != nil {
		return nil, apierrors.InvalidArgument(err.Error())
	}

	place := osm.Place{Country: req.Country, State: req.State, City: req.City}
	areaID, err := s.lookupArea(ctx, place)
	if err != nil {
		return nil, err
	}
	elements, err := s.restaurants(ctx, areaID)
	if err != nil {
		return nil, err
	}

	favorites, err := s.favoriteIDs(ctx)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	results := make([]*Restaurant, 0, len(elements))
	for _, el := range elements {
		r := s.fromElement(el, now)
		r.Favorite = favorites[r.ID]
		results = append(results, r)
	}

	if cuisine := strings.ToLower(strings.TrimSpace(req.Cuisine)); cuisine != "" {
		results = keep(results, func(r *Restaurant) bool { return strings.Contains(r.Cuisine, cuisine) })
	}
	if req.OpenNow {
		results = keep(results, func(r *Restaurant) bool { return r.State == openinghours.Open })
	}
	hidden := 0
	if req.HideUnnamed {
		before := len(results)
		results = keep(results, func(r *Restaurant) bool { return r.Name != "" && r.Name != osm.UnnamedRestaurant })
		hidden = before - len(results)
	}
	if filter != nil {
		var ferr error
		results = keep(results, func(r *Restaurant) bool {
			ok, err := filter.Match(r)
			if err != nil && ferr == nil {
				ferr = err
			}
			return ok
		})
		if ferr != nil {
			return nil, apierrors.InvalidArgument(ferr.Error())
		}
	}

	Sort(results, s.sortOrDefault(ctx, req.Sort))

	return &SearchResult{
		Restaurants: results,
		HiddenCount: hidden,
		Message:     summary(len(results), hidden),
	}, nil
}

func summary(found, hidden int) string {
	if found == 0 {
		return "No results found matching your criteria."
	}
	msg := fmt.Sprintf("Found %d result(s).", found)
	if hidden > 0 {
		msg += fmt.Sprintf(" (%d unnamed locations hidden)", hidden)
	}
	return msg
}

func (s *Service) lookupArea(ctx context.Context, place osm.Place) (int64, error) {
	key := cache.GenerateCacheKey("area", strings.ToLower(place.Country), strings.ToLower(place.State), strings.ToLower(place.City))
	var areaID int64
	if s.cache != nil && s.cache.Get(ctx, key, &areaID) {
		return areaID, nil
	}

	areaID, err := s.locator.LookupArea(ctx, place)
	if err != nil {
		if errors.Is(err, osm.ErrAreaNotFound) {
			return 0, apierrors.NotFound(fmt.Sprintf("Could not find location data for %q.", place.String()))
		}
		return 0, apierrors.UpstreamUnavailable("location lookup failed", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, areaID, areaTTL); err != nil {
			slog.Warn("failed to cache area", "key", key, "error", err)
		}
	}
	return areaID, nil
}

func (s *Service) restaurants(ctx context.Context, areaID int64) ([]*osm.Element, error) {
	key := fmt.Sprintf("restaurants:%d", areaID)
	var elements []*osm.Element
	if s.cache != nil && s.cache.Get(ctx, key, &elements) {
		return elements, nil
	}

	elements, err := s.locator.Restaurants(ctx, areaID)
	if err != nil {
		return nil, apierrors.UpstreamUnavailable("restaurant search failed", err)
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, elements, restaurantTTL); err != nil {
			slog.Warn("failed to cache restaurants", "key", key, "error", err)
		}
	}
	return elements, nil
}

func (s *Service) fromElement(el *osm.Element, now time.Time) *Restaurant {
	hours, ok := el.OpeningHours()
	if !ok {
		hours = openinghours.NotSpecified
	}
	r := &Restaurant{
		ID:           el.ID,
		Name:         el.Name(),
		Cuisine:      el.Cuisine(),
		Address:      el.Address(),
		OpeningHours: hours,
		Lat:          el.Lat,
		Lon:          el.Lon,
	}
	s.evaluate(r, now)
	return r
}

func (s *Service) evaluate(r *Restaurant, now time.Time) {
	r.State = openinghours.EvaluateTime(r.OpeningHours, now)
	r.Badge = r.State.Badge()
	r.Directions = DirectionsURL(r.Lat, r.Lon)
	if s.metrics != nil {
		s.metrics.RecordVerdict(r.State.String())
	}
}

func (s *Service) sortOrDefault(ctx context.Context, sortBy string) string {
	if sortBy != "" {
		return sortBy
	}
	if v, ok, err := s.store.Get(ctx, store.SettingDefaultSort); err == nil && ok && v != "" {
		return v
	} else if err != nil {
		slog.Warn("failed to read default sort", "error", err)
	}
	return DefaultSort
}

func keep(results []*Restaurant, pred func(*Restaurant) bool) []*Restaurant {
	out := results[:0]
	for _, r := range results {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}

// DirectionsURL returns a Google Maps driving directions link.
func DirectionsURL(lat, lon float64) string {
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%g,%g&travelmode=driving", lat, lon)
}
