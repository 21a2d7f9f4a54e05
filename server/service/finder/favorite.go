package finder

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/feeds"
	"github.com/pkg/errors"

	"github.com/hrygo/finder/plugin/osm"
	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/store"
)

// ListFavorites returns the favorites with their current open state. An empty
// sortBy keeps them newest first.
func (s *Service) ListFavorites(ctx context.Context, sortBy string, hideUnnamed bool) ([]*Restaurant, error) {
	list, err := s.store.ListFavorites(ctx, &store.FindFavorite{})
	if err != nil {
		return nil, apierrors.Internal("failed to list favorites", err)
	}
	now := s.Now()
	results := make([]*Restaurant, 0, len(list))
	for _, f := range list {
		r := fromFavorite(f)
		s.evaluate(r, now)
		results = append(results, r)
	}
	if hideUnnamed {
		results = keep(results, func(r *Restaurant) bool { return r.Name != "" && r.Name != osm.UnnamedRestaurant })
	}
	if sortBy != "" {
		Sort(results, sortBy)
	}
	return results, nil
}

// AddFavorite saves a restaurant. Adding an existing favorite refreshes its details.
func (s *Service) AddFavorite(ctx context.Context, r *Restaurant) (*Restaurant, error) {
	if r == nil || r.ID == 0 {
		return nil, apierrors.InvalidArgument("restaurant id is required")
	}
	existing, err := s.store.GetFavorite(ctx, r.ID)
	if err != nil {
		return nil, apierrors.Internal("failed to get favorite", err)
	}
	f := toFavorite(r)
	if existing != nil {
		f.CreatedTs = existing.CreatedTs
	} else {
		f.CreatedTs = s.now().Unix()
	}
	saved, err := s.store.UpsertFavorite(ctx, f)
	if err != nil {
		return nil, apierrors.Internal("failed to save favorite", err)
	}
	out := fromFavorite(saved)
	s.evaluate(out, s.Now())
	return out, nil
}

// RemoveFavorite deletes a favorite.
func (s *Service) RemoveFavorite(ctx context.Context, id int64) error {
	existing, err := s.store.GetFavorite(ctx, id)
	if err != nil {
		return apierrors.Internal("failed to get favorite", err)
	}
	if existing == nil {
		return apierrors.NotFound(fmt.Sprintf("favorite %d not found", id))
	}
	if err := s.store.DeleteFavorite(ctx, &store.DeleteFavorite{ID: id}); err != nil {
		return apierrors.Internal("failed to delete favorite", err)
	}
	return nil
}

// ToggleFavorite adds the restaurant if absent and removes it if present.
// It reports whether the restaurant is a favorite afterwards.
func (s *Service) ToggleFavorite(ctx context.Context, r *Restaurant) (bool, error) {
	if r == nil || r.ID == 0 {
		return false, apierrors.InvalidArgument("restaurant id is required")
	}
	existing, err := s.store.GetFavorite(ctx, r.ID)
	if err != nil {
		return false, apierrors.Internal("failed to get favorite", err)
	}
	if existing != nil {
		if err := s.store.DeleteFavorite(ctx, &store.DeleteFavorite{ID: r.ID}); err != nil {
			return false, apierrors.Internal("failed to delete favorite", err)
		}
		return false, nil
	}
	if _, err := s.AddFavorite(ctx, r); err != nil {
		return false, err
	}
	return true, nil
}

// FavoritesFeed renders the favorites as an RSS document, newest first.
func (s *Service) FavoritesFeed(ctx context.Context, link string) (string, error) {
	favorites, err := s.ListFavorites(ctx, "", false)
	if err != nil {
		return "", err
	}

	feed := &feeds.Feed{
		Title:       "Favorite restaurants",
		Link:        &feeds.Link{Href: link},
		Description: "Restaurants saved as favorites, with their current opening state.",
		Created:     s.Now(),
	}
	for _, r := range favorites {
		feed.Items = append(feed.Items, &feeds.Item{
			Id:          fmt.Sprintf("%d", r.ID),
			Title:       r.Name,
			Link:        &feeds.Link{Href: r.Directions},
			Description: fmt.Sprintf("%s · %s · %s · %s", r.Badge, r.Cuisine, r.Address, r.OpeningHours),
			Created:     time.Unix(r.SavedAt, 0).In(s.location),
		})
	}

	rss, err := feed.ToRss()
	if err != nil {
		return "", errors.Wrap(err, "failed to render favorites feed")
	}
	return rss, nil
}

func fromFavorite(f *store.Favorite) *Restaurant {
	return &Restaurant{
		ID:           f.ID,
		Name:         f.Name,
		Cuisine:      f.Cuisine,
		Address:      f.Address,
		OpeningHours: f.OpeningHours,
		Lat:          f.Lat,
		Lon:          f.Lon,
		Favorite:     true,
		SavedAt:      f.CreatedTs,
	}
}

func toFavorite(r *Restaurant) *store.Favorite {
	return &store.Favorite{
		ID:           r.ID,
		Name:         r.Name,
		Cuisine:      r.Cuisine,
		Address:      r.Address,
		OpeningHours: r.OpeningHours,
		Lat:          r.Lat,
		Lon:          r.Lon,
	}
}

func (s *Service) favoriteIDs(ctx context.Context) (map[int64]bool, error) {
	list, err := s.store.ListFavorites(ctx, &store.FindFavorite{})
	if err != nil {
		return nil, apierrors.Internal("failed to list favorites", err)
	}
	ids := make(map[int64]bool, len(list))
	for _, f := range list {
		ids[f.ID] = true
	}
	return ids, nil
}
