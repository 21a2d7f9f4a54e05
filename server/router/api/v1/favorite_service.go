package v1

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/server/service/finder"
)

// ListFavorites returns saved restaurants with their current state.
// GET /api/v1/favorites?sort=&hide_unnamed=
func (s *APIV1Service) ListFavorites(c echo.Context) error {
	var sortBy string
	var hideUnnamed bool
	if err := echo.QueryParamsBinder(c).
		String("sort", &sortBy).
		Bool("hide_unnamed", &hideUnnamed).
		BindError(); err != nil {
		return apierrors.InvalidArgument("invalid query parameters")
	}
	favorites, err := s.Finder.ListFavorites(c.Request().Context(), sortBy, hideUnnamed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"favorites": favorites})
}

// AddFavorite saves a restaurant.
// POST /api/v1/favorites
func (s *APIV1Service) AddFavorite(c echo.Context) error {
	var r finder.Restaurant
	if err := c.Bind(&r); err != nil {
		return apierrors.InvalidArgument("invalid restaurant")
	}
	saved, err := s.Finder.AddFavorite(c.Request().Context(), &r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, saved)
}

// RemoveFavorite deletes a favorite.
// DELETE /api/v1/favorites/:id
func (s *APIV1Service) RemoveFavorite(c echo.Context) error {
	id, err := favoriteID(c)
	if err != nil {
		return err
	}
	if err := s.Finder.RemoveFavorite(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleFavorite adds or removes a favorite. The body carries the restaurant
// details used when adding.
// POST /api/v1/favorites/:id/toggle
func (s *APIV1Service) ToggleFavorite(c echo.Context) error {
	id, err := favoriteID(c)
	if err != nil {
		return err
	}
	var r finder.Restaurant
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&r); err != nil {
			return apierrors.InvalidArgument("invalid restaurant")
		}
	}
	r.ID = id
	favorite, err := s.Finder.ToggleFavorite(c.Request().Context(), &r)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"id": id, "favorite": favorite})
}

// GetFavoritesFeed serves the favorites as RSS.
// GET /api/v1/favorites/feed
func (s *APIV1Service) GetFavoritesFeed(c echo.Context) error {
	req := c.Request()
	scheme := c.Scheme()
	link := scheme + "://" + req.Host + "/"
	rss, err := s.Finder.FavoritesFeed(req.Context(), link)
	if err != nil {
		return apierrors.Internal("failed to build feed", err)
	}
	return c.Blob(http.StatusOK, "application/rss+xml; charset=utf-8", []byte(rss))
}

func favoriteID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apierrors.InvalidArgument("invalid favorite id")
	}
	return id, nil
}
