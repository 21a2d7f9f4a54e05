package v1

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/finder/internal/openinghours"
	apierrors "github.com/hrygo/finder/server/internal/errors"
	"github.com/hrygo/finder/server/service/finder"
	"github.com/hrygo/finder/server/timezone"
)

// SearchRestaurants searches a place.
// GET /api/v1/restaurants?country=&state=&city=&cuisine=&open_now=&hide_unnamed=&sort=&filter=
func (s *APIV1Service) SearchRestaurants(c echo.Context) error {
	var req finder.SearchRequest
	if err := echo.QueryParamsBinder(c).
		String("country", &req.Country).
		String("state", &req.State).
		String("city", &req.City).
		String("cuisine", &req.Cuisine).
		Bool("open_now", &req.OpenNow).
		Bool("hide_unnamed", &req.HideUnnamed).
		String("sort", &req.Sort).
		String("filter", &req.Filter).
		BindError(); err != nil {
		return apierrors.InvalidArgument("invalid query parameters")
	}

	result, err := s.Finder.Search(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// OpeningHoursResponse explains an opening-hours evaluation.
type OpeningHoursResponse struct {
	Value  string             `json:"value"`
	At     string             `json:"at"`
	State  openinghours.State `json:"state"`
	Badge  string             `json:"badge"`
	Clause string             `json:"clause"`
	Kind   string             `json:"kind"`
}

// GetOpeningHours evaluates an opening_hours value.
// GET /api/v1/opening-hours?value=&at=&tz=
//
// at defaults to now; tz defaults to the server timezone.
func (s *APIV1Service) GetOpeningHours(c echo.Context) error {
	value := c.QueryParam("value")
	if strings.TrimSpace(value) == "" {
		return apierrors.InvalidArgument("value is required")
	}

	loc := s.Location
	if tz := c.QueryParam("tz"); tz != "" {
		parsed, err := timezone.ParseTimezone(tz)
		if err != nil {
			return apierrors.InvalidArgument(err.Error())
		}
		loc = parsed
	}
	at, err := timezone.ParseLocalTime(c.QueryParam("at"), loc)
	if err != nil {
		return apierrors.InvalidArgument(err.Error())
	}

	verdict := openinghours.Explain(value, openinghours.At(at))
	if s.Metrics != nil {
		s.Metrics.RecordVerdict(verdict.State.String())
	}
	return c.JSON(http.StatusOK, OpeningHoursResponse{
		Value:  value,
		At:     at.Format("2006-01-02T15:04:05Z07:00"),
		State:  verdict.State,
		Badge:  verdict.State.Badge(),
		Clause: verdict.Clause,
		Kind:   verdict.Kind.String(),
	})
}
