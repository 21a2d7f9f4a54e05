package v1

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/finder/internal/profile"
	"github.com/hrygo/finder/internal/observability"
	"github.com/hrygo/finder/server/service/chat"
	"github.com/hrygo/finder/server/service/finder"
	"github.com/hrygo/finder/store"
)

type APIV1Service struct {
	Profile  *profile.Profile
	Finder   *finder.Service
	Chat     *chat.Service
	Settings store.KV
	Metrics  *observability.Metrics
	// Location is the default timezone for opening-hours queries.
	Location *time.Location
}

func NewAPIV1Service(profile *profile.Profile, finderService *finder.Service, chatService *chat.Service, settings store.KV, metrics *observability.Metrics, location *time.Location) *APIV1Service {
	if location == nil {
		location = time.UTC
	}
	return &APIV1Service{
		Profile:  profile,
		Finder:   finderService,
		Chat:     chatService,
		Settings: settings,
		Metrics:  metrics,
		Location: location,
	}
}

// RegisterRoutes mounts the JSON API under /api/v1 and the health check at /healthz.
func (s *APIV1Service) RegisterRoutes(echoServer *echo.Echo) {
	echoServer.GET("/healthz", s.Healthz)

	corsHandler := middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"*"},
	})
	g := echoServer.Group("/api/v1", corsHandler)

	g.GET("/restaurants", s.SearchRestaurants)
	g.GET("/opening-hours", s.GetOpeningHours)

	g.GET("/favorites", s.ListFavorites)
	g.POST("/favorites", s.AddFavorite)
	g.GET("/favorites/feed", s.GetFavoritesFeed)
	g.DELETE("/favorites/:id", s.RemoveFavorite)
	g.POST("/favorites/:id/toggle", s.ToggleFavorite)

	g.POST("/chat", s.Ask)
	g.GET("/chat/:id", s.GetChatHistory)
	g.DELETE("/chat/:id", s.ClearChat)

	g.GET("/settings/:key", s.GetSetting)
	g.PUT("/settings/:key", s.SetSetting)
	g.DELETE("/settings/:key", s.DeleteSetting)

	g.GET("/system/metrics/overview", s.GetMetricsOverview)
}
