// Package server assembles the finder HTTP server.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/hrygo/finder/internal/profile"
	"github.com/hrygo/finder/plugin/ai"
	"github.com/hrygo/finder/plugin/osm"
	"github.com/hrygo/finder/internal/observability"
	"github.com/hrygo/finder/server/middleware"
	apiv1 "github.com/hrygo/finder/server/router/api/v1"
	"github.com/hrygo/finder/server/service/chat"
	"github.com/hrygo/finder/server/service/finder"
	"github.com/hrygo/finder/server/timezone"
	"github.com/hrygo/finder/store"
	"github.com/hrygo/finder/store/cache"
)

type Server struct {
	Profile *profile.Profile
	Store   *store.Store

	echoServer *echo.Echo
	cache      *cache.TieredCache
	metrics    *observability.Metrics
}

// NewServer wires the services onto an echo server. Redis and the AI
// assistant are optional and only enabled when configured.
func NewServer(ctx context.Context, profile *profile.Profile, st *store.Store) (*Server, error) {
	s := &Server{
		Profile: profile,
		Store:   st,
		metrics: observability.NewMetrics(),
	}

	location, err := timezone.ParseTimezone(profile.Timezone)
	if err != nil {
		slog.Warn("invalid timezone, falling back to UTC", "timezone", profile.Timezone, "error", err)
	}

	s.cache = NewSearchCache(ctx, profile)

	finderService := finder.NewService(finder.Config{
		Store: st,
		Locator: osm.NewClient(osm.Config{
			NominatimURL: profile.NominatimURL,
			OverpassURL:  profile.OverpassURL,
			UserAgent:    profile.UserAgent,
		}),
		Cache:    s.cache,
		Metrics:  s.metrics,
		Location: location,
	})
	chatService := chat.NewService(st, NewAssistant(profile))

	echoServer := echo.New()
	echoServer.HideBanner = true
	echoServer.HidePort = true
	echoServer.HTTPErrorHandler = apiv1.HTTPErrorHandler
	echoServer.Use(echomw.Recover())
	echoServer.Use(middleware.RequestLogger(middleware.LoggerConfig{
		Logger:  slog.Default(),
		Metrics: s.metrics,
		Skipper: func(c echo.Context) bool { return c.Path() == "/healthz" },
	}))
	echoServer.Use(middleware.NewRateLimiter(middleware.DefaultRate, middleware.DefaultBurst).Middleware())
	s.echoServer = echoServer

	apiv1.NewAPIV1Service(profile, finderService, chatService, st, s.metrics, location).RegisterRoutes(echoServer)
	return s, nil
}

// NewSearchCache returns the tiered search cache, with Redis as L2 when
// RedisAddr is set and reachable.
func NewSearchCache(ctx context.Context, profile *profile.Profile) *cache.TieredCache {
	config := cache.DefaultTieredConfig()
	if profile.RedisAddr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cache.DefaultRedisConfig(profile.RedisAddr))
		if err != nil {
			slog.Warn("redis unavailable, using memory cache only", "addr", profile.RedisAddr, "error", err)
		} else {
			config.L2 = redisCache
		}
	}
	return cache.NewTieredCache(config)
}

// NewAssistant returns nil when AI chat is disabled or misconfigured.
func NewAssistant(profile *profile.Profile) *ai.Assistant {
	if !profile.IsAIEnabled() {
		return nil
	}
	cfg := ai.DefaultConfig()
	cfg.APIKey = profile.AIAPIKey
	if profile.AIBaseURL != "" {
		cfg.BaseURL = profile.AIBaseURL
	}
	if profile.AIModel != "" {
		cfg.Model = profile.AIModel
	}
	if profile.AIMaxTokens > 0 {
		cfg.MaxTokens = profile.AIMaxTokens
	}
	if profile.AITemperature > 0 {
		cfg.Temperature = profile.AITemperature
	}
	provider, err := ai.NewProvider(cfg)
	if err != nil {
		slog.Warn("AI chat disabled", "error", err)
		return nil
	}
	slog.Info("AI chat enabled", "provider", provider.String())
	return ai.NewAssistant(provider, 0)
}

func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.Profile.Addr, s.Profile.Port)
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return errors.Wrap(err, "failed to listen")
	}
	s.echoServer.Listener = listener

	go func() {
		if err := s.echoServer.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("failed to start echo server", "error", err)
		}
	}()
	slog.Info("finder server started", "address", listener.Addr().String())
	return nil
}

func (s *Server) Shutdown(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	slog.Info("server shutting down")

	if err := s.echoServer.Shutdown(ctx); err != nil {
		slog.Error("failed to shutdown server", slog.String("error", err.Error()))
	}
	if err := s.cache.Close(); err != nil {
		slog.Error("failed to close cache", slog.String("error", err.Error()))
	}
	if err := s.Store.Close(); err != nil {
		slog.Error("failed to close database", slog.String("error", err.Error()))
	}

	slog.Info("finder stopped properly")
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.echoServer
}
