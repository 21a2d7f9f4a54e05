package v1

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/finder/internal/profile"
	"github.com/hrygo/finder/plugin/ai"
	"github.com/hrygo/finder/plugin/osm"
	"github.com/hrygo/finder/internal/observability"
	"github.com/hrygo/finder/server/service/chat"
	"github.com/hrygo/finder/server/service/finder"
	teststore "github.com/hrygo/finder/store/test"
)

type stubLocator struct {
	elements []*osm.Element
}

func (l *stubLocator) LookupArea(_ context.Context, place osm.Place) (int64, error) {
	if place.City == "Atlantis" {
		return 0, osm.ErrAreaNotFound
	}
	return 3600000001, nil
}

func (l *stubLocator) Restaurants(_ context.Context, _ int64) ([]*osm.Element, error) {
	return l.elements, nil
}

type MockLLM struct {
	mock.Mock
}

func (m *MockLLM) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

type testServer struct {
	echo    *echo.Echo
	llm     *MockLLM
	metrics *observability.Metrics
}

// newTestServer wires the API to a sqlite store. The clock is fixed at
// Wednesday 2025-01-15 10:00 UTC.
func newTestServer(t *testing.T, withChat bool) *testServer {
	t.Helper()
	ctx := context.Background()
	st := teststore.NewTestingStore(ctx, t)
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	metrics := observability.NewMetrics()
	finderService := finder.NewService(finder.Config{
		Store: st,
		Locator: &stubLocator{elements: []*osm.Element{
			{ID: 1, Type: "node", Lat: 1, Lon: 2, Tags: map[string]string{"name": "Cafe", "cuisine": "coffee_shop", "opening_hours": "Mo-Fr 08:00-12:00"}},
			{ID: 2, Type: "node", Lat: 3, Lon: 4, Tags: map[string]string{"name": "Late Night", "opening_hours": "18:00-02:00"}},
			{ID: 3, Type: "way", Lat: 5, Lon: 6, Tags: map[string]string{}},
		}},
		Metrics:  metrics,
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})

	llm := new(MockLLM)
	var assistant *ai.Assistant
	if withChat {
		assistant = ai.NewAssistant(llm, 2)
	}
	chatService := chat.NewService(st, assistant)

	e := echo.New()
	e.HTTPErrorHandler = HTTPErrorHandler
	NewAPIV1Service(&profile.Profile{Version: "test"}, finderService, chatService, st, metrics, time.UTC).RegisterRoutes(e)
	return &testServer{echo: e, llm: llm, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	s.echo.ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) && rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestSearchRestaurants(t *testing.T) {
	s := newTestServer(t, false)

	rec, body := s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield", "")
	require.Equal(t, http.StatusOK, rec.Code)
	restaurants := body["restaurants"].([]any)
	require.Len(t, restaurants, 3)
	first := restaurants[0].(map[string]any)
	assert.Equal(t, "Cafe", first["name"])
	assert.Equal(t, "open", first["state"])
	assert.Equal(t, "Open", first["badge"])
	assert.Equal(t, "coffee_shop", first["cuisine"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield&hide_unnamed=true", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["restaurants"], 2)
	assert.EqualValues(t, 1, body["hidden_count"])
	assert.Equal(t, "Found 2 result(s). (1 unnamed locations hidden)", body["message"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield&open_now=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["restaurants"], 1)

	rec, body = s.do(t, http.MethodGet, `/api/v1/restaurants?country=USA&city=Springfield&filter=state+%3D%3D+%22closed%22`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, body["restaurants"], 1)
	assert.Equal(t, "Late Night", body["restaurants"].([]any)[0].(map[string]any)["name"])
}

func TestSearchRestaurants_Errors(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		target string
		status int
		code   string
	}{
		{"/api/v1/restaurants?city=Springfield", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"/api/v1/restaurants?country=USA&city=Springfield&open_now=maybe", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"/api/v1/restaurants?country=USA&city=Springfield&filter=name", http.StatusBadRequest, "INVALID_ARGUMENT"},
		{"/api/v1/restaurants?country=Sea&city=Atlantis", http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		rec, body := s.do(t, http.MethodGet, tt.target, "")
		assert.Equal(t, tt.status, rec.Code, tt.target)
		assert.Equal(t, tt.code, body["code"], tt.target)
		assert.NotEmpty(t, body["error"], tt.target)
	}
}

func TestGetOpeningHours(t *testing.T) {
	s := newTestServer(t, false)

	tests := []struct {
		query  string
		state  string
		badge  string
		clause string
	}{
		{"value=Mo-Fr+09:00-17:00&at=2025-01-15+10:00", "open", "Open", "Mo-Fr 09:00-17:00"},
		{"value=Mo-Fr+09:00-17:00%3B+Jan+15+off&at=2025-01-15+10:00", "closed", "Closed", "Jan 15 off"},
		{"value=24/7&at=2025-01-15T10:00:00Z", "open", "Open", ""},
		{"value=Not+specified", "unknown", "Hours Unknown", ""},
		{"value=Mo-Fr+09:00-17:00&at=2025-01-15T08:30:00Z&tz=Europe/Paris", "open", "Open", "Mo-Fr 09:00-17:00"},
	}
	for _, tt := range tests {
		rec, body := s.do(t, http.MethodGet, "/api/v1/opening-hours?"+tt.query, "")
		require.Equal(t, http.StatusOK, rec.Code, tt.query)
		assert.Equal(t, tt.state, body["state"], tt.query)
		assert.Equal(t, tt.badge, body["badge"], tt.query)
		if tt.clause != "" {
			assert.Equal(t, tt.clause, body["clause"], tt.query)
		}
	}

	rec, body := s.do(t, http.MethodGet, "/api/v1/opening-hours", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_ARGUMENT", body["code"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/opening-hours?value=24/7&at=yesterday", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/opening-hours?value=24/7&tz=Mars/Olympus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFavorites(t *testing.T) {
	s := newTestServer(t, false)

	rec, body := s.do(t, http.MethodPost, "/api/v1/favorites",
		`{"id":2,"name":"Late Night","cuisine":"unknown","address":"Address not available","opening_hours":"18:00-02:00","lat":3,"lon":4,"state":"closed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, true, body["favorite"])
	assert.Equal(t, "closed", body["state"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/favorites", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["favorites"], 1)

	rec, body = s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield", "")
	require.Equal(t, http.StatusOK, rec.Code)
	for _, r := range body["restaurants"].([]any) {
		m := r.(map[string]any)
		assert.Equal(t, m["id"] == float64(2), m["favorite"], m["name"])
	}

	rec, body = s.do(t, http.MethodPost, "/api/v1/favorites/1/toggle", `{"name":"Cafe","opening_hours":"Mo-Fr 08:00-12:00"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["favorite"])

	rec, _ = s.do(t, http.MethodGet, "/api/v1/favorites/feed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentType), "application/rss+xml")
	assert.Contains(t, rec.Body.String(), "<title>Cafe</title>")
	assert.Contains(t, rec.Body.String(), "<title>Late Night</title>")

	rec, body = s.do(t, http.MethodPost, "/api/v1/favorites/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body["favorite"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/favorites/2", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, body = s.do(t, http.MethodDelete, "/api/v1/favorites/2", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/favorites/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, false)

	rec, _ := s.do(t, http.MethodGet, "/api/v1/settings/search.default_sort", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = s.do(t, http.MethodPut, "/api/v1/settings/search.default_sort", `{"value":"sideways"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body := s.do(t, http.MethodPut, "/api/v1/settings/search.default_sort", `{"value":"name-desc"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "name-desc", body["value"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/settings/search.default_sort", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "name-desc", body["value"])

	// The stored default now drives search order.
	_, body = s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield", "")
	assert.Equal(t, osm.UnnamedRestaurant, body["restaurants"].([]any)[0].(map[string]any)["name"])

	rec, _ = s.do(t, http.MethodPut, "/api/v1/settings/system.schema_version", `{"value":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/settings/system.schema_version", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/settings/search.default_sort", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/settings/search.default_sort", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat(t *testing.T) {
	s := newTestServer(t, true)
	s.llm.On("Chat", mock.Anything, mock.Anything).Return("Try the *espresso*.", nil)

	rec, body := s.do(t, http.MethodPost, "/api/v1/chat",
		`{"restaurant":{"name":"Cafe","cuisine":"coffee_shop","address":"1 Main St"},"initial":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	id, _ := body["conversation_id"].(string)
	require.NotEmpty(t, id)
	assert.Equal(t, "Try the *espresso*.", body["reply"])
	assert.Contains(t, body["html"], "<em>espresso</em>")
	assert.Equal(t, "Tell me about Cafe", body["display"])

	sent := s.llm.Calls[0].Arguments.Get(1).([]ai.Message)
	assert.Contains(t, sent[1].Content, "coffee shop cuisine")

	rec, body = s.do(t, http.MethodGet, "/api/v1/chat/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["messages"], 2)

	rec, _ = s.do(t, http.MethodPost, "/api/v1/chat", `{"conversation_id":"`+id+`","restaurant":{"name":"Cafe"},"message":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/v1/chat/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = s.do(t, http.MethodGet, "/api/v1/chat/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestChat_Disabled(t *testing.T) {
	s := newTestServer(t, false)
	rec, body := s.do(t, http.MethodPost, "/api/v1/chat", `{"restaurant":{"name":"Cafe"},"initial":true}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "LLM_UNAVAILABLE", body["code"])
}

func TestSystem(t *testing.T) {
	s := newTestServer(t, true)

	rec, body := s.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "test", body["version"])
	assert.Equal(t, true, body["ai_enabled"])

	s.do(t, http.MethodGet, "/api/v1/restaurants?country=USA&city=Springfield", "")
	rec, body = s.do(t, http.MethodGet, "/api/v1/system/metrics/overview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	verdicts := body["verdicts"].(map[string]any)
	assert.EqualValues(t, 1, verdicts["open"])
	assert.EqualValues(t, 1, verdicts["closed"])
	assert.EqualValues(t, 1, verdicts["unknown"])

	rec, body = s.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", body["code"])
}
