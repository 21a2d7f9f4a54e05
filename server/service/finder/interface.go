package finder

import (
	"context"

	"github.com/hrygo/finder/internal/openinghours"
	"github.com/hrygo/finder/plugin/osm"
	"github.com/hrygo/finder/store"
)

// Store is the interface for store operations needed by the finder service.
type Store interface {
	store.KV
	UpsertFavorite(ctx context.Context, upsert *store.Favorite) (*store.Favorite, error)
	ListFavorites(ctx context.Context, find *store.FindFavorite) ([]*store.Favorite, error)
	GetFavorite(ctx context.Context, id int64) (*store.Favorite, error)
	DeleteFavorite(ctx context.Context, delete *store.DeleteFavorite) error
}

// Locator resolves places and lists the restaurants inside them.
type Locator interface {
	LookupArea(ctx context.Context, place osm.Place) (int64, error)
	Restaurants(ctx context.Context, areaID int64) ([]*osm.Element, error)
}

// Restaurant is a search result or favorite with its current open state.
type Restaurant struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Cuisine      string             `json:"cuisine"`
	Address      string             `json:"address"`
	OpeningHours string             `json:"opening_hours"`
	Lat          float64            `json:"lat"`
	Lon          float64            `json:"lon"`
	State        openinghours.State `json:"state"`
	Badge        string             `json:"badge"`
	Favorite     bool               `json:"favorite"`
	Directions   string             `json:"directions_url"`
	// SavedAt is the unix time a favorite was added; zero for search results.
	SavedAt      int64              `json:"saved_at,omitempty"`
}

// SearchRequest holds the search form.
type SearchRequest struct {
	Country     string
	State       string
	City        string
	Cuisine     string
	OpenNow     bool
	HideUnnamed bool
	// Sort is "key-direction", e.g. "name-asc". Empty uses the stored default.
	Sort string
	// Filter is an optional CEL expression over name, cuisine, address, open and state.
	Filter string
}

// SearchResult is the outcome of a search.
type SearchResult struct {
	Restaurants []*Restaurant `json:"restaurants"`
	// HiddenCount is the number of unnamed restaurants dropped by HideUnnamed.
	HiddenCount int    `json:"hidden_count"`
	Message     string `json:"message"`
}
