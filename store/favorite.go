package store

// Favorite is a saved restaurant. ID is the OSM element id.
type Favorite struct {
	ID           int64
	Name         string
	Cuisine      string
	Address      string
	OpeningHours string
	Lat          float64
	Lon          float64
	CreatedTs    int64
}

type FindFavorite struct {
	ID    *int64
	Limit *int
}

type DeleteFavorite struct {
	ID int64
}
