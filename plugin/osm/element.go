package osm

import (
	"strings"

	"github.com/tidwall/gjson"
)

const (
	UnnamedRestaurant   = "Unnamed Restaurant"
	UnknownCuisine      = "unknown"
	AddressNotAvailable = "Address not available"
)

// Element is one Overpass result: a node, way or relation with its tags.
type Element struct {
	ID   int64
	Type string
	Lat  float64
	Lon  float64
	Tags map[string]string
}

// ParseElements extracts the "elements" array of an Overpass response.
// Ways and relations have no coordinates of their own; "out center" gives
// them a center point which is used instead.
func ParseElements(body []byte) []*Element {
	results := gjson.GetBytes(body, "elements").Array()
	elements := make([]*Element, 0, len(results))
	for _, r := range results {
		el := &Element{
			ID:   r.Get("id").Int(),
			Type: r.Get("type").String(),
			Tags: map[string]string{},
		}
		if lat := r.Get("lat"); lat.Exists() {
			el.Lat, el.Lon = lat.Float(), r.Get("lon").Float()
		} else if center := r.Get("center"); center.Exists() {
			el.Lat, el.Lon = center.Get("lat").Float(), center.Get("lon").Float()
		}
		r.Get("tags").ForEach(func(key, value gjson.Result) bool {
			el.Tags[key.String()] = value.String()
			return true
		})
		elements = append(elements, el)
	}
	return elements
}

// Name returns the name tag or the unnamed placeholder.
func (e *Element) Name() string {
	if name := e.Tags["name"]; name != "" {
		return name
	}
	return UnnamedRestaurant
}

// Cuisine returns the lower-cased cuisine tag.
func (e *Element) Cuisine() string {
	if cuisine := e.Tags["cuisine"]; cuisine != "" {
		return strings.ToLower(cuisine)
	}
	return UnknownCuisine
}

// Address joins the addr:* tags that are present.
func (e *Element) Address() string {
	parts := make([]string, 0, 4)
	for _, key := range []string{"addr:housenumber", "addr:street", "addr:city", "addr:postcode"} {
		if v := e.Tags[key]; v != "" {
			parts = append(parts, v)
		}
	}
	if len(parts) == 0 {
		return AddressNotAvailable
	}
	return strings.Join(parts, " ")
}

// OpeningHours returns the raw opening_hours tag and whether it is set.
func (e *Element) OpeningHours() (string, bool) {
	v, ok := e.Tags["opening_hours"]
	return v, ok && v != ""
}
