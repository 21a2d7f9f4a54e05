package finder

import (
	"sort"
	"strings"
)

// Sort orders results in place by "key-direction". Keys are name, cuisine,
// address and hours (the raw opening_hours text); comparison ignores case.
// Any direction other than "asc" sorts descending. Unknown keys keep the order.
func Sort(results []*Restaurant, sortBy string) {
	key, direction, _ := strings.Cut(sortBy, "-")
	var field func(*Restaurant) string
	switch key {
	case "name":
		field = func(r *Restaurant) string { return r.Name }
	case "cuisine":
		field = func(r *Restaurant) string { return r.Cuisine }
	case "address":
		field = func(r *Restaurant) string { return r.Address }
	case "hours":
		field = func(r *Restaurant) string { return r.OpeningHours }
	default:
		return
	}

	asc := direction == "asc"
	sort.SliceStable(results, func(i, j int) bool {
		a, b := strings.ToLower(field(results[i])), strings.ToLower(field(results[j]))
		if asc {
			return a < b
		}
		return a > b
	})
}

// IsValidSort reports whether sortBy names a known key and direction.
func IsValidSort(sortBy string) bool {
	key, direction, ok := strings.Cut(sortBy, "-")
	if !ok || (direction != "asc" && direction != "desc") {
		return false
	}
	switch key {
	case "name", "cuisine", "address", "hours":
		return true
	}
	return false
}
