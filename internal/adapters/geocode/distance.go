package geocode

import (
	"math"
	"regexp"
	"strings"

	"github.com/ivasko/courtline/internal/domain/model"
)

// earthRadiusKm is the mean Earth radius used for great-circle
// distances.
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance between two coordinates.
func DistanceKm(a, b model.Coordinate) float64 {
	latA := a.Lat * math.Pi / 180
	latB := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(latA)*math.Cos(latB)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// countryTag matches a trailing country marker such as "(HR)".
var countryTag = regexp.MustCompile(`\(([A-Za-z]{2})\)\s*$`)

// NormalizeLocality canonicalizes a raw residence string into a
// geocoding query plus the country code embedded in it, if any.
// "Spinut 12, Split (HR)" becomes ("spinut 12, split", "hr").
func NormalizeLocality(raw string) (query, country string) {
	query = strings.TrimSpace(raw)
	if m := countryTag.FindStringSubmatch(query); m != nil {
		country = strings.ToLower(m[1])
		query = strings.TrimSpace(query[:len(query)-len(m[0])])
	}
	query = strings.TrimSuffix(query, ",")
	query = strings.ToLower(strings.Join(strings.Fields(query), " "))
	return query, country
}
