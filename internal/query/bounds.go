package query

import (
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
)

// Bounds is a map viewport rectangle given by its north-east and
// south-west corners. All values follow the storage convention of
// longitude before latitude.
type Bounds struct {
	NELng, NELat float64
	SWLng, SWLat float64
}

// ParseBounds parses the decoded value of the bounds query parameter,
// which encodes both corners as "ne=<lng>,<lat>&sw=<lng>,<lat>". The
// second return is false when any of the four numbers is missing or
// unparseable; callers fall back to an unfiltered query in that case.
func ParseBounds(raw string) (Bounds, bool) {
	corners := map[string][2]float64{}

	for _, half := range strings.Split(raw, "&") {
		key, value, found := strings.Cut(half, "=")
		if !found {
			continue
		}
		parts := strings.Split(value, ",")
		if len(parts) != 2 {
			continue
		}
		lng, errLng := strconv.ParseFloat(parts[0], 64)
		lat, errLat := strconv.ParseFloat(parts[1], 64)
		if errLng != nil || errLat != nil {
			continue
		}
		corners[key] = [2]float64{lng, lat}
	}

	ne, okNE := corners["ne"]
	sw, okSW := corners["sw"]
	if !okNE || !okSW {
		return Bounds{}, false
	}

	return Bounds{
		NELng: ne[0], NELat: ne[1],
		SWLng: sw[0], SWLat: sw[1],
	}, true
}

// Filter builds the containment filter for lots whose point lies within
// the box. Corners are passed bottom-left then top-right, each as
// [lng, lat], matching the stored coordinate order.
func (b Bounds) Filter() bson.M {
	return bson.M{
		"location.shape.coordinates": bson.M{
			"$geoWithin": bson.M{
				"$box": bson.A{
					bson.A{b.SWLng, b.SWLat},
					bson.A{b.NELng, b.NELat},
				},
			},
		},
	}
}
