// Package geo extracts map coordinates from the loosely shaped location
// values the backend stores on posts. Every decoder is best-effort:
// unparsable input yields absence, never an error.
package geo

import (
	"encoding/json"
	"regexp"
	"strconv"
)

type LatLng struct {
	Lat float64
	Lng float64
}

var (
	queryRe = regexp.MustCompile(`[?&](?:q|query)=(-?[0-9.]+),(-?[0-9.]+)`)
	atRe    = regexp.MustCompile(`@(-?[0-9.]+),(-?[0-9.]+),`)
)

// FromGoogleMapsURL pulls lat/lng out of the common Google Maps URL
// shapes: ?q=lat,lng, ?query=lat,lng, and /@lat,lng,zoom.
func FromGoogleMapsURL(url string) (LatLng, bool) {
	for _, re := range []*regexp.Regexp{queryRe, atRe} {
		m := re.FindStringSubmatch(url)
		if m == nil {
			continue
		}
		lat, err1 := strconv.ParseFloat(m[1], 64)
		lng, err2 := strconv.ParseFloat(m[2], 64)
		if err1 == nil && err2 == nil {
			return LatLng{Lat: lat, Lng: lng}, true
		}
	}
	return LatLng{}, false
}

// FromLocation decodes a post's raw location field. Accepted shapes, in
// order: a Google Maps URL string, a GeoJSON Point (coordinates are
// [lng, lat]), flat latitude/longitude or lat/lng fields, and an object
// carrying a googleMapsUrl property.
func FromLocation(raw json.RawMessage) (LatLng, bool) {
	if len(raw) == 0 {
		return LatLng{}, false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return FromGoogleMapsURL(s)
	}

	var obj struct {
		Type          string    `json:"type"`
		Coordinates   []float64 `json:"coordinates"`
		Latitude      *float64  `json:"latitude"`
		Longitude     *float64  `json:"longitude"`
		Lat           *float64  `json:"lat"`
		Lng           *float64  `json:"lng"`
		Long          *float64  `json:"long"`
		GoogleMapsURL string    `json:"googleMapsUrl"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return LatLng{}, false
	}

	if obj.Type == "Point" && len(obj.Coordinates) >= 2 {
		return LatLng{Lat: obj.Coordinates[1], Lng: obj.Coordinates[0]}, true
	}
	if obj.Latitude != nil && obj.Longitude != nil {
		return LatLng{Lat: *obj.Latitude, Lng: *obj.Longitude}, true
	}
	if obj.Lat != nil && obj.Lng != nil {
		return LatLng{Lat: *obj.Lat, Lng: *obj.Lng}, true
	}
	if obj.Lat != nil && obj.Long != nil {
		return LatLng{Lat: *obj.Lat, Lng: *obj.Long}, true
	}
	if obj.GoogleMapsURL != "" {
		return FromGoogleMapsURL(obj.GoogleMapsURL)
	}
	return LatLng{}, false
}
