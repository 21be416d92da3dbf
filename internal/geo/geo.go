// Package geo converts route geometry between GeoJSON and WKB and measures
// distances on the WGS84 sphere.
package geo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/wkb"
)

const earthRadiusMeters = 6371000

// ErrNotLineString is returned when a route geometry is not a LineString.
var ErrNotLineString = errors.New("geometry must be a LineString")

// EncodeRouteGeometry parses a GeoJSON LineString and returns its WKB form.
// An empty input yields nil.
func EncodeRouteGeometry(raw json.RawMessage) ([]byte, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var g geom.T
	if err := gjson.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("parse geojson: %w", err)
	}
	if _, ok := g.(*geom.LineString); !ok {
		return nil, ErrNotLineString
	}
	return wkb.Marshal(g, binary.LittleEndian)
}

// DecodeRouteGeometry converts stored WKB back into GeoJSON. Empty input
// yields nil.
func DecodeRouteGeometry(b []byte) (json.RawMessage, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return nil, fmt.Errorf("decode wkb: %w", err)
	}
	out, err := gjson.Marshal(g)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// LineLengthMeters sums the great-circle length of a WKB LineString.
func LineLengthMeters(b []byte) (float64, error) {
	g, err := wkb.Unmarshal(b)
	if err != nil {
		return 0, fmt.Errorf("decode wkb: %w", err)
	}
	ls, ok := g.(*geom.LineString)
	if !ok {
		return 0, ErrNotLineString
	}
	var total float64
	for i := 1; i < ls.NumCoords(); i++ {
		a, c := ls.Coord(i-1), ls.Coord(i)
		// GeoJSON order is lon, lat.
		total += Distance(a.Y(), a.X(), c.Y(), c.X())
	}
	return total, nil
}

// PointGeoJSON encodes a latitude/longitude as a GeoJSON Point.
func PointGeoJSON(lat, lng float64) (json.RawMessage, error) {
	p := geom.NewPointFlat(geom.XY, []float64{lng, lat})
	out, err := gjson.Marshal(p)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(out), nil
}

// ValidCoordinate reports whether lat/lng are within WGS84 bounds.
func ValidCoordinate(lat, lng float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lng) {
		return false
	}
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}

// Distance is the haversine distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// Bearing is the initial heading from the first point to the second, in
// degrees clockwise from north.
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := toRadians(lat1), toRadians(lat2)
	dLon := toRadians(lon2 - lon1)

	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return math.Mod(toDegrees(math.Atan2(y, x))+360, 360)
}

func toRadians(deg float64) float64 { return deg * math.Pi / 180 }

func toDegrees(rad float64) float64 { return rad * 180 / math.Pi }
