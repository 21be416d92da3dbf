package geo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteGeometryRoundTrip(t *testing.T) {
	raw := json.RawMessage(`{"type":"LineString","coordinates":[[36.8219,-1.2921],[36.8172,-1.2864]]}`)

	b, err := EncodeRouteGeometry(raw)
	require.NoError(t, err)
	require.NotEmpty(t, b)

	out, err := DecodeRouteGeometry(b)
	require.NoError(t, err)
	assert.JSONEq(t, string(raw), string(out))
}

func TestEncodeRouteGeometry_Empty(t *testing.T) {
	b, err := EncodeRouteGeometry(nil)
	assert.NoError(t, err)
	assert.Nil(t, b)

	b, err = EncodeRouteGeometry(json.RawMessage("null"))
	assert.NoError(t, err)
	assert.Nil(t, b)
}

func TestEncodeRouteGeometry_RejectsPoint(t *testing.T) {
	_, err := EncodeRouteGeometry(json.RawMessage(`{"type":"Point","coordinates":[36.8,-1.29]}`))
	assert.ErrorIs(t, err, ErrNotLineString)
}

func TestEncodeRouteGeometry_Malformed(t *testing.T) {
	_, err := EncodeRouteGeometry(json.RawMessage(`{"type":"LineString","coordinates":`))
	assert.Error(t, err)
}

func TestLineLengthMeters(t *testing.T) {
	// One degree of latitude along a meridian.
	b, err := EncodeRouteGeometry(json.RawMessage(`{"type":"LineString","coordinates":[[0,0],[0,1]]}`))
	require.NoError(t, err)

	length, err := LineLengthMeters(b)
	require.NoError(t, err)
	assert.InDelta(t, 111195, length, 1)
}

func TestPointGeoJSON(t *testing.T) {
	out, err := PointGeoJSON(-1.2921, 36.8219)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"Point","coordinates":[36.8219,-1.2921]}`, string(out))
}

func TestValidCoordinate(t *testing.T) {
	assert.True(t, ValidCoordinate(90, 180))
	assert.True(t, ValidCoordinate(-90, -180))
	assert.False(t, ValidCoordinate(90.1, 0))
	assert.False(t, ValidCoordinate(0, -180.5))
}

func TestDistanceAndBearing(t *testing.T) {
	assert.Zero(t, Distance(-1.29, 36.82, -1.29, 36.82))
	assert.InDelta(t, 0, Bearing(0, 0, 1, 0), 1e-9)
	assert.InDelta(t, 90, Bearing(0, 0, 0, 1), 1e-9)
	assert.InDelta(t, 270, Bearing(0, 0, 0, -1), 1e-9)
}
