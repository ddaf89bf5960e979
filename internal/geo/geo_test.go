package geo

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestUTM29NToWGS84(t *testing.T) {
	// On the central meridian the easting is exactly the false easting and
	// the longitude must come back as -9.
	lat, lon := UTM29NToWGS84(500000, 4649776.22)
	require.InDelta(t, 42.0, lat, 1e-3)
	require.InDelta(t, -9.0, lon, 1e-4)

	// East of the central meridian.
	_, lon = UTM29NToWGS84(560000, 4700000)
	require.Greater(t, lon, -9.0)
	require.Less(t, lon, -8.0)

	// Latitude grows with northing.
	lat1, _ := UTM29NToWGS84(520000, 4700000)
	lat2, _ := UTM29NToWGS84(520000, 4750000)
	require.Greater(t, lat2, lat1)
}

func TestToWGS84Point(t *testing.T) {
	// Geographic coordinates pass through untouched.
	pt := toWGS84Point(-8.9, 42.5)
	require.Equal(t, orb.Point{-8.9, 42.5}, pt)

	// Projected coordinates get converted.
	pt = toWGS84Point(510000, 4706000)
	require.InDelta(t, 42.5, pt[1], 0.1)
	require.InDelta(t, -8.9, pt[0], 0.2)
}

func TestMatchesAny(t *testing.T) {
	keys := []string{"ULLA", "UMIA", "SAR"}
	require.True(t, matchesAny("RIO ULLA", keys))
	require.True(t, matchesAny("REGO DO SAR", keys))
	require.False(t, matchesAny("RIO MIÑO", keys))
	require.False(t, matchesAny("RIO ULLA", nil))
}

func TestFindShapefile(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "hidrografia", "rede")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "readme.txt"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Rios_galicia.shp"), nil, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(nested, "Rios_galicia.dbf"), nil, 0o644))

	path, err := FindShapefile(root)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(nested, "Rios_galicia.shp"), path)

	_, err = FindShapefile(t.TempDir())
	require.Error(t, err)
}

func riverFixture() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.LineString{
		{-8.95, 42.50}, {-8.80, 42.60}, {-8.66, 42.74},
	})
	f.Properties["name"] = "RIO ULLA"
	fc.Append(f)
	return fc
}

func TestGeoJSONRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "red_fluvial_arousa.geojson")
	require.NoError(t, WriteGeoJSON(path, riverFixture()))

	got, err := ReadGeoJSON(path)
	require.NoError(t, err)
	require.Len(t, got.Features, 1)
	require.Equal(t, "RIO ULLA", got.Features[0].Properties["name"])
}

func TestCoverageMap(t *testing.T) {
	out := filepath.Join(t.TempDir(), "maps", "coverage.png")
	bbox := orb.Bound{Min: orb.Point{-9.0, 42.45}, Max: orb.Point{-8.0, 42.90}}
	stations := []domain.Station{
		{ID: 140545, Name: "Ulla en Padron", Lat: 42.74, Lon: -8.66},
		{ID: 1, Name: "Out of box", Lat: 43.5, Lon: -7.0},
	}

	err := CoverageMap(riverFixture(), stations, bbox, out, discardLogger())
	require.NoError(t, err)

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Greater(t, info.Size(), int64(0))
}

func TestCoverageMapEmptyClip(t *testing.T) {
	out := filepath.Join(t.TempDir(), "coverage.png")
	// Bounding box nowhere near the fixture rivers.
	bbox := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
	err := CoverageMap(riverFixture(), nil, bbox, out, discardLogger())
	require.Error(t, err)
}
