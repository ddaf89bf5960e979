// Package geo extracts the river network around the Ría de Arousa from the
// regional hydrography shapefile and renders station coverage maps.
package geo

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	shp "github.com/jonas-p/go-shp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// nameFieldCandidates are the attribute columns that carry the river name,
// in preference order. Different shapefile editions use different names.
var nameFieldCandidates = []string{"NOME", "NOMBRE", "nombre", "RIO", "TEXTO"}

// FindShapefile walks root looking for the first shapefile whose name
// mentions rivers.
func FindShapefile(root string) (string, error) {
	var found string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || found != "" {
			return nil
		}
		name := strings.ToLower(d.Name())
		if strings.Contains(name, "rios") && strings.HasSuffix(name, ".shp") {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walk %s: %w", root, err)
	}
	if found == "" {
		return "", fmt.Errorf("no river shapefile under %s", root)
	}
	return found, nil
}

// ExtractRivers reads a shapefile and returns the named segments matching any
// of the basin keywords, reprojected to WGS84 where necessary.
func ExtractRivers(path string, keywords []string, logger *slog.Logger) (*geojson.FeatureCollection, error) {
	r, err := shp.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open shapefile: %w", err)
	}
	defer r.Close()

	nameIdx := -1
	var nameField string
	for i, f := range r.Fields() {
		for _, cand := range nameFieldCandidates {
			if f.String() == cand {
				nameIdx = i
				nameField = cand
				break
			}
		}
		if nameIdx >= 0 {
			break
		}
	}
	if nameIdx < 0 {
		cols := make([]string, 0, len(r.Fields()))
		for _, f := range r.Fields() {
			cols = append(cols, f.String())
		}
		return nil, fmt.Errorf("no name column in shapefile (have: %s)", strings.Join(cols, ", "))
	}
	logger.Debug("river name column detected", "column", nameField)

	upper := make([]string, len(keywords))
	for i, k := range keywords {
		upper[i] = strings.ToUpper(k)
	}

	fc := geojson.NewFeatureCollection()
	total := 0
	for r.Next() {
		row, shape := r.Shape()
		total++

		name := strings.TrimSpace(r.ReadAttribute(row, nameIdx))
		if !matchesAny(strings.ToUpper(name), upper) {
			continue
		}

		line, ok := shape.(*shp.PolyLine)
		if !ok {
			continue
		}

		feat := geojson.NewFeature(polylineGeometry(line))
		feat.Properties["name"] = name
		fc.Append(feat)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read shapefile: %w", err)
	}

	logger.Info("river segments filtered", "matched", len(fc.Features), "total", total)
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("no river segments matched keywords %v", keywords)
	}
	return fc, nil
}

func matchesAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if k != "" && strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// polylineGeometry converts a shapefile polyline to an orb geometry. Shapes
// with projected coordinates are converted to WGS84.
func polylineGeometry(line *shp.PolyLine) orb.Geometry {
	multi := make(orb.MultiLineString, 0, line.NumParts)
	for p := int32(0); p < line.NumParts; p++ {
		start := line.Parts[p]
		end := line.NumPoints
		if p+1 < line.NumParts {
			end = line.Parts[p+1]
		}
		ls := make(orb.LineString, 0, end-start)
		for _, pt := range line.Points[start:end] {
			ls = append(ls, toWGS84Point(pt.X, pt.Y))
		}
		if len(ls) > 1 {
			multi = append(multi, ls)
		}
	}
	if len(multi) == 1 {
		return multi[0]
	}
	return multi
}

// toWGS84Point treats coordinates outside the plausible lat/lon range as
// UTM zone 29N, which is what the source shapefiles use.
func toWGS84Point(x, y float64) orb.Point {
	if x >= -180 && x <= 180 && y >= -90 && y <= 90 {
		return orb.Point{x, y}
	}
	lat, lon := UTM29NToWGS84(x, y)
	return orb.Point{lon, lat}
}

// WriteGeoJSON writes a feature collection, creating parent directories.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	b, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode geojson: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write geojson: %w", err)
	}
	return nil
}

// ReadGeoJSON loads a previously extracted river network.
func ReadGeoJSON(path string) (*geojson.FeatureCollection, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read geojson: %w", err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(b)
	if err != nil {
		return nil, fmt.Errorf("decode geojson: %w", err)
	}
	return fc, nil
}
