// Package ncdf inspects the WRF precipitation grids. It validates downloads
// before they are accepted and extracts the grid extent for coverage checks.
package ncdf

import (
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
)

// PrecVariable is the hourly precipitation field in the archive grids.
const PrecVariable = "prec"

// ValidateFile checks that path is a readable NetCDF file containing a
// non-empty precipitation variable.
func ValidateFile(path string) error {
	nc, err := netcdf.Open(path)
	if err != nil {
		return fmt.Errorf("open netcdf: %w", err)
	}
	defer nc.Close()

	v, err := nc.GetVariable(PrecVariable)
	if err != nil {
		return fmt.Errorf("variable %q: %w", PrecVariable, err)
	}
	if v == nil || countValues(v.Values) == 0 {
		return fmt.Errorf("variable %q is empty", PrecVariable)
	}
	return nil
}

// Bounds is a geographic bounding box in decimal degrees.
type Bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b Bounds) Contains(lat, lon float64) bool {
	return lat >= b.MinLat && lat <= b.MaxLat && lon >= b.MinLon && lon <= b.MaxLon
}

func (b Bounds) String() string {
	return fmt.Sprintf("lat [%.4f, %.4f] lon [%.4f, %.4f]", b.MinLat, b.MaxLat, b.MinLon, b.MaxLon)
}

// GridBounds reads the coordinate variables of a grid file and returns its
// extent. MeteoGalicia names them lat/lon; older files use latitude/longitude.
func GridBounds(path string) (Bounds, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return Bounds{}, fmt.Errorf("open netcdf: %w", err)
	}
	defer nc.Close()

	lats, err := coordValues(nc, "lat", "latitude")
	if err != nil {
		return Bounds{}, err
	}
	lons, err := coordValues(nc, "lon", "longitude")
	if err != nil {
		return Bounds{}, err
	}

	b := Bounds{
		MinLat: math.Inf(1), MaxLat: math.Inf(-1),
		MinLon: math.Inf(1), MaxLon: math.Inf(-1),
	}
	for _, v := range lats {
		b.MinLat = math.Min(b.MinLat, v)
		b.MaxLat = math.Max(b.MaxLat, v)
	}
	for _, v := range lons {
		b.MinLon = math.Min(b.MinLon, v)
		b.MaxLon = math.Max(b.MaxLon, v)
	}
	return b, nil
}

// VariableInfo describes one variable, for the verify command.
type VariableInfo struct {
	Name       string
	Dimensions []string
	Size       int
}

// Describe lists every variable in a grid file.
func Describe(path string) ([]VariableInfo, error) {
	nc, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open netcdf: %w", err)
	}
	defer nc.Close()

	var infos []VariableInfo
	for _, name := range nc.ListVariables() {
		v, err := nc.GetVariable(name)
		if err != nil || v == nil {
			continue
		}
		infos = append(infos, VariableInfo{
			Name:       name,
			Dimensions: v.Dimensions,
			Size:       countValues(v.Values),
		})
	}
	return infos, nil
}

func coordValues(nc api.Group, names ...string) ([]float64, error) {
	for _, name := range names {
		v, err := nc.GetVariable(name)
		if err != nil || v == nil {
			continue
		}
		if vals := flatten(v.Values); len(vals) > 0 {
			return vals, nil
		}
	}
	return nil, fmt.Errorf("no coordinate variable found (tried %s)", strings.Join(names, ", "))
}

// flatten collects every numeric leaf of a possibly nested slice value. Grid
// coordinates come back as []float64 or [][]float32 depending on whether the
// grid is rectilinear or curvilinear.
func flatten(values any) []float64 {
	var out []float64
	var walk func(rv reflect.Value)
	walk = func(rv reflect.Value) {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for i := 0; i < rv.Len(); i++ {
				walk(rv.Index(i))
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, rv.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out = append(out, float64(rv.Int()))
		case reflect.Interface:
			if !rv.IsNil() {
				walk(rv.Elem())
			}
		}
	}
	if values != nil {
		walk(reflect.ValueOf(values))
	}
	return out
}

func countValues(values any) int {
	return len(flatten(values))
}
