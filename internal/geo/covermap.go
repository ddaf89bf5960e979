package geo

import (
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

var (
	riverColor   = color.RGBA{R: 31, G: 119, B: 180, A: 160}
	stationColor = color.RGBA{R: 214, G: 39, B: 40, A: 255}
)

// CoverageMap renders the filtered river network with the gauging stations on
// top, in Web Mercator so distances look right at this latitude. It answers
// the question of whether the station set actually covers the basin.
func CoverageMap(rivers *geojson.FeatureCollection, stations []domain.Station, bbox orb.Bound, outPath string, logger *slog.Logger) error {
	p := plot.New()
	p.Title.Text = "Arousa basin: river network and gauging stations"
	p.X.Label.Text = "easting (m)"
	p.Y.Label.Text = "northing (m)"

	segments := 0
	for _, feat := range rivers.Features {
		g := clip.Geometry(bbox, feat.Geometry)
		if g == nil {
			continue
		}
		g = project.Geometry(g, project.WGS84.ToMercator)
		for _, ls := range lineStrings(g) {
			if len(ls) < 2 {
				continue
			}
			line, err := plotter.NewLine(lineXYs(ls))
			if err != nil {
				return fmt.Errorf("plot river segment: %w", err)
			}
			line.Color = riverColor
			line.Width = vg.Points(1.5)
			p.Add(line)
			segments++
		}
	}
	if segments == 0 {
		return fmt.Errorf("no river segments inside %v", bbox)
	}

	var pts plotter.XYs
	var names []string
	for _, st := range stations {
		if !bbox.Contains(orb.Point{st.Lon, st.Lat}) {
			continue
		}
		m := project.WGS84.ToMercator(orb.Point{st.Lon, st.Lat})
		pts = append(pts, plotter.XY{X: m[0], Y: m[1]})
		names = append(names, st.Name)
	}

	if len(pts) > 0 {
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("plot stations: %w", err)
		}
		scatter.GlyphStyle.Color = stationColor
		scatter.GlyphStyle.Radius = vg.Points(4)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)

		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: names})
		if err != nil {
			return fmt.Errorf("plot station labels: %w", err)
		}
		p.Add(labels)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := p.Save(10*vg.Inch, 10*vg.Inch, outPath); err != nil {
		return fmt.Errorf("save map: %w", err)
	}

	logger.Info("coverage map written", "path", outPath, "segments", segments, "stations", len(pts))
	return nil
}

// lineStrings flattens any clipped geometry down to its line strings.
func lineStrings(g orb.Geometry) []orb.LineString {
	switch g := g.(type) {
	case orb.LineString:
		return []orb.LineString{g}
	case orb.MultiLineString:
		return g
	case orb.Collection:
		var out []orb.LineString
		for _, sub := range g {
			out = append(out, lineStrings(sub)...)
		}
		return out
	default:
		return nil
	}
}

func lineXYs(ls orb.LineString) plotter.XYs {
	xys := make(plotter.XYs, len(ls))
	for i, pt := range ls {
		xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
	}
	return xys
}
