package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mbouzas/arousa-etl/internal/adapter/store"
	"github.com/mbouzas/arousa-etl/internal/config"
	"github.com/mbouzas/arousa-etl/internal/ingest/ctd"
	"github.com/mbouzas/arousa-etl/internal/ncdf"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the local data holdings end to end",
	Long: `Run integrity checks over everything on disk: configuration, the CTD
coordinate file, every downloaded grid, grid coverage of the study target
point, and database reachability. Exits non-zero when any phase fails.`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}

// phase tracks pass/fail for one verification phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func runVerify(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("configuration: %w", err)
	}

	phases := []*phase{
		verifyCoords(cfg),
		verifyGrids(cfg),
		verifyDatabase(cmd, cfg),
	}

	failed := 0
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		failed++
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      %s\n", e)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d phases failed", failed, len(phases))
	}
	fmt.Printf("all %d phases passed\n", len(phases))
	return nil
}

func verifyCoords(cfg *config.Config) *phase {
	p := &phase{name: "ctd coordinates"}
	coords, err := ctd.LoadCoords(cfg.CoordsFile, newLogger(cfg))
	if err != nil {
		p.errorf("load %s: %v", cfg.CoordsFile, err)
		return p
	}
	for id, c := range coords {
		if c.Lat < cfg.BboxMinLat-0.5 || c.Lat > cfg.BboxMaxLat+0.5 ||
			c.Lon < cfg.BboxMinLon-0.5 || c.Lon > cfg.BboxMaxLon+0.5 {
			p.errorf("station %s coordinates (%.4f, %.4f) far outside the study area", id, c.Lat, c.Lon)
		}
	}
	return p
}

func verifyGrids(cfg *config.Config) *phase {
	p := &phase{name: "wrf grids"}

	var files []string
	err := filepath.WalkDir(cfg.WRFDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".nc") {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			p.errorf("no grid directory at %s (run download first)", cfg.WRFDir)
		} else {
			p.errorf("scan %s: %v", cfg.WRFDir, err)
		}
		return p
	}
	if len(files) == 0 {
		p.errorf("no grid files under %s", cfg.WRFDir)
		return p
	}

	corrupt := 0
	for _, f := range files {
		if err := ncdf.ValidateFile(f); err != nil {
			corrupt++
			if corrupt <= 5 {
				p.errorf("%s: %v", filepath.Base(f), err)
			}
		}
	}
	if corrupt > 5 {
		p.errorf("... and %d more corrupt grids", corrupt-5)
	}

	// The study target point must fall inside the grid extent.
	if corrupt == 0 {
		bounds, err := ncdf.GridBounds(files[0])
		if err != nil {
			p.errorf("read grid bounds: %v", err)
		} else if !bounds.Contains(cfg.TargetLat, cfg.TargetLon) {
			p.errorf("target point (%.2f, %.2f) outside grid extent %s", cfg.TargetLat, cfg.TargetLon, bounds)
		}
	}
	return p
}

func verifyDatabase(cmd *cobra.Command, cfg *config.Config) *phase {
	p := &phase{name: "database"}
	st, err := store.Open(cfg.DBDriver, cfg.DBDSN, newLogger(cfg))
	if err != nil {
		p.errorf("open %s: %v", cfg.DBDriver, err)
		return p
	}
	defer st.Close()

	if err := st.CreateSchema(cmd.Context()); err != nil {
		p.errorf("schema: %v", err)
		return p
	}
	sts, err := st.Stations(cmd.Context())
	if err != nil {
		p.errorf("query stations: %v", err)
		return p
	}
	if len(sts) == 0 {
		p.errorf("no stations in database (run stations seed --db)")
	}
	return p
}
