package ctd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Coord is a WGS-84 cast position.
type Coord struct {
	Lat float64 `yaml:"lat"`
	Lon float64 `yaml:"lon"`
}

// defaultCoords are the historical INTECMAR cast positions in the Ría de
// Arousa, used to seed the coordinates file when it does not exist yet.
var defaultCoords = map[string]Coord{
	"A0": {Lat: 42.5181, Lon: -8.9818},
	"A1": {Lat: 42.5932, Lon: -8.9329},
	"A2": {Lat: 42.6074, Lon: -8.8893},
	"A3": {Lat: 42.6465, Lon: -8.8413},
	"A4": {Lat: 42.5681, Lon: -8.8894},
	"A5": {Lat: 42.5623, Lon: -8.8042},
	"A6": {Lat: 42.5991, Lon: -8.7765},
	"A7": {Lat: 42.4832, Lon: -8.8724},
	"A8": {Lat: 42.4865, Lon: -8.9371},
	"A9": {Lat: 42.5221, Lon: -9.0065},
	"AC": {Lat: 42.5505, Lon: -8.9102},
}

// LoadCoords reads the station coordinates table from a YAML file. When the
// file does not exist it is created from the built-in defaults, so a fresh
// checkout works without manual setup.
func LoadCoords(path string, logger *slog.Logger) (map[string]Coord, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if werr := writeDefaultCoords(path); werr != nil {
			return nil, werr
		}
		logger.Warn("coordinates file not found, created with defaults", "path", path)
		return defaultCoords, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read coordinates file: %w", err)
	}

	coords := make(map[string]Coord)
	if err := yaml.Unmarshal(data, &coords); err != nil {
		return nil, fmt.Errorf("parse coordinates file %s: %w", path, err)
	}
	logger.Info("coordinates loaded", "path", path, "stations", len(coords))
	return coords, nil
}

func writeDefaultCoords(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create coordinates dir: %w", err)
	}
	data, err := yaml.Marshal(defaultCoords)
	if err != nil {
		return fmt.Errorf("marshal default coordinates: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write coordinates file: %w", err)
	}
	return nil
}
