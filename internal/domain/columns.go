package domain

import (
	"regexp"
	"strings"
)

// MooringColumns is the strict unified schema of the mooring table, in output
// order. Files missing a column still produce it (empty).
var MooringColumns = []string{
	"salinity_1_5m", "qc_salinity_1_5m",
	"temperature_1_5m", "qc_temperature_1_5m",
	"salinity_3m", "qc_salinity_3m",
	"temperature_3m", "qc_temperature_3m",
}

// CTDColumns is the preferred output order of the CTD cast table. Extra
// variables present in a file follow these, in rename-map order.
var CTDColumns = []string{
	"depth", "salinity", "qc_salinity", "temperature", "qc_temperature",
}

// CTDExtraColumns are the remaining CTD variables, appended after CTDColumns
// in the unified output.
var CTDExtraColumns = []string{
	"pressure_db", "ph", "oxygen_ml_l", "qc_oxygen",
	"transmittance", "irradiance", "fluorescence_uv",
	"fluorescence", "qc_fluorescence", "density",
	"temperature_its68", "conductivity",
}

// TimeColumn is the canonical name assigned to the timestamp column.
const TimeColumn = "time"

// depthRe matches explicit depths like "1,5 m", "1.5m", or "3 m".
var depthRe = regexp.MustCompile(`(\d+)[.,]?(\d*)\s*m`)

// DepthLabel extracts a normalized depth label from a column name, or ""
// if none is found. Semantic matches take priority over numeric ones so that
// "superficial (1 m)" and "superficial (1,5 m)" land in the same column.
func DepthLabel(column string) string {
	c := strings.ToLower(column)

	if strings.Contains(c, "superficial") {
		return "1_5m"
	}
	if strings.Contains(c, "inferior") || strings.Contains(c, "fondo") {
		return "3m"
	}

	m := depthRe.FindStringSubmatch(c)
	if m == nil {
		return ""
	}
	whole, frac := m[1], m[2]
	if frac != "" && frac != "0" {
		return whole + "_" + frac + "m"
	}
	return whole + "m"
}

// NormalizeHeader maps raw mooring header columns to canonical names, keyed by
// column index. Unmapped columns are absent from the result.
//
// QC mapping is positional: a validation column names the data column
// immediately before it. A validation column whose predecessor was not mapped
// is dropped.
func NormalizeHeader(header []string) map[int]string {
	mapped := make(map[int]string, len(header))

	for i, col := range header {
		c := strings.ToLower(strings.TrimSpace(col))

		if strings.Contains(c, "data") || strings.Contains(c, "fecha") {
			mapped[i] = TimeColumn
			continue
		}

		if strings.Contains(c, "validaci") {
			if prev, ok := mapped[i-1]; ok && prev != TimeColumn {
				mapped[i] = "qc_" + prev
			}
			continue
		}

		depth := DepthLabel(c)
		if depth == "" {
			continue
		}
		switch {
		case strings.Contains(c, "salinid"):
			mapped[i] = "salinity_" + depth
		case strings.Contains(c, "temperatura"):
			mapped[i] = "temperature_" + depth
		}
	}

	return mapped
}

// ctdRename maps the raw CTD export header tokens to canonical names.
var ctdRename = map[string]string{
	"Código":   "station_id",
	"Estacion": "station_name",
	"Data":     TimeColumn,

	"VAR_0":  "temperature",
	"VAR_1":  "salinity",
	"VAR_2":  "pressure_db",
	"VAR_3":  "ph",
	"VAR_4":  "oxygen_ml_l",
	"VAR_5":  "transmittance",
	"VAR_6":  "irradiance",
	"VAR_7":  "fluorescence_uv",
	"VAR_8":  "fluorescence",
	"VAR_9":  "density",
	"VAR_10": "depth",
	"VAR_11": "temperature_its68",
	"VAR_12": "conductivity",

	"CODVAL_0": "qc_temperature",
	"CODVAL_1": "qc_salinity",
	"CODVAL_4": "qc_oxygen",
	"CODVAL_8": "qc_fluorescence",
}

// CTDColumnName resolves a raw CTD header token to its canonical name.
// Tokens with no mapping return ("", false) and their column is ignored.
// The station-id token is matched accent-insensitively because exports vary
// between "Código" and "Codigo".
func CTDColumnName(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if name, ok := ctdRename[raw]; ok {
		return name, true
	}
	if strings.Contains(strings.ToLower(raw), "odigo") {
		return "station_id", true
	}
	return "", false
}
