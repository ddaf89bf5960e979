// Package stations carries the curated gauging-station list for the Arousa
// basin. The live feed drops stations without warning, so this hand-checked
// set, verified against the MeteoGalicia web viewer, is the fallback of
// record.
package stations

import "github.com/mbouzas/arousa-etl/internal/domain"

// Seed returns the curated station list. Callers get a fresh copy.
func Seed() []domain.Station {
	out := make([]domain.Station, len(seed))
	copy(out, seed)
	return out
}

var seed = []domain.Station{
	{ID: 140490, Name: "o_con", River: "rio do con", Lat: 42.5925, Lon: -8.7627, Concello: "Vilagarcia de arousa"},
	{ID: 140445, Name: "bermana_umia", River: "bermana", Lat: 42.6038, Lon: -8.64592, Concello: "Vilagarcia de arousa"},
	{ID: 140440, Name: "umia_caldas", River: "Umia", Lat: 42.6029, Lon: -8.64249, Concello: "Caldas de Reis"},
	{ID: 140470, Name: "Baixo_umia", River: "Umia", Lat: 42.5154, Lon: -8.76556, Concello: "Ribadumia"},
	{ID: 140545, Name: "ulla_padron", River: "ulla", Lat: 42.7313, Lon: -8.62795, Concello: "Padron"},
	{ID: 140570, Name: "sar_padron", River: "sar", Lat: 42.7457, Lon: -8.65923, Concello: "Padron"},
	{ID: 140540, Name: "ulla_teo", River: "ulla", Lat: 42.7595, Lon: -8.54767, Concello: "teo"},
	{ID: 140560, Name: "sar_ames", River: "sar", Lat: 42.8220, Lon: -8.65198, Concello: "bertamirans"},
	{ID: 140555, Name: "sar_bertamirans", River: "sar", Lat: 42.8564, Lon: -8.64814, Concello: "bertamirans"},
	{ID: 140548, Name: "sar_santiago", River: "sar", Lat: 42.8770, Lon: -8.52871, Concello: "santiago"},
	{ID: 140530, Name: "deza", River: "deza", Lat: 42.7771, Lon: -8.33756, Concello: "touro"},
	{ID: 140520, Name: "ulla_touro", River: "ulla", Lat: 42.8241, Lon: -8.27212, Concello: "touro"},
}
