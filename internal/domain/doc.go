// Package domain models hydrographic observation data for the Ría de Arousa.
//
// # Data Sources
//
// Observations come from three INTECMAR/MeteoGalicia products:
//
//   - Continuous mooring exports (Ribeira, Cortegada): semicolon-separated CSV,
//     comma decimals, Latin-1 encoding. Each data column carries salinity or
//     temperature at a nominal depth; a data column may be followed by a
//     validation (QC) column.
//   - CTD cast exports: tab-separated TXT with a free-form preamble before the
//     header line. Variables are exported as VAR_0..VAR_12 with QC flags in
//     CODVAL_n columns.
//   - River gauge metadata: live JSON from the MeteoGalicia "ultimoAforos"
//     endpoint, or a hand-curated seed list.
//
// # Column Conventions
//
// Depth labels are normalized semantically before falling back to numbers:
//
//	"superficial"          → 1_5m   (surface sensors sit at ~1.5 m regardless
//	                                 of whether the export says 1 m or 1.5 m)
//	"inferior" / "fondo"   → 3m
//	"<n>[.,]<d> m"         → n_dm   (numeric fallback, e.g. "1,5 m" → 1_5m)
//
// QC columns are mapped STRICTLY POSITIONALLY: a validation column always
// refers to the data column immediately preceding it in the export. Matching
// QC columns by name is unreliable because the exports repeat variable names
// across depths.
//
// Header text is matched on accent-free fragments ("validaci", "odigo") so the
// same logic handles Galician and Spanish export variants.
//
// # Physical Ranges
//
// Values outside physically plausible ranges for Galician coastal waters are
// counted and reported but not dropped, mirroring the warn-only policy of the
// source archive:
//
//	Mooring: temperature −5..35 °C, salinity 0..40 PSU (estuary)
//	CTD:     temperature −2..40 °C, salinity 0..50 PSU, depth ≤ 500 m
//
// # ID Generation
//
// Record IDs are deterministic SHA-256 hashes of station|timestamp. This
// enables idempotent SQL upserts (ON CONFLICT DO NOTHING) and safe replays of
// the unification jobs without coordination. See [Record.ID].
package domain
