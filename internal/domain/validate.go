package domain

// Range bounds a physically plausible value interval, inclusive.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies inside the range.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// MooringRanges are the valid intervals for the unified mooring columns.
// Temperature in °C for Galician coastal waters, salinity in PSU for estuaries.
var MooringRanges = map[string]Range{
	"temperature_1_5m": {Min: -5, Max: 35},
	"temperature_3m":   {Min: -5, Max: 35},
	"salinity_1_5m":    {Min: 0, Max: 40},
	"salinity_3m":      {Min: 0, Max: 40},
}

// CTDRanges are the valid intervals for CTD cast variables.
var CTDRanges = map[string]Range{
	"temperature": {Min: -2, Max: 40},
	"salinity":    {Min: 0, Max: 50},
	"depth":       {Min: 0, Max: 500},
}

// CountOutOfRange counts, per field, values falling outside the given ranges.
// Values are counted and reported, never mutated: flagging bad sensor readings
// is a QC decision left to the analyst.
func CountOutOfRange(recs []Record, ranges map[string]Range) map[string]int {
	counts := make(map[string]int)
	for _, rec := range recs {
		for field, rng := range ranges {
			v, ok := rec.Field(field)
			if !ok {
				continue
			}
			if !rng.Contains(v) {
				counts[field]++
			}
		}
	}
	return counts
}
