package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"time"
)

// Station is a measurement site: a river gauge, mooring, or CTD cast point.
type Station struct {
	ID        int     `json:"id" yaml:"id"`
	Name      string  `json:"name" yaml:"name"`
	River     string  `json:"river,omitempty" yaml:"river,omitempty"`
	Lat       float64 `json:"lat" yaml:"lat"`
	Lon       float64 `json:"lon" yaml:"lon"`
	Concello  string  `json:"concello,omitempty" yaml:"concello,omitempty"`
	Provincia string  `json:"provincia,omitempty" yaml:"provincia,omitempty"`
}

// Record is one row of a unified observation table: a station, an instant, and
// a set of named numeric fields (data values and QC flags). A field absent
// from Fields is missing; there is no NaN sentinel.
type Record struct {
	StationID   string    `json:"station_id"`
	StationName string    `json:"station_name,omitempty"`
	Lat         float64   `json:"lat,omitempty"`
	Lon         float64   `json:"lon,omitempty"`
	HasCoords   bool      `json:"-"`
	Time        time.Time `json:"time"`

	Fields map[string]float64 `json:"fields"`

	SourceFile  string    `json:"source_file,omitempty"`
	ProcessedAt time.Time `json:"processed_at"`
}

// Field returns the named field value and whether it is present.
func (r Record) Field(name string) (float64, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// SetField stores a field value, allocating the map on first use.
func (r *Record) SetField(name string, v float64) {
	if r.Fields == nil {
		r.Fields = make(map[string]float64)
	}
	r.Fields[name] = v
}

// ID produces a deterministic identifier from the record's dedup key.
// Reprocessing the same raw file yields the same ID, so downstream upserts
// are idempotent.
func (r Record) ID() string {
	input := fmt.Sprintf("%s|%d", r.StationID, r.Time.UTC().Unix())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if r.StationID == "" {
		return short
	}
	return r.StationID + "-" + short
}

// Consolidate removes duplicate (station, time) rows keeping the last
// occurrence, then sorts by station and time. Returns the deduplicated slice
// and the number of rows removed.
func Consolidate(recs []Record) ([]Record, int) {
	type key struct {
		station string
		unix    int64
	}
	last := make(map[key]int, len(recs))
	for i, r := range recs {
		last[key{r.StationID, r.Time.Unix()}] = i
	}

	out := make([]Record, 0, len(last))
	for i, r := range recs {
		if last[key{r.StationID, r.Time.Unix()}] == i {
			out = append(out, r)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StationID != out[j].StationID {
			return out[i].StationID < out[j].StationID
		}
		return out[i].Time.Before(out[j].Time)
	})

	return out, len(recs) - len(out)
}
