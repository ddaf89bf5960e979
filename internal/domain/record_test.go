package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rec(station string, ts time.Time, fields map[string]float64) Record {
	return Record{StationID: station, Time: ts, Fields: fields}
}

func TestRecordID_Deterministic(t *testing.T) {
	ts := time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC)

	a := rec("ribeira", ts, nil)
	b := rec("ribeira", ts, map[string]float64{"salinity_1_5m": 34.1})

	assert.Equal(t, a.ID(), b.ID(), "ID must depend only on station and time")
	assert.Contains(t, a.ID(), "ribeira-")

	c := rec("cortegada", ts, nil)
	assert.NotEqual(t, a.ID(), c.ID())
}

func TestConsolidate_KeepsLastDuplicate(t *testing.T) {
	ts := time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC)

	recs := []Record{
		rec("ribeira", ts, map[string]float64{"salinity_1_5m": 1}),
		rec("ribeira", ts.Add(time.Hour), nil),
		rec("ribeira", ts, map[string]float64{"salinity_1_5m": 2}),
	}

	out, removed := Consolidate(recs)
	require.Len(t, out, 2)
	assert.Equal(t, 1, removed)

	v, ok := out[0].Field("salinity_1_5m")
	require.True(t, ok)
	assert.Equal(t, 2.0, v, "later duplicate wins")
}

func TestConsolidate_SortsByStationThenTime(t *testing.T) {
	ts := time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC)

	recs := []Record{
		rec("ribeira", ts.Add(time.Hour), nil),
		rec("cortegada", ts.Add(2*time.Hour), nil),
		rec("ribeira", ts, nil),
		rec("cortegada", ts, nil),
	}

	out, removed := Consolidate(recs)
	require.Len(t, out, 4)
	assert.Zero(t, removed)

	assert.Equal(t, "cortegada", out[0].StationID)
	assert.Equal(t, ts, out[0].Time)
	assert.Equal(t, "cortegada", out[1].StationID)
	assert.Equal(t, "ribeira", out[2].StationID)
	assert.Equal(t, ts, out[2].Time)
}

func TestCountOutOfRange(t *testing.T) {
	ts := time.Date(2023, 5, 12, 10, 0, 0, 0, time.UTC)

	recs := []Record{
		rec("ribeira", ts, map[string]float64{"temperature_1_5m": 17.2, "salinity_1_5m": 34.0}),
		rec("ribeira", ts.Add(time.Hour), map[string]float64{"temperature_1_5m": 99.0}),
		rec("ribeira", ts.Add(2*time.Hour), map[string]float64{"salinity_1_5m": -3.0}),
	}

	counts := CountOutOfRange(recs, MooringRanges)

	assert.Equal(t, 1, counts["temperature_1_5m"])
	assert.Equal(t, 1, counts["salinity_1_5m"])
	assert.Zero(t, counts["temperature_3m"])
}

func TestParseDecimal(t *testing.T) {
	v, ok := ParseDecimal(" 34,12 ")
	assert.True(t, ok)
	assert.Equal(t, 34.12, v)

	v, ok = ParseDecimal("17.5")
	assert.True(t, ok)
	assert.Equal(t, 17.5, v)

	_, ok = ParseDecimal("")
	assert.False(t, ok)

	_, ok = ParseDecimal("n/d")
	assert.False(t, ok)
}

func TestParseMooringTime(t *testing.T) {
	got, ok := ParseMooringTime("2023/05/12 10:30")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 12, 10, 30, 0, 0, time.UTC), got)

	_, ok = ParseMooringTime("12/05/2023 10:30")
	assert.False(t, ok)
}

func TestParseCTDTime_DayFirst(t *testing.T) {
	got, ok := ParseCTDTime("12/05/2023 10:30")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 12, 10, 30, 0, 0, time.UTC), got)

	got, ok = ParseCTDTime("12/05/2023")
	assert.True(t, ok)
	assert.Equal(t, time.Date(2023, 5, 12, 0, 0, 0, 0, time.UTC), got)

	_, ok = ParseCTDTime("not a date")
	assert.False(t, ok)
}
