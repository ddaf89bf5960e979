package kafka

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mbouzas/arousa-etl/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	ts := time.Date(2022, 3, 1, 12, 30, 0, 0, time.UTC)
	processed := time.Date(2022, 3, 2, 9, 0, 0, 0, time.UTC)
	rec := domain.Record{
		StationID:   "ribeira",
		StationName: "ribeira",
		Lat:         42.551633,
		Lon:         -8.946442,
		HasCoords:   true,
		Time:        ts,
		Fields:      map[string]float64{"salinity_1_5m": 35.2},
		SourceFile:  "ribeira.csv",
		ProcessedAt: processed,
	}

	msg, err := serializeToMessage(rec)
	require.NoError(t, err)

	assert.Equal(t, []byte(rec.ID()), msg.Key)
	assert.Contains(t, string(msg.Value), `"station_id":"ribeira"`)
	assert.Contains(t, string(msg.Value), `"salinity_1_5m":35.2`)

	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "station", msg.Headers[0].Key)
	assert.Equal(t, []byte("ribeira"), msg.Headers[0].Value)
	assert.Equal(t, "processed_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(processed.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestSerializeToMessageStableKey(t *testing.T) {
	ts := time.Date(2022, 3, 1, 12, 30, 0, 0, time.UTC)
	a := domain.Record{StationID: "ribeira", Time: ts, Fields: map[string]float64{"x": 1}}
	b := domain.Record{StationID: "ribeira", Time: ts, Fields: map[string]float64{"x": 2}}

	ma, err := serializeToMessage(a)
	require.NoError(t, err)
	mb, err := serializeToMessage(b)
	require.NoError(t, err)

	// Same station and time produce the same key regardless of values.
	assert.Equal(t, ma.Key, mb.Key)
}
