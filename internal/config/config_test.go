package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "data/raw", cfg.RawDir)
	assert.Equal(t, "data/raw/c2", cfg.MooringDir)
	assert.Equal(t, "data/raw/c1", cfg.CTDDir)
	assert.Equal(t, "config/ctd_coordinates.yaml", cfg.CoordsFile)
	assert.Contains(t, cfg.BasinKeywords, "Ulla")
	assert.Equal(t, []string{"ULLA", "UMIA", "SAR"}, cfg.RiverKeywords)
	assert.Equal(t, time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.False(t, cfg.EndDate.Before(cfg.StartDate))
	assert.Equal(t, 3, cfg.MaxRetries)
	assert.Equal(t, 2*time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.RequestDelay)
	assert.Equal(t, 60*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, int64(1000), cfg.MinFileSize)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, "sqlite3", cfg.DBDriver)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("AROUSA_DATA_RAW_DIR", "/srv/arousa/raw")
	t.Setenv("AROUSA_BASIN_STATION_KEYWORDS", "Ulla, Deza")
	t.Setenv("AROUSA_DOWNLOAD_START_DATE", "2022-01-01")
	t.Setenv("AROUSA_DOWNLOAD_END_DATE", "2022-12-31")
	t.Setenv("AROUSA_DOWNLOAD_MAX_RETRIES", "5")
	t.Setenv("AROUSA_KAFKA_ENABLED", "true")
	t.Setenv("AROUSA_KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("AROUSA_LOG_FORMAT", "text")

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "/srv/arousa/raw", cfg.RawDir)
	assert.Equal(t, []string{"Ulla", "Deza"}, cfg.BasinKeywords)
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), cfg.StartDate)
	assert.Equal(t, time.Date(2022, 12, 31, 0, 0, 0, 0, time.UTC), cfg.EndDate)
	assert.Equal(t, 5, cfg.MaxRetries)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidWindow(t *testing.T) {
	t.Setenv("AROUSA_DOWNLOAD_START_DATE", "2023-06-01")
	t.Setenv("AROUSA_DOWNLOAD_END_DATE", "2023-01-01")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start_date")
}

func TestLoad_InvalidDriver(t *testing.T) {
	t.Setenv("AROUSA_DB_DRIVER", "oracle")

	_, err := Load(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db.driver")
}

func TestLoad_BadDate(t *testing.T) {
	t.Setenv("AROUSA_DOWNLOAD_START_DATE", "01/09/2021")

	_, err := Load(nil)
	require.Error(t, err)
}
