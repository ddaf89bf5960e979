package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all pipeline settings. Values come from an optional YAML config
// file layered under AROUSA_* environment variables; see Load.
type Config struct {
	// Data layout.
	RawDir       string
	InterimDir   string
	ProcessedDir string
	MooringDir   string
	CTDDir       string
	WRFDir       string
	CoordsFile   string

	// Basin filters.
	BasinKeywords []string // station name/concello filter (stations fetch)
	RiverKeywords []string // river name filter (rivers job)

	// Study area (WGS-84). Used by the coverage job.
	BboxMinLon, BboxMinLat float64
	BboxMaxLon, BboxMaxLat float64
	TargetLat, TargetLon   float64

	// Remote endpoints.
	StationsURL string
	WRFBaseURL  string

	// Download window and retry policy.
	StartDate      time.Time
	EndDate        time.Time
	MaxRetries     int
	RetryBaseDelay time.Duration
	RequestDelay   time.Duration
	HTTPTimeout    time.Duration
	MinFileSize    int64

	// Unification.
	Workers int

	// Service surfaces.
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Optional Kafka sink.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	// SQL store.
	DBDriver string
	DBDSN    string
}

// dateLayout is the format of the download window bounds.
const dateLayout = "2006-01-02"

// Load reads configuration from the given viper instance, applying defaults
// where unset. Pass nil to use a fresh instance reading only environment
// variables (AROUSA_ prefix).
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	v.SetEnvPrefix("AROUSA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	startDate, err := time.Parse(dateLayout, v.GetString("download.start_date"))
	if err != nil {
		return nil, fmt.Errorf("invalid download.start_date: %w", err)
	}

	endDate := time.Now().UTC().Truncate(24 * time.Hour)
	if s := v.GetString("download.end_date"); s != "" {
		endDate, err = time.Parse(dateLayout, s)
		if err != nil {
			return nil, fmt.Errorf("invalid download.end_date: %w", err)
		}
	}

	cfg := &Config{
		RawDir:       v.GetString("data.raw_dir"),
		InterimDir:   v.GetString("data.interim_dir"),
		ProcessedDir: v.GetString("data.processed_dir"),
		MooringDir:   v.GetString("data.mooring_dir"),
		CTDDir:       v.GetString("data.ctd_dir"),
		WRFDir:       v.GetString("data.wrf_dir"),
		CoordsFile:   v.GetString("data.coords_file"),

		BasinKeywords: splitList(v.GetString("basin.station_keywords")),
		RiverKeywords: splitList(v.GetString("basin.river_keywords")),

		BboxMinLon: v.GetFloat64("basin.bbox_min_lon"),
		BboxMinLat: v.GetFloat64("basin.bbox_min_lat"),
		BboxMaxLon: v.GetFloat64("basin.bbox_max_lon"),
		BboxMaxLat: v.GetFloat64("basin.bbox_max_lat"),
		TargetLat:  v.GetFloat64("basin.target_lat"),
		TargetLon:  v.GetFloat64("basin.target_lon"),

		StationsURL: v.GetString("remote.stations_url"),
		WRFBaseURL:  v.GetString("remote.wrf_base_url"),

		StartDate:      startDate,
		EndDate:        endDate,
		MaxRetries:     v.GetInt("download.max_retries"),
		RetryBaseDelay: v.GetDuration("download.retry_base_delay"),
		RequestDelay:   v.GetDuration("download.request_delay"),
		HTTPTimeout:    v.GetDuration("download.timeout"),
		MinFileSize:    v.GetInt64("download.min_file_size"),

		Workers: v.GetInt("unify.workers"),

		HTTPAddr:        v.GetString("http.addr"),
		LogLevel:        v.GetString("log.level"),
		LogFormat:       v.GetString("log.format"),
		ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),

		KafkaEnabled: v.GetBool("kafka.enabled"),
		KafkaBrokers: splitList(v.GetString("kafka.brokers")),
		KafkaTopic:   v.GetString("kafka.topic"),

		DBDriver: v.GetString("db.driver"),
		DBDSN:    v.GetString("db.dsn"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data.raw_dir", "data/raw")
	v.SetDefault("data.interim_dir", "data/interim")
	v.SetDefault("data.processed_dir", "data/processed")
	v.SetDefault("data.mooring_dir", "data/raw/c2")
	v.SetDefault("data.ctd_dir", "data/raw/c1")
	v.SetDefault("data.wrf_dir", "data/raw/b3/wrf_prec")
	v.SetDefault("data.coords_file", "config/ctd_coordinates.yaml")

	v.SetDefault("basin.station_keywords", "Ulla,Umia,Sar,Teo,Padron,Caldas,Catoira,Valga")
	v.SetDefault("basin.river_keywords", "ULLA,UMIA,SAR")

	// Ría de Arousa study area.
	v.SetDefault("basin.bbox_min_lon", -9.0)
	v.SetDefault("basin.bbox_min_lat", 42.45)
	v.SetDefault("basin.bbox_max_lon", -8.0)
	v.SetDefault("basin.bbox_max_lat", 42.90)
	v.SetDefault("basin.target_lat", 42.50)
	v.SetDefault("basin.target_lon", -8.90)

	v.SetDefault("remote.stations_url", "https://servizos.meteogalicia.gal/mgrss/observacion/ultimoAforos.action")
	v.SetDefault("remote.wrf_base_url", "https://mandeo.meteogalicia.es/thredds/dodsC/modelos/WRF_ARW_1KM_HIST_Novo")

	v.SetDefault("download.start_date", "2021-09-01")
	v.SetDefault("download.end_date", "")
	v.SetDefault("download.max_retries", 3)
	v.SetDefault("download.retry_base_delay", "2s")
	v.SetDefault("download.request_delay", "500ms")
	v.SetDefault("download.timeout", "60s")
	v.SetDefault("download.min_file_size", 1000)

	v.SetDefault("unify.workers", 4)

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.shutdown_timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", "localhost:9092")
	v.SetDefault("kafka.topic", "arousa-observations")

	v.SetDefault("db.driver", "sqlite3")
	v.SetDefault("db.dsn", "data/arousa.db")
}

func (c *Config) validate() error {
	if c.StartDate.After(c.EndDate) {
		return fmt.Errorf("download.start_date (%s) must not be after download.end_date (%s)",
			c.StartDate.Format(dateLayout), c.EndDate.Format(dateLayout))
	}
	if c.MaxRetries < 1 {
		return errors.New("download.max_retries must be at least 1")
	}
	if c.Workers < 1 {
		return errors.New("unify.workers must be at least 1")
	}
	if len(c.BasinKeywords) == 0 {
		return errors.New("basin.station_keywords is required")
	}
	if c.KafkaEnabled {
		if len(c.KafkaBrokers) == 0 {
			return errors.New("kafka.enabled is true but kafka.brokers is not set")
		}
		if c.KafkaTopic == "" {
			return errors.New("kafka.enabled is true but kafka.topic is not set")
		}
	}
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("db.driver must be sqlite3 or postgres, got %q", c.DBDriver)
	}
	return nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
