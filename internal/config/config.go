/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabaseSQLite   DatabaseBackend = "sqlite"
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
)

// PlaybackBackend selects the audio output mechanism.
type PlaybackBackend string

const (
	// BackendAuto walks the fallback chain: gst, then mpv, then dummy.
	BackendAuto  PlaybackBackend = "auto"
	BackendGst   PlaybackBackend = "gst"
	BackendMpv   PlaybackBackend = "mpv"
	BackendDummy PlaybackBackend = "dummy"
)

// ScheduleSpec is one bootstrap schedule entry from the YAML file.
// Playlist accepts a numeric id or an exact playlist name.
type ScheduleSpec struct {
	Name     string `yaml:"name"`
	Playlist string `yaml:"playlist"`
	Time     string `yaml:"time"`
	Days     string `yaml:"days"`
	Minutes  int    `yaml:"minutes"`
	Enabled  *bool  `yaml:"enabled"`
}

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string

	DBBackend DatabaseBackend
	DBDSN     string
	MusicDir  string

	TickInterval      time.Duration
	ScheduleTolerance time.Duration

	Playback PlaybackBackend
	GstBin   string
	MpvBin   string

	RelayEnabled    bool
	RelayPin        int
	RelayActiveHigh bool
	AutoPowerOff    bool

	MaxCommandsPerTick    int
	VolumeDefault         int
	SessionDefaultMinutes int

	BootstrapSchedules []ScheduleSpec

	MetricsBind string

	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("BREAKBELL_ENV", "development"),

		DBBackend: DatabaseBackend(getEnv("BREAKBELL_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:     getEnv("BREAKBELL_DB_DSN", "breakbell.db"),
		MusicDir:  getEnv("BREAKBELL_MUSIC_DIR", "./music"),

		TickInterval:      time.Duration(getEnvInt("BREAKBELL_TICK_INTERVAL_SECONDS", 1)) * time.Second,
		ScheduleTolerance: time.Duration(getEnvInt("BREAKBELL_SCHEDULE_TOLERANCE_SECONDS", 60)) * time.Second,

		Playback: PlaybackBackend(getEnv("BREAKBELL_PLAYBACK_BACKEND", string(BackendAuto))),
		GstBin:   getEnv("BREAKBELL_GST_BIN", "gst-launch-1.0"),
		MpvBin:   getEnv("BREAKBELL_MPV_BIN", "mpv"),

		RelayEnabled:    getEnvBool("BREAKBELL_RELAY_ENABLED", false),
		RelayPin:        getEnvInt("BREAKBELL_RELAY_PIN", 17),
		RelayActiveHigh: getEnvBool("BREAKBELL_RELAY_ACTIVE_HIGH", true),
		AutoPowerOff:    getEnvBool("BREAKBELL_AUTO_POWER_OFF", false),

		MaxCommandsPerTick:    getEnvInt("BREAKBELL_MAX_COMMANDS_PER_TICK", 16),
		VolumeDefault:         getEnvInt("BREAKBELL_VOLUME_DEFAULT", 70),
		SessionDefaultMinutes: getEnvInt("BREAKBELL_SESSION_DEFAULT_MINUTES", 15),

		MetricsBind: getEnv("BREAKBELL_METRICS_BIND", "127.0.0.1:9100"),

		TracingEnabled:    getEnvBool("BREAKBELL_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("BREAKBELL_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("BREAKBELL_TRACING_SAMPLE_RATE", 1.0),
	}

	switch cfg.DBBackend {
	case DatabaseSQLite, DatabasePostgres, DatabaseMySQL:
	default:
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	switch cfg.Playback {
	case BackendAuto, BackendGst, BackendMpv, BackendDummy:
	default:
		return nil, fmt.Errorf("unsupported playback backend %q", cfg.Playback)
	}

	if cfg.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive")
	}
	if cfg.MaxCommandsPerTick <= 0 {
		return nil, fmt.Errorf("max commands per tick must be positive")
	}
	if cfg.VolumeDefault < 0 || cfg.VolumeDefault > 100 {
		return nil, fmt.Errorf("default volume %d out of range 0..100", cfg.VolumeDefault)
	}

	// The tolerance window must bridge the poll interval or schedules can
	// fall between ticks.
	if min := 2 * cfg.TickInterval; cfg.ScheduleTolerance < min {
		cfg.ScheduleTolerance = min
	}

	if path := getEnv("BREAKBELL_BOOTSTRAP_SCHEDULES", ""); path != "" {
		specs, err := loadBootstrapSchedules(path)
		if err != nil {
			return nil, err
		}
		cfg.BootstrapSchedules = specs
	}

	return cfg, nil
}

func loadBootstrapSchedules(path string) ([]ScheduleSpec, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bootstrap schedules: %w", err)
	}
	var specs []ScheduleSpec
	if err := yaml.Unmarshal(raw, &specs); err != nil {
		return nil, fmt.Errorf("parse bootstrap schedules: %w", err)
	}
	for i, spec := range specs {
		if strings.TrimSpace(spec.Name) == "" {
			return nil, fmt.Errorf("bootstrap schedule %d: missing name", i)
		}
		if strings.TrimSpace(spec.Playlist) == "" {
			return nil, fmt.Errorf("bootstrap schedule %q: missing playlist", spec.Name)
		}
		if _, err := time.Parse("15:04", spec.Time); err != nil {
			return nil, fmt.Errorf("bootstrap schedule %q: bad time %q", spec.Name, spec.Time)
		}
	}
	return specs, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
