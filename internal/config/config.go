package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig captures all tunable parameters for the dispatch
// process. Values are primarily loaded from environment variables with
// sane defaults so the binary can run locally without excessive setup.
type ServerConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	SweepInterval  time.Duration
	IdleThreshold  time.Duration
	RejectionLimit int

	WSWriteTimeout     time.Duration
	WSPingInterval     time.Duration
	WSPongWait         time.Duration
	WSHandshakeTimeout time.Duration

	DriverCount          int
	DriverUpdateInterval time.Duration
	CityCenterLat        float64
	CityCenterLng        float64

	RedisAddr     string
	RedisPassword string
	RedisGeoKey   string

	KafkaBrokers []string
	KafkaTopic   string

	PGDSN string

	LogLevel      string
	RunMigrations bool
}

func defaultServerConfig() ServerConfig {
	return ServerConfig{
		HTTPAddr:        ":8080",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 15 * time.Second,

		SweepInterval:  60 * time.Second,
		IdleThreshold:  300 * time.Second,
		RejectionLimit: 3,

		WSWriteTimeout:     5 * time.Second,
		WSPingInterval:     30 * time.Second,
		WSPongWait:         60 * time.Second,
		WSHandshakeTimeout: 5 * time.Second,

		DriverCount:          10,
		DriverUpdateInterval: 30 * time.Second,
		CityCenterLat:        51.1694,
		CityCenterLng:        71.4491,

		RedisGeoKey: "drivers_geo",
		KafkaTopic:  "ride-events",
		LogLevel:    "info",
	}
}

func LoadServerConfig() (ServerConfig, error) {
	cfg := defaultServerConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setDurationFromEnv(&cfg.SweepInterval, "SWEEP_INTERVAL", &errs)
	setDurationFromEnv(&cfg.IdleThreshold, "SWEEP_IDLE_THRESHOLD", &errs)
	setIntFromEnv(&cfg.RejectionLimit, "RIDE_REJECTION_LIMIT", &errs)

	setDurationFromEnv(&cfg.WSWriteTimeout, "WS_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WSPingInterval, "WS_PING_INTERVAL", &errs)
	setDurationFromEnv(&cfg.WSPongWait, "WS_PONG_WAIT", &errs)
	setDurationFromEnv(&cfg.WSHandshakeTimeout, "WS_HANDSHAKE_TIMEOUT", &errs)

	setIntFromEnv(&cfg.DriverCount, "DRIVER_COUNT", &errs)
	setDurationFromEnv(&cfg.DriverUpdateInterval, "DRIVER_UPDATE_INTERVAL", &errs)
	setFloatFromEnv(&cfg.CityCenterLat, "CITY_CENTER_LAT", &errs)
	setFloatFromEnv(&cfg.CityCenterLng, "CITY_CENTER_LNG", &errs)

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setStringFromEnv(&cfg.RedisGeoKey, "REDIS_GEO_KEY")

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	cfg.PGDSN = os.Getenv("PG_DSN")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	if cfg.RejectionLimit <= 0 {
		errs = append(errs, fmt.Errorf("RIDE_REJECTION_LIMIT must be > 0"))
	}
	if cfg.DriverCount < 0 {
		errs = append(errs, fmt.Errorf("DRIVER_COUNT must be >= 0"))
	}
	if cfg.WSPongWait <= cfg.WSPingInterval {
		errs = append(errs, fmt.Errorf("WS_PONG_WAIT must exceed WS_PING_INTERVAL"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setIntFromEnv(target *int, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = i
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
