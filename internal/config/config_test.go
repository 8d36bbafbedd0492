package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("HTTPAddr: %q", cfg.HTTPAddr)
	}
	if cfg.SweepInterval != 60*time.Second || cfg.IdleThreshold != 300*time.Second {
		t.Fatalf("sweep defaults: %v / %v", cfg.SweepInterval, cfg.IdleThreshold)
	}
	if cfg.RejectionLimit != 3 {
		t.Fatalf("RejectionLimit: %d", cfg.RejectionLimit)
	}
	if cfg.KafkaTopic != "ride-events" || cfg.RedisGeoKey != "drivers_geo" {
		t.Fatalf("topic/key defaults: %q / %q", cfg.KafkaTopic, cfg.RedisGeoKey)
	}
	if cfg.RunMigrations {
		t.Fatal("RunMigrations defaulted true")
	}
}

func TestLoadServerConfigFromEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("SWEEP_INTERVAL", "30s")
	t.Setenv("RIDE_REJECTION_LIMIT", "5")
	t.Setenv("DRIVER_COUNT", "25")
	t.Setenv("CITY_CENTER_LAT", "43.238")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092 ,")
	t.Setenv("REDIS_ADDR", " localhost:6379 ")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("MIGRATE", "TRUE")

	cfg, err := LoadServerConfig()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.HTTPAddr != ":9090" || cfg.SweepInterval != 30*time.Second {
		t.Fatalf("overrides: %q / %v", cfg.HTTPAddr, cfg.SweepInterval)
	}
	if cfg.RejectionLimit != 5 || cfg.DriverCount != 25 {
		t.Fatalf("ints: %d / %d", cfg.RejectionLimit, cfg.DriverCount)
	}
	if cfg.CityCenterLat != 43.238 {
		t.Fatalf("CityCenterLat: %f", cfg.CityCenterLat)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[0] != "k1:9092" || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("KafkaBrokers: %v", cfg.KafkaBrokers)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("RedisAddr: %q", cfg.RedisAddr)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("LogLevel: %q", cfg.LogLevel)
	}
	if !cfg.RunMigrations {
		t.Fatal("RunMigrations not set")
	}
}

func TestLoadServerConfigAccumulatesErrors(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "soon")
	t.Setenv("RIDE_REJECTION_LIMIT", "0")
	t.Setenv("WS_PING_INTERVAL", "2m")
	t.Setenv("WS_PONG_WAIT", "1m")

	_, err := LoadServerConfig()
	if err == nil {
		t.Fatal("expected an error")
	}
	msg := err.Error()
	for _, want := range []string{"SWEEP_INTERVAL", "RIDE_REJECTION_LIMIT", "WS_PONG_WAIT"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("error %q missing %s", msg, want)
		}
	}
}
