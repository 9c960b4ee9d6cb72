// Package config resolves server configuration from environment variables
// and, optionally, a db:// connection URI, grounded on
// original_source/src/core/uri.rs and spec.md's Environment variable list.
package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	defaultHost           = "0.0.0.0"
	defaultPort           = defaultURIPort
	defaultDBName         = "data"
	defaultDataDir        = "./data"
	defaultWorkers        = 50
	defaultMaxKeys        = 10000
	defaultMaxConnections = 100
)

// Config is the fully resolved set of knobs a server process needs to
// start: listen address, default database name, on-disk root, worker pool
// size, and per-engine limits.
type Config struct {
	Host           string
	Port           uint16
	DBName         string
	DataDir        string
	Workers        int
	MaxKeys        int
	MaxConnections int
}

// Load resolves Config from the environment. DB_URI, if set, is parsed and
// replaces DB_HOST/DB_PORT/DB_NAME outright: a URI without a port or db
// name yields 8569 and "data", not the env values. Its "workers" and
// "data_dir" query keys override DB_WORKERS/DB_DATA_DIR, and
// "max_connections" sets MaxConnections (no env var sets that one).
// DB_PASSWORD is deliberately not read here: pkg/security.New reads it
// directly, and duplicating that here would let the two drift.
func Load() (Config, error) {
	cfg := Config{
		Host:           envOr("DB_HOST", defaultHost),
		Port:           defaultPort,
		DBName:         envOr("DB_NAME", defaultDBName),
		DataDir:        envOr("DB_DATA_DIR", defaultDataDir),
		Workers:        defaultWorkers,
		MaxKeys:        defaultMaxKeys,
		MaxConnections: defaultMaxConnections,
	}

	if raw := os.Getenv("DB_PORT"); raw != "" {
		port, err := strconv.ParseUint(raw, 10, 16)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid DB_PORT: %w", err)
		}
		cfg.Port = uint16(port)
	}
	if raw := os.Getenv("DB_WORKERS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid DB_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if raw := os.Getenv("DB_MAX_KEYS"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid DB_MAX_KEYS: %w", err)
		}
		cfg.MaxKeys = n
	}

	if raw := os.Getenv("DB_URI"); raw != "" {
		u, err := ParseURI(raw)
		if err != nil {
			return Config{}, err
		}
		applyURI(&cfg, u)
	}

	return cfg, nil
}

// applyURI overlays a parsed connection URI onto cfg, mirroring the
// "query keys override environment" precedence spec.md's Connection URI
// section implies by listing workers/max_connections/data_dir as
// recognized query keys.
func applyURI(cfg *Config, u ConnectionURI) {
	cfg.Host = u.Host
	cfg.Port = u.Port
	cfg.DBName = u.DBNameDefault()

	if v, ok := u.Query["workers"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Workers = n
		}
	}
	if v, ok := u.Query["max_connections"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MaxConnections = n
		}
	}
	if v, ok := u.Query["data_dir"]; ok {
		cfg.DataDir = v
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
