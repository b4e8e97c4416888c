// Package config loads the process-wide settings once at startup. The
// resulting Config is immutable and handed to the components that need it.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/Anton0729/ToDo-List-Project/internal/util"
)

// Config holds everything the server needs from the environment.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string
	// DBPath points at the sqlite database file.
	DBPath string

	// SecretKey signs and verifies access tokens.
	SecretKey string
	// Algorithm is the JWT signing algorithm identifier (HS256 family).
	Algorithm string
	// AccessTokenTTL is how long an issued token stays valid.
	AccessTokenTTL time.Duration
}

var supportedAlgorithms = map[string]struct{}{
	"HS256": {},
	"HS384": {},
	"HS512": {},
}

// Load reads configuration from the environment, honoring a .env file in
// the working directory when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	minutes, err := strconv.Atoi(util.EnvOrDefault("ACCESS_TOKEN_EXPIRE_MINUTES", "30"))
	if err != nil || minutes <= 0 {
		return nil, fmt.Errorf("invalid ACCESS_TOKEN_EXPIRE_MINUTES: %q", os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"))
	}

	cfg := &Config{
		Addr:           util.EnvOrDefault("TODO_ADDR", ":8080"),
		DBPath:         util.EnvOrDefault("TODO_DB_PATH", "data/todo.db"),
		SecretKey:      os.Getenv("SECRET_KEY"),
		Algorithm:      util.EnvOrDefault("ALGORITHM", "HS256"),
		AccessTokenTTL: time.Duration(minutes) * time.Minute,
	}

	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("SECRET_KEY is not set")
	}
	if _, ok := supportedAlgorithms[cfg.Algorithm]; !ok {
		return nil, fmt.Errorf("unsupported ALGORITHM %q", cfg.Algorithm)
	}

	return cfg, nil
}
