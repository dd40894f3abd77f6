package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Load returns Default() overlaid with a .env file, if one is found, and then
// with DGEMM_* and LOG_* variables from the process environment. Variables
// already set in the environment win over the .env file. A .env file that
// exists but cannot be loaded is an error.
func Load() (Config, error) {
	cfg := Default()
	if err := loadEnvFile(); err != nil {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// loadEnvFile walks up from the working directory, at most 5 levels, and
// loads the first .env it finds.
func loadEnvFile() error {
	dir, err := os.Getwd()
	if err != nil {
		return err
	}

	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return godotenv.Load(envPath)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil
}

func applyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup("DGEMM_SIZES"); ok {
		sizes, err := ParseSizes(v)
		if err != nil {
			return fmt.Errorf("DGEMM_SIZES: %w", err)
		}
		cfg.Sizes = sizes
	}
	if v, ok := lookup("DGEMM_THRESHOLD"); ok {
		d, err := ParseThreshold(v)
		if err != nil {
			return fmt.Errorf("DGEMM_THRESHOLD: %w", err)
		}
		cfg.Threshold = d
	}
	if v, ok := lookup("DGEMM_KERNEL"); ok {
		cfg.Kernel = KernelKind(v)
	}
	if v, ok := lookup("DGEMM_BLOCK_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DGEMM_BLOCK_SIZE: %w", err)
		}
		cfg.BlockSize = n
	}
	if v, ok := lookup("DGEMM_SEED"); ok {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("DGEMM_SEED: %w", err)
		}
		cfg.Seed = n
	}
	if v, ok := lookup("DGEMM_MAX_ITERATIONS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DGEMM_MAX_ITERATIONS: %w", err)
		}
		cfg.MaxIterations = n
	}
	if v, ok := lookup("DGEMM_MAX_BUFFER_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("DGEMM_MAX_BUFFER_BYTES: %w", err)
		}
		cfg.MaxBufferBytes = n
	}
	if v, ok := lookup("LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := lookup("LOG_FORMAT"); ok {
		cfg.LogFormat = v
	}
	if v, ok := lookup("DGEMM_METRICS_ADDR"); ok {
		cfg.MetricsAddr = v
	}
	if v, ok := lookup("DGEMM_ARROW_OUT"); ok {
		cfg.ArrowOut = v
	}
	if v, ok := lookup("DGEMM_FLIGHT_ADDR"); ok {
		cfg.FlightAddr = v
	}
	return nil
}
