// Package config loads editor settings from the environment.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// ============================================================
// Configuration
// ============================================================

// Config holds every tunable of the editor and its shells.
type Config struct {
	// SnapThreshold is the horizontal distance within which a ruler
	// endpoint snaps onto a foundation corner, wall end, or ruler end.
	SnapThreshold float64
	// GridStep is the rounding applied to unsnapped points.
	GridStep float64
	// MinSize is the smallest extent a resize may commit.
	MinSize float64
	// RollbackDelay is how long a rejected commit stays visible before
	// the element is restored.
	RollbackDelay time.Duration
	// UndoDepth caps the undo history; zero means unlimited.
	UndoDepth int
	// MeshCells is the marching cubes resolution used for meshes.
	MeshCells int
	// EvalTimeout bounds one scene script run.
	EvalTimeout time.Duration
	Port        string
	LogLevel    string
}

// Load reads the configuration from SOLARFORM_* environment variables.
func Load() *Config {
	return &Config{
		SnapThreshold: getEnvAsFloat("SOLARFORM_SNAP_THRESHOLD", 1),
		GridStep:      getEnvAsFloat("SOLARFORM_GRID_STEP", 0.5),
		MinSize:       getEnvAsFloat("SOLARFORM_MIN_SIZE", 0.5),
		RollbackDelay: getEnvAsDuration("SOLARFORM_ROLLBACK_DELAY", 200*time.Millisecond),
		UndoDepth:     getEnvAsInt("SOLARFORM_UNDO_DEPTH", 0),
		MeshCells:     getEnvAsInt("SOLARFORM_MESH_CELLS", 64),
		EvalTimeout:   getEnvAsDuration("SOLARFORM_EVAL_TIMEOUT", 5*time.Second),
		Port:          getEnv("SOLARFORM_PORT", "3000"),
		LogLevel:      getEnv("SOLARFORM_LOG_LEVEL", "info"),
	}
}

// Default returns the configuration with every variable unset.
func Default() *Config {
	return &Config{
		SnapThreshold: 1,
		GridStep:      0.5,
		MinSize:       0.5,
		RollbackDelay: 200 * time.Millisecond,
		MeshCells:     64,
		EvalTimeout:   5 * time.Second,
		Port:          "3000",
		LogLevel:      "info",
	}
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds a text logger on stderr at the configured level.
func (c *Config) Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: c.Level()}))
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}
