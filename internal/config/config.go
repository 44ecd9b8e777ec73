// Package config handles scanner configuration
package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/GriffinCanCode/cardscan/internal/errors"
)

// Detection strategies understood by the vision package.
const (
	StrategyHull    = "hull"
	StrategySquares = "squares"
)

type Config struct {
	HTTPAddr             string   `yaml:"http_addr"`
	GRPCAddr             string   `yaml:"grpc_addr"`
	CatalogDir           string   `yaml:"catalog_dir"`
	CatalogWorkers       int      `yaml:"catalog_workers"`
	CatalogExtensions    []string `yaml:"catalog_extensions"`
	CameraDevice         string   `yaml:"camera_device"`
	ReplayDir            string   `yaml:"replay_dir"`
	FrameWidth           int      `yaml:"frame_width"`
	FrameHeight          int      `yaml:"frame_height"`
	FrameRate            float64  `yaml:"frame_rate"` // Hz
	HistorySize          int      `yaml:"history_size"`
	MotionThreshold      float64  `yaml:"motion_threshold"`
	BackgroundSimilarity float64  `yaml:"background_similarity"`
	DetectionStrategy    string   `yaml:"detection_strategy"`
	TopK                 int      `yaml:"top_k"`
	LogLevel             string   `yaml:"log_level"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		HTTPAddr:             ":8000",
		GRPCAddr:             ":50052",
		CatalogDir:           "./data",
		CatalogWorkers:       4,
		CatalogExtensions:    []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"},
		CameraDevice:         "0",
		FrameWidth:           1280,
		FrameHeight:          720,
		FrameRate:            30,
		HistorySize:          3,
		MotionThreshold:      10,
		BackgroundSimilarity: 0.75,
		DetectionStrategy:    StrategyHull,
		TopK:                 20,
		LogLevel:             "debug",
	}
}

// Load returns the defaults with environment overrides applied.
func Load() *Config {
	return applyEnv(Defaults())
}

// LoadFile overlays a YAML document on the defaults, then applies
// environment overrides. Keys absent from the document keep their default.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ConfigMissing, "read config file").WithMetadata("path", path)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ConfigInvalid, "parse config file").WithMetadata("path", path)
	}
	return applyEnv(cfg), nil
}

func applyEnv(c *Config) *Config {
	c.HTTPAddr = getEnv("HTTP_ADDR", c.HTTPAddr)
	c.GRPCAddr = getEnv("GRPC_ADDR", c.GRPCAddr)
	c.CatalogDir = getEnv("CATALOG_DIR", c.CatalogDir)
	c.CatalogWorkers = getEnvInt("CATALOG_WORKERS", c.CatalogWorkers)
	c.CatalogExtensions = getEnvList("CATALOG_EXTENSIONS", c.CatalogExtensions)
	c.CameraDevice = getEnv("CAMERA_DEVICE", c.CameraDevice)
	c.ReplayDir = getEnv("REPLAY_DIR", c.ReplayDir)
	c.FrameWidth = getEnvInt("FRAME_WIDTH", c.FrameWidth)
	c.FrameHeight = getEnvInt("FRAME_HEIGHT", c.FrameHeight)
	c.FrameRate = getEnvFloat("FRAME_RATE", c.FrameRate)
	c.HistorySize = getEnvInt("HISTORY_SIZE", c.HistorySize)
	c.MotionThreshold = getEnvFloat("MOTION_THRESHOLD", c.MotionThreshold)
	c.BackgroundSimilarity = getEnvFloat("BACKGROUND_SIMILARITY", c.BackgroundSimilarity)
	c.DetectionStrategy = getEnv("DETECTION_STRATEGY", c.DetectionStrategy)
	c.TopK = getEnvInt("TOP_K", c.TopK)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	return c
}

// Validate reports the first field outside its domain.
func (c *Config) Validate() error {
	switch {
	case c.CatalogDir == "":
		return invalid("catalog_dir", "must not be empty")
	case c.CatalogWorkers <= 0:
		return invalid("catalog_workers", "must be positive")
	case len(c.CatalogExtensions) == 0:
		return invalid("catalog_extensions", "must list at least one extension")
	case c.FrameRate <= 0:
		return invalid("frame_rate", "must be positive")
	case c.FrameWidth < 0 || c.FrameHeight < 0:
		return invalid("frame_width", "must not be negative")
	case c.HistorySize <= 0:
		return invalid("history_size", "must be positive")
	case c.MotionThreshold < 0:
		return invalid("motion_threshold", "must not be negative")
	case c.BackgroundSimilarity < -1 || c.BackgroundSimilarity > 1:
		return invalid("background_similarity", "must be within [-1, 1]")
	case c.DetectionStrategy != StrategyHull && c.DetectionStrategy != StrategySquares:
		return invalid("detection_strategy", "must be hull or squares")
	}
	return nil
}

func invalid(field, msg string) error {
	return apperrors.Newf(apperrors.ConfigInvalid, "%s %s", field, msg).WithMetadata("field", field)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getEnvList(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if t := strings.TrimSpace(p); t != "" {
				result = append(result, t)
			}
		}
		return result
	}
	return def
}
