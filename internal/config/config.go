package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all terminal settings. Values come from the JSON config file,
// overridden by environment variables (optionally loaded from a .env file).
type Config struct {
	TerminalID   string `json:"terminal_id"`
	APIKey       string `json:"api_key"`
	APIBaseURL   string `json:"api_base_url"`
	CameraDevice int    `json:"camera_device"`
	CameraWidth  int    `json:"camera_width"`
	CameraHeight int    `json:"camera_height"`
	PreviewWidth int    `json:"preview_width"`

	CascadePaths []string `json:"face_cascade_paths"`

	// FaceDetectionTimeout is the debounce window in seconds: a stable
	// detection triggers verification at most once per window.
	FaceDetectionTimeout float64 `json:"face_detection_timeout"`
	// ConnectionTimeout bounds the verification request in seconds.
	ConnectionTimeout int `json:"connection_timeout"`
	// VersionProbeTimeout bounds the connectivity probe in seconds.
	VersionProbeTimeout int `json:"version_probe_timeout"`
	// ConnectivityInterval is how often (seconds) the API is probed.
	ConnectivityInterval int `json:"connectivity_interval"`

	OfflineDBPath string `json:"offline_db_path"`
	Port          int    `json:"port"`
	LogDirectory  string `json:"log_directory"`
	StaticDir     string `json:"static_dir"`

	Latitude  *float64 `json:"lat,omitempty"`
	Longitude *float64 `json:"lng,omitempty"`
}

// defaultCascadePaths are tried in order until one loads.
func defaultCascadePaths() []string {
	return []string{
		"/usr/share/opencv4/haarcascades/haarcascade_frontalface_default.xml",
		"/usr/share/opencv/haarcascades/haarcascade_frontalface_default.xml",
		"/usr/local/share/opencv4/haarcascades/haarcascade_frontalface_default.xml",
		"haarcascade_frontalface_default.xml",
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		TerminalID:           "TERMINAL_001",
		APIKey:               "terminal_key_001",
		APIBaseURL:           "http://localhost:8000",
		CameraDevice:         0,
		CameraWidth:          640,
		CameraHeight:         480,
		PreviewWidth:         400,
		CascadePaths:         defaultCascadePaths(),
		FaceDetectionTimeout: 3.0,
		ConnectionTimeout:    10,
		VersionProbeTimeout:  3,
		ConnectivityInterval: 5,
		OfflineDBPath:        "terminal_offline.db",
		Port:                 8080,
		LogDirectory:         filepath.Join(".", "logs"),
		StaticDir:            filepath.Join(".", "static"),
	}
}

// Load reads the config file at path (skipped when the file does not exist),
// then applies environment variable overrides. A .env file in the working
// directory is honored when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// the terminal must come up on defaults without a file
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.TerminalID = getEnv("TERMINAL_ID", c.TerminalID)
	c.APIKey = getEnv("API_KEY", c.APIKey)
	c.APIBaseURL = getEnv("API_BASE_URL", c.APIBaseURL)
	c.CameraDevice = getEnvAsInt("CAMERA_DEVICE", c.CameraDevice)
	c.CameraWidth = getEnvAsInt("CAMERA_WIDTH", c.CameraWidth)
	c.CameraHeight = getEnvAsInt("CAMERA_HEIGHT", c.CameraHeight)
	c.PreviewWidth = getEnvAsInt("PREVIEW_WIDTH", c.PreviewWidth)
	c.FaceDetectionTimeout = getEnvAsFloat("FACE_DETECTION_TIMEOUT", c.FaceDetectionTimeout)
	c.ConnectionTimeout = getEnvAsInt("CONNECTION_TIMEOUT", c.ConnectionTimeout)
	c.VersionProbeTimeout = getEnvAsInt("VERSION_PROBE_TIMEOUT", c.VersionProbeTimeout)
	c.ConnectivityInterval = getEnvAsInt("CONNECTIVITY_INTERVAL", c.ConnectivityInterval)
	c.OfflineDBPath = getEnv("OFFLINE_DB_PATH", c.OfflineDBPath)
	c.Port = getEnvAsInt("PORT", c.Port)
	c.LogDirectory = getEnv("LOG_DIR", c.LogDirectory)
	c.StaticDir = getEnv("STATIC_DIR", c.StaticDir)
}

func (c *Config) validate() error {
	if c.TerminalID == "" {
		return fmt.Errorf("terminal_id must not be empty")
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("api_base_url must not be empty")
	}
	if c.FaceDetectionTimeout <= 0 {
		return fmt.Errorf("face_detection_timeout must be positive, got %v", c.FaceDetectionTimeout)
	}
	if c.CameraWidth <= 0 || c.CameraHeight <= 0 {
		return fmt.Errorf("camera resolution must be positive, got %dx%d", c.CameraWidth, c.CameraHeight)
	}
	if len(c.CascadePaths) == 0 {
		c.CascadePaths = defaultCascadePaths()
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
