// Package config resolves service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the resolved settings for the orchestrator process.
type Config struct {
	HTTPPort string

	VisionServiceURL string
	AgentServiceURL  string
	XaiServiceURL    string

	VisionTimeout time.Duration
	AgentTimeout  time.Duration
	XaiTimeout    time.Duration
	ProbeTimeout  time.Duration

	XaiEnabled  bool
	XaiGridSize int

	// FrameInterval is the sampling period between analyzed frames, in
	// seconds of video time.
	FrameInterval float64

	PhoneBridgePort     int
	PhoneBridgeIP       string
	PhoneHealthInterval time.Duration

	SlackBotToken  string
	SlackChannelID string
	DashboardURL   string
}

// Load builds a Config from environment variables with sensible defaults.
func Load() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8000"),

		VisionServiceURL: getEnv("VISION_SERVICE_URL", "http://vision-service:8002"),
		AgentServiceURL:  getEnv("AGENT_SERVICE_URL", "http://agent-service:8001"),
		XaiServiceURL:    getEnv("XAI_SERVICE_URL", "http://xai-service:8004"),

		VisionTimeout: envDuration("VISION_TIMEOUT", 30*time.Second),
		AgentTimeout:  envDuration("AGENT_TIMEOUT", 60*time.Second),
		XaiTimeout:    envDuration("XAI_TIMEOUT", 45*time.Second),
		ProbeTimeout:  envDuration("HEALTH_PROBE_TIMEOUT", 3*time.Second),

		XaiEnabled:  envBool("XAI_ENABLED", true),
		XaiGridSize: envInt("XAI_REQUEST_GRID", 8),

		FrameInterval: envFloat("FRAME_INTERVAL", 1.0),

		PhoneBridgePort:     envInt("PHONE_BRIDGE_PORT", 5005),
		PhoneBridgeIP:       getEnv("PHONE_IP", ""),
		PhoneHealthInterval: envSeconds("PHONE_HEALTH_INTERVAL", 3*time.Second),

		SlackBotToken:  getEnv("SLACK_BOT_TOKEN", ""),
		SlackChannelID: getEnv("SLACK_CHANNEL_ID", ""),
		DashboardURL:   getEnv("DASHBOARD_URL", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func envBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func envInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func envFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func envDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// envSeconds reads an interval expressed as a bare number of seconds,
// falling back to Go duration syntax.
func envSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.ParseFloat(value, 64); err == nil && n > 0 {
			return time.Duration(n * float64(time.Second))
		}
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
