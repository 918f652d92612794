package config

import (
	"os"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	// Layer service
	DBPath    string
	MediaRoot string

	// Gateway and editor
	LayersURL      string
	RequestTimeout int
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENV", "development"),
		ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
		DBPath:         getEnv("LAYERS_DB_PATH", "data/db/layers.db"),
		MediaRoot:      getEnv("MEDIA_ROOT", "data/media"),
		LayersURL:      getEnv("LAYERS_URL", "http://localhost:3001"),
		RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 30),
	}
}

// PortOr подставляет порт сервиса, если PORT не задан.
func (c *Config) PortOr(def string) string {
	if os.Getenv("PORT") == "" {
		return def
	}
	return c.Port
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
