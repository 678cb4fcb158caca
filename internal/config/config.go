package config

import (
	"os"
	"path/filepath"
	"strconv"
)

// ============================================================
// Configuration
// ============================================================

// Config is read from the environment. The desktop editor uses the data
// directory, store URL and autosave schedule; the docstore service uses the
// listener and driver settings.
type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	DataDir  string
	Autosave string

	StoreURL    string
	StoreDriver string
	StoreDSN    string
}

// Load reads configuration from environment variables.
func Load() *Config {
	dataDir := getEnv("DOCEDIT_DATA_DIR", defaultDataDir())
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		DataDir:  dataDir,
		Autosave: getEnvAllowEmpty("DOCEDIT_AUTOSAVE", "@every 30s"),

		StoreURL:    getEnv("DOCSTORE_URL", "http://localhost:3000"),
		StoreDriver: getEnv("DOCSTORE_DRIVER", "sqlite3"),
		StoreDSN:    getEnv("DOCSTORE_DSN", filepath.Join(dataDir, "docstore.db")),
	}
}

// DraftDBPath is the local draft cache database.
func (c *Config) DraftDBPath() string {
	return filepath.Join(c.DataDir, "docedit.db")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "data"
	}
	return filepath.Join(home, ".docedit")
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

// getEnvAllowEmpty treats a variable set to "" as an explicit value.
func getEnvAllowEmpty(key, defaultVal string) string {
	if value, ok := os.LookupEnv(key); ok {
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
