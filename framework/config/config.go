package config

import (
	"os"
	"strconv"

	"github.com/inhies/go-bytesize"
	"github.com/joho/godotenv"
)

// Config is the central typed configuration struct.
type Config struct {
	App  AppConfig
	Log  LogConfig
	HTTP HTTPConfig
}

type AppConfig struct {
	Name  string
	Env   string // local | production | testing
	Debug bool
	URL   string
	Port  string
	Key   string
}

type LogConfig struct {
	Level string // see logging.Name2Level
	File  string
}

type HTTPConfig struct {
	// MaxUploadSize bounds buffered request bodies and multipart uploads.
	MaxUploadSize bytesize.ByteSize
	UploadDir     string
}

const defaultMaxUploadSize = "32MB"

// Load reads the env files (".env" when none are given; missing files are
// ignored) and populates a Config from environment variables.
//
//	cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// godotenv stops at the first missing file, load them one by one
		_ = godotenv.Load(f)
	}

	debug := envBool("APP_DEBUG", true)
	level := "info"
	if debug {
		level = "debug"
	}

	return &Config{
		App: AppConfig{
			Name:  env("APP_NAME", "Straw"),
			Env:   env("APP_ENV", "local"),
			Debug: debug,
			URL:   env("APP_URL", "http://localhost"),
			Port:  env("APP_PORT", "8000"),
			Key:   env("APP_KEY", ""),
		},
		Log: LogConfig{
			Level: env("LOG_LEVEL", level),
			File:  env("LOG_FILE", ""),
		},
		HTTP: HTTPConfig{
			MaxUploadSize: GetByteSize("HTTP_MAX_UPLOAD_SIZE", defaultMaxUploadSize),
			UploadDir:     env("HTTP_UPLOAD_DIR", os.TempDir()),
		},
	}
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// GetByteSize parses a human readable size ("512KB", "32MB"). An unparsable
// value falls back to defaultVal.
func GetByteSize(key, defaultVal string) bytesize.ByteSize {
	if size, err := bytesize.Parse(env(key, defaultVal)); err == nil {
		return size
	}
	size, _ := bytesize.Parse(defaultVal)
	return size
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
