// Package config loads the settings shared by the web server and the terminal client. Values come from
// a YAML file, then from a .env file, then from the process environment, each layer overriding the one
// before it.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every setting of the application.
type Config struct {
	Port           string `yaml:"port"`
	APIURL         string `yaml:"apiURL"`
	LogLevel       string `yaml:"logLevel"`
	TranscriptPath string `yaml:"transcriptPath"`
}

// Environment variables that override the file.
const (
	EnvPort        = "PORT"
	EnvAPIURL      = "PARCELCHAT_API_URL"
	EnvLogLevel    = "PARCELCHAT_LOG_LEVEL"
	EnvTranscripts = "PARCELCHAT_TRANSCRIPTS"
)

const (
	defaultPort     = "8080"
	defaultAPIURL   = "http://localhost:8000"
	defaultLogLevel = "info"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:     defaultPort,
		APIURL:   defaultAPIURL,
		LogLevel: defaultLogLevel,
	}
}

// Dir returns the directory holding the config file and the transcript database.
func Dir() (string, error) {
	cfgDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("error getting user config dir: %w", err)
	}
	return filepath.Join(cfgDir, "parcelchat"), nil
}

// Load reads the YAML file at path, then applies the .env file in the working directory and the process
// environment. A missing YAML or .env file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.readFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) readFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		// An empty file keeps the defaults.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("error decoding config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := getEnv(EnvPort); v != "" {
		c.Port = v
	}
	if v := getEnv(EnvAPIURL); v != "" {
		c.APIURL = v
	}
	if v := getEnv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := getEnv(EnvTranscripts); v != "" {
		c.TranscriptPath = v
	}
}

func (c *Config) validate() error {
	c.Port = strings.TrimPrefix(strings.TrimSpace(c.Port), ":")
	if c.Port == "" {
		c.Port = defaultPort
	}
	if strings.ContainsAny(c.Port, " /") {
		return fmt.Errorf("invalid port value: %q", c.Port)
	}

	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if !strings.HasPrefix(c.APIURL, "http://") && !strings.HasPrefix(c.APIURL, "https://") {
		return fmt.Errorf("invalid api url %q: must start with http:// or https://", c.APIURL)
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address for the web server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// Level parses LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

func getEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
