package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the launcher bridge configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server"`
	Database DatabaseConfig `yaml:"database" json:"database"`
	Storage  StorageConfig  `yaml:"storage" json:"storage"`
	Runtime  RuntimeConfig  `yaml:"runtime" json:"runtime"`
	Monitor  MonitorConfig  `yaml:"monitor" json:"monitor"`
	Security SecurityConfig `yaml:"security" json:"security"`
	Logging  LoggingConfig  `yaml:"logging" json:"logging"`
}

// ServerConfig contains the loopback HTTP listener settings
type ServerConfig struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// DatabaseConfig contains the saved-installation store settings
type DatabaseConfig struct {
	Path string `yaml:"path" json:"path"`
}

// StorageConfig contains storage paths
type StorageConfig struct {
	DataDir string `yaml:"data_dir" json:"data_dir"`
}

// RuntimeConfig describes how the server runtime is probed and invoked
type RuntimeConfig struct {
	Executable      string   `yaml:"executable" json:"executable"`
	RequiredVersion string   `yaml:"required_version" json:"required_version"`
	MinHeap         string   `yaml:"min_heap" json:"min_heap"`
	MaxHeap         string   `yaml:"max_heap" json:"max_heap"`
	ServerArgs      []string `yaml:"server_args" json:"server_args"`
	WindowTitle     string   `yaml:"window_title" json:"window_title"`
	Terminals       []string `yaml:"terminals,omitempty" json:"terminals,omitempty"`
}

// MonitorConfig controls the periodic status refresh
type MonitorConfig struct {
	Enabled  bool   `yaml:"enabled" json:"enabled"`
	Schedule string `yaml:"schedule" json:"schedule"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	CORS CORSConfig `yaml:"cors" json:"cors"`
	// TokenFile receives the bearer token the shell must present; it is rewritten on every start.
	TokenFile string        `yaml:"token_file" json:"token_file"`
	TokenTTL  time.Duration `yaml:"token_ttl" json:"token_ttl"`
}

// CORSConfig contains CORS settings
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" json:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods" json:"allowed_methods"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" json:"level"`
	Format     string `yaml:"format" json:"format"`
	File       string `yaml:"file" json:"file"`
	MaxSize    int    `yaml:"max_size" json:"max_size"`
	MaxBackups int    `yaml:"max_backups" json:"max_backups"`
	MaxAge     int    `yaml:"max_age" json:"max_age"`
}

// KnownTerminals lists the terminal programs the Unix launch strategy knows how to drive.
var KnownTerminals = []string{
	"gnome-terminal",
	"konsole",
	"xfce4-terminal",
	"xterm",
	"kitty",
	"alacritty",
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8765,
		},
		Storage: StorageConfig{
			DataDir: "./data",
		},
		Runtime: RuntimeConfig{
			Executable:      "java",
			RequiredVersion: "21",
			MinHeap:         "2G",
			MaxHeap:         "2G",
			ServerArgs:      []string{"nogui"},
			WindowTitle:     "Minecraft Server",
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Schedule: "@every 5s",
		},
		Security: SecurityConfig{
			CORS: CORSConfig{
				AllowedOrigins: []string{"tauri://localhost", "http://tauri.localhost", "http://localhost:1420"},
				AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			},
			TokenTTL: 24 * time.Hour,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "json",
			File:       "",
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     14,
		},
	}
}

// Load loads configuration from file and environment variables
func Load() (*Config, error) {
	cfg := Default()

	configPath := GetConfigPath()

	if _, err := os.Stat(configPath); err == nil {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.normalizeStoragePaths(configPath)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if host := os.Getenv("LAUNCHER_HOST"); host != "" {
		c.Server.Host = host
	}

	if port := os.Getenv("LAUNCHER_PORT"); port != "" {
		value, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("LAUNCHER_PORT is not a number: %q", port)
		}
		c.Server.Port = value
	}

	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		c.Database.Path = dbPath
	}

	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.Storage.DataDir = dataDir
	}

	if executable := os.Getenv("JAVA_EXECUTABLE"); executable != "" {
		c.Runtime.Executable = executable
	}

	if required := os.Getenv("REQUIRED_JAVA_VERSION"); required != "" {
		c.Runtime.RequiredVersion = required
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if strings.TrimSpace(c.Runtime.Executable) == "" {
		return fmt.Errorf("runtime executable must not be empty")
	}

	for _, name := range c.Runtime.Terminals {
		if !isKnownTerminal(name) {
			return fmt.Errorf("unknown terminal %q (known: %s)", name, strings.Join(KnownTerminals, ", "))
		}
	}

	if c.Security.TokenTTL <= 0 {
		return fmt.Errorf("security token_ttl must be positive, got %s", c.Security.TokenTTL)
	}

	if c.Monitor.Enabled {
		if _, err := cron.ParseStandard(c.Monitor.Schedule); err != nil {
			return fmt.Errorf("invalid monitor schedule %q: %w", c.Monitor.Schedule, err)
		}
	}

	return nil
}

func isKnownTerminal(name string) bool {
	for _, known := range KnownTerminals {
		if known == name {
			return true
		}
	}
	return false
}

func resolveConfigPath() string {
	candidates := []string{"../configs/config.yaml", "./configs/config.yaml"}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "./configs/config.yaml"
}

// GetConfigPath returns the resolved config path
func GetConfigPath() string {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = resolveConfigPath()
	}
	return configPath
}

// Save writes the configuration back to disk
func Save(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) normalizeStoragePaths(configPath string) {
	baseDir := filepath.Dir(configPath)
	if !filepath.IsAbs(baseDir) {
		if absBase, err := filepath.Abs(baseDir); err == nil {
			baseDir = absBase
		}
	}

	rootDir := baseDir
	if filepath.Base(baseDir) == "configs" {
		rootDir = filepath.Dir(baseDir)
	}

	resolvePath := func(value string) string {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			return ""
		}
		if filepath.IsAbs(trimmed) {
			return filepath.Clean(trimmed)
		}
		return filepath.Clean(filepath.Join(rootDir, trimmed))
	}

	if strings.TrimSpace(c.Storage.DataDir) == "" {
		c.Storage.DataDir = filepath.Join(rootDir, "data")
	}
	c.Storage.DataDir = resolvePath(c.Storage.DataDir)

	if strings.TrimSpace(c.Database.Path) == "" {
		c.Database.Path = filepath.Join(c.Storage.DataDir, "launcher.db")
	}
	c.Database.Path = resolvePath(c.Database.Path)

	if strings.TrimSpace(c.Security.TokenFile) == "" {
		c.Security.TokenFile = filepath.Join(c.Storage.DataDir, "session.token")
	}
	c.Security.TokenFile = resolvePath(c.Security.TokenFile)

	if strings.TrimSpace(c.Logging.File) != "" {
		c.Logging.File = resolvePath(c.Logging.File)
	}
}
