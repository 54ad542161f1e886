package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Archive  ArchiveConfig  `mapstructure:"archive"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Client   ClientConfig   `mapstructure:"client"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
	Launcher LauncherConfig `mapstructure:"launcher"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	GeneratePerMin  int           `mapstructure:"generate_per_minute"`
	GenerateBurst   int           `mapstructure:"generate_burst"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type ArchiveConfig struct {
	BaseURL      string        `mapstructure:"base_url"`
	UserAgent    string        `mapstructure:"user_agent"`
	HTTPTimeout  time.Duration `mapstructure:"http_timeout"`
	MaxRetries   int           `mapstructure:"max_retries"`
	BackoffBase  time.Duration `mapstructure:"backoff_base"`
	RequestDelay time.Duration `mapstructure:"request_delay"`
	MaxPage      int           `mapstructure:"max_page"`
	MaxTags      int           `mapstructure:"max_tags"`
	FeedFallback bool          `mapstructure:"feed_fallback"`
}

type CacheConfig struct {
	Path      string        `mapstructure:"path"`
	IndexPath string        `mapstructure:"index_path"`
	TTL       time.Duration `mapstructure:"ttl"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

type ClientConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	StatePath   string        `mapstructure:"state_path"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	Debounce    time.Duration `mapstructure:"debounce"`
	MinChars    int           `mapstructure:"min_chars"`
}

type UIConfig struct {
	Light Palette `mapstructure:"light"`
	Dark  Palette `mapstructure:"dark"`
}

type Palette struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type LauncherConfig struct {
	Darwin        []string `mapstructure:"darwin"`
	Linux         []string `mapstructure:"linux"`
	Windows       []string `mapstructure:"windows"`
	DefaultOpener string   `mapstructure:"default_opener"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".ficroll")

	return &Config{
		Server: ServerConfig{
			Addr:            ":5000",
			AllowedOrigins:  []string{"*"},
			RequestTimeout:  90 * time.Second,
			GeneratePerMin:  10,
			GenerateBurst:   10,
			ShutdownTimeout: 10 * time.Second,
		},
		Archive: ArchiveConfig{
			BaseURL:      "https://archiveofourown.org",
			UserAgent:    "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			HTTPTimeout:  60 * time.Second,
			MaxRetries:   3,
			BackoffBase:  2 * time.Second,
			RequestDelay: 1 * time.Second,
			MaxPage:      100,
			MaxTags:      3,
			FeedFallback: true,
		},
		Cache: CacheConfig{
			Path:      filepath.Join(dataDir, "cache.db"),
			IndexPath: filepath.Join(dataDir, "fandoms.bleve"),
			TTL:       1 * time.Hour,
			Timeout:   1 * time.Second,
		},
		Client: ClientConfig{
			BaseURL:     "http://localhost:5000",
			StatePath:   filepath.Join(dataDir, "state.db"),
			HTTPTimeout: 120 * time.Second,
			Debounce:    300 * time.Millisecond,
			MinChars:    2,
		},
		UI: UIConfig{
			Light: Palette{
				Primary:    "#D6336C",
				Secondary:  "#0B7285",
				Accent:     "#0CA678",
				Background: "#FFFFFF",
				Surface:    "#F1F3F5",
				Text:       "#212529",
				Muted:      "#6C757D",
				Error:      "#C92A2A",
				Success:    "#2B8A3E",
			},
			Dark: Palette{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(dataDir, "ficroll.log"),
		},
		Launcher: LauncherConfig{
			Darwin:        []string{"open"},
			Linux:         []string{"xdg-open", "sensible-browser", "firefox"},
			Windows:       []string{"explorer"},
			DefaultOpener: getDefaultOpener(),
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

// DefaultConfigPath returns ~/.config/ficroll/config.toml.
func DefaultConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "ficroll", "config.toml")
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("server", cfg.Server)
	v.SetDefault("archive", cfg.Archive)
	v.SetDefault("cache", cfg.Cache)
	v.SetDefault("client", cfg.Client)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("launcher", cfg.Launcher)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultConfigPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("FICROLL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Cache.Path = expandPath(cfg.Cache.Path)
	cfg.Cache.IndexPath = expandPath(cfg.Cache.IndexPath)
	cfg.Client.StatePath = expandPath(cfg.Client.StatePath)
	cfg.Log.File = expandPath(cfg.Log.File)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations are written as strings so the TOML stays readable.
	serverCfg := map[string]interface{}{
		"addr":                config.Server.Addr,
		"allowed_origins":     config.Server.AllowedOrigins,
		"request_timeout":     config.Server.RequestTimeout.String(),
		"generate_per_minute": config.Server.GeneratePerMin,
		"generate_burst":      config.Server.GenerateBurst,
		"shutdown_timeout":    config.Server.ShutdownTimeout.String(),
	}

	archiveCfg := map[string]interface{}{
		"base_url":      config.Archive.BaseURL,
		"user_agent":    config.Archive.UserAgent,
		"http_timeout":  config.Archive.HTTPTimeout.String(),
		"max_retries":   config.Archive.MaxRetries,
		"backoff_base":  config.Archive.BackoffBase.String(),
		"request_delay": config.Archive.RequestDelay.String(),
		"max_page":      config.Archive.MaxPage,
		"max_tags":      config.Archive.MaxTags,
		"feed_fallback": config.Archive.FeedFallback,
	}

	cacheCfg := map[string]interface{}{
		"path":       config.Cache.Path,
		"index_path": config.Cache.IndexPath,
		"ttl":        config.Cache.TTL.String(),
		"timeout":    config.Cache.Timeout.String(),
	}

	clientCfg := map[string]interface{}{
		"base_url":     config.Client.BaseURL,
		"state_path":   config.Client.StatePath,
		"http_timeout": config.Client.HTTPTimeout.String(),
		"debounce":     config.Client.Debounce.String(),
		"min_chars":    config.Client.MinChars,
	}

	v.Set("server", serverCfg)
	v.Set("archive", archiveCfg)
	v.Set("cache", cacheCfg)
	v.Set("client", clientCfg)
	v.Set("ui", config.UI)
	v.Set("log", config.Log)
	v.Set("launcher", config.Launcher)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
