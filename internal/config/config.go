package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/logging"
	"github.com/Fatihx64/yt-dlp-gui/internal/platform"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Download DownloadConfig `mapstructure:"download"`
	Network  NetworkConfig  `mapstructure:"network"`
	Tools    ToolsConfig    `mapstructure:"tools"`
	Store    StoreConfig    `mapstructure:"store"`
	History  HistoryConfig  `mapstructure:"history"`
	Log      logging.Config `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type DownloadConfig struct {
	OutputPath          string   `mapstructure:"output_path"`
	ConcurrentDownloads int      `mapstructure:"concurrent_downloads"`
	DefaultFormat       string   `mapstructure:"default_format"`
	DefaultQuality      string   `mapstructure:"default_quality"`
	EmbedThumbnail      bool     `mapstructure:"embed_thumbnail"`
	EmbedMetadata       bool     `mapstructure:"embed_metadata"`
	EmbedSubtitles      bool     `mapstructure:"embed_subtitles"`
	SubtitleLanguages   []string `mapstructure:"subtitle_languages"`
	RateLimit           string   `mapstructure:"rate_limit"`
	AutoStart           bool     `mapstructure:"auto_start"`
}

type NetworkConfig struct {
	Proxy       string `mapstructure:"proxy"`
	CookiesFile string `mapstructure:"cookies_file"`
}

type ToolsConfig struct {
	YtdlpPath  string `mapstructure:"ytdlp_path"`
	FFmpegPath string `mapstructure:"ffmpeg_path"`
}

type StoreConfig struct {
	StateDir string `mapstructure:"state_dir"`
}

type HistoryConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
	PruneHours    int `mapstructure:"prune_hours"`
}

// Load reads configuration from an optional YAML file, environment
// variables prefixed YTDLPGUI_, and built-in defaults, in that priority.
// An empty path means "use defaults and environment only" unless
// ./config.yaml exists.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("download.output_path", platform.DefaultDownloadDir())
	v.SetDefault("download.concurrent_downloads", 3)
	v.SetDefault("download.default_format", "best")
	v.SetDefault("download.default_quality", "1080")
	v.SetDefault("download.subtitle_languages", []string{"en"})
	v.SetDefault("download.auto_start", false)
	v.SetDefault("store.state_dir", defaultStateDir())
	v.SetDefault("history.retention_days", 90)
	v.SetDefault("history.prune_hours", 24)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "auto")

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	v.SetEnvPrefix("YTDLPGUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port %d out of range", c.Server.Port)
	}
	if c.Download.ConcurrentDownloads < 1 {
		c.Download.ConcurrentDownloads = 1
	}
	if c.Download.OutputPath == "" {
		c.Download.OutputPath = platform.DefaultDownloadDir()
	}
	if c.Download.DefaultFormat == "" {
		c.Download.DefaultFormat = "best"
	}
	if c.Store.StateDir == "" {
		c.Store.StateDir = defaultStateDir()
	}
	if c.History.RetentionDays < 0 {
		c.History.RetentionDays = 0
	}
	if c.History.PruneHours < 1 {
		c.History.PruneHours = 24
	}
	return nil
}

func defaultStateDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(base, "yt-dlp-gui")
}

// ListenAddr is the host:port the API server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// QueueFile is the path of the persisted queue state.
func (c *Config) QueueFile() string {
	return filepath.Join(c.Store.StateDir, "queue.json")
}

// HistoryDB is the path of the download history database.
func (c *Config) HistoryDB() string {
	return filepath.Join(c.Store.StateDir, "history.db")
}

// LockFile guards the state dir against concurrent instances.
func (c *Config) LockFile() string {
	return filepath.Join(c.Store.StateDir, "yt-dlp-gui.lock")
}

// DefaultOptions builds the download options implied by configuration.
// Producers start from these and apply per-item overrides.
func (c *Config) DefaultOptions() domain.DownloadOptions {
	return domain.DownloadOptions{
		EmbedThumbnail: c.Download.EmbedThumbnail,
		EmbedMetadata:  c.Download.EmbedMetadata,
		EmbedSubtitles: c.Download.EmbedSubtitles,
		SubtitleLangs:  c.Download.SubtitleLanguages,
		RateLimit:      c.Download.RateLimit,
		Proxy:          c.Network.Proxy,
		CookiesFile:    c.Network.CookiesFile,
	}
}
