package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "wavecast"

type Config struct {
	LogLevel  string `koanf:"log_level"`  // zerolog level name (default: "info")
	LogFormat string `koanf:"log_format"` // "json" or "console" (default: "console")
	Icons     string `koanf:"icons"`      // "unicode", "nerd" or "none" (default: "unicode")

	Cache         CacheConfig         `koanf:"cache"`
	Downloader    DownloaderConfig    `koanf:"downloader"`
	Player        PlayerConfig        `koanf:"player"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// CacheConfig holds the sliding-window cache settings.
type CacheConfig struct {
	Dir         string        `koanf:"dir"`          // cache directory (default: $XDG_CACHE_HOME/wavecast/music)
	Behind      *int          `koanf:"behind"`       // songs kept before the cursor (default: 2)
	Ahead       *int          `koanf:"ahead"`        // songs kept and prefetched after the cursor (default: 3)
	PreloadWait time.Duration `koanf:"preload_wait"` // max wait for an in-flight prefetch (default: 30s)
}

// DownloaderConfig holds yt-dlp and ffmpeg settings.
type DownloaderConfig struct {
	YtdlpPath   string `koanf:"ytdlp_path"`   // explicit yt-dlp binary (default: PATH lookup)
	FfmpegPath  string `koanf:"ffmpeg_path"`  // explicit ffmpeg binary (default: PATH lookup)
	AutoInstall *bool  `koanf:"auto_install"` // download yt-dlp when missing (default: true)
	UpdateCheck *bool  `koanf:"update_check"` // run "yt-dlp -U" at start-up (default: true)

	Format     string `koanf:"format"`      // yt-dlp format selector (default: "bestaudio/best")
	Codec      string `koanf:"codec"`       // "libopus" or "libvorbis" (default: "libopus")
	Extension  string `koanf:"extension"`   // cache file extension (default: per codec)
	Bitrate    string `koanf:"bitrate"`     // ffmpeg -b:a (default: "128k")
	SampleRate int    `koanf:"sample_rate"` // ffmpeg -ar (default: 48000)
	Channels   int    `koanf:"channels"`    // ffmpeg -ac (default: 2)

	ExtractTimeout  time.Duration `koanf:"extract_timeout"`  // default: 30s
	PlaylistTimeout time.Duration `koanf:"playlist_timeout"` // default: 120s
	DownloadTimeout time.Duration `koanf:"download_timeout"` // default: 180s

	// Failure classification overrides, reason name -> substrings.
	// A listed reason replaces its default patterns; new reasons are appended.
	ErrorPatterns map[string][]string `koanf:"error_patterns"`

	InfoCache         *bool `koanf:"info_cache"`           // cache extracted metadata in sqlite (default: true)
	InfoCacheTTLHours int   `koanf:"info_cache_ttl_hours"` // default: 24
}

// PlayerConfig holds orchestration settings.
type PlayerConfig struct {
	Channel              string        `koanf:"channel"`                // transport channel/device name (default: "default")
	Volume               *float64      `koanf:"volume"`                 // 0.0-1.0 (default: 1.0)
	Debounce             time.Duration `koanf:"debounce"`               // default: 500ms
	ReconnectInterval    time.Duration `koanf:"reconnect_interval"`     // default: 15s
	ReconnectMaxAttempts int           `koanf:"reconnect_max_attempts"` // default: 5
	PageSize             int           `koanf:"page_size"`              // queue listing page size (default: 5)
}

// NotificationsConfig controls desktop notifications.
type NotificationsConfig struct {
	Enabled *bool `koanf:"enabled"` // default: true
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ in paths
	cfg.Cache.Dir = expandPath(cfg.Cache.Dir)
	cfg.Downloader.YtdlpPath = expandPath(cfg.Downloader.YtdlpPath)
	cfg.Downloader.FfmpegPath = expandPath(cfg.Downloader.FfmpegPath)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/wavecast/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName, "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetLogLevel returns the configured log level, defaulting to "info".
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return "info"
	}
	return strings.ToLower(c.LogLevel)
}

// UseJSONLogs returns true if logs should be written as JSON lines.
func (c *Config) UseJSONLogs() bool {
	return strings.EqualFold(c.LogFormat, "json")
}

// GetCacheConfig returns the cache configuration with defaults applied.
func (c *Config) GetCacheConfig() CacheConfig {
	cfg := c.Cache

	if cfg.Dir == "" {
		cfg.Dir = filepath.Join(xdg.CacheHome, appName, "music")
	}
	if cfg.Behind == nil || *cfg.Behind < 0 {
		cfg.Behind = intPtr(2)
	}
	if cfg.Ahead == nil || *cfg.Ahead < 0 {
		cfg.Ahead = intPtr(3)
	}
	if cfg.PreloadWait <= 0 {
		cfg.PreloadWait = 30 * time.Second
	}

	return cfg
}

// GetDownloaderConfig returns the downloader configuration with defaults applied.
func (c *Config) GetDownloaderConfig() DownloaderConfig {
	cfg := c.Downloader

	if cfg.AutoInstall == nil {
		cfg.AutoInstall = boolPtr(true)
	}
	if cfg.UpdateCheck == nil {
		cfg.UpdateCheck = boolPtr(true)
	}
	if cfg.Format == "" {
		cfg.Format = "bestaudio/best"
	}
	if cfg.Codec == "" {
		cfg.Codec = "libopus"
	}
	if cfg.Extension == "" {
		cfg.Extension = ".opus"
		if cfg.Codec == "libvorbis" {
			cfg.Extension = ".ogg"
		}
	}
	if !strings.HasPrefix(cfg.Extension, ".") {
		cfg.Extension = "." + cfg.Extension
	}
	if cfg.Bitrate == "" {
		cfg.Bitrate = "128k"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 48000
	}
	if cfg.Channels <= 0 || cfg.Channels > 2 {
		cfg.Channels = 2
	}
	if cfg.ExtractTimeout <= 0 {
		cfg.ExtractTimeout = 30 * time.Second
	}
	if cfg.PlaylistTimeout <= 0 {
		cfg.PlaylistTimeout = 120 * time.Second
	}
	if cfg.DownloadTimeout <= 0 {
		cfg.DownloadTimeout = 180 * time.Second
	}
	if cfg.InfoCache == nil {
		cfg.InfoCache = boolPtr(true)
	}
	if cfg.InfoCacheTTLHours <= 0 {
		cfg.InfoCacheTTLHours = 24
	}

	return cfg
}

// GetPlayerConfig returns the player configuration with defaults applied.
func (c *Config) GetPlayerConfig() PlayerConfig {
	cfg := c.Player

	if cfg.Channel == "" {
		cfg.Channel = "default"
	}
	if cfg.Volume == nil || *cfg.Volume < 0 || *cfg.Volume > 1 {
		v := 1.0
		cfg.Volume = &v
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = 500 * time.Millisecond
	}
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = 15 * time.Second
	}
	if cfg.ReconnectMaxAttempts <= 0 {
		cfg.ReconnectMaxAttempts = 5
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 5
	}

	return cfg
}

// NotificationsEnabled returns true unless notifications are disabled.
func (c *Config) NotificationsEnabled() bool {
	return c.Notifications.Enabled == nil || *c.Notifications.Enabled
}

// DataPath returns the path of a file in the application's XDG data dir.
func DataPath(name string) (string, error) {
	return xdg.DataFile(filepath.Join(appName, name))
}

// StatePath returns the path of a file in the application's XDG state dir.
func StatePath(name string) (string, error) {
	return xdg.StateFile(filepath.Join(appName, name))
}

func intPtr(v int) *int { return &v }

func boolPtr(v bool) *bool { return &v }
