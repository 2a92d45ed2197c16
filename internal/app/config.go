package app

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dustin/go-humanize"
	"gopkg.in/natefinch/lumberjack.v2"

	"immich-album-frame/internal/device"
	"immich-album-frame/internal/secrets"
)

// ConfigEnv names the environment variable pointing at the config file.
const ConfigEnv = "IMMICH_FRAME_CONFIG"

// Config is the top-level configuration struct that is loaded via TOML
// decoding of the file specified by the IMMICH_FRAME_CONFIG environment
// variable (or "config.toml" if empty).
//
// This is the primary way to configure the application. The user-facing
// plugin settings (server URL, album name, padding) live in a separate file
// named by Plugin.SettingsPath.
type Config struct {
	Device  device.Config
	Secrets secrets.Config
	Plugin  PluginConfig
	App     AppConfig
}

// PluginConfig tunes how images are fetched.
type PluginConfig struct {
	// SettingsPath is the TOML file holding the user settings. Defaults to
	// "settings.toml".
	SettingsPath string
	// DownloadTimeout bounds each original download. Defaults to 40s.
	DownloadTimeout time.Duration
	// MetadataTimeout bounds album listing and lookup. 0 disables it.
	MetadataTimeout time.Duration
	// MaxAssetSize rejects larger originals, e.g. "50MB". 0 is unlimited.
	MaxAssetSize HumanBytes
}

// AppConfig controls process level behavior.
type AppConfig struct {
	// Output is where the rendered PNG is written. Defaults to "frame.png".
	Output string
	// Preview shows the rendered frame in a fullscreen window.
	Preview bool
	// RefreshInterval regenerates the previewed frame on this interval. 0
	// renders a single frame.
	RefreshInterval time.Duration
	// Seed makes the asset pick reproducible when non-zero.
	Seed uint64
	// LogFile rotates logs to this file instead of stderr.
	LogFile   string
	LogLevel  slog.Level
	LogMaxAge int
}

// HumanBytes is a custom type to decode human-readable byte values into an
// integer.
type HumanBytes uint64

// UnmarshalText implements toml.TextUnmarshaler.
func (h *HumanBytes) UnmarshalText(text []byte) error {
	nbytes, err := humanize.ParseBytes(string(text))
	*h = HumanBytes(nbytes)
	return err
}

// String converts the integer back into a human-readable representation.
func (h *HumanBytes) String() string {
	if h == nil {
		return ""
	}
	return humanize.Bytes(uint64(*h))
}

// LoadConfig reads the config file named by [ConfigEnv] and fills in
// defaults.
func LoadConfig() (*Config, error) {
	// Determine config file path.
	configFilePath := "config.toml"
	if envConfigFilePath := os.Getenv(ConfigEnv); envConfigFilePath != "" {
		configFilePath = envConfigFilePath
	}
	if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
		return nil, errors.New("config file not found")
	} else if err != nil {
		return nil, err
	}

	// TOML-decode config file contents.
	var conf Config
	if _, err := toml.DecodeFile(configFilePath, &conf); err != nil {
		return nil, err
	}
	conf.setDefaults()
	return &conf, nil
}

func (c *Config) setDefaults() {
	if c.Plugin.SettingsPath == "" {
		c.Plugin.SettingsPath = "settings.toml"
	}
	if c.Plugin.DownloadTimeout == 0 {
		c.Plugin.DownloadTimeout = 40 * time.Second
	}
	if c.App.Output == "" {
		c.App.Output = "frame.png"
	}
}

// nopCloser is the [io.Closer] for logs written to stderr.
type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the JSON logger for the process. Logs go to stderr unless
// a log file is configured, in which case they are rotated by lumberjack.
func newLogger(conf AppConfig) (*slog.Logger, io.Closer) {
	var w io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}
	if conf.LogFile != "" {
		lj := &lumberjack.Logger{
			Filename:   conf.LogFile,
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     conf.LogMaxAge,
		}
		w, closer = lj, lj
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: conf.LogLevel})
	return slog.New(handler), closer
}
