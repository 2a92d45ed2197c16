// Package plugin renders a random photo from a configured immich album for
// a display device.
package plugin

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"time"

	"immich-album-frame/internal/immich"
	"immich-album-frame/internal/immich/api"
	"immich-album-frame/internal/render"
	"immich-album-frame/internal/settings"
)

// SecretName is the secret holding the immich API key.
const SecretName = "IMMICH_SECRET"

// ErrLoadImage is returned when the album was resolved but no image could be
// produced from it.
var ErrLoadImage = errors.New("failed to load image, please check logs")

// ConfigError is returned when a required setting is missing or invalid.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string { return e.Msg }

// SecretStore resolves named secrets, returning "" if unset.
type SecretStore interface {
	LoadEnvKey(name string) string
}

// SettingsStore loads and persists the user-supplied settings. Save reports
// whether anything was written.
type SettingsStore interface {
	Load() (settings.Settings, error)
	Save(settings.Settings) (bool, error)
}

// Device exposes the display configuration.
type Device interface {
	Dimensions() (width, height int, ok bool)
	IsVertical() bool
}

// Plugin renders frames from an immich album.
type Plugin struct {
	secrets         SecretStore
	settings        SettingsStore
	device          Device
	log             *slog.Logger
	rand            immich.RandSource
	transport       http.RoundTripper
	downloadTimeout time.Duration
	metadataTimeout time.Duration
	maxAssetSize    uint64
}

// Option configures a [Plugin].
type Option func(*Plugin)

// WithLogger sets the logger handed to every stage.
func WithLogger(log *slog.Logger) Option {
	return func(p *Plugin) {
		if log != nil {
			p.log = log
		}
	}
}

// WithRand sets the source used to pick assets.
func WithRand(r immich.RandSource) Option {
	return func(p *Plugin) { p.rand = r }
}

// WithTransport sets the HTTP transport used to reach the immich server.
func WithTransport(rt http.RoundTripper) Option {
	return func(p *Plugin) { p.transport = rt }
}

// WithDownloadTimeout bounds each original download. Defaults to
// [immich.DefaultDownloadTimeout].
func WithDownloadTimeout(d time.Duration) Option {
	return func(p *Plugin) { p.downloadTimeout = d }
}

// WithMetadataTimeout bounds the album listing and album lookup calls. The
// default of 0 applies no deadline beyond the caller's context.
func WithMetadataTimeout(d time.Duration) Option {
	return func(p *Plugin) { p.metadataTimeout = d }
}

// WithMaxAssetSize limits the size of downloaded originals. 0 is unlimited.
func WithMaxAssetSize(n uint64) Option {
	return func(p *Plugin) { p.maxAssetSize = n }
}

// New initializes a Plugin from its collaborators.
func New(secrets SecretStore, store SettingsStore, dev Device, opts ...Option) *Plugin {
	p := &Plugin{
		secrets:         secrets,
		settings:        store,
		device:          dev,
		log:             slog.Default(),
		downloadTimeout: immich.DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// GenerateImage validates the configuration, resolves the configured album,
// and renders a random photo from it for the device. All configuration is
// checked before any request is made.
func (p *Plugin) GenerateImage(ctx context.Context) (image.Image, error) {
	apiKey := p.secrets.LoadEnvKey(SecretName)
	if apiKey == "" {
		return nil, &ConfigError{Msg: "Immich API key not configured."}
	}
	conf, err := p.settings.Load()
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	if conf.ImmichServerURL == "" {
		return nil, &ConfigError{Msg: "Immich Server URL is required."}
	}
	if conf.AlbumName == "" {
		return nil, &ConfigError{Msg: "Album name is required."}
	}
	width, height, ok := p.device.Dimensions()
	if !ok {
		return nil, &ConfigError{Msg: "Device resolution is not configured."}
	}
	if p.device.IsVertical() {
		width, height = height, width
	}

	client, err := api.NewClient(
		api.Config{ServerURL: conf.ImmichServerURL, APIKey: apiKey},
		api.WithTransport(p.transport),
		api.WithMaxAssetSize(p.maxAssetSize),
	)
	if err != nil {
		return nil, &ConfigError{Msg: fmt.Sprintf("Immich Server URL is invalid: %v", err)}
	}
	source := metadataClient{Client: client, timeout: p.metadataTimeout}

	log := p.log.With("server", conf.ImmichServerURL)
	log.Info("grabbing album from immich", "album_name", conf.AlbumName, "width", width, "height", height, "pad", conf.PadImage)

	albumID, err := immich.ResolveAlbum(ctx, source, conf.AlbumName, log)
	if err != nil {
		return nil, fmt.Errorf("resolving album %q: %w", conf.AlbumName, err)
	}

	fetcher := immich.NewFetcher(source,
		immich.WithRand(p.rand),
		immich.WithLogger(log),
		immich.WithDownloadTimeout(p.downloadTimeout),
	)
	img, err := fetcher.Fetch(ctx, albumID, render.Options{
		Width:  width,
		Height: height,
		Pad:    conf.PadImage,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadImage, err)
	}

	// Persist the settings used so later refreshes reuse them.
	if changed, err := p.settings.Save(conf); err != nil {
		log.Warn("failed to persist settings", "error", err)
	} else if changed {
		log.Debug("persisted settings")
	}
	return img, nil
}

// metadataClient applies an optional deadline to the album listing and
// lookup calls. Downloads carry their own timeout.
type metadataClient struct {
	api.Client
	timeout time.Duration
}

func (m metadataClient) GetAlbums(ctx context.Context) ([]immich.Album, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.Client.GetAlbums(ctx)
}

func (m metadataClient) GetAlbumAssets(ctx context.Context, id immich.AlbumID) ([]immich.AssetMetadata, error) {
	ctx, cancel := m.withTimeout(ctx)
	defer cancel()
	return m.Client.GetAlbumAssets(ctx, id)
}

func (m metadataClient) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}
