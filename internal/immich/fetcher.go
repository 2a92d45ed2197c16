package immich

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"

	"immich-album-frame/internal/render"
)

// DefaultDownloadTimeout bounds how long downloading a single original may
// take.
const DefaultDownloadTimeout = 40000 * time.Millisecond

// AssetSource describes an object that can list the assets of an album and
// download their originals.
type AssetSource interface {
	GetAlbumAssets(ctx context.Context, id AlbumID) ([]AssetMetadata, error)
	DownloadOriginal(ctx context.Context, md AssetMetadata, timeout time.Duration) (*Asset, error)
}

// Fetcher picks a random asset from an album, downloads it and renders it
// for the target canvas.
type Fetcher struct {
	source          AssetSource
	rand            RandSource
	log             *slog.Logger
	downloadTimeout time.Duration
}

// fetcherOpt is used for configuring the [Fetcher].
type fetcherOpt func(*Fetcher)

// WithRand sets the source used to pick assets.
func WithRand(r RandSource) fetcherOpt {
	return func(f *Fetcher) {
		if r != nil {
			f.rand = r
		}
	}
}

// WithLogger sets the logger failures and progress are reported to.
func WithLogger(log *slog.Logger) fetcherOpt {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// WithDownloadTimeout overrides [DefaultDownloadTimeout]. A value of 0
// disables the timeout.
func WithDownloadTimeout(d time.Duration) fetcherOpt {
	return func(f *Fetcher) { f.downloadTimeout = d }
}

// NewFetcher initializes a Fetcher reading from source. See [WithRand],
// [WithLogger] and [WithDownloadTimeout].
func NewFetcher(source AssetSource, opts ...fetcherOpt) *Fetcher {
	f := &Fetcher{
		source:          source,
		rand:            globalRand{},
		log:             slog.Default(),
		downloadTimeout: DefaultDownloadTimeout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch lists the album's assets, picks one at random, downloads and decodes
// its original, then renders it with opts. Every failure is logged at
// warn level and returned; a nil image is never returned with a nil error.
func (f *Fetcher) Fetch(ctx context.Context, id AlbumID, opts render.Options) (image.Image, error) {
	log := f.log.With("album_id", id)
	fail := func(msg string, err error) (image.Image, error) {
		log.Warn(msg, "error", err)
		return nil, err
	}

	if err := opts.Validate(); err != nil {
		return fail("invalid render options", err)
	}

	assets, err := f.source.GetAlbumAssets(ctx, id)
	if err != nil {
		return fail("failed to list album assets", fmt.Errorf("listing assets of album %s: %w", id, err))
	}
	md, err := PickAsset(f.rand, assets)
	if err != nil {
		return fail("failed to pick asset", err)
	}

	log = log.With("id", md.ID, "name", md.Name)
	log.Info("downloading asset", "candidates", len(assets), "timeout", f.downloadTimeout.String())
	ass, err := f.source.DownloadOriginal(ctx, md, f.downloadTimeout)
	if err != nil {
		return fail("failed to download asset", fmt.Errorf("downloading asset %s: %w", md.ID, err))
	}
	log.Info("downloaded asset", "size", humanize.Bytes(uint64(len(ass.Data))))

	img, err := render.Decode(bytes.NewReader(ass.Data))
	if err != nil {
		return fail("failed to decode asset", fmt.Errorf("asset %s: %w", md.ID, err))
	}
	out, err := render.Render(img, opts)
	if err != nil {
		return fail("failed to render asset", fmt.Errorf("asset %s: %w", md.ID, err))
	}
	log.Debug("rendered asset",
		"source", img.Bounds().Size().String(),
		"output", out.Bounds().Size().String(),
		"pad", opts.Pad)
	return out, nil
}
