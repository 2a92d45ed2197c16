package api

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"
)

// AssetID is the immich ID for an asset, usually in the shape of UUIDv4.
type AssetID string

// AssetMetadata contains relevant asset information retrieved from the immich API.
//
// See: https://api.immich.app/endpoints/assets/getAssetInfo
type AssetMetadata struct {
	ID       AssetID `json:"id"`
	Type     string  `json:"type"`
	Name     string  `json:"originalFileName"`
	MimeType string  `json:"originalMimeType"`
}

// Asset combines AssetMetadata with the actual asset data.
type Asset struct {
	Meta AssetMetadata
	Data []byte
}

// DownloadOriginal downloads the original file of the asset. If timeout is
// positive the whole download, body included, must finish within it or an
// error matching [ErrDownloadTimeout] is returned.
//
// See: https://api.immich.app/endpoints/assets/downloadAsset
func (c Client) DownloadOriginal(ctx context.Context, md AssetMetadata, timeout time.Duration) (*Asset, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeoutCause(ctx, timeout, ErrDownloadTimeout)
		defer cancel()
	}

	resp, err := c.get(ctx, path.Join("/assets", string(md.ID), "original"))
	if err != nil {
		return nil, downloadError(ctx, err)
	}

	defer resp.Body.Close()
	data, err := c.readAsset(resp.Body)
	if err != nil {
		return nil, downloadError(ctx, fmt.Errorf("reading asset %s: %w", md.ID, err))
	}

	return &Asset{
		Meta: md,
		Data: data,
	}, nil
}

// downloadError marks err as a timeout if the download's own deadline
// expired. A deadline on the caller's context is left as is.
func downloadError(ctx context.Context, err error) error {
	if errors.Is(context.Cause(ctx), ErrDownloadTimeout) {
		return fmt.Errorf("%w: %w", ErrDownloadTimeout, err)
	}
	return err
}
