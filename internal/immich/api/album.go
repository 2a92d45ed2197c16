package api

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
)

// AlbumID is the immich ID for an album, usually in the shape of UUIDv4.
type AlbumID string

// Album contains relevant album information retrieved from the immich API.
//
// See: https://api.immich.app/models/AlbumResponseDto
type Album struct {
	Name        string  `json:"albumName"`
	Description string  `json:"description"`
	ID          AlbumID `json:"id"`
	Order       string  `json:"order"`
	AssetCount  int     `json:"assetCount"`
}

// GetAlbums retrieves all albums from the immich API.
//
// See: https://api.immich.app/endpoints/albums/getAllAlbums
func (c Client) GetAlbums(ctx context.Context) ([]Album, error) {
	resp, err := c.get(ctx, "/albums")
	if err != nil {
		return nil, err
	}

	defer resp.Body.Close()
	var albums []Album
	if err := json.NewDecoder(resp.Body).Decode(&albums); err != nil {
		return nil, fmt.Errorf("decoding albums: %w", err)
	}
	return albums, nil
}

// GetAlbumAssets retrieves the album asset metadata for the provided album ID.
// A missing "assets" field yields a nil slice.
//
// See: https://api.immich.app/endpoints/albums/getAlbumInfo
func (c Client) GetAlbumAssets(ctx context.Context, id AlbumID) ([]AssetMetadata, error) {
	resp, err := c.get(ctx, path.Join("/albums", string(id)))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	type albumResp struct {
		Assets []AssetMetadata `json:"assets"`
	}
	var ar albumResp
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("decoding album %s: %w", id, err)
	}
	return ar.Assets, nil
}
