package immich

import (
	"context"
	"fmt"
	"log/slog"
)

// AlbumLister describes an object that can list every album on the server.
type AlbumLister interface {
	GetAlbums(ctx context.Context) ([]Album, error)
}

// ResolveAlbum looks up the ID of the album called name. Names are compared
// exactly and the first match wins if the server has duplicates. An
// [AlbumNotFoundError] is returned if nothing matches.
func ResolveAlbum(ctx context.Context, source AlbumLister, name string, log *slog.Logger) (AlbumID, error) {
	log = log.With("album_name", name)
	albums, err := source.GetAlbums(ctx)
	if err != nil {
		log.Warn("failed to list albums", "error", err)
		return "", fmt.Errorf("listing albums: %w", err)
	}
	for _, album := range albums {
		if album.Name == name {
			log.Info("found album", "id", album.ID, "asset_count", album.AssetCount)
			return album.ID, nil
		}
	}
	log.Warn("album not found", "albums", len(albums))
	return "", &AlbumNotFoundError{Name: name}
}
