package immich

import (
	"errors"
	"fmt"
)

var (
	// ErrAlbumNotFound matches any [AlbumNotFoundError].
	ErrAlbumNotFound = errors.New("album not found")
	// ErrEmptyAlbum is returned when an album has no assets to choose from.
	ErrEmptyAlbum = errors.New("no images found in the specified album")
)

// AlbumNotFoundError is returned when no album on the server has the
// requested name.
type AlbumNotFoundError struct {
	Name string
}

func (e *AlbumNotFoundError) Error() string {
	return fmt.Sprintf("album %q not found on immich server", e.Name)
}

func (e *AlbumNotFoundError) Is(target error) bool { return target == ErrAlbumNotFound }
