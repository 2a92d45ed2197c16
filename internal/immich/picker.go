package immich

import "math/rand/v2"

// RandSource is the source of randomness used to pick assets. *rand.Rand
// satisfies it, so tests can use a seeded generator.
type RandSource interface {
	IntN(n int) int
}

// globalRand uses the automatically seeded top-level math/rand/v2 functions.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// PickAsset chooses one of assets uniformly at random. [ErrEmptyAlbum] is
// returned if there is nothing to choose from.
func PickAsset(r RandSource, assets []AssetMetadata) (AssetMetadata, error) {
	if len(assets) == 0 {
		return AssetMetadata{}, ErrEmptyAlbum
	}
	return assets[r.IntN(len(assets))], nil
}
