package immich

import "immich-album-frame/internal/immich/api"

// Redeclare the immich API types.
type Asset = api.Asset
type AssetID = api.AssetID
type Album = api.Album
type AlbumID = api.AlbumID
type AssetMetadata = api.AssetMetadata
