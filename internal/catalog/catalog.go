package catalog

import (
	"context"
	"fmt"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"golang.org/x/oauth2"
)

// Page is one page of a paginated listing. An empty Next marks the last page.
type Page[T any] struct {
	Records []T
	Next    string
}

// Source is a catalog playlists are exported from.
type Source interface {
	// ListPlaylists returns the first page of the user's playlists.
	ListPlaylists(ctx context.Context, user string) (*Page[models.PlaylistRef], error)

	// FetchPlaylists returns the playlist page identified by a continuation token.
	FetchPlaylists(ctx context.Context, next string) (*Page[models.PlaylistRef], error)

	// ListTracks returns the page of a playlist's tracks starting at offset.
	ListTracks(ctx context.Context, playlistID string, offset int) (*Page[models.Track], error)

	// FetchTracks returns the track page identified by a continuation token.
	FetchTracks(ctx context.Context, next string) (*Page[models.Track], error)

	// Name returns the name of the catalog (e.g., "Deezer")
	Name() string
}

// Destination is a catalog playlists are imported into.
type Destination interface {
	// Search runs a full-text track search. No results is not an error.
	Search(ctx context.Context, query string) ([]models.Candidate, error)

	// CreatePlaylist creates an empty playlist and returns its destination ID.
	CreatePlaylist(ctx context.Context, name string) (string, error)

	// AddTracks appends the given destination track IDs to a playlist, in order.
	AddTracks(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the catalog (e.g., "Spotify", "YouTube Music")
	Name() string
}

// NewSource builds the configured source catalog.
func NewSource(cfg *shared.Config) (Source, error) {
	d := cfg.Source.Deezer
	return NewDeezerSource(d.BaseURL, cfg.Engine.PageSize, d.RateLimit), nil
}

// NewDestination builds the destination catalog selected in cfg.
//
// onRefresh receives Spotify tokens whenever they change and may be nil.
func NewDestination(ctx context.Context, cfg *shared.Config, onRefresh func(*oauth2.Token)) (Destination, error) {
	switch cfg.Destination.Service {
	case "spotify":
		sc := cfg.Destination.Spotify
		dst, err := NewSpotifyDestination(sc.Map(), sc.RateLimit)
		if err != nil {
			return nil, err
		}
		if err := dst.Authenticate(ctx, sc.Token(), onRefresh); err != nil {
			return nil, err
		}
		return dst, nil
	case "youtube":
		yc := cfg.Destination.YouTube
		dst := NewYouTubeDestination(yc.ProxyURL, yc.RateLimit)
		if yc.AuthFile != "" {
			dst.SetAuthFile(yc.AuthFile)
		}
		return dst, nil
	default:
		return nil, fmt.Errorf("%w: unknown destination service %q", shared.ErrInvalidConfig, cfg.Destination.Service)
	}
}
