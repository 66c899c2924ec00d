// Deezer API implementation of [Source]
//
// Response types based on https://developers.deezer.com/api
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

const (
	deezerBaseURL      = "https://api.deezer.com/2.0"
	deezerDefaultLimit = 50
)

// DeezerError is the error object Deezer embeds in otherwise successful responses.
type DeezerError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (e *DeezerError) Error() string {
	return fmt.Sprintf("deezer %s (code %d): %s", e.Type, e.Code, e.Message)
}

// DeezerArtist is the artist object nested in a track.
type DeezerArtist struct {
	ID   json.Number `json:"id"`
	Name string      `json:"name"`
}

// DeezerAlbum is the album object nested in a track.
type DeezerAlbum struct {
	ID    json.Number `json:"id"`
	Title string      `json:"title"`
}

// DeezerTrack is a track object.
type DeezerTrack struct {
	ID       json.Number  `json:"id"`
	Title    string       `json:"title"`
	Duration int          `json:"duration"` // seconds
	Artist   DeezerArtist `json:"artist"`
	Album    DeezerAlbum  `json:"album"`
}

// DeezerPlaylist is the simplified playlist object returned by listings.
type DeezerPlaylist struct {
	ID       json.Number `json:"id"`
	Title    string      `json:"title"`
	NbTracks int         `json:"nb_tracks"`
	Public   bool        `json:"public"`
}

type deezerPage[T any] struct {
	Data  []T          `json:"data"`
	Total int          `json:"total"`
	Next  string       `json:"next"`
	Error *DeezerError `json:"error"`
}

// DeezerSource implements [Source] over the public Deezer API.
type DeezerSource struct {
	baseURL string
	limit   int
	client  *client
}

// NewDeezerSource creates a source. Empty baseURL and non-positive limit select the defaults.
func NewDeezerSource(baseURL string, limit int, rps float64) *DeezerSource {
	if baseURL == "" {
		baseURL = deezerBaseURL
	}
	if limit <= 0 {
		limit = deezerDefaultLimit
	}
	return &DeezerSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		limit:   limit,
		client:  newClient(rps),
	}
}

func (d *DeezerSource) Name() string {
	return "Deezer"
}

// ListPlaylists calls GET /user/{id}/playlists.
func (d *DeezerSource) ListPlaylists(ctx context.Context, user string) (*Page[models.PlaylistRef], error) {
	if user == "" {
		return nil, fmt.Errorf("%w: deezer user id", shared.ErrMissingArgument)
	}
	endpoint := fmt.Sprintf("%s/user/%s/playlists?limit=%d", d.baseURL, url.PathEscape(user), d.limit)
	return d.fetchPlaylists(ctx, endpoint)
}

// FetchPlaylists follows a "next" URL returned by a playlist listing.
func (d *DeezerSource) FetchPlaylists(ctx context.Context, next string) (*Page[models.PlaylistRef], error) {
	return d.fetchPlaylists(ctx, next)
}

// ListTracks calls GET /playlist/{id}/tracks?index={offset}.
func (d *DeezerSource) ListTracks(ctx context.Context, playlistID string, offset int) (*Page[models.Track], error) {
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	q := url.Values{}
	q.Set("index", strconv.Itoa(offset))
	q.Set("limit", strconv.Itoa(d.limit))
	endpoint := fmt.Sprintf("%s/playlist/%s/tracks?%s", d.baseURL, url.PathEscape(playlistID), q.Encode())
	return d.fetchTracks(ctx, endpoint)
}

// FetchTracks follows a "next" URL returned by a track listing.
func (d *DeezerSource) FetchTracks(ctx context.Context, next string) (*Page[models.Track], error) {
	return d.fetchTracks(ctx, next)
}

func (d *DeezerSource) fetchPlaylists(ctx context.Context, endpoint string) (*Page[models.PlaylistRef], error) {
	var page deezerPage[DeezerPlaylist]
	if err := d.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	records := make([]models.PlaylistRef, len(page.Data))
	for i, p := range page.Data {
		records[i] = models.PlaylistRef{ID: p.ID.String(), Name: p.Title, TrackCount: p.NbTracks}
	}
	return &Page[models.PlaylistRef]{Records: records, Next: page.Next}, nil
}

func (d *DeezerSource) fetchTracks(ctx context.Context, endpoint string) (*Page[models.Track], error) {
	var page deezerPage[DeezerTrack]
	if err := d.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}

	records := make([]models.Track, len(page.Data))
	for i, t := range page.Data {
		records[i] = models.NewTrack(t.Artist.Name, t.Title, t.Album.Title)
	}
	return &Page[models.Track]{Records: records, Next: page.Next}, nil
}

// get decodes a page and surfaces in-body errors, which Deezer returns with status 200.
func (d *DeezerSource) get(ctx context.Context, endpoint string, page interface{ deezerErr() *DeezerError }) error {
	status, data, err := d.client.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	if !ok(status) {
		var body struct {
			Error *DeezerError `json:"error"`
		}
		detail := ""
		if json.Unmarshal(data, &body) == nil && body.Error != nil {
			detail = body.Error.Message
		}
		return statusError("deezer", status, detail)
	}

	if err := decode("deezer", data, page); err != nil {
		return err
	}
	if derr := page.deezerErr(); derr != nil {
		if derr.Code == 800 {
			return fmt.Errorf("%w: %w: %w", shared.ErrAPIRequest, shared.ErrPlaylistNotFound, derr)
		}
		return fmt.Errorf("%w: %w", shared.ErrAPIRequest, derr)
	}
	return nil
}

func (p *deezerPage[T]) deezerErr() *DeezerError { return p.Error }
