// YouTube Music implementation of [Destination]
//
// Communicates with the FastAPI proxy server running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

const defaultYTBaseURL string = "http://localhost:8080"

// YouTubeArtist represents an artist in YouTube Music responses.
type YouTubeArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeTrack represents a song search result.
type YouTubeTrack struct {
	VideoID     string          `json:"videoId"`
	Title       string          `json:"title"`
	Artists     []YouTubeArtist `json:"artists"`
	Album       *youtubeAlbum   `json:"album"`
	Duration    string          `json:"duration"`
	DurationSec int             `json:"duration_seconds"`
}

// YouTubeDestination implements [Destination] via the ytmusicapi proxy.
type YouTubeDestination struct {
	baseURL  string
	authFile string
	client   *client
}

// NewYouTubeDestination creates a destination for the proxy at baseURL.
func NewYouTubeDestination(baseURL string, rps float64) *YouTubeDestination {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}

	return &YouTubeDestination{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  newClient(rps),
	}
}

func (y *YouTubeDestination) Name() string {
	return "YouTube Music"
}

// SetAuthFile sets the browser.json or oauth.json path sent to the proxy in the X-Auth-File header.
func (y *YouTubeDestination) SetAuthFile(path string) {
	y.authFile = path
	y.client.header.Set("X-Auth-File", path)
}

func (y *YouTubeDestination) request(ctx context.Context, method, endpoint string, body, result any) error {
	status, data, err := y.client.do(ctx, method, y.baseURL+endpoint, body)
	if err != nil {
		return err
	}

	if !ok(status) {
		var errResp struct {
			Detail string `json:"detail"`
		}
		_ = json.Unmarshal(data, &errResp)
		return statusError("youtube music", status, errResp.Detail)
	}
	return decode("youtube music", data, result)
}

// Search calls GET /api/search?q={query}&filter=songs.
func (y *YouTubeDestination) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	endpoint := fmt.Sprintf("/api/search?q=%s&filter=songs", url.QueryEscape(query))

	var results []YouTubeTrack
	if err := y.request(ctx, http.MethodGet, endpoint, nil, &results); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(results))
	for _, r := range results {
		if r.VideoID == "" {
			continue
		}
		artist := ""
		if len(r.Artists) > 0 {
			artist = r.Artists[0].Name
		}
		album := ""
		if r.Album != nil {
			album = r.Album.Name
		}
		candidates = append(candidates, models.Candidate{
			ID:    r.VideoID,
			Track: models.NewTrack(artist, r.Title, album),
		})
	}
	return candidates, nil
}

// CreatePlaylist calls POST /api/playlists. New playlists are private.
func (y *YouTubeDestination) CreatePlaylist(ctx context.Context, name string) (string, error) {
	body := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         name,
		Description:   "Imported by dzx",
		PrivacyStatus: "PRIVATE",
	}

	var created struct {
		PlaylistID string `json:"playlist_id"`
	}
	if err := y.request(ctx, http.MethodPost, "/api/playlists", body, &created); err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", name, err)
	}
	if created.PlaylistID == "" {
		return "", fmt.Errorf("%w: proxy returned no playlist id", shared.ErrAPIRequest)
	}
	return created.PlaylistID, nil
}

// AddTracks calls POST /api/playlists/{id}/items with every video ID in one request.
func (y *YouTubeDestination) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}

	body := struct {
		VideoIDs []string `json:"video_ids"`
	}{VideoIDs: trackIDs}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", url.PathEscape(playlistID))
	if err := y.request(ctx, http.MethodPost, endpoint, body, nil); err != nil {
		return fmt.Errorf("failed to add tracks to playlist: %w", err)
	}
	return nil
}
