// Spotify API implementation of [Destination]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL     = "https://accounts.spotify.com/authorize"
	spotifyTokenURL    = "https://accounts.spotify.com/api/token"
	spotifyBaseURL     = "https://api.spotify.com/v1"
	spotifyRedirectURL = "http://127.0.0.1:8888/callback"
	spotifySearchLimit = 10
	// Spotify accepts at most 100 URIs per add-items request.
	spotifyMaxBatch = 100
)

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []SpotifyArtist `json:"artists"`
	Album      SpotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
}

// SpotifySearchResponse is the body of GET /search?type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
		Total int            `json:"total"`
	} `json:"tracks"`
}

type spotifyError struct {
	Error struct {
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"error"`
}

// SpotifyDestination implements [Destination] for the Spotify Web API.
type SpotifyDestination struct {
	config  *oauth2.Config
	baseURL string
	client  *client

	mu     sync.Mutex
	userID string

	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyDestination creates a destination from client credentials.
//
// Call [SpotifyDestination.Authenticate] with a stored token before use.
func NewSpotifyDestination(credentials map[string]string, rps float64) (*SpotifyDestination, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURL := credentials["redirect_url"]
	if redirectURL == "" {
		redirectURL = spotifyRedirectURL
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes: []string{
			"playlist-modify-private",
			"playlist-modify-public",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyDestination{
		config:  config,
		baseURL: spotifyBaseURL,
		client:  newClient(rps),
	}, nil
}

func (s *SpotifyDestination) Name() string {
	return "Spotify"
}

// OAuthConfig returns the authorization code flow settings used for login.
func (s *SpotifyDestination) OAuthConfig() *oauth2.Config {
	return s.config
}

// AuthCodeURL returns the consent page URL. Offline access is requested so a refresh token is issued.
func (s *SpotifyDestination) AuthCodeURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate installs token as the request credential. Expired tokens are refreshed automatically and
// each new token is passed to onRefresh.
func (s *SpotifyDestination) Authenticate(ctx context.Context, token *oauth2.Token, onRefresh func(*oauth2.Token)) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: spotify access or refresh token required", shared.ErrNotAuthenticated)
	}

	s.onTokenRefresh = onRefresh
	source := &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: onRefresh,
		last:     token.AccessToken,
	}
	s.client.httpClient = oauth2.NewClient(ctx, oauth2.ReuseTokenSource(token, source))
	return nil
}

// refreshableTokenSource reports every token that differs from the last one seen.
type refreshableTokenSource struct {
	source   oauth2.TokenSource
	callback func(*oauth2.Token)

	mu   sync.Mutex
	last string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.last
	r.last = token.AccessToken
	r.mu.Unlock()

	if changed && r.callback != nil {
		r.callback(token)
	}
	return token, nil
}

func (s *SpotifyDestination) request(ctx context.Context, method, endpoint string, body, result any) error {
	status, data, err := s.client.do(ctx, method, s.baseURL+endpoint, body)
	if err != nil {
		return err
	}

	if !ok(status) {
		var e spotifyError
		_ = json.Unmarshal(data, &e)
		return statusError("spotify", status, e.Error.Message)
	}
	return decode("spotify", data, result)
}

// CurrentUser retrieves the authenticated user's profile.
func (s *SpotifyDestination) CurrentUser(ctx context.Context) (*SpotifyUser, error) {
	var user SpotifyUser
	if err := s.request(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Search calls GET /search?type=track. Candidate IDs are track URIs, which is what playlist endpoints accept.
func (s *SpotifyDestination) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("type", "track")
	q.Set("limit", strconv.Itoa(spotifySearchLimit))

	var response SpotifySearchResponse
	if err := s.request(ctx, http.MethodGet, "/search?"+q.Encode(), nil, &response); err != nil {
		return nil, err
	}

	candidates := make([]models.Candidate, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		artist := ""
		if len(item.Artists) > 0 {
			artist = item.Artists[0].Name
		}
		id := item.URI
		if id == "" {
			id = "spotify:track:" + item.ID
		}
		candidates = append(candidates, models.Candidate{
			ID:    id,
			Track: models.NewTrack(artist, item.Name, item.Album.Name),
		})
	}
	return candidates, nil
}

// CreatePlaylist calls POST /users/{id}/playlists. New playlists are private.
func (s *SpotifyDestination) CreatePlaylist(ctx context.Context, name string) (string, error) {
	userID, err := s.resolveUser(ctx)
	if err != nil {
		return "", err
	}

	body := map[string]any{
		"name":        name,
		"public":      false,
		"description": "Imported by dzx",
	}
	var created struct {
		ID string `json:"id"`
	}
	endpoint := fmt.Sprintf("/users/%s/playlists", url.PathEscape(userID))
	if err := s.request(ctx, http.MethodPost, endpoint, body, &created); err != nil {
		return "", fmt.Errorf("failed to create playlist %q: %w", name, err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("%w: spotify returned no playlist id", shared.ErrAPIRequest)
	}
	return created.ID, nil
}

// AddTracks calls POST /playlists/{id}/tracks in batches of at most 100 URIs.
func (s *SpotifyDestination) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	for start := 0; start < len(trackIDs); start += spotifyMaxBatch {
		end := min(start+spotifyMaxBatch, len(trackIDs))
		body := map[string]any{"uris": trackIDs[start:end]}
		if err := s.request(ctx, http.MethodPost, endpoint, body, nil); err != nil {
			return fmt.Errorf("failed to add tracks %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func (s *SpotifyDestination) resolveUser(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.userID != "" {
		return s.userID, nil
	}

	user, err := s.CurrentUser(ctx)
	if err != nil {
		return "", err
	}
	s.userID = user.ID
	return s.userID, nil
}
