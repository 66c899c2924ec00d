package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/dzx/internal/shared"
)

func deezerTrackJSON(id int, artist, title, album string) map[string]any {
	return map[string]any{
		"id":     id,
		"title":  title,
		"artist": map[string]any{"id": 1, "name": artist},
		"album":  map[string]any{"id": 2, "title": album},
	}
}

func TestDeezerSource(t *testing.T) {
	t.Run("NewDeezerSource defaults", func(t *testing.T) {
		src := NewDeezerSource("", 0, 0)
		if src.baseURL != deezerBaseURL {
			t.Errorf("expected base URL %s, got %s", deezerBaseURL, src.baseURL)
		}
		if src.limit != deezerDefaultLimit {
			t.Errorf("expected limit %d, got %d", deezerDefaultLimit, src.limit)
		}
		if src.Name() != "Deezer" {
			t.Errorf("expected name Deezer, got %s", src.Name())
		}
	})

	t.Run("ListTracks and follow next", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/playlist/7/tracks" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("expected limit=2, got %s", r.URL.Query().Get("limit"))
			}

			w.Header().Set("Content-Type", "application/json")
			switch r.URL.Query().Get("index") {
			case "0":
				json.NewEncoder(w).Encode(map[string]any{
					"data": []any{
						deezerTrackJSON(1, "A", "X", "Z"),
						deezerTrackJSON(2, "B", "Y", "W"),
					},
					"total": 3,
					"next":  fmt.Sprintf("%s/playlist/7/tracks?index=2&limit=2", server.URL),
				})
			case "2":
				json.NewEncoder(w).Encode(map[string]any{
					"data":  []any{deezerTrackJSON(3, " C ", "Z", "")},
					"total": 3,
				})
			default:
				t.Errorf("unexpected index %s", r.URL.Query().Get("index"))
			}
		}))
		defer server.Close()

		src := NewDeezerSource(server.URL, 2, 0)
		tracks, err := NewPager(src).FetchAllTracks(context.Background(), "7")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 3 {
			t.Fatalf("expected 3 tracks, got %d", len(tracks))
		}
		if tracks[0].Artist != "A" || tracks[0].Title != "X" || tracks[0].Album != "Z" {
			t.Errorf("unexpected first track %+v", tracks[0])
		}
		if tracks[2].Artist != "C" {
			t.Errorf("expected trimmed artist C, got %q", tracks[2].Artist)
		}
	})

	t.Run("ListPlaylists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/user/42/playlists" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"data": []any{
					map[string]any{"id": 908622995, "title": "Road Trip", "nb_tracks": 2},
					map[string]any{"id": 11, "title": "Loved Tracks", "nb_tracks": 120},
				},
				"total": 2,
			})
		}))
		defer server.Close()

		page, err := NewDeezerSource(server.URL, 0, 0).ListPlaylists(context.Background(), "42")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if page.Next != "" {
			t.Errorf("expected no next token, got %s", page.Next)
		}
		if len(page.Records) != 2 {
			t.Fatalf("expected 2 playlists, got %d", len(page.Records))
		}
		if page.Records[0].ID != "908622995" || page.Records[0].Name != "Road Trip" || page.Records[0].TrackCount != 2 {
			t.Errorf("unexpected playlist %+v", page.Records[0])
		}
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := NewDeezerSource("http://unused", 0, 0).ListPlaylists(context.Background(), "")
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("error body with status 200", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"error":{"type":"OAuthException","message":"Invalid OAuth access token.","code":300}}`))
		}))
		defer server.Close()

		_, err := NewDeezerSource(server.URL, 0, 0).ListTracks(context.Background(), "7", 0)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Fatalf("expected ErrAPIRequest, got %v", err)
		}

		var derr *DeezerError
		if !errors.As(err, &derr) {
			t.Fatalf("expected DeezerError in chain, got %v", err)
		}
		if derr.Code != 300 {
			t.Errorf("expected code 300, got %d", derr.Code)
		}
	})

	t.Run("no data error maps to not found", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"error":{"type":"DataException","message":"no data","code":800}}`))
		}))
		defer server.Close()

		_, err := NewDeezerSource(server.URL, 0, 0).ListTracks(context.Background(), "missing", 0)
		if !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("server error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer server.Close()

		_, err := NewDeezerSource(server.URL, 0, 0).ListTracks(context.Background(), "7", 0)
		if !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data": [`))
		}))
		defer server.Close()

		_, err := NewDeezerSource(server.URL, 0, 0).ListTracks(context.Background(), "7", 0)
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})

	t.Run("mid chain failure through pager", func(t *testing.T) {
		var server *httptest.Server
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Query().Get("index") == "0" {
				json.NewEncoder(w).Encode(map[string]any{
					"data": []any{deezerTrackJSON(1, "A", "X", "Z")},
					"next": server.URL + "/playlist/7/tracks?index=1",
				})
				return
			}
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		tracks, err := NewPager(NewDeezerSource(server.URL, 1, 0)).FetchAllTracks(context.Background(), "7")
		if !errors.Is(err, shared.ErrPagination) {
			t.Fatalf("expected ErrPagination, got %v", err)
		}
		if tracks != nil {
			t.Errorf("expected no partial tracks, got %d", len(tracks))
		}
	})
}
