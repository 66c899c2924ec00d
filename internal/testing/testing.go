// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/models"
)

// MockSource is a test double for [catalog.Source].
//
// Tracks are served in pages of PageSize (all at once when zero). Continuation tokens are "<playlistID>@<offset>".
type MockSource struct {
	Playlists []models.PlaylistRef
	Tracks    map[string][]models.Track
	PageSize  int
	Errors    map[string]error // Keyed by playlist ID; returned for every page of that playlist
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) ListPlaylists(ctx context.Context, user string) (*catalog.Page[models.PlaylistRef], error) {
	return &catalog.Page[models.PlaylistRef]{Records: m.Playlists}, nil
}

func (m *MockSource) FetchPlaylists(ctx context.Context, next string) (*catalog.Page[models.PlaylistRef], error) {
	return nil, errors.New("unexpected playlist continuation")
}

func (m *MockSource) ListTracks(ctx context.Context, playlistID string, offset int) (*catalog.Page[models.Track], error) {
	if err := m.Errors[playlistID]; err != nil {
		return nil, err
	}
	tracks := m.Tracks[playlistID]
	if offset >= len(tracks) {
		return &catalog.Page[models.Track]{}, nil
	}

	end := len(tracks)
	if m.PageSize > 0 && offset+m.PageSize < end {
		end = offset + m.PageSize
	}
	page := &catalog.Page[models.Track]{Records: tracks[offset:end]}
	if end < len(tracks) {
		page.Next = playlistID + "@" + strconv.Itoa(end)
	}
	return page, nil
}

func (m *MockSource) FetchTracks(ctx context.Context, next string) (*catalog.Page[models.Track], error) {
	id, offset, ok := strings.Cut(next, "@")
	if !ok {
		return nil, errors.New("bad continuation token")
	}
	n, err := strconv.Atoi(offset)
	if err != nil {
		return nil, err
	}
	return m.ListTracks(ctx, id, n)
}

// MockDestination is a test double for [catalog.Destination] that records every call.
type MockDestination struct {
	Results   map[string][]models.Candidate // Search results keyed by query
	SearchErr map[string]error
	CreateErr error
	AddErr    error

	mu       sync.Mutex
	Searches []string
	Created  []string
	Added    map[string][]string
	AddCalls int
}

func (m *MockDestination) Name() string { return "mock" }

func (m *MockDestination) Search(ctx context.Context, query string) ([]models.Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Searches = append(m.Searches, query)
	if err := m.SearchErr[query]; err != nil {
		return nil, err
	}
	return m.Results[query], nil
}

func (m *MockDestination) CreatePlaylist(ctx context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	m.Created = append(m.Created, name)
	return "dest-" + strconv.Itoa(len(m.Created)), nil
}

func (m *MockDestination) AddTracks(ctx context.Context, playlistID string, trackIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddCalls++
	if m.AddErr != nil {
		return m.AddErr
	}
	if m.Added == nil {
		m.Added = make(map[string][]string)
	}
	m.Added[playlistID] = append(m.Added[playlistID], trackIDs...)
	return nil
}

// Mutations returns the number of create and add calls made.
func (m *MockDestination) Mutations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Created) + m.AddCalls
}

// SearchCount returns the number of searches made.
func (m *MockDestination) SearchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Searches)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
