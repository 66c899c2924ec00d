package catalog

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// chainSource serves track and playlist pages keyed by continuation token; page 0 uses the key "".
type chainSource struct {
	tracks    map[string]*Page[models.Track]
	playlists map[string]*Page[models.PlaylistRef]
	failOn    string
	calls     []string
}

func (c *chainSource) Name() string { return "chain" }

func (c *chainSource) ListPlaylists(_ context.Context, _ string) (*Page[models.PlaylistRef], error) {
	return c.playlistPage("")
}

func (c *chainSource) FetchPlaylists(_ context.Context, next string) (*Page[models.PlaylistRef], error) {
	return c.playlistPage(next)
}

func (c *chainSource) ListTracks(_ context.Context, _ string, offset int) (*Page[models.Track], error) {
	if offset != 0 {
		return nil, fmt.Errorf("unexpected offset %d", offset)
	}
	return c.trackPage("")
}

func (c *chainSource) FetchTracks(_ context.Context, next string) (*Page[models.Track], error) {
	return c.trackPage(next)
}

func (c *chainSource) trackPage(key string) (*Page[models.Track], error) {
	c.calls = append(c.calls, key)
	if key == c.failOn && c.failOn != "" {
		return nil, fmt.Errorf("%w: boom", shared.ErrAPIRequest)
	}
	page, ok := c.tracks[key]
	if !ok {
		return nil, fmt.Errorf("no page %q", key)
	}
	return page, nil
}

func (c *chainSource) playlistPage(key string) (*Page[models.PlaylistRef], error) {
	c.calls = append(c.calls, key)
	page, ok := c.playlists[key]
	if !ok {
		return nil, fmt.Errorf("no page %q", key)
	}
	return page, nil
}

func tracksNamed(names ...string) []models.Track {
	out := make([]models.Track, len(names))
	for i, n := range names {
		out[i] = models.Track{Artist: "Artist", Title: n}
	}
	return out
}

func TestPager(t *testing.T) {
	ctx := context.Background()

	t.Run("follows continuation tokens in order", func(t *testing.T) {
		src := &chainSource{tracks: map[string]*Page[models.Track]{
			"":   {Records: tracksNamed("1", "2"), Next: "p1"},
			"p1": {Records: tracksNamed("3", "4"), Next: "p2"},
			"p2": {Records: tracksNamed("5")},
		}}

		tracks, err := NewPager(src).FetchAllTracks(ctx, "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if len(tracks) != 5 {
			t.Fatalf("expected 5 tracks, got %d", len(tracks))
		}
		for i, tr := range tracks {
			if want := fmt.Sprint(i + 1); tr.Title != want {
				t.Errorf("track %d: expected title %s, got %s", i, want, tr.Title)
			}
		}
		if len(src.calls) != 3 {
			t.Errorf("expected 3 page requests, got %d", len(src.calls))
		}
	})

	t.Run("empty first page", func(t *testing.T) {
		src := &chainSource{tracks: map[string]*Page[models.Track]{"": {}}}

		tracks, err := NewPager(src).FetchAllTracks(ctx, "pl")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if tracks == nil || len(tracks) != 0 {
			t.Errorf("expected empty non-nil slice, got %#v", tracks)
		}
	})

	t.Run("failure mid chain aborts", func(t *testing.T) {
		src := &chainSource{
			tracks: map[string]*Page[models.Track]{
				"":   {Records: tracksNamed("1"), Next: "p1"},
				"p1": {Records: tracksNamed("2"), Next: "p2"},
			},
			failOn: "p2",
		}

		tracks, err := NewPager(src).FetchAllTracks(ctx, "pl")
		if err == nil {
			t.Fatal("expected error")
		}
		if tracks != nil {
			t.Errorf("expected no partial result, got %d tracks", len(tracks))
		}
		if !errors.Is(err, shared.ErrPagination) {
			t.Errorf("expected ErrPagination, got %v", err)
		}
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected wrapped ErrAPIRequest, got %v", err)
		}
	})

	t.Run("first page failure", func(t *testing.T) {
		src := &chainSource{tracks: map[string]*Page[models.Track]{}}

		if _, err := NewPager(src).FetchAllTracks(ctx, "pl"); !errors.Is(err, shared.ErrPagination) {
			t.Errorf("expected ErrPagination, got %v", err)
		}
	})

	t.Run("repeated token", func(t *testing.T) {
		src := &chainSource{tracks: map[string]*Page[models.Track]{
			"":     {Records: tracksNamed("1"), Next: "loop"},
			"loop": {Records: tracksNamed("2"), Next: "loop"},
		}}

		_, err := NewPager(src).FetchAllTracks(ctx, "pl")
		if !errors.Is(err, shared.ErrPagination) || !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected pagination transport error, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		src := &chainSource{tracks: map[string]*Page[models.Track]{
			"":   {Records: tracksNamed("1"), Next: "p1"},
			"p1": {Records: tracksNamed("2")},
		}}

		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := NewPager(src).FetchAllTracks(cctx, "pl"); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})

	t.Run("playlists", func(t *testing.T) {
		src := &chainSource{playlists: map[string]*Page[models.PlaylistRef]{
			"":  {Records: []models.PlaylistRef{{ID: "1", Name: "One"}}, Next: "n"},
			"n": {Records: []models.PlaylistRef{{ID: "2", Name: "Two"}}},
		}}

		refs, err := NewPager(src).FetchAllPlaylists(ctx, "user")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(refs) != 2 || refs[0].ID != "1" || refs[1].ID != "2" {
			t.Errorf("unexpected playlists: %+v", refs)
		}
	})
}
