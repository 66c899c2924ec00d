package catalog

import (
	"context"
	"fmt"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// Pager drains paginated listings from a [Source].
type Pager struct {
	source Source
}

// NewPager creates a Pager over source.
func NewPager(source Source) *Pager {
	return &Pager{source: source}
}

// FetchAllTracks returns every track of a playlist in arrival order.
//
// An empty first page yields an empty slice. Any failed page aborts the fetch.
func (p *Pager) FetchAllTracks(ctx context.Context, playlistID string) ([]models.Track, error) {
	return collect(ctx, "playlist "+playlistID,
		func() (*Page[models.Track], error) { return p.source.ListTracks(ctx, playlistID, 0) },
		func(next string) (*Page[models.Track], error) { return p.source.FetchTracks(ctx, next) },
	)
}

// FetchAllPlaylists returns every playlist of user in arrival order.
func (p *Pager) FetchAllPlaylists(ctx context.Context, user string) ([]models.PlaylistRef, error) {
	return collect(ctx, "user "+user,
		func() (*Page[models.PlaylistRef], error) { return p.source.ListPlaylists(ctx, user) },
		func(next string) (*Page[models.PlaylistRef], error) { return p.source.FetchPlaylists(ctx, next) },
	)
}

func collect[T any](
	ctx context.Context,
	container string,
	first func() (*Page[T], error),
	fetch func(next string) (*Page[T], error),
) ([]T, error) {
	page, err := first()
	if err != nil {
		return nil, fmt.Errorf("%w: %s page 0: %w", shared.ErrPagination, container, err)
	}
	if page == nil {
		return []T{}, nil
	}

	records := make([]T, 0, len(page.Records))
	records = append(records, page.Records...)

	seen := make(map[string]struct{})
	for index := 1; page.Next != ""; index++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", shared.ErrPagination, container, index, err)
		}
		if _, ok := seen[page.Next]; ok {
			return nil, fmt.Errorf("%w: %s page %d: %w: continuation token repeated", shared.ErrPagination, container, index, shared.ErrAPIRequest)
		}
		seen[page.Next] = struct{}{}

		page, err = fetch(page.Next)
		if err != nil {
			return nil, fmt.Errorf("%w: %s page %d: %w", shared.ErrPagination, container, index, err)
		}
		if page == nil {
			break
		}
		records = append(records, page.Records...)
	}

	return records, nil
}
