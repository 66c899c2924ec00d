package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/dzx/internal/audit"
	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// Selection is the set of source playlist IDs chosen for export.
//
// The zero value selects nothing.
type Selection struct {
	all bool
	ids map[string]struct{}
}

// SelectAll selects every playlist in the listing.
var SelectAll = Selection{all: true}

// Select builds a selection of the given playlist IDs.
func Select(ids ...string) Selection {
	s := Selection{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected.
func (s Selection) Has(id string) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

// All reports whether this is the [SelectAll] selection.
func (s Selection) All() bool { return s.all }

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool { return !s.all && len(s.ids) == 0 }

// ExporterOpts configures an [Exporter].
type ExporterOpts struct {
	Recorder audit.Recorder
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
}

// Exporter reads playlists out of a source catalog.
type Exporter struct {
	source   catalog.Source
	pager    *catalog.Pager
	recorder audit.Recorder
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// NewExporter creates an Exporter for src.
func NewExporter(src catalog.Source, opts ExporterOpts) *Exporter {
	e := &Exporter{
		source:   src,
		pager:    catalog.NewPager(src),
		recorder: opts.Recorder,
		logger:   opts.Logger,
		progress: opts.Progress,
	}
	if e.recorder == nil {
		e.recorder = audit.Nop{}
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	return e
}

// ListPlaylists returns every playlist owned by user, across all pages.
func (e *Exporter) ListPlaylists(ctx context.Context, user string) ([]models.PlaylistRef, error) {
	if user == "" {
		return nil, fmt.Errorf("%w: source user id", shared.ErrMissingArgument)
	}
	sendProgress(e.progress, fetchPlaylistsUpdate(user))
	return e.pager.FetchAllPlaylists(ctx, user)
}

// Export lists user's playlists and fetches the tracks of each selected one, in listing order.
//
// A playlist whose tracks cannot be fetched is reported in the returned errors and skipped. Selected IDs missing
// from the listing are reported as [shared.ErrPlaylistNotFound]. The error return is reserved for a failed listing.
func (e *Exporter) Export(ctx context.Context, user string, selection Selection) ([]models.Playlist, []PlaylistError, error) {
	refs, err := e.ListPlaylists(ctx, user)
	if err != nil {
		e.recorder.Record(user, fmt.Sprintf("listing failed: %v", err))
		return nil, nil, err
	}

	var chosen []models.PlaylistRef
	seen := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		seen[ref.ID] = struct{}{}
		if selection.Has(ref.ID) {
			chosen = append(chosen, ref)
		}
	}

	var failures []PlaylistError
	if !selection.all {
		missing := make([]string, 0)
		for id := range selection.ids {
			if _, ok := seen[id]; !ok {
				missing = append(missing, id)
			}
		}
		slices.Sort(missing)
		for _, id := range missing {
			failures = append(failures, PlaylistError{ID: id, Err: fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, id)})
		}
	}

	playlists, fetchFailures := e.ExportRefs(ctx, chosen)
	return playlists, append(failures, fetchFailures...), nil
}

// ExportRefs fetches the tracks of each ref, in order. Failures are confined to their playlist.
func (e *Exporter) ExportRefs(ctx context.Context, refs []models.PlaylistRef) ([]models.Playlist, []PlaylistError) {
	playlists := make([]models.Playlist, 0, len(refs))
	var failures []PlaylistError

	for i, ref := range refs {
		if ctx.Err() != nil {
			failures = append(failures, PlaylistError{ID: ref.ID, Name: ref.Name, Err: ctx.Err()})
			continue
		}

		sendProgress(e.progress, exportingPlaylistUpdate(i+1, len(refs), ref))
		e.recorder.Record(ref.Name, fmt.Sprintf("exporting playlist id=%s", ref.ID))
		tracks, err := e.pager.FetchAllTracks(ctx, ref.ID)
		if err != nil {
			e.recorder.Record(ref.Name, fmt.Sprintf("export failed: %v", err))
			e.logger.Error("export failed", "playlist", ref.Name, "id", ref.ID, "error", err)
			sendProgress(e.progress, exportFailedUpdate(i+1, len(refs), ref.Name, err))
			failures = append(failures, PlaylistError{ID: ref.ID, Name: ref.Name, Err: err})
			continue
		}

		pl := models.Playlist{Name: ref.Name, Tracks: tracks}
		playlists = append(playlists, pl)
		e.recorder.Record(ref.Name, fmt.Sprintf("exported %d tracks", len(tracks)))
		e.logger.Debug("exported", "playlist", ref.Name, "tracks", len(tracks))
		sendProgress(e.progress, exportCompletedUpdate(i+1, len(refs), &pl))
	}

	return playlists, failures
}
