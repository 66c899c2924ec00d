package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/dzx/internal/audit"
	"github.com/desertthunder/dzx/internal/interchange"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// ImportResult collects the per-playlist outcomes of a batch import.
type ImportResult struct {
	Plans    []*models.Plan
	Outcomes []*models.ExecutionOutcome
	Failures []PlaylistError
}

// Committed returns the number of playlists created on the destination.
func (r *ImportResult) Committed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Committed {
			n++
		}
	}
	return n
}

// ImporterOpts configures an [Importer].
type ImporterOpts struct {
	Recorder audit.Recorder
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
}

// Importer reconciles and executes a batch of playlists, one at a time.
type Importer struct {
	planner  *Planner
	executor *Executor
	search   SearchFunc
	recorder audit.Recorder
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// NewImporter wires a planner and executor together around search.
func NewImporter(planner *Planner, executor *Executor, search SearchFunc, opts ImporterOpts) *Importer {
	i := &Importer{
		planner:  planner,
		executor: executor,
		search:   search,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		progress: opts.Progress,
	}
	if i.recorder == nil {
		i.recorder = audit.Nop{}
	}
	if i.logger == nil {
		i.logger = discardLogger()
	}
	return i
}

// Import reconciles then executes each playlist in order.
//
// A failure is confined to its playlist and the batch moves on, except for authentication failures: every
// remaining playlist would fail the same way, so the batch stops and the error is returned.
func (i *Importer) Import(ctx context.Context, playlists []models.Playlist, commit bool) (*ImportResult, error) {
	result := &ImportResult{}

	for n, pl := range playlists {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		sendProgress(i.progress, importPlaylistUpdate(n+1, len(playlists), pl.Name))
		outcome, plan, err := i.importOne(ctx, pl, commit)
		if plan != nil {
			result.Plans = append(result.Plans, plan)
		}
		if outcome != nil && err == nil {
			result.Outcomes = append(result.Outcomes, outcome)
		}
		if err != nil {
			i.recorder.Record(pl.Name, fmt.Sprintf("import failed: %v", err))
			i.logger.Error("import failed", "playlist", pl.Name, "error", err)
			result.Failures = append(result.Failures, PlaylistError{Name: pl.Name, Err: err})

			if errors.Is(err, shared.ErrNotAuthenticated) {
				return result, err
			}
		}
	}

	return result, nil
}

// ImportFile decodes an interchange file and imports every well-formed playlist in it.
//
// Malformed entries are reported as failures without affecting their siblings.
func (i *Importer) ImportFile(ctx context.Context, path string, commit bool) (*ImportResult, error) {
	playlists, entryErrs, err := interchange.ReadFile(path)
	if err != nil {
		return nil, err
	}

	result, err := i.Import(ctx, playlists, commit)
	for _, entryErr := range entryErrs {
		name := ""
		var ee *interchange.EntryError
		if errors.As(entryErr, &ee) {
			name = ee.Name
		}
		i.recorder.Record(path, fmt.Sprintf("skipped entry: %v", entryErr))
		result.Failures = append(result.Failures, PlaylistError{Name: name, Err: entryErr})
	}
	return result, err
}

func (i *Importer) importOne(ctx context.Context, pl models.Playlist, commit bool) (*models.ExecutionOutcome, *models.Plan, error) {
	if strings.TrimSpace(pl.Name) == "" {
		return nil, nil, fmt.Errorf("%w: playlist name is required", shared.ErrMalformedInterchange)
	}

	plan, err := i.planner.Reconcile(ctx, pl, i.search)
	if err != nil {
		return nil, nil, err
	}

	outcome, err := i.executor.Execute(ctx, plan, commit)
	return outcome, plan, err
}
