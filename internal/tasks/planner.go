package tasks

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/desertthunder/dzx/internal/audit"
	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/match"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// SearchFunc queries the destination catalog for candidates of a single source track.
type SearchFunc func(ctx context.Context, track models.Track) ([]models.Candidate, error)

// DestinationSearch adapts a destination's Search to a [SearchFunc] using the normalized track as the query.
func DestinationSearch(dst catalog.Destination) SearchFunc {
	return func(ctx context.Context, track models.Track) ([]models.Candidate, error) {
		return dst.Search(ctx, match.Normalize(track))
	}
}

// Reasons attached to skipped tracks in the audit record.
const (
	skipInvalid        = "invalid descriptor"
	skipNoResults      = "no results"
	skipBelowThreshold = "below threshold"
)

// PlannerOpts configures a [Planner].
type PlannerOpts struct {
	MinConfidence int
	Workers       int // Concurrent searches; values below 1 mean sequential
	Recorder      audit.Recorder
	Logger        *log.Logger
	Progress      chan<- ProgressUpdate
}

// Planner turns a source playlist into a [models.Plan] without touching destination state.
type Planner struct {
	matcher  *match.Matcher
	workers  int
	recorder audit.Recorder
	logger   *log.Logger
	progress chan<- ProgressUpdate
}

// NewPlanner validates opts and builds a Planner.
func NewPlanner(opts PlannerOpts) (*Planner, error) {
	matcher, err := match.NewMatcher(opts.MinConfidence)
	if err != nil {
		return nil, err
	}

	p := &Planner{
		matcher:  matcher,
		workers:  max(opts.Workers, 1),
		recorder: opts.Recorder,
		logger:   opts.Logger,
		progress: opts.Progress,
	}
	if p.recorder == nil {
		p.recorder = audit.Nop{}
	}
	if p.logger == nil {
		p.logger = discardLogger()
	}
	return p, nil
}

// MinConfidence returns the threshold the planner matches against.
func (p *Planner) MinConfidence() int {
	return p.matcher.MinConfidence
}

// Reconcile searches the destination once per track and builds the plan.
//
// Results and MatchedIDs follow source order regardless of the worker count.
// Tracks without artist and title are unmatched and never searched.
// Any search failure aborts the playlist and no plan is returned.
func (p *Planner) Reconcile(ctx context.Context, playlist models.Playlist, search SearchFunc) (*models.Plan, error) {
	if search == nil {
		return nil, fmt.Errorf("%w: search function is required", shared.ErrInvalidArgument)
	}

	total := len(playlist.Tracks)
	results := make([]models.MatchResult, total)
	searched := make([]bool, total)
	found := make([]int, total)

	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i, track := range playlist.Tracks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			if err := track.Validate(); err != nil {
				results[i] = models.Unmatched(0)
				results[i].Source = track
				return nil
			}

			candidates, err := search(gctx, track)
			if err != nil {
				return fmt.Errorf("%w: search for %q in %q: %w", shared.ErrAPIRequest, track.String(), playlist.Name, err)
			}

			results[i] = p.matcher.BestMatch(track, candidates)
			searched[i] = true
			found[i] = len(candidates)
			sendProgress(p.progress, searchTracksUpdate(int(done.Add(1)), total, results[i]))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		p.recorder.Record(playlist.Name, fmt.Sprintf("reconciliation aborted: %v", err))
		p.logger.Error("reconciliation aborted", "playlist", playlist.Name, "error", err)
		return nil, err
	}

	plan := &models.Plan{
		ID:           shared.GenerateID(),
		PlaylistName: playlist.Name,
		MatchedIDs:   make([]string, 0, total),
		Results:      results,
		TotalSource:  total,
		CreatedAt:    time.Now(),
	}

	// Audit lines are written here, in source order, so a run can be replayed from the audit file.
	for i, r := range results {
		if searched[i] {
			p.recorder.Record(playlist.Name, fmt.Sprintf("searched query=%q candidates=%d", match.Normalize(r.Source), found[i]))
		}

		if r.Matched {
			plan.MatchedIDs = append(plan.MatchedIDs, r.Candidate.ID)
			p.recorder.Record(playlist.Name, fmt.Sprintf(
				"matched artist=%q title=%q id=%s score=%d", r.Source.Artist, r.Source.Title, r.Candidate.ID, r.Score,
			))
			p.logger.Debug("matched", "playlist", playlist.Name, "track", r.Source.String(), "id", r.Candidate.ID, "score", r.Score)
			continue
		}

		var reason string
		switch {
		case !searched[i]:
			reason = skipInvalid
		case found[i] == 0:
			reason = skipNoResults
		default:
			reason = skipBelowThreshold
		}
		p.recorder.Record(playlist.Name, fmt.Sprintf(
			"skipped artist=%q title=%q score=%d (%s)", r.Source.Artist, r.Source.Title, r.Score, reason,
		))
	}
	plan.TotalMatched = len(plan.MatchedIDs)
	p.recorder.Record(playlist.Name, fmt.Sprintf("matched %d/%d tracks", plan.TotalMatched, plan.TotalSource))

	p.logger.Info("plan ready", "playlist", plan.PlaylistName, "matched", plan.TotalMatched, "total", plan.TotalSource)
	return plan, nil
}
