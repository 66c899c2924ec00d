package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/dzx/internal/audit"
	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

const (
	ReasonDryRun    = "dry run"
	ReasonNoMatches = "no matches"
)

// PlanStore persists plans for later inspection and deferred commit.
//
// Implemented by repositories.PlanRepository.
type PlanStore interface {
	Create(plan *models.PersistedPlan) error
	Get(id string) (*models.PersistedPlan, error)
	MarkCommitted(id, destinationID string) error
	MarkFailed(id string, cause error) error
}

// PlanSink receives every plan the executor handles, committed or not.
type PlanSink func(plan *models.Plan) error

// ExecutorOpts configures an [Executor].
type ExecutorOpts struct {
	Store    PlanStore // Optional
	Sinks    []PlanSink
	Recorder audit.Recorder
	Logger   *log.Logger
	Progress chan<- ProgressUpdate
}

// Executor applies plans to a destination catalog.
//
// It is the only component that calls CreatePlaylist or AddTracks, and only when commit is requested.
type Executor struct {
	destination catalog.Destination
	store       PlanStore
	sinks       []PlanSink
	recorder    audit.Recorder
	logger      *log.Logger
	progress    chan<- ProgressUpdate
}

// NewExecutor creates an Executor for dst.
func NewExecutor(dst catalog.Destination, opts ExecutorOpts) *Executor {
	e := &Executor{
		destination: dst,
		store:       opts.Store,
		sinks:       opts.Sinks,
		recorder:    opts.Recorder,
		logger:      opts.Logger,
		progress:    opts.Progress,
	}
	if e.recorder == nil {
		e.recorder = audit.Nop{}
	}
	if e.logger == nil {
		e.logger = discardLogger()
	}
	return e
}

// Execute reports the plan and, when commit is set, creates the destination playlist with every matched ID.
//
// Without commit the destination is never mutated. A committed plan with no matches creates nothing.
func (e *Executor) Execute(ctx context.Context, plan *models.Plan, commit bool) (*models.ExecutionOutcome, error) {
	if plan == nil {
		return nil, fmt.Errorf("%w: plan is required", shared.ErrInvalidArgument)
	}

	for _, sink := range e.sinks {
		if err := sink(plan); err != nil {
			return nil, fmt.Errorf("failed to report plan %q: %w", plan.PlaylistName, err)
		}
	}

	if e.store != nil {
		persisted := models.NewPersistedPlan(0, e.destination.Name(), *plan)
		if err := e.store.Create(persisted); err != nil {
			return nil, fmt.Errorf("failed to persist plan %q: %w", plan.PlaylistName, err)
		}
		plan.ID = persisted.ID()
		sendProgress(e.progress, persistPlanUpdate(plan))
	}

	if !commit {
		e.recorder.Record(plan.PlaylistName, fmt.Sprintf("dry run: %d of %d tracks would be added", plan.TotalMatched, plan.TotalSource))
		e.logger.Info("dry run, destination untouched", "playlist", plan.PlaylistName, "matched", plan.TotalMatched)
		return &models.ExecutionOutcome{
			PlanID:       plan.ID,
			PlaylistName: plan.PlaylistName,
			Reason:       ReasonDryRun,
		}, nil
	}

	return e.commit(ctx, plan)
}

// Commit applies a previously persisted plan. A plan can be committed once.
func (e *Executor) Commit(ctx context.Context, id string) (*models.ExecutionOutcome, error) {
	if e.store == nil {
		return nil, fmt.Errorf("%w: no plan store configured", shared.ErrInvalidConfig)
	}

	persisted, err := e.store.Get(id)
	if err != nil {
		return nil, err
	}
	if persisted.Status() == models.PlanCommitted {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlanConsumed, id)
	}
	if persisted.Destination() != e.destination.Name() {
		return nil, fmt.Errorf("%w: plan %s targets %s, not %s",
			shared.ErrInvalidArgument, id, persisted.Destination(), e.destination.Name())
	}

	plan := persisted.Plan()
	return e.commit(ctx, &plan)
}

func (e *Executor) commit(ctx context.Context, plan *models.Plan) (*models.ExecutionOutcome, error) {
	outcome := &models.ExecutionOutcome{
		PlanID:       plan.ID,
		PlaylistName: plan.PlaylistName,
	}

	if len(plan.MatchedIDs) == 0 {
		outcome.Reason = ReasonNoMatches
		e.recorder.Record(plan.PlaylistName, "nothing to commit: no tracks matched")
		if err := e.markCommitted(plan.ID, ""); err != nil {
			return outcome, err
		}
		return outcome, nil
	}

	sendProgress(e.progress, createPlaylistUpdate(plan.PlaylistName, e.destination.Name()))
	destID, err := e.destination.CreatePlaylist(ctx, plan.PlaylistName)
	if err != nil {
		return outcome, e.fail(plan, fmt.Errorf("failed to create playlist %q: %w", plan.PlaylistName, err))
	}
	outcome.DestinationID = destID

	sendProgress(e.progress, addTracksUpdate(len(plan.MatchedIDs), destID))
	if err := e.destination.AddTracks(ctx, destID, plan.MatchedIDs); err != nil {
		return outcome, e.fail(plan, fmt.Errorf("failed to add %d tracks to %s: %w", len(plan.MatchedIDs), destID, err))
	}

	outcome.Committed = true
	outcome.TracksAdded = len(plan.MatchedIDs)
	e.recorder.Record(plan.PlaylistName, fmt.Sprintf("committed playlist_id=%s tracks=%d", destID, outcome.TracksAdded))
	e.logger.Info("playlist committed", "playlist", plan.PlaylistName, "id", destID, "tracks", outcome.TracksAdded)

	if err := e.markCommitted(plan.ID, destID); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (e *Executor) markCommitted(planID, destID string) error {
	if e.store == nil || planID == "" {
		return nil
	}
	if err := e.store.MarkCommitted(planID, destID); err != nil {
		return fmt.Errorf("failed to mark plan %s committed: %w", planID, err)
	}
	return nil
}

// fail records err against the plan and returns it.
func (e *Executor) fail(plan *models.Plan, err error) error {
	e.recorder.Record(plan.PlaylistName, fmt.Sprintf("commit failed: %v", err))
	e.logger.Error("commit failed", "playlist", plan.PlaylistName, "error", err)

	if e.store != nil && plan.ID != "" {
		if markErr := e.store.MarkFailed(plan.ID, err); markErr != nil && !errors.Is(markErr, shared.ErrPlanNotFound) {
			e.logger.Warn("failed to record plan failure", "plan", plan.ID, "error", markErr)
		}
	}
	return err
}
