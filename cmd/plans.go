package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/dzx/internal/interchange"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/desertthunder/dzx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// PlansList prints persisted plans in sequence order, oldest first.
func (r *Runner) PlansList(ctx context.Context, cmd *cli.Command) error {
	store, err := r.planStore()
	if err != nil {
		return err
	}

	plans, err := store.List(map[string]any{
		"status":        cmd.String("status"),
		"playlist_name": cmd.String("playlist"),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		out := make([]models.Plan, len(plans))
		for i, p := range plans {
			out[i] = p.Plan()
		}
		return r.writeJSON(out, true)
	}

	rows := make([][]string, 0, len(plans))
	for _, p := range plans {
		plan := p.Plan()
		rows = append(rows, []string{
			strconv.Itoa(p.Sequence()),
			plan.PlaylistName,
			p.Destination(),
			string(p.Status()),
			fmt.Sprintf("%d/%d", plan.TotalMatched, plan.TotalSource),
			p.CreatedAt().Format("2006-01-02 15:04"),
			p.ID(),
		})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"#", "Playlist", "Destination", "Status", "Matched", "Created", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	return nil
}

// PlansShow prints one plan's results.
func (r *Runner) PlansShow(ctx context.Context, cmd *cli.Command) error {
	persisted, err := r.lookupPlan(cmd.StringArg("id"))
	if err != nil {
		return err
	}
	plan := persisted.Plan()

	if cmd.Bool("json") {
		data, err := interchange.PlanJSON(&plan)
		if err != nil {
			return err
		}
		return r.writePlain("%s\n", data)
	}
	if cmd.Bool("markdown") {
		return r.writePlain("%s", interchange.PlanMarkdown(&plan))
	}

	r.writePlainHeader(fmt.Sprintf("%s → %s", plan.PlaylistName, persisted.Destination()))
	r.writePlain("Status:  %s\n", persisted.Status())
	if persisted.DestinationID() != "" {
		r.writePlain("Created: %s\n", persisted.DestinationID())
	}
	if persisted.ErrorMessage() != "" {
		r.writePlain("Error:   %s\n", persisted.ErrorMessage())
	}
	r.writePlain("Matched: %d/%d (%.1f%%)\n\n", plan.TotalMatched, plan.TotalSource, plan.MatchPercentage())

	results := plan.Results
	if cmd.Bool("skipped") {
		results = plan.Skipped()
	}

	rows := make([][]string, 0, len(results))
	for i, res := range results {
		id := ""
		if res.Candidate != nil {
			id = res.Candidate.ID
		}
		mark := "✗"
		if res.Matched {
			mark = "✓"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), res.Source.Artist, res.Source.Title, strconv.Itoa(res.Score), mark, id})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"#", "Artist", "Title", "Score", "Match", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
	))
	return nil
}

// PlansCommit creates the destination playlist for a persisted plan. Each plan can be committed once.
func (r *Runner) PlansCommit(ctx context.Context, cmd *cli.Command) error {
	persisted, err := r.lookupPlan(cmd.StringArg("id"))
	if err != nil {
		return err
	}

	dst, err := r.destinationCatalog(ctx)
	if err != nil {
		return err
	}
	executor := tasks.NewExecutor(dst, tasks.ExecutorOpts{
		Store:    r.store,
		Recorder: r.auditRecorder(),
		Logger:   shared.WithLogger(r.logger, "component", "executor"),
	})

	var outcome *models.ExecutionOutcome
	err = r.withCommitLock(func() error {
		var err error
		outcome, err = executor.Commit(ctx, persisted.ID())
		return err
	})
	if err != nil {
		return err
	}

	if !outcome.Committed {
		r.writePlain("Nothing committed for %s: %s\n", outcome.PlaylistName, outcome.Reason)
		return nil
	}
	r.writePlain("✓ Created %s on %s with %d tracks (%s)\n", outcome.PlaylistName, dst.Name(), outcome.TracksAdded, outcome.DestinationID)
	return nil
}

// lookupPlan accepts a plan ID or its sequence number.
func (r *Runner) lookupPlan(ref string) (*models.PersistedPlan, error) {
	store, err := r.planStore()
	if err != nil {
		return nil, err
	}
	return models.Resolve[*models.PersistedPlan](store, ref)
}
