package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/dzx/internal/interchange"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/desertthunder/dzx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// engineSettings are the [shared.EngineConfig] values with command-line overrides applied.
type engineSettings struct {
	commit        bool
	minConfidence int
	workers       int
	idsDir        string
	reportDir     string
}

func (r *Runner) engineSettings(cmd *cli.Command) engineSettings {
	s := engineSettings{
		commit:        r.config.Engine.Commit,
		minConfidence: r.config.Engine.MinConfidence,
		workers:       r.config.Engine.Workers,
		idsDir:        r.config.Engine.IDsDir,
		reportDir:     cmd.String("report-dir"),
	}
	if cmd.IsSet("commit") {
		s.commit = cmd.Bool("commit")
	}
	if cmd.IsSet("min-confidence") {
		s.minConfidence = int(cmd.Int("min-confidence"))
	}
	if cmd.IsSet("ids-dir") {
		s.idsDir = cmd.String("ids-dir")
	}
	if cmd.IsSet("workers") {
		s.workers = int(cmd.Int("workers"))
	}
	return s
}

// Import reconciles every playlist of an interchange file against the destination.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("file")
	if path == "" {
		return fmt.Errorf("%w: FILE", shared.ErrMissingArgument)
	}

	settings := r.engineSettings(cmd)
	return r.runImport(ctx, settings, func(importer *tasks.Importer) (*tasks.ImportResult, error) {
		return importer.ImportFile(ctx, path, settings.commit)
	})
}

// Transfer exports the selected playlists and imports them directly.
func (r *Runner) Transfer(ctx context.Context, cmd *cli.Command) error {
	user, err := r.sourceUser(cmd)
	if err != nil {
		return err
	}

	playlists, failures, err := r.exportSelected(ctx, cmd, user)
	if err != nil || playlists == nil {
		return err
	}
	if len(failures) > 0 {
		r.writePlain("Export failed for %d playlists, continuing with %d\n", len(failures), len(playlists))
	}

	settings := r.engineSettings(cmd)
	importErr := r.runImport(ctx, settings, func(importer *tasks.Importer) (*tasks.ImportResult, error) {
		return importer.Import(ctx, playlists, settings.commit)
	})
	if importErr != nil {
		return importErr
	}
	return r.reportFailures(failures, len(playlists)+len(failures))
}

func (r *Runner) runImport(ctx context.Context, s engineSettings, run func(*tasks.Importer) (*tasks.ImportResult, error)) error {
	dst, err := r.destinationCatalog(ctx)
	if err != nil {
		return err
	}
	if s.commit {
		r.writePlain("Committing to %s\n", dst.Name())
	} else {
		r.writePlain("Dry run: nothing will be created on %s\n", dst.Name())
	}

	progress, stop := r.progressPrinter()
	importer, err := r.newImporter(ctx, s, progress)
	if err != nil {
		stop()
		return err
	}

	var result *tasks.ImportResult
	do := func() error {
		var err error
		result, err = run(importer)
		return err
	}
	if s.commit {
		err = r.withCommitLock(do)
	} else {
		err = do()
	}
	stop()

	if result != nil {
		r.printImportResult(result)
	}
	if err != nil {
		return err
	}
	return r.reportFailures(result.Failures, len(result.Plans)+len(result.Failures))
}

func (r *Runner) newImporter(ctx context.Context, s engineSettings, progress chan<- tasks.ProgressUpdate) (*tasks.Importer, error) {
	dst, err := r.destinationCatalog(ctx)
	if err != nil {
		return nil, err
	}
	store, err := r.planStore()
	if err != nil {
		return nil, err
	}
	recorder := r.auditRecorder()

	planner, err := tasks.NewPlanner(tasks.PlannerOpts{
		MinConfidence: s.minConfidence,
		Workers:       s.workers,
		Recorder:      recorder,
		Logger:        shared.WithLogger(r.logger, "component", "planner"),
		Progress:      progress,
	})
	if err != nil {
		return nil, err
	}

	var sinks []tasks.PlanSink
	switch {
	case s.reportDir != "":
		sinks = append(sinks, r.reportSink(s.reportDir))
	case s.idsDir != "":
		sinks = append(sinks, r.idsSink(s.idsDir))
	}

	executor := tasks.NewExecutor(dst, tasks.ExecutorOpts{
		Store:    store,
		Sinks:    sinks,
		Recorder: recorder,
		Logger:   shared.WithLogger(r.logger, "component", "executor"),
		Progress: progress,
	})

	return tasks.NewImporter(planner, executor, tasks.DestinationSearch(dst), tasks.ImporterOpts{
		Recorder: recorder,
		Logger:   shared.WithLogger(r.logger, "component", "import"),
		Progress: progress,
	}), nil
}

// reportSink writes the id list, plan JSON and skipped CSV of each plan into dir.
func (r *Runner) reportSink(dir string) tasks.PlanSink {
	return func(plan *models.Plan) error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
		files, err := interchange.WriteReport(plan, filepath.Join(dir, plan.ID))
		if err != nil {
			return err
		}
		r.logger.Debug("plan report written", "playlist", plan.PlaylistName, "ids", files.IDsFile, "skipped", files.SkippedFile)
		return nil
	}
}

// idsSink writes only the matched id list of each plan into dir.
func (r *Runner) idsSink(dir string) tasks.PlanSink {
	return func(plan *models.Plan) error {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create ids directory: %w", err)
		}
		path := filepath.Join(dir, plan.ID+".ids")
		if err := interchange.WriteIDsFile(path, plan); err != nil {
			return err
		}
		r.logger.Debug("id list written", "playlist", plan.PlaylistName, "path", path)
		return nil
	}
}

func (r *Runner) printImportResult(result *tasks.ImportResult) {
	if len(result.Outcomes) == 0 {
		return
	}

	plans := make(map[string]*models.Plan, len(result.Plans))
	for _, p := range result.Plans {
		plans[p.ID] = p
	}

	rows := make([][]string, 0, len(result.Outcomes))
	for _, o := range result.Outcomes {
		matched, total, pct := "", "", ""
		if p, ok := plans[o.PlanID]; ok {
			matched = strconv.Itoa(p.TotalMatched)
			total = strconv.Itoa(p.TotalSource)
			pct = fmt.Sprintf("%.1f%%", p.MatchPercentage())
		}

		status := "committed"
		if !o.Committed {
			status = o.Reason
		}
		rows = append(rows, []string{o.PlaylistName, matched, total, pct, status, o.DestinationID, o.PlanID})
	}

	r.writePlain("\n")
	r.writePlainHeader("Reconciliation Complete")
	r.writePlain("%s\n", renderTable(
		[]string{"Playlist", "Matched", "Total", "Rate", "Status", "Destination ID", "Plan"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	))
	r.writePlain("Committed %d of %d playlists\n", result.Committed(), len(result.Outcomes))
}
