package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/desertthunder/dzx/internal/catalog"
	"github.com/desertthunder/dzx/internal/interchange"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/desertthunder/dzx/internal/tasks"
	"github.com/desertthunder/dzx/internal/ui"
	"github.com/urfave/cli/v3"
)

// Playlists lists the source user's playlists.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	user, err := r.sourceUser(cmd)
	if err != nil {
		return err
	}

	exporter, err := r.newExporter(nil)
	if err != nil {
		return err
	}

	refs, err := exporter.ListPlaylists(ctx, user)
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(refs, true)
	}

	rows := make([][]string, 0, len(refs))
	for _, ref := range refs {
		rows = append(rows, []string{ref.ID, ref.Name, strconv.Itoa(ref.TrackCount)})
	}
	r.writePlain("%s\n", renderTable([]string{"ID", "Name", "Tracks"}, rows, []columnAlignment{alignLeft, alignLeft, alignRight}))
	r.writePlain("%d playlists\n", len(refs))
	return nil
}

// Export writes the selected playlists to an interchange file.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) error {
	user, err := r.sourceUser(cmd)
	if err != nil {
		return err
	}

	playlists, failures, err := r.exportSelected(ctx, cmd, user)
	if err != nil || playlists == nil {
		return err
	}

	output := cmd.String("output")
	if output == "" {
		output = interchange.DefaultFileName(time.Now())
	}
	if err := interchange.WriteFile(output, playlists); err != nil {
		return err
	}

	tracks := 0
	for _, pl := range playlists {
		tracks += len(pl.Tracks)
	}
	r.logger.Info("export written", "path", output, "playlists", len(playlists), "tracks", tracks)
	r.writePlain("\n✓ Exported %d playlists (%d tracks) to %s\n", len(playlists), tracks, output)

	return r.reportFailures(failures, len(playlists)+len(failures))
}

// exportSelected resolves the selection flags and exports the chosen playlists.
//
// Nil playlists with a nil error mean nothing was selected.
func (r *Runner) exportSelected(ctx context.Context, cmd *cli.Command, user string) ([]models.Playlist, []tasks.PlaylistError, error) {
	lister, err := r.newExporter(nil)
	if err != nil {
		return nil, nil, err
	}

	selection, err := r.selection(ctx, cmd, lister, user)
	if err != nil {
		return nil, nil, err
	}
	if selection.Empty() {
		r.writePlain("No playlists selected\n")
		return nil, nil, nil
	}

	progress, stop := r.progressPrinter()
	exporter, err := r.newExporter(progress)
	if err != nil {
		stop()
		return nil, nil, err
	}
	playlists, failures, err := exporter.Export(ctx, user, selection)
	stop()
	return playlists, failures, err
}

// selection maps exactly one of --playlist, --all or --select onto a [tasks.Selection].
func (r *Runner) selection(ctx context.Context, cmd *cli.Command, exporter *tasks.Exporter, user string) (tasks.Selection, error) {
	ids := cmd.StringSlice("playlist")
	all := cmd.Bool("all")
	interactive := cmd.Bool("select")

	chosen := 0
	for _, set := range []bool{len(ids) > 0, all, interactive} {
		if set {
			chosen++
		}
	}
	switch {
	case chosen == 0:
		return tasks.Selection{}, fmt.Errorf("%w: one of --playlist, --all or --select", shared.ErrMissingArgument)
	case chosen > 1:
		return tasks.Selection{}, fmt.Errorf("%w: --playlist, --all and --select are mutually exclusive", shared.ErrInvalidArgument)
	case all:
		return tasks.SelectAll, nil
	case len(ids) > 0:
		return tasks.Select(ids...), nil
	}

	src, err := r.sourceCatalog()
	if err != nil {
		return tasks.Selection{}, err
	}
	pager := catalog.NewPager(src)
	return ui.RunSelector(ctx,
		func(ctx context.Context) ([]models.PlaylistRef, error) { return exporter.ListPlaylists(ctx, user) },
		pager.FetchAllTracks,
	)
}

func (r *Runner) newExporter(progress chan<- tasks.ProgressUpdate) (*tasks.Exporter, error) {
	src, err := r.sourceCatalog()
	if err != nil {
		return nil, err
	}
	return tasks.NewExporter(src, tasks.ExporterOpts{
		Recorder: r.auditRecorder(),
		Logger:   shared.WithLogger(r.logger, "component", "export"),
		Progress: progress,
	}), nil
}

func (r *Runner) sourceUser(cmd *cli.Command) (string, error) {
	user := cmd.String("user")
	if user == "" {
		user = r.config.Source.Deezer.UserID
	}
	if user == "" {
		return "", fmt.Errorf("%w: --user or source.deezer.user_id", shared.ErrMissingArgument)
	}
	return user, nil
}

// reportFailures prints per-playlist failures and turns them into a non-zero exit.
func (r *Runner) reportFailures(failures []tasks.PlaylistError, total int) error {
	if len(failures) == 0 {
		return nil
	}

	r.writePlain("\nFailed %d playlists:\n", len(failures))
	for _, f := range failures {
		r.writePlain("  ✗ %v\n", f)
	}
	return fmt.Errorf("%d of %d playlists failed", len(failures), total)
}
