package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/desertthunder/dzx/internal/match"
	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	"github.com/urfave/cli/v3"
)

type scoredCandidate struct {
	models.Candidate
	Score  int  `json:"score"`
	Winner bool `json:"winner"`
}

// Search runs one destination search and scores every candidate the way the planner would.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: QUERY", shared.ErrMissingArgument)
	}

	dst, err := r.destinationCatalog(ctx)
	if err != nil {
		return err
	}

	matcher, err := match.NewMatcher(r.config.Engine.MinConfidence)
	if err != nil {
		return err
	}

	candidates, err := dst.Search(ctx, query)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	desired := models.Track{Title: query}
	best := matcher.BestMatch(desired, candidates)

	scored := make([]scoredCandidate, len(candidates))
	for i, c := range candidates {
		scored[i] = scoredCandidate{
			Candidate: c,
			Score:     matcher.Scorer(match.Normalize(desired), match.Normalize(c.Track)),
			Winner:    best.Matched && best.Candidate.ID == c.ID,
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(scored, true)
	}

	rows := make([][]string, 0, len(scored))
	for i, c := range scored {
		mark := ""
		if c.Winner {
			mark = "✓"
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), c.Track.Artist, c.Track.Title, c.Track.Album, strconv.Itoa(c.Score), mark, c.ID})
	}

	r.writePlain("%s\n", renderTable(
		[]string{"#", "Artist", "Title", "Album", "Score", "Match", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignRight},
	))
	if best.Matched {
		r.writePlain("Best match scores %d (threshold %d)\n", best.Score, matcher.MinConfidence)
	} else {
		r.writePlain("No candidate exceeds %d (best %d)\n", matcher.MinConfidence, best.Score)
	}
	return nil
}
