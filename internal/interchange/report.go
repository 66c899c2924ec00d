package interchange

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// WriteIDs writes the plan's matched destination IDs, one per line, in source order.
func WriteIDs(w io.Writer, plan *models.Plan) error {
	bw := bufio.NewWriter(w)
	for _, id := range plan.MatchedIDs {
		if _, err := fmt.Fprintln(bw, id); err != nil {
			return fmt.Errorf("failed to write id: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write ids: %w", err)
	}
	return nil
}

// WriteIDsFile writes the matched IDs of plan to path, replacing any previous file.
func WriteIDsFile(path string, plan *models.Plan) error {
	var ids bytes.Buffer
	if err := WriteIDs(&ids, plan); err != nil {
		return err
	}
	if err := os.WriteFile(path, ids.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write ids file: %w", err)
	}
	return nil
}

// PlanJSON returns the indented JSON representation of plan.
func PlanJSON(plan *models.Plan) ([]byte, error) {
	return shared.MarshalJSON(plan, true)
}

// SkippedCSV lists the plan's unmatched tracks with columns: Position, Artist, Title, Album, Score
func SkippedCSV(plan *models.Plan) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Position", "Artist", "Title", "Album", "Score"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, r := range plan.Results {
		if r.Matched {
			continue
		}
		record := []string{
			strconv.Itoa(i + 1),
			r.Source.Artist,
			r.Source.Title,
			r.Source.Album,
			strconv.Itoa(r.Score),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlanMarkdown renders a plan as a Markdown checklist.
func PlanMarkdown(plan *models.Plan) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", plan.PlaylistName)
	fmt.Fprintf(&buf, "**Plan**: %s\n", plan.ID)
	fmt.Fprintf(&buf, "**Matched**: %d/%d (%.1f%%)\n\n", plan.TotalMatched, plan.TotalSource, plan.MatchPercentage())

	buf.WriteString("## Tracks\n\n")
	for _, r := range plan.Results {
		if r.Matched && r.Candidate != nil {
			fmt.Fprintf(&buf, "- [x] %s → %s [%d]\n", r.Source, r.Candidate.ID, r.Score)
		} else {
			fmt.Fprintf(&buf, "- [ ] %s [%d]\n", r.Source, r.Score)
		}
	}

	return buf.Bytes()
}

// ReportFiles contains the paths written by [WriteReport].
type ReportFiles struct {
	IDsFile     string
	PlanFile    string
	SkippedFile string // Empty when every track matched
}

// WriteReport writes {base}.ids, {base}.json and, if anything was skipped, {base}_skipped.csv.
//
// base defaults to the plan ID.
func WriteReport(plan *models.Plan, base string) (*ReportFiles, error) {
	if base == "" {
		base = plan.ID
	}

	files := &ReportFiles{IDsFile: base + ".ids", PlanFile: base + ".json"}
	if err := WriteIDsFile(files.IDsFile, plan); err != nil {
		return nil, err
	}

	data, err := PlanJSON(plan)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(files.PlanFile, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write plan file: %w", err)
	}

	if plan.TotalMatched == plan.TotalSource {
		return files, nil
	}

	skipped, err := SkippedCSV(plan)
	if err != nil {
		return nil, err
	}
	files.SkippedFile = base + "_skipped.csv"
	if err := os.WriteFile(files.SkippedFile, skipped, 0644); err != nil {
		return nil, fmt.Errorf("failed to write skipped file: %w", err)
	}

	return files, nil
}
