package interchange

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
	tu "github.com/desertthunder/dzx/internal/testing"
)

func samplePlaylists() []models.Playlist {
	return []models.Playlist{
		{
			Name: "Road Trip",
			Tracks: []models.Track{
				{Artist: "A", Title: "X", Album: "Z"},
				{Artist: "B", Title: "Y", Album: "W"},
			},
		},
		{
			Name: "Sigur Rós & <Friends>",
			Tracks: []models.Track{
				{Artist: "Sigur Rós", Title: "Hoppípolla", Album: "Takk..."},
				{Artist: " padded ", Title: "", Album: ""},
			},
		},
		{Name: "Empty", Tracks: []models.Track{}},
	}
}

func TestCodec(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		want := samplePlaylists()

		var buf bytes.Buffer
		if err := Encode(&buf, want); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		got, errs := Decode(&buf)
		if len(errs) != 0 {
			t.Fatalf("expected no decode errors, got %v", errs)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip mismatch:\n got: %+v\nwant: %+v", got, want)
		}
	})

	t.Run("encodes interchange keys", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, []models.Playlist{{Name: "N", Tracks: []models.Track{{Artist: "a", Album: "b", Title: "c"}}}}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		out := buf.String()
		for _, key := range []string{`"name": "N"`, `"tracks"`, `"artist": "a"`, `"album": "b"`, `"title": "c"`} {
			if !strings.Contains(out, key) {
				t.Errorf("expected %s in output: %s", key, out)
			}
		}
	})

	t.Run("nil tracks encode as empty array", func(t *testing.T) {
		var buf bytes.Buffer
		if err := Encode(&buf, []models.Playlist{{Name: "N"}}); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !strings.Contains(buf.String(), `"tracks": []`) {
			t.Errorf("expected empty tracks array, got %s", buf.String())
		}

		got, errs := Decode(&buf)
		if len(errs) != 0 || len(got) != 1 || got[0].Tracks == nil {
			t.Errorf("expected decodable playlist with empty tracks, got %+v %v", got, errs)
		}
	})

	t.Run("malformed entries are isolated", func(t *testing.T) {
		input := `[
			{"name": "Good", "tracks": [{"artist": "A", "album": "", "title": "X"}]},
			{"name": "Bad Tracks", "tracks": "not a list"},
			42,
			{"tracks": []},
			{"name": "No Tracks"},
			{"name": "Also Good", "tracks": []}
		]`

		got, errs := Decode(strings.NewReader(input))
		if len(got) != 2 || got[0].Name != "Good" || got[1].Name != "Also Good" {
			t.Fatalf("expected the two good playlists, got %+v", got)
		}
		if len(errs) != 4 {
			t.Fatalf("expected 4 errors, got %d: %v", len(errs), errs)
		}

		for _, err := range errs {
			if !errors.Is(err, shared.ErrMalformedInterchange) {
				t.Errorf("expected ErrMalformedInterchange, got %v", err)
			}
		}

		var entryErr *EntryError
		if !errors.As(errs[0], &entryErr) {
			t.Fatalf("expected EntryError, got %T", errs[0])
		}
		if entryErr.Index != 1 || entryErr.Name != "Bad Tracks" {
			t.Errorf("expected index 1 named 'Bad Tracks', got %d %q", entryErr.Index, entryErr.Name)
		}
		if !IsMalformed(errs[3]) {
			t.Error("expected IsMalformed to report true")
		}
	})

	t.Run("not an array", func(t *testing.T) {
		got, errs := Decode(strings.NewReader(`{"name": "x"}`))
		if got != nil {
			t.Errorf("expected no playlists, got %+v", got)
		}
		if len(errs) != 1 || !errors.Is(errs[0], shared.ErrMalformedInterchange) {
			t.Errorf("expected single malformed error, got %v", errs)
		}
	})

	t.Run("encode write failure", func(t *testing.T) {
		if err := Encode(&tu.FWriter{}, samplePlaylists()); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestFiles(t *testing.T) {
	t.Run("DefaultFileName", func(t *testing.T) {
		ts := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)
		if got := DefaultFileName(ts); got != "deezerPlaylists_09_05_07.json" {
			t.Errorf("unexpected file name %s", got)
		}
	})

	t.Run("WriteFile and ReadFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "export.json")
		want := samplePlaylists()

		if err := WriteFile(path, want); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}
		tu.AssertFileExists(t, path)

		got, errs, err := ReadFile(path)
		if err != nil || len(errs) != 0 {
			t.Fatalf("ReadFile failed: %v %v", err, errs)
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("file round trip mismatch")
		}
	})

	t.Run("ReadFile missing", func(t *testing.T) {
		if _, _, err := ReadFile(filepath.Join(t.TempDir(), "nope.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})
}

func samplePlan() *models.Plan {
	matched := models.Matched(models.Candidate{ID: "spotify:track:ax", Track: models.Track{Artist: "A", Title: "X"}}, 90)
	matched.Source = models.Track{Artist: "A", Title: "X", Album: "Z"}
	skipped := models.Unmatched(0)
	skipped.Source = models.Track{Artist: "B", Title: "Y", Album: "W"}

	return &models.Plan{
		ID:           "plan-1",
		PlaylistName: "Road Trip",
		MatchedIDs:   []string{"spotify:track:ax"},
		Results:      []models.MatchResult{matched, skipped},
		TotalSource:  2,
		TotalMatched: 1,
	}
}

func TestReports(t *testing.T) {
	t.Run("WriteIDs", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteIDs(&buf, samplePlan()); err != nil {
			t.Fatalf("WriteIDs failed: %v", err)
		}
		if buf.String() != "spotify:track:ax\n" {
			t.Errorf("unexpected ids output %q", buf.String())
		}
	})

	t.Run("WriteIDsFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "plan.ids")
		if err := WriteIDsFile(path, samplePlan()); err != nil {
			t.Fatalf("WriteIDsFile failed: %v", err)
		}
		if got := tu.MustReadFile(t, path); got != "spotify:track:ax\n" {
			t.Errorf("unexpected ids file %q", got)
		}

		if err := WriteIDsFile(filepath.Join(t.TempDir(), "missing", "plan.ids"), samplePlan()); err == nil {
			t.Error("expected error for missing directory")
		}
	})

	t.Run("WriteIDs failure", func(t *testing.T) {
		if err := WriteIDs(&tu.FWriter{}, samplePlan()); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("SkippedCSV", func(t *testing.T) {
		data, err := SkippedCSV(samplePlan())
		if err != nil {
			t.Fatalf("SkippedCSV failed: %v", err)
		}
		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 2 {
			t.Fatalf("expected header and one row, got %q", lines)
		}
		if lines[0] != "Position,Artist,Title,Album,Score" {
			t.Errorf("unexpected header %q", lines[0])
		}
		if lines[1] != "2,B,Y,W,0" {
			t.Errorf("unexpected row %q", lines[1])
		}
	})

	t.Run("PlanMarkdown", func(t *testing.T) {
		out := string(PlanMarkdown(samplePlan()))
		for _, want := range []string{"# Road Trip", "**Matched**: 1/2 (50.0%)", "- [x] A - X (Z) → spotify:track:ax [90]", "- [ ] B - Y (W) [0]"} {
			if !strings.Contains(out, want) {
				t.Errorf("expected %q in markdown:\n%s", want, out)
			}
		}
	})

	t.Run("WriteReport", func(t *testing.T) {
		base := filepath.Join(t.TempDir(), "road_trip")
		files, err := WriteReport(samplePlan(), base)
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}

		if got := tu.MustReadFile(t, files.IDsFile); got != "spotify:track:ax\n" {
			t.Errorf("unexpected ids file %q", got)
		}
		if !strings.Contains(tu.MustReadFile(t, files.PlanFile), `"playlist_name": "Road Trip"`) {
			t.Error("expected plan JSON to contain playlist name")
		}
		if files.SkippedFile == "" {
			t.Fatal("expected skipped file")
		}
		tu.AssertFileExists(t, files.SkippedFile)
	})

	t.Run("WriteReport all matched", func(t *testing.T) {
		plan := samplePlan()
		plan.Results = plan.Results[:1]
		plan.TotalSource = 1

		files, err := WriteReport(plan, filepath.Join(t.TempDir(), "all"))
		if err != nil {
			t.Fatalf("WriteReport failed: %v", err)
		}
		if files.SkippedFile != "" {
			t.Errorf("expected no skipped file, got %s", files.SkippedFile)
		}
		if _, err := os.Stat(filepath.Join(filepath.Dir(files.PlanFile), "all_skipped.csv")); !os.IsNotExist(err) {
			t.Error("skipped file should not exist")
		}
	})
}
