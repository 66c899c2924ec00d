package tasks

import (
	"fmt"

	"github.com/desertthunder/dzx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	ExportPlaylist
	SearchTracks
	PersistPlan
	CreatePlaylist
	AddTracks
	ImportPlaylist
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case ExportPlaylist:
		return "export_playlist"
	case SearchTracks:
		return "search_tracks"
	case PersistPlan:
		return "persist_plan"
	case CreatePlaylist:
		return "create_playlist"
	case AddTracks:
		return "add_tracks"
	case ImportPlaylist:
		return "import_playlist"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchPlaylistsUpdate(user string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlists for user %s...", user),
	}
}

func exportingPlaylistUpdate(step, total int, ref models.PlaylistRef) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Exporting: %s...", step, total, ref.Name),
	}
}

func exportCompletedUpdate(step, total int, pl *models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d tracks)", step, total, pl.Name, len(pl.Tracks)),
		Data:    pl,
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func searchTracksUpdate(step, total int, result models.MatchResult) ProgressUpdate {
	mark := "✗"
	if result.Matched {
		mark = "✓"
	}
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s (%d)", step, total, mark, result.Source, result.Score),
		Data:    result,
	}
}

func persistPlanUpdate(plan *models.Plan) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PersistPlan,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Plan saved: %s (%d/%d matched)", plan.PlaylistName, plan.TotalMatched, plan.TotalSource),
		Data:    plan,
	}
}

func createPlaylistUpdate(name, destination string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   2,
		Message: fmt.Sprintf("Creating playlist %q on %s...", name, destination),
	}
}

func addTracksUpdate(count int, playlistID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddTracks,
		Step:    2,
		Total:   2,
		Message: fmt.Sprintf("Adding %d tracks to %s...", count, playlistID),
	}
}

func importPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportPlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Importing: %s...", step, total, name),
	}
}
