package tasks

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// PlaylistError reports a failure confined to a single playlist.
//
// Batch operations collect these and keep going with the remaining playlists.
type PlaylistError struct {
	ID   string // Source playlist ID, empty for interchange imports
	Name string
	Err  error
}

func (e PlaylistError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("playlist %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("playlist %q: %v", e.Name, e.Err)
}

func (e PlaylistError) Unwrap() error {
	return e.Err
}

func discardLogger() *log.Logger {
	return log.New(io.Discard)
}
