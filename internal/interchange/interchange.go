// package interchange reads and writes the playlist export file and plan reports
//
// The export file is a JSON array of {name, tracks: [{artist, album, title}]} objects. Encoding then decoding a
// playlist sequence yields an equal sequence.
package interchange

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// EntryError reports a playlist object that could not be decoded. Other entries are unaffected.
type EntryError struct {
	Index int
	Name  string // Empty when the name itself could not be read
	Err   error
}

func (e *EntryError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("playlist %d (%q): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("playlist %d: %v", e.Index, e.Err)
}

func (e *EntryError) Unwrap() error { return e.Err }

type entry struct {
	Name   *string         `json:"name"`
	Tracks *[]models.Track `json:"tracks"`
}

// DefaultFileName returns the export file name for t, deezerPlaylists_HH_MM_SS.json.
func DefaultFileName(t time.Time) string {
	return fmt.Sprintf("deezerPlaylists_%s.json", t.Format("15_04_05"))
}

// Encode writes playlists as an indented JSON array. A nil track list is written as [].
func Encode(w io.Writer, playlists []models.Playlist) error {
	out := make([]models.Playlist, len(playlists))
	for i, p := range playlists {
		out[i] = p
		if out[i].Tracks == nil {
			out[i].Tracks = []models.Track{}
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("failed to encode playlists: %w", err)
	}
	return nil
}

// Decode reads a playlist array.
//
// Entries that are not well-formed playlist objects are reported as [EntryError] values wrapping
// [shared.ErrMalformedInterchange] and left out of the result. A document that is not a JSON array yields no
// playlists and a single error.
func Decode(r io.Reader) ([]models.Playlist, []error) {
	var raw []json.RawMessage
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, []error{fmt.Errorf("%w: %w", shared.ErrMalformedInterchange, err)}
	}

	playlists := make([]models.Playlist, 0, len(raw))
	var errs []error
	for i, msg := range raw {
		p, err := decodeEntry(msg)
		if err != nil {
			errs = append(errs, &EntryError{Index: i, Name: p.Name, Err: err})
			continue
		}
		playlists = append(playlists, p)
	}
	return playlists, errs
}

func decodeEntry(msg json.RawMessage) (models.Playlist, error) {
	var e entry
	if err := json.Unmarshal(msg, &e); err != nil {
		// Recover the name, if possible, so the failure can be reported against it.
		var named struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(msg, &named)
		return models.Playlist{Name: named.Name}, fmt.Errorf("%w: %w", shared.ErrMalformedInterchange, err)
	}

	switch {
	case e.Name == nil:
		return models.Playlist{}, fmt.Errorf("%w: missing name", shared.ErrMalformedInterchange)
	case e.Tracks == nil:
		return models.Playlist{Name: *e.Name}, fmt.Errorf("%w: missing tracks", shared.ErrMalformedInterchange)
	}

	tracks := *e.Tracks
	if tracks == nil {
		tracks = []models.Track{}
	}
	return models.Playlist{Name: *e.Name, Tracks: tracks}, nil
}

// WriteFile encodes playlists to path, creating parent directories.
func WriteFile(path string, playlists []models.Playlist) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export file: %w", err)
	}

	if err := Encode(f, playlists); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadFile decodes the export file at path. The returned error is non-nil only when the file cannot be read;
// per-playlist failures are returned separately.
func ReadFile(path string) ([]models.Playlist, []error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open export file: %w", err)
	}
	defer f.Close()

	playlists, errs := Decode(f)
	return playlists, errs, nil
}

// IsMalformed reports whether err came from malformed interchange data.
func IsMalformed(err error) bool {
	return errors.Is(err, shared.ErrMalformedInterchange)
}
