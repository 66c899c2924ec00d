package models

import (
	"fmt"
	"strings"
)

// Track describes a song independently of any catalog.
//
// Two tracks from different catalogs are never compared field by field; identity is only established by the matcher.
type Track struct {
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Title  string `json:"title"`
}

// NewTrack trims the given fields and returns a descriptor.
func NewTrack(artist, title, album string) Track {
	return Track{
		Artist: strings.TrimSpace(artist),
		Title:  strings.TrimSpace(title),
		Album:  strings.TrimSpace(album),
	}
}

// Validate reports whether the descriptor can produce a comparison string.
func (t Track) Validate() error {
	if strings.TrimSpace(t.Artist) == "" && strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("track has neither artist nor title")
	}
	return nil
}

func (t Track) String() string {
	if t.Album == "" {
		return fmt.Sprintf("%s - %s", t.Artist, t.Title)
	}
	return fmt.Sprintf("%s - %s (%s)", t.Artist, t.Title, t.Album)
}

// Playlist is a named, ordered track list. It is also the export interchange shape.
type Playlist struct {
	Name   string  `json:"name"`
	Tracks []Track `json:"tracks"`
}

// Validate checks the playlist name and every track descriptor.
func (p Playlist) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("playlist name is required")
	}
	for i, t := range p.Tracks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("track %d: %w", i, err)
		}
	}
	return nil
}

// PlaylistRef is a playlist as it appears in a source catalog listing.
type PlaylistRef struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	TrackCount int    `json:"track_count"`
}

// Candidate is a destination search hit.
type Candidate struct {
	ID    string `json:"id"`    // Destination-native identifier (Spotify URI, YouTube video ID)
	Track Track  `json:"track"` // Descriptor used for scoring
}

// MatchResult is the outcome of matching a single source track.
//
// One result is produced per source track, matched or not.
type MatchResult struct {
	Source    Track      `json:"source"`
	Candidate *Candidate `json:"candidate,omitempty"` // nil when unmatched
	Score     int        `json:"score"`               // Winning score, or the best rejected score when unmatched
	Matched   bool       `json:"matched"`
}

// Matched builds a successful result for candidate c.
func Matched(c Candidate, score int) MatchResult {
	return MatchResult{Candidate: &c, Score: score, Matched: true}
}

// Unmatched builds a result that carries the best rejected score (0 when nothing was scored).
func Unmatched(score int) MatchResult {
	return MatchResult{Score: score}
}
