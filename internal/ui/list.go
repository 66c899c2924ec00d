package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/dzx/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.PlaylistRef] to implement [list.Item].
type playlistItem struct {
	ref      models.PlaylistRef
	selected bool
}

func (i playlistItem) FilterValue() string { return i.ref.Name }
func (i playlistItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s", mark, i.ref.Name)
}
func (i playlistItem) Description() string {
	return fmt.Sprintf("%d tracks • id %s", i.ref.TrackCount, i.ref.ID)
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title }
func (i trackItem) Title() string       { return i.track.Title }
func (i trackItem) Description() string {
	desc := i.track.Artist
	if i.track.Album != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.track.Album)
	}
	return desc
}
