// Package ui implements an interactive playlist selector using bubbletea's Elm architecture.
//
// The selector produces the set of source playlists to export, so the export itself stays non-interactive:
//  1. [SelectView] : Browse source playlists and toggle them in or out of the selection
//  2. [TrackListView] : Preview the tracks of the highlighted playlist
//  3. [ConfirmView] : Confirm the selection before handing it back to the caller
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
//
// Keyboard navigation uses vim-style bindings (j/k, space, a, p, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
