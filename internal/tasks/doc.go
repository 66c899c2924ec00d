// Package tasks orchestrates playlist reconciliation with real-time progress reporting.
//
// # Core Operations
//
//  1. [Exporter.Export] : Read selected playlists out of the source catalog
//     - Lists the user's playlists across every page
//     - Fetches the tracks of each selected playlist through the [catalog.Pager]
//     - A failing playlist is reported and its siblings continue
//
//  2. [Planner.Reconcile] : Build a [models.Plan] for one playlist
//     - Searches the destination exactly once per track
//     - Scores candidates with the fuzzy matcher and records every skip
//     - Optional parallel searches keep source order in the plan
//
//  3. [Executor.Execute] : Apply a plan behind the dry-run gate
//     - Without commit, the plan is only persisted and reported
//     - With commit, one playlist is created and every matched ID is added
//
//  4. [Importer.Import] : Reconcile then execute a batch of playlists
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
