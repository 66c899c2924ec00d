// Package models defines domain entities and persistence interfaces for the dzx playlist reconciliation service.
//
// The package contains two categories of types:
//
// 1. Value types exchanged between the catalogs and the engine:
//   - [Track] : artist/title/album descriptor, the unit of cross-catalog matching
//   - [Playlist] : ordered track list, also the export interchange shape
//   - [PlaylistRef] : source catalog listing entry
//   - [Candidate] : destination search hit with its catalog-native ID
//   - [MatchResult] : per-track outcome, matched or unmatched
//   - [Plan] : read-only reconciliation output consumed by the executor
//   - [ExecutionOutcome] : what the executor did with a plan
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [PersistedPlan] : stored plans for dry-run inspection and deferred commit
//
// Persistent entities implement [Model]: an opaque ID, a sequence number, timestamps and validation.
// [Resolve] turns a command line reference (either form) into a record through any [Repository].
package models
