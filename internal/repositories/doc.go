// Package repositories implements SQLite persistence for reconciliation plans.
//
// Plans produced during a dry run are stored so they can be inspected later and committed at most once.
//
// Key Implementations:
//   - [PlanRepository] : plan rows plus one plan_results row per source track, with status tracking
//
// Sequence numbers provide stable, human-readable ordering (e.g., plan #15) independent of UUIDs and creation timestamps.
// [NextSequence] advances the single-row counter table kept for each sequenced table, inside the caller's transaction.
package repositories
