package models

import (
	"fmt"
	"time"
)

// Plan is the read-only output of reconciling one playlist against a destination catalog.
//
// MatchedIDs follows source order. Results holds one entry per source track.
type Plan struct {
	ID           string        `json:"id"`
	PlaylistName string        `json:"playlist_name"`
	MatchedIDs   []string      `json:"matched_ids"`
	Results      []MatchResult `json:"results"`
	TotalSource  int           `json:"total_source"`
	TotalMatched int           `json:"total_matched"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Skipped returns the results that did not produce a destination ID, in source order.
func (p *Plan) Skipped() []MatchResult {
	var skipped []MatchResult
	for _, r := range p.Results {
		if !r.Matched {
			skipped = append(skipped, r)
		}
	}
	return skipped
}

// MatchPercentage is the share of source tracks that matched, 0 for an empty playlist.
func (p *Plan) MatchPercentage() float64 {
	if p.TotalSource == 0 {
		return 0
	}
	return float64(p.TotalMatched) / float64(p.TotalSource) * 100
}

// ExecutionOutcome reports what the executor did with a plan.
type ExecutionOutcome struct {
	PlanID        string
	PlaylistName  string
	DestinationID string // Created playlist ID, empty unless committed
	Committed     bool
	TracksAdded   int
	Reason        string // Why nothing was committed ("dry run", "no matches")
}

// PlanStatus is the lifecycle state of a persisted plan.
type PlanStatus string

const (
	PlanPlanned   PlanStatus = "planned"
	PlanCommitted PlanStatus = "committed"
	PlanFailed    PlanStatus = "failed"
)

// PersistedPlan wraps a [Plan] stored for inspection and deferred commit.
type PersistedPlan struct {
	id            string
	sequence      int
	destination   string
	status        PlanStatus
	destinationID string
	errorMessage  string
	plan          Plan
	createdAt     time.Time
	updatedAt     time.Time
}

var _ Model = (*PersistedPlan)(nil)

// NewPersistedPlan creates a planned entity for the given destination service.
func NewPersistedPlan(sequence int, destination string, plan Plan) *PersistedPlan {
	now := time.Now()
	createdAt := plan.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	return &PersistedPlan{
		id:          plan.ID,
		sequence:    sequence,
		destination: destination,
		status:      PlanPlanned,
		plan:        plan,
		createdAt:   createdAt,
		updatedAt:   now,
	}
}

func (p *PersistedPlan) ID() string            { return p.id }
func (p *PersistedPlan) Sequence() int         { return p.sequence }
func (p *PersistedPlan) Destination() string   { return p.destination }
func (p *PersistedPlan) Status() PlanStatus    { return p.status }
func (p *PersistedPlan) DestinationID() string { return p.destinationID }
func (p *PersistedPlan) ErrorMessage() string  { return p.errorMessage }
func (p *PersistedPlan) Plan() Plan            { return p.plan }
func (p *PersistedPlan) CreatedAt() time.Time  { return p.createdAt }
func (p *PersistedPlan) UpdatedAt() time.Time  { return p.updatedAt }

func (p *PersistedPlan) SetID(id string) {
	p.id = id
	p.plan.ID = id
}

func (p *PersistedPlan) SetSequence(seq int)         { p.sequence = seq }
func (p *PersistedPlan) SetUpdatedAt(t time.Time)    { p.updatedAt = t }
func (p *PersistedPlan) SetErrorMessage(msg string)  { p.errorMessage = msg }
func (p *PersistedPlan) SetDestinationID(id string)  { p.destinationID = id }
func (p *PersistedPlan) SetStatus(status PlanStatus) { p.status = status }
func (p *PersistedPlan) SetCreatedAt(t time.Time)    { p.createdAt = t }

// SetPlan replaces the wrapped plan, keeping the entity ID.
func (p *PersistedPlan) SetPlan(plan Plan) {
	plan.ID = p.id
	p.plan = plan
}

// Validate checks required fields and the plan's internal counts.
func (p *PersistedPlan) Validate() error {
	if p.id == "" {
		return fmt.Errorf("plan id is required")
	}
	if p.destination == "" {
		return fmt.Errorf("destination service is required")
	}
	if p.plan.PlaylistName == "" {
		return fmt.Errorf("playlist name is required")
	}
	switch p.status {
	case PlanPlanned, PlanCommitted, PlanFailed:
	default:
		return fmt.Errorf("invalid plan status: %q", p.status)
	}
	if p.plan.TotalMatched != len(p.plan.MatchedIDs) {
		return fmt.Errorf("matched count %d does not equal %d matched ids", p.plan.TotalMatched, len(p.plan.MatchedIDs))
	}
	if p.plan.TotalMatched > p.plan.TotalSource {
		return fmt.Errorf("matched count %d exceeds source count %d", p.plan.TotalMatched, p.plan.TotalSource)
	}
	return nil
}
