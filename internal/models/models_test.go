package models

import (
	"errors"
	"testing"

	"github.com/desertthunder/dzx/internal/shared"
)

// memoryPlans is a map-backed [Repository] used to exercise [Resolve].
type memoryPlans struct {
	byID map[string]*PersistedPlan
}

func (m *memoryPlans) Create(p *PersistedPlan) error { m.byID[p.ID()] = p; return nil }
func (m *memoryPlans) Update(p *PersistedPlan) error { m.byID[p.ID()] = p; return nil }
func (m *memoryPlans) Delete(id string) error        { delete(m.byID, id); return nil }

func (m *memoryPlans) Get(id string) (*PersistedPlan, error) {
	if p, ok := m.byID[id]; ok {
		return p, nil
	}
	return nil, shared.ErrPlanNotFound
}

func (m *memoryPlans) GetBySequence(seq int) (*PersistedPlan, error) {
	for _, p := range m.byID {
		if p.Sequence() == seq {
			return p, nil
		}
	}
	return nil, shared.ErrPlanNotFound
}

func (m *memoryPlans) List(map[string]any) ([]*PersistedPlan, error) {
	var out []*PersistedPlan
	for _, p := range m.byID {
		out = append(out, p)
	}
	return out, nil
}

func TestResolve(t *testing.T) {
	repo := &memoryPlans{byID: map[string]*PersistedPlan{}}
	repo.Create(NewPersistedPlan(7, "spotify", Plan{ID: "abc123", PlaylistName: "Road Trip"}))

	tests := []struct {
		name    string
		ref     string
		wantErr error
	}{
		{name: "by id", ref: "abc123"},
		{name: "by sequence", ref: "7"},
		{name: "unknown sequence", ref: "8", wantErr: shared.ErrPlanNotFound},
		{name: "unknown id", ref: "zzz", wantErr: shared.ErrPlanNotFound},
		{name: "empty", ref: "", wantErr: shared.ErrMissingArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := Resolve[*PersistedPlan](repo, tt.ref)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if plan.ID() != "abc123" {
				t.Errorf("expected abc123, got %s", plan.ID())
			}
		})
	}
}
