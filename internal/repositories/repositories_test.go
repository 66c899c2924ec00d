package repositories

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	// Every pooled connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func roadTripPlan() models.Plan {
	matched := models.Matched(models.Candidate{ID: "spotify:track:ax", Track: models.Track{Artist: "A", Title: "X", Album: "Z"}}, 90)
	matched.Source = models.Track{Artist: "A", Title: "X", Album: "Z"}
	skipped := models.Unmatched(0)
	skipped.Source = models.Track{Artist: "B", Title: "Y", Album: "W"}

	return models.Plan{
		ID:           shared.GenerateID(),
		PlaylistName: "Road Trip",
		MatchedIDs:   []string{"spotify:track:ax"},
		Results:      []models.MatchResult{matched, skipped},
		TotalSource:  2,
		TotalMatched: 1,
	}
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "plans")
		if err != nil {
			t.Fatalf("NextSequence failed: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "plan_results"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unsequenced table, got %v", err)
	}

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("failed to begin: %v", err)
	}
	if got, err := NextSequence(tx, "plans"); err != nil || got != 4 {
		t.Fatalf("expected 4 inside transaction, got %d %v", got, err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("failed to roll back: %v", err)
	}
	if got, _ := NextSequence(db, "plans"); got != 4 {
		t.Errorf("expected rolled back increment to be reused, got %d", got)
	}
}

func TestPlanRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		dto := roadTripPlan()
		plan := models.NewPersistedPlan(0, "spotify", dto)

		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		if plan.ID() != dto.ID {
			t.Errorf("expected plan ID %s to be kept, got %s", dto.ID, plan.ID())
		}
		if plan.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", plan.Sequence())
		}
	})

	t.Run("Create generates ID", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		dto := roadTripPlan()
		dto.ID = ""
		plan := models.NewPersistedPlan(0, "spotify", dto)

		if err := NewPlanRepository(db).Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}
		if plan.ID() == "" || plan.Plan().ID != plan.ID() {
			t.Errorf("expected generated ID on entity and plan, got %q/%q", plan.ID(), plan.Plan().ID)
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		plan := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		retrieved, err := repo.Get(plan.ID())
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}

		if retrieved.Status() != models.PlanPlanned {
			t.Errorf("expected status planned, got %s", retrieved.Status())
		}
		if retrieved.Destination() != "spotify" {
			t.Errorf("expected destination spotify, got %s", retrieved.Destination())
		}

		p := retrieved.Plan()
		if p.PlaylistName != "Road Trip" || p.TotalSource != 2 || p.TotalMatched != 1 {
			t.Errorf("unexpected plan summary %+v", p)
		}
		if len(p.MatchedIDs) != 1 || p.MatchedIDs[0] != "spotify:track:ax" {
			t.Errorf("unexpected matched ids %v", p.MatchedIDs)
		}
		if len(p.Results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(p.Results))
		}
		if !p.Results[0].Matched || p.Results[0].Candidate == nil || p.Results[0].Score != 90 {
			t.Errorf("unexpected first result %+v", p.Results[0])
		}
		if p.Results[1].Matched || p.Results[1].Candidate != nil || p.Results[1].Source.Artist != "B" {
			t.Errorf("unexpected second result %+v", p.Results[1])
		}
	})

	t.Run("GetBySequence", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		first := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		second := models.NewPersistedPlan(0, "youtube", roadTripPlan())
		for _, p := range []*models.PersistedPlan{first, second} {
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create plan: %v", err)
			}
		}

		retrieved, err := repo.GetBySequence(2)
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}
		if retrieved.ID() != second.ID() {
			t.Errorf("expected %s, got %s", second.ID(), retrieved.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		plan := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		plan.SetStatus(models.PlanFailed)
		plan.SetErrorMessage("boom")
		if err := repo.Update(plan); err != nil {
			t.Fatalf("failed to update plan: %v", err)
		}

		retrieved, err := repo.Get(plan.ID())
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}
		if retrieved.Status() != models.PlanFailed || retrieved.ErrorMessage() != "boom" {
			t.Errorf("expected failed/boom, got %s/%s", retrieved.Status(), retrieved.ErrorMessage())
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		plan := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		if err := repo.Delete(plan.ID()); err != nil {
			t.Fatalf("failed to delete plan: %v", err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM plan_results WHERE plan_id = ?", plan.ID()).Scan(&count); err != nil {
			t.Fatalf("failed to count results: %v", err)
		}
		if count != 0 {
			t.Errorf("expected results to be deleted, got %d", count)
		}
	})

	t.Run("Get keeps matched candidate with empty id", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		matched := models.Matched(models.Candidate{Track: models.Track{Artist: "A", Title: "X"}}, 90)
		matched.Source = models.Track{Artist: "A", Title: "X"}
		plan := models.Plan{
			ID:           shared.GenerateID(),
			PlaylistName: "Blank IDs",
			MatchedIDs:   []string{""},
			Results:      []models.MatchResult{matched},
			TotalSource:  1,
			TotalMatched: 1,
		}

		repo := NewPlanRepository(db)
		if err := repo.Create(models.NewPersistedPlan(0, "spotify", plan)); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		retrieved, err := repo.Get(plan.ID)
		if err != nil {
			t.Fatalf("failed to get plan: %v", err)
		}
		if retrieved.Plan().Results[0].Candidate == nil {
			t.Error("expected candidate to survive the round trip")
		}
		if len(retrieved.Plan().MatchedIDs) != 1 {
			t.Errorf("expected one matched id, got %v", retrieved.Plan().MatchedIDs)
		}
		if err := retrieved.Validate(); err != nil {
			t.Errorf("reloaded plan should validate: %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		a := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		b := models.NewPersistedPlan(0, "youtube", roadTripPlan())
		c := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		for _, p := range []*models.PersistedPlan{a, b, c} {
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create plan: %v", err)
			}
		}
		if err := repo.MarkCommitted(c.ID(), "dest"); err != nil {
			t.Fatalf("failed to commit plan: %v", err)
		}

		all, err := repo.List(nil)
		if err != nil {
			t.Fatalf("failed to list plans: %v", err)
		}
		if len(all) != 3 || all[0].ID() != a.ID() || all[2].ID() != c.ID() {
			t.Errorf("expected 3 plans in sequence order")
		}
		if len(all[1].Plan().Results) != 2 {
			t.Errorf("expected results to be loaded for listed plans")
		}

		spotify, err := repo.List(map[string]any{"destination": "spotify"})
		if err != nil {
			t.Fatalf("failed to list plans: %v", err)
		}
		if len(spotify) != 2 {
			t.Errorf("expected 2 spotify plans, got %d", len(spotify))
		}

		planned, err := repo.List(map[string]any{"status": models.PlanPlanned})
		if err != nil {
			t.Fatalf("failed to list plans: %v", err)
		}
		if len(planned) != 2 {
			t.Errorf("expected 2 planned plans, got %d", len(planned))
		}

		committed, err := repo.List(map[string]any{"status": "committed"})
		if err != nil {
			t.Fatalf("failed to list plans: %v", err)
		}
		if len(committed) != 1 || committed[0].DestinationID() != "dest" {
			t.Errorf("expected one committed plan with destination id, got %d", len(committed))
		}
	})

	t.Run("MarkCommitted consumes once", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		plan := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		if err := repo.MarkCommitted(plan.ID(), "pl1"); err != nil {
			t.Fatalf("first commit failed: %v", err)
		}

		retrieved, _ := repo.Get(plan.ID())
		if retrieved.Status() != models.PlanCommitted || retrieved.DestinationID() != "pl1" {
			t.Errorf("expected committed/pl1, got %s/%s", retrieved.Status(), retrieved.DestinationID())
		}
	})

	t.Run("MarkFailed allows retry", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewPlanRepository(db)
		plan := models.NewPersistedPlan(0, "spotify", roadTripPlan())
		if err := repo.Create(plan); err != nil {
			t.Fatalf("failed to create plan: %v", err)
		}

		if err := repo.MarkFailed(plan.ID(), shared.ErrServiceUnavailable); err != nil {
			t.Fatalf("MarkFailed failed: %v", err)
		}
		retrieved, _ := repo.Get(plan.ID())
		if retrieved.Status() != models.PlanFailed || retrieved.ErrorMessage() != shared.ErrServiceUnavailable.Error() {
			t.Errorf("expected failed status with message, got %s/%q", retrieved.Status(), retrieved.ErrorMessage())
		}

		if err := repo.MarkCommitted(plan.ID(), "pl1"); err != nil {
			t.Errorf("expected failed plan to be committable, got %v", err)
		}
		retrieved, _ = repo.Get(plan.ID())
		if retrieved.ErrorMessage() != "" {
			t.Errorf("expected error message cleared, got %q", retrieved.ErrorMessage())
		}
	})
}
