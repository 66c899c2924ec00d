package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/dzx/internal/models"
	"github.com/desertthunder/dzx/internal/shared"
)

// PlanRepository implements models.Repository[*models.PersistedPlan].
//
// A plan is stored as one row in plans and one row per source track in plan_results.
type PlanRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.PersistedPlan] = (*PlanRepository)(nil)

// NewPlanRepository creates a new PlanRepository with the given database connection
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

const planColumns = `id, sequence, destination, playlist_name, status, destination_id, total_source, total_matched, error_message, created_at, updated_at`

// Create inserts a plan and its results. The plan's own ID is kept when set, otherwise one is generated.
//
// The sequence number is taken inside the insert transaction, so a rejected plan never consumes one.
func (r *PlanRepository) Create(plan *models.PersistedPlan) error {
	if plan.ID() == "" {
		plan.SetID(shared.GenerateID())
	}

	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "plans")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}
	plan.SetSequence(sequence)

	p := plan.Plan()
	_, err = tx.Exec(`
		INSERT INTO plans (id, sequence, destination, playlist_name, status, destination_id, total_source, total_matched, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		plan.ID(),
		sequence,
		plan.Destination(),
		p.PlaylistName,
		string(plan.Status()),
		nullString(plan.DestinationID()),
		p.TotalSource,
		p.TotalMatched,
		nullString(plan.ErrorMessage()),
		plan.CreatedAt(),
		plan.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert plan: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO plan_results (plan_id, position, artist, title, album, matched, score, candidate_id, candidate_artist, candidate_title, candidate_album)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare result insert: %w", err)
	}
	defer stmt.Close()

	for i, res := range p.Results {
		var candID, candArtist, candTitle, candAlbum sql.NullString
		if res.Candidate != nil {
			candID = sql.NullString{String: res.Candidate.ID, Valid: true}
			candArtist = sql.NullString{String: res.Candidate.Track.Artist, Valid: true}
			candTitle = sql.NullString{String: res.Candidate.Track.Title, Valid: true}
			candAlbum = sql.NullString{String: res.Candidate.Track.Album, Valid: true}
		}

		if _, err := stmt.Exec(plan.ID(), i, res.Source.Artist, res.Source.Title, res.Source.Album,
			res.Matched, res.Score, candID, candArtist, candTitle, candAlbum); err != nil {
			return fmt.Errorf("failed to insert result %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit plan: %w", err)
	}

	return nil
}

// Get retrieves a plan and its results by ID
func (r *PlanRepository) Get(id string) (*models.PersistedPlan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = ?`
	return r.loadOne(r.db.QueryRow(query, id))
}

// GetBySequence retrieves a plan by its sequence number.
func (r *PlanRepository) GetBySequence(sequence int) (*models.PersistedPlan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE sequence = ?`
	return r.loadOne(r.db.QueryRow(query, sequence))
}

// Update stores the plan's status, destination ID and error message.
func (r *PlanRepository) Update(plan *models.PersistedPlan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	plan.SetUpdatedAt(now)

	query := `
		UPDATE plans
		SET status = ?, destination_id = ?, error_message = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		string(plan.Status()),
		nullString(plan.DestinationID()),
		nullString(plan.ErrorMessage()),
		now,
		plan.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	return expectRow(result, plan.ID())
}

// Delete removes a plan and its results
func (r *PlanRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM plan_results WHERE plan_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete plan results: %w", err)
	}

	result, err := tx.Exec(`DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	if err := expectRow(result, id); err != nil {
		return err
	}

	return tx.Commit()
}

// List retrieves plans matching the given criteria ("status", "destination", "playlist_name"), oldest first.
func (r *PlanRepository) List(criteria map[string]any) ([]*models.PersistedPlan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE 1 = 1`
	args := []any{}

	if status, ok := criteria["status"].(models.PlanStatus); ok && status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	} else if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if destination, ok := criteria["destination"].(string); ok && destination != "" {
		query += " AND destination = ?"
		args = append(args, destination)
	}

	if name, ok := criteria["playlist_name"].(string); ok && name != "" {
		query += " AND playlist_name = ?"
		args = append(args, name)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}

	var plans []*models.PersistedPlan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	rows.Close()

	for _, plan := range plans {
		if err := r.loadResults(plan); err != nil {
			return nil, err
		}
	}

	return plans, nil
}

// MarkCommitted records a successful commit. A plan can be committed only once; a second call returns
// [shared.ErrPlanConsumed].
func (r *PlanRepository) MarkCommitted(id, destinationID string) error {
	result, err := r.db.Exec(`
		UPDATE plans
		SET status = ?, destination_id = ?, error_message = NULL, updated_at = ?
		WHERE id = ? AND status != ?
	`, string(models.PlanCommitted), nullString(destinationID), time.Now(), id, string(models.PlanCommitted))
	if err != nil {
		return fmt.Errorf("failed to mark plan committed: %w", err)
	}
	return r.consumedOrMissing(result, id)
}

// MarkFailed records a failed commit. Failed plans may be committed again.
func (r *PlanRepository) MarkFailed(id string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	result, err := r.db.Exec(`
		UPDATE plans
		SET status = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND status != ?
	`, string(models.PlanFailed), nullString(msg), time.Now(), id, string(models.PlanCommitted))
	if err != nil {
		return fmt.Errorf("failed to mark plan failed: %w", err)
	}
	return r.consumedOrMissing(result, id)
}

// consumedOrMissing explains an update guarded by "status != committed" that touched no rows.
func (r *PlanRepository) consumedOrMissing(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows > 0 {
		return nil
	}

	if _, err := r.Get(id); err != nil {
		return err
	}
	return fmt.Errorf("%w: %s", shared.ErrPlanConsumed, id)
}

type scanner interface {
	Scan(dest ...any) error
}

func (r *PlanRepository) loadOne(row *sql.Row) (*models.PersistedPlan, error) {
	plan, err := scanPlan(row)
	if err != nil {
		return nil, err
	}
	if err := r.loadResults(plan); err != nil {
		return nil, err
	}
	return plan, nil
}

// scanPlan scans a plans row into a [models.PersistedPlan] without results
func scanPlan(s scanner) (*models.PersistedPlan, error) {
	var (
		id            string
		sequence      int
		destination   string
		playlistName  string
		status        string
		destinationID sql.NullString
		totalSource   int
		totalMatched  int
		errorMessage  sql.NullString
		createdAt     time.Time
		updatedAt     time.Time
	)

	err := s.Scan(&id, &sequence, &destination, &playlistName, &status, &destinationID,
		&totalSource, &totalMatched, &errorMessage, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan plan: %w", err)
	}

	dto := models.Plan{
		ID:           id,
		PlaylistName: playlistName,
		TotalSource:  totalSource,
		TotalMatched: totalMatched,
		CreatedAt:    createdAt,
	}

	plan := models.NewPersistedPlan(sequence, destination, dto)
	plan.SetID(id)
	plan.SetStatus(models.PlanStatus(status))
	plan.SetDestinationID(destinationID.String)
	plan.SetErrorMessage(errorMessage.String)
	plan.SetCreatedAt(createdAt)
	plan.SetUpdatedAt(updatedAt)

	return plan, nil
}

// loadResults reads plan_results in position order and rebuilds Results and MatchedIDs.
func (r *PlanRepository) loadResults(plan *models.PersistedPlan) error {
	rows, err := r.db.Query(`
		SELECT artist, title, album, matched, score, candidate_id, candidate_artist, candidate_title, candidate_album
		FROM plan_results
		WHERE plan_id = ?
		ORDER BY position ASC
	`, plan.ID())
	if err != nil {
		return fmt.Errorf("failed to query plan results: %w", err)
	}
	defer rows.Close()

	p := plan.Plan()
	p.Results = []models.MatchResult{}
	p.MatchedIDs = []string{}

	for rows.Next() {
		var (
			source  models.Track
			matched bool
			score   int
		)
		var candID, candArtist, candTitle, candAlbum sql.NullString
		if err := rows.Scan(&source.Artist, &source.Title, &source.Album, &matched, &score,
			&candID, &candArtist, &candTitle, &candAlbum); err != nil {
			return fmt.Errorf("failed to scan plan result: %w", err)
		}

		res := models.MatchResult{Source: source, Score: score, Matched: matched}
		if candID.Valid {
			res.Candidate = &models.Candidate{
				ID:    candID.String,
				Track: models.Track{Artist: candArtist.String, Title: candTitle.String, Album: candAlbum.String},
			}
		}
		if matched && res.Candidate != nil {
			p.MatchedIDs = append(p.MatchedIDs, res.Candidate.ID)
		}
		p.Results = append(p.Results, res)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	plan.SetPlan(p)
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func expectRow(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", shared.ErrPlanNotFound, id)
	}
	return nil
}
