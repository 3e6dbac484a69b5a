package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"eachjob/collector-service/internal/model"
)

// CatalogRepo reads the reference tables (professions, grades, areas,
// experiences) and persists the two mutations the collector side is allowed
// to make: the profession cursor and new area-tree nodes.
type CatalogRepo struct {
	pool *pgxpool.Pool
}

// NewCatalogRepo constructs a CatalogRepo.
func NewCatalogRepo(pool *pgxpool.Pool) *CatalogRepo {
	return &CatalogRepo{pool: pool}
}

// ListProfessions returns all tracked professions with their cursors.
func (r *CatalogRepo) ListProfessions(ctx context.Context) ([]model.Profession, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, synonyms, last_checked_date FROM professions ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query professions: %w", err)
	}
	defer rows.Close()

	professions := make([]model.Profession, 0)
	for rows.Next() {
		var p model.Profession
		if err := rows.Scan(&p.ID, &p.Title, &p.Synonyms, &p.LastCheckedDate); err != nil {
			return nil, fmt.Errorf("scan profession: %w", err)
		}
		professions = append(professions, p)
	}
	return professions, rows.Err()
}

// ListGrades returns all grade labels.
func (r *CatalogRepo) ListGrades(ctx context.Context) ([]model.Grade, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, match_keyword FROM grades ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query grades: %w", err)
	}
	defer rows.Close()

	grades := make([]model.Grade, 0)
	for rows.Next() {
		var g model.Grade
		if err := rows.Scan(&g.ID, &g.Title, &g.MatchKeyword); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		grades = append(grades, g)
	}
	return grades, rows.Err()
}

// ListExperiences returns all experience brackets.
func (r *CatalogRepo) ListExperiences(ctx context.Context) ([]model.Experience, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, hh_id, title FROM experiences ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query experiences: %w", err)
	}
	defer rows.Close()

	experiences := make([]model.Experience, 0)
	for rows.Next() {
		var e model.Experience
		if err := rows.Scan(&e.ID, &e.HHID, &e.Title); err != nil {
			return nil, fmt.Errorf("scan experience: %w", err)
		}
		experiences = append(experiences, e)
	}
	return experiences, rows.Err()
}

// ListAreas returns the full area reference table.
func (r *CatalogRepo) ListAreas(ctx context.Context) ([]model.Area, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, title, COALESCE(parent_area_id, ''), parent_path FROM areas ORDER BY title`,
	)
	if err != nil {
		return nil, fmt.Errorf("query areas: %w", err)
	}
	defer rows.Close()

	areas := make([]model.Area, 0)
	for rows.Next() {
		var a model.Area
		if err := rows.Scan(&a.ID, &a.Title, &a.ParentID, &a.ParentPath); err != nil {
			return nil, fmt.Errorf("scan area: %w", err)
		}
		areas = append(areas, a)
	}
	return areas, rows.Err()
}

// UpdateProfessionCursor moves the profession cursor forward. The WHERE
// clause enforces monotonicity at the store level: an update that would
// move the cursor backwards affects no rows and errors out.
func (r *CatalogRepo) UpdateProfessionCursor(ctx context.Context, professionID string, cursor time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE professions
		 SET last_checked_date = $2
		 WHERE id = $1 AND (last_checked_date IS NULL OR last_checked_date <= $2)`,
		professionID, cursor,
	)
	if err != nil {
		return fmt.Errorf("update cursor: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("cursor for profession %s would move backwards (to %s)", professionID, cursor)
	}
	return nil
}

// InsertArea adds an area-tree node if it is not stored yet. Existing nodes
// are left untouched; the tree is effectively append-only.
func (r *CatalogRepo) InsertArea(ctx context.Context, a model.Area) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO areas (id, title, parent_area_id, parent_path)
		 VALUES ($1, $2, $3, $4) ON CONFLICT (id) DO NOTHING`,
		a.ID, a.Title, nullIfEmpty(a.ParentID), a.ParentPath,
	)
	if err != nil {
		return fmt.Errorf("insert area %s: %w", a.ID, err)
	}
	return nil
}
