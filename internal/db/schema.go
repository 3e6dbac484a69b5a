package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup so a fresh database is usable without a
// separate migration step. Reference tables (areas, professions, grades,
// experiences) are seeded externally; the collector only reads them, except
// for professions.last_checked_date and area-tree inserts.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS areas (
		id             text PRIMARY KEY,
		title          text NOT NULL,
		parent_area_id text REFERENCES areas(id),
		parent_path    text[] NOT NULL DEFAULT '{}'
	)`,

	`CREATE TABLE IF NOT EXISTS professions (
		id                uuid PRIMARY KEY,
		title             text NOT NULL,
		synonyms          text[] NOT NULL DEFAULT '{}',
		last_checked_date timestamptz
	)`,

	`CREATE TABLE IF NOT EXISTS grades (
		id            uuid PRIMARY KEY,
		title         text NOT NULL,
		match_keyword text NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS experiences (
		id    uuid PRIMARY KEY,
		hh_id text NOT NULL,
		title text NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS vacancies (
		id                     uuid PRIMARY KEY,
		hh_id                  text NOT NULL,
		area_id                text REFERENCES areas(id),
		profession_id          uuid REFERENCES professions(id),
		experience_id          uuid REFERENCES experiences(id),
		published_at           timestamptz NOT NULL,
		name                   text NOT NULL,
		snippet_requirement    text NOT NULL DEFAULT '',
		snippet_responsibility text NOT NULL DEFAULT '',
		employer_name          text NOT NULL DEFAULT '',
		salary_from            numeric,
		salary_to              numeric,
		salary_currency        text NOT NULL DEFAULT '',
		salary_gross           boolean NOT NULL DEFAULT false,
		salary_mode            text NOT NULL DEFAULT 'MONTH',
		matched_by_name        boolean NOT NULL DEFAULT false,
		matched_by_requirement boolean NOT NULL DEFAULT false
	)`,

	// The dedup safety net: a window can be reprocessed after a crash and
	// re-inserting the same hh_id must fail, not duplicate.
	`CREATE UNIQUE INDEX IF NOT EXISTS vacancies_hh_id_key ON vacancies (hh_id)`,

	`CREATE INDEX IF NOT EXISTS vacancies_published_at_idx ON vacancies (published_at)`,

	`CREATE TABLE IF NOT EXISTS vacancy_grades (
		vacancy_id uuid NOT NULL REFERENCES vacancies(id) ON DELETE CASCADE,
		grade_id   uuid NOT NULL REFERENCES grades(id) ON DELETE CASCADE,
		PRIMARY KEY (vacancy_id, grade_id)
	)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
