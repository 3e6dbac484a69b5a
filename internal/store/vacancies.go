package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"eachjob/collector-service/internal/model"
)

// VacancyRepo persists and queries ingested vacancies.
type VacancyRepo struct {
	pool *pgxpool.Pool
}

// NewVacancyRepo constructs a VacancyRepo.
func NewVacancyRepo(pool *pgxpool.Pool) *VacancyRepo {
	return &VacancyRepo{pool: pool}
}

// ExistsByHHID reports whether a vacancy with the given natural key is
// already stored.
func (r *VacancyRepo) ExistsByHHID(ctx context.Context, hhID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM vacancies WHERE hh_id = $1)`, hhID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("exists hh_id=%s: %w", hhID, err)
	}
	return exists, nil
}

// InsertVacancies saves one page batch in a single transaction. Rows whose
// hh_id already exists are skipped silently (ON CONFLICT DO NOTHING), which
// makes window reprocessing after a crash idempotent even when the
// advancer's precheck raced with another writer.
func (r *VacancyRepo) InsertVacancies(ctx context.Context, vacancies []model.Vacancy) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for i := range vacancies {
		v := &vacancies[i]
		if v.ID == "" {
			v.ID = uuid.NewString()
		}

		insert := psql.Insert("vacancies").
			Columns("id", "hh_id", "area_id", "profession_id", "experience_id",
				"published_at", "name", "snippet_requirement", "snippet_responsibility",
				"employer_name", "salary_from", "salary_to", "salary_currency",
				"salary_gross", "salary_mode", "matched_by_name", "matched_by_requirement").
			Values(v.ID, v.HHID, nullIfEmpty(v.AreaID), nullIfEmpty(v.ProfessionID),
				nullIfEmpty(v.ExperienceID), v.PublishedAt, v.Name,
				v.SnippetRequirement, v.SnippetResponsibility, v.EmployerName,
				v.SalaryFrom, v.SalaryTo, v.SalaryCurrency,
				v.SalaryGross, string(v.SalaryMode), v.MatchedByName, v.MatchedByRequirement).
			Suffix("ON CONFLICT (hh_id) DO NOTHING")

		sqlStr, args, err := insert.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		tag, err := tx.Exec(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("insert vacancy hh_id=%s: %w", v.HHID, err)
		}
		if tag.RowsAffected() == 0 {
			continue // lost the race to another writer; no grade rows either
		}

		for _, gradeID := range v.GradeIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO vacancy_grades (vacancy_id, grade_id)
				 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
				v.ID, gradeID,
			); err != nil {
				return fmt.Errorf("bind grade %s: %w", gradeID, err)
			}
		}
	}

	return tx.Commit(ctx)
}

// QueryFiltered returns vacancies matching the SQL-expressible part of the
// filter (see buildVacancyQuery), ordered by publication time.
func (r *VacancyRepo) QueryFiltered(ctx context.Context, f model.VacancyFilter) ([]model.Vacancy, error) {
	sqlStr, args, err := buildVacancyQuery(f).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build filter query: %w", err)
	}

	rows, err := r.pool.Query(ctx, sqlStr, args...)
	if err != nil {
		return nil, fmt.Errorf("query vacancies: %w", err)
	}
	defer rows.Close()

	vacancies := make([]model.Vacancy, 0)
	for rows.Next() {
		var v model.Vacancy
		var mode string
		if err := rows.Scan(
			&v.ID, &v.HHID, &v.AreaID, &v.ProfessionID, &v.ExperienceID, &v.GradeIDs,
			&v.PublishedAt, &v.Name, &v.SnippetRequirement, &v.SnippetResponsibility,
			&v.EmployerName, &v.SalaryFrom, &v.SalaryTo, &v.SalaryCurrency,
			&v.SalaryGross, &mode, &v.MatchedByName, &v.MatchedByRequirement,
		); err != nil {
			return nil, fmt.Errorf("scan vacancy: %w", err)
		}
		v.SalaryMode = model.PayMode(mode)
		vacancies = append(vacancies, v)
	}

	return vacancies, rows.Err()
}

// AvailableDates returns the publication range covered by the store, or
// (now, now) when the store is empty.
func (r *VacancyRepo) AvailableDates(ctx context.Context) (from, to time.Time, err error) {
	var minAt, maxAt *time.Time
	err = r.pool.QueryRow(ctx,
		`SELECT MIN(published_at), MAX(published_at) FROM vacancies`,
	).Scan(&minAt, &maxAt)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("available dates: %w", err)
	}

	now := time.Now()
	if minAt == nil || maxAt == nil {
		return now, now, nil
	}
	return *minAt, *maxAt, nil
}

// nullIfEmpty maps an empty string to SQL NULL, for nullable reference
// columns.
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
