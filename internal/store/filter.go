// Package store implements the Postgres repositories: catalog reference
// data and the vacancies table with its typed filter translation.
//
// Filters are never assembled by string concatenation: each semantic
// predicate of model.VacancyFilter is a named function returning a
// squirrel.Sqlizer, composed into one SELECT by buildVacancyQuery.
package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"eachjob/collector-service/internal/model"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// vacancyColumns is the scan order used by QueryFiltered.
var vacancyColumns = []string{
	"v.id",
	"v.hh_id",
	"COALESCE(v.area_id, '')",
	"COALESCE(v.profession_id::text, '')",
	"COALESCE(v.experience_id::text, '')",
	"ARRAY(SELECT vg.grade_id::text FROM vacancy_grades vg WHERE vg.vacancy_id = v.id)",
	"v.published_at",
	"v.name",
	"v.snippet_requirement",
	"v.snippet_responsibility",
	"v.employer_name",
	"v.salary_from",
	"v.salary_to",
	"v.salary_currency",
	"v.salary_gross",
	"v.salary_mode",
	"v.matched_by_name",
	"v.matched_by_requirement",
}

// areaSubtree matches vacancies located in the area itself or anywhere in
// its subtree: the filter id either equals the vacancy's area or appears in
// that area's materialized ancestor path.
func areaSubtree(areaID string) sq.Sqlizer {
	return sq.Expr("(v.area_id = ? OR ? = ANY(a.parent_path))", areaID, areaID)
}

// gradeMembership matches vacancies tagged with the grade.
func gradeMembership(gradeID string) sq.Sqlizer {
	return sq.Expr(
		"EXISTS (SELECT 1 FROM vacancy_grades vg WHERE vg.vacancy_id = v.id AND vg.grade_id = ?)",
		gradeID,
	)
}

// publishedBetween matches the inclusive [from, to] publication range.
// Either side may be nil.
func publishedBetween(from, to *time.Time) sq.Sqlizer {
	var and sq.And
	if from != nil {
		and = append(and, sq.GtOrEq{"v.published_at": *from})
	}
	if to != nil {
		and = append(and, sq.LtOrEq{"v.published_at": *to})
	}
	return and
}

// matchScope restricts to vacancies whose profession keywords matched the
// requested fields during ingestion. The default scope
// (titleAndDescription) applies no restriction and returns nil.
func matchScope(fields model.SearchFields) sq.Sqlizer {
	switch fields {
	case model.SearchOnlyTitle:
		return sq.Eq{"v.matched_by_name": true}
	case model.SearchTitleAndRequirements:
		return sq.Expr("(v.matched_by_name OR v.matched_by_requirement)")
	default:
		return nil
	}
}

// excludeHourly drops hourly-rate vacancies.
func excludeHourly() sq.Sqlizer {
	return sq.NotEq{"v.salary_mode": string(model.PayModeHour)}
}

// buildVacancyQuery translates the SQL-expressible part of the filter.
// MinSalary is intentionally absent: it is defined in normalized currency
// units and is applied by the stats engine after normalization.
func buildVacancyQuery(f model.VacancyFilter) sq.SelectBuilder {
	q := psql.Select(vacancyColumns...).
		From("vacancies v").
		LeftJoin("areas a ON a.id = v.area_id").
		OrderBy("v.published_at ASC")

	if f.AreaID != "" {
		q = q.Where(areaSubtree(f.AreaID))
	}
	if f.ProfessionID != "" {
		q = q.Where(sq.Eq{"v.profession_id": f.ProfessionID})
	}
	if f.ExperienceID != "" {
		q = q.Where(sq.Eq{"v.experience_id": f.ExperienceID})
	}
	if f.GradeID != "" {
		q = q.Where(gradeMembership(f.GradeID))
	}
	if f.From != nil || f.To != nil {
		q = q.Where(publishedBetween(f.From, f.To))
	}
	if pred := matchScope(f.SearchFields); pred != nil {
		q = q.Where(pred)
	}
	if !f.IncludeHourly {
		q = q.Where(excludeHourly())
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit)).Offset(uint64(f.Offset))
	}

	return q
}
