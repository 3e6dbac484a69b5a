package webapi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"eachjob/collector-service/internal/model"
)

// dateLayouts accepted for the from/to query parameters.
var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// parseBoolean treats "true", "1", "yes" and "y" (any case) as true and
// everything else, including absence, as false.
func parseBoolean(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}

// parseSearchFields validates the searchFields parameter; absence means the
// default (no match restriction).
func parseSearchFields(s string) (model.SearchFields, error) {
	switch model.SearchFields(s) {
	case "":
		return model.SearchTitleAndDescription, nil
	case model.SearchOnlyTitle, model.SearchTitleAndRequirements, model.SearchTitleAndDescription:
		return model.SearchFields(s), nil
	}
	return "", fmt.Errorf("invalid searchFields value %q, must be one of: %s, %s, %s",
		s, model.SearchOnlyTitle, model.SearchTitleAndRequirements, model.SearchTitleAndDescription)
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// parseFilter builds a VacancyFilter from query parameters. All validation
// happens here, before any store access; a returned error maps to a 400.
func parseFilter(q url.Values) (model.VacancyFilter, error) {
	f := model.VacancyFilter{
		AreaID:        q.Get("areaId"),
		ProfessionID:  q.Get("professionId"),
		ExperienceID:  q.Get("experienceId"),
		GradeID:       q.Get("gradeId"),
		IncludeHourly: parseBoolean(q.Get("includeHourly")),
	}

	fields, err := parseSearchFields(q.Get("searchFields"))
	if err != nil {
		return model.VacancyFilter{}, err
	}
	f.SearchFields = fields

	if s := q.Get("from"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return model.VacancyFilter{}, fmt.Errorf("from: %w", err)
		}
		f.From = &t
	}
	if s := q.Get("to"); s != "" {
		t, err := parseDate(s)
		if err != nil {
			return model.VacancyFilter{}, fmt.Errorf("to: %w", err)
		}
		f.To = &t
	}

	if s := q.Get("minSalary"); s != "" {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil || v < 0 {
			return model.VacancyFilter{}, fmt.Errorf("minSalary must be a non-negative number, got %q", s)
		}
		f.MinSalary = v
	}

	return f, nil
}

// parsePagination reads page/size for the vacancy listing. Defaults: page 0,
// size 100, size capped at 1000.
func parsePagination(q url.Values) (page, size int, err error) {
	page, size = 0, 100

	if s := q.Get("page"); s != "" {
		page, err = strconv.Atoi(s)
		if err != nil || page < 0 {
			return 0, 0, fmt.Errorf("page must be a non-negative integer, got %q", s)
		}
	}
	if s := q.Get("size"); s != "" {
		size, err = strconv.Atoi(s)
		if err != nil || size < 1 || size > 1000 {
			return 0, 0, fmt.Errorf("size must be between 1 and 1000, got %q", s)
		}
	}
	return page, size, nil
}
