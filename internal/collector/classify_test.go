package collector

import (
	"testing"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// ─── Keyword matching ────────────────────────────────────────────────────────

func TestMatchesAnyKeyword(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     bool
	}{
		{"exact", "golang developer", []string{"golang"}, true},
		{"keyword uppercase", "golang developer", []string{"GOLANG"}, true},
		{"text uppercase", "Senior GOLANG Developer", []string{"golang"}, true},
		{"cyrillic text no match", "разработчик багетов", []string{"го разработчик"}, false},
		{"no match", "java developer", []string{"golang", "go developer"}, false},
		{"second keyword matches", "go developer wanted", []string{"rust", "go developer"}, true},
		{"empty text", "", []string{"golang"}, false},
		{"empty keyword ignored", "golang", []string{""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesAnyKeyword(tt.text, tt.keywords); got != tt.want {
				t.Errorf("matchesAnyKeyword(%q, %v) = %v, want %v", tt.text, tt.keywords, got, tt.want)
			}
		})
	}
}

func TestBuildQuery(t *testing.T) {
	if got := buildQuery([]string{"golang", "go developer"}); got != "golang OR go developer" {
		t.Errorf("buildQuery = %q", got)
	}
	if got := buildQuery(nil); got != "" {
		t.Errorf("buildQuery(nil) = %q, want empty", got)
	}
}

// ─── Classification ──────────────────────────────────────────────────────────

func TestClassify(t *testing.T) {
	prof := &model.Profession{ID: "prof-1", Synonyms: []string{"golang"}}
	grades := []model.Grade{
		{ID: "g-junior", MatchKeyword: "junior"},
		{ID: "g-senior", MatchKeyword: "senior"},
	}
	experiences := []model.Experience{
		{ID: "e-1", HHID: "between1And3"},
		{ID: "e-2", HHID: "between3And6"},
	}

	v := model.Vacancy{
		Name:                  "Senior Golang Developer",
		SnippetRequirement:    "3+ years with Go, junior mentoring a plus",
		SnippetResponsibility: "Build services",
	}
	raw := hh.Vacancy{Experience: &hh.Experience{ID: "between3And6"}}

	classify(&v, raw, prof, grades, experiences)

	if !v.MatchedByName {
		t.Error("MatchedByName = false, want true")
	}
	if v.MatchedByRequirement {
		t.Error("MatchedByRequirement = true, want false (synonym only in title)")
	}
	if len(v.GradeIDs) != 2 {
		t.Fatalf("GradeIDs = %v, want both junior and senior", v.GradeIDs)
	}
	if v.ExperienceID != "e-2" {
		t.Errorf("ExperienceID = %q, want e-2", v.ExperienceID)
	}
}

func TestClassify_UnknownExperience(t *testing.T) {
	prof := &model.Profession{Synonyms: []string{"golang"}}
	v := model.Vacancy{Name: "Golang dev"}
	raw := hh.Vacancy{Experience: &hh.Experience{ID: "moreThan6"}}

	classify(&v, raw, prof, nil, []model.Experience{{ID: "e-1", HHID: "between1And3"}})

	if v.ExperienceID != "" {
		t.Errorf("ExperienceID = %q, want empty for unmapped hh id", v.ExperienceID)
	}
}

// ─── Parsing ─────────────────────────────────────────────────────────────────

func TestParseVacancy(t *testing.T) {
	raw := hh.Vacancy{
		ID:          "12345",
		Name:        "Go developer",
		PublishedAt: "2024-03-10T10:00:00+0300",
		Area:        &hh.Area{ID: "1"},
		Snippet:     &hh.Snippet{Requirement: "Go", Responsibility: "Ship"},
		Employer:    &hh.Employer{Name: "Acme"},
		Salary: &hh.Salary{
			From:     floatPtr(100000),
			Currency: "RUR",
			Gross:    true,
			Mode:     &hh.SalaryMode{ID: "HOUR"},
		},
	}

	v, err := parseVacancy(raw)
	if err != nil {
		t.Fatalf("parseVacancy: %v", err)
	}
	if v.HHID != "12345" || v.Name != "Go developer" {
		t.Errorf("identity fields = %q/%q", v.HHID, v.Name)
	}
	if v.PublishedAt.UTC().Hour() != 7 {
		t.Errorf("PublishedAt = %v, want 07:00 UTC", v.PublishedAt.UTC())
	}
	if v.AreaID != "1" || v.EmployerName != "Acme" {
		t.Errorf("area/employer = %q/%q", v.AreaID, v.EmployerName)
	}
	if v.SalaryFrom == nil || *v.SalaryFrom != 100000 || !v.SalaryGross {
		t.Errorf("salary fields = %+v", v)
	}
	if v.SalaryMode != model.PayModeHour {
		t.Errorf("SalaryMode = %q, want HOUR", v.SalaryMode)
	}
}

func TestParseVacancy_Defaults(t *testing.T) {
	v, err := parseVacancy(hh.Vacancy{ID: "1", Name: "x", PublishedAt: "2024-03-10T10:00:00Z"})
	if err != nil {
		t.Fatalf("parseVacancy: %v", err)
	}
	if v.SalaryMode != model.PayModeMonth {
		t.Errorf("SalaryMode = %q, want MONTH default", v.SalaryMode)
	}
	if v.SalaryFrom != nil || v.SalaryTo != nil {
		t.Error("salary bounds should stay nil without a salary block")
	}
}

func TestParseVacancy_FieldErrors(t *testing.T) {
	_, err := parseVacancy(hh.Vacancy{PublishedAt: "garbage"})
	fe, ok := err.(FieldErrors)
	if !ok {
		t.Fatalf("error type = %T, want FieldErrors", err)
	}
	if len(fe) != 3 {
		t.Errorf("field errors = %v, want id, name and timestamp violations", fe)
	}
}

func floatPtr(f float64) *float64 { return &f }
