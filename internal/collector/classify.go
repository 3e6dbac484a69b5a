// Package collector implements the incremental vacancy ingestion pipeline:
// per-profession day-window cursor advancement, pagination, dedup,
// classification and the backoff-driven polling loop.
package collector

import (
	"strings"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// matchesAnyKeyword returns true if any keyword appears as a substring of
// text. Both sides are lowercased first; matching is case-insensitive
// everywhere in the pipeline.
func matchesAnyKeyword(text string, keywords []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// buildQuery joins profession synonyms into the OR query sent to the search
// API. An empty synonym list yields an empty query, which the API treats as
// "everything"; the advancer logs a warning for that case but proceeds.
func buildQuery(synonyms []string) string {
	return strings.Join(synonyms, " OR ")
}

// classify annotates a parsed vacancy: profession keyword matches on title
// and requirement, grade labels by substring over the combined text, and
// the experience reference by exact hh id equality.
func classify(v *model.Vacancy, raw hh.Vacancy, prof *model.Profession, grades []model.Grade, experiences []model.Experience) {
	v.MatchedByName = matchesAnyKeyword(v.Name, prof.Synonyms)
	v.MatchedByRequirement = matchesAnyKeyword(v.SnippetRequirement, prof.Synonyms)

	combined := v.Name + " " + v.SnippetRequirement + " " + v.SnippetResponsibility
	for _, g := range grades {
		if matchesAnyKeyword(combined, []string{g.MatchKeyword}) {
			v.GradeIDs = append(v.GradeIDs, g.ID)
		}
	}

	if raw.Experience != nil && raw.Experience.ID != "" {
		for _, e := range experiences {
			if e.HHID == raw.Experience.ID {
				v.ExperienceID = e.ID
				break
			}
		}
	}
}
