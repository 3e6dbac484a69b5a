// Package model defines shared data structures for the collector service.
package model

import "time"

// PayMode mirrors the salary_mode enum on the vacancies table.
// MONTH is a monthly figure, HOUR an hourly rate that statistics convert
// to a monthly basis.
type PayMode string

const (
	PayModeMonth PayMode = "MONTH"
	PayModeHour  PayMode = "HOUR"
)

// SearchFields restricts statistics to vacancies whose profession keywords
// matched particular fields during ingestion.
type SearchFields string

const (
	// SearchOnlyTitle keeps only vacancies matched by title.
	SearchOnlyTitle SearchFields = "onlyTitle"
	// SearchTitleAndRequirements keeps vacancies matched by title or by the
	// requirement snippet.
	SearchTitleAndRequirements SearchFields = "titleAndRequirements"
	// SearchTitleAndDescription applies no match restriction (default).
	SearchTitleAndDescription SearchFields = "titleAndDescription"
)

// Profession is a tracked profession: its synonyms feed both the search
// query and the title/requirement matching, and LastCheckedDate is the
// ingestion cursor (end of the last fully processed day window). The cursor
// is nil until seeded and is advanced only by the collector.
type Profession struct {
	ID              string
	Title           string
	Synonyms        []string
	LastCheckedDate *time.Time
}

// Grade is a seniority label ("junior", "senior", …) attached to vacancies
// whose text contains MatchKeyword. Many-to-many with vacancies.
type Grade struct {
	ID           string
	Title        string
	MatchKeyword string
}

// Area is a location in the HH area tree. ParentPath holds the ordered ids
// of all ancestors (root first), so "in subtree of X" is a containment
// check instead of a recursive query.
type Area struct {
	ID         string
	Title      string
	ParentID   string // empty for root areas
	ParentPath []string
}

// Experience is a static HH experience bracket ("between1And3", …).
type Experience struct {
	ID    string
	HHID  string
	Title string
}

// Vacancy is one ingested vacancy. Rows are written once by the collector
// and never mutated; HHID is the natural key that backs dedup.
type Vacancy struct {
	ID                    string
	HHID                  string
	AreaID                string // empty when the API omitted the area
	ProfessionID          string
	ExperienceID          string
	GradeIDs              []string
	PublishedAt           time.Time
	Name                  string
	SnippetRequirement    string
	SnippetResponsibility string
	EmployerName          string
	SalaryFrom            *float64
	SalaryTo              *float64
	SalaryCurrency        string
	SalaryGross           bool
	SalaryMode            PayMode
	MatchedByName         bool
	MatchedByRequirement  bool
}

// VacancyFilter is the typed filter specification for vacancy queries and
// statistics. All fields are optional and combine with AND semantics.
// MinSalary is in normalized currency units and is applied by the
// statistics engine, not by the store (see the stats package).
type VacancyFilter struct {
	AreaID        string // matches the area itself or any descendant
	ProfessionID  string
	ExperienceID  string
	GradeID       string
	From          *time.Time // published_at >= From
	To            *time.Time // published_at <= To
	SearchFields  SearchFields
	IncludeHourly bool
	MinSalary     float64

	// Pagination, used by the vacancy listing only.
	Limit  int
	Offset int
}
