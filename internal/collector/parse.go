package collector

import (
	"strings"
	"time"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// hh publishes timestamps without a colon in the zone offset, so RFC3339 is
// tried first and the legacy layout second.
const hhTimeLayout = "2006-01-02T15:04:05-0700"

// FieldErrors lists the required-field violations of one raw vacancy.
// A vacancy with field errors is skipped and logged, never fatal.
type FieldErrors []string

func (e FieldErrors) Error() string {
	return "invalid vacancy: " + strings.Join(e, "; ")
}

// parseVacancy validates a raw search item and converts it to a model
// vacancy. The returned vacancy has no row ID, profession, experience or
// grades yet; those are assigned by classification and the store.
func parseVacancy(raw hh.Vacancy) (model.Vacancy, error) {
	var errs FieldErrors

	if raw.ID == "" {
		errs = append(errs, "id is empty")
	}
	if raw.Name == "" {
		errs = append(errs, "name is empty")
	}

	published, err := time.Parse(time.RFC3339, raw.PublishedAt)
	if err != nil {
		published, err = time.Parse(hhTimeLayout, raw.PublishedAt)
	}
	if err != nil {
		errs = append(errs, "published_at is not a valid timestamp")
	}

	if len(errs) > 0 {
		return model.Vacancy{}, errs
	}

	v := model.Vacancy{
		HHID:        raw.ID,
		Name:        raw.Name,
		PublishedAt: published,
		SalaryMode:  model.PayModeMonth,
	}

	if raw.Area != nil {
		v.AreaID = raw.Area.ID
	}
	if raw.Snippet != nil {
		v.SnippetRequirement = raw.Snippet.Requirement
		v.SnippetResponsibility = raw.Snippet.Responsibility
	}
	if raw.Employer != nil {
		v.EmployerName = raw.Employer.Name
	}
	if raw.Salary != nil {
		v.SalaryFrom = raw.Salary.From
		v.SalaryTo = raw.Salary.To
		v.SalaryCurrency = raw.Salary.Currency
		v.SalaryGross = raw.Salary.Gross
		if raw.Salary.Mode != nil && raw.Salary.Mode.ID == string(model.PayModeHour) {
			v.SalaryMode = model.PayModeHour
		}
	}

	return v, nil
}
