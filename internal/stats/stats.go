// Package stats is the salary aggregation engine: it normalizes vacancy
// salary ranges to one currency/period basis and computes summary
// statistics over filtered subsets.
package stats

import (
	"context"
	"sort"

	"eachjob/collector-service/internal/model"
)

// Salaries are normalized to net monthly RUR. Rates are a fixed static
// table; a currency missing from it gets rate 0, which turns its values
// into the "absent" sentinel and excludes them from the series.
var exchangeRates = map[string]float64{
	"USD": 90,
	"EUR": 95,
	"GBP": 110,
	"BYR": 32,
	"AZN": 61,
	"KZT": 0.2,
	"UZS": 0.0081,
	"KGS": 1.2,
	"RUR": 1,
}

const (
	// grossFactor converts a gross figure to net.
	grossFactor = 0.87
	// hoursPerMonth converts an hourly rate to a nominal full-time month.
	hoursPerMonth = 176
	// DefaultMinSalary is the floor applied when the filter carries none,
	// in normalized currency units.
	DefaultMinSalary = 10000
)

// Summary is the aggregate returned for one filter. Min/Max/Median/Q1/Q3
// are nil when no salary values matched.
type Summary struct {
	Min            *float64           `json:"min"`
	Max            *float64           `json:"max"`
	Median         *float64           `json:"median"`
	Q1             *float64           `json:"q1"`
	Q3             *float64           `json:"q3"`
	MonthlyMedians map[string]float64 `json:"monthlyMedians"`
	Count          int                `json:"nVacancies"`
}

// Normalize converts one salary figure to net monthly RUR: exchange rate,
// then the gross factor (only for gross figures; net figures pass through),
// then the hourly-to-monthly factor for HOUR-mode vacancies.
func Normalize(amount float64, currency string, gross bool, mode model.PayMode) float64 {
	v := amount * exchangeRates[currency]
	if gross {
		v *= grossFactor
	}
	if mode == model.PayModeHour {
		v *= hoursPerMonth
	}
	return v
}

// salaryValues returns the vacancy's contributing normalized values: the
// from and/or to side, independently. A nil side contributes nothing, and
// so does a side that normalizes to exactly 0 (0 is the upstream sentinel
// for "no salary on this side", not a data point).
func salaryValues(v model.Vacancy) []float64 {
	var values []float64
	for _, side := range []*float64{v.SalaryFrom, v.SalaryTo} {
		if side == nil {
			continue
		}
		n := Normalize(*side, v.SalaryCurrency, v.SalaryGross, v.SalaryMode)
		if n != 0 {
			values = append(values, n)
		}
	}
	return values
}

// clearsFloor reports whether the vacancy passes the minimum-salary filter:
// at least one present side reaches the floor. A vacancy with no present
// sides never passes and is excluded from statistics entirely.
func clearsFloor(values []float64, floor float64) bool {
	for _, v := range values {
		if v >= floor {
			return true
		}
	}
	return false
}

// Median of an ascending-sorted series: the middle value, or the average of
// the two middle values for even length. Nil for an empty series.
func Median(sorted []float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	mid := n / 2
	if n%2 != 0 {
		return &sorted[mid]
	}
	m := (sorted[mid-1] + sorted[mid]) / 2
	return &m
}

// Percentile p of an ascending-sorted series, by linear interpolation
// between order statistics at fractional rank (n-1)*p. Nil for an empty
// series.
func Percentile(sorted []float64, p float64) *float64 {
	n := len(sorted)
	if n == 0 {
		return nil
	}
	pos := float64(n-1) * p
	base := int(pos)
	rest := pos - float64(base)
	if rest == 0 {
		return &sorted[base]
	}
	v := sorted[base] + rest*(sorted[base+1]-sorted[base])
	return &v
}

// VacancyQuerier is the slice of the store the engine needs.
type VacancyQuerier interface {
	QueryFiltered(ctx context.Context, f model.VacancyFilter) ([]model.Vacancy, error)
}

// Engine computes salary summaries. It holds no mutable state and is safe
// for concurrent use alongside an in-progress ingestion sweep.
type Engine struct {
	vacancies VacancyQuerier
}

// NewEngine constructs an Engine.
func NewEngine(vacancies VacancyQuerier) *Engine {
	return &Engine{vacancies: vacancies}
}

// Aggregate retrieves the vacancies matching the filter, applies the
// minimum-salary floor to their normalized ranges, and summarizes the
// resulting value series. Count is the number of matched vacancies, not the
// number of series values (one vacancy contributes up to two).
func (e *Engine) Aggregate(ctx context.Context, f model.VacancyFilter) (*Summary, error) {
	if f.MinSalary <= 0 {
		f.MinSalary = DefaultMinSalary
	}
	f.Limit = 0 // statistics always cover the full matched set
	f.Offset = 0

	candidates, err := e.vacancies.QueryFiltered(ctx, f)
	if err != nil {
		return nil, err
	}

	var series []float64
	monthly := make(map[string][]float64)
	count := 0

	for _, v := range candidates {
		values := salaryValues(v)
		if !clearsFloor(values, f.MinSalary) {
			continue
		}
		count++
		series = append(series, values...)

		month := v.PublishedAt.UTC().Format("2006-01")
		monthly[month] = append(monthly[month], values...)
	}

	sort.Float64s(series)

	summary := &Summary{
		Median:         Median(series),
		Q1:             Percentile(series, 0.25),
		Q3:             Percentile(series, 0.75),
		MonthlyMedians: make(map[string]float64, len(monthly)),
		Count:          count,
	}
	if len(series) > 0 {
		summary.Min = &series[0]
		summary.Max = &series[len(series)-1]
	}

	for month, values := range monthly {
		sort.Float64s(values)
		if m := Median(values); m != nil {
			summary.MonthlyMedians[month] = *m
		} else {
			summary.MonthlyMedians[month] = 0
		}
	}

	return summary, nil
}
