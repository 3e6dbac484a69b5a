package collector

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// ErrUpToDate signals that the profession's next day window has not fully
// elapsed yet, so there is nothing to fetch.
var ErrUpToDate = errors.New("profession is up to date")

// ErrNoCursor signals a profession without a seeded last_checked_date.
// The advancer refuses to guess a start date.
var ErrNoCursor = errors.New("profession has no last_checked_date cursor")

// Searcher is the slice of the hh client the advancer needs.
type Searcher interface {
	SearchPage(ctx context.Context, query string, dateFrom, dateTo time.Time, page, perPage int) ([]hh.Vacancy, error)
}

// VacancyStore is the vacancy persistence the advancer needs: dedup lookup
// by natural key and batch insert.
type VacancyStore interface {
	ExistsByHHID(ctx context.Context, hhID string) (bool, error)
	InsertVacancies(ctx context.Context, vacancies []model.Vacancy) error
}

// CursorStore persists the profession cursor after a successful window.
type CursorStore interface {
	UpdateProfessionCursor(ctx context.Context, professionID string, cursor time.Time) error
}

// Advancer processes one day window for one profession per Advance call.
type Advancer struct {
	search    Searcher
	vacancies VacancyStore
	cursors   CursorStore

	now func() time.Time // injectable for tests
}

// NewAdvancer constructs an Advancer.
func NewAdvancer(search Searcher, vacancies VacancyStore, cursors CursorStore) *Advancer {
	return &Advancer{
		search:    search,
		vacancies: vacancies,
		cursors:   cursors,
		now:       time.Now,
	}
}

// atNoon pins t to 12:00 UTC of its calendar day. All window boundaries and
// the "today" comparison use the same reference hour, so DST and timezone
// drift cannot produce overlapping or skipped windows.
func atNoon(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, time.UTC)
}

// Advance fetches, dedups, classifies and persists all vacancies of the
// profession's next day window, then moves the cursor to the window end.
//
// Returns ErrNoCursor for an unseeded profession and ErrUpToDate when the
// window has not elapsed yet. Any other error leaves the cursor untouched;
// re-running the same window later is safe because every candidate is
// checked against the store by hh_id first.
func (a *Advancer) Advance(ctx context.Context, prof *model.Profession, grades []model.Grade, experiences []model.Experience) (added int, err error) {
	if prof.LastCheckedDate == nil {
		return 0, fmt.Errorf("profession %q: %w", prof.Title, ErrNoCursor)
	}

	windowStart := atNoon(*prof.LastCheckedDate)
	windowEnd := windowStart.AddDate(0, 0, 1)
	today := atNoon(a.now())

	if windowEnd.After(today) {
		return 0, ErrUpToDate
	}

	if len(prof.Synonyms) == 0 {
		log.Printf("[collector] profession %q has no synonyms; querying with empty text", prof.Title)
	}
	query := buildQuery(prof.Synonyms)

	// Page through the window. Each page is saved as its own batch so a
	// crash loses at most one page of work, and the trailing short page
	// (possibly empty) terminates pagination.
	for page := 0; ; page++ {
		items, err := a.search.SearchPage(ctx, query, windowStart, windowEnd, page, hh.PageSize)
		if err != nil {
			return added, fmt.Errorf("profession %q page %d: %w", prof.Title, page, err)
		}

		batch := make([]model.Vacancy, 0, len(items))
		for _, raw := range items {
			v, err := parseVacancy(raw)
			if err != nil {
				log.Printf("[collector] skipping vacancy %q: %v", raw.ID, err)
				continue
			}

			exists, err := a.vacancies.ExistsByHHID(ctx, v.HHID)
			if err != nil {
				return added, fmt.Errorf("dedup check hh_id=%s: %w", v.HHID, err)
			}
			if exists {
				continue
			}

			v.ProfessionID = prof.ID
			classify(&v, raw, prof, grades, experiences)
			batch = append(batch, v)
		}

		if len(batch) > 0 {
			if err := a.vacancies.InsertVacancies(ctx, batch); err != nil {
				return added, fmt.Errorf("insert batch of %d: %w", len(batch), err)
			}
			added += len(batch)
		}

		if len(items) < hh.PageSize {
			break
		}
	}

	// The cursor moves only after every page of the window is durably
	// saved. A crash before this point re-fetches the window on restart.
	if err := a.cursors.UpdateProfessionCursor(ctx, prof.ID, windowEnd); err != nil {
		return added, fmt.Errorf("advance cursor for %q: %w", prof.Title, err)
	}
	cursor := windowEnd
	prof.LastCheckedDate = &cursor

	return added, nil
}
