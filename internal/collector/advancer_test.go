package collector

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeSearcher struct {
	pages     [][]hh.Vacancy
	err       error
	calls     int
	lastQuery string
	lastFrom  time.Time
	lastTo    time.Time
}

func (f *fakeSearcher) SearchPage(_ context.Context, query string, dateFrom, dateTo time.Time, page, perPage int) ([]hh.Vacancy, error) {
	f.calls++
	f.lastQuery = query
	f.lastFrom, f.lastTo = dateFrom, dateTo
	if f.err != nil {
		return nil, f.err
	}
	if page >= len(f.pages) {
		return nil, nil
	}
	return f.pages[page], nil
}

type fakeVacancyStore struct {
	byHHID    map[string]model.Vacancy
	batches   int
	insertErr error
}

func newFakeVacancyStore() *fakeVacancyStore {
	return &fakeVacancyStore{byHHID: make(map[string]model.Vacancy)}
}

func (f *fakeVacancyStore) ExistsByHHID(_ context.Context, hhID string) (bool, error) {
	_, ok := f.byHHID[hhID]
	return ok, nil
}

func (f *fakeVacancyStore) InsertVacancies(_ context.Context, vacancies []model.Vacancy) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.batches++
	for _, v := range vacancies {
		f.byHHID[v.HHID] = v
	}
	return nil
}

type fakeCursorStore struct {
	cursors map[string]time.Time
	err     error
}

func newFakeCursorStore() *fakeCursorStore {
	return &fakeCursorStore{cursors: make(map[string]time.Time)}
}

func (f *fakeCursorStore) UpdateProfessionCursor(_ context.Context, professionID string, cursor time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.cursors[professionID] = cursor
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// fixedNow is "today" in all advancer tests: windows ending at or before
// 2024-03-15 12:00 UTC are processable.
var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func testAdvancer(search Searcher, vacancies VacancyStore, cursors CursorStore) *Advancer {
	a := NewAdvancer(search, vacancies, cursors)
	a.now = func() time.Time { return fixedNow }
	return a
}

func testProfession(cursor time.Time) *model.Profession {
	c := cursor
	return &model.Profession{
		ID:              "prof-1",
		Title:           "Go developer",
		Synonyms:        []string{"golang", "go developer"},
		LastCheckedDate: &c,
	}
}

func rawVacancy(id, name string) hh.Vacancy {
	return hh.Vacancy{
		ID:          id,
		Name:        name,
		PublishedAt: "2024-03-10T10:00:00+0300",
	}
}

func fullPage(prefix string) []hh.Vacancy {
	page := make([]hh.Vacancy, hh.PageSize)
	for i := range page {
		page[i] = rawVacancy(fmt.Sprintf("%s-%d", prefix, i), "Golang engineer")
	}
	return page
}

// ─── Configuration and up-to-date cases ──────────────────────────────────────

func TestAdvance_MissingCursorIsConfigurationError(t *testing.T) {
	adv := testAdvancer(&fakeSearcher{}, newFakeVacancyStore(), newFakeCursorStore())
	prof := &model.Profession{ID: "prof-1", Title: "Go developer"}

	_, err := adv.Advance(context.Background(), prof, nil, nil)
	if !errors.Is(err, ErrNoCursor) {
		t.Fatalf("Advance with nil cursor: got %v, want ErrNoCursor", err)
	}
}

func TestAdvance_UpToDate(t *testing.T) {
	search := &fakeSearcher{}
	adv := testAdvancer(search, newFakeVacancyStore(), newFakeCursorStore())

	// Cursor already at today: the next window ends tomorrow.
	cursor := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	prof := testProfession(cursor)

	_, err := adv.Advance(context.Background(), prof, nil, nil)
	if !errors.Is(err, ErrUpToDate) {
		t.Fatalf("Advance: got %v, want ErrUpToDate", err)
	}
	if search.calls != 0 {
		t.Errorf("up-to-date advance issued %d search calls, want 0", search.calls)
	}
	if !prof.LastCheckedDate.Equal(cursor) {
		t.Errorf("up-to-date advance moved the cursor to %v", prof.LastCheckedDate)
	}
}

// ─── Window processing ───────────────────────────────────────────────────────

func TestAdvance_PaginationTermination(t *testing.T) {
	// A full page followed by a short page: exactly 2 fetches.
	search := &fakeSearcher{pages: [][]hh.Vacancy{fullPage("a"), fullPage("b")[:hh.PageSize-1]}}
	vacs := newFakeVacancyStore()
	cursors := newFakeCursorStore()
	adv := testAdvancer(search, vacs, cursors)

	prof := testProfession(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	added, err := adv.Advance(context.Background(), prof, nil, nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if search.calls != 2 {
		t.Errorf("search calls = %d, want 2", search.calls)
	}
	if want := 2*hh.PageSize - 1; added != want {
		t.Errorf("added = %d, want %d", added, want)
	}
	if vacs.batches != 2 {
		t.Errorf("insert batches = %d, want one per page (2)", vacs.batches)
	}
}

func TestAdvance_WindowAndCursor(t *testing.T) {
	search := &fakeSearcher{pages: [][]hh.Vacancy{{rawVacancy("v1", "Golang dev")}}}
	cursors := newFakeCursorStore()
	adv := testAdvancer(search, newFakeVacancyStore(), cursors)

	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	prof := testProfession(start)

	if _, err := adv.Advance(context.Background(), prof, nil, nil); err != nil {
		t.Fatalf("Advance: %v", err)
	}

	wantEnd := start.AddDate(0, 0, 1)
	if !search.lastFrom.Equal(start) || !search.lastTo.Equal(wantEnd) {
		t.Errorf("window = [%v, %v], want [%v, %v]", search.lastFrom, search.lastTo, start, wantEnd)
	}
	if got := cursors.cursors["prof-1"]; !got.Equal(wantEnd) {
		t.Errorf("persisted cursor = %v, want %v", got, wantEnd)
	}
	if !prof.LastCheckedDate.Equal(wantEnd) {
		t.Errorf("in-memory cursor = %v, want %v", prof.LastCheckedDate, wantEnd)
	}
	if search.lastQuery != "golang OR go developer" {
		t.Errorf("query = %q", search.lastQuery)
	}
}

func TestAdvance_CursorMonotonic(t *testing.T) {
	search := &fakeSearcher{pages: [][]hh.Vacancy{}}
	adv := testAdvancer(search, newFakeVacancyStore(), newFakeCursorStore())

	prof := testProfession(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC))

	prev := *prof.LastCheckedDate
	for i := 0; i < 10; i++ {
		_, err := adv.Advance(context.Background(), prof, nil, nil)
		if errors.Is(err, ErrUpToDate) {
			break
		}
		if err != nil {
			t.Fatalf("Advance #%d: %v", i, err)
		}
		if want := prev.AddDate(0, 0, 1); !prof.LastCheckedDate.Equal(want) {
			t.Fatalf("cursor after advance #%d = %v, want %v", i, prof.LastCheckedDate, want)
		}
		prev = *prof.LastCheckedDate
	}
	// 2024-03-10 → 2024-03-15 is 5 processable windows.
	if want := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC); !prof.LastCheckedDate.Equal(want) {
		t.Errorf("final cursor = %v, want %v", prof.LastCheckedDate, want)
	}
}

// ─── Dedup and validation ────────────────────────────────────────────────────

func TestAdvance_IdempotentReingestion(t *testing.T) {
	pages := [][]hh.Vacancy{{rawVacancy("v1", "Go dev"), rawVacancy("v2", "Go dev")}}
	vacs := newFakeVacancyStore()
	cursors := newFakeCursorStore()
	adv := testAdvancer(&fakeSearcher{pages: pages}, vacs, cursors)

	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	added, err := adv.Advance(context.Background(), testProfession(start), nil, nil)
	if err != nil {
		t.Fatalf("first Advance: %v", err)
	}
	if added != 2 {
		t.Fatalf("first run added = %d, want 2", added)
	}

	// Same window again with the old cursor, simulating a crash before the
	// cursor commit and a retry after restart.
	added, err = adv.Advance(context.Background(), testProfession(start), nil, nil)
	if err != nil {
		t.Fatalf("second Advance: %v", err)
	}
	if added != 0 {
		t.Errorf("second run added = %d, want 0", added)
	}
	if len(vacs.byHHID) != 2 {
		t.Errorf("store holds %d vacancies after rerun, want 2", len(vacs.byHHID))
	}
}

func TestAdvance_SkipsInvalidRecords(t *testing.T) {
	pages := [][]hh.Vacancy{{
		rawVacancy("v1", "Go dev"),
		{ID: "v2", Name: "", PublishedAt: "2024-03-10T10:00:00+0300"}, // no title
		{ID: "v3", Name: "Go dev", PublishedAt: "not-a-date"},
		rawVacancy("", "Go dev"), // no external id
		rawVacancy("v4", "Go dev"),
	}}
	adv := testAdvancer(&fakeSearcher{pages: pages}, newFakeVacancyStore(), newFakeCursorStore())

	added, err := adv.Advance(context.Background(), testProfession(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)), nil, nil)
	if err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if added != 2 {
		t.Errorf("added = %d, want 2 (invalid records skipped)", added)
	}
}

// ─── Failure paths ───────────────────────────────────────────────────────────

func TestAdvance_TransportErrorLeavesCursor(t *testing.T) {
	search := &fakeSearcher{err: &hh.TransportError{Status: 502, Err: errors.New("bad gateway")}}
	cursors := newFakeCursorStore()
	adv := testAdvancer(search, newFakeVacancyStore(), cursors)

	start := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	prof := testProfession(start)

	_, err := adv.Advance(context.Background(), prof, nil, nil)
	var te *hh.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("Advance: got %v, want a TransportError", err)
	}
	if len(cursors.cursors) != 0 {
		t.Error("cursor was persisted despite a failed window")
	}
	if !prof.LastCheckedDate.Equal(start) {
		t.Errorf("in-memory cursor moved to %v", prof.LastCheckedDate)
	}
}

func TestAdvance_StoreErrorLeavesCursor(t *testing.T) {
	vacs := newFakeVacancyStore()
	vacs.insertErr = errors.New("connection reset")
	cursors := newFakeCursorStore()
	adv := testAdvancer(&fakeSearcher{pages: [][]hh.Vacancy{{rawVacancy("v1", "Go dev")}}}, vacs, cursors)

	_, err := adv.Advance(context.Background(), testProfession(time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)), nil, nil)
	if err == nil {
		t.Fatal("Advance succeeded despite insert failure")
	}
	if len(cursors.cursors) != 0 {
		t.Error("cursor was persisted despite a failed insert")
	}
}
