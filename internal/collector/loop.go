package collector

import (
	"context"
	"errors"
	"log"
	"time"

	"eachjob/collector-service/internal/model"
)

// Outcome classifies one sweep over all professions. Higher values win when
// aggregating per-profession results.
type Outcome int

const (
	// OutcomeUpToDate means every profession's next window is still in the
	// future; nothing can change until the next calendar day.
	OutcomeUpToDate Outcome = iota
	// OutcomeAdvanced means at least one profession processed a window this
	// sweep. A behind profession likely has more backlog, so the next sweep
	// follows almost immediately.
	OutcomeAdvanced
	// OutcomeError means at least one profession failed with a transport or
	// store error, or nothing succeeded at all.
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeAdvanced:
		return "advanced"
	default:
		return "error"
	}
}

// Backoff delays per sweep outcome.
const (
	advancedDelay     = 5 * time.Second
	errorPenaltyDelay = 30 * time.Minute
	upToDateDelay     = 24 * time.Hour
)

// NextDelay returns how long the loop sleeps after a sweep with the given
// outcome.
func NextDelay(o Outcome) time.Duration {
	switch o {
	case OutcomeAdvanced:
		return advancedDelay
	case OutcomeUpToDate:
		return upToDateDelay
	default:
		return errorPenaltyDelay
	}
}

// CatalogReader loads the reference data a sweep needs.
type CatalogReader interface {
	ListProfessions(ctx context.Context) ([]model.Profession, error)
	ListGrades(ctx context.Context) ([]model.Grade, error)
	ListExperiences(ctx context.Context) ([]model.Experience, error)
}

// Loop drives the advancer across all professions, one at a time, forever.
// Sweeps never overlap: the next one is scheduled only after the previous
// one finished and its backoff delay elapsed.
type Loop struct {
	advancer *Advancer
	catalog  CatalogReader
}

// NewLoop constructs a Loop.
func NewLoop(advancer *Advancer, catalog CatalogReader) *Loop {
	return &Loop{advancer: advancer, catalog: catalog}
}

// Run sweeps until ctx is cancelled. An in-flight sweep always finishes;
// cancellation only stops the next one from being scheduled, so cursor
// commits are never interrupted mid-window by shutdown.
func (l *Loop) Run(ctx context.Context) {
	for {
		outcome := l.Sweep(ctx)
		delay := NextDelay(outcome)
		log.Printf("[collector] sweep done: %s, next sweep in %s", outcome, delay)

		select {
		case <-ctx.Done():
			log.Println("[collector] loop stopped")
			return
		case <-time.After(delay):
		}
	}
}

// Sweep advances every profession once, sequentially. A single profession's
// failure does not stop the sweep; the aggregate outcome is the worst case
// across professions, except that a configuration error (missing cursor)
// only forces the penalty delay when no profession made progress.
func (l *Loop) Sweep(ctx context.Context) Outcome {
	professions, err := l.catalog.ListProfessions(ctx)
	if err != nil {
		log.Printf("[collector] load professions: %v", err)
		return OutcomeError
	}
	if len(professions) == 0 {
		log.Println("[collector] no professions configured")
		return OutcomeError
	}

	grades, err := l.catalog.ListGrades(ctx)
	if err != nil {
		log.Printf("[collector] load grades: %v", err)
		return OutcomeError
	}
	experiences, err := l.catalog.ListExperiences(ctx)
	if err != nil {
		log.Printf("[collector] load experiences: %v", err)
		return OutcomeError
	}

	var advanced, failed, misconfigured int
	for i := range professions {
		prof := &professions[i]

		added, err := l.advancer.Advance(ctx, prof, grades, experiences)
		switch {
		case err == nil:
			advanced++
			log.Printf("[collector] %q: window done, added=%d, cursor=%s",
				prof.Title, added, prof.LastCheckedDate.Format("2006-01-02"))
		case errors.Is(err, ErrUpToDate):
			// nothing to do for this profession today
		case errors.Is(err, ErrNoCursor):
			misconfigured++
			log.Printf("[collector] %v", err)
		default:
			failed++
			log.Printf("[collector] %q: %v", prof.Title, err)
		}
	}

	switch {
	case failed > 0:
		return OutcomeError
	case advanced > 0:
		return OutcomeAdvanced
	case misconfigured > 0:
		return OutcomeError
	default:
		return OutcomeUpToDate
	}
}
