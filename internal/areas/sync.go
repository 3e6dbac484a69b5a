// Package areas keeps the location reference tree in sync with the HH
// /areas endpoint. The tree changes rarely, so it is refreshed nightly and
// once at startup; the rest of the system treats it as static reference
// data.
package areas

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"eachjob/collector-service/internal/hh"
	"eachjob/collector-service/internal/model"
)

// Fetcher is the slice of the hh client the syncer needs.
type Fetcher interface {
	Areas(ctx context.Context) ([]hh.AreaNode, error)
}

// AreaStore persists area nodes; existing ids are left untouched.
type AreaStore interface {
	InsertArea(ctx context.Context, a model.Area) error
}

// Syncer fetches the nested area tree and stores it flattened, with each
// node carrying its materialized ancestor path.
type Syncer struct {
	fetch Fetcher
	store AreaStore
}

// NewSyncer constructs a Syncer.
func NewSyncer(fetch Fetcher, store AreaStore) *Syncer {
	return &Syncer{fetch: fetch, store: store}
}

// Flatten walks the nested tree with an explicit stack and returns one row
// per node. A node's ParentPath is the ordered ids of its ancestors, root
// first, so subtree filters reduce to path containment.
func Flatten(roots []hh.AreaNode) []model.Area {
	type frame struct {
		node hh.AreaNode
		path []string
	}

	stack := make([]frame, 0, len(roots))
	for _, root := range roots {
		stack = append(stack, frame{node: root})
	}

	var rows []model.Area
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rows = append(rows, model.Area{
			ID:         f.node.ID,
			Title:      f.node.Name,
			ParentID:   f.node.ParentID,
			ParentPath: f.path,
		})

		if len(f.node.Areas) > 0 {
			childPath := make([]string, 0, len(f.path)+1)
			childPath = append(childPath, f.path...)
			childPath = append(childPath, f.node.ID)
			for _, child := range f.node.Areas {
				stack = append(stack, frame{node: child, path: childPath})
			}
		}
	}

	return rows
}

// Sync fetches the tree and inserts every node not stored yet.
func (s *Syncer) Sync(ctx context.Context) error {
	roots, err := s.fetch.Areas(ctx)
	if err != nil {
		return fmt.Errorf("fetch areas: %w", err)
	}

	rows := Flatten(roots)
	for _, a := range rows {
		if err := s.store.InsertArea(ctx, a); err != nil {
			return err
		}
	}

	log.Printf("[areas] tree synced, %d nodes", len(rows))
	return nil
}

// Schedule registers the nightly 02:00 refresh on c and kicks off one
// immediate sync in the background. Sync failures are logged and retried on
// the next tick, never fatal.
func (s *Syncer) Schedule(ctx context.Context, c *cron.Cron) error {
	run := func() {
		if err := s.Sync(ctx); err != nil {
			log.Printf("[areas] sync failed: %v", err)
		}
	}

	if _, err := c.AddFunc("0 2 * * *", run); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	go run()
	return nil
}
