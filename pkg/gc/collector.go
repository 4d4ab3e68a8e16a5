// Package gc removes orphaned content from the embedded provider's stores.
//
// A blob is orphaned when no namespace entry references it. Orphans are left
// behind when a delete fails to release content, when a replaced file's old
// blob cannot be removed, or when the process dies between writing a blob
// and recording it.
//
// Collection is not coordinated with writers: run it while no client is
// replacing files on the same stores.
package gc

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/dfsclient/internal/logger"
	"github.com/marmos91/dfsclient/pkg/store/content"
	"github.com/marmos91/dfsclient/pkg/store/metadata"
)

const defaultConcurrency = 8

// Config tunes a collection run.
type Config struct {
	// Concurrency bounds parallel deletes (default: 8).
	Concurrency int

	// DryRun reports orphans without deleting them.
	DryRun bool
}

// Collector finds and deletes orphaned blobs.
//
// Thread Safety: Safe for concurrent use; runs do not coordinate.
type Collector struct {
	meta   metadata.Store
	blobs  content.Lister
	store  content.Store
	config Config
}

// NewCollector fails when blobs cannot enumerate its content.
func NewCollector(meta metadata.Store, blobs content.Store, config Config) (*Collector, error) {
	lister, ok := blobs.(content.Lister)
	if !ok {
		return nil, fmt.Errorf("content store %T cannot list its content", blobs)
	}
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	return &Collector{meta: meta, blobs: lister, store: blobs, config: config}, nil
}

// Collect performs one run:
//  1. walk the namespace for referenced IDs
//  2. list the content store
//  3. delete the difference
func (c *Collector) Collect(ctx context.Context) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	defer func() { stats.EndTime = time.Now() }()

	referenced, err := c.referenced(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to walk namespace: %w", err)
	}
	stats.ReferencedCount = uint64(len(referenced))

	existing, err := c.blobs.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("failed to list content: %w", err)
	}
	stats.ExistingCount = uint64(len(existing))

	var orphaned []content.ID
	for _, id := range existing {
		if _, ok := referenced[id]; !ok {
			orphaned = append(orphaned, id)
		}
	}
	stats.OrphanedCount = uint64(len(orphaned))
	stats.Orphaned = orphaned

	logger.Debug("gc scan complete",
		"referenced", stats.ReferencedCount, "existing", stats.ExistingCount, "orphaned", stats.OrphanedCount)

	if len(orphaned) == 0 || c.config.DryRun {
		return stats, nil
	}

	deleted, failed := c.delete(ctx, orphaned)
	stats.DeletedCount = deleted
	stats.FailedCount = failed

	logger.Info("gc completed", "deleted", deleted, "failed", failed, logger.KeyDuration, time.Since(stats.StartTime))
	return stats, ctx.Err()
}

// referenced collects the content IDs of every file below the root.
func (c *Collector) referenced(ctx context.Context) (map[content.ID]struct{}, error) {
	ids := make(map[content.ID]struct{})
	pending := []string{metadata.Root}

	for len(pending) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		children, err := c.meta.Children(ctx, dir)
		if err != nil {
			return nil, err
		}
		for _, e := range children {
			switch {
			case e.IsDir():
				pending = append(pending, e.Path)
			case e.ContentID != "":
				ids[e.ContentID] = struct{}{}
			}
		}
	}
	return ids, nil
}

// delete removes ids with bounded parallelism. Individual failures are
// counted and logged, not returned.
func (c *Collector) delete(ctx context.Context, ids []content.ID) (deleted, failed uint64) {
	results := make([]error, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = c.store.Delete(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range results {
		if err != nil {
			failed++
			logger.Warn("gc failed to delete content", "content_id", ids[i], logger.KeyError, err)
			continue
		}
		deleted++
	}
	return deleted, failed
}

// Stats describes one collection run.
type Stats struct {
	StartTime       time.Time    `json:"start_time" yaml:"start_time"`
	EndTime         time.Time    `json:"end_time" yaml:"end_time"`
	ReferencedCount uint64       `json:"referenced" yaml:"referenced"`
	ExistingCount   uint64       `json:"existing" yaml:"existing"`
	OrphanedCount   uint64       `json:"orphaned" yaml:"orphaned"`
	DeletedCount    uint64       `json:"deleted" yaml:"deleted"`
	FailedCount     uint64       `json:"failed" yaml:"failed"`
	Orphaned        []content.ID `json:"orphaned_ids,omitempty" yaml:"orphaned_ids,omitempty"`
}

// Duration returns the total collection duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a one-line description of the run.
func (s *Stats) Summary() string {
	return fmt.Sprintf("referenced=%d existing=%d orphaned=%d deleted=%d failed=%d duration=%s",
		s.ReferencedCount, s.ExistingCount, s.OrphanedCount,
		s.DeletedCount, s.FailedCount, s.Duration().Round(time.Millisecond))
}
