// Package summary orchestrates the classifier and impact aggregator over the
// synchronizer's current result set, producing the externally consumed scan
// summary whenever the view changes.
package summary

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/krishanraja/adfixus-sales-sub001/internal/classify"
	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/impact"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
	"github.com/krishanraja/adfixus-sales-sub001/internal/traffic"
)

const cacheWriteTimeout = 2 * time.Second

// Builder recomputes one scan's summary from scratch on every result-set
// change. Scoring is pure, so recomputing is always safe, including
// redundantly.
type Builder struct {
	slotsPerPage float64
	cache        ports.SummaryCache // optional

	current atomic.Pointer[view]
}

type view struct {
	summary domain.ScanSummary
	scan    domain.Scan
	results []domain.DomainRecord
}

// New creates a builder. cache may be nil; slotsPerPage zero falls back to
// the estimator default.
func New(slotsPerPage float64, cache ports.SummaryCache) *Builder {
	if slotsPerPage <= 0 {
		slotsPerPage = traffic.DefaultAdSlotsPerPage
	}
	return &Builder{slotsPerPage: slotsPerPage, cache: cache}
}

// Rebuild scores every record and folds the portfolio into a fresh summary.
// It is the ChangeFunc a synchronizer is wired with.
func (b *Builder) Rebuild(scan domain.Scan, results []domain.DomainRecord) {
	scored := make([]domain.DomainRecord, len(results))
	for i, rec := range results {
		scored[i] = classify.Score(rec, b.slotsPerPage)
	}
	sum := impact.BuildSummary(scored, scan.Context)

	b.current.Store(&view{summary: sum, scan: scan, results: scored})

	// The cache write must not block the merge-notification path, so it runs
	// in its own goroutine with a bounded timeout.
	if b.cache != nil {
		go b.writeCache(scan.ID)
	}
}

// writeCache persists whatever view is current at write time. Best effort: a
// failed or superseded write costs a cache miss, never correctness.
func (b *Builder) writeCache(scanID string) {
	v := b.current.Load()
	if v == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
	defer cancel()
	if err := b.cache.PutSummary(ctx, scanID, v.summary); err != nil {
		slog.Warn("summary cache write failed", "scan_id", scanID, "error", err)
	}
}

// Current returns the latest summary, or false before the first rebuild.
func (b *Builder) Current() (domain.ScanSummary, bool) {
	v := b.current.Load()
	if v == nil {
		return domain.ScanSummary{}, false
	}
	return v.summary, true
}

// Results returns the latest scored result set alongside its scan snapshot,
// for detail rendering and export.
func (b *Builder) Results() (domain.Scan, []domain.DomainRecord, bool) {
	v := b.current.Load()
	if v == nil {
		return domain.Scan{}, nil, false
	}
	return v.scan, v.results, true
}
