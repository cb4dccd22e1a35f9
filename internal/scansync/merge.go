// Package scansync keeps one client-side view of a server-side scan
// consistent while updates arrive out of order through two independent
// channels: a push subscription and a polling fallback. All mutation funnels
// through a single merge function over immutable state snapshots, so the two
// channels can race without corrupting what readers see.
package scansync

import (
	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// Event is one incoming update from either channel.
type Event interface{ event() }

// ScanUpdated carries a whole-scan snapshot. Snapshots are idempotent to
// apply; the server is the single source of truth, so no version vector is
// needed.
type ScanUpdated struct {
	Scan domain.Scan
}

// ResultInserted carries one new domain record. The same record may arrive
// via both the push event and a later poll.
type ResultInserted struct {
	Record domain.DomainRecord
}

func (ScanUpdated) event()    {}
func (ResultInserted) event() {}

// State is an immutable snapshot of one scan plus its deduplicated,
// append-only result set. Merge never mutates a State in place.
type State struct {
	Scan    domain.Scan
	Results []domain.DomainRecord
	seen    map[string]struct{}
}

func NewState(scan domain.Scan) State {
	return State{Scan: scan, seen: map[string]struct{}{}}
}

// Has reports whether a result with the given identifier was already merged.
func (s State) Has(resultID string) bool {
	_, ok := s.seen[resultID]
	return ok
}

// Merge applies one event and reports whether anything changed. Once the
// scan is terminal no event changes the state. A scan snapshot applies only
// if status or counters differ; a result applies only if its identifier is
// unseen, regardless of which channel delivered it first.
func Merge(s State, ev Event) (State, bool) {
	if s.Scan.Status.Terminal() {
		return s, false
	}

	switch e := ev.(type) {
	case ScanUpdated:
		if !scanDiffers(s.Scan, e.Scan) {
			return s, false
		}
		next := s
		next.Scan = e.Scan
		if next.Scan.Context == nil {
			// Context is persisted at creation and immutable; a push
			// snapshot that omits it must not erase it.
			next.Scan.Context = s.Scan.Context
		}
		if next.Scan.ID == "" {
			next.Scan.ID = s.Scan.ID
		}
		return next, true

	case ResultInserted:
		return s.withResult(e.Record)
	}
	return s, false
}

// withResult appends one record with identifier dedup, sharing no mutable
// storage with the receiver. It skips the terminal freeze so the initial
// load can seed results for a scan that already finished.
func (s State) withResult(rec domain.DomainRecord) (State, bool) {
	if rec.ID == "" || s.Has(rec.ID) {
		return s, false
	}
	next := s
	next.Results = append(s.Results[:len(s.Results):len(s.Results)], rec)
	next.seen = make(map[string]struct{}, len(s.seen)+1)
	for id := range s.seen {
		next.seen[id] = struct{}{}
	}
	next.seen[rec.ID] = struct{}{}
	return next, true
}

func scanDiffers(a, b domain.Scan) bool {
	return a.Status != b.Status ||
		a.CompletedDomains != b.CompletedDomains ||
		a.TotalDomains != b.TotalDomains
}
