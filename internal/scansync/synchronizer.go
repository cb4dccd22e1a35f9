package scansync

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
)

const (
	DefaultPollInterval = 2500 * time.Millisecond
	DefaultPollTimeout  = 2 * time.Second
)

type Config struct {
	PollInterval time.Duration
	PollTimeout  time.Duration

	// OnPollError observes swallowed poll failures. Polling is a fallback,
	// so failures never surface to the caller, but they must not be
	// invisible either.
	OnPollError func(scanID string, err error)
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = DefaultPollTimeout
	}
	return c
}

// ChangeFunc receives the new consistent snapshot after every applied merge.
type ChangeFunc func(scan domain.Scan, results []domain.DomainRecord)

// Synchronizer owns the authoritative local view of one scan. It merges the
// push subscription and the poll loop through Merge, deduplicates results,
// and tears both channels down exactly once when the scan goes terminal or
// interest is discarded.
type Synchronizer struct {
	scanID   string
	scans    ports.ScanRepository
	results  ports.ResultRepository
	stream   ports.ScanStream
	cfg      Config
	onChange ChangeFunc

	mu     sync.Mutex
	state  State
	closed bool
	cancel context.CancelFunc
	unsubs []ports.Unsubscribe

	// notifyMu orders onChange deliveries. It is acquired while mu is still
	// held, so two racing merges cannot invert their notifications and leave
	// a consumer holding the older snapshot.
	notifyMu sync.Mutex

	pollFailures atomic.Int64
}

// New wires a synchronizer for one scan identifier. stream may be nil, in
// which case the poll loop is the only update source.
func New(scanID string, scans ports.ScanRepository, results ports.ResultRepository, stream ports.ScanStream, cfg Config, onChange ChangeFunc) *Synchronizer {
	return &Synchronizer{
		scanID:   scanID,
		scans:    scans,
		results:  results,
		stream:   stream,
		cfg:      cfg.withDefaults(),
		onChange: onChange,
		state:    NewState(domain.Scan{ID: scanID}),
	}
}

// Start fetches the initial snapshot, opens both update channels and begins
// polling. A missing scan surfaces ports.ErrNotFound. A failed push
// subscription degrades to poll-only operation; the scan still makes
// progress at poll-interval granularity.
func (s *Synchronizer) Start(ctx context.Context) error {
	scan, err := s.scans.GetScan(ctx, s.scanID)
	if err != nil {
		return fmt.Errorf("initial scan fetch: %w", err)
	}

	// Seed state directly instead of going through Merge: the initial load
	// is authoritative and must populate results even for a scan that is
	// already terminal.
	state := NewState(scan)
	if recs, err := s.results.ListResults(ctx, s.scanID); err != nil {
		s.pollFailed(err)
	} else {
		for _, rec := range recs {
			state, _ = state.withResult(rec)
		}
	}
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()

	if s.onChange != nil {
		cur, results := s.Snapshot()
		s.onChange(cur, results)
	}

	if scan.Status.Terminal() {
		// Nothing left to synchronize; no channels are opened.
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	alreadyClosed := s.closed
	s.mu.Unlock()
	if alreadyClosed {
		cancel()
		return nil
	}

	s.subscribePush(runCtx)
	go s.pollLoop(runCtx)
	return nil
}

func (s *Synchronizer) subscribePush(ctx context.Context) {
	if s.stream == nil {
		return
	}
	unsubScan, err := s.stream.SubscribeScanUpdates(ctx, s.scanID, func(scan domain.Scan) {
		s.apply(ScanUpdated{Scan: scan})
	})
	if err != nil {
		slog.Warn("push subscription failed, polling only",
			"scan_id", s.scanID, "channel", "scan_updates", "error", err)
		return
	}
	unsubResults, err := s.stream.SubscribeResultInserts(ctx, s.scanID, func(rec domain.DomainRecord) {
		s.apply(ResultInserted{Record: rec})
	})
	if err != nil {
		slog.Warn("push subscription failed, polling only",
			"scan_id", s.scanID, "channel", "result_inserts", "error", err)
		unsubScan()
		return
	}

	s.mu.Lock()
	alreadyClosed := s.closed
	if !alreadyClosed {
		s.unsubs = append(s.unsubs, unsubScan, unsubResults)
	}
	s.mu.Unlock()
	if alreadyClosed {
		unsubScan()
		unsubResults()
	}
}

// apply serializes one merge and delivers its notification in merge order.
// The state lock is held only for the state exchange; the callback runs
// under notifyMu, which is taken before the state lock is released so
// deliveries cannot reorder. notifyMu is released before Close so the
// terminal teardown never waits on a notification in another goroutine.
func (s *Synchronizer) apply(ev Event) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	next, changed := Merge(s.state, ev)
	if changed {
		s.state = next
	}
	terminal := next.Scan.Status.Terminal()
	notify := changed && s.onChange != nil
	if notify {
		s.notifyMu.Lock()
	}
	s.mu.Unlock()

	if notify {
		s.onChange(next.Scan, next.Results)
		s.notifyMu.Unlock()
	}
	if terminal {
		s.Close()
	}
}

func (s *Synchronizer) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.pollOnce(ctx)
		}
	}
}

// pollOnce fetches the scan and full result set with a bounded timeout and
// merges the diff. A poll arriving after teardown is discarded, not applied.
func (s *Synchronizer) pollOnce(ctx context.Context) {
	pollCtx, cancel := context.WithTimeout(ctx, s.cfg.PollTimeout)
	defer cancel()

	scan, err := s.scans.GetScan(pollCtx, s.scanID)
	if err != nil {
		s.pollFailed(err)
		return
	}
	recs, err := s.results.ListResults(pollCtx, s.scanID)
	if err != nil {
		s.pollFailed(err)
		return
	}
	if ctx.Err() != nil {
		return
	}

	s.apply(ScanUpdated{Scan: scan})
	for _, rec := range recs {
		s.apply(ResultInserted{Record: rec})
	}
}

// pollFailed swallows a poll error: logged and counted, never surfaced. The
// push channel remains authoritative while polling recovers.
func (s *Synchronizer) pollFailed(err error) {
	n := s.pollFailures.Add(1)
	slog.Warn("scan poll failed", "scan_id", s.scanID, "failures", n, "error", err)
	if s.cfg.OnPollError != nil {
		s.cfg.OnPollError(s.scanID, err)
	}
}

// PollFailures reports how many polls have been swallowed so far.
func (s *Synchronizer) PollFailures() int64 {
	return s.pollFailures.Load()
}

// Snapshot returns the current consistent view. The returned slice is part
// of an immutable snapshot and must not be mutated.
func (s *Synchronizer) Snapshot() (domain.Scan, []domain.DomainRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Scan, s.state.Results
}

// Close tears down both channels. Idempotent, safe to call concurrently
// with an in-flight poll, and guaranteed on every exit path: the terminal
// merge calls it, and callers discarding interest call it.
func (s *Synchronizer) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	cancel := s.cancel
	unsubs := s.unsubs
	s.cancel = nil
	s.unsubs = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, unsub := range unsubs {
		unsub()
	}
}
