package scansync

import (
	"context"
	"sync"

	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
	"github.com/krishanraja/adfixus-sales-sub001/internal/summary"
)

// Session couples one scan's synchronizer with the builder that recomputes
// its summary on every change. The session outlives the synchronizer: after
// a scan goes terminal the channels are torn down but the final summary
// stays readable.
type Session struct {
	Sync      *Synchronizer
	Summaries *summary.Builder
}

// Manager opens and reuses one session per scan identifier, so concurrent
// readers share a single pair of update channels per scan.
type Manager struct {
	scans        ports.ScanRepository
	results      ports.ResultRepository
	stream       ports.ScanStream
	cache        ports.SummaryCache
	cfg          Config
	slotsPerPage float64

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(scans ports.ScanRepository, results ports.ResultRepository, stream ports.ScanStream, cache ports.SummaryCache, cfg Config, slotsPerPage float64) *Manager {
	return &Manager{
		scans:        scans,
		results:      results,
		stream:       stream,
		cache:        cache,
		cfg:          cfg,
		slotsPerPage: slotsPerPage,
		sessions:     map[string]*Session{},
	}
}

// Open returns the live session for a scan, starting synchronization on
// first use. An unknown scan surfaces ports.ErrNotFound.
func (m *Manager) Open(ctx context.Context, scanID string) (*Session, error) {
	m.mu.Lock()
	if sess, ok := m.sessions[scanID]; ok {
		m.mu.Unlock()
		return sess, nil
	}
	m.mu.Unlock()

	builder := summary.New(m.slotsPerPage, m.cache)
	syn := New(scanID, m.scans, m.results, m.stream, m.cfg, builder.Rebuild)
	if err := syn.Start(ctx); err != nil {
		syn.Close()
		return nil, err
	}
	sess := &Session{Sync: syn, Summaries: builder}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[scanID]; ok {
		// Lost the race to another opener; keep theirs.
		syn.Close()
		return existing, nil
	}
	m.sessions[scanID] = sess
	return sess, nil
}

// Discard drops interest in one scan and tears its channels down.
func (m *Manager) Discard(scanID string) {
	m.mu.Lock()
	sess, ok := m.sessions[scanID]
	delete(m.sessions, scanID)
	m.mu.Unlock()
	if ok {
		sess.Sync.Close()
	}
}

// Close tears down every open session.
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	for _, sess := range sessions {
		sess.Sync.Close()
	}
}
