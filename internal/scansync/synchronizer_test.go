package scansync

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
)

type fakeRepo struct {
	mu         sync.Mutex
	scan       domain.Scan
	results    []domain.DomainRecord
	scanErr    error
	resultsErr error
}

func (f *fakeRepo) CreateScan(ctx context.Context, scan domain.Scan, domains []string) (string, error) {
	return scan.ID, nil
}

func (f *fakeRepo) GetScan(ctx context.Context, scanID string) (domain.Scan, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.scanErr != nil {
		return domain.Scan{}, f.scanErr
	}
	return f.scan, nil
}

func (f *fakeRepo) ListResults(ctx context.Context, scanID string) ([]domain.DomainRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resultsErr != nil {
		return nil, f.resultsErr
	}
	return append([]domain.DomainRecord(nil), f.results...), nil
}

func (f *fakeRepo) set(scan domain.Scan, results ...domain.DomainRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scan = scan
	f.results = results
}

type fakeStream struct {
	mu               sync.Mutex
	onUpdate         func(domain.Scan)
	onInsert         func(domain.DomainRecord)
	subErr           error
	unsubScanCalls   int
	unsubInsertCalls int
}

func (f *fakeStream) SubscribeScanUpdates(ctx context.Context, scanID string, onUpdate func(domain.Scan)) (ports.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.onUpdate = onUpdate
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubScanCalls++
	}, nil
}

func (f *fakeStream) SubscribeResultInserts(ctx context.Context, scanID string, onInsert func(domain.DomainRecord)) (ports.Unsubscribe, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subErr != nil {
		return nil, f.subErr
	}
	f.onInsert = onInsert
	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.unsubInsertCalls++
	}, nil
}

func (f *fakeStream) pushScan(scan domain.Scan) {
	f.mu.Lock()
	fn := f.onUpdate
	f.mu.Unlock()
	if fn != nil {
		fn(scan)
	}
}

func (f *fakeStream) pushResult(rec domain.DomainRecord) {
	f.mu.Lock()
	fn := f.onInsert
	f.mu.Unlock()
	if fn != nil {
		fn(rec)
	}
}

func (f *fakeStream) unsubCounts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unsubScanCalls, f.unsubInsertCalls
}

// quietConfig keeps the ticker from firing during a test.
func quietConfig() Config {
	return Config{PollInterval: time.Hour, PollTimeout: time.Second}
}

func TestSynchronizerDedupAcrossChannels(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 2})
	stream := &fakeStream{}
	s := New("scan-1", repo, repo, stream, quietConfig(), nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	rec := domain.DomainRecord{ID: "res-1", Name: "example.com"}

	// Push delivers the record first, then a poll returns the same record
	// plus a new one.
	stream.pushResult(rec)
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 2, CompletedDomains: 1},
		rec, domain.DomainRecord{ID: "res-2", Name: "other.com"})
	s.pollOnce(context.Background())

	_, results := s.Snapshot()
	require.Len(t, results, 2)
	assert.Equal(t, "res-1", results[0].ID)
	assert.Equal(t, "res-2", results[1].ID)
}

func TestSynchronizerDedupPollFirst(t *testing.T) {
	repo := &fakeRepo{}
	rec := domain.DomainRecord{ID: "res-1", Name: "example.com"}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1}, rec)
	stream := &fakeStream{}
	s := New("scan-1", repo, repo, stream, quietConfig(), nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	// Arrival order reversed: poll already merged the record, the push
	// duplicate must be a no-op.
	stream.pushResult(rec)

	_, results := s.Snapshot()
	assert.Len(t, results, 1)
}

func TestSynchronizerTerminalTeardown(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})
	stream := &fakeStream{}
	s := New("scan-1", repo, repo, stream, quietConfig(), nil)
	require.NoError(t, s.Start(context.Background()))

	stream.pushScan(domain.Scan{ID: "scan-1", Status: domain.ScanCompleted, TotalDomains: 1, CompletedDomains: 1})

	scan, _ := s.Snapshot()
	assert.Equal(t, domain.ScanCompleted, scan.Status)

	// Both subscriptions released exactly once, even after redundant Close.
	scanUnsubs, insertUnsubs := stream.unsubCounts()
	assert.Equal(t, 1, scanUnsubs)
	assert.Equal(t, 1, insertUnsubs)
	s.Close()
	scanUnsubs, insertUnsubs = stream.unsubCounts()
	assert.Equal(t, 1, scanUnsubs)
	assert.Equal(t, 1, insertUnsubs)

	// Nothing merged after teardown.
	stream.pushResult(domain.DomainRecord{ID: "late-1"})
	_, results := s.Snapshot()
	assert.Empty(t, results)
}

func TestSynchronizerNotFound(t *testing.T) {
	repo := &fakeRepo{scanErr: ports.ErrNotFound}
	s := New("missing", repo, repo, &fakeStream{}, quietConfig(), nil)
	err := s.Start(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestSynchronizerPollErrorsSwallowedButObserved(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})

	var observed []error
	var mu sync.Mutex
	cfg := quietConfig()
	cfg.OnPollError = func(scanID string, err error) {
		mu.Lock()
		defer mu.Unlock()
		observed = append(observed, err)
	}
	s := New("scan-1", repo, repo, &fakeStream{}, cfg, nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	repo.mu.Lock()
	repo.scanErr = errors.New("connection refused")
	repo.mu.Unlock()
	s.pollOnce(context.Background())

	assert.Equal(t, int64(1), s.PollFailures())
	mu.Lock()
	assert.Len(t, observed, 1)
	mu.Unlock()

	// A healthy push stream keeps making progress regardless.
	scan, _ := s.Snapshot()
	assert.Equal(t, domain.ScanProcessing, scan.Status)
}

func TestSynchronizerPushSetupFailureFallsBackToPolling(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})
	stream := &fakeStream{subErr: errors.New("broker down")}
	s := New("scan-1", repo, repo, stream, quietConfig(), nil)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	// Progress still arrives through the poll path.
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1, CompletedDomains: 1},
		domain.DomainRecord{ID: "res-1"})
	s.pollOnce(context.Background())

	scan, results := s.Snapshot()
	assert.Equal(t, 1, scan.CompletedDomains)
	assert.Len(t, results, 1)
}

func TestSynchronizerPostClosePollDiscarded(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})
	s := New("scan-1", repo, repo, &fakeStream{}, quietConfig(), nil)
	require.NoError(t, s.Start(context.Background()))

	s.Close()
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, CompletedDomains: 1, TotalDomains: 1},
		domain.DomainRecord{ID: "res-1"})
	s.pollOnce(context.Background())

	scan, results := s.Snapshot()
	assert.Zero(t, scan.CompletedDomains)
	assert.Empty(t, results)
}

func TestSynchronizerChangeNotifications(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})
	stream := &fakeStream{}

	var mu sync.Mutex
	var calls int
	onChange := func(scan domain.Scan, results []domain.DomainRecord) {
		mu.Lock()
		defer mu.Unlock()
		calls++
	}
	s := New("scan-1", repo, repo, stream, quietConfig(), onChange)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	mu.Lock()
	initial := calls
	mu.Unlock()
	require.GreaterOrEqual(t, initial, 1)

	// A duplicate result changes nothing and must not notify.
	stream.pushResult(domain.DomainRecord{ID: "res-1"})
	stream.pushResult(domain.DomainRecord{ID: "res-1"})

	mu.Lock()
	assert.Equal(t, initial+1, calls)
	mu.Unlock()
}

func TestSynchronizerNotificationsDeliverInMergeOrder(t *testing.T) {
	const workers, perWorker = 8, 8
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: workers * perWorker})
	stream := &fakeStream{}

	var mu sync.Mutex
	var lastResults []domain.DomainRecord
	var sizes []int
	onChange := func(scan domain.Scan, results []domain.DomainRecord) {
		mu.Lock()
		defer mu.Unlock()
		lastResults = results
		sizes = append(sizes, len(results))
	}
	s := New("scan-1", repo, repo, stream, quietConfig(), onChange)
	require.NoError(t, s.Start(context.Background()))
	defer s.Close()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				stream.pushResult(domain.DomainRecord{ID: fmt.Sprintf("res-%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	_, snapshot := s.Snapshot()
	require.Len(t, snapshot, workers*perWorker)

	mu.Lock()
	defer mu.Unlock()

	// The final notification carries the final snapshot, and every delivery
	// observed a strictly larger result set than the one before it.
	assert.Equal(t, snapshot, lastResults)
	for i := 1; i < len(sizes); i++ {
		assert.Less(t, sizes[i-1], sizes[i])
	}
}

func TestManagerReusesSessions(t *testing.T) {
	repo := &fakeRepo{}
	repo.set(domain.Scan{ID: "scan-1", Status: domain.ScanProcessing, TotalDomains: 1})
	m := NewManager(repo, repo, &fakeStream{}, nil, quietConfig(), 0)
	defer m.Close()

	first, err := m.Open(context.Background(), "scan-1")
	require.NoError(t, err)
	second, err := m.Open(context.Background(), "scan-1")
	require.NoError(t, err)
	assert.Same(t, first, second)

	_, err = m.Open(context.Background(), "scan-1")
	require.NoError(t, err)
}

func TestManagerNotFound(t *testing.T) {
	repo := &fakeRepo{scanErr: ports.ErrNotFound}
	m := NewManager(repo, repo, &fakeStream{}, nil, quietConfig(), 0)
	defer m.Close()

	_, err := m.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
