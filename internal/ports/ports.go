package ports

import (
	"context"
	"errors"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// ErrNotFound signals an invalid or deleted scan identifier. Callers surface
// it to the user instead of retrying.
var ErrNotFound = errors.New("scan not found")

// ErrTransport marks a network failure talking to the scan backend. The
// operation is safe for the user to retry.
var ErrTransport = errors.New("scan backend unreachable")

// Scanner creates server-side scans; the scanning itself happens in the
// external browser-automation backend.
type Scanner interface {
	CreateScan(ctx context.Context, domains []string, pub *domain.PublisherContext) (scanID string, err error)
}

// ScanRequestPublisher hands a created scan to the execution backend.
type ScanRequestPublisher interface {
	PublishScanRequest(ctx context.Context, scan domain.Scan, domains []string) error
}

// SummaryCache keeps the latest computed summary per scan for cheap reads
// and export consumers. Best-effort: losing a cached summary is harmless
// because summaries are recomputed on every result-set change.
type SummaryCache interface {
	PutSummary(ctx context.Context, scanID string, summary domain.ScanSummary) error
	GetSummary(ctx context.Context, scanID string) (domain.ScanSummary, bool, error)
}
