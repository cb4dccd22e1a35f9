package ports

import (
	"context"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// ScanRepository persists and fetches scan records. GetScan is the polling
// fallback's snapshot source and returns ErrNotFound for unknown IDs.
type ScanRepository interface {
	CreateScan(ctx context.Context, scan domain.Scan, domains []string) (scanID string, err error)
	GetScan(ctx context.Context, scanID string) (domain.Scan, error)
}

// ResultRepository fetches the full result set for a scan, in server order.
type ResultRepository interface {
	ListResults(ctx context.Context, scanID string) ([]domain.DomainRecord, error)
}
