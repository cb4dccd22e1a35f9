package ports

import (
	"context"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// Unsubscribe releases one push subscription. Safe to call more than once.
type Unsubscribe func()

// ScanStream is the push half of scan synchronization: whole-scan snapshots
// on any field change, and individual result records as they are produced.
// Both subscriptions stay live until unsubscribed or the context ends.
type ScanStream interface {
	SubscribeScanUpdates(ctx context.Context, scanID string, onUpdate func(domain.Scan)) (Unsubscribe, error)
	SubscribeResultInserts(ctx context.Context, scanID string, onInsert func(domain.DomainRecord)) (Unsubscribe, error)
}
