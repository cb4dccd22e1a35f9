// Package valkeycache keeps the latest computed summary per scan in Valkey.
// Losing an entry is harmless: summaries are recomputed from the result set
// on every change, so the cache only saves cold-start readers a rebuild.
package valkeycache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	valkey "github.com/valkey-io/valkey-go"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

type Cache struct {
	client valkey.Client
	ttl    time.Duration
}

func New(addr string, ttl time.Duration) (*Cache, error) {
	client, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, fmt.Errorf("connect valkey %s: %w", addr, err)
	}
	return &Cache{client: client, ttl: ttl}, nil
}

func summaryKey(scanID string) string { return "scan:summary:" + scanID }

func (c *Cache) PutSummary(ctx context.Context, scanID string, summary domain.ScanSummary) error {
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	cmd := c.client.B().Set().Key(summaryKey(scanID)).Value(string(raw)).Ex(c.ttl).Build()
	if err := c.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("cache summary for %s: %w", scanID, err)
	}
	return nil
}

// GetSummary returns the cached summary, reporting a miss without error when
// the key is absent or expired.
func (c *Cache) GetSummary(ctx context.Context, scanID string) (domain.ScanSummary, bool, error) {
	cmd := c.client.B().Get().Key(summaryKey(scanID)).Build()
	resp := c.client.Do(ctx, cmd)
	if err := resp.Error(); err != nil {
		if valkey.IsValkeyNil(err) {
			return domain.ScanSummary{}, false, nil
		}
		return domain.ScanSummary{}, false, fmt.Errorf("fetch summary for %s: %w", scanID, err)
	}
	raw, err := resp.AsBytes()
	if err != nil {
		return domain.ScanSummary{}, false, err
	}
	var sum domain.ScanSummary
	if err := json.Unmarshal(raw, &sum); err != nil {
		return domain.ScanSummary{}, false, fmt.Errorf("decode cached summary for %s: %w", scanID, err)
	}
	return sum, true, nil
}

func (c *Cache) Close() { c.client.Close() }
