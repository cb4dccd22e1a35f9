package postgres

import (
	"context"
	"fmt"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// ListResults returns every result recorded for a scan in insertion order,
// which is the order the synchronizer preserves for clients.
func (db *DB) ListResults(ctx context.Context, scanID string) ([]domain.DomainRecord, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, scan_id, domain, outcome, cookies, capabilities, ssps, consent, traffic
		FROM scan_results
		WHERE scan_id = $1
		ORDER BY inserted_at, id
	`, scanID)
	if err != nil {
		return nil, fmt.Errorf("list results for %s: %w", scanID, err)
	}
	defer rows.Close()

	var out []domain.DomainRecord
	for rows.Next() {
		var rec domain.DomainRecord
		if err := rows.Scan(&rec.ID, &rec.ScanID, &rec.Name, &rec.Outcome,
			&rec.Cookies, &rec.Capabilities, &rec.SSPs, &rec.Consent, &rec.Traffic); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
