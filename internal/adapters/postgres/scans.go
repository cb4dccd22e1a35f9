package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
)

// CreateScan inserts the scan row and its requested domains in one
// transaction so a scan can never exist without its domain list.
func (db *DB) CreateScan(ctx context.Context, scan domain.Scan, domains []string) (string, error) {
	tx, err := db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return "", err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			err = tx.Commit(ctx)
		}
	}()

	var scanID string
	err = tx.QueryRow(ctx, `
		INSERT INTO scans (status, total_domains, completed_domains, publisher_context)
		VALUES ($1, $2, 0, $3)
		RETURNING id
	`, scan.Status, len(domains), scan.Context).Scan(&scanID)
	if err != nil {
		return "", fmt.Errorf("insert scan: %w", err)
	}

	for i, name := range domains {
		if _, err = tx.Exec(ctx, `
			INSERT INTO scan_domains (scan_id, domain, position)
			VALUES ($1, $2, $3)
		`, scanID, name, i); err != nil {
			return "", fmt.Errorf("insert scan domain %s: %w", name, err)
		}
	}
	return scanID, nil
}

func (db *DB) GetScan(ctx context.Context, scanID string) (domain.Scan, error) {
	var scan domain.Scan
	err := db.Pool.QueryRow(ctx, `
		SELECT id, status, total_domains, completed_domains, publisher_context, created_at
		FROM scans
		WHERE id = $1
	`, scanID).Scan(&scan.ID, &scan.Status, &scan.TotalDomains, &scan.CompletedDomains, &scan.Context, &scan.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Scan{}, ports.ErrNotFound
	}
	if err != nil {
		return domain.Scan{}, err
	}
	return scan, nil
}
