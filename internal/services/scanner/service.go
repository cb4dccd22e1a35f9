// Package scanner creates scans: it normalizes the requested domain list,
// persists the scan record and hands it to the execution backend. Scan
// execution itself happens out of process.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/ports"
)

var (
	ErrNoDomains     = errors.New("no domains to scan")
	ErrInvalidDomain = errors.New("invalid domain")
)

type Service struct {
	scans     ports.ScanRepository
	publisher ports.ScanRequestPublisher
}

func New(scans ports.ScanRepository, publisher ports.ScanRequestPublisher) *Service {
	return &Service{scans: scans, publisher: publisher}
}

// CreateScan persists a pending scan over the normalized domain list and
// publishes the scan request. Duplicate domains collapse to one entry with
// first-seen order preserved.
func (s *Service) CreateScan(ctx context.Context, domains []string, pub *domain.PublisherContext) (string, error) {
	normalized, err := NormalizeDomains(domains)
	if err != nil {
		return "", err
	}

	scan := domain.Scan{
		Status:       domain.ScanPending,
		TotalDomains: len(normalized),
		Context:      pub,
	}
	scanID, err := s.scans.CreateScan(ctx, scan, normalized)
	if err != nil {
		return "", fmt.Errorf("persist scan: %w", err)
	}
	scan.ID = scanID

	if err := s.publisher.PublishScanRequest(ctx, scan, normalized); err != nil {
		return "", fmt.Errorf("publish scan request %s: %w", scanID, err)
	}

	slog.Info("scan created", "scan_id", scanID, "domains", len(normalized))
	return scanID, nil
}

// NormalizeDomains lowercases each entry, strips any scheme, path or port,
// reduces it to its registrable domain and drops duplicates while keeping
// first-seen order.
func NormalizeDomains(domains []string) ([]string, error) {
	seen := make(map[string]struct{}, len(domains))
	out := make([]string, 0, len(domains))
	for _, raw := range domains {
		name, err := normalizeDomain(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	if len(out) == 0 {
		return nil, ErrNoDomains
	}
	return out, nil
}

func normalizeDomain(raw string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	if name == "" {
		return "", fmt.Errorf("%w: empty entry", ErrInvalidDomain)
	}
	if strings.Contains(name, "://") {
		u, err := url.Parse(name)
		if err != nil || u.Hostname() == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
		}
		name = u.Hostname()
	} else if i := strings.IndexAny(name, "/:?#"); i >= 0 {
		name = name[:i]
	}
	name = strings.Trim(name, ".")
	if name == "" || strings.ContainsAny(name, " \t") {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}

	etld, err := publicsuffix.EffectiveTLDPlusOne(name)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	return etld, nil
}
