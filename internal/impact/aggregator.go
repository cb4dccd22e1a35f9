// Package impact folds classified domain records into ranked pain points,
// opportunities and a portfolio summary with dollar estimates. Everything is
// a pure function of the scored result set plus optional publisher context;
// summaries are rebuilt from scratch on every change, never patched.
package impact

import (
	"math"
	"strings"

	"github.com/krishanraja/adfixus-sales-sub001/internal/classify"
	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

const (
	// Unaddressable inventory does not just lose volume, it clears at a
	// discounted CPM. The loss formula applies both the gap percentage and
	// this penalty.
	safariCPMPenalty = 0.65

	// Share of annual ad spend a conversion API typically recaptures.
	capiCaptureRate = 0.15

	// Margin leaked to rented identity graphs.
	identityMarginLeak = 0.12

	fallbackCPM = 4.0

	// The summary caps pain points; opportunities are always returned whole.
	maxSummaryPainPoints = 3
)

var verticalCPM = map[string]float64{
	"news":          6.5,
	"retail":        8.0,
	"finance":       12.0,
	"travel":        7.0,
	"health":        9.0,
	"entertainment": 5.5,
}

// CPMForVertical resolves the benchmark CPM for a publisher vertical,
// falling back to a generic rate for unknown verticals.
func CPMForVertical(vertical string) float64 {
	if cpm, ok := verticalCPM[strings.ToLower(strings.TrimSpace(vertical))]; ok {
		return cpm
	}
	return fallbackCPM
}

// EffectiveMonthlyImpressions prefers the caller-declared figure and falls
// back to summing the per-domain traffic estimates of scored records.
func EffectiveMonthlyImpressions(records []domain.DomainRecord, pub *domain.PublisherContext) float64 {
	if pub != nil && pub.DeclaredMonthlyImpressions > 0 {
		return float64(pub.DeclaredMonthlyImpressions)
	}
	var total float64
	for _, rec := range records {
		if rec.Scored() {
			total += rec.Traffic.MonthlyImpressions
		}
	}
	return total
}

// MonthlyRevenueLoss estimates revenue lost each month to unaddressable
// inventory: the gap share of impressions, priced at a penalized CPM.
func MonthlyRevenueLoss(monthlyImpressions, gapPct, cpm float64) int64 {
	lost := monthlyImpressions * gapPct / 100
	return int64(math.Round(lost / 1000 * cpm * safariCPMPenalty))
}

// BuildSummary folds scored records plus pain points and opportunities into
// the externally consumed ScanSummary.
func BuildSummary(records []domain.DomainRecord, pub *domain.PublisherContext) domain.ScanSummary {
	pains := PainPoints(records, pub)
	opps := Opportunities(records, pub)

	summary := domain.ScanSummary{
		AvgAddressabilityGapPct: averageGap(records),
		WorstIDBloat:            domain.SeverityLow,
		WorstPrivacyRisk:        domain.PrivacyCompliant,
		WorstPosition:           domain.PositionParity,
		PainPoints:              pains,
		Opportunities:           opps,
	}

	for _, p := range pains {
		if p.EstimatedAnnualLoss != nil {
			summary.TotalRevenueLoss += *p.EstimatedAnnualLoss
		}
	}

	var scoreSum, scored int
	for _, rec := range records {
		if !rec.Scored() {
			continue
		}
		s := rec.Scores
		summary.WorstIDBloat = domain.MaxSeverity(summary.WorstIDBloat, s.IDBloat)
		summary.WorstPrivacyRisk = domain.MaxPrivacyRisk(summary.WorstPrivacyRisk, s.PrivacyRisk)
		summary.WorstPosition = domain.WorstPosition(summary.WorstPosition, s.Position)
		scoreSum += classify.ReadinessScore(
			s.Position, s.PrivacyRisk,
			rec.Capabilities.Has(domain.CapConversionAPI),
			rec.Capabilities.Has(domain.CapOwnedID),
		)
		scored++
	}
	mean := 0
	if scored > 0 {
		mean = scoreSum / scored
	}
	summary.ReadinessGrade = classify.GradeFor(mean)

	if len(summary.PainPoints) > maxSummaryPainPoints {
		summary.PainPoints = summary.PainPoints[:maxSummaryPainPoints]
	}
	return summary
}

// averageGap averages the addressability gap over scored records only. A
// failed domain has no gap, not a gap of zero.
func averageGap(records []domain.DomainRecord) float64 {
	var sum float64
	var n int
	for _, rec := range records {
		if rec.Scored() {
			sum += rec.Scores.AddressabilityGapPct
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
