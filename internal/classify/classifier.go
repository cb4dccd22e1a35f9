// Package classify turns raw per-domain telemetry into graded labels. Every
// function here is stateless and total over well-formed records: missing
// numeric fields behave as zero, and no input combination panics or errors.
package classify

import (
	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
	"github.com/krishanraja/adfixus-sales-sub001/internal/traffic"
)

const (
	// Share of browser traffic where third-party cookies are blocked.
	safariMarketShare = 0.37

	// Above this third-party cookie ratio a domain without an owned ID is
	// exposed to cookie deprecation.
	atRiskThirdPartyRatio = 0.6
)

// BloatSeverity bands the total cookie count. The bands are exclusive at the
// lower edge: exactly 100 cookies is high, 101 is critical.
func BloatSeverity(totalCookies int) domain.Severity {
	switch {
	case totalCookies > 100:
		return domain.SeverityCritical
	case totalCookies > 70:
		return domain.SeverityHigh
	case totalCookies > 40:
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// ConsentRisk grades the consent setup. Pre-consent loading dominates every
// other signal: once tracking fired before consent the violation already
// happened, no matter how compliant the CMP looks afterwards.
func ConsentRisk(c domain.Consent) domain.PrivacyRisk {
	if c.LoadsBeforeConsent || c.CMPVendor == "" {
		return domain.PrivacyHighRisk
	}
	if !c.TCFCompliant {
		return domain.PrivacyModerate
	}
	return domain.PrivacyCompliant
}

// CompetitivePosition places a domain relative to walled-garden capabilities.
// The final middle-pack branch catches every unmatched flag combination,
// including identity graph plus owned ID without a CAPI.
func CompetitivePosition(rec domain.DomainRecord) domain.Position {
	hasCAPI := rec.Capabilities.Has(domain.CapConversionAPI)
	hasOwnedID := rec.Capabilities.Has(domain.CapOwnedID)
	hasGraph := rec.Capabilities.Has(domain.CapIdentityGraph)

	switch {
	case hasCAPI && hasOwnedID:
		return domain.PositionParity
	case hasGraph && !hasOwnedID:
		return domain.PositionMiddlePack
	case thirdPartyRatio(rec.Cookies) > atRiskThirdPartyRatio && !hasOwnedID:
		return domain.PositionAtRisk
	case !hasGraph && !hasOwnedID && !hasCAPI:
		return domain.PositionCommoditized
	default:
		return domain.PositionMiddlePack
	}
}

func thirdPartyRatio(c domain.CookieStats) float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.ThirdParty) / float64(c.Total)
}

// SafariBlockedShare is the percentage of inventory lost to blocked cookies.
// It feeds both the addressability gap and the estimated Safari loss; the two
// fields are one metric until product intent diverges them.
func SafariBlockedShare(c domain.CookieStats) float64 {
	if c.Total <= 0 {
		return 0
	}
	return float64(c.SafariBlocked) / float64(c.Total) * safariMarketShare * 100
}

// ReadinessScore is a 0-100 composite: position up to 40, privacy up to 20,
// conversion API 25, owned ID 15.
func ReadinessScore(pos domain.Position, risk domain.PrivacyRisk, hasCAPI, hasOwnedID bool) int {
	score := 0
	switch pos {
	case domain.PositionParity:
		score += 40
	case domain.PositionMiddlePack:
		score += 25
	case domain.PositionAtRisk:
		score += 10
	}
	switch risk {
	case domain.PrivacyCompliant:
		score += 20
	case domain.PrivacyModerate:
		score += 10
	}
	if hasCAPI {
		score += 25
	}
	if hasOwnedID {
		score += 15
	}
	return score
}

// GradeFor maps a readiness score to its letter band.
func GradeFor(score int) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B+"
	case score >= 70:
		return "B"
	case score >= 60:
		return "C+"
	case score >= 50:
		return "C"
	case score >= 40:
		return "D"
	default:
		return "F"
	}
}

// Score returns a copy of the record with computed scores attached. Only
// success outcomes are scored; any other outcome gets nil scores so failed
// domains stay out of portfolio averages. Missing traffic estimates are
// filled from the rank on the way through.
func Score(rec domain.DomainRecord, slotsPerPage float64) domain.DomainRecord {
	if slotsPerPage <= 0 {
		slotsPerPage = traffic.DefaultAdSlotsPerPage
	}
	if rec.Traffic.MonthlyPageviews == 0 && rec.Traffic.Rank > 0 {
		est := traffic.FromRank(rec.Traffic.Rank, slotsPerPage)
		rec.Traffic.MonthlyPageviews = est.MonthlyPageviews
		rec.Traffic.MonthlyImpressions = est.MonthlyImpressions
		rec.Traffic.Confidence = est.Confidence
	}
	// Impressions backfill is independent of where the pageviews came from:
	// a record arriving with declared pageviews but no impressions still
	// counts toward portfolio volume.
	if rec.Traffic.MonthlyImpressions == 0 && rec.Traffic.MonthlyPageviews > 0 {
		rec.Traffic.MonthlyImpressions = rec.Traffic.MonthlyPageviews * slotsPerPage
	}
	if len(rec.Traffic.History) > 0 {
		rec.Traffic.Trend, rec.Traffic.RankChange = traffic.Trend(rec.Traffic.History)
	}

	if rec.Outcome != domain.OutcomeSuccess {
		rec.Scores = nil
		return rec
	}

	share := SafariBlockedShare(rec.Cookies)
	rec.Scores = &domain.DomainScores{
		AddressabilityGapPct: share,
		SafariLossPct:        share,
		IDBloat:              BloatSeverity(rec.Cookies.Total),
		PrivacyRisk:          ConsentRisk(rec.Consent),
		Position:             CompetitivePosition(rec),
	}
	return rec
}
