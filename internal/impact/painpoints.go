package impact

import (
	"math"
	"sort"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// PainPoints evaluates every rule independently against the scored result
// set and returns one entry per matched condition, sorted worst-first by
// severity. Rules only look at scored records; failed domains trigger
// nothing.
func PainPoints(records []domain.DomainRecord, pub *domain.PublisherContext) []domain.PainPoint {
	impressions := EffectiveMonthlyImpressions(records, pub)
	cpm := cpmFor(pub)
	annualSpend := impressions / 1000 * cpm * 12
	pains := make([]domain.PainPoint, 0, 6)

	if affected := domainsWhere(records, hasBlockedCookies); len(affected) > 0 {
		gap := averageGap(records)
		severity := domain.SeverityMedium
		switch {
		case gap > 30:
			severity = domain.SeverityCritical
		case gap > 20:
			severity = domain.SeverityHigh
		}
		loss := MonthlyRevenueLoss(impressions, gap, cpm) * 12
		pains = append(pains, domain.PainPoint{
			ID:                  "safari-firefox-blindness",
			Title:               "Blind to Safari and Firefox audiences",
			Description:         "Cookies used for targeting are blocked by browser privacy features, leaving a share of inventory unaddressable and sold at discounted CPMs.",
			Severity:            severity,
			EstimatedAnnualLoss: &loss,
			AffectedDomains:     affected,
		})
	}

	if affected := domainsWhere(records, lacksConversionAPI); len(affected) > 0 {
		loss := int64(math.Round(annualSpend * capiCaptureRate))
		pains = append(pains, domain.PainPoint{
			ID:                  "no-conversion-api",
			Title:               "Locked out of performance budgets",
			Description:         "Without a server-side conversion path, performance advertisers cannot attribute spend and route budgets to walled gardens instead.",
			Severity:            domain.SeverityCritical,
			EstimatedAnnualLoss: &loss,
			AffectedDomains:     affected,
		})
	}

	if affected := domainsWhere(records, hasCookieBloat); len(affected) > 0 {
		pains = append(pains, domain.PainPoint{
			ID:              "cookie-bloat-tax",
			Title:           "Cookie bloat tax",
			Description:     "Excess tracking cookies inflate downstream data-platform costs and page weight without adding addressable reach.",
			Severity:        domain.SeverityMedium,
			AffectedDomains: affected,
		})
	}

	if affected := domainsWhere(records, rentsIdentity); len(affected) > 0 {
		loss := int64(math.Round(annualSpend * identityMarginLeak))
		pains = append(pains, domain.PainPoint{
			ID:                  "identity-tech-tax",
			Title:               "Identity tech tax",
			Description:         "Relying on a rented third-party identity graph without an owned ID leaks margin to intermediaries on every transaction.",
			Severity:            domain.SeverityHigh,
			EstimatedAnnualLoss: &loss,
			AffectedDomains:     affected,
		})
	}

	if affected := domainsWhere(records, isPrivacyHighRisk); len(affected) > 0 {
		pains = append(pains, domain.PainPoint{
			ID:              "regulatory-exposure",
			Title:           "Regulatory exposure",
			Description:     "Tracking fires before consent or without a CMP, exposing the portfolio to regulatory action under GDPR and similar regimes.",
			Severity:        domain.SeverityCritical,
			AffectedDomains: affected,
		})
	}

	if pub != nil && pub.OwnedDomains > 1 {
		if affected := domainsWhere(records, lacksOwnedID); len(affected) > 0 {
			pains = append(pains, domain.PainPoint{
				ID:              "cross-domain-dedup",
				Title:           "Cross-domain deduplication impossible",
				Description:     "Multiple owned domains without a shared first-party ID cannot deduplicate audiences, overstating reach and double-paying for the same users.",
				Severity:        domain.SeverityHigh,
				AffectedDomains: affected,
			})
		}
	}

	sort.SliceStable(pains, func(i, j int) bool {
		return pains[i].Severity.Rank() > pains[j].Severity.Rank()
	})
	return pains
}

func cpmFor(pub *domain.PublisherContext) float64 {
	if pub == nil {
		return fallbackCPM
	}
	return CPMForVertical(pub.Vertical)
}

func domainsWhere(records []domain.DomainRecord, match func(domain.DomainRecord) bool) []string {
	var names []string
	for _, rec := range records {
		if rec.Scored() && match(rec) {
			names = append(names, rec.Name)
		}
	}
	return names
}

func hasBlockedCookies(rec domain.DomainRecord) bool {
	return rec.Cookies.SafariBlocked > 0
}

func lacksConversionAPI(rec domain.DomainRecord) bool {
	return !rec.Capabilities.Has(domain.CapConversionAPI)
}

func hasCookieBloat(rec domain.DomainRecord) bool {
	return rec.Scores.IDBloat.Rank() >= domain.SeverityHigh.Rank()
}

func rentsIdentity(rec domain.DomainRecord) bool {
	return rec.Capabilities.Has(domain.CapIdentityGraph) && !rec.Capabilities.Has(domain.CapOwnedID)
}

func isPrivacyHighRisk(rec domain.DomainRecord) bool {
	return rec.Scores.PrivacyRisk == domain.PrivacyHighRisk
}

func lacksOwnedID(rec domain.DomainRecord) bool {
	return !rec.Capabilities.Has(domain.CapOwnedID)
}
