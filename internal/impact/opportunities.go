package impact

import (
	"math"
	"sort"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

// Opportunities mirrors the pain-point triggers as positive annual gains
// with an ROI narrative, sorted by explicit ascending priority. Zero-gain
// entries (compliance, tag governance) are valid and always included when
// triggered.
func Opportunities(records []domain.DomainRecord, pub *domain.PublisherContext) []domain.Opportunity {
	impressions := EffectiveMonthlyImpressions(records, pub)
	cpm := cpmFor(pub)
	annualSpend := impressions / 1000 * cpm * 12
	opps := make([]domain.Opportunity, 0, 6)

	if len(domainsWhere(records, hasBlockedCookies)) > 0 {
		gain := MonthlyRevenueLoss(impressions, averageGap(records), cpm) * 12
		opps = append(opps, domain.Opportunity{
			ID:                  "recover-safari-inventory",
			Title:               "Recover Safari and Firefox inventory",
			Description:         "Deploy a durable first-party identifier so inventory currently invisible to buyers becomes addressable again.",
			EstimatedAnnualGain: gain,
			Timeline:            "2-4 weeks",
			ROI:                 "Recovered impressions clear at full CPM instead of the penalized remnant rate.",
			Priority:            1,
			Product:             "first-party identity",
		})
	}

	if len(domainsWhere(records, lacksConversionAPI)) > 0 {
		opps = append(opps, domain.Opportunity{
			ID:                  "activate-conversion-api",
			Title:               "Activate a conversion API",
			Description:         "Stand up a server-to-server conversion path so performance budgets can attribute spend on owned inventory.",
			EstimatedAnnualGain: int64(math.Round(annualSpend * capiCaptureRate)),
			Timeline:            "4-8 weeks",
			ROI:                 "Captures performance budgets currently defaulting to walled gardens.",
			Priority:            2,
			Product:             "conversion api gateway",
		})
	}

	if len(domainsWhere(records, rentsIdentity)) > 0 {
		opps = append(opps, domain.Opportunity{
			ID:                  "consolidate-identity",
			Title:               "Replace rented identity with an owned ID",
			Description:         "Move from a third-party identity graph to a publisher-controlled identifier and stop paying per-transaction graph fees.",
			EstimatedAnnualGain: int64(math.Round(annualSpend * identityMarginLeak)),
			Timeline:            "6-12 weeks",
			ROI:                 "Reclaims the margin currently leaking to identity intermediaries.",
			Priority:            3,
			Product:             "publisher id",
		})
	}

	if len(domainsWhere(records, isPrivacyHighRisk)) > 0 {
		opps = append(opps, domain.Opportunity{
			ID:                  "fix-consent-compliance",
			Title:               "Fix consent compliance",
			Description:         "Gate all tracking behind consent and deploy a TCF-compliant CMP before a regulator forces the issue.",
			EstimatedAnnualGain: 0,
			Timeline:            "1-2 weeks",
			ROI:                 "Risk avoidance: removes regulatory exposure rather than adding revenue.",
			Priority:            4,
			Product:             "consent audit",
		})
	}

	if len(domainsWhere(records, hasCookieBloat)) > 0 {
		opps = append(opps, domain.Opportunity{
			ID:                  "rationalize-cookies",
			Title:               "Rationalize the cookie footprint",
			Description:         "Audit and retire redundant tracking cookies to cut data-platform costs and page weight.",
			EstimatedAnnualGain: 0,
			Timeline:            "2-6 weeks",
			ROI:                 "Cost avoidance on downstream data platforms; faster pages lift viewability.",
			Priority:            5,
			Product:             "tag governance",
		})
	}

	if pub != nil && pub.OwnedDomains > 1 {
		if len(domainsWhere(records, lacksOwnedID)) > 0 {
			opps = append(opps, domain.Opportunity{
				ID:                  "unify-cross-domain-identity",
				Title:               "Unify identity across owned domains",
				Description:         "Extend one first-party identifier across the whole portfolio so audiences deduplicate cleanly.",
				EstimatedAnnualGain: 0,
				Timeline:            "6-10 weeks",
				ROI:                 "Deduplicated reach commands premium pricing in cross-domain deals.",
				Priority:            6,
				Product:             "first-party identity",
			})
		}
	}

	sort.SliceStable(opps, func(i, j int) bool {
		return opps[i].Priority < opps[j].Priority
	})
	return opps
}
