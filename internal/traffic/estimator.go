// Package traffic converts a Tranco-style traffic rank into estimated
// pageview and impression volume. Ranks map to pageviews through a power-law
// curve fitted against external traffic-panel data; the fit degrades with
// rank, which the confidence tier makes explicit.
package traffic

import (
	"math"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

const (
	// pageviews/year = coefficient * rank^exponent
	pageviewCoefficient = 7.73e12
	pageviewExponent    = -1.06

	// DefaultAdSlotsPerPage is the impressions-per-pageview multiplier used
	// when the caller does not override it.
	DefaultAdSlotsPerPage = 4.0

	highConfidenceMaxRank   = 100_000
	mediumConfidenceMaxRank = 1_000_000

	// Rank movements inside this band count as noise, not a trend.
	trendThreshold = 1000
)

type Estimate struct {
	AnnualPageviews    float64
	MonthlyPageviews   float64
	MonthlyImpressions float64
	Confidence         domain.Confidence
}

// FromRank estimates traffic volume for a positive rank. Rank zero or below
// means the rank is unknown; that yields a zero estimate rather than an
// error so callers can aggregate without special cases.
func FromRank(rank int, slotsPerPage float64) Estimate {
	if rank <= 0 {
		return Estimate{Confidence: domain.ConfidenceLow}
	}
	if slotsPerPage <= 0 {
		slotsPerPage = DefaultAdSlotsPerPage
	}
	annual := pageviewCoefficient * math.Pow(float64(rank), pageviewExponent)
	monthly := annual / 12
	return Estimate{
		AnnualPageviews:    annual,
		MonthlyPageviews:   monthly,
		MonthlyImpressions: monthly * slotsPerPage,
		Confidence:         confidenceForRank(rank),
	}
}

func confidenceForRank(rank int) domain.Confidence {
	switch {
	case rank <= highConfidenceMaxRank:
		return domain.ConfidenceHigh
	case rank <= mediumConfidenceMaxRank:
		return domain.ConfidenceMedium
	default:
		return domain.ConfidenceLow
	}
}

// Trend classifies a newest-first rank history. Change is oldest minus
// newest, so a positive change means the rank improved. Fewer than two
// points is a defined boundary: stable with zero change.
func Trend(history []domain.RankPoint) (domain.Trend, int) {
	if len(history) < 2 {
		return domain.TrendStable, 0
	}
	newest := history[0].Rank
	oldest := history[len(history)-1].Rank
	change := oldest - newest
	switch {
	case change > trendThreshold:
		return domain.TrendGrowing, change
	case change < -trendThreshold:
		return domain.TrendDeclining, change
	default:
		return domain.TrendStable, change
	}
}
