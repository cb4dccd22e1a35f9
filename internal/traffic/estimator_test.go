package traffic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishanraja/adfixus-sales-sub001/internal/domain"
)

func TestFromRankMonotonicDecrease(t *testing.T) {
	ranks := []int{1, 50, 1000, 99_999, 100_001, 500_000, 2_000_000}
	prev := FromRank(ranks[0], DefaultAdSlotsPerPage)
	for _, r := range ranks[1:] {
		cur := FromRank(r, DefaultAdSlotsPerPage)
		assert.GreaterOrEqual(t, prev.MonthlyPageviews, cur.MonthlyPageviews, "rank %d", r)
		prev = cur
	}
}

func TestFromRankConfidenceBands(t *testing.T) {
	tests := []struct {
		rank int
		want domain.Confidence
	}{
		{1, domain.ConfidenceHigh},
		{100_000, domain.ConfidenceHigh},
		{100_001, domain.ConfidenceMedium},
		{1_000_000, domain.ConfidenceMedium},
		{1_000_001, domain.ConfidenceLow},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FromRank(tt.rank, 0).Confidence, "rank %d", tt.rank)
	}
}

func TestFromRankInvalidRank(t *testing.T) {
	for _, r := range []int{0, -1, -99} {
		est := FromRank(r, DefaultAdSlotsPerPage)
		assert.Zero(t, est.AnnualPageviews, "rank %d", r)
		assert.Zero(t, est.MonthlyImpressions, "rank %d", r)
		assert.Equal(t, domain.ConfidenceLow, est.Confidence, "rank %d", r)
	}
}

func TestFromRankImpressionMultiplier(t *testing.T) {
	est := FromRank(10_000, 2.5)
	require.Positive(t, est.MonthlyPageviews)
	assert.InDelta(t, est.MonthlyPageviews*2.5, est.MonthlyImpressions, 1e-6)

	// Zero multiplier falls back to the default slot count.
	def := FromRank(10_000, 0)
	assert.InDelta(t, def.MonthlyPageviews*DefaultAdSlotsPerPage, def.MonthlyImpressions, 1e-6)
}

func TestTrend(t *testing.T) {
	tests := []struct {
		name       string
		history    []domain.RankPoint
		wantTrend  domain.Trend
		wantChange int
	}{
		{
			name:       "improved past threshold",
			history:    []domain.RankPoint{{Rank: 500}, {Rank: 2000}},
			wantTrend:  domain.TrendGrowing,
			wantChange: 1500,
		},
		{
			name:       "unchanged",
			history:    []domain.RankPoint{{Rank: 5000}, {Rank: 5000}},
			wantTrend:  domain.TrendStable,
			wantChange: 0,
		},
		{
			name:       "declined past threshold",
			history:    []domain.RankPoint{{Rank: 9000}, {Rank: 4000}},
			wantTrend:  domain.TrendDeclining,
			wantChange: -5000,
		},
		{
			name:       "inside noise band",
			history:    []domain.RankPoint{{Rank: 4200}, {Rank: 5000}},
			wantTrend:  domain.TrendStable,
			wantChange: 800,
		},
		{
			name:       "single point",
			history:    []domain.RankPoint{{Rank: 123}},
			wantTrend:  domain.TrendStable,
			wantChange: 0,
		},
		{
			name:       "empty history",
			history:    nil,
			wantTrend:  domain.TrendStable,
			wantChange: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend, change := Trend(tt.history)
			assert.Equal(t, tt.wantTrend, trend)
			assert.Equal(t, tt.wantChange, change)
		})
	}
}
