package domain

import "time"

// Core domain models used internally and on the API surface. Raw telemetry
// (cookies, vendor presence, consent, traffic) is collected by the external
// scan backend; everything computed from it lives in DomainScores and the
// derived summary types.

type ScanStatus string

const (
	ScanPending    ScanStatus = "pending"
	ScanProcessing ScanStatus = "processing"
	ScanCompleted  ScanStatus = "completed"
	ScanFailed     ScanStatus = "failed"
)

// Terminal reports whether no further synchronization happens for this scan.
func (s ScanStatus) Terminal() bool {
	return s == ScanCompleted || s == ScanFailed
}

// Outcome is the per-domain scan result.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailed  Outcome = "failed"
	OutcomeTimeout Outcome = "timeout"
	OutcomeBlocked Outcome = "blocked"
)

type CookieStats struct {
	Total         int `json:"total"`
	FirstParty    int `json:"first_party"`
	ThirdParty    int `json:"third_party"`
	SafariBlocked int `json:"safari_blocked"`
	Session       int `json:"session"`
	Persistent    int `json:"persistent"`
}

type Consent struct {
	CMPVendor          string `json:"cmp_vendor,omitempty"` // empty means no CMP detected
	TCFCompliant       bool   `json:"tcf_compliant"`
	LoadsBeforeConsent bool   `json:"loads_before_consent"`
}

// RankPoint is one day of traffic-rank history.
type RankPoint struct {
	Date time.Time `json:"date"`
	Rank int       `json:"rank"`
}

type TrafficStats struct {
	Rank               int         `json:"rank"`
	MonthlyPageviews   float64     `json:"monthly_pageviews"`
	MonthlyImpressions float64     `json:"monthly_impressions"`
	Confidence         Confidence  `json:"confidence"`
	History            []RankPoint `json:"history,omitempty"` // newest-first
	Trend              Trend       `json:"trend,omitempty"`
	RankChange         int         `json:"rank_change"`
}

// DomainScores holds everything the classifier derives for one domain.
// Present only when the scan outcome is success; failed domains must never
// pollute portfolio averages.
type DomainScores struct {
	AddressabilityGapPct float64     `json:"addressability_gap_pct"`
	SafariLossPct        float64     `json:"estimated_safari_loss_pct"`
	IDBloat              Severity    `json:"id_bloat"`
	PrivacyRisk          PrivacyRisk `json:"privacy_risk"`
	Position             Position    `json:"competitive_position"`
}

type DomainRecord struct {
	ID           string        `json:"id"`
	ScanID       string        `json:"scan_id"`
	Name         string        `json:"domain"`
	Outcome      Outcome       `json:"outcome"`
	Cookies      CookieStats   `json:"cookies"`
	Capabilities CapabilitySet `json:"capabilities"`
	SSPs         []string      `json:"ssps,omitempty"`
	Consent      Consent       `json:"consent"`
	Traffic      TrafficStats  `json:"traffic"`
	Scores       *DomainScores `json:"scores,omitempty"`
}

// Scored reports whether the record carries computed scores.
func (r DomainRecord) Scored() bool {
	return r.Outcome == OutcomeSuccess && r.Scores != nil
}

// PublisherContext is caller-supplied business context, immutable for the
// lifetime of one scan.
type PublisherContext struct {
	DeclaredMonthlyImpressions int64  `json:"declared_monthly_impressions,omitempty"`
	Vertical                   string `json:"vertical,omitempty"`
	OwnedDomains               int    `json:"owned_domains,omitempty"`
}

type Scan struct {
	ID               string            `json:"id"`
	Status           ScanStatus        `json:"status"`
	TotalDomains     int               `json:"total_domains"`
	CompletedDomains int               `json:"completed_domains"`
	Context          *PublisherContext `json:"publisher_context,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

type PainPoint struct {
	ID                  string   `json:"id"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Severity            Severity `json:"severity"`
	EstimatedAnnualLoss *int64   `json:"estimated_annual_loss,omitempty"`
	AffectedDomains     []string `json:"affected_domains"`
}

type Opportunity struct {
	ID                  string `json:"id"`
	Title               string `json:"title"`
	Description         string `json:"description"`
	EstimatedAnnualGain int64  `json:"estimated_annual_gain"`
	Timeline            string `json:"timeline"`
	ROI                 string `json:"roi"`
	Priority            int    `json:"priority"` // lower sorts first
	Product             string `json:"product"`
}

// ScanSummary is the externally consumed roll-up, recomputed from scratch on
// every result-set change.
type ScanSummary struct {
	TotalRevenueLoss        int64         `json:"total_revenue_loss"`
	AvgAddressabilityGapPct float64       `json:"avg_addressability_gap_pct"`
	WorstIDBloat            Severity      `json:"worst_id_bloat"`
	WorstPrivacyRisk        PrivacyRisk   `json:"worst_privacy_risk"`
	WorstPosition           Position      `json:"worst_position"`
	ReadinessGrade          string        `json:"readiness_grade"`
	PainPoints              []PainPoint   `json:"pain_points"`
	Opportunities           []Opportunity `json:"opportunities"`
}
