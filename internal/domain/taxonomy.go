package domain

// Graded labels produced by the classifier. Each carries a fixed ordinal so
// portfolio folds can take the worst case without string comparisons.

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities low(0) .. critical(3).
func (s Severity) Rank() int {
	switch s {
	case SeverityMedium:
		return 1
	case SeverityHigh:
		return 2
	case SeverityCritical:
		return 3
	default:
		return 0
	}
}

func MaxSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type PrivacyRisk string

const (
	PrivacyCompliant PrivacyRisk = "compliant"
	PrivacyModerate  PrivacyRisk = "moderate"
	PrivacyHighRisk  PrivacyRisk = "high-risk"
)

func (r PrivacyRisk) Rank() int {
	switch r {
	case PrivacyModerate:
		return 1
	case PrivacyHighRisk:
		return 2
	default:
		return 0
	}
}

func MaxPrivacyRisk(a, b PrivacyRisk) PrivacyRisk {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

// Position describes where a domain sits relative to walled gardens.
type Position string

const (
	PositionParity       Position = "walled-garden-parity"
	PositionMiddlePack   Position = "middle-pack"
	PositionAtRisk       Position = "at-risk"
	PositionCommoditized Position = "commoditized"
)

// Rank orders positions best(0) .. worst(3).
func (p Position) Rank() int {
	switch p {
	case PositionMiddlePack:
		return 1
	case PositionAtRisk:
		return 2
	case PositionCommoditized:
		return 3
	default:
		return 0
	}
}

func WorstPosition(a, b Position) Position {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

type Trend string

const (
	TrendGrowing   Trend = "growing"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)
