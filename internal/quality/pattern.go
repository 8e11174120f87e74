package quality

import (
	"fmt"
	"strings"
)

// Pattern analysis thresholds. Rates are percentages of the full history.
const (
	// MinHistoryForPattern is the minimum number of answers before any
	// pattern verdict is produced. Early respondents are never flagged.
	MinHistoryForPattern = 5

	// duplicateRatioFloor: below this distinct/total ratio the history is
	// considered near-duplicate.
	duplicateRatioFloor = 0.6

	// recentWindow and recentQualityFloor drive the quality-decline check.
	recentWindow       = 5
	recentQualityFloor = 25
)

// IssueType classifies the dominant problem in a suspicious history.
type IssueType string

const (
	IssueNone       IssueType = "none"
	IssueGibberish  IssueType = "gibberish"
	IssueSpeed      IssueType = "speed"
	IssueRepetition IssueType = "repetition"
	IssueQuality    IssueType = "quality"
	IssueMultiple   IssueType = "multiple"
	IssueAbsent     IssueType = ""
)

// HistoryEntry is one answered question as seen by the aggregator.
// Attention-check responses are excluded by the caller.
type HistoryEntry struct {
	Answer    string
	TimeSpent int // seconds
}

// PatternConfig carries the externally configurable thresholds.
type PatternConfig struct {
	FastResponseSeconds int     // responses faster than this count as "fast"
	SuspiciousRatePct   float64 // rate at which a signal flips the verdict
}

// DefaultPatternConfig mirrors the production defaults.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{FastResponseSeconds: 8, SuspiciousRatePct: 30}
}

// PatternVerdict is the aggregate judgment over a respondent's history.
type PatternVerdict struct {
	Suspicious    bool      `json:"suspicious"`
	Warnings      []string  `json:"warnings"`
	NoneRate      float64   `json:"noneRate"`
	GibberishRate float64   `json:"gibberishRate"`
	FastRate      float64   `json:"fastResponseRate"`
	PrimaryIssue  IssueType `json:"primaryIssueType"`
}

// AnalyzePattern produces a suspicious-pattern verdict over the full answer
// history. It is a pure function of its input: callers supply the complete
// up-to-date history on every call.
func AnalyzePattern(history []HistoryEntry, cfg PatternConfig) PatternVerdict {
	v := PatternVerdict{Warnings: []string{}}

	if len(history) < MinHistoryForPattern {
		return v
	}

	total := len(history)
	noneCount, gibberishCount, fastCount := 0, 0, 0
	seen := map[string]bool{}
	for _, entry := range history {
		analysis := Analyze(entry.Answer)
		if analysis.IsNoneResponse {
			noneCount++
		}
		if analysis.IsGibberish {
			gibberishCount++
		}
		if entry.TimeSpent < cfg.FastResponseSeconds {
			fastCount++
		}
		seen[normalizeAnswer(entry.Answer)] = true
	}

	v.NoneRate = float64(noneCount) / float64(total) * 100
	v.GibberishRate = float64(gibberishCount) / float64(total) * 100
	v.FastRate = float64(fastCount) / float64(total) * 100

	issueCount := 0
	flag := func(issue IssueType, warning string) {
		v.Suspicious = true
		v.Warnings = append(v.Warnings, warning)
		issueCount++
		if v.PrimaryIssue == IssueAbsent {
			v.PrimaryIssue = issue
		}
	}

	// Conditions are checked in a fixed order so the primary issue is
	// stable across runs.
	if v.NoneRate >= cfg.SuspiciousRatePct {
		flag(IssueNone, fmt.Sprintf(`High rate of "none" responses (%.1f%%)`, v.NoneRate))
	}
	if v.GibberishRate >= cfg.SuspiciousRatePct {
		flag(IssueGibberish, fmt.Sprintf("High rate of gibberish responses (%.1f%%)", v.GibberishRate))
	}
	if v.FastRate >= cfg.SuspiciousRatePct {
		flag(IssueSpeed, fmt.Sprintf("High rate of very quick responses (%.1f%% completed in under %d seconds)", v.FastRate, cfg.FastResponseSeconds))
	}
	if float64(len(seen)) < float64(total)*duplicateRatioFloor {
		flag(IssueRepetition, "Many similar or identical responses")
	}
	if recentAverageScore(history) < recentQualityFloor {
		flag(IssueQuality, "Overall response quality is very low")
	}

	if issueCount > 1 {
		v.PrimaryIssue = IssueMultiple
	}
	return v
}

func normalizeAnswer(answer string) string {
	return strings.ToLower(strings.TrimSpace(answer))
}

// recentAverageScore is the mean quality score over the most recent window.
func recentAverageScore(history []HistoryEntry) float64 {
	start := len(history) - recentWindow
	if start < 0 {
		start = 0
	}
	recent := history[start:]
	sum := 0
	for _, entry := range recent {
		sum += Analyze(entry.Answer).Score
	}
	return float64(sum) / float64(len(recent))
}
