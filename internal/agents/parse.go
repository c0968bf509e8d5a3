package agents

import (
	"regexp"
	"strconv"
	"strings"

	"scriptsmith/internal/script"
)

// VerdictNotFound is the feedback used when the evaluation has no verdict.
const VerdictNotFound = "Verdict not found."

func labelPattern(label string) *regexp.Regexp {
	// Accepts "LABEL: 2", "LABEL: [2.0]", "**LABEL**: 2/2.5", "- LABEL = 2,5".
	// Labels must start a line so prose such as "a total: 9" is ignored.
	return regexp.MustCompile(`(?im)^[\s*#-]*` + label + `\**\s*[:=]\s*\**\s*\[?\s*(\d+(?:[.,]\d+)?)`)
}

var (
	hookRe      = labelPattern("SCORE_HOOK")
	valueRe     = labelPattern("SCORE_VALUE")
	retentionRe = labelPattern("SCORE_RETENTION")
	ctaRe       = labelPattern("SCORE_CTA")
	totalRe     = labelPattern("TOTAL")
	verdictRe   = regexp.MustCompile(`(?im)^[\s*#-]*VERDICT\**\s*:\s*\**\s*(.+)$`)
)

// ParseEvaluation extracts scores and the verdict from raw evaluator text.
// Missing fields default to zero and VerdictNotFound; ok is false when no
// field at all was recognized. Sub-scores are clamped to [0, MaxSubScore]
// and the total to [0, MaxTotal]. When TOTAL is absent the sum of the
// sub-scores is used. Passed is left false for the caller to decide.
func ParseEvaluation(raw string) (ev script.Evaluation, ok bool) {
	var found bool
	field := func(re *regexp.Regexp, max float64) (float64, bool) {
		m := re.FindStringSubmatch(raw)
		if m == nil {
			return 0, false
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			return 0, false
		}
		found = true
		return clamp(v, max), true
	}

	ev.Scores.Hook, _ = field(hookRe, script.MaxSubScore)
	ev.Scores.Value, _ = field(valueRe, script.MaxSubScore)
	ev.Scores.Retention, _ = field(retentionRe, script.MaxSubScore)
	ev.Scores.CTA, _ = field(ctaRe, script.MaxSubScore)
	total, hasTotal := field(totalRe, script.MaxTotal)
	if !hasTotal {
		total = clamp(ev.Scores.Sum(), script.MaxTotal)
	}
	ev.Total = total

	ev.Feedback = VerdictNotFound
	if m := verdictRe.FindStringSubmatch(raw); m != nil {
		if v := strings.Trim(strings.TrimSpace(m[1]), "*[] "); v != "" {
			ev.Feedback = v
			found = true
		}
	}
	ev.FullEvaluation = raw
	return ev, found
}

func clamp(v, max float64) float64 {
	if v < 0 {
		return 0
	}
	if v > max {
		return max
	}
	return v
}
