// Package planner implements the deterministic core of campaign calendar
// planning: revenue distribution across segments, the send-cap rule set,
// and full-plan validation. Everything here is pure computation over an
// immutable plan snapshot; there is no I/O and no hidden state, so the
// same plan always yields the same report.
package planner

import (
	"time"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// Validate runs the rule set plus the segment-reference cross-check over
// a full month's plan and partitions the findings into blocking
// violations and advisory warnings. Reserved segment names (full list,
// unengaged) resolve without a segment table entry.
func Validate(plan domain.CalendarPlan, segments []domain.Segment) domain.ValidationReport {
	findings := EvaluateRules(plan.Campaigns)
	findings = append(findings, checkSegmentRefs(plan.Campaigns, segments)...)

	report := domain.ValidationReport{CheckedAt: time.Now().UTC()}
	for _, f := range findings {
		if f.Blocking() {
			report.Violations = append(report.Violations, f)
		} else {
			report.Warnings = append(report.Warnings, f)
		}
	}
	report.Valid = len(report.Violations) == 0
	return report
}

// checkSegmentRefs reports campaigns whose segment reference does not
// resolve. One violation per distinct unknown name.
func checkSegmentRefs(campaigns []domain.Campaign, segments []domain.Segment) []domain.Violation {
	known := make(map[string]bool, len(segments))
	for _, s := range segments {
		known[domain.NormalizeSegmentName(s.Name)] = true
	}

	seen := make(map[string]bool)
	var out []domain.Violation
	for _, c := range campaigns {
		name := domain.NormalizeSegmentName(c.SegmentRef)
		if known[name] || domain.IsFullList(name) || domain.IsUnengaged(name) {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, domain.UnknownSegment{Name: c.SegmentRef})
	}
	return out
}
