package planner

import (
	"math"
	"sort"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// Rule-set constants. The weekly cap and the unengaged monthly pool are
// product policy; the deliverability threshold is advisory only.
const (
	weeklySendCap          = 2
	unengagedMonthlyPool   = 2
	promoWindowDays        = 7
	deliverabilityMaxShare = 15.0 // percent of monthly sends
)

// EvaluateRules runs the full send-cap rule set over the proposed
// campaigns and returns every violation found. All rules run regardless
// of earlier findings; nothing short-circuits and nothing is mutated.
func EvaluateRules(campaigns []domain.Campaign) []domain.Violation {
	var out []domain.Violation
	out = append(out, checkWeeklyCaps(campaigns)...)
	out = append(out, checkPromoOverlap(campaigns)...)
	out = append(out, checkResendAdjacency(campaigns)...)
	out = append(out, checkFullListInclusion(campaigns)...)
	out = append(out, checkDeliverability(campaigns)...)
	return out
}

// checkWeeklyCaps enforces at most two non-resend email sends per
// (ISO week, segment). The unengaged segment instead draws over-cap
// sends from a monthly pool of two: its weekly overages are summed
// across the month, and only a drained pool is a violation.
func checkWeeklyCaps(campaigns []domain.Campaign) []domain.Violation {
	type weekSeg struct {
		week    string
		segment string
	}
	counts := make(map[weekSeg]int)
	display := make(map[string]string) // normalized -> first-seen name
	var monthKey string
	for _, c := range campaigns {
		if c.Channel != domain.ChannelEmail || c.IsResend {
			continue
		}
		if monthKey == "" {
			monthKey = MonthKey(c.SendDate.Year, c.SendDate.Month)
		}
		norm := domain.NormalizeSegmentName(c.SegmentRef)
		if _, ok := display[norm]; !ok {
			display[norm] = c.SegmentRef
		}
		counts[weekSeg{week: WeekKey(c.SendDate), segment: norm}]++
	}

	// Deterministic order for reporting.
	keys := make([]weekSeg, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].week != keys[j].week {
			return keys[i].week < keys[j].week
		}
		return keys[i].segment < keys[j].segment
	})

	var out []domain.Violation
	unengagedOverage := 0
	for _, k := range keys {
		n := counts[k]
		if n <= weeklySendCap {
			continue
		}
		if domain.IsUnengaged(k.segment) {
			unengagedOverage += n - weeklySendCap
			continue
		}
		out = append(out, domain.WeeklyCapExceeded{Week: k.week, Segment: display[k.segment], Count: n})
	}
	if unengagedOverage > unengagedMonthlyPool {
		out = append(out, domain.UnengagedAllowanceExceeded{Month: monthKey, Count: unengagedOverage})
	}
	return out
}

// checkPromoOverlap enforces at most one promotional campaign in any
// rolling 7-day window. Each promotional send opens a window; a window
// holding two or more promos is reported once, keyed by its start date.
func checkPromoOverlap(campaigns []domain.Campaign) []domain.Violation {
	var promos []domain.Date
	for _, c := range campaigns {
		if c.Type == domain.TypePromotional {
			promos = append(promos, c.SendDate)
		}
	}
	sort.Slice(promos, func(i, j int) bool { return promos[i].Before(promos[j]) })

	var out []domain.Violation
	for i, start := range promos {
		if i > 0 && promos[i-1] == start {
			continue // one window per distinct start date
		}
		count := 0
		for _, d := range promos {
			if delta := start.DaysUntil(d); delta >= 0 && delta < promoWindowDays {
				count++
			}
		}
		if count > 1 {
			out = append(out, domain.PromoOverlap{WindowStart: start, Count: count})
		}
	}
	return out
}

// checkResendAdjacency requires every resend to be dated exactly one day
// after some other campaign in the plan (its source).
func checkResendAdjacency(campaigns []domain.Campaign) []domain.Violation {
	dates := make(map[domain.Date][]string) // date -> campaign IDs
	for _, c := range campaigns {
		dates[c.SendDate] = append(dates[c.SendDate], c.ID)
	}

	var out []domain.Violation
	for _, c := range campaigns {
		if !c.IsResend {
			continue
		}
		sourceDate := c.SendDate.AddDays(-1)
		hasSource := false
		for _, id := range dates[sourceDate] {
			if id != c.ID {
				hasSource = true
				break
			}
		}
		if !hasSource {
			out = append(out, domain.OrphanResend{CampaignID: c.ID, SendDate: c.SendDate})
		}
	}
	return out
}

// checkFullListInclusion requires at least one send to the reserved
// full-list audience across the month. An empty plan vacuously fails.
func checkFullListInclusion(campaigns []domain.Campaign) []domain.Violation {
	for _, c := range campaigns {
		if domain.IsFullList(c.SegmentRef) {
			return nil
		}
	}
	return []domain.Violation{domain.MissingFullListSend{}}
}

// checkDeliverability emits an advisory warning when the unengaged
// segment exceeds 15% of total monthly sends.
func checkDeliverability(campaigns []domain.Campaign) []domain.Violation {
	if len(campaigns) == 0 {
		return nil
	}
	unengaged := 0
	for _, c := range campaigns {
		if domain.IsUnengaged(c.SegmentRef) {
			unengaged++
		}
	}
	pct := 100 * float64(unengaged) / float64(len(campaigns))
	pct = math.Round(pct*100) / 100
	if pct > deliverabilityMaxShare {
		return []domain.Violation{domain.DeliverabilityWarning{Pct: pct}}
	}
	return nil
}
