package generator

import (
	"fmt"
	"strings"
	"sync"

	"github.com/osteele/liquid"
)

// planPromptTemplate is the Liquid template for the drafting prompt.
// The model must answer with a bare JSON object; systemPrompt pins the
// schema and the rule set the validator will enforce.
const planPromptTemplate = `Draft the {{ month_name }} {{ year }} campaign calendar for client {{ client_id }}.

Monthly revenue goal: ${{ revenue_goal }}.
{% if growth_objective != "" %}Growth objective: {{ growth_objective }}.
{% endif %}
Revenue targets by segment (primary first):
{% for t in targets %}- {{ t.segment }}: ${{ t.target_revenue }} ({{ t.share_pct }}% share)
{% endfor %}
Segment definitions:
{% for s in segments %}- {{ s.name }}: {{ s.definition }}
{% endfor %}
{% if holidays.size > 0 %}Holidays this month (good anchors for promotional sends):
{% for h in holidays %}- {{ h.date }}: {{ h.name }}
{% endfor %}{% endif %}
{% if historical_notes != "" %}Historical performance notes:
{{ historical_notes }}
{% endif %}
{% if feedback.size > 0 %}Your previous draft violated these scheduling rules. Fix every one:
{% for f in feedback %}- {{ f }}
{% endfor %}{% endif %}`

const systemPrompt = `You plan email/SMS marketing calendars. Reply with a single JSON object and nothing else:
{"campaigns":[{"channel":"email|sms","send_date":"YYYY-MM-DD","send_time":"HH:MM","segment_ref":"...","campaign_type":"promotional|nurture|flash_sale|resend|other","is_resend":false,"subject":"..."}]}

Scheduling rules you must satisfy:
- At most 2 non-resend email sends per segment per ISO calendar week.
- The "unengaged" segment may exceed that cap by at most 2 sends across the whole month.
- At most 1 promotional campaign in any rolling 7-day window.
- Every resend (is_resend=true) must be dated exactly one day after its source campaign.
- At least one send each month must target the reserved "full list" segment.
- Keep "unengaged" sends at or below 15% of total monthly sends.
- Every send_date must fall inside the requested month.`

var (
	promptOnce       sync.Once
	promptTmpl       *liquid.Template
	promptCompileErr error
)

// BuildPrompt renders the drafting prompt for the given context.
func BuildPrompt(gc Context) (string, error) {
	promptOnce.Do(func() {
		engine := liquid.NewEngine()
		promptTmpl, promptCompileErr = engine.ParseTemplate([]byte(planPromptTemplate))
	})
	if promptCompileErr != nil {
		return "", fmt.Errorf("compile prompt template: %w", promptCompileErr)
	}

	targets := make([]map[string]any, len(gc.Targets))
	for i, t := range gc.Targets {
		targets[i] = map[string]any{
			"segment":        t.Segment,
			"target_revenue": fmt.Sprintf("%.2f", t.TargetRevenue),
			"share_pct":      fmt.Sprintf("%.0f", t.Share*100),
		}
	}
	segments := make([]map[string]any, len(gc.Segments))
	for i, s := range gc.Segments {
		segments[i] = map[string]any{"name": s.Name, "definition": s.Definition}
	}
	holidays := make([]map[string]any, len(gc.Holidays))
	for i, h := range gc.Holidays {
		holidays[i] = map[string]any{"name": h.Name, "date": h.Date.String()}
	}

	bindings := map[string]any{
		"client_id":        gc.ClientID,
		"year":             gc.Year,
		"month_name":       gc.Month.String(),
		"revenue_goal":     fmt.Sprintf("%.2f", gc.RevenueGoal),
		"growth_objective": gc.GrowthObjective,
		"targets":          targets,
		"segments":         segments,
		"holidays":         holidays,
		"historical_notes": gc.HistoricalNotes,
		"feedback":         gc.Feedback,
	}

	out, err := promptTmpl.Render(bindings)
	if err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
