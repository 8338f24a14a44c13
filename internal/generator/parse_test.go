package generator

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emailpilot/emailpilot/internal/domain"
)

func TestParsePlanReply(t *testing.T) {
	reply := `{"campaigns":[
		{"channel":"email","send_date":"2025-03-05","send_time":"10:00","segment_ref":"full list","campaign_type":"promotional","subject":"Spring Sale"},
		{"channel":"sms","send_date":"2025-03-12","send_time":"14:30","segment_ref":"SegA","campaign_type":"nurture"}
	]}`

	plan, err := parsePlanReply(reply, testContext())
	require.NoError(t, err)
	require.Len(t, plan.Campaigns, 2)

	assert.Equal(t, "client-1", plan.ClientID)
	assert.Equal(t, time.March, plan.Month)
	assert.NotEmpty(t, plan.ID)
	assert.NotEmpty(t, plan.Campaigns[0].ID)
	assert.Equal(t, domain.ChannelEmail, plan.Campaigns[0].Channel)
	assert.Equal(t, domain.TypePromotional, plan.Campaigns[0].Type)
	assert.Equal(t, "2025-03-05", plan.Campaigns[0].SendDate.String())
	assert.Equal(t, domain.ChannelSMS, plan.Campaigns[1].Channel)
}

func TestParsePlanReplyMarkdownFence(t *testing.T) {
	reply := "Here is your calendar:\n```json\n" +
		`{"campaigns":[{"channel":"email","send_date":"2025-03-05","send_time":"09:00","segment_ref":"full list","campaign_type":"other"}]}` +
		"\n```\nLet me know if you want changes."

	plan, err := parsePlanReply(reply, testContext())
	require.NoError(t, err)
	assert.Len(t, plan.Campaigns, 1)
}

func TestParsePlanReplyResendFlagFromType(t *testing.T) {
	reply := `{"campaigns":[{"channel":"email","send_date":"2025-03-06","send_time":"10:00","segment_ref":"SegA","campaign_type":"resend"}]}`

	plan, err := parsePlanReply(reply, testContext())
	require.NoError(t, err)
	assert.True(t, plan.Campaigns[0].IsResend, "resend type implies is_resend")
}

func TestParsePlanReplyDefaultsBadFields(t *testing.T) {
	reply := `{"campaigns":[{"channel":"carrier-pigeon","send_date":"2025-03-06","send_time":"25:99","segment_ref":"SegA","campaign_type":"mystery"}]}`

	plan, err := parsePlanReply(reply, testContext())
	require.NoError(t, err)
	c := plan.Campaigns[0]
	assert.Equal(t, domain.ChannelEmail, c.Channel)
	assert.Equal(t, domain.TypeOther, c.Type)
	assert.Equal(t, "10:00", c.SendTime)
}

func TestParsePlanReplyErrors(t *testing.T) {
	_, err := parsePlanReply("I could not produce a calendar.", testContext())
	assert.True(t, errors.Is(err, ErrGenerationFailed))

	_, err = parsePlanReply(`{"campaigns":[{"send_date":"not-a-date"}]}`, testContext())
	assert.True(t, errors.Is(err, ErrGenerationFailed))
}

func TestBuildPromptIncludesTargetsAndFeedback(t *testing.T) {
	gc := testContext()
	gc.Targets = []domain.SegmentTarget{
		{Segment: "SegA", Share: 0.70, TargetRevenue: 7000},
		{Segment: "SegB", Share: 0.30, TargetRevenue: 3000},
	}
	gc.Feedback = []string{"weekly_cap_exceeded: 3 sends to \"SegA\" in week 2025-W11 (cap 2)"}

	prompt, err := BuildPrompt(gc)
	require.NoError(t, err)
	assert.Contains(t, prompt, "March 2025")
	assert.Contains(t, prompt, "SegA: $7000.00 (70% share)")
	assert.Contains(t, prompt, "weekly_cap_exceeded")
}
