package generator

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/emailpilot/emailpilot/internal/domain"
)

// campaignPayload mirrors one campaign in the model's JSON reply.
type campaignPayload struct {
	Channel      string `json:"channel"`
	SendDate     string `json:"send_date"`
	SendTime     string `json:"send_time"`
	SegmentRef   string `json:"segment_ref"`
	CampaignType string `json:"campaign_type"`
	IsResend     bool   `json:"is_resend"`
	Subject      string `json:"subject"`
}

type planPayload struct {
	Campaigns []campaignPayload `json:"campaigns"`
}

// parsePlanReply decodes a model reply into a calendar plan. Models
// sometimes wrap JSON in markdown fences or prose; the first balanced
// top-level object is extracted before decoding. Campaign IDs are
// assigned here since the model never invents stable identifiers.
func parsePlanReply(reply string, gc Context) (*domain.CalendarPlan, error) {
	raw := extractJSONObject(reply)
	if raw == "" {
		return nil, fmt.Errorf("%w: reply contains no JSON object", ErrGenerationFailed)
	}

	var payload planPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("%w: decode reply: %v", ErrGenerationFailed, err)
	}

	plan := &domain.CalendarPlan{
		ID:          uuid.New().String(),
		ClientID:    gc.ClientID,
		Year:        gc.Year,
		Month:       gc.Month,
		RevenueGoal: gc.RevenueGoal,
	}
	for i, cp := range payload.Campaigns {
		date, err := domain.ParseDate(cp.SendDate)
		if err != nil {
			return nil, fmt.Errorf("%w: campaign %d: %v", ErrGenerationFailed, i, err)
		}
		channel := domain.Channel(strings.ToLower(cp.Channel))
		if channel != domain.ChannelEmail && channel != domain.ChannelSMS {
			channel = domain.ChannelEmail
		}
		ctype := domain.CampaignType(strings.ToLower(cp.CampaignType))
		switch ctype {
		case domain.TypePromotional, domain.TypeNurture, domain.TypeFlashSale, domain.TypeResend, domain.TypeOther:
		default:
			ctype = domain.TypeOther
		}
		sendTime := cp.SendTime
		if _, err := time.Parse("15:04", sendTime); err != nil {
			sendTime = "10:00"
		}
		plan.Campaigns = append(plan.Campaigns, domain.Campaign{
			ID:         uuid.New().String(),
			Channel:    channel,
			SendDate:   date,
			SendTime:   sendTime,
			SegmentRef: cp.SegmentRef,
			Type:       ctype,
			IsResend:   cp.IsResend || ctype == domain.TypeResend,
			Subject:    cp.Subject,
		})
	}
	return plan, nil
}

// extractJSONObject returns the first balanced top-level {...} in s,
// or "" if none exists. Braces inside JSON strings are skipped.
func extractJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}
	return ""
}
