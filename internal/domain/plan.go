package domain

import (
	"fmt"
	"strings"
	"time"
)

// Channel enumerates campaign delivery channels.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// CampaignType drives revenue-multiplier assumptions during estimation.
// It is never used for enforcement.
type CampaignType string

const (
	TypePromotional CampaignType = "promotional"
	TypeNurture     CampaignType = "nurture"
	TypeFlashSale   CampaignType = "flash_sale"
	TypeResend      CampaignType = "resend"
	TypeOther       CampaignType = "other"
)

// Date is a civil calendar date in the client's local timezone.
// It marshals as "2006-01-02" and ignores the time-of-day component.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate constructs a Date from components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf truncates t to its civil date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a "2006-01-02" date string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// Time returns the date at midnight UTC, for calendar arithmetic.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// AddDays returns the date n days later (or earlier for negative n).
func (d Date) AddDays(n int) Date {
	return DateOf(d.Time().AddDate(0, 0, n))
}

// Before reports whether d is earlier than other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// DaysUntil returns the number of calendar days from d to other.
func (d Date) DaysUntil(other Date) int {
	return int(other.Time().Sub(d.Time()).Hours() / 24)
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// String formats the date as "2006-01-02".
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// MarshalJSON encodes the date as a "2006-01-02" JSON string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

// UnmarshalJSON decodes a "2006-01-02" JSON string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Campaign is a single proposed send on a calendar plan. Campaigns are
// created by the plan generator or by manual edit, rescheduled by
// drag-and-drop (send date/time only), and deleted only by explicit user
// action. Validation never removes a campaign; it only reports.
type Campaign struct {
	ID         string       `json:"id" db:"id"`
	Channel    Channel      `json:"channel" db:"channel"`
	SendDate   Date         `json:"send_date" db:"send_date"`
	SendTime   string       `json:"send_time" db:"send_time"` // "HH:MM", client-local
	SegmentRef string       `json:"segment_ref" db:"segment_ref"`
	Type       CampaignType `json:"campaign_type" db:"campaign_type"`
	IsResend   bool         `json:"is_resend" db:"is_resend"`
	Subject    string       `json:"subject,omitempty" db:"subject"`
	Notes      string       `json:"notes,omitempty" db:"notes"`
}

// CalendarPlan is one client-month of proposed campaigns. Campaigns keep
// insertion order; sort by SendDate for display.
type CalendarPlan struct {
	ID          string     `json:"id" db:"id"`
	ClientID    string     `json:"client_id" db:"client_id"`
	Year        int        `json:"year" db:"year"`
	Month       time.Month `json:"month" db:"month"`
	RevenueGoal float64    `json:"revenue_goal" db:"revenue_goal"`
	Campaigns   []Campaign `json:"campaigns"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// Campaign returns the campaign with the given ID, or nil.
func (p *CalendarPlan) Campaign(id string) *Campaign {
	for i := range p.Campaigns {
		if p.Campaigns[i].ID == id {
			return &p.Campaigns[i]
		}
	}
	return nil
}
