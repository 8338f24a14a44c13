package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

func newMockRepo(t *testing.T) (*PlanRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPlanRepo(db), mock
}

func TestGetPlanWithCampaigns(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	mock.ExpectQuery("SELECT id, client_id, year, month").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "year", "month", "revenue_goal", "created_at", "updated_at"}).
			AddRow("plan-1", "client-1", 2025, 3, 10000.0, now, now))

	mock.ExpectQuery("SELECT id, channel, send_date").
		WithArgs("plan-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "channel", "send_date", "send_time", "segment_ref", "campaign_type", "is_resend", "subject", "notes"}).
			AddRow("c1", "email", time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC), "10:00", "full list", "nurture", false, "March news", "").
			AddRow("c2", "email", time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC), "09:00", "Buyers", "promotional", false, "Spring sale", ""))

	p, err := repo.GetPlan(context.Background(), "plan-1")
	if err != nil {
		t.Fatalf("GetPlan: %v", err)
	}
	if p.Month != time.March || p.Year != 2025 {
		t.Errorf("plan month = %d-%d, want 2025-3", p.Year, p.Month)
	}
	if len(p.Campaigns) != 2 {
		t.Fatalf("got %d campaigns, want 2", len(p.Campaigns))
	}
	if got := p.Campaigns[0].SendDate.String(); got != "2025-03-05" {
		t.Errorf("send date = %s, want 2025-03-05", got)
	}
	if p.Campaigns[1].Type != domain.TypePromotional {
		t.Errorf("campaign type = %s", p.Campaigns[1].Type)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestGetPlanNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT id, client_id, year, month").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "client_id", "year", "month", "revenue_goal", "created_at", "updated_at"}))

	_, err := repo.GetPlan(context.Background(), "missing")
	if !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestSavePlanReplacesCampaigns(t *testing.T) {
	repo, mock := newMockRepo(t)

	p := &domain.CalendarPlan{
		ID:          "plan-1",
		ClientID:    "client-1",
		Year:        2025,
		Month:       time.March,
		RevenueGoal: 10000,
		Campaigns: []domain.Campaign{
			{
				ID:         "c1",
				Channel:    domain.ChannelEmail,
				SendDate:   domain.NewDate(2025, time.March, 5),
				SendTime:   "10:00",
				SegmentRef: "full list",
				Type:       domain.TypeNurture,
				Subject:    "March news",
			},
		},
	}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO emailpilot_plans").
		WithArgs("plan-1", "client-1", 2025, 3, 10000.0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("plan-1"))
	mock.ExpectExec("DELETE FROM emailpilot_plan_campaigns").
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO emailpilot_plan_campaigns").
		WithArgs("c1", "plan-1", "email", "2025-03-05", "10:00", "full list",
			"nurture", false, "March news", "", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.SavePlan(context.Background(), p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestSavePlanAssignsID(t *testing.T) {
	repo, mock := newMockRepo(t)

	p := &domain.CalendarPlan{ClientID: "client-1", Year: 2025, Month: time.April, RevenueGoal: 5000}

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO emailpilot_plans").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("generated-id"))
	mock.ExpectExec("DELETE FROM emailpilot_plan_campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	if err := repo.SavePlan(context.Background(), p); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if p.ID != "generated-id" {
		t.Errorf("plan ID = %q, want generated-id", p.ID)
	}
}

func TestRescheduleCampaign(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE emailpilot_plan_campaigns").
		WithArgs("2025-03-19", "14:00", "c2", "plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE emailpilot_plans SET updated_at").
		WithArgs("plan-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.RescheduleCampaign(context.Background(), "plan-1", "c2",
		domain.NewDate(2025, time.March, 19), "14:00")
	if err != nil {
		t.Fatalf("RescheduleCampaign: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRescheduleCampaignNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("UPDATE emailpilot_plan_campaigns").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.RescheduleCampaign(context.Background(), "plan-1", "nope",
		domain.NewDate(2025, time.March, 19), "14:00")
	if !errors.Is(err, plan.ErrCampaignNotFound) {
		t.Fatalf("err = %v, want ErrCampaignNotFound", err)
	}
}

func TestDeletePlanNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM emailpilot_plans").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeletePlan(context.Background(), "missing"); !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListSegments(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT client_id, name").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows([]string{"client_id", "name", "definition", "position"}).
			AddRow("client-1", "Buyers", "purchased in last 90d", 0).
			AddRow("client-1", "Browsers", "", 1))

	segs, err := repo.ListSegments(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("ListSegments: %v", err)
	}
	if len(segs) != 2 || segs[0].Name != "Buyers" {
		t.Fatalf("unexpected segments: %+v", segs)
	}
}

func TestSaveSegmentUpsert(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("INSERT INTO emailpilot_segments").
		WithArgs("client-1", "Buyers", "purchased in last 90d", 0).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SaveSegment(context.Background(), &domain.Segment{
		ClientID:   "client-1",
		Name:       "Buyers",
		Definition: "purchased in last 90d",
	})
	if err != nil {
		t.Fatalf("SaveSegment: %v", err)
	}
}

func TestDeleteSegmentNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectExec("DELETE FROM emailpilot_segments").
		WithArgs("client-1", "Ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteSegment(context.Background(), "client-1", "Ghost"); !errors.Is(err, plan.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
