// Package postgres implements plan.Repository against PostgreSQL via
// database/sql and lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

// PlanRepo implements plan.Repository against PostgreSQL.
type PlanRepo struct{ db *sql.DB }

// NewPlanRepo creates a Postgres-backed plan repository.
func NewPlanRepo(db *sql.DB) *PlanRepo { return &PlanRepo{db: db} }

func (r *PlanRepo) GetPlan(ctx context.Context, id string) (*domain.CalendarPlan, error) {
	p := &domain.CalendarPlan{}
	var month int
	err := r.db.QueryRowContext(ctx, `
		SELECT id, client_id, year, month, revenue_goal, created_at, updated_at
		FROM emailpilot_plans
		WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.Year, &month, &p.RevenueGoal, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, plan.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}
	p.Month = time.Month(month)

	campaigns, err := r.loadCampaigns(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Campaigns = campaigns
	return p, nil
}

func (r *PlanRepo) ListPlans(ctx context.Context, clientID string) ([]domain.CalendarPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, client_id, year, month, revenue_goal, created_at, updated_at
		FROM emailpilot_plans
		WHERE client_id = $1
		ORDER BY year DESC, month DESC
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}
	defer rows.Close()

	var out []domain.CalendarPlan
	for rows.Next() {
		var p domain.CalendarPlan
		var month int
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Year, &month, &p.RevenueGoal, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan plan: %w", err)
		}
		p.Month = time.Month(month)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: %w", err)
	}

	for i := range out {
		campaigns, err := r.loadCampaigns(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Campaigns = campaigns
	}
	return out, nil
}

// SavePlan upserts the plan row on (client_id, year, month) and replaces
// all campaign rows inside one transaction.
func (r *PlanRepo) SavePlan(ctx context.Context, p *domain.CalendarPlan) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save plan: %w", err)
	}
	defer tx.Rollback()

	// A second draft for the same client month replaces the first and
	// keeps the original plan id.
	err = tx.QueryRowContext(ctx, `
		INSERT INTO emailpilot_plans (id, client_id, year, month, revenue_goal, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		ON CONFLICT (client_id, year, month) DO UPDATE
		SET revenue_goal = EXCLUDED.revenue_goal, updated_at = NOW()
		RETURNING id
	`, p.ID, p.ClientID, p.Year, int(p.Month), p.RevenueGoal).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("upsert plan: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM emailpilot_plan_campaigns WHERE plan_id = $1
	`, p.ID); err != nil {
		return fmt.Errorf("clear campaigns: %w", err)
	}

	for i := range p.Campaigns {
		c := &p.Campaigns[i]
		if c.ID == "" {
			c.ID = uuid.New().String()
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO emailpilot_plan_campaigns
				(id, plan_id, channel, send_date, send_time, segment_ref,
				 campaign_type, is_resend, subject, notes, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, c.ID, p.ID, c.Channel, c.SendDate.String(), c.SendTime, c.SegmentRef,
			c.Type, c.IsResend, c.Subject, c.Notes, i); err != nil {
			return fmt.Errorf("insert campaign: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) DeletePlan(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM emailpilot_plans WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return plan.ErrNotFound
	}
	return nil
}

func (r *PlanRepo) RescheduleCampaign(ctx context.Context, planID, campaignID string, date domain.Date, sendTime string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE emailpilot_plan_campaigns
		SET send_date = $1, send_time = $2
		WHERE id = $3 AND plan_id = $4
	`, date.String(), sendTime, campaignID, planID)
	if err != nil {
		return fmt.Errorf("reschedule campaign: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return plan.ErrCampaignNotFound
	}

	if _, err := r.db.ExecContext(ctx, `
		UPDATE emailpilot_plans SET updated_at = NOW() WHERE id = $1
	`, planID); err != nil {
		return fmt.Errorf("touch plan: %w", err)
	}
	return nil
}

func (r *PlanRepo) loadCampaigns(ctx context.Context, planID string) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, channel, send_date, send_time, segment_ref,
		       campaign_type, is_resend, COALESCE(subject,''), COALESCE(notes,'')
		FROM emailpilot_plan_campaigns
		WHERE plan_id = $1
		ORDER BY position
	`, planID)
	if err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		var sendDate time.Time
		if err := rows.Scan(&c.ID, &c.Channel, &sendDate, &c.SendTime, &c.SegmentRef,
			&c.Type, &c.IsResend, &c.Subject, &c.Notes); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		c.SendDate = domain.DateOf(sendDate)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load campaigns: %w", err)
	}
	return out, nil
}
