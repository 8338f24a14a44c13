package postgres

import (
	"context"
	"fmt"

	"github.com/emailpilot/emailpilot/internal/domain"
	"github.com/emailpilot/emailpilot/internal/service/plan"
)

func (r *PlanRepo) ListSegments(ctx context.Context, clientID string) ([]domain.Segment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT client_id, name, COALESCE(definition,''), position
		FROM emailpilot_segments
		WHERE client_id = $1
		ORDER BY position
	`, clientID)
	if err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ClientID, &s.Name, &s.Definition, &s.Position); err != nil {
			return nil, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list segments: %w", err)
	}
	return out, nil
}

func (r *PlanRepo) SaveSegment(ctx context.Context, s *domain.Segment) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emailpilot_segments (client_id, name, definition, position, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (client_id, name) DO UPDATE
		SET definition = EXCLUDED.definition, position = EXCLUDED.position, updated_at = NOW()
	`, s.ClientID, s.Name, s.Definition, s.Position)
	if err != nil {
		return fmt.Errorf("save segment: %w", err)
	}
	return nil
}

func (r *PlanRepo) DeleteSegment(ctx context.Context, clientID, name string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM emailpilot_segments WHERE client_id = $1 AND name = $2
	`, clientID, name)
	if err != nil {
		return fmt.Errorf("delete segment: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return plan.ErrNotFound
	}
	return nil
}

var _ plan.Repository = (*PlanRepo)(nil)
