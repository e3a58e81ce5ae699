package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// Postgres-backed implementation of the PlanRepository port, for
// deployments that archive plans centrally instead of on local disk.
type PgPlanRepository struct{ DB *sql.DB }

func NewPgPlanRepository(db *sql.DB) *PgPlanRepository {
	return &PgPlanRepository{DB: db}
}

// Create the plans table if it does not exist.
func (p *PgPlanRepository) InitSchema(ctx context.Context) error {
	if p.DB == nil {
		return errors.New("pg plan repository: DB is nil")
	}

	query := `
	CREATE TABLE IF NOT EXISTS plans (
		plan_id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		depot_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		result_json JSONB NOT NULL
	);
	`
	if _, err := p.DB.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("pg init schema: create plans table: %w", err)
	}

	return nil
}

func (p *PgPlanRepository) SavePlan(ctx context.Context, plan ports.StoredPlan) error {
	if p.DB == nil {
		return errors.New("pg plan repository: DB is nil")
	}
	if plan.PlanID == "" {
		return errors.New("save plan: plan id must not be empty")
	}

	body, err := json.Marshal(plan.Result)
	if err != nil {
		return fmt.Errorf("save plan: marshal result: %w", err)
	}

	query := `
	INSERT INTO plans (plan_id, created_at, depot_id, metric, result_json)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (plan_id) DO UPDATE SET
		created_at = EXCLUDED.created_at,
		depot_id = EXCLUDED.depot_id,
		metric = EXCLUDED.metric,
		result_json = EXCLUDED.result_json;
	`
	if _, err := p.DB.ExecContext(ctx, query,
		plan.PlanID, plan.CreatedAt.UTC(), plan.DepotID, plan.Metric, string(body),
	); err != nil {
		return fmt.Errorf("save plan %q: insert: %w", plan.PlanID, err)
	}

	return nil
}

func (p *PgPlanRepository) ListPlans(ctx context.Context, limit int) ([]ports.StoredPlan, error) {
	if p.DB == nil {
		return nil, errors.New("pg plan repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT plan_id, created_at, depot_id, metric, result_json
	FROM plans
	ORDER BY created_at DESC
	LIMIT $1;
	`
	rows, err := p.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: query plans table: %w", err)
	}
	defer rows.Close()

	plans := make([]ports.StoredPlan, 0, limit)
	for rows.Next() {
		var sp ports.StoredPlan
		var body []byte
		if err := rows.Scan(&sp.PlanID, &sp.CreatedAt, &sp.DepotID, &sp.Metric, &body); err != nil {
			return nil, fmt.Errorf("list plans: scan row: %w", err)
		}

		var result domain.RouteResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("list plans: unmarshal plan %q: %w", sp.PlanID, err)
		}
		sp.Result = result

		plans = append(plans, sp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: row iteration: %w", err)
	}

	return plans, nil
}
