package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// SQLite-backed implementation of the PlanRepository port. The route
// result is stored as a JSON document; plans are read back whole, so
// relational decomposition buys nothing here.
type SqlitePlanRepository struct{ DB *sql.DB }

func NewSqlitePlanRepository(db *sql.DB) *SqlitePlanRepository {
	return &SqlitePlanRepository{DB: db}
}

func (s *SqlitePlanRepository) SavePlan(ctx context.Context, plan ports.StoredPlan) error {
	if s.DB == nil {
		return errors.New("sqlite plan repository: DB is nil")
	}
	if plan.PlanID == "" {
		return errors.New("save plan: plan id must not be empty")
	}

	body, err := json.Marshal(plan.Result)
	if err != nil {
		return fmt.Errorf("save plan: marshal result: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO plans (
		plan_id,
		created_at,
		depot_id,
		metric,
		result_json
	)
	VALUES (?, ?, ?, ?, ?);
	`
	_, err = s.DB.ExecContext(ctx, query,
		plan.PlanID,
		plan.CreatedAt.UTC().Format(time.RFC3339Nano),
		plan.DepotID,
		plan.Metric,
		string(body),
	)
	if err != nil {
		return fmt.Errorf("save plan %q: insert: %w", plan.PlanID, err)
	}

	return nil
}

// Return stored plans, newest first. A limit of 0 applies a default.
func (s *SqlitePlanRepository) ListPlans(ctx context.Context, limit int) ([]ports.StoredPlan, error) {
	if s.DB == nil {
		return nil, errors.New("sqlite plan repository: DB is nil")
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT
		plan_id,
		created_at,
		depot_id,
		metric,
		result_json
	FROM plans
	ORDER BY created_at DESC
	LIMIT ?;
	`
	rows, err := s.DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list plans: query plans table: %w", err)
	}
	defer rows.Close()

	plans := make([]ports.StoredPlan, 0, limit)
	for rows.Next() {
		var p ports.StoredPlan
		var created, body string
		if err := rows.Scan(&p.PlanID, &created, &p.DepotID, &p.Metric, &body); err != nil {
			return nil, fmt.Errorf("list plans: scan row: %w", err)
		}

		p.CreatedAt, err = time.Parse(time.RFC3339Nano, created)
		if err != nil {
			return nil, fmt.Errorf("list plans: parse created_at %q: %w", created, err)
		}

		var result domain.RouteResult
		if err := json.Unmarshal([]byte(body), &result); err != nil {
			return nil, fmt.Errorf("list plans: unmarshal plan %q: %w", p.PlanID, err)
		}
		p.Result = result

		plans = append(plans, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list plans: row iteration: %w", err)
	}

	return plans, nil
}
