package ports

import (
	"context"
	"time"

	"route-optimizer-service/internal/domain"
)

// StoredPlan is a finished optimization result together with the
// planning context it was computed under.
type StoredPlan struct {
	PlanID    string
	CreatedAt time.Time
	DepotID   string
	Metric    string
	Result    domain.RouteResult
}

// Port: a boundary for durably storing and retrieving computed plans.
type PlanRepository interface {
	// Persist a finished plan.
	SavePlan(ctx context.Context, plan StoredPlan) error
	// Retrieve stored plans, newest first. A non-positive limit
	// applies an implementation default.
	ListPlans(ctx context.Context, limit int) ([]StoredPlan, error)
}
