package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, InitSchema(db))
	return db
}

func samplePlan(id string, createdAt time.Time) ports.StoredPlan {
	return ports.StoredPlan{
		PlanID:    id,
		CreatedAt: createdAt,
		DepotID:   "depot-1",
		Metric:    "DISTANCE",
		Result: domain.RouteResult{
			TotalVehiclesUsed: 1,
			TotalDistanceKm:   42.5,
			TotalDurationMin:  61,
			FuelCostEstimate:  36.125,
			Routes: []domain.Route{{
				TruckID:          "t1",
				WarehouseVisited: "wh-1",
				DistanceKm:       42.5,
				DurationMin:      61,
				Activities: []domain.Activity{
					{Type: domain.ActivityStart, Location: domain.Coordinates{Lat: 41, Lon: 29}},
					{
						Type: domain.ActivityPickup, ParcelID: "p1",
						Location:   domain.Coordinates{Lat: 41.1, Lon: 29.1},
						ArrivalMin: 18, LegKm: 15, LegMin: 18, LoadAfter: 10,
					},
					{
						Type: domain.ActivityDeliver, ParcelID: "p1",
						Location:   domain.Coordinates{Lat: 41.2, Lon: 29.2},
						ArrivalMin: 36, LegKm: 15, LegMin: 18,
					},
					{Type: domain.ActivityEnd, Location: domain.Coordinates{Lat: 41, Lon: 29}, ArrivalMin: 61},
				},
			}},
			UnassignedParcels: []string{},
		},
	}
}

func TestSqlitePlanRepositoryRoundTrip(t *testing.T) {
	repo := NewSqlitePlanRepository(newTestDB(t))
	ctx := context.Background()

	plan := samplePlan("plan-1", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SavePlan(ctx, plan))

	plans, err := repo.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, plans, 1)

	got := plans[0]
	require.Equal(t, plan.PlanID, got.PlanID)
	require.True(t, plan.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, plan.DepotID, got.DepotID)
	require.Equal(t, plan.Metric, got.Metric)
	require.Equal(t, plan.Result, got.Result)
}

func TestSqlitePlanRepositoryListsNewestFirst(t *testing.T) {
	repo := NewSqlitePlanRepository(newTestDB(t))
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.SavePlan(ctx, samplePlan("older", base)))
	require.NoError(t, repo.SavePlan(ctx, samplePlan("newer", base.Add(time.Hour))))

	plans, err := repo.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	require.Equal(t, "newer", plans[0].PlanID)
	require.Equal(t, "older", plans[1].PlanID)

	plans, err = repo.ListPlans(ctx, 1)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, "newer", plans[0].PlanID)
}

func TestSqlitePlanRepositoryReplacesOnSameID(t *testing.T) {
	repo := NewSqlitePlanRepository(newTestDB(t))
	ctx := context.Background()

	plan := samplePlan("plan-1", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
	require.NoError(t, repo.SavePlan(ctx, plan))

	plan.Metric = "TIME"
	require.NoError(t, repo.SavePlan(ctx, plan))

	plans, err := repo.ListPlans(ctx, 10)
	require.NoError(t, err)
	require.Len(t, plans, 1)
	require.Equal(t, "TIME", plans[0].Metric)
}

func TestSqlitePlanRepositoryRejectsEmptyID(t *testing.T) {
	repo := NewSqlitePlanRepository(newTestDB(t))
	require.Error(t, repo.SavePlan(context.Background(), ports.StoredPlan{}))
}
