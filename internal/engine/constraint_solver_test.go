package engine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

var testDepot = domain.Depot{
	DepotID:  "depot-1",
	Name:     "Main Depot",
	Location: domain.Coordinates{Lat: 41.0, Lon: 29.0},
}

// buildTravel mirrors the haversine provider so solver tests stay
// inside the package.
func buildTravel(coords []domain.Coordinates) ports.Matrices {
	n := len(coords)
	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			km := coords[i].HaversineKm(coords[j])
			minutes := km / AvgSpeedKmh * 60
			dist[i][j], dist[j][i] = km, km
			dur[i][j], dur[j][i] = minutes, minutes
		}
	}
	return ports.Matrices{DistanceKm: dist, DurationMin: dur}
}

func newGroupProblem(parcels []domain.Parcel, trucks []domain.Truck) *GroupProblem {
	lm := NewLocationMap(testDepot.Location, parcels)
	travel := buildTravel(lm.Coordinates())
	return &GroupProblem{
		Depot:     testDepot,
		Warehouse: testWarehouse,
		Parcels:   parcels,
		Trucks:    trucks,
		Locations: lm,
		Travel:    travel,
		Cost:      BuildCostMatrix(travel, MetricDistance, FleetUtilization(parcels, trucks)),
	}
}

func spreadParcels(n int, volume float64) []domain.Parcel {
	parcels := make([]domain.Parcel, 0, n)
	for i := 0; i < n; i++ {
		parcels = append(parcels, domain.Parcel{
			ParcelID: fmt.Sprintf("p%d", i+1),
			Volume:   volume,
			Pickup:   testWarehouse.Location,
			Delivery: domain.Coordinates{
				Lat: 41.0 + 0.03*float64(i+1),
				Lon: 29.0 - 0.02*float64(i%3),
			},
		})
	}
	return parcels
}

// verifySolution checks the structural solver invariants: parcel
// conservation, pickup-before-delivery pairing on one vehicle, and the
// capacity bound at every route prefix.
func verifySolution(t *testing.T, p *GroupProblem, sol *GroupSolution) {
	t.Helper()

	if len(sol.VehicleRoutes) != len(p.Trucks) {
		t.Fatalf("route count = %d, want one per truck (%d)", len(sol.VehicleRoutes), len(p.Trucks))
	}

	unassigned := map[string]bool{}
	for _, id := range sol.UnassignedIDs {
		unassigned[id] = true
	}

	seenPickup := map[int]int{}
	seenDelivery := map[int]int{}

	for v, route := range sol.VehicleRoutes {
		load := 0.0
		capacity := p.Trucks[v].Capacity
		pickupPos := map[int]int{}

		for pos, node := range route {
			pi := p.Locations.ParcelIndex(node)
			switch p.Locations.Kind(node) {
			case NodePickup:
				seenPickup[pi]++
				pickupPos[pi] = pos
				load += p.Parcels[pi].Volume
			case NodeDelivery:
				seenDelivery[pi]++
				pu, ok := pickupPos[pi]
				if !ok {
					t.Fatalf("vehicle %d delivers parcel %d without picking it up first", v, pi)
				}
				if pu >= pos {
					t.Fatalf("vehicle %d parcel %d pickup at %d not before delivery at %d", v, pi, pu, pos)
				}
				load -= p.Parcels[pi].Volume
			default:
				t.Fatalf("vehicle %d route contains depot node %d", v, node)
			}
			if load > capacity+1e-9 {
				t.Fatalf("vehicle %d exceeds capacity %v at position %d (load %v)", v, capacity, pos, load)
			}
			if load < -1e-9 {
				t.Fatalf("vehicle %d load went negative at position %d", v, pos)
			}
		}
		if load != 0 {
			t.Fatalf("vehicle %d ends with nonzero load %v", v, load)
		}
	}

	for pi, parcel := range p.Parcels {
		if unassigned[parcel.ParcelID] {
			if seenPickup[pi] != 0 || seenDelivery[pi] != 0 {
				t.Fatalf("parcel %q is both routed and unassigned", parcel.ParcelID)
			}
			continue
		}
		if seenPickup[pi] != 1 || seenDelivery[pi] != 1 {
			t.Fatalf("parcel %q routed pickup=%d delivery=%d times, want exactly once",
				parcel.ParcelID, seenPickup[pi], seenDelivery[pi])
		}
	}
}

func TestConstraintSolverRoutesAllParcels(t *testing.T) {
	p := newGroupProblem(spreadParcels(6, 40), []domain.Truck{
		{TruckID: "t1", Capacity: 150, Available: true},
		{TruckID: "t2", Capacity: 150, Available: true},
	})

	s := NewConstraintSolver(200 * time.Millisecond)
	sol, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sol.UnassignedIDs) != 0 {
		t.Fatalf("expected all parcels routed, got unassigned %v", sol.UnassignedIDs)
	}
	verifySolution(t, p, sol)
}

func TestConstraintSolverSingleVehicleChain(t *testing.T) {
	// 3 parcels of 80 on a 100-capacity truck force interleaved
	// pickup/delivery: pickups cannot all precede deliveries.
	p := newGroupProblem(spreadParcels(3, 80), []domain.Truck{
		{TruckID: "t1", Capacity: 100, Available: true},
	})

	s := NewConstraintSolver(200 * time.Millisecond)
	sol, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifySolution(t, p, sol)

	if got := len(sol.VehicleRoutes[0]); got != 6 {
		t.Fatalf("single vehicle route has %d nodes, want 6", got)
	}
}

func TestConstraintSolverSingleParcelIsExact(t *testing.T) {
	// With one parcel the only feasible tour is
	// depot -> pickup -> delivery -> depot; the solver must find
	// exactly that cost.
	p := newGroupProblem(spreadParcels(1, 10), []domain.Truck{
		{TruckID: "t1", Capacity: 100, Available: true},
	})

	s := NewConstraintSolver(100 * time.Millisecond)
	sol, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pu, dl := p.Locations.PickupNode(0), p.Locations.DeliveryNode(0)
	want := p.arcCost(0, pu) + p.arcCost(pu, dl) + p.arcCost(dl, 0)
	if got := p.solutionCost(sol.VehicleRoutes); got != want {
		t.Fatalf("solution cost = %v, want %v", got, want)
	}
}

func TestConstraintSolverInfeasible(t *testing.T) {
	p := newGroupProblem(spreadParcels(2, 200), []domain.Truck{
		{TruckID: "t1", Capacity: 100, Available: true},
	})

	s := NewConstraintSolver(200 * time.Millisecond)
	_, err := s.Solve(context.Background(), p)
	if !errors.Is(err, ErrNoFeasibleSolution) {
		t.Fatalf("err = %v, want ErrNoFeasibleSolution", err)
	}
}

func TestConstraintSolverNoTrucks(t *testing.T) {
	p := newGroupProblem(spreadParcels(1, 10), nil)

	s := NewConstraintSolver(200 * time.Millisecond)
	_, err := s.Solve(context.Background(), p)
	if !errors.Is(err, ErrNoFeasibleSolution) {
		t.Fatalf("err = %v, want ErrNoFeasibleSolution", err)
	}
}

func TestConstraintSolverEmptyGroup(t *testing.T) {
	p := newGroupProblem(nil, []domain.Truck{{TruckID: "t1", Capacity: 100}})

	s := NewConstraintSolver(200 * time.Millisecond)
	sol, err := s.Solve(context.Background(), p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sol.VehicleRoutes) != 1 || len(sol.VehicleRoutes[0]) != 0 {
		t.Fatalf("empty group must yield one empty route, got %v", sol.VehicleRoutes)
	}
}

func TestConstraintSolverHonorsTimeBudget(t *testing.T) {
	p := newGroupProblem(spreadParcels(10, 20), []domain.Truck{
		{TruckID: "t1", Capacity: 120, Available: true},
		{TruckID: "t2", Capacity: 120, Available: true},
	})

	budget := 150 * time.Millisecond
	s := NewConstraintSolver(budget)

	start := time.Now()
	sol, err := s.Solve(context.Background(), p)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	verifySolution(t, p, sol)

	// Soft deadline: the search must stop shortly after the budget.
	if elapsed > budget+2*time.Second {
		t.Fatalf("solve took %v, budget was %v", elapsed, budget)
	}
}

func TestConstraintSolverRespectsCancellation(t *testing.T) {
	p := newGroupProblem(spreadParcels(4, 10), []domain.Truck{
		{TruckID: "t1", Capacity: 100, Available: true},
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewConstraintSolver(time.Second)
	if _, err := s.Solve(ctx, p); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
