package engine

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"route-optimizer-service/internal/adapters/distance"
	"route-optimizer-service/internal/domain"
)

func newTestOptimizer() *Optimizer {
	return NewOptimizer(distance.NewHaversineProvider(50), nil, 200*time.Millisecond)
}

func warehouseParcels(warehouse string, base domain.Coordinates, n int, volume float64) []domain.Parcel {
	parcels := make([]domain.Parcel, 0, n)
	for i := 0; i < n; i++ {
		parcels = append(parcels, domain.Parcel{
			ParcelID:    fmt.Sprintf("%s-p%d", warehouse, i+1),
			Volume:      volume,
			WarehouseID: warehouse,
			Pickup:      base,
			Delivery: domain.Coordinates{
				Lat: base.Lat + 0.02*float64(i+1),
				Lon: base.Lon + 0.01*float64(i%2),
			},
		})
	}
	return parcels
}

func TestOptimizeSingleWarehouseAllAssigned(t *testing.T) {
	parcels := make([]domain.Parcel, 0, 5)
	for i := 0; i < 5; i++ {
		parcels = append(parcels, domain.Parcel{
			ParcelID:    fmt.Sprintf("p%d", i+1),
			Volume:      float64(110 + 10*i),
			WarehouseID: "wh-1",
			Pickup:      domain.Coordinates{Lat: 41.02, Lon: 29.01},
			Delivery:    domain.Coordinates{Lat: 41.05 + 0.02*float64(i), Lon: 29.05},
		})
	}

	req := Request{
		Depot:   testDepot,
		Trucks:  []domain.Truck{{TruckID: "t1", Capacity: 1000, Available: true}},
		Parcels: parcels,
	}

	res, err := newTestOptimizer().Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(res.UnassignedParcels) != 0 {
		t.Fatalf("unassigned = %v, want none", res.UnassignedParcels)
	}
	if res.TotalVehiclesUsed != 1 || len(res.Routes) != 1 {
		t.Fatalf("vehicles = %d routes = %d, want 1 and 1", res.TotalVehiclesUsed, len(res.Routes))
	}

	r := res.Routes[0]
	if got := r.AssignedParcelIDs(); len(got) != 5 {
		t.Fatalf("route carries %d parcels, want 5", len(got))
	}
	if r.Activities[0].Type != domain.ActivityStart ||
		r.Activities[len(r.Activities)-1].Type != domain.ActivityEnd {
		t.Fatal("route must be depot-anchored")
	}
	if res.TotalDistanceKm <= 0 || res.FuelCostEstimate != res.TotalDistanceKm*FuelCostPerKm {
		t.Fatalf("aggregate metrics inconsistent: %+v", res)
	}
}

func TestOptimizeParcelConservation(t *testing.T) {
	parcels := warehouseParcels("wh-a", domain.Coordinates{Lat: 41.1, Lon: 29.0}, 4, 120)
	parcels = append(parcels, warehouseParcels("wh-b", domain.Coordinates{Lat: 40.8, Lon: 29.2}, 3, 200)...)

	req := Request{
		Depot: testDepot,
		Trucks: []domain.Truck{
			{TruckID: "t1", Capacity: 600, Available: true},
			{TruckID: "t2", Capacity: 700, Available: true},
		},
		Parcels: parcels,
	}

	res, err := newTestOptimizer().Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	seen := map[string]int{}
	for _, r := range res.Routes {
		for _, id := range r.AssignedParcelIDs() {
			seen[id]++
		}
	}
	for _, id := range res.UnassignedParcels {
		seen[id]++
	}

	if len(seen) != len(parcels) {
		t.Fatalf("conservation broken: %d parcels accounted for, want %d", len(seen), len(parcels))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("parcel %q accounted for %d times", id, n)
		}
	}
}

func TestOptimizeTwoWarehousesIndependentRoutes(t *testing.T) {
	groupA := warehouseParcels("wh-a", domain.Coordinates{Lat: 41.1, Lon: 29.0}, 2, 100)
	groupB := warehouseParcels("wh-b", domain.Coordinates{Lat: 40.8, Lon: 29.2}, 2, 100)

	trucks := []domain.Truck{
		{TruckID: "t1", Capacity: 300, Available: true},
		{TruckID: "t2", Capacity: 300, Available: true},
	}

	run := func(parcels []domain.Parcel) *domain.RouteResult {
		t.Helper()
		res, err := newTestOptimizer().Optimize(context.Background(), Request{
			Depot:   testDepot,
			Trucks:  trucks,
			Parcels: parcels,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return res
	}

	res := run(append(append([]domain.Parcel{}, groupA...), groupB...))

	if len(res.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(res.Routes))
	}
	byWarehouse := map[string]domain.Route{}
	for _, r := range res.Routes {
		byWarehouse[r.WarehouseVisited] = r
	}
	if len(byWarehouse) != 2 {
		t.Fatalf("routes must visit distinct warehouses, got %v", byWarehouse)
	}
	for wh, r := range byWarehouse {
		for _, id := range r.AssignedParcelIDs() {
			if id[:4] != wh {
				t.Errorf("route for %s carries foreign parcel %q", wh, id)
			}
		}
	}

	// Swapping the input group blocks must not change per-group results.
	swapped := run(append(append([]domain.Parcel{}, groupB...), groupA...))
	if !reflect.DeepEqual(res, swapped) {
		t.Fatalf("result depends on input group order:\n%+v\n%+v", res, swapped)
	}
}

func TestOptimizeOversizedParcelReportedUnassigned(t *testing.T) {
	// Heavier than every individual truck, but within the fleet total,
	// so validation passes and the solvers must cope.
	parcels := []domain.Parcel{
		{
			ParcelID: "huge", Volume: 600, WarehouseID: "wh-1",
			Pickup:   domain.Coordinates{Lat: 41.02, Lon: 29.01},
			Delivery: domain.Coordinates{Lat: 41.1, Lon: 29.1},
		},
		{
			ParcelID: "ok", Volume: 100, WarehouseID: "wh-1",
			Pickup:   domain.Coordinates{Lat: 41.02, Lon: 29.01},
			Delivery: domain.Coordinates{Lat: 41.2, Lon: 29.2},
		},
	}

	req := Request{
		Depot: testDepot,
		Trucks: []domain.Truck{
			{TruckID: "t1", Capacity: 500, Available: true},
			{TruckID: "t2", Capacity: 500, Available: true},
		},
		Parcels: parcels,
	}

	res, err := newTestOptimizer().Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("must not error, got %v", err)
	}

	if len(res.UnassignedParcels) != 1 || res.UnassignedParcels[0] != "huge" {
		t.Fatalf("unassigned = %v, want [huge]", res.UnassignedParcels)
	}
	for _, r := range res.Routes {
		for _, id := range r.AssignedParcelIDs() {
			if id == "huge" {
				t.Fatal("oversized parcel must never appear in a route")
			}
		}
	}
}

func TestOptimizeEmptyParcelList(t *testing.T) {
	req := Request{
		Depot:  testDepot,
		Trucks: []domain.Truck{{TruckID: "t1", Capacity: 100, Available: true}},
	}

	res, err := newTestOptimizer().Optimize(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Routes) != 0 || len(res.UnassignedParcels) != 0 || res.TotalVehiclesUsed != 0 {
		t.Fatalf("empty input must yield empty result, got %+v", res)
	}
}

func TestOptimizeValidationErrors(t *testing.T) {
	goodTrucks := []domain.Truck{{TruckID: "t1", Capacity: 100, Available: true}}

	cases := []struct {
		name string
		req  Request
	}{
		{"missing depot", Request{Trucks: goodTrucks}},
		{"bad depot coords", Request{
			Depot:  domain.Depot{DepotID: "d", Location: domain.Coordinates{Lat: 95, Lon: 0}},
			Trucks: goodTrucks,
		}},
		{"no available trucks", Request{
			Depot:  testDepot,
			Trucks: []domain.Truck{{TruckID: "t1", Capacity: 100, Available: false}},
		}},
		{"truck without id", Request{
			Depot:  testDepot,
			Trucks: []domain.Truck{{Capacity: 100, Available: true}},
		}},
		{"non-positive capacity", Request{
			Depot:  testDepot,
			Trucks: []domain.Truck{{TruckID: "t1", Capacity: 0, Available: true}},
		}},
		{"parcel exceeds fleet capacity", Request{
			Depot:  testDepot,
			Trucks: goodTrucks,
			Parcels: []domain.Parcel{{
				ParcelID: "p1", Volume: 500,
				Pickup:   domain.Coordinates{Lat: 41, Lon: 29},
				Delivery: domain.Coordinates{Lat: 41.1, Lon: 29.1},
			}},
		}},
		{"parcel bad coords", Request{
			Depot:  testDepot,
			Trucks: goodTrucks,
			Parcels: []domain.Parcel{{
				ParcelID: "p1", Volume: 10,
				Pickup:   domain.Coordinates{Lat: 41, Lon: 181},
				Delivery: domain.Coordinates{Lat: 41.1, Lon: 29.1},
			}},
		}},
	}

	o := newTestOptimizer()
	for _, c := range cases {
		if _, err := o.Optimize(context.Background(), c.req); !errors.Is(err, ErrInvalidRequest) {
			t.Errorf("%s: err = %v, want ErrInvalidRequest", c.name, err)
		}
	}
}

func TestOptimizeProviderFailureIsolatedPerGroup(t *testing.T) {
	// A dead matrix provider fails every group; parcels surface as
	// unassigned instead of the whole run erroring.
	o := NewOptimizer(&distance.FailingProvider{}, nil, 100*time.Millisecond)

	parcels := warehouseParcels("wh-a", domain.Coordinates{Lat: 41.1, Lon: 29.0}, 2, 50)
	res, err := o.Optimize(context.Background(), Request{
		Depot:   testDepot,
		Trucks:  []domain.Truck{{TruckID: "t1", Capacity: 500, Available: true}},
		Parcels: parcels,
	})
	if err != nil {
		t.Fatalf("group failures must not abort the run, got %v", err)
	}
	if len(res.Routes) != 0 || len(res.UnassignedParcels) != 2 {
		t.Fatalf("expected all parcels unassigned, got %+v", res)
	}
}

func TestAllocateTrucksSplitsFleetAcrossGroups(t *testing.T) {
	groups := []ParcelGroup{
		{Warehouse: domain.Warehouse{WarehouseID: "wh-a"}, TotalVolume: 200},
		{Warehouse: domain.Warehouse{WarehouseID: "wh-b"}, TotalVolume: 150},
	}
	trucks := []domain.Truck{
		{TruckID: "t1", Capacity: 300},
		{TruckID: "t2", Capacity: 300},
	}

	allocated := allocateTrucks(groups, trucks)

	if len(allocated[0]) != 1 || len(allocated[1]) != 1 {
		t.Fatalf("each group must get one truck, got %d and %d", len(allocated[0]), len(allocated[1]))
	}
	if allocated[0][0].TruckID == allocated[1][0].TruckID {
		t.Fatal("groups must not share a truck")
	}
}

func TestAllocateTrucksSingleGroupGetsAll(t *testing.T) {
	groups := []ParcelGroup{{Warehouse: domain.Warehouse{WarehouseID: "wh-a"}, TotalVolume: 10}}
	trucks := []domain.Truck{
		{TruckID: "t1", Capacity: 100},
		{TruckID: "t2", Capacity: 50},
	}

	allocated := allocateTrucks(groups, trucks)
	if len(allocated[0]) != 2 {
		t.Fatalf("single group must receive the whole fleet, got %d trucks", len(allocated[0]))
	}
}

func TestAllocateTrucksLeftoversRoundRobin(t *testing.T) {
	groups := []ParcelGroup{
		{Warehouse: domain.Warehouse{WarehouseID: "wh-a"}, TotalVolume: 100},
		{Warehouse: domain.Warehouse{WarehouseID: "wh-b"}, TotalVolume: 100},
	}
	trucks := []domain.Truck{
		{TruckID: "t1", Capacity: 200},
		{TruckID: "t2", Capacity: 200},
		{TruckID: "t3", Capacity: 200},
		{TruckID: "t4", Capacity: 200},
	}

	allocated := allocateTrucks(groups, trucks)

	total := len(allocated[0]) + len(allocated[1])
	if total != 4 {
		t.Fatalf("all trucks must be allocated, got %d", total)
	}
	if len(allocated[0]) != 2 || len(allocated[1]) != 2 {
		t.Fatalf("leftovers must spread evenly, got %d and %d", len(allocated[0]), len(allocated[1]))
	}
}
