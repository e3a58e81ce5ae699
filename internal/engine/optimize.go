package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/metrics"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// SolverMode selects which route solver handles a warehouse group.
type SolverMode string

const (
	// SolverAuto picks the constraint solver for small groups and the
	// heuristic for large ones, falling back to the heuristic when the
	// constraint solver finds no feasible solution.
	SolverAuto      SolverMode = "auto"
	SolverExact     SolverMode = "exact"
	SolverHeuristic SolverMode = "heuristic"
)

// exactParcelLimit is the group size up to which the constraint solver
// is worth its search time in auto mode.
const exactParcelLimit = 30

// groupWorkers bounds how many warehouse groups are solved in
// parallel. Groups share no mutable state, so correctness does not
// depend on completion order.
const groupWorkers = 4

// Request is the engine's input: plain domain values, already past
// basic shape validation upstream. The engine knows nothing about
// HTTP, storage, or identity.
type Request struct {
	Depot   domain.Depot
	Trucks  []domain.Truck
	Parcels []domain.Parcel
	Metric  CostMetric
	Solver  SolverMode
}

// Optimizer orchestrates one optimization run: warehouse partitioning,
// truck allocation, per-group matrix and cost construction, solver
// dispatch, and result aggregation.
type Optimizer struct {
	provider ports.MatrixProvider
	exact    *ConstraintSolver
	fallback *HeuristicSolver
	appM     *metrics.Metrics
}

// NewOptimizer wires the engine with its matrix provider and an
// optional metrics registry (nil disables instrumentation).
// solveBudget bounds the constraint solver's local search per group;
// zero applies the 30 s default.
func NewOptimizer(provider ports.MatrixProvider, appM *metrics.Metrics, solveBudget time.Duration) *Optimizer {
	return &Optimizer{
		provider: provider,
		exact:    NewConstraintSolver(solveBudget),
		fallback: NewHeuristicSolver(),
		appM:     appM,
	}
}

type groupOutcome struct {
	index      int
	routes     []domain.Route
	unassigned []string
	err        error
}

// Optimize turns a validated request into concrete truck routes. A
// solver failure in one warehouse group leaves that group's parcels
// unassigned and never aborts siblings.
func (o *Optimizer) Optimize(ctx context.Context, req Request) (_ *domain.RouteResult, err error) {
	defer obs.Time(ctx, "engine.Optimize")(&err)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	trucks := make([]domain.Truck, 0, len(req.Trucks))
	for _, t := range req.Trucks {
		if t.Available {
			trucks = append(trucks, t)
		}
	}

	groups := GroupByWarehouse(req.Parcels)
	if len(groups) == 0 {
		result := AggregateResult(nil, nil)
		return &result, nil
	}

	allocated := allocateTrucks(groups, trucks)

	// Bounded fan-out across warehouse groups; each solve reads only
	// its own inputs and writes only its own outcome.
	sem := make(chan struct{}, groupWorkers)
	outcomes := make(chan groupOutcome, len(groups))
	var wg sync.WaitGroup

	for gi := range groups {
		wg.Add(1)
		go func(gi int) {
			sem <- struct{}{}
			defer wg.Done()
			defer func() { <-sem }()

			routes, unassigned, err := o.solveGroup(ctx, req, groups[gi], allocated[gi])
			outcomes <- groupOutcome{index: gi, routes: routes, unassigned: unassigned, err: err}
		}(gi)
	}

	wg.Wait()
	close(outcomes)

	byGroup := make([]groupOutcome, len(groups))
	for out := range outcomes {
		byGroup[out.index] = out
	}

	var routes []domain.Route
	var unassigned []string
	for gi, out := range byGroup {
		if out.err != nil {
			// Group isolation: report the failure, keep the parcels
			// visible as unassigned, continue with sibling groups.
			log.Printf("optimize: warehouse=%s solve failed: %v", groups[gi].Warehouse.WarehouseID, out.err)
			o.countRun("failed")
			for _, p := range groups[gi].Parcels {
				unassigned = append(unassigned, p.ParcelID)
			}
			continue
		}
		o.countRun("ok")
		routes = append(routes, out.routes...)
		unassigned = append(unassigned, out.unassigned...)
	}

	result := AggregateResult(routes, unassigned)
	return &result, nil
}

// solveGroup runs the full per-warehouse pipeline: node indexing,
// travel matrices, cost matrix, solver dispatch, solution parsing.
func (o *Optimizer) solveGroup(
	ctx context.Context,
	req Request,
	group ParcelGroup,
	trucks []domain.Truck,
) ([]domain.Route, []string, error) {
	if len(trucks) == 0 {
		ids := make([]string, 0, len(group.Parcels))
		for _, p := range group.Parcels {
			ids = append(ids, p.ParcelID)
		}
		return nil, ids, nil
	}

	lm := NewLocationMap(req.Depot.Location, group.Parcels)

	travel, err := o.provider.Matrices(ctx, lm.Coordinates())
	if err != nil {
		return nil, nil, fmt.Errorf("solve group %q: travel matrices: %w", group.Warehouse.WarehouseID, err)
	}

	utilization := FleetUtilization(group.Parcels, trucks)
	problem := &GroupProblem{
		Depot:     req.Depot,
		Warehouse: group.Warehouse,
		Parcels:   group.Parcels,
		Trucks:    trucks,
		Locations: lm,
		Travel:    travel,
		Cost:      BuildCostMatrix(travel, req.Metric, utilization),
	}

	solver, name := o.pickSolver(req.Solver, len(group.Parcels))

	start := time.Now()
	sol, err := solver.Solve(ctx, problem)
	o.observeSolve(name, time.Since(start))

	auto := req.Solver == SolverAuto || req.Solver == ""
	if err != nil && auto && errors.Is(err, ErrNoFeasibleSolution) {
		log.Printf("solve group %q: constraint solver infeasible, retrying with heuristic", group.Warehouse.WarehouseID)
		start = time.Now()
		sol, err = o.fallback.Solve(ctx, problem)
		o.observeSolve("heuristic", time.Since(start))
	}
	if err != nil {
		return nil, nil, fmt.Errorf("solve group %q: %w", group.Warehouse.WarehouseID, err)
	}

	return ParseSolution(problem, sol.VehicleRoutes), sol.UnassignedIDs, nil
}

func (o *Optimizer) pickSolver(mode SolverMode, parcels int) (RouteSolver, string) {
	switch mode {
	case SolverExact:
		return o.exact, "exact"
	case SolverHeuristic:
		return o.fallback, "heuristic"
	default:
		if parcels <= exactParcelLimit {
			return o.exact, "exact"
		}
		return o.fallback, "heuristic"
	}
}

func (o *Optimizer) countRun(status string) {
	if o.appM != nil {
		o.appM.GroupsSolved.WithLabelValues(status).Inc()
	}
}

func (o *Optimizer) observeSolve(solver string, d time.Duration) {
	if o.appM != nil {
		o.appM.SolveSeconds.WithLabelValues(solver).Observe(d.Seconds())
	}
}

// allocateTrucks splits the fleet across warehouse groups: the largest
// groups claim capacity-descending trucks until their volume is
// covered, then leftover trucks spread round-robin. The returned slice
// is index-aligned with groups.
func allocateTrucks(groups []ParcelGroup, trucks []domain.Truck) [][]domain.Truck {
	allocated := make([][]domain.Truck, len(groups))
	if len(trucks) == 0 {
		return allocated
	}
	if len(groups) == 1 {
		allocated[0] = trucks
		return allocated
	}

	pool := make([]domain.Truck, len(trucks))
	copy(pool, trucks)
	sort.SliceStable(pool, func(i, j int) bool { return pool[i].Capacity > pool[j].Capacity })

	order := make([]int, len(groups))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return groups[order[a]].TotalVolume > groups[order[b]].TotalVolume
	})

	next := 0
	for _, gi := range order {
		covered := 0.0
		for next < len(pool) && (len(allocated[gi]) == 0 || covered < groups[gi].TotalVolume) {
			allocated[gi] = append(allocated[gi], pool[next])
			covered += pool[next].Capacity
			next++
		}
	}

	for next < len(pool) {
		for _, gi := range order {
			if next >= len(pool) {
				break
			}
			allocated[gi] = append(allocated[gi], pool[next])
			next++
		}
	}

	return allocated
}
