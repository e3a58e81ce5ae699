package engine

import (
	"context"
	"errors"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// ErrNoFeasibleSolution is returned when a solver cannot place every
// parcel under the capacity and pairing constraints. Callers must
// surface it per warehouse group instead of aborting sibling groups.
var ErrNoFeasibleSolution = errors.New("route solver: no feasible solution")

// GroupProblem is one warehouse group's routing sub-problem: the
// immutable inputs plus the node indexing and travel/cost matrices
// shared by both solver variants and the solution parser.
type GroupProblem struct {
	Depot     domain.Depot
	Warehouse domain.Warehouse
	Parcels   []domain.Parcel
	Trucks    []domain.Truck
	Locations *LocationMap
	Travel    ports.Matrices
	Cost      [][]float64
}

// GroupSolution is a solver's raw output: per truck (index-aligned
// with GroupProblem.Trucks) the visited pickup/delivery node sequence,
// excluding the implicit depot start and end, plus the ids of parcels
// that could not be placed.
type GroupSolution struct {
	VehicleRoutes [][]int
	UnassignedIDs []string
}

// RouteSolver sequences one warehouse group's parcels across its
// trucks. Implementations are synchronous and deterministic; long
// searches time-box themselves and return the best solution found.
type RouteSolver interface {
	Solve(ctx context.Context, p *GroupProblem) (*GroupSolution, error)
}

// arcCost reads the scalar cost of traveling between two nodes.
func (p *GroupProblem) arcCost(from, to int) float64 { return p.Cost[from][to] }

// routeCost is the summed arc cost of one vehicle's depot-to-depot
// tour. Empty routes cost nothing.
func (p *GroupProblem) routeCost(route []int) float64 {
	if len(route) == 0 {
		return 0
	}
	total := p.arcCost(0, route[0])
	for i := 0; i+1 < len(route); i++ {
		total += p.arcCost(route[i], route[i+1])
	}
	total += p.arcCost(route[len(route)-1], 0)
	return total
}

// solutionCost sums route costs across all vehicles.
func (p *GroupProblem) solutionCost(routes [][]int) float64 {
	var total float64
	for _, r := range routes {
		total += p.routeCost(r)
	}
	return total
}
