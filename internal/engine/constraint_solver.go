package engine

import (
	"context"
	"time"
)

// ConstraintSolver models a warehouse group as a capacitated
// pickup-and-delivery routing problem and searches for a minimum-cost
// solution: cheapest pair insertion builds an initial solution, then a
// guided-local-search loop improves it until the wall-clock budget
// expires. Pickup-before-delivery on the same vehicle is maintained
// structurally (pairs are only ever inserted and relocated together,
// in order), so only the capacity dimension needs explicit checking.
type ConstraintSolver struct {
	TimeBudget time.Duration
}

const (
	defaultTimeBudget = 30 * time.Second
	// glsAlpha scales the penalty weight relative to the mean arc cost
	// of the constructed solution.
	glsAlpha = 0.1
	costEps  = 1e-9
)

func NewConstraintSolver(budget time.Duration) *ConstraintSolver {
	if budget <= 0 {
		budget = defaultTimeBudget
	}
	return &ConstraintSolver{TimeBudget: budget}
}

// Solve returns one node route per truck. A group whose parcels cannot
// all be placed is a hard failure (ErrNoFeasibleSolution), never a
// silently shrunk solution.
func (s *ConstraintSolver) Solve(ctx context.Context, p *GroupProblem) (*GroupSolution, error) {
	if len(p.Parcels) == 0 {
		return &GroupSolution{VehicleRoutes: make([][]int, len(p.Trucks))}, nil
	}
	if len(p.Trucks) == 0 {
		return nil, ErrNoFeasibleSolution
	}

	deadline := time.Now().Add(s.TimeBudget)

	routes, err := s.construct(ctx, p)
	if err != nil {
		return nil, err
	}

	routes = s.improve(ctx, p, routes, deadline)

	return &GroupSolution{VehicleRoutes: routes}, nil
}

// construct builds an initial solution by repeatedly applying the
// globally cheapest feasible pickup-delivery pair insertion.
func (s *ConstraintSolver) construct(ctx context.Context, p *GroupProblem) ([][]int, error) {
	routes := make([][]int, len(p.Trucks))
	routed := make([]bool, len(p.Parcels))

	for placed := 0; placed < len(p.Parcels); placed++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		type candidate struct {
			parcel, vehicle, i, j int
			delta                 float64
		}
		best := candidate{parcel: -1}

		for pi := range p.Parcels {
			if routed[pi] {
				continue
			}
			pu := p.Locations.PickupNode(pi)
			dl := p.Locations.DeliveryNode(pi)

			for v := range routes {
				route := routes[v]
				for i := 0; i <= len(route); i++ {
					for j := i; j <= len(route); j++ {
						delta := s.pairInsertionDelta(p, route, pu, dl, i, j)
						if best.parcel != -1 && delta >= best.delta {
							continue
						}
						if !s.insertionFeasible(p, route, pi, v, i, j) {
							continue
						}
						best = candidate{parcel: pi, vehicle: v, i: i, j: j, delta: delta}
					}
				}
			}
		}

		if best.parcel == -1 {
			return nil, ErrNoFeasibleSolution
		}

		pu := p.Locations.PickupNode(best.parcel)
		dl := p.Locations.DeliveryNode(best.parcel)
		routes[best.vehicle] = insertPair(routes[best.vehicle], pu, dl, best.i, best.j)
		routed[best.parcel] = true
	}

	return routes, nil
}

// pairInsertionDelta computes the arc-cost change of inserting pickup
// pu at position i and delivery dl before old position j (j >= i) in
// route, without building the candidate slice.
func (s *ConstraintSolver) pairInsertionDelta(p *GroupProblem, route []int, pu, dl, i, j int) float64 {
	nodeAt := func(idx int) int {
		if idx < 0 || idx >= len(route) {
			return 0 // depot bounds the tour on both ends
		}
		return route[idx]
	}

	if i == j {
		a := nodeAt(i - 1)
		b := nodeAt(i)
		return p.arcCost(a, pu) + p.arcCost(pu, dl) + p.arcCost(dl, b) - p.arcCost(a, b)
	}

	a := nodeAt(i - 1)
	b := nodeAt(i)
	c := nodeAt(j - 1)
	d := nodeAt(j)
	delta := p.arcCost(a, pu) + p.arcCost(pu, b) - p.arcCost(a, b)
	delta += p.arcCost(c, dl) + p.arcCost(dl, d) - p.arcCost(c, d)
	return delta
}

// insertionFeasible simulates the cumulative load of the candidate
// route and rejects it if the vehicle's capacity bound breaks at any
// prefix.
func (s *ConstraintSolver) insertionFeasible(p *GroupProblem, route []int, parcel, vehicle, i, j int) bool {
	capacity := p.Trucks[vehicle].Capacity
	volume := p.Parcels[parcel].Volume
	if volume > capacity {
		return false
	}

	load := 0.0
	step := func(node int) bool {
		pi := p.Locations.ParcelIndex(node)
		switch p.Locations.Kind(node) {
		case NodePickup:
			load += p.Parcels[pi].Volume
		case NodeDelivery:
			load -= p.Parcels[pi].Volume
		}
		return load <= capacity+costEps
	}

	for idx := 0; idx <= len(route); idx++ {
		if idx == i {
			if !step(p.Locations.PickupNode(parcel)) {
				return false
			}
		}
		if idx == j {
			if !step(p.Locations.DeliveryNode(parcel)) {
				return false
			}
		}
		if idx < len(route) && !step(route[idx]) {
			return false
		}
	}
	return true
}

// insertPair returns a new route with the pickup at position i and the
// delivery before old position j. The input slice is not mutated.
func insertPair(route []int, pu, dl, i, j int) []int {
	out := make([]int, 0, len(route)+2)
	out = append(out, route[:i]...)
	out = append(out, pu)
	out = append(out, route[i:j]...)
	out = append(out, dl)
	out = append(out, route[j:]...)
	return out
}

// improve runs guided local search: first-improvement pair relocations
// over penalty-augmented costs, penalizing the most expensive arcs of
// each local optimum to push the search into new regions. The best
// true-cost solution seen is returned when the soft deadline expires.
func (s *ConstraintSolver) improve(ctx context.Context, p *GroupProblem, routes [][]int, deadline time.Time) [][]int {
	n := p.Locations.NodeCount()
	penalty := make([][]float64, n)
	for i := range penalty {
		penalty[i] = make([]float64, n)
	}

	arcs := 0
	for _, r := range routes {
		if len(r) > 0 {
			arcs += len(r) + 1
		}
	}
	if arcs == 0 {
		return routes
	}
	lambda := glsAlpha * p.solutionCost(routes) / float64(arcs)

	best := cloneRoutes(routes)
	bestCost := p.solutionCost(routes)
	cur := cloneRoutes(routes)

	for time.Now().Before(deadline) {
		// Caller cancellation is best-effort: checked between steps,
		// returning the best solution found so far.
		if ctx.Err() != nil {
			break
		}

		moved := s.relocateStep(p, cur, penalty, lambda)
		if cost := p.solutionCost(cur); cost < bestCost-costEps {
			best = cloneRoutes(cur)
			bestCost = cost
		}
		if !moved {
			s.penalizeArcs(p, cur, penalty)
		}
	}

	return best
}

// relocateStep removes one pickup-delivery pair and reinserts it at
// its cheapest feasible augmented-cost position across all vehicles.
// The first strictly improving relocation is applied (first
// improvement, fixed scan order, no randomness).
func (s *ConstraintSolver) relocateStep(p *GroupProblem, routes [][]int, penalty [][]float64, lambda float64) bool {
	aug := func(routes [][]int) float64 {
		total := 0.0
		for _, r := range routes {
			if len(r) == 0 {
				continue
			}
			total += p.arcCost(0, r[0]) + lambda*penalty[0][r[0]]
			for i := 0; i+1 < len(r); i++ {
				total += p.arcCost(r[i], r[i+1]) + lambda*penalty[r[i]][r[i+1]]
			}
			last := r[len(r)-1]
			total += p.arcCost(last, 0) + lambda*penalty[last][0]
		}
		return total
	}

	curAug := aug(routes)

	for pi := range p.Parcels {
		pu := p.Locations.PickupNode(pi)
		dl := p.Locations.DeliveryNode(pi)

		home, without := removePair(routes, pu, dl)
		if home == -1 {
			continue
		}

		for v := range without {
			route := without[v]
			for i := 0; i <= len(route); i++ {
				for j := i; j <= len(route); j++ {
					if !s.insertionFeasible(p, route, pi, v, i, j) {
						continue
					}
					trial := cloneRoutes(without)
					trial[v] = insertPair(route, pu, dl, i, j)
					if aug(trial) < curAug-costEps {
						copyRoutes(routes, trial)
						return true
					}
				}
			}
		}
	}

	return false
}

// penalizeArcs increments the penalty of the maximum-utility arcs of
// the current solution, where utility = cost / (1 + penalty).
func (s *ConstraintSolver) penalizeArcs(p *GroupProblem, routes [][]int, penalty [][]float64) {
	type arc struct{ u, v int }
	var worst []arc
	maxUtil := 0.0

	visit := func(u, v int) {
		util := p.arcCost(u, v) / (1 + penalty[u][v])
		switch {
		case util > maxUtil+costEps:
			maxUtil = util
			worst = worst[:0]
			worst = append(worst, arc{u, v})
		case util > maxUtil-costEps:
			worst = append(worst, arc{u, v})
		}
	}

	for _, r := range routes {
		if len(r) == 0 {
			continue
		}
		visit(0, r[0])
		for i := 0; i+1 < len(r); i++ {
			visit(r[i], r[i+1])
		}
		visit(r[len(r)-1], 0)
	}

	for _, a := range worst {
		penalty[a.u][a.v]++
	}
}

// removePair returns the vehicle that currently holds the pair and a
// fresh route set with both nodes removed. home is -1 when the pair is
// not routed.
func removePair(routes [][]int, pu, dl int) (home int, without [][]int) {
	home = -1
	without = make([][]int, len(routes))
	for v, r := range routes {
		kept := make([]int, 0, len(r))
		for _, node := range r {
			if node == pu || node == dl {
				home = v
				continue
			}
			kept = append(kept, node)
		}
		without[v] = kept
	}
	return home, without
}

func cloneRoutes(routes [][]int) [][]int {
	out := make([][]int, len(routes))
	for i, r := range routes {
		out[i] = append([]int(nil), r...)
	}
	return out
}

func copyRoutes(dst, src [][]int) {
	for i := range src {
		dst[i] = src[i]
	}
}
