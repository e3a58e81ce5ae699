package engine

import (
	"context"

	"route-optimizer-service/internal/domain"
)

// twoOptMaxPasses caps the 2-opt improvement loop; each pass is a full
// scan of position pairs, restarted after accepted moves.
const twoOptMaxPasses = 100

// HeuristicSolver sequences each truck's parcels directly, without a
// full constraint model: greedy bin packing assigns parcels to trucks,
// nearest-neighbor orders each truck's deliveries, and a
// first-improvement 2-opt pass removes crossings. Deterministic for
// identical input: every tie keeps first-encountered order and no
// randomness is involved.
type HeuristicSolver struct{}

func NewHeuristicSolver() *HeuristicSolver { return &HeuristicSolver{} }

func (s *HeuristicSolver) Solve(ctx context.Context, p *GroupProblem) (*GroupSolution, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	routes := make([][]int, len(p.Trucks))
	if len(p.Parcels) == 0 {
		return &GroupSolution{VehicleRoutes: routes}, nil
	}

	vehicleByID := make(map[string]int, len(p.Trucks))
	for v, t := range p.Trucks {
		vehicleByID[t.TruckID] = v
	}
	parcelIndex := make(map[string]int, len(p.Parcels))
	for i, parcel := range p.Parcels {
		parcelIndex[parcel.ParcelID] = i
	}

	group := ParcelGroup{Warehouse: p.Warehouse, Parcels: p.Parcels}
	for _, parcel := range p.Parcels {
		group.TotalVolume += parcel.Volume
	}
	assigned := AssignParcels(group, p.Trucks)

	unassignedIDs := make([]string, 0, len(assigned.Unassigned))
	for _, parcel := range assigned.Unassigned {
		unassignedIDs = append(unassignedIDs, parcel.ParcelID)
	}

	for _, a := range assigned.Assignments {
		// Best-effort interrupt between per-vehicle construction steps.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ordered, dropped := nearestNeighborOrder(a.Truck, a.Parcels)
		ordered = twoOptImprove(ordered)

		for _, parcel := range dropped {
			unassignedIDs = append(unassignedIDs, parcel.ParcelID)
		}

		v := vehicleByID[a.Truck.TruckID]
		route := make([]int, 0, 2*len(ordered))
		for _, parcel := range ordered {
			route = append(route, p.Locations.PickupNode(parcelIndex[parcel.ParcelID]))
		}
		for _, parcel := range ordered {
			route = append(route, p.Locations.DeliveryNode(parcelIndex[parcel.ParcelID]))
		}
		routes[v] = route
	}

	return &GroupSolution{VehicleRoutes: routes, UnassignedIDs: unassignedIDs}, nil
}

// nearestNeighborOrder sequences a truck's parcel subset greedily: the
// first parcel anchors the tour, then the nearest unvisited delivery
// point that still fits the remaining capacity is taken next. Parcels
// that stop fitting are dropped back to unassigned, never overloaded.
func nearestNeighborOrder(truck domain.Truck, parcels []domain.Parcel) (ordered, dropped []domain.Parcel) {
	if len(parcels) == 0 {
		return nil, nil
	}

	visited := make([]bool, len(parcels))
	remaining := truck.Capacity

	first := parcels[0]
	visited[0] = true
	remaining -= first.Volume
	ordered = append(ordered, first)
	position := first.Delivery

	for len(ordered) < len(parcels) {
		best := -1
		bestDist := 0.0
		for i, p := range parcels {
			if visited[i] || p.Volume > remaining {
				continue
			}
			d := position.HaversineKm(p.Delivery)
			if best == -1 || d < bestDist {
				best = i
				bestDist = d
			}
		}
		if best == -1 {
			break
		}

		visited[best] = true
		remaining -= parcels[best].Volume
		ordered = append(ordered, parcels[best])
		position = parcels[best].Delivery
	}

	for i, p := range parcels {
		if !visited[i] {
			dropped = append(dropped, p)
		}
	}
	return ordered, dropped
}

// twoOptImprove refines the delivery sequence with first-improvement
// 2-opt: reverse [i..j], keep the reversal only when the total path
// distance strictly shrinks. Terminates at a pass with no improvement
// or at the pass cap, so total distance is monotonically non-increasing.
func twoOptImprove(parcels []domain.Parcel) []domain.Parcel {
	if len(parcels) < 3 {
		return parcels
	}

	seq := append([]domain.Parcel(nil), parcels...)
	bestDist := pathDistanceKm(seq)

	for pass := 0; pass < twoOptMaxPasses; pass++ {
		improved := false
		for i := 1; i < len(seq)-1; i++ {
			for j := i + 1; j < len(seq); j++ {
				reverseSegment(seq, i, j)
				if d := pathDistanceKm(seq); d < bestDist {
					bestDist = d
					improved = true
				} else {
					reverseSegment(seq, i, j) // undo
				}
			}
		}
		if !improved {
			break
		}
	}
	return seq
}

// pathDistanceKm sums consecutive haversine legs of a delivery sequence.
func pathDistanceKm(parcels []domain.Parcel) float64 {
	total := 0.0
	for i := 0; i+1 < len(parcels); i++ {
		total += parcels[i].Delivery.HaversineKm(parcels[i+1].Delivery)
	}
	return total
}

func reverseSegment(parcels []domain.Parcel, i, j int) {
	for i < j {
		parcels[i], parcels[j] = parcels[j], parcels[i]
		i++
		j--
	}
}
