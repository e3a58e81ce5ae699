package engine

import (
	"sort"

	"route-optimizer-service/internal/domain"
)

// AssignResult is the outcome of packing one warehouse group onto its
// trucks: one assignment per truck that received parcels, plus the
// parcels no truck could take. Unassignable parcels are reported,
// never dropped and never split.
type AssignResult struct {
	Assignments []domain.TruckAssignment
	Unassigned  []domain.Parcel
}

// AssignParcels packs a warehouse group's parcels onto trucks with a
// greedy nearest-first heuristic.
//
// Trucks are sorted by capacity descending. Each truck starts at the
// warehouse and repeatedly takes, among the remaining parcels that
// still fit, the one whose delivery point is nearest to its current
// position, then advances there. Distance ties keep first-encountered
// order, so identical input always yields identical assignments.
//
// The input slices are never mutated; consumed parcels are tracked in
// a taken bitset over the immutable parcel slice.
func AssignParcels(group ParcelGroup, trucks []domain.Truck) AssignResult {
	if len(group.Parcels) == 0 || len(trucks) == 0 {
		return AssignResult{Unassigned: append([]domain.Parcel(nil), group.Parcels...)}
	}

	ordered := make([]domain.Truck, len(trucks))
	copy(ordered, trucks)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Capacity > ordered[j].Capacity
	})

	taken := make([]bool, len(group.Parcels))
	assignments := make([]domain.TruckAssignment, 0, len(ordered))

	for _, truck := range ordered {
		remaining := truck.Capacity
		position := group.Warehouse.Location
		var loaded []domain.Parcel
		var volume float64

		for {
			best := -1
			bestDist := 0.0
			for i, p := range group.Parcels {
				if taken[i] || p.Volume > remaining {
					continue
				}
				d := position.HaversineKm(p.Delivery)
				// Strict < keeps the first-encountered parcel on ties.
				if best == -1 || d < bestDist {
					best = i
					bestDist = d
				}
			}
			if best == -1 {
				break
			}

			p := group.Parcels[best]
			taken[best] = true
			loaded = append(loaded, p)
			volume += p.Volume
			remaining -= p.Volume
			position = p.Delivery
		}

		if len(loaded) > 0 {
			assignments = append(assignments, domain.TruckAssignment{
				Truck:       truck,
				Parcels:     loaded,
				TotalVolume: volume,
			})
		}
	}

	var unassigned []domain.Parcel
	for i, p := range group.Parcels {
		if !taken[i] {
			unassigned = append(unassigned, p)
		}
	}

	return AssignResult{Assignments: assignments, Unassigned: unassigned}
}
