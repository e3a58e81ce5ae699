package engine

import (
	"math"

	"route-optimizer-service/internal/domain"
)

// TrucksNeeded estimates how many trucks of the given capacity are
// required to carry totalVolume. Degenerate capacities yield zero.
func TrucksNeeded(totalVolume, truckCapacity float64) int {
	if truckCapacity <= 0 || totalVolume <= 0 {
		return 0
	}
	return int(math.Ceil(totalVolume / truckCapacity))
}

// FleetUtilization is the ratio of total parcel volume to total fleet
// capacity. Returns 0 when the fleet has no capacity.
func FleetUtilization(parcels []domain.Parcel, trucks []domain.Truck) float64 {
	var volume, capacity float64
	for _, p := range parcels {
		volume += p.Volume
	}
	for _, t := range trucks {
		capacity += t.Capacity
	}
	if capacity <= 0 {
		return 0
	}
	return volume / capacity
}

// CapacityFactor discounts arc costs when the fleet runs nearly full,
// so the solver favors shorter tours over spreading load.
func CapacityFactor(utilization float64) float64 {
	switch {
	case utilization > 0.8:
		return 0.7
	case utilization > 0.6:
		return 0.85
	default:
		return 1.2
	}
}

// CapacityWeight is the capacity term of the blended cost metric. It
// uses different thresholds than CapacityFactor on purpose; the two
// weighting schemes are distinct and not interchangeable.
func CapacityWeight(utilization float64) float64 {
	switch {
	case utilization > 0.9:
		return 0.5
	case utilization > 0.7:
		return 0.7
	case utilization > 0.5:
		return 1.0
	case utilization > 0.3:
		return 1.3
	default:
		return 1.5
	}
}
