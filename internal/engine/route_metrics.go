package engine

import "route-optimizer-service/internal/domain"

// FuelCostPerKm is the flat per-kilometer fuel cost assumption used
// for the aggregate estimate.
const FuelCostPerKm = 0.85

// AggregateResult sums the per-route metrics of a finished run into
// the final RouteResult. Only routes that actually visit customers are
// present at this point, so every route counts as a used vehicle.
func AggregateResult(routes []domain.Route, unassigned []string) domain.RouteResult {
	result := domain.RouteResult{
		Routes:            routes,
		TotalVehiclesUsed: len(routes),
		UnassignedParcels: unassigned,
	}
	if result.UnassignedParcels == nil {
		result.UnassignedParcels = []string{}
	}

	for _, r := range routes {
		result.TotalDistanceKm += r.DistanceKm
		result.TotalDurationMin += r.DurationMin
	}
	result.FuelCostEstimate = result.TotalDistanceKm * FuelCostPerKm

	return result
}
