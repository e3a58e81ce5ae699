package engine

import "route-optimizer-service/internal/domain"

const (
	// AvgSpeedKmh is the assumed average truck speed used to turn
	// distance into driving time when no provider duration is known.
	AvgSpeedKmh = 50.0
	// ServiceTimeMin is the fixed handling time charged per delivery.
	ServiceTimeMin = 5.0
)

// ParseSolution walks each vehicle's node sequence and emits the
// ordered activity list: a start at the depot, one pickup/delivery
// activity per visited node with running arrival time, per-leg
// distance and cumulative load, and a final end at the depot.
// Vehicles visiting zero nodes are excluded entirely.
func ParseSolution(p *GroupProblem, vehicleRoutes [][]int) []domain.Route {
	routes := make([]domain.Route, 0, len(vehicleRoutes))

	for v, nodes := range vehicleRoutes {
		if len(nodes) == 0 {
			continue
		}

		depot := p.Depot.Location
		activities := make([]domain.Activity, 0, len(nodes)+2)
		activities = append(activities, domain.Activity{
			Type:     domain.ActivityStart,
			Location: depot,
		})

		clock := 0.0
		load := 0.0
		distance := 0.0
		prev := 0

		for _, node := range nodes {
			legKm := p.Travel.DistanceKm[prev][node]
			legMin := p.Travel.DurationMin[prev][node]
			clock += legMin
			distance += legKm

			parcel := p.Parcels[p.Locations.ParcelIndex(node)]
			act := domain.Activity{
				ParcelID:   parcel.ParcelID,
				Location:   p.Locations.Coordinate(node),
				ArrivalMin: clock,
				LegKm:      legKm,
				LegMin:     legMin,
			}
			switch p.Locations.Kind(node) {
			case NodePickup:
				act.Type = domain.ActivityPickup
				load += parcel.Volume
			case NodeDelivery:
				act.Type = domain.ActivityDeliver
				load -= parcel.Volume
				clock += ServiceTimeMin
			}
			act.LoadAfter = load
			activities = append(activities, act)
			prev = node
		}

		legKm := p.Travel.DistanceKm[prev][0]
		legMin := p.Travel.DurationMin[prev][0]
		clock += legMin
		distance += legKm
		activities = append(activities, domain.Activity{
			Type:       domain.ActivityEnd,
			Location:   depot,
			ArrivalMin: clock,
			LegKm:      legKm,
			LegMin:     legMin,
		})

		routes = append(routes, domain.Route{
			TruckID:          p.Trucks[v].TruckID,
			WarehouseVisited: p.Warehouse.WarehouseID,
			Activities:       activities,
			Stops:            consolidateStops(activities),
			DistanceKm:       distance,
			DurationMin:      clock,
		})
	}

	return routes
}

// consolidateStops folds the activity sequence into ordered stops,
// merging consecutive activities at identical coordinates so ten
// parcels for one address become a single customer stop.
func consolidateStops(activities []domain.Activity) []domain.Stop {
	stops := make([]domain.Stop, 0, len(activities))

	for _, a := range activities {
		var kind domain.StopType
		switch a.Type {
		case domain.ActivityStart, domain.ActivityEnd:
			kind = domain.StopDepot
		case domain.ActivityPickup:
			kind = domain.StopWarehouse
		case domain.ActivityDeliver:
			kind = domain.StopCustomer
		}

		if n := len(stops); n > 0 && stops[n-1].Type == kind && stops[n-1].Location == a.Location {
			if a.ParcelID != "" {
				stops[n-1].ParcelIDs = append(stops[n-1].ParcelIDs, a.ParcelID)
			}
			continue
		}

		stop := domain.Stop{Location: a.Location, Type: kind}
		if a.ParcelID != "" {
			stop.ParcelIDs = append(stop.ParcelIDs, a.ParcelID)
		}
		stops = append(stops, stop)
	}

	return stops
}
