package domain

// StopType classifies a route stop by the kind of location visited.
type StopType string

const (
	StopDepot     StopType = "DEPOT"
	StopWarehouse StopType = "WAREHOUSE"
	StopCustomer  StopType = "CUSTOMER"
)

// ActivityType classifies a single event on a route.
type ActivityType string

const (
	ActivityStart   ActivityType = "start"
	ActivityPickup  ActivityType = "pickupShipment"
	ActivityDeliver ActivityType = "deliverShipment"
	ActivityEnd     ActivityType = "end"
)

// Represents a single stop in a delivery route.
// Parcels sharing identical delivery coordinates consolidate into one
// Stop, so ParcelIDs may hold zero, one, or many entries.
type Stop struct {
	Location  Coordinates
	Type      StopType
	ParcelIDs []string
}

// Activity is one event on a route: leaving the depot, picking up or
// delivering a parcel, or returning to the depot. ArrivalMin is the
// running time accumulation since route start; LegKm/LegMin are the
// increment from the previous activity; LoadAfter is the cumulative
// volume on board once the activity completes.
type Activity struct {
	Type       ActivityType
	ParcelID   string
	Location   Coordinates
	ArrivalMin float64
	LegKm      float64
	LegMin     float64
	LoadAfter  float64
}

// Represents the planned delivery route for a single truck.
// A Route is the output of a routing algorithm: the ordered activity
// sequence plus aggregate distance and duration metrics. It is
// immutable planning data and contains no side effects.
type Route struct {
	TruckID          string
	WarehouseVisited string
	Activities       []Activity
	Stops            []Stop
	DistanceKm       float64
	DurationMin      float64
}

// AssignedParcelIDs returns the ids of all parcels picked up on the route.
func (r Route) AssignedParcelIDs() []string {
	ids := make([]string, 0, len(r.Activities)/2)
	for _, a := range r.Activities {
		if a.Type == ActivityPickup {
			ids = append(ids, a.ParcelID)
		}
	}
	return ids
}

// RouteResult is the outcome of one optimization run: every computed
// route plus the parcels no truck could take.
type RouteResult struct {
	Routes            []Route
	TotalVehiclesUsed int
	TotalDistanceKm   float64
	TotalDurationMin  float64
	FuelCostEstimate  float64
	UnassignedParcels []string
}
