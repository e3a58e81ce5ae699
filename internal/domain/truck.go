package domain

// Delivery truck available for one optimization run. Read-only input:
// the engine never mutates trucks, it derives TruckAssignments instead.
type Truck struct {
	TruckID   string
	Plate     string
	Capacity  float64
	Available bool
}

// Depot is the fixed start and end point of every route in a run.
type Depot struct {
	DepotID  string
	Name     string
	Location Coordinates
}

// Warehouse is the pickup origin for its group of parcels.
type Warehouse struct {
	WarehouseID string
	Location    Coordinates
}

// TruckAssignment binds a truck to the parcel subset it will carry.
// Invariant: TotalVolume never exceeds the truck's capacity.
type TruckAssignment struct {
	Truck       Truck
	Parcels     []Parcel
	TotalVolume float64
}
