package dto

import (
	"fmt"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/engine"
)

type DepotRequest struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type TruckRequest struct {
	ID       string  `json:"id"`
	Plate    string  `json:"plate,omitempty"`
	Capacity float64 `json:"capacity"`
	// Available defaults to true when omitted.
	Available *bool `json:"available,omitempty"`
}

type ParcelRequest struct {
	ID           string  `json:"id"`
	Name         string  `json:"name,omitempty"`
	Volume       float64 `json:"volume"`
	WarehouseID  string  `json:"warehouseId,omitempty"`
	WarehouseLat float64 `json:"warehouseLat"`
	WarehouseLon float64 `json:"warehouseLon"`
	DeliveryLat  float64 `json:"deliveryLat"`
	DeliveryLon  float64 `json:"deliveryLon"`
	Recipient    string  `json:"recipient,omitempty"`
}

type OptimizeRequest struct {
	Depot   DepotRequest    `json:"depot"`
	Trucks  []TruckRequest  `json:"trucks"`
	Parcels []ParcelRequest `json:"parcels"`
	Metric  string          `json:"metric,omitempty"`
	Solver  string          `json:"solver,omitempty"`
}

// ToEngine maps the wire request onto engine input types. Unknown
// metric or solver names are rejected here, before any solving.
func (r OptimizeRequest) ToEngine() (engine.Request, error) {
	metric, err := engine.ParseMetric(r.Metric)
	if err != nil {
		return engine.Request{}, err
	}

	solver := engine.SolverAuto
	switch engine.SolverMode(r.Solver) {
	case "", engine.SolverAuto:
	case engine.SolverExact:
		solver = engine.SolverExact
	case engine.SolverHeuristic:
		solver = engine.SolverHeuristic
	default:
		return engine.Request{}, fmt.Errorf("unknown solver mode %q", r.Solver)
	}

	req := engine.Request{
		Depot: domain.Depot{
			DepotID: r.Depot.ID,
			Name:    r.Depot.Name,
			Location: domain.Coordinates{
				Lat: r.Depot.Latitude,
				Lon: r.Depot.Longitude,
			},
		},
		Metric: metric,
		Solver: solver,
	}

	req.Trucks = make([]domain.Truck, 0, len(r.Trucks))
	for _, t := range r.Trucks {
		available := true
		if t.Available != nil {
			available = *t.Available
		}
		req.Trucks = append(req.Trucks, domain.Truck{
			TruckID:   t.ID,
			Plate:     t.Plate,
			Capacity:  t.Capacity,
			Available: available,
		})
	}

	req.Parcels = make([]domain.Parcel, 0, len(r.Parcels))
	for _, p := range r.Parcels {
		req.Parcels = append(req.Parcels, domain.Parcel{
			ParcelID:    p.ID,
			Name:        p.Name,
			Volume:      p.Volume,
			WarehouseID: p.WarehouseID,
			Pickup:      domain.Coordinates{Lat: p.WarehouseLat, Lon: p.WarehouseLon},
			Delivery:    domain.Coordinates{Lat: p.DeliveryLat, Lon: p.DeliveryLon},
			Recipient:   p.Recipient,
		})
	}

	return req, nil
}

type ActivityResponse struct {
	Type        string  `json:"type"`
	ParcelID    string  `json:"parcelId,omitempty"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	ArrivalTime float64 `json:"arrivalTime"`
	LegDistance float64 `json:"legDistance"`
	LegTime     float64 `json:"legTime"`
	LoadAfter   float64 `json:"loadAfter"`
}

type StopResponse struct {
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Type      string   `json:"type"`
	ParcelIDs []string `json:"parcelIds,omitempty"`
}

type RouteResponse struct {
	TruckID           string             `json:"truckId"`
	Distance          float64            `json:"distance"`
	Time              float64            `json:"time"`
	WarehouseVisited  string             `json:"warehouseVisited,omitempty"`
	AssignedParcelIDs []string           `json:"assignedParcelIds"`
	Activities        []ActivityResponse `json:"activities"`
	Stops             []StopResponse     `json:"stops"`
}

type OptimizeResponse struct {
	PlanID              string          `json:"planId"`
	TotalVehiclesUsed   int             `json:"totalVehiclesUsed"`
	TotalDistance       float64         `json:"totalDistance"`
	TotalTime           float64         `json:"totalTime"`
	FuelCostEstimate    float64         `json:"fuelCostEstimate"`
	Routes              []RouteResponse `json:"routes"`
	UnassignedParcelIDs []string        `json:"unassignedParcelIds"`
}

// FromResult maps an engine result onto the wire response.
func FromResult(planID string, res domain.RouteResult) OptimizeResponse {
	out := OptimizeResponse{
		PlanID:              planID,
		TotalVehiclesUsed:   res.TotalVehiclesUsed,
		TotalDistance:       res.TotalDistanceKm,
		TotalTime:           res.TotalDurationMin,
		FuelCostEstimate:    res.FuelCostEstimate,
		Routes:              make([]RouteResponse, 0, len(res.Routes)),
		UnassignedParcelIDs: res.UnassignedParcels,
	}
	if out.UnassignedParcelIDs == nil {
		out.UnassignedParcelIDs = []string{}
	}

	for _, rt := range res.Routes {
		rr := RouteResponse{
			TruckID:           rt.TruckID,
			Distance:          rt.DistanceKm,
			Time:              rt.DurationMin,
			WarehouseVisited:  rt.WarehouseVisited,
			AssignedParcelIDs: rt.AssignedParcelIDs(),
			Activities:        make([]ActivityResponse, 0, len(rt.Activities)),
			Stops:             make([]StopResponse, 0, len(rt.Stops)),
		}
		for _, a := range rt.Activities {
			rr.Activities = append(rr.Activities, ActivityResponse{
				Type:        string(a.Type),
				ParcelID:    a.ParcelID,
				Lat:         a.Location.Lat,
				Lon:         a.Location.Lon,
				ArrivalTime: a.ArrivalMin,
				LegDistance: a.LegKm,
				LegTime:     a.LegMin,
				LoadAfter:   a.LoadAfter,
			})
		}
		for _, s := range rt.Stops {
			rr.Stops = append(rr.Stops, StopResponse{
				Lat:       s.Location.Lat,
				Lon:       s.Location.Lon,
				Type:      string(s.Type),
				ParcelIDs: s.ParcelIDs,
			})
		}
		out.Routes = append(out.Routes, rr)
	}

	return out
}

type StoredPlanResponse struct {
	PlanID    string           `json:"planId"`
	CreatedAt time.Time        `json:"createdAt"`
	DepotID   string           `json:"depotId"`
	Metric    string           `json:"metric"`
	Result    OptimizeResponse `json:"result"`
}

type ListPlansResponse struct {
	Plans []StoredPlanResponse `json:"plans"`
}
