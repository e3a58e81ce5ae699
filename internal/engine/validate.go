package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest marks caller errors rejected before any solving
// begins. Handlers map it to a 4xx response via errors.Is.
var ErrInvalidRequest = errors.New("invalid optimize request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// Validate rejects malformed requests with a reason naming the
// offending field or entity. An empty parcel list is valid input and
// yields an empty result, not an error.
func (r Request) Validate() error {
	if r.Depot.DepotID == "" {
		return invalidf("depot is required")
	}
	if !r.Depot.Location.Valid() {
		return invalidf("depot %q: latitude/longitude out of range", r.Depot.DepotID)
	}

	available := 0
	var fleetCapacity float64
	for _, t := range r.Trucks {
		if t.TruckID == "" {
			return invalidf("truck without id")
		}
		if t.Capacity <= 0 {
			return invalidf("truck %q: capacity must be positive", t.TruckID)
		}
		if t.Available {
			available++
			fleetCapacity += t.Capacity
		}
	}
	if available == 0 {
		return invalidf("no available trucks")
	}

	for _, p := range r.Parcels {
		if p.ParcelID == "" {
			return invalidf("parcel without id")
		}
		if p.Volume <= 0 {
			return invalidf("parcel %q: volume must be positive", p.ParcelID)
		}
		if !p.Pickup.Valid() {
			return invalidf("parcel %q: pickup latitude/longitude out of range", p.ParcelID)
		}
		if !p.Delivery.Valid() {
			return invalidf("parcel %q: delivery latitude/longitude out of range", p.ParcelID)
		}
		if p.Volume > fleetCapacity {
			return invalidf("parcel %q: volume %.1f exceeds total fleet capacity %.1f",
				p.ParcelID, p.Volume, fleetCapacity)
		}
	}

	return nil
}
