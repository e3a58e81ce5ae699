package engine

import (
	"fmt"

	"route-optimizer-service/internal/domain"
)

// NodeKind classifies a solver node.
type NodeKind int

const (
	NodeDepot NodeKind = iota
	NodePickup
	NodeDelivery
)

// LocationMap assigns every distinct depot/pickup/delivery point a
// stable integer node index for the solver and keeps the
// index<->semantic-key mapping. Node 0 is always the depot; parcel i
// owns pickup node 1+2i and delivery node 2+2i.
type LocationMap struct {
	coords    []domain.Coordinates
	kinds     []NodeKind
	parcelIdx []int // parcel index per node, -1 for the depot
	byKey     map[string]int
}

// NewLocationMap indexes the depot and each parcel's pickup and
// delivery points. The parcel slice order defines node numbering, so
// identical input always produces identical indices.
func NewLocationMap(depot domain.Coordinates, parcels []domain.Parcel) *LocationMap {
	n := 1 + 2*len(parcels)
	lm := &LocationMap{
		coords:    make([]domain.Coordinates, 0, n),
		kinds:     make([]NodeKind, 0, n),
		parcelIdx: make([]int, 0, n),
		byKey:     make(map[string]int, n),
	}

	lm.add(depot, NodeDepot, -1, "depot")
	for i, p := range parcels {
		lm.add(p.Pickup, NodePickup, i, "pickup:"+p.ParcelID)
		lm.add(p.Delivery, NodeDelivery, i, "delivery:"+p.ParcelID)
	}
	return lm
}

func (lm *LocationMap) add(c domain.Coordinates, kind NodeKind, parcel int, key string) {
	lm.byKey[key] = len(lm.coords)
	lm.coords = append(lm.coords, c)
	lm.kinds = append(lm.kinds, kind)
	lm.parcelIdx = append(lm.parcelIdx, parcel)
}

// NodeCount returns the number of indexed nodes (1 + 2*parcels).
func (lm *LocationMap) NodeCount() int { return len(lm.coords) }

// Coordinates returns every node's location in index order. The slice
// is shared; callers must not mutate it.
func (lm *LocationMap) Coordinates() []domain.Coordinates { return lm.coords }

// Coordinate returns the location of a single node.
func (lm *LocationMap) Coordinate(node int) domain.Coordinates { return lm.coords[node] }

// Kind returns a node's classification.
func (lm *LocationMap) Kind(node int) NodeKind { return lm.kinds[node] }

// ParcelIndex returns the parcel a node belongs to, or -1 for the depot.
func (lm *LocationMap) ParcelIndex(node int) int { return lm.parcelIdx[node] }

// PickupNode returns the node index of a parcel's pickup.
func (lm *LocationMap) PickupNode(parcel int) int { return 1 + 2*parcel }

// DeliveryNode returns the node index of a parcel's delivery.
func (lm *LocationMap) DeliveryNode(parcel int) int { return 2 + 2*parcel }

// NodeByKey resolves a semantic key ("depot", "pickup:<id>",
// "delivery:<id>") to its node index.
func (lm *LocationMap) NodeByKey(key string) (int, error) {
	node, ok := lm.byKey[key]
	if !ok {
		return 0, fmt.Errorf("location map: unknown key %q", key)
	}
	return node, nil
}
