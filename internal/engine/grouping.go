package engine

import (
	"fmt"
	"sort"

	"route-optimizer-service/internal/domain"
)

// ParcelGroup is the routing sub-problem for one warehouse: its parcel
// subset and the total volume to move. Groups are solved independently
// and never observe each other's state.
type ParcelGroup struct {
	Warehouse   domain.Warehouse
	Parcels     []domain.Parcel
	TotalVolume float64
}

// GroupByWarehouse partitions parcels by their origin warehouse in a
// single pass. Parcels without an explicit warehouse id are keyed by
// their rounded pickup coordinate so co-located pickups still group
// together. Returned groups are sorted by key for deterministic
// downstream iteration.
func GroupByWarehouse(parcels []domain.Parcel) []ParcelGroup {
	byKey := make(map[string]*ParcelGroup)

	for _, p := range parcels {
		key := warehouseKey(p)
		g, ok := byKey[key]
		if !ok {
			g = &ParcelGroup{
				Warehouse: domain.Warehouse{WarehouseID: key, Location: p.Pickup},
			}
			byKey[key] = g
		}
		g.Parcels = append(g.Parcels, p)
		g.TotalVolume += p.Volume
	}

	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	groups := make([]ParcelGroup, 0, len(keys))
	for _, k := range keys {
		groups = append(groups, *byKey[k])
	}
	return groups
}

// warehouseKey prefers the explicit warehouse id; rounding to four
// decimals (~11 m) keeps keys stable across float noise when only
// coordinates are supplied.
func warehouseKey(p domain.Parcel) string {
	if p.WarehouseID != "" {
		return p.WarehouseID
	}
	return fmt.Sprintf("%.4f,%.4f", p.Pickup.Lat, p.Pickup.Lon)
}
