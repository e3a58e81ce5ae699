package ports

import "context"

// Distance and travel duration for a single cached leg.
type LegResult struct {
	DistanceKm  float64
	DurationMin float64
}

// Port: a persistent cache for origin->destination leg results.
// Keys are expected to be consistent (e.g., already normalized
// coordinate strings) by the caller.
type LegCache interface {
	// Fetch cached legs for one origin and multiple destinations.
	// Missing destinations are simply absent from the returned map.
	GetMany(ctx context.Context, origin string, destinations []string) (map[string]LegResult, error)
	// Store many leg results for a single origin.
	PutMany(ctx context.Context, origin string, results map[string]LegResult) error
}
