package ports

import (
	"context"

	"route-optimizer-service/internal/domain"
)

// Pairwise travel matrices over an ordered point list. Both matrices are
// n×n, indexed by the position of the point in the request slice.
type Matrices struct {
	DistanceKm  [][]float64
	DurationMin [][]float64
}

// Contract for retrieving pairwise travel distance and duration.
type MatrixProvider interface {
	// Return full pairwise matrices for the given points.
	Matrices(ctx context.Context, points []domain.Coordinates) (Matrices, error)
}
