package distance

import (
	"context"
	"errors"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// StaticProvider returns pre-built matrices regardless of the points
// requested, as long as the dimensions line up. Used in tests and as a
// stand-in when matrices are supplied out of band.
type StaticProvider struct {
	M ports.Matrices
}

func (s *StaticProvider) Matrices(_ context.Context, points []domain.Coordinates) (ports.Matrices, error) {
	if len(s.M.DistanceKm) != len(points) {
		return ports.Matrices{}, errors.New("static matrix size does not match point count")
	}
	return s.M, nil
}

// FailingProvider always errors. Used in tests exercising provider
// fallback.
type FailingProvider struct {
	Err error
}

func (f *FailingProvider) Matrices(context.Context, []domain.Coordinates) (ports.Matrices, error) {
	if f.Err != nil {
		return ports.Matrices{}, f.Err
	}
	return ports.Matrices{}, errors.New("matrix provider unavailable")
}
