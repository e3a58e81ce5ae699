package distance

import (
	"context"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// HaversineProvider approximates travel with great-circle distances
// and a flat average speed. It is the default provider and the
// fallback target when an external road-routing API is unreachable.
type HaversineProvider struct {
	speedKmh float64
}

func NewHaversineProvider(speedKmh float64) *HaversineProvider {
	if speedKmh <= 0 {
		speedKmh = 50
	}
	return &HaversineProvider{speedKmh: speedKmh}
}

// Matrices computes symmetric pairwise distance/duration matrices.
func (h *HaversineProvider) Matrices(ctx context.Context, points []domain.Coordinates) (ports.Matrices, error) {
	if err := ctx.Err(); err != nil {
		return ports.Matrices{}, err
	}

	n := len(points)
	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			km := points[i].HaversineKm(points[j])
			minutes := km / h.speedKmh * 60
			dist[i][j], dist[j][i] = km, km
			dur[i][j], dur[j][i] = minutes, minutes
		}
	}

	return ports.Matrices{DistanceKm: dist, DurationMin: dur}, nil
}
