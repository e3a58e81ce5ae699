package distance

import (
	"context"
	"errors"
	"fmt"

	"googlemaps.github.io/maps"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// GoogleProvider implements MatrixProvider on top of the Google
// Distance Matrix API.
type GoogleProvider struct {
	client *maps.Client
}

func NewGoogleProvider(apiKey string) (*GoogleProvider, error) {
	if apiKey == "" {
		return nil, errors.New("google maps api key is empty")
	}
	c, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create google maps client: %w", err)
	}
	return &GoogleProvider{client: c}, nil
}

func (g *GoogleProvider) Matrices(ctx context.Context, points []domain.Coordinates) (ports.Matrices, error) {
	n := len(points)
	if n == 0 {
		return ports.Matrices{}, nil
	}

	latlngs := make([]string, n)
	for i, p := range points {
		latlngs[i] = fmt.Sprintf("%f,%f", p.Lat, p.Lon)
	}

	resp, err := g.client.DistanceMatrix(ctx, &maps.DistanceMatrixRequest{
		Origins:      latlngs,
		Destinations: latlngs,
		Mode:         maps.TravelModeDriving,
	})
	if err != nil {
		return ports.Matrices{}, fmt.Errorf("google distance matrix: %w", err)
	}
	if len(resp.Rows) != n {
		return ports.Matrices{}, fmt.Errorf("expected %d matrix rows, got %d", n, len(resp.Rows))
	}

	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i, row := range resp.Rows {
		if len(row.Elements) != n {
			return ports.Matrices{}, fmt.Errorf("matrix row %d has %d elements, want %d", i, len(row.Elements), n)
		}
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		for j, el := range row.Elements {
			if i == j {
				continue
			}
			if el.Status != "OK" {
				return ports.Matrices{}, fmt.Errorf("no route between points %d and %d: %s", i, j, el.Status)
			}
			dist[i][j] = round3(float64(el.Distance.Meters) / 1000)
			dur[i][j] = round3(el.Duration.Minutes())
		}
	}

	return ports.Matrices{DistanceKm: dist, DurationMin: dur}, nil
}
