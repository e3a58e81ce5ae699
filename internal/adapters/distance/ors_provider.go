package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math"
	"net/http"
	"time"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/platform/obs"
	"route-optimizer-service/internal/ports"
)

// ORSProvider implements MatrixProvider using the OpenRouteService
// matrix endpoint.
//
// It coordinates:
//   - Persistent leg-level caching (sqlite or redis backed)
//   - External API calls with retry/backoff
//
// The provider is safe for concurrent use.
type ORSProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
	profile string
	cache   ports.LegCache
}

func NewORSProvider(apiKey string, cache ports.LegCache) (*ORSProvider, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		profile: "driving-hgv",
		cache:   cache,
	}, nil
}

// coordKey normalizes a point into a stable cache key. Five decimals
// (~1 m) keep keys identical across repeated requests for the same
// parcel set.
func coordKey(c domain.Coordinates) string {
	return fmt.Sprintf("%.5f,%.5f", c.Lat, c.Lon)
}

// Matrices returns full pairwise matrices for the given points,
// serving every leg from cache when possible and fetching the whole
// matrix in one call otherwise.
func (o *ORSProvider) Matrices(ctx context.Context, points []domain.Coordinates) (_ ports.Matrices, err error) {
	defer obs.Time(ctx, "ors.Matrices")(&err)

	n := len(points)
	if n == 0 {
		return ports.Matrices{}, nil
	}

	keys := make([]string, n)
	for i, p := range points {
		keys[i] = coordKey(p)
	}

	if m, ok := o.fromCache(ctx, keys); ok {
		return m, nil
	}

	m, err := o.fetchMatrix(ctx, points)
	if err != nil {
		return ports.Matrices{}, fmt.Errorf("ORS matrix: %w", err)
	}

	o.storeLegs(ctx, keys, m)
	return m, nil
}

// fromCache assembles the matrices entirely from cached legs. Any
// missing leg aborts assembly; partial matrices are useless to the
// solver.
func (o *ORSProvider) fromCache(ctx context.Context, keys []string) (ports.Matrices, bool) {
	if o.cache == nil {
		return ports.Matrices{}, false
	}

	n := len(keys)
	dist := make([][]float64, n)
	dur := make([][]float64, n)

	for i := 0; i < n; i++ {
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)

		dests := make([]string, 0, n-1)
		for j, k := range keys {
			if j != i {
				dests = append(dests, k)
			}
		}

		hits, err := o.cache.GetMany(ctx, keys[i], dests)
		if err != nil {
			log.Printf("leg cache read failed: %v", err)
			return ports.Matrices{}, false
		}

		for j, k := range keys {
			if j == i {
				continue
			}
			leg, ok := hits[k]
			if !ok {
				return ports.Matrices{}, false
			}
			dist[i][j] = leg.DistanceKm
			dur[i][j] = leg.DurationMin
		}
	}

	return ports.Matrices{DistanceKm: dist, DurationMin: dur}, true
}

func (o *ORSProvider) storeLegs(ctx context.Context, keys []string, m ports.Matrices) {
	if o.cache == nil {
		return
	}

	for i, origin := range keys {
		row := make(map[string]ports.LegResult, len(keys)-1)
		for j, dest := range keys {
			if i == j {
				continue
			}
			row[dest] = ports.LegResult{
				DistanceKm:  m.DistanceKm[i][j],
				DurationMin: m.DurationMin[i][j],
			}
		}
		if err := o.cache.PutMany(ctx, origin, row); err != nil {
			log.Printf("leg cache write failed: %v", err)
			return
		}
	}
}

type matrixRequest struct {
	Locations [][]float64 `json:"locations"`
	Metrics   []string    `json:"metrics"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

// fetchMatrix retrieves the full pairwise matrix from the ORS matrix
// endpoint in a single call.
func (o *ORSProvider) fetchMatrix(ctx context.Context, points []domain.Coordinates) (ports.Matrices, error) {
	endpoint := fmt.Sprintf("%s/v2/matrix/%s", o.baseURL, o.profile)

	locations := make([][]float64, len(points))
	for i, p := range points {
		locations[i] = p.CoordsToList()
	}

	payload, err := json.Marshal(matrixRequest{
		Locations: locations,
		Metrics:   []string{"distance", "duration"},
	})
	if err != nil {
		return ports.Matrices{}, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.doWithRetry(ctx, func() (*http.Request, error) {
		return o.newRequest(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	})
	if err != nil {
		return ports.Matrices{}, fmt.Errorf("matrix request failed: %w", err)
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return ports.Matrices{}, fmt.Errorf("decode matrix response: %w", err)
	}

	n := len(points)
	if len(mr.Distances) != n || len(mr.Durations) != n {
		return ports.Matrices{}, fmt.Errorf(
			"expected %d matrix rows; got distances=%d durations=%d",
			n, len(mr.Distances), len(mr.Durations),
		)
	}

	dist := make([][]float64, n)
	dur := make([][]float64, n)
	for i := 0; i < n; i++ {
		if len(mr.Distances[i]) != n || len(mr.Durations[i]) != n {
			return ports.Matrices{}, fmt.Errorf("matrix row %d has wrong length", i)
		}
		dist[i] = make([]float64, n)
		dur[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			meters := mr.Distances[i][j]
			seconds := mr.Durations[i][j]
			if meters == nil || seconds == nil {
				return ports.Matrices{}, fmt.Errorf("matrix returned invalid metrics at [%d][%d]", i, j)
			}
			// ORS reports meters and seconds; the engine works in km
			// and minutes.
			dist[i][j] = round3(*meters / 1000)
			dur[i][j] = round3(*seconds / 60)
		}
	}

	return ports.Matrices{DistanceKm: dist, DurationMin: dur}, nil
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
