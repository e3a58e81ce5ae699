package distance

import (
	"fmt"
	"strings"

	"route-optimizer-service/internal/ports"
)

// Config selects and parameterizes a matrix provider.
type Config struct {
	// Provider is one of "haversine", "ors" or "google".
	Provider string
	// APIKey authenticates against the chosen external service.
	// Ignored for haversine.
	APIKey string
	// AvgSpeedKmh tunes the haversine duration estimate.
	AvgSpeedKmh float64
	// Cache, when set, persists individual legs between requests.
	Cache ports.LegCache
}

// NewProvider builds a MatrixProvider from config. Unknown names are
// an error rather than a silent default so that a typo in an env var
// fails at startup.
func NewProvider(cfg Config) (ports.MatrixProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", "haversine":
		return NewHaversineProvider(cfg.AvgSpeedKmh), nil
	case "ors":
		return NewORSProvider(cfg.APIKey, cfg.Cache)
	case "google":
		return NewGoogleProvider(cfg.APIKey)
	default:
		return nil, fmt.Errorf("unknown matrix provider %q", cfg.Provider)
	}
}
