package distance

import (
	"context"
	"log"

	"route-optimizer-service/internal/domain"
	"route-optimizer-service/internal/ports"
)

// FallbackProvider tries a primary provider and degrades to a
// secondary (typically haversine) when the primary fails. Optimization
// keeps working through external API outages, just with coarser
// estimates.
type FallbackProvider struct {
	Primary   ports.MatrixProvider
	Secondary ports.MatrixProvider
}

func NewFallbackProvider(primary, secondary ports.MatrixProvider) *FallbackProvider {
	return &FallbackProvider{Primary: primary, Secondary: secondary}
}

func (f *FallbackProvider) Matrices(ctx context.Context, points []domain.Coordinates) (ports.Matrices, error) {
	m, err := f.Primary.Matrices(ctx, points)
	if err == nil {
		return m, nil
	}
	if ctx.Err() != nil {
		return ports.Matrices{}, err
	}
	log.Printf("matrix provider failed, falling back to estimate: %v", err)
	return f.Secondary.Matrices(ctx, points)
}
