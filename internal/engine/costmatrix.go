package engine

import (
	"fmt"

	"route-optimizer-service/internal/ports"
)

// CostMetric selects how distance, time and fleet utilization combine
// into the scalar cost matrix fed to the solvers.
type CostMetric string

const (
	MetricDistance             CostMetric = "DISTANCE"
	MetricTime                 CostMetric = "TIME"
	MetricBoth                 CostMetric = "BOTH"
	MetricDistanceCapacity     CostMetric = "DISTANCE_CAPACITY"
	MetricTimeCapacity         CostMetric = "TIME_CAPACITY"
	MetricDistanceTimeCapacity CostMetric = "DISTANCE_TIME_CAPACITY"
)

// costScale keeps normalized entries in a range where small relative
// differences survive later comparisons.
const costScale = 10000.0

// ParseMetric validates a metric name from external input.
func ParseMetric(s string) (CostMetric, error) {
	switch CostMetric(s) {
	case MetricDistance, MetricTime, MetricBoth,
		MetricDistanceCapacity, MetricTimeCapacity, MetricDistanceTimeCapacity:
		return CostMetric(s), nil
	case "":
		return MetricDistance, nil
	}
	return "", fmt.Errorf("parse metric: unknown cost metric %q", s)
}

// BuildCostMatrix collapses the distance and duration matrices into one
// scalar cost matrix according to the metric. Normalization divides by
// each matrix's own maximum entry (floored at 1 so degenerate all-zero
// inputs stay well-defined).
func BuildCostMatrix(m ports.Matrices, metric CostMetric, utilization float64) [][]float64 {
	n := len(m.DistanceKm)
	maxD := matrixMax(m.DistanceKm)
	maxT := matrixMax(m.DurationMin)

	factor := CapacityFactor(utilization)
	weight := CapacityWeight(utilization)

	cost := make([][]float64, n)
	for i := 0; i < n; i++ {
		cost[i] = make([]float64, n)
		for j := 0; j < n; j++ {
			d := m.DistanceKm[i][j]
			t := m.DurationMin[i][j]

			switch metric {
			case MetricTime:
				cost[i][j] = t
			case MetricBoth:
				cost[i][j] = costScale * (d/maxD + t/maxT)
			case MetricDistanceCapacity:
				cost[i][j] = costScale * (d / maxD) * factor
			case MetricTimeCapacity:
				cost[i][j] = costScale * (t / maxT) * factor
			case MetricDistanceTimeCapacity:
				cost[i][j] = costScale * (0.4*d/maxD + 0.4*t/maxT + 0.2*weight)
			default: // MetricDistance
				cost[i][j] = d
			}
		}
	}
	return cost
}

func matrixMax(m [][]float64) float64 {
	max := 1.0
	for _, row := range m {
		for _, v := range row {
			if v > max {
				max = v
			}
		}
	}
	return max
}
