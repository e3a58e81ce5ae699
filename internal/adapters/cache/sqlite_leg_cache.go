package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"route-optimizer-service/internal/ports"
)

// SQLite backed cache for origin->destination leg results. Keys are
// expected to be consistent (e.g. coordinates already rounded) by the
// caller.
type SqliteLegCache struct {
	DB *sql.DB
}

func NewSqliteLegCache(db *sql.DB) *SqliteLegCache {
	return &SqliteLegCache{DB: db}
}

// Fetch cached legs for one origin and multiple destinations.
func (s *SqliteLegCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.LegResult, error) {
	if s.DB == nil {
		return nil, errors.New("leg cache: db is nil")
	}

	if origin == "" {
		return nil, errors.New("get leg cache: origin must not be empty")
	}

	if len(destinations) == 0 {
		return map[string]ports.LegResult{}, nil
	}

	seen := map[string]struct{}{}
	uniq := make([]string, 0, len(destinations))
	ph := make([]string, 0, len(destinations))
	for _, d := range destinations {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}

		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		uniq = append(uniq, d)
		ph = append(ph, "?")
	}

	if len(uniq) == 0 {
		return map[string]ports.LegResult{}, nil
	}

	placeholders := strings.Join(ph, ",")
	args := make([]any, 0, 1+len(uniq))
	args = append(args, origin)
	for _, d := range uniq {
		args = append(args, d)
	}

	// SQLite does not support binding slices directly in an IN (...) clause.
	// Only the placeholder structure is interpolated; all values remain parameterized.
	q := fmt.Sprintf(`
	SELECT
        destination,
        distance_km,
        duration_min
    FROM leg_cache
    WHERE origin = ?
        AND destination IN (%s);
	`, placeholders)

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get leg cache: query leg_cache table: %w", err)
	}
	defer rows.Close()

	out := make(map[string]ports.LegResult, len(uniq))
	for rows.Next() {
		var dest string
		var km, min float64
		if err := rows.Scan(&dest, &km, &min); err != nil {
			return nil, fmt.Errorf("get leg cache: scan rows: %w", err)
		}
		out[dest] = ports.LegResult{
			DistanceKm:  km,
			DurationMin: min,
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get leg cache: row iteration: %w", err)
	}

	return out, nil
}

// Store many cached leg results for a single origin.
func (s *SqliteLegCache) PutMany(ctx context.Context, origin string, results map[string]ports.LegResult) error {
	if s.DB == nil {
		return errors.New("leg cache: db is nil")
	}

	if origin == "" {
		return errors.New("insert leg cache: origin must not be empty")
	}

	if len(results) == 0 {
		return nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("insert leg cache: db begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
	INSERT OR REPLACE INTO leg_cache (
        origin,
        destination,
        distance_km,
        duration_min
    )
    VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("insert leg cache: db prepare: %w", err)
	}
	defer stmt.Close()

	for dest, r := range results {
		if strings.TrimSpace(dest) == "" {
			return fmt.Errorf("insert leg cache: empty destination key")
		}

		if _, err := stmt.ExecContext(ctx, origin, dest, r.DistanceKm, r.DurationMin); err != nil {
			return fmt.Errorf("insert leg cache dest=%q: %w", dest, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("insert leg cache commit: %w", err)
	}

	return nil
}
