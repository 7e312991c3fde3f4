package sqlite

import (
	"context"
	"database/sql"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// PatternRepository implements persistence.PatternRepository using SQLite
type PatternRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewPatternRepository creates a new SQLite pattern repository
func NewPatternRepository(pool *ConnectionPool) *PatternRepository {
	return &PatternRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ReplacePatternsForHost swaps the host's full pattern set in one transaction.
// Editing availability is always a wholesale replace so a half-applied update
// can never be observed by slot generation.
func (r *PatternRepository) ReplacePatternsForHost(ctx context.Context, hostID string, patterns []persistence.AvailabilityPattern) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		if _, err := r.helper.ExecTx(tx, "DELETE FROM availability_patterns WHERE host_id = ?", hostID); err != nil {
			return r.mapper.MapError(err)
		}

		query := `
			INSERT INTO availability_patterns (id, host_id, weekday, start_time, end_time, timezone, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		for _, p := range patterns {
			_, err := r.helper.ExecTx(tx, query,
				p.ID,
				hostID,
				p.Weekday,
				p.StartTime,
				p.EndTime,
				p.Timezone,
				boolToInt(p.Active),
				formatTime(p.CreatedAt),
				formatTime(p.UpdatedAt),
			)
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// ListActivePatterns returns the host's active patterns ordered by weekday
// and start time
func (r *PatternRepository) ListActivePatterns(ctx context.Context, hostID string) ([]persistence.AvailabilityPattern, error) {
	query := `
		SELECT id, host_id, weekday, start_time, end_time, timezone, active, created_at, updated_at
		FROM availability_patterns
		WHERE host_id = ? AND active = 1
		ORDER BY weekday, start_time
	`

	rows, err := r.helper.Query(ctx, query, hostID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var patterns []persistence.AvailabilityPattern
	for rows.Next() {
		var p persistence.AvailabilityPattern
		var active int
		var createdAt, updatedAt string
		err := rows.Scan(&p.ID, &p.HostID, &p.Weekday, &p.StartTime, &p.EndTime, &p.Timezone, &active, &createdAt, &updatedAt)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		p.Active = active != 0
		if p.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	return patterns, r.mapper.MapError(rows.Err())
}
