package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// IntervalRepository implements persistence.IntervalRepository using SQLite
type IntervalRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewIntervalRepository creates a new SQLite busy-interval repository
func NewIntervalRepository(pool *ConnectionPool) *IntervalRepository {
	return &IntervalRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ReplaceRange drops cached intervals starting inside [from, to) and inserts
// the fresh set in one transaction. Re-running a sync for the same window is
// a no-op beyond the latest provider data.
func (r *IntervalRepository) ReplaceRange(ctx context.Context, hostID string, from, to time.Time, intervals []persistence.BusyInterval) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := r.helper.ExecTx(tx,
			"DELETE FROM busy_intervals WHERE host_id = ? AND start_time >= ? AND start_time < ?",
			hostID, formatTime(from), formatTime(to))
		if err != nil {
			return r.mapper.MapError(err)
		}

		for _, iv := range intervals {
			_, err := r.helper.ExecTx(tx,
				"INSERT INTO busy_intervals (host_id, start_time, end_time) VALUES (?, ?, ?)",
				hostID, formatTime(iv.Start), formatTime(iv.End))
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// ListIntervals returns the host's cached intervals overlapping [from, to)
func (r *IntervalRepository) ListIntervals(ctx context.Context, hostID string, from, to time.Time) ([]persistence.BusyInterval, error) {
	query := `
		SELECT host_id, start_time, end_time
		FROM busy_intervals
		WHERE host_id = ? AND end_time > ? AND start_time < ?
		ORDER BY start_time
	`

	rows, err := r.helper.Query(ctx, query, hostID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var intervals []persistence.BusyInterval
	for rows.Next() {
		var iv persistence.BusyInterval
		var start, end string
		if err := rows.Scan(&iv.HostID, &start, &end); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if iv.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if iv.End, err = parseTime(end); err != nil {
			return nil, err
		}
		intervals = append(intervals, iv)
	}
	return intervals, r.mapper.MapError(rows.Err())
}
