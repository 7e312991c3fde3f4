package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// RotationRepository implements persistence.RotationRepository using SQLite
type RotationRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewRotationRepository creates a new SQLite rotation repository
func NewRotationRepository(pool *ConnectionPool) *RotationRepository {
	return &RotationRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// ListStates returns the event's rotation counters
func (r *RotationRepository) ListStates(ctx context.Context, eventID string) ([]persistence.RotationState, error) {
	query := `
		SELECT event_id, host_id, period_start, booking_count, last_assigned_at
		FROM rotation_state
		WHERE event_id = ?
		ORDER BY host_id
	`

	rows, err := r.helper.Query(ctx, query, eventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var states []persistence.RotationState
	for rows.Next() {
		var s persistence.RotationState
		var lastAssigned sql.NullString
		if err := rows.Scan(&s.EventID, &s.HostID, &s.PeriodStart, &s.BookingCount, &lastAssigned); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if s.LastAssignedAt, err = timePtr(lastAssigned); err != nil {
			return nil, err
		}
		states = append(states, s)
	}
	return states, r.mapper.MapError(rows.Err())
}

// IncrementCounter bumps the host's counter for periodStart in one statement.
// A row carrying an older period is reset to 1 rather than incremented, which
// is how period rollover happens without a background job.
func (r *RotationRepository) IncrementCounter(ctx context.Context, eventID, hostID, periodStart string, at time.Time) error {
	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return r.mapper.MapError(incrementRotationTx(r.helper, tx, eventID, hostID, periodStart, at))
	})
}

func incrementRotationTx(helper *QueryHelper, tx *sql.Tx, eventID, hostID, periodStart string, at time.Time) error {
	query := `
		INSERT INTO rotation_state (event_id, host_id, period_start, booking_count, last_assigned_at)
		VALUES (?, ?, ?, 1, ?)
		ON CONFLICT(event_id, host_id) DO UPDATE SET
			booking_count = CASE
				WHEN rotation_state.period_start = excluded.period_start
				THEN rotation_state.booking_count + 1
				ELSE 1
			END,
			period_start = excluded.period_start,
			last_assigned_at = excluded.last_assigned_at
	`
	_, err := helper.ExecTx(tx, query, eventID, hostID, periodStart, formatTime(at))
	return err
}

// GetCursor returns the event's cycle position, zero when never assigned
func (r *RotationRepository) GetCursor(ctx context.Context, eventID string) (int, error) {
	var cursor int
	err := r.helper.QueryRow(ctx,
		"SELECT next_index FROM assignment_cursors WHERE event_id = ?", eventID).Scan(&cursor)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, r.mapper.MapError(err)
	}
	return cursor, nil
}

// AdvanceCursor moves the event's cycle position from expected to next in one
// guarded statement. It reports false without touching the row when another
// assignment already advanced the cursor past expected.
func (r *RotationRepository) AdvanceCursor(ctx context.Context, eventID string, expected, next int) (bool, error) {
	query := `
		INSERT INTO assignment_cursors (event_id, next_index)
		VALUES (?, ?)
		ON CONFLICT(event_id) DO UPDATE SET next_index = excluded.next_index
			WHERE assignment_cursors.next_index = ?
	`
	result, err := r.helper.Exec(ctx, query, eventID, next, expected)
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, r.mapper.MapError(err)
	}
	return affected > 0, nil
}
