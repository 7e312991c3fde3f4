package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// BookingRepository implements persistence.BookingRepository using SQLite
type BookingRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewBookingRepository creates a new SQLite booking repository
func NewBookingRepository(pool *ConnectionPool) *BookingRepository {
	return &BookingRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CommitBooking is the serialization point for concurrent booking attempts.
// Everything runs in one transaction so a booking, its slot row, and the
// rotation counter always move together:
//
//  1. The slot is materialized if it does not exist yet. The unique
//     (event_id, start_time) key makes two racing requests converge on the
//     same row.
//  2. The booking insert is guarded by a capacity subquery. When the slot is
//     already full the insert affects zero rows and the attempt loses with
//     ErrCapacityExceeded instead of overbooking.
//  3. The winner's rotation counter is bumped, so losers never skew the
//     least-bookings distribution.
func (r *BookingRepository) CommitBooking(ctx context.Context, params persistence.CommitBookingParams) (persistence.Booking, error) {
	var booking persistence.Booking

	err := r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		slotID, err := r.ensureSlot(tx, params)
		if err != nil {
			return err
		}

		query := `
			INSERT INTO bookings (id, slot_id, event_id, host_id, attendee_name, attendee_email, start_time, end_time, created_at)
			SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?
			WHERE (SELECT COUNT(*) FROM bookings WHERE slot_id = ? AND cancelled_at IS NULL) < ?
		`
		result, err := r.helper.ExecTx(tx, query,
			params.BookingID,
			slotID,
			params.EventID,
			params.HostID,
			params.AttendeeName,
			params.AttendeeEmail,
			formatTime(params.Start),
			formatTime(params.End),
			formatTime(params.Now),
			slotID,
			params.MaxAttendees,
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		affected, err := result.RowsAffected()
		if err != nil {
			return r.mapper.MapError(err)
		}
		if affected == 0 {
			return persistence.ErrCapacityExceeded
		}

		if params.IncrementRotation {
			if err := incrementRotationTx(r.helper, tx, params.EventID, params.HostID, params.PeriodStart, params.Now); err != nil {
				return r.mapper.MapError(err)
			}
		}

		booking = persistence.Booking{
			ID:            params.BookingID,
			SlotID:        slotID,
			EventID:       params.EventID,
			HostID:        params.HostID,
			AttendeeName:  params.AttendeeName,
			AttendeeEmail: params.AttendeeEmail,
			Start:         params.Start,
			End:           params.End,
			CreatedAt:     params.Now,
		}
		return nil
	})
	if err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// ensureSlot materializes the slot row for the booking's start time and
// returns its ID. When a concurrent request already created the slot, the
// existing row wins and its ID is returned instead.
func (r *BookingRepository) ensureSlot(tx *sql.Tx, params persistence.CommitBookingParams) (string, error) {
	query := `
		INSERT INTO slots (id, event_id, host_id, start_time, end_time, external_ref, cancelled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, NULL, ?)
		ON CONFLICT(event_id, start_time) DO NOTHING
	`
	_, err := r.helper.ExecTx(tx, query,
		params.SlotID,
		params.EventID,
		params.HostID,
		formatTime(params.Start),
		formatTime(params.End),
		nullableString(params.ExternalRef),
		formatTime(params.Now),
	)
	if err != nil {
		return "", r.mapper.MapError(err)
	}

	var slotID string
	var cancelledAt sql.NullString
	err = r.helper.QueryRowTx(tx,
		"SELECT id, cancelled_at FROM slots WHERE event_id = ? AND start_time = ?",
		params.EventID, formatTime(params.Start)).Scan(&slotID, &cancelledAt)
	if err != nil {
		return "", r.mapper.MapError(err)
	}
	if cancelledAt.Valid {
		return "", persistence.ErrNotFound
	}
	return slotID, nil
}

// GetBooking retrieves a booking by ID
func (r *BookingRepository) GetBooking(ctx context.Context, id string) (persistence.Booking, error) {
	query := `
		SELECT id, slot_id, event_id, host_id, attendee_name, attendee_email,
			start_time, end_time, created_at, cancelled_at, attended_at
		FROM bookings
		WHERE id = ?
	`

	var booking persistence.Booking
	var start, end, createdAt string
	var cancelledAt, attendedAt sql.NullString
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.SlotID,
		&booking.EventID,
		&booking.HostID,
		&booking.AttendeeName,
		&booking.AttendeeEmail,
		&start,
		&end,
		&createdAt,
		&cancelledAt,
		&attendedAt,
	)
	if err != nil {
		return persistence.Booking{}, r.mapper.MapError(err)
	}

	if booking.Start, err = parseTime(start); err != nil {
		return persistence.Booking{}, err
	}
	if booking.End, err = parseTime(end); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.CancelledAt, err = timePtr(cancelledAt); err != nil {
		return persistence.Booking{}, err
	}
	if booking.AttendedAt, err = timePtr(attendedAt); err != nil {
		return persistence.Booking{}, err
	}
	return booking, nil
}

// CancelBooking marks a booking cancelled, freeing its seat on the slot
func (r *BookingRepository) CancelBooking(ctx context.Context, id string, at time.Time) error {
	result, err := r.helper.Exec(ctx,
		"UPDATE bookings SET cancelled_at = ? WHERE id = ? AND cancelled_at IS NULL",
		formatTime(at), id)
	if err != nil {
		return r.mapper.MapError(err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return r.mapper.MapError(err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

// ListConfirmedStarts returns start times of non-cancelled bookings for the
// event inside [from, to)
func (r *BookingRepository) ListConfirmedStarts(ctx context.Context, eventID string, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT start_time FROM bookings
		WHERE event_id = ? AND cancelled_at IS NULL AND start_time >= ? AND start_time < ?
		ORDER BY start_time
	`
	return r.listStarts(ctx, query, eventID, formatTime(from), formatTime(to))
}

// ListConfirmedStartsForHost is the per-host equivalent across all events
func (r *BookingRepository) ListConfirmedStartsForHost(ctx context.Context, hostID string, from, to time.Time) ([]time.Time, error) {
	query := `
		SELECT start_time FROM bookings
		WHERE host_id = ? AND cancelled_at IS NULL AND start_time >= ? AND start_time < ?
		ORDER BY start_time
	`
	return r.listStarts(ctx, query, hostID, formatTime(from), formatTime(to))
}

func (r *BookingRepository) listStarts(ctx context.Context, query string, args ...interface{}) ([]time.Time, error) {
	rows, err := r.helper.Query(ctx, query, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var starts []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, r.mapper.MapError(err)
		}
		start, err := parseTime(raw)
		if err != nil {
			return nil, err
		}
		starts = append(starts, start)
	}
	return starts, r.mapper.MapError(rows.Err())
}
