package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// SlotRepository implements persistence.SlotRepository using SQLite
type SlotRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewSlotRepository creates a new SQLite slot repository
func NewSlotRepository(pool *ConnectionPool) *SlotRepository {
	return &SlotRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateSlot inserts a materialized slot. Webinar slots are created this way
// by an admin ahead of time.
func (r *SlotRepository) CreateSlot(ctx context.Context, slot persistence.Slot) error {
	if slot.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO slots (id, event_id, host_id, start_time, end_time, external_ref, cancelled_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.helper.Exec(ctx, query,
		slot.ID,
		slot.EventID,
		nullableString(slot.HostID),
		formatTime(slot.Start),
		formatTime(slot.End),
		nullableString(slot.ExternalRef),
		nullableTime(slot.CancelledAt),
		formatTime(slot.CreatedAt),
	)
	return r.mapper.MapError(err)
}

// CancelSlot marks a slot cancelled
func (r *SlotRepository) CancelSlot(ctx context.Context, id string, at time.Time) error {
	result, err := r.helper.Exec(ctx,
		"UPDATE slots SET cancelled_at = ? WHERE id = ? AND cancelled_at IS NULL",
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

// ListSlots returns the event's non-cancelled slots starting inside [from, to)
func (r *SlotRepository) ListSlots(ctx context.Context, eventID string, from, to time.Time) ([]persistence.Slot, error) {
	query := `
		SELECT id, event_id, host_id, start_time, end_time, external_ref, cancelled_at, created_at
		FROM slots
		WHERE event_id = ? AND cancelled_at IS NULL AND start_time >= ? AND start_time < ?
		ORDER BY start_time
	`

	rows, err := r.helper.Query(ctx, query, eventID, formatTime(from), formatTime(to))
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var slots []persistence.Slot
	for rows.Next() {
		slot, err := r.scanSlot(rows)
		if err != nil {
			return nil, err
		}
		slots = append(slots, slot)
	}
	return slots, r.mapper.MapError(rows.Err())
}

// ListBookedRanges returns the spans of the host's slots holding at least one
// confirmed booking, so bookings on this platform block the host's other
// events without a round trip through the calendar provider.
func (r *SlotRepository) ListBookedRanges(ctx context.Context, hostID string, from, to time.Time, excludeEventID string) ([]persistence.BusyInterval, error) {
	query := `
		SELECT DISTINCT s.start_time, s.end_time
		FROM slots s
		JOIN bookings b ON b.slot_id = s.id AND b.cancelled_at IS NULL
		WHERE s.host_id = ? AND s.cancelled_at IS NULL
			AND s.end_time > ? AND s.start_time < ?
			AND (? = '' OR s.event_id != ?)
		ORDER BY s.start_time
	`

	rows, err := r.helper.Query(ctx, query,
		hostID, formatTime(from), formatTime(to), excludeEventID, excludeEventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var ranges []persistence.BusyInterval
	for rows.Next() {
		var start, end string
		if err := rows.Scan(&start, &end); err != nil {
			return nil, r.mapper.MapError(err)
		}
		iv := persistence.BusyInterval{HostID: hostID}
		if iv.Start, err = parseTime(start); err != nil {
			return nil, err
		}
		if iv.End, err = parseTime(end); err != nil {
			return nil, err
		}
		ranges = append(ranges, iv)
	}
	return ranges, r.mapper.MapError(rows.Err())
}

func (r *SlotRepository) scanSlot(row rowScanner) (persistence.Slot, error) {
	var slot persistence.Slot
	var hostID, externalRef, cancelledAt sql.NullString
	var start, end, createdAt string

	err := row.Scan(
		&slot.ID,
		&slot.EventID,
		&hostID,
		&start,
		&end,
		&externalRef,
		&cancelledAt,
		&createdAt,
	)
	if err != nil {
		return persistence.Slot{}, r.mapper.MapError(err)
	}

	slot.HostID = stringPtr(hostID)
	slot.ExternalRef = stringPtr(externalRef)
	if slot.CancelledAt, err = timePtr(cancelledAt); err != nil {
		return persistence.Slot{}, err
	}
	if slot.Start, err = parseTime(start); err != nil {
		return persistence.Slot{}, err
	}
	if slot.End, err = parseTime(end); err != nil {
		return persistence.Slot{}, err
	}
	if slot.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Slot{}, err
	}
	return slot, nil
}
