package sqlite

import (
	"context"
	"database/sql"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// EventRepository implements persistence.EventRepository using SQLite
type EventRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewEventRepository creates a new SQLite event repository
func NewEventRepository(pool *ConnectionPool) *EventRepository {
	return &EventRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateEvent inserts the event and its host roster in one transaction
func (r *EventRepository) CreateEvent(ctx context.Context, event persistence.Event, hosts []persistence.EventHost) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}

	return r.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO events (id, title, slug, meeting_type, duration_minutes, max_attendees,
				buffer_before_minutes, buffer_after_minutes, increment_minutes,
				min_notice_hours, booking_window_days, max_daily_bookings, max_weekly_bookings,
				round_robin_strategy, counting_period, timezone, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`
		_, err := r.helper.ExecTx(tx, query,
			event.ID,
			event.Title,
			event.Slug,
			event.MeetingType,
			event.DurationMinutes,
			event.MaxAttendees,
			event.BufferBeforeMinutes,
			event.BufferAfterMinutes,
			event.IncrementMinutes,
			event.MinNoticeHours,
			event.BookingWindowDays,
			event.MaxDailyBookings,
			event.MaxWeeklyBookings,
			event.RoundRobinStrategy,
			event.CountingPeriod,
			event.Timezone,
			formatTime(event.CreatedAt),
			formatTime(event.UpdatedAt),
		)
		if err != nil {
			return r.mapper.MapError(err)
		}

		for _, h := range hosts {
			_, err := r.helper.ExecTx(tx,
				"INSERT INTO event_hosts (event_id, host_id, role, weight, created_at) VALUES (?, ?, ?, ?, ?)",
				event.ID, h.HostID, h.Role, h.Weight, formatTime(h.CreatedAt))
			if err != nil {
				return r.mapper.MapError(err)
			}
		}
		return nil
	})
}

// GetEvent retrieves an event by ID
func (r *EventRepository) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	query := `
		SELECT id, title, slug, meeting_type, duration_minutes, max_attendees,
			buffer_before_minutes, buffer_after_minutes, increment_minutes,
			min_notice_hours, booking_window_days, max_daily_bookings, max_weekly_bookings,
			round_robin_strategy, counting_period, timezone, created_at, updated_at
		FROM events
		WHERE id = ?
	`

	var event persistence.Event
	var createdAt, updatedAt string
	err := r.helper.QueryRow(ctx, query, id).Scan(
		&event.ID,
		&event.Title,
		&event.Slug,
		&event.MeetingType,
		&event.DurationMinutes,
		&event.MaxAttendees,
		&event.BufferBeforeMinutes,
		&event.BufferAfterMinutes,
		&event.IncrementMinutes,
		&event.MinNoticeHours,
		&event.BookingWindowDays,
		&event.MaxDailyBookings,
		&event.MaxWeeklyBookings,
		&event.RoundRobinStrategy,
		&event.CountingPeriod,
		&event.Timezone,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Event{}, r.mapper.MapError(err)
	}

	if event.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Event{}, err
	}
	if event.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

// ListEventHosts returns the event's roster ordered by co-host creation time.
// The order is load-bearing: the cycle strategy rotates through it.
func (r *EventRepository) ListEventHosts(ctx context.Context, eventID string) ([]persistence.EventHost, error) {
	query := `
		SELECT event_id, host_id, role, weight, created_at
		FROM event_hosts
		WHERE event_id = ?
		ORDER BY created_at, host_id
	`

	rows, err := r.helper.Query(ctx, query, eventID)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var hosts []persistence.EventHost
	for rows.Next() {
		var h persistence.EventHost
		var createdAt string
		if err := rows.Scan(&h.EventID, &h.HostID, &h.Role, &h.Weight, &createdAt); err != nil {
			return nil, r.mapper.MapError(err)
		}
		if h.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		hosts = append(hosts, h)
	}
	return hosts, r.mapper.MapError(rows.Err())
}
