package sqlite

import (
	"context"
	"fmt"
)

// Storage bundles the connection pool with the SQLite repository set.
type Storage struct {
	pool *ConnectionPool

	Hosts     *HostRepository
	Patterns  *PatternRepository
	Intervals *IntervalRepository
	Events    *EventRepository
	Holidays  *HolidayRepository
	Slots     *SlotRepository
	Bookings  *BookingRepository
	Rotation  *RotationRepository
}

// Open connects to the database at dsn, applies the schema, and returns the
// ready-to-use repository set.
func Open(ctx context.Context, dsn string) (*Storage, error) {
	pool, err := NewConnectionPool(dsn)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &Storage{
		pool:      pool,
		Hosts:     NewHostRepository(pool),
		Patterns:  NewPatternRepository(pool),
		Intervals: NewIntervalRepository(pool),
		Events:    NewEventRepository(pool),
		Holidays:  NewHolidayRepository(pool),
		Slots:     NewSlotRepository(pool),
		Bookings:  NewBookingRepository(pool),
		Rotation:  NewRotationRepository(pool),
	}, nil
}

// Ping tests the underlying connection.
func (s *Storage) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the underlying connection pool.
func (s *Storage) Close() error {
	return s.pool.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS hosts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		timezone TEXT NOT NULL,
		calendar_ref TEXT,
		credentials_revoked INTEGER NOT NULL DEFAULT 0,
		max_daily_meetings INTEGER NOT NULL DEFAULT 0,
		max_weekly_meetings INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS availability_patterns (
		id TEXT PRIMARY KEY,
		host_id TEXT NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
		weekday INTEGER NOT NULL CHECK (weekday BETWEEN 0 AND 6),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL CHECK (end_time > start_time),
		timezone TEXT NOT NULL,
		active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_patterns_host ON availability_patterns(host_id)`,
	`CREATE TABLE IF NOT EXISTS busy_intervals (
		host_id TEXT NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL CHECK (end_time > start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_busy_host_start ON busy_intervals(host_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE,
		meeting_type TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL CHECK (duration_minutes > 0),
		max_attendees INTEGER NOT NULL CHECK (max_attendees > 0),
		buffer_before_minutes INTEGER NOT NULL DEFAULT 0,
		buffer_after_minutes INTEGER NOT NULL DEFAULT 0,
		increment_minutes INTEGER NOT NULL DEFAULT 30,
		min_notice_hours INTEGER NOT NULL DEFAULT 0,
		booking_window_days INTEGER NOT NULL DEFAULT 0,
		max_daily_bookings INTEGER NOT NULL DEFAULT 0,
		max_weekly_bookings INTEGER NOT NULL DEFAULT 0,
		round_robin_strategy TEXT NOT NULL DEFAULT 'cycle',
		counting_period TEXT NOT NULL DEFAULT 'month',
		timezone TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS event_hosts (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		host_id TEXT NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
		role TEXT NOT NULL DEFAULT 'host',
		weight INTEGER NOT NULL DEFAULT 1 CHECK (weight BETWEEN 1 AND 10),
		created_at TEXT NOT NULL,
		PRIMARY KEY (event_id, host_id)
	)`,
	`CREATE TABLE IF NOT EXISTS holidays (
		date TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS slots (
		id TEXT PRIMARY KEY,
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		host_id TEXT REFERENCES hosts(id),
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL CHECK (end_time > start_time),
		external_ref TEXT,
		cancelled_at TEXT,
		created_at TEXT NOT NULL,
		UNIQUE (event_id, start_time)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_slots_host_start ON slots(host_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id TEXT PRIMARY KEY,
		slot_id TEXT NOT NULL REFERENCES slots(id),
		event_id TEXT NOT NULL REFERENCES events(id),
		host_id TEXT NOT NULL REFERENCES hosts(id),
		attendee_name TEXT NOT NULL,
		attendee_email TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		created_at TEXT NOT NULL,
		cancelled_at TEXT,
		attended_at TEXT
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_bookings_slot_attendee
		ON bookings(slot_id, attendee_email) WHERE cancelled_at IS NULL`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_event_start ON bookings(event_id, start_time)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_host_start ON bookings(host_id, start_time)`,
	`CREATE TABLE IF NOT EXISTS rotation_state (
		event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
		host_id TEXT NOT NULL REFERENCES hosts(id) ON DELETE CASCADE,
		period_start TEXT NOT NULL,
		booking_count INTEGER NOT NULL DEFAULT 0,
		last_assigned_at TEXT,
		PRIMARY KEY (event_id, host_id)
	)`,
	`CREATE TABLE IF NOT EXISTS assignment_cursors (
		event_id TEXT PRIMARY KEY REFERENCES events(id) ON DELETE CASCADE,
		next_index INTEGER NOT NULL DEFAULT 0
	)`,
}

// Migrate applies the schema. Every statement is idempotent so the call is
// safe on every startup.
func Migrate(ctx context.Context, pool *ConnectionPool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.DB().ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
