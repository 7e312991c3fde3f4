package sqlite

import (
	"context"
	"database/sql"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// HostRepository implements persistence.HostRepository using SQLite
type HostRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHostRepository creates a new SQLite host repository
func NewHostRepository(pool *ConnectionPool) *HostRepository {
	return &HostRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateHost inserts a new host
func (r *HostRepository) CreateHost(ctx context.Context, host persistence.Host) error {
	if host.ID == "" {
		return persistence.ErrConstraintViolation
	}

	query := `
		INSERT INTO hosts (id, name, email, timezone, calendar_ref, credentials_revoked,
			max_daily_meetings, max_weekly_meetings, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.helper.Exec(ctx, query,
		host.ID,
		host.Name,
		host.Email,
		host.Timezone,
		nullableString(host.CalendarRef),
		boolToInt(host.CredentialsRevoked),
		host.MaxDailyMeetings,
		host.MaxWeeklyMeetings,
		formatTime(host.CreatedAt),
		formatTime(host.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// UpdateHost updates an existing host
func (r *HostRepository) UpdateHost(ctx context.Context, host persistence.Host) error {
	query := `
		UPDATE hosts
		SET name = ?, email = ?, timezone = ?, calendar_ref = ?, credentials_revoked = ?,
			max_daily_meetings = ?, max_weekly_meetings = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.helper.Exec(ctx, query,
		host.Name,
		host.Email,
		host.Timezone,
		nullableString(host.CalendarRef),
		boolToInt(host.CredentialsRevoked),
		host.MaxDailyMeetings,
		host.MaxWeeklyMeetings,
		formatTime(host.UpdatedAt),
		host.ID,
	)
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

// GetHost retrieves a host by ID
func (r *HostRepository) GetHost(ctx context.Context, id string) (persistence.Host, error) {
	query := `
		SELECT id, name, email, timezone, calendar_ref, credentials_revoked,
			max_daily_meetings, max_weekly_meetings, created_at, updated_at
		FROM hosts
		WHERE id = ?
	`
	return r.scanHost(r.helper.QueryRow(ctx, query, id))
}

// ListHosts returns all hosts ordered by creation time
func (r *HostRepository) ListHosts(ctx context.Context) ([]persistence.Host, error) {
	query := `
		SELECT id, name, email, timezone, calendar_ref, credentials_revoked,
			max_daily_meetings, max_weekly_meetings, created_at, updated_at
		FROM hosts
		ORDER BY created_at, id
	`

	rows, err := r.helper.Query(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var hosts []persistence.Host
	for rows.Next() {
		host, err := r.scanHost(rows)
		if err != nil {
			return nil, err
		}
		hosts = append(hosts, host)
	}
	return hosts, r.mapper.MapError(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *HostRepository) scanHost(row rowScanner) (persistence.Host, error) {
	var host persistence.Host
	var calendarRef sql.NullString
	var revoked int
	var createdAt, updatedAt string

	err := row.Scan(
		&host.ID,
		&host.Name,
		&host.Email,
		&host.Timezone,
		&calendarRef,
		&revoked,
		&host.MaxDailyMeetings,
		&host.MaxWeeklyMeetings,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.Host{}, r.mapper.MapError(err)
	}

	host.CalendarRef = stringPtr(calendarRef)
	host.CredentialsRevoked = revoked != 0
	if host.CreatedAt, err = parseTime(createdAt); err != nil {
		return persistence.Host{}, err
	}
	if host.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return persistence.Host{}, err
	}
	return host, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
