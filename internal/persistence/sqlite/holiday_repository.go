package sqlite

import (
	"context"

	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// HolidayRepository implements persistence.HolidayRepository using SQLite
type HolidayRepository struct {
	pool   *ConnectionPool
	helper *QueryHelper
	mapper *ErrorMapper
}

// NewHolidayRepository creates a new SQLite holiday repository
func NewHolidayRepository(pool *ConnectionPool) *HolidayRepository {
	return &HolidayRepository{
		pool:   pool,
		helper: NewQueryHelper(pool),
		mapper: NewErrorMapper(),
	}
}

// CreateHoliday inserts a holiday date
func (r *HolidayRepository) CreateHoliday(ctx context.Context, holiday persistence.Holiday) error {
	_, err := r.helper.Exec(ctx,
		"INSERT INTO holidays (date, name) VALUES (?, ?)",
		holiday.Date, holiday.Name)
	return r.mapper.MapError(err)
}

// ListHolidays returns holidays with date in [from, to], both "2006-01-02"
func (r *HolidayRepository) ListHolidays(ctx context.Context, from, to string) ([]persistence.Holiday, error) {
	rows, err := r.helper.Query(ctx,
		"SELECT date, name FROM holidays WHERE date >= ? AND date <= ? ORDER BY date",
		from, to)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	defer rows.Close()

	var holidays []persistence.Holiday
	for rows.Next() {
		var h persistence.Holiday
		if err := rows.Scan(&h.Date, &h.Name); err != nil {
			return nil, r.mapper.MapError(err)
		}
		holidays = append(holidays, h)
	}
	return holidays, r.mapper.MapError(rows.Err())
}
