package application

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/llitton/liveschool-office-hours-sub005/internal/availability"
	"github.com/llitton/liveschool-office-hours-sub005/internal/persistence"
)

// CalendarProvider fetches a host's blocked time from the external calendar
// service. calendarRef is the host's opaque credential reference.
type CalendarProvider interface {
	FetchBusyIntervals(ctx context.Context, calendarRef string, from, to time.Time) ([]availability.Interval, error)
}

// IntervalSink persists refreshed busy intervals.
type IntervalSink interface {
	ReplaceRange(ctx context.Context, hostID string, from, to time.Time, intervals []persistence.BusyInterval) error
}

// SyncService refreshes the busy-interval cache from the calendar provider.
// Hosts sync independently: one host's failure never blocks the others.
type SyncService struct {
	hosts       HostDirectory
	intervals   IntervalSink
	provider    CalendarProvider
	timeout     time.Duration
	maxParallel int
	now         func() time.Time
	logger      *slog.Logger
}

// NewSyncService wires dependencies for calendar synchronization.
func NewSyncService(hosts HostDirectory, intervals IntervalSink, provider CalendarProvider, timeout time.Duration, maxParallel int, now func() time.Time) *SyncService {
	return NewSyncServiceWithLogger(hosts, intervals, provider, timeout, maxParallel, now, nil)
}

// NewSyncServiceWithLogger wires dependencies along with a base logger.
func NewSyncServiceWithLogger(hosts HostDirectory, intervals IntervalSink, provider CalendarProvider, timeout time.Duration, maxParallel int, now func() time.Time, logger *slog.Logger) *SyncService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	if now == nil {
		now = time.Now
	}
	return &SyncService{
		hosts:       hosts,
		intervals:   intervals,
		provider:    provider,
		timeout:     timeout,
		maxParallel: maxParallel,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// RefreshBusyIntervals pulls every connected host's busy time for the horizon
// ahead of now and swaps it into the cache. Hosts without a connected
// calendar, or with revoked credentials, are skipped with a log line. Fetch
// and store failures are logged per host and counted in the report; the pass
// itself only fails when the context is cancelled.
func (s *SyncService) RefreshBusyIntervals(ctx context.Context, horizon time.Duration) (SyncReport, error) {
	logger := serviceLogger(ctx, s.logger, "sync", "refresh_busy_intervals")

	hosts, err := s.hosts.ListHosts(ctx)
	if err != nil {
		return SyncReport{}, err
	}

	from := s.now()
	to := from.Add(horizon)

	var synced, skipped, failed atomic.Int64

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxParallel)
	for _, host := range hosts {
		host := host
		if host.CalendarRef == nil {
			skipped.Add(1)
			continue
		}
		if host.CredentialsRevoked {
			skipped.Add(1)
			logger.WarnContext(ctx, "skipping host with revoked credentials", "host_id", host.ID)
			continue
		}

		group.Go(func() error {
			if err := s.syncHost(ctx, host, from, to); err != nil {
				failed.Add(1)
				logger.ErrorContext(ctx, "host sync failed", "host_id", host.ID, "error", err)
				return nil
			}
			synced.Add(1)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return SyncReport{}, err
	}
	if err := ctx.Err(); err != nil {
		return SyncReport{}, err
	}

	report := SyncReport{
		Synced:  int(synced.Load()),
		Skipped: int(skipped.Load()),
		Failed:  int(failed.Load()),
	}
	logger.InfoContext(ctx, "sync pass finished",
		"synced", report.Synced, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}

func (s *SyncService) syncHost(ctx context.Context, host persistence.Host, from, to time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	fetched, err := s.provider.FetchBusyIntervals(ctx, *host.CalendarRef, from, to)
	if err != nil {
		return err
	}

	intervals := make([]persistence.BusyInterval, 0, len(fetched))
	for _, iv := range fetched {
		if !iv.End.After(iv.Start) {
			continue
		}
		intervals = append(intervals, persistence.BusyInterval{
			HostID: host.ID,
			Start:  iv.Start,
			End:    iv.End,
		})
	}

	return s.intervals.ReplaceRange(ctx, host.ID, from, to, intervals)
}
