// Package calendar talks to the external calendar service that exposes each
// host's busy time.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/llitton/liveschool-office-hours-sub005/internal/availability"
)

// HTTPProvider fetches busy intervals over the calendar service's JSON API.
type HTTPProvider struct {
	baseURL string
	client  *http.Client
}

// NewHTTPProvider creates a provider against the given base URL. A nil client
// falls back to a default with the supplied timeout.
func NewHTTPProvider(baseURL string, client *http.Client, timeout time.Duration) *HTTPProvider {
	if client == nil {
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPProvider{baseURL: baseURL, client: client}
}

type busyIntervalPayload struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type busyResponse struct {
	Intervals []busyIntervalPayload `json:"intervals"`
}

// FetchBusyIntervals returns the calendar's blocked spans for the credential
// reference inside [from, to).
func (p *HTTPProvider) FetchBusyIntervals(ctx context.Context, calendarRef string, from, to time.Time) ([]availability.Interval, error) {
	endpoint := fmt.Sprintf("%s/busy?%s", p.baseURL, url.Values{
		"calendar": {calendarRef},
		"from":     {from.UTC().Format(time.RFC3339)},
		"to":       {to.UTC().Format(time.RFC3339)},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build calendar request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("calendar credentials rejected for %q: status %d", calendarRef, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar service returned status %d", resp.StatusCode)
	}

	var payload busyResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode calendar response: %w", err)
	}

	intervals := make([]availability.Interval, 0, len(payload.Intervals))
	for _, iv := range payload.Intervals {
		intervals = append(intervals, availability.Interval{Start: iv.Start, End: iv.End})
	}
	return intervals, nil
}
