package downstream

import (
	"context"
	"encoding/json"
	"net/url"
	"time"
)

// AnalyticsClient talks to the aggregation service. All computation happens
// downstream; responses pass through opaque.
type AnalyticsClient struct {
	*Client
}

// NewAnalytics creates the analytics service client.
func NewAnalytics(baseURL string, timeout time.Duration) (*AnalyticsClient, error) {
	c, err := New("analytics", baseURL, timeout)
	if err != nil {
		return nil, err
	}
	return &AnalyticsClient{Client: c}, nil
}

// Stats fetches per-user totals across all users.
func (c *AnalyticsClient) Stats(ctx context.Context) (json.RawMessage, error) {
	return c.get(ctx, "/stats")
}

// UserStats fetches totals grouped by exercise type for one user.
func (c *AnalyticsClient) UserStats(ctx context.Context, username string) (json.RawMessage, error) {
	return c.get(ctx, "/stats/"+url.PathEscape(username))
}

// DailyTrend fetches per-day totals for the trailing week.
func (c *AnalyticsClient) DailyTrend(ctx context.Context, username string) (json.RawMessage, error) {
	return c.get(ctx, "/stats/daily_trend/"+url.PathEscape(username))
}

// WeeklySummary fetches the aggregated weekly report, optionally bounded to
// a validated date range.
func (c *AnalyticsClient) WeeklySummary(ctx context.Context, username, start, end string) (json.RawMessage, error) {
	path := "/stats/weekly_summary/" + url.PathEscape(username)
	if start != "" && end != "" {
		q := url.Values{"start": {start}, "end": {end}}
		path += "?" + q.Encode()
	}
	return c.get(ctx, path)
}
