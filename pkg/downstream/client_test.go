package downstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsefit/gateway/pkg/domain"
)

func TestActivityAddExercise(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotMethod = r.URL.Path, r.Method
		json.NewDecoder(r.Body).Decode(&gotBody) //nolint:errcheck
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing correlation id header")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"_id":"abc123","username":"runner@example.com"}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client, err := NewActivity(srv.URL, time.Second)
	if err != nil {
		t.Fatalf("client: %v", err)
	}

	raw, err := client.AddExercise(context.Background(), domain.AddExerciseInput{
		Username:     "runner@example.com",
		ExerciseType: "Running",
		Duration:     30,
		Date:         "2024-03-10",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMethod != http.MethodPost || gotPath != "/exercises" {
		t.Fatalf("request was %s %s", gotMethod, gotPath)
	}
	if gotBody["duration"] != float64(30) {
		t.Fatalf("body duration = %v", gotBody["duration"])
	}
	var resp map[string]any
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("opaque body not passed through: %v", err)
	}
	if resp["_id"] != "abc123" {
		t.Fatalf("unexpected body: %v", resp)
	}
}

func TestClientMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"no such exercise"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	client, _ := NewActivity(srv.URL, time.Second)
	_, err := client.DeleteExercise(context.Background(), "missing")

	var de *domain.DownstreamError
	if !errors.As(err, &de) {
		t.Fatalf("expected downstream error, got %v", err)
	}
	if de.Status != http.StatusNotFound || de.Service != "activity" {
		t.Fatalf("unexpected error: %+v", de)
	}
	if de.Detail != "no such exercise" {
		t.Fatalf("detail not lifted from body: %q", de.Detail)
	}
}

func TestClientMapsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, _ := NewAnalytics(srv.URL, time.Second)
	_, err := client.Stats(context.Background())

	var de *domain.DownstreamError
	if !errors.As(err, &de) || de.Status != http.StatusInternalServerError {
		t.Fatalf("expected 500 downstream error, got %v", err)
	}
}

func TestClientMapsTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close() // refuse subsequent connections

	client, _ := NewAnalytics(base, time.Second)
	_, err := client.UserStats(context.Background(), "runner@example.com")

	var de *domain.DownstreamError
	if !errors.As(err, &de) {
		t.Fatalf("expected downstream error, got %v", err)
	}
	if de.Status != 0 || de.Err == nil {
		t.Fatalf("transport failure should carry no status: %+v", de)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, bad := range []string{"", "not a url", "/relative"} {
		if _, err := New("activity", bad, time.Second); err == nil {
			t.Fatalf("New(%q) accepted, want error", bad)
		}
	}
}

func TestAnalyticsPaths(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery = r.URL.Path, r.URL.RawQuery
		w.Write([]byte(`{"stats":[]}`)) //nolint:errcheck
	}))
	defer srv.Close()

	client, _ := NewAnalytics(srv.URL, time.Second)
	ctx := context.Background()

	client.DailyTrend(ctx, "runner@example.com") //nolint:errcheck
	if gotPath != "/stats/daily_trend/runner@example.com" {
		t.Fatalf("daily trend path = %q", gotPath)
	}

	client.WeeklySummary(ctx, "runner@example.com", "2024-01-01", "2024-01-31") //nolint:errcheck
	if gotPath != "/stats/weekly_summary/runner@example.com" {
		t.Fatalf("weekly summary path = %q", gotPath)
	}
	if gotQuery != "end=2024-01-31&start=2024-01-01" {
		t.Fatalf("weekly summary query = %q", gotQuery)
	}
}
