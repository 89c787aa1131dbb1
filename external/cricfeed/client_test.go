package cricfeed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sixerhq/chain-contests/internal/platform/resilience"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     0,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})
}

func TestClient_ListMatches_MapsFeedRows(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/series_info" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("id") != "series-1" {
			t.Errorf("unexpected series id %q", r.URL.Query().Get("id"))
		}
		if r.URL.Query().Get("apikey") != "test-key" {
			t.Errorf("missing apikey param")
		}
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"info": {"id": "series-1", "name": "Test Series"},
				"matchList": [
					{
						"id": "m1",
						"name": "India vs Australia, 1st T20I",
						"status": "Match not started",
						"dateTimeGMT": "2026-09-02T14:00:00",
						"teams": ["India", "Australia"],
						"matchStarted": false,
						"matchEnded": false
					},
					{"id": "", "name": "ghost row"}
				]
			}
		}`))
	})

	matches, err := client.ListMatches(context.Background(), "series-1")
	if err != nil {
		t.Fatalf("list matches: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}

	got := matches[0]
	if got.MatchID != "m1" {
		t.Fatalf("unexpected match id %q", got.MatchID)
	}
	if got.SeriesID != "series-1" {
		t.Fatalf("expected series id fallback, got %q", got.SeriesID)
	}
	want := time.Date(2026, 9, 2, 14, 0, 0, 0, time.UTC)
	if !got.StartTime.Equal(want) {
		t.Fatalf("unexpected start time %s", got.StartTime)
	}
}

func TestClient_ListMatches_NonSuccessStatusIsError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "failure", "reason": "invalid api key"}`))
	})

	if _, err := client.ListMatches(context.Background(), "series-1"); err == nil {
		t.Fatal("expected error for non-success envelope")
	}
}

func TestClient_GetMatchInfo_MapsEndedFlag(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {"id": "m1", "status": "India won by 5 wickets", "matchStarted": true, "matchEnded": true}
		}`))
	})

	info, err := client.GetMatchInfo(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get match info: %v", err)
	}
	if !info.MatchEnded {
		t.Fatal("expected matchEnded=true")
	}
	if info.Status != "India won by 5 wickets" {
		t.Fatalf("unexpected status %q", info.Status)
	}
}

func TestClient_GetPlayerStats_GroupsByFormat(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "success",
			"data": {
				"id": "p1",
				"name": "V Kohli",
				"stats": [
					{"fn": "batting", "matchtype": "t20", "stat": "runs", "value": "4,008"},
					{"fn": "batting", "matchtype": "t20", "stat": "avg", "value": "48.69"},
					{"fn": "batting", "matchtype": "t20", "stat": "sr", "value": "137.04"},
					{"fn": "batting", "matchtype": "t20", "stat": "100s", "value": "1"},
					{"fn": "bowling", "matchtype": "t20", "stat": "wkts", "value": "4"},
					{"fn": "bowling", "matchtype": "t20", "stat": "econ", "value": "8.30"},
					{"fn": "batting", "matchtype": "odi", "stat": "runs", "value": "-"}
				]
			}
		}`))
	})

	stats, err := client.GetPlayerStats(context.Background(), "p1")
	if err != nil {
		t.Fatalf("get player stats: %v", err)
	}
	if stats.Name != "V Kohli" {
		t.Fatalf("unexpected name %q", stats.Name)
	}

	var t20Runs, t20Avg float64
	var t20Hundreds int
	for _, row := range stats.Stats.Batting {
		if row.Format == "t20" {
			t20Runs = row.Runs
			t20Avg = row.Average
			t20Hundreds = row.Hundreds
		}
	}
	if t20Runs != 4008 {
		t.Fatalf("unexpected t20 runs %v", t20Runs)
	}
	if t20Avg != 48.69 {
		t.Fatalf("unexpected t20 average %v", t20Avg)
	}
	if t20Hundreds != 1 {
		t.Fatalf("unexpected t20 hundreds %d", t20Hundreds)
	}

	var t20Wickets, t20Economy float64
	for _, row := range stats.Stats.Bowling {
		if row.Format == "t20" {
			t20Wickets = row.Wickets
			t20Economy = row.Economy
		}
	}
	if t20Wickets != 4 {
		t.Fatalf("unexpected t20 wickets %v", t20Wickets)
	}
	if t20Economy != 8.30 {
		t.Fatalf("unexpected t20 economy %v", t20Economy)
	}
}

func TestClient_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"status": "success", "data": {"id": "m1", "matchEnded": false}}`))
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     2,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	if _, err := client.GetMatchInfo(context.Background(), "m1"); err != nil {
		t.Fatalf("expected retry to recover: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestClient_BadRequestIsNotRetried(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	client := NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "test-key",
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		CircuitBreaker: resilience.CircuitBreakerConfig{Enabled: false},
	})

	if _, err := client.GetMatchInfo(context.Background(), "m1"); err == nil {
		t.Fatal("expected error")
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}
