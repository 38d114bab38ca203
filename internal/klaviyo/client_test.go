package klaviyo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ignite/commerce-pulse/internal/platform"
)

func testRange() platform.DateRange {
	return platform.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
}

func TestFetchProfiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Verify auth headers
		if got := r.Header.Get("Authorization"); got != "Klaviyo-API-Key test-key" {
			t.Errorf("Unexpected Authorization header: %q", got)
		}
		if r.Header.Get("revision") == "" {
			t.Error("Missing revision header")
		}

		w.Write([]byte(`{
			"data": [
				{
					"type": "profile",
					"id": "01ABCDEF",
					"attributes": {
						"email": "Jane.Doe@Example.com",
						"first_name": "Jane",
						"last_name": "Doe",
						"segments": ["VIP"],
						"open_rate": 55.5,
						"click_rate": 9.2,
						"last_event_date": "2024-01-20T10:00:00Z"
					}
				},
				{
					"type": "profile",
					"id": "01GHIJKL",
					"attributes": {
						"email": "min@example.com"
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL, Revision: "2024-10-15"})

	profiles, err := client.FetchProfiles(context.Background(), testRange())
	if err != nil {
		t.Fatalf("FetchProfiles failed: %v", err)
	}

	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Email != "Jane.Doe@Example.com" {
		t.Errorf("Expected original email casing preserved, got %q", profiles[0].Email)
	}
	if profiles[0].Engagement.OpenRate != 55.5 {
		t.Errorf("Expected open rate 55.5, got %f", profiles[0].Engagement.OpenRate)
	}

	// Missing optional fields become zero values, not errors
	if profiles[1].FirstName != "" || profiles[1].Engagement.OpenRate != 0 {
		t.Errorf("Expected zero defaults for missing fields, got %+v", profiles[1])
	}
	if !profiles[1].Engagement.LastEngaged.IsZero() {
		t.Error("Expected zero LastEngaged for missing timestamp")
	}
}

func TestFetchCampaignsComputesRates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"type": "campaign",
					"id": "c-1",
					"attributes": {
						"name": "January Sale",
						"status": "sent",
						"send_time": "2024-01-05T12:00:00Z",
						"num_recipients": 1000,
						"opens": 250,
						"clicks": 50,
						"revenue": 500.0
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	campaigns, err := client.FetchCampaigns(context.Background(), testRange())
	if err != nil {
		t.Fatalf("FetchCampaigns failed: %v", err)
	}
	if len(campaigns) != 1 {
		t.Fatalf("Expected 1 campaign, got %d", len(campaigns))
	}

	c := campaigns[0]
	if c.OpenRate != 25 {
		t.Errorf("Expected open rate 25, got %f", c.OpenRate)
	}
	if c.ClickRate != 5 {
		t.Errorf("Expected click rate 5, got %f", c.ClickRate)
	}
	if !c.SentAt.Equal(time.Date(2024, 1, 5, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected SentAt: %v", c.SentAt)
	}
}

func TestFetchMetricsAggregates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{"type": "metric-aggregate", "id": "m-1", "attributes": {"email_revenue": 600.0, "total_opens": 100}},
				{"type": "metric-aggregate", "id": "m-2", "attributes": {"email_revenue": 400.0, "total_opens": 50}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	m, err := client.FetchMetrics(context.Background(), testRange())
	if err != nil {
		t.Fatalf("FetchMetrics failed: %v", err)
	}
	if m.EmailRevenue != 1000 {
		t.Errorf("Expected email revenue 1000, got %f", m.EmailRevenue)
	}
	if m.TotalOpens != 150 {
		t.Errorf("Expected 150 opens, got %d", m.TotalOpens)
	}
}

func TestGetProfilesFallsBackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad-key", BaseURL: server.URL})

	result := client.GetProfiles(context.Background(), testRange())

	if result.Meta.Provenance != platform.Fallback {
		t.Errorf("Expected fallback provenance, got %q", result.Meta.Provenance)
	}
	if len(result.Profiles) != len(FallbackProfiles()) {
		t.Errorf("Expected fallback profile set, got %d profiles", len(result.Profiles))
	}
	if result.Meta.FetchedAt.IsZero() {
		t.Error("Expected FetchedAt to be set")
	}
}

func TestGetProfilesFallsBackOnMalformedPayload(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": "not-an-array"`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	result := client.GetProfiles(context.Background(), testRange())
	if result.Meta.Provenance != platform.Fallback {
		t.Errorf("Expected fallback provenance for malformed payload, got %q", result.Meta.Provenance)
	}
}

func TestGetMetricsLiveProvenance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	result := client.GetMetrics(context.Background(), testRange())
	if result.Meta.Provenance != platform.Live {
		t.Errorf("Expected live provenance, got %q", result.Meta.Provenance)
	}
}

func TestPing(t *testing.T) {
	okServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer okServer.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: okServer.URL})
	if err := client.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed against healthy server: %v", err)
	}

	client = NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	client.SetHTTPClient(&http.Client{Timeout: time.Second}) // skip retries
	if err := client.Ping(context.Background()); err == nil {
		t.Error("Expected Ping error against unreachable server")
	}
}

func TestFetchFlows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"type": "flow",
					"id": "FLOW1",
					"attributes": {
						"name": "Abandoned Cart",
						"status": "live",
						"revenue": 1250.5
					}
				}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test-key", BaseURL: server.URL})

	flows, err := client.FetchFlows(context.Background(), testRange())
	if err != nil {
		t.Fatalf("FetchFlows failed: %v", err)
	}

	if len(flows) != 1 {
		t.Fatalf("Expected 1 flow, got %d", len(flows))
	}
	if flows[0].Name != "Abandoned Cart" || flows[0].Revenue != 1250.5 {
		t.Errorf("Unexpected flow: %+v", flows[0])
	}
}
