package triplewhale

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

func TestAPISourceCustomers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "test-key" {
			t.Errorf("Unexpected x-api-key header: %q", got)
		}
		if got := r.URL.Query().Get("from"); got != "2024-01-01" {
			t.Errorf("Unexpected from param: %q", got)
		}

		w.Write([]byte(`{
			"data": [
				{
					"id": "cust-1",
					"email": "Buyer@Example.com",
					"first_name": "Big",
					"last_name": "Buyer",
					"phone": "+15551234567",
					"orders_count": 12,
					"total_spent": 1520.75,
					"created_at": "2023-06-01T00:00:00Z",
					"accepts_marketing": true,
					"tags": ["wholesale"]
				},
				{
					"id": "cust-2",
					"email": "sparse@example.com"
				}
			]
		}`))
	}))
	defer server.Close()

	source := NewAPISource(Config{APIKey: "test-key", BaseURL: server.URL})

	customers, err := source.Customers(context.Background(), testRange())
	if err != nil {
		t.Fatalf("Customers failed: %v", err)
	}
	if len(customers) != 2 {
		t.Fatalf("Expected 2 customers, got %d", len(customers))
	}

	if customers[0].Email != "Buyer@Example.com" {
		t.Errorf("Expected original email casing preserved, got %q", customers[0].Email)
	}
	if customers[0].OrdersCount != 12 || customers[0].TotalSpent != 1520.75 {
		t.Errorf("Unexpected spend fields: %+v", customers[0])
	}

	// Missing optional fields default to zero values
	if customers[1].OrdersCount != 0 || customers[1].TotalSpent != 0 || !customers[1].CreatedAt.IsZero() {
		t.Errorf("Expected zero defaults for sparse customer, got %+v", customers[1])
	}
}

func TestAPISourceOrders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{
			"data": [
				{
					"id": "ord-1",
					"customer_id": "cust-1",
					"email": "buyer@example.com",
					"total": 120.00,
					"currency": "USD",
					"created_at": "2024-01-06T10:00:00Z",
					"source": "email",
					"campaign": "January Sale"
				}
			]
		}`))
	}))
	defer server.Close()

	source := NewAPISource(Config{APIKey: "k", BaseURL: server.URL})

	orders, err := source.Orders(context.Background(), testRange())
	if err != nil {
		t.Fatalf("Orders failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("Expected 1 order, got %d", len(orders))
	}
	if orders[0].Source != "email" || orders[0].Campaign != "January Sale" {
		t.Errorf("Unexpected attribution tags: %+v", orders[0])
	}
	if !orders[0].CreatedAt.Equal(time.Date(2024, 1, 6, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("Unexpected CreatedAt: %v", orders[0].CreatedAt)
	}
}

func TestAPISourceMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"total_revenue": 9000.5, "order_count": 120, "average_order_value": 75.0}}`))
	}))
	defer server.Close()

	source := NewAPISource(Config{APIKey: "k", BaseURL: server.URL})

	m, err := source.Metrics(context.Background(), testRange())
	if err != nil {
		t.Fatalf("Metrics failed: %v", err)
	}
	if m.TotalRevenue != 9000.5 || m.OrderCount != 120 {
		t.Errorf("Unexpected metrics: %+v", m)
	}
}

func TestClientFallbackOnFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL})

	customers := client.GetCustomers(context.Background(), testRange())
	if customers.Meta.Provenance != platform.Fallback {
		t.Errorf("Expected fallback provenance, got %q", customers.Meta.Provenance)
	}
	if len(customers.Customers) != len(FallbackCustomers()) {
		t.Errorf("Expected fallback customer set, got %d", len(customers.Customers))
	}

	orders := client.GetOrders(context.Background(), testRange())
	if orders.Meta.Provenance != platform.Fallback {
		t.Errorf("Expected fallback provenance for orders, got %q", orders.Meta.Provenance)
	}

	metrics := client.GetMetrics(context.Background(), testRange())
	if metrics.Meta.Provenance != platform.Fallback {
		t.Errorf("Expected fallback provenance for metrics, got %q", metrics.Meta.Provenance)
	}
	if metrics.Metrics != FallbackMetrics() {
		t.Errorf("Expected fallback metrics, got %+v", metrics.Metrics)
	}
}

func TestClientLiveProvenance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	result := client.GetCustomers(context.Background(), testRange())
	if result.Meta.Provenance != platform.Live {
		t.Errorf("Expected live provenance, got %q", result.Meta.Provenance)
	}
}

func TestFetchOrdersPropagatesError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "k", BaseURL: server.URL})

	if _, err := client.FetchOrders(context.Background(), testRange()); err == nil {
		t.Error("Expected FetchOrders to propagate the API error")
	}
}
