package triplewhale

import (
	"time"

	"github.com/ignite/commerce-pulse/internal/platform"
)

// ========== Vendor API Types ==========

// customersResponse is the vendor envelope for the customers endpoint.
type customersResponse struct {
	Data []customerRecord `json:"data"`
}

type customerRecord struct {
	ID               string   `json:"id"`
	Email            string   `json:"email"`
	FirstName        string   `json:"first_name"`
	LastName         string   `json:"last_name"`
	Phone            string   `json:"phone"`
	OrdersCount      int      `json:"orders_count"`
	TotalSpent       float64  `json:"total_spent"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
	AcceptsMarketing bool     `json:"accepts_marketing"`
	Tags             []string `json:"tags"`
}

// ordersResponse is the vendor envelope for the orders endpoint.
type ordersResponse struct {
	Data []orderRecord `json:"data"`
}

type orderRecord struct {
	ID         string  `json:"id"`
	CustomerID string  `json:"customer_id"`
	Email      string  `json:"email"`
	Total      float64 `json:"total"`
	Currency   string  `json:"currency"`
	CreatedAt  string  `json:"created_at"`
	Source     string  `json:"source"`
	Campaign   string  `json:"campaign"`
}

// metricsResponse is the vendor envelope for the metrics endpoint.
type metricsResponse struct {
	Data struct {
		TotalRevenue      float64 `json:"total_revenue"`
		OrderCount        int64   `json:"order_count"`
		AverageOrderValue float64 `json:"average_order_value"`
	} `json:"data"`
}

// ========== Normalized Types ==========

// Customer is a normalized commerce platform customer.
type Customer struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	FirstName        string    `json:"first_name,omitempty"`
	LastName         string    `json:"last_name,omitempty"`
	Phone            string    `json:"phone,omitempty"`
	OrdersCount      int       `json:"orders_count"`
	TotalSpent       float64   `json:"total_spent"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
	AcceptsMarketing bool      `json:"accepts_marketing"`
	Tags             []string  `json:"tags,omitempty"`
}

// Order is a normalized commerce order.
type Order struct {
	ID         string    `json:"id"`
	CustomerID string    `json:"customer_id,omitempty"`
	Email      string    `json:"email,omitempty"`
	Total      float64   `json:"total"`
	Currency   string    `json:"currency"`
	CreatedAt  time.Time `json:"created_at"`
	Source     string    `json:"source,omitempty"`
	Campaign   string    `json:"campaign,omitempty"`
}

// Metrics is the platform-wide commerce aggregate for a date range.
type Metrics struct {
	TotalRevenue      float64 `json:"total_revenue"`
	OrderCount        int64   `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`
}

// ========== Result Types ==========

// CustomersResult carries customers plus fetch provenance.
type CustomersResult struct {
	Customers []Customer    `json:"customers"`
	Meta      platform.Meta `json:"meta"`
}

// OrdersResult carries orders plus fetch provenance.
type OrdersResult struct {
	Orders []Order       `json:"orders"`
	Meta   platform.Meta `json:"meta"`
}

// MetricsResult carries the commerce aggregate plus fetch provenance.
type MetricsResult struct {
	Metrics Metrics       `json:"metrics"`
	Meta    platform.Meta `json:"meta"`
}
