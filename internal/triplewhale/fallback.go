package triplewhale

import "time"

// Fallback datasets returned by the Get* display reads when the vendor
// call fails. Fixed example records, always tagged with fallback
// provenance.

// FallbackCustomers returns the placeholder customer set.
func FallbackCustomers() []Customer {
	return []Customer{
		{
			ID:               "sample-customer-1",
			Email:            "sample.customer@example.com",
			FirstName:        "Sample",
			LastName:         "Customer",
			OrdersCount:      3,
			TotalSpent:       289.50,
			CreatedAt:        time.Date(2023, 11, 2, 8, 0, 0, 0, time.UTC),
			UpdatedAt:        time.Date(2024, 1, 12, 16, 30, 0, 0, time.UTC),
			AcceptsMarketing: true,
			Tags:             []string{"repeat-buyer"},
		},
		{
			ID:          "sample-customer-2",
			Email:       "one.time@example.com",
			OrdersCount: 1,
			TotalSpent:  42.00,
			CreatedAt:   time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC),
		},
	}
}

// FallbackOrders returns the placeholder order set.
func FallbackOrders() []Order {
	return []Order{
		{
			ID:         "sample-order-1",
			CustomerID: "sample-customer-1",
			Email:      "sample.customer@example.com",
			Total:      99.50,
			Currency:   "USD",
			CreatedAt:  time.Date(2024, 1, 12, 16, 30, 0, 0, time.UTC),
			Source:     "email",
			Campaign:   "Welcome Series",
		},
	}
}

// FallbackMetrics returns the placeholder commerce aggregate.
func FallbackMetrics() Metrics {
	return Metrics{
		TotalRevenue:      8450.00,
		OrderCount:        97,
		AverageOrderValue: 87.11,
	}
}
