package triplewhale

import (
	"context"

	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// Client wraps a DataSource with the degrade-don't-fail policy for
// display reads. Get* methods never return an error: on any transport
// failure they substitute the fallback dataset and tag the response
// accordingly. Fetch* methods propagate errors for aggregate
// computations that must not blend in placeholder data.
type Client struct {
	source DataSource
}

// NewClient creates a client over the REST transport.
func NewClient(cfg Config) *Client {
	return &Client{source: NewAPISource(cfg)}
}

// NewClientWithSource creates a client over any transport, e.g. the
// Moby subprocess.
func NewClientWithSource(source DataSource) *Client {
	return &Client{source: source}
}

// ========== Raw Fetch Methods ==========

// FetchCustomers retrieves customers, propagating errors.
func (c *Client) FetchCustomers(ctx context.Context, r platform.DateRange) ([]Customer, error) {
	return c.source.Customers(ctx, r)
}

// FetchOrders retrieves orders, propagating errors.
func (c *Client) FetchOrders(ctx context.Context, r platform.DateRange) ([]Order, error) {
	return c.source.Orders(ctx, r)
}

// FetchMetrics retrieves the commerce aggregate, propagating errors.
func (c *Client) FetchMetrics(ctx context.Context, r platform.DateRange) (Metrics, error) {
	return c.source.Metrics(ctx, r)
}

// ========== Display Reads (degrade, don't fail) ==========

// GetCustomers retrieves customers with fallback-on-failure semantics.
func (c *Client) GetCustomers(ctx context.Context, r platform.DateRange) CustomersResult {
	customers, err := c.source.Customers(ctx, r)
	if err != nil {
		logger.Warn("triplewhale customers fetch failed, using fallback", "err", err)
		return CustomersResult{Customers: FallbackCustomers(), Meta: platform.FallbackMeta()}
	}
	return CustomersResult{Customers: customers, Meta: platform.LiveMeta()}
}

// GetOrders retrieves orders with fallback-on-failure semantics.
func (c *Client) GetOrders(ctx context.Context, r platform.DateRange) OrdersResult {
	orders, err := c.source.Orders(ctx, r)
	if err != nil {
		logger.Warn("triplewhale orders fetch failed, using fallback", "err", err)
		return OrdersResult{Orders: FallbackOrders(), Meta: platform.FallbackMeta()}
	}
	return OrdersResult{Orders: orders, Meta: platform.LiveMeta()}
}

// GetMetrics retrieves the commerce aggregate with fallback-on-failure semantics.
func (c *Client) GetMetrics(ctx context.Context, r platform.DateRange) MetricsResult {
	m, err := c.source.Metrics(ctx, r)
	if err != nil {
		logger.Warn("triplewhale metrics fetch failed, using fallback", "err", err)
		return MetricsResult{Metrics: FallbackMetrics(), Meta: platform.FallbackMeta()}
	}
	return MetricsResult{Metrics: m, Meta: platform.LiveMeta()}
}

// Ping verifies connectivity through the underlying transport.
func (c *Client) Ping(ctx context.Context) error {
	return c.source.Ping(ctx)
}
