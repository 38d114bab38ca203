package attribution

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ignite/commerce-pulse/internal/klaviyo"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/ignite/commerce-pulse/internal/triplewhale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEmail struct {
	campaigns []klaviyo.Campaign
	metrics   klaviyo.Metrics
	err       error
}

func (s *stubEmail) FetchCampaigns(ctx context.Context, r platform.DateRange) ([]klaviyo.Campaign, error) {
	return s.campaigns, s.err
}

func (s *stubEmail) FetchMetrics(ctx context.Context, r platform.DateRange) (klaviyo.Metrics, error) {
	return s.metrics, s.err
}

type stubCommerce struct {
	orders  []triplewhale.Order
	metrics triplewhale.Metrics
	err     error
}

func (s *stubCommerce) FetchOrders(ctx context.Context, r platform.DateRange) ([]triplewhale.Order, error) {
	return s.orders, s.err
}

func (s *stubCommerce) FetchMetrics(ctx context.Context, r platform.DateRange) (triplewhale.Metrics, error) {
	return s.metrics, s.err
}

var sendTime = time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)

func TestAttributeOrdersWindowAndTags(t *testing.T) {
	campaigns := []klaviyo.Campaign{
		{ID: "c-1", Name: "January Sale", SentAt: sendTime},
	}
	orders := []triplewhale.Order{
		// Inside window, email source: attributed
		{ID: "o-1", Total: 100, CreatedAt: sendTime.Add(24 * time.Hour), Source: "email"},
		// Inside window, campaign tag match: attributed
		{ID: "o-2", Total: 50, CreatedAt: sendTime.Add(6 * 24 * time.Hour), Source: "organic", Campaign: "January Sale"},
		// Exactly at send time: strictly-after rule excludes it
		{ID: "o-3", Total: 30, CreatedAt: sendTime, Source: "email"},
		// Past the 7-day window
		{ID: "o-4", Total: 70, CreatedAt: sendTime.Add(8 * 24 * time.Hour), Source: "email"},
		// Inside window, no matching tag
		{ID: "o-5", Total: 40, CreatedAt: sendTime.Add(24 * time.Hour), Source: "organic", Campaign: "Other"},
	}

	result := AttributeOrders(campaigns, orders, DefaultOptions())
	require.Len(t, result, 1)

	assert.Equal(t, 150.0, result[0].Revenue)
	assert.Equal(t, 2, result[0].Orders)
}

func TestAttributeOrdersWindowBoundary(t *testing.T) {
	campaigns := []klaviyo.Campaign{{ID: "c-1", Name: "Boundary", SentAt: sendTime}}
	orders := []triplewhale.Order{
		// Exactly at window end: still inside
		{ID: "o-1", Total: 25, CreatedAt: sendTime.Add(7 * 24 * time.Hour), Source: "email"},
		// One second past
		{ID: "o-2", Total: 99, CreatedAt: sendTime.Add(7*24*time.Hour + time.Second), Source: "email"},
	}

	result := AttributeOrders(campaigns, orders, DefaultOptions())
	require.Len(t, result, 1)
	assert.Equal(t, 25.0, result[0].Revenue)
}

func TestAttributeOrdersSourceCaseInsensitive(t *testing.T) {
	campaigns := []klaviyo.Campaign{{ID: "c-1", Name: "Case", SentAt: sendTime}}
	orders := []triplewhale.Order{
		{ID: "o-1", Total: 10, CreatedAt: sendTime.Add(time.Hour), Source: "Email"},
	}

	result := AttributeOrders(campaigns, orders, DefaultOptions())
	assert.Equal(t, 10.0, result[0].Revenue)
}

func TestCalculateDirectAndAssisted(t *testing.T) {
	email := &stubEmail{
		campaigns: []klaviyo.Campaign{{ID: "c-1", Name: "Sale", SentAt: sendTime}},
		metrics:   klaviyo.Metrics{EmailRevenue: 1000},
	}
	commerce := &stubCommerce{
		orders: []triplewhale.Order{
			{ID: "o-1", Total: 400, CreatedAt: sendTime.Add(time.Hour), Source: "email"},
			{ID: "o-2", Total: 300, CreatedAt: sendTime.Add(2 * time.Hour), Source: "email"},
		},
		metrics: triplewhale.Metrics{TotalRevenue: 5000},
	}

	engine := NewEngine(email, commerce, Options{})
	result, err := engine.Calculate(context.Background(), platform.LastDays(30))
	require.NoError(t, err)

	assert.Equal(t, 700.0, result.DirectAttribution)
	assert.Equal(t, 300.0, result.AssistedAttribution)
	assert.Equal(t, 1000.0, result.EmailRevenue)
	assert.Equal(t, 5000.0, result.TotalRevenue)
	assert.Equal(t, 20.0, result.AttributionRate)
}

func TestCalculateNegativeAssistedSurfaced(t *testing.T) {
	email := &stubEmail{
		campaigns: []klaviyo.Campaign{{ID: "c-1", Name: "Sale", SentAt: sendTime}},
		metrics:   klaviyo.Metrics{EmailRevenue: 100},
	}
	commerce := &stubCommerce{
		orders: []triplewhale.Order{
			{ID: "o-1", Total: 400, CreatedAt: sendTime.Add(time.Hour), Source: "email"},
		},
		metrics: triplewhale.Metrics{TotalRevenue: 5000},
	}

	engine := NewEngine(email, commerce, Options{})
	result, err := engine.Calculate(context.Background(), platform.LastDays(30))
	require.NoError(t, err)

	// Under-counting discrepancy is surfaced, not clamped
	assert.Equal(t, -300.0, result.AssistedAttribution)
}

func TestCalculateZeroTotalRevenue(t *testing.T) {
	email := &stubEmail{metrics: klaviyo.Metrics{EmailRevenue: 100}}
	commerce := &stubCommerce{}

	engine := NewEngine(email, commerce, Options{})
	result, err := engine.Calculate(context.Background(), platform.LastDays(30))
	require.NoError(t, err)

	assert.Equal(t, 0.0, result.AttributionRate)
}

func TestCalculatePropagatesFetchErrors(t *testing.T) {
	boom := errors.New("boom")

	engine := NewEngine(&stubEmail{err: boom}, &stubCommerce{}, Options{})
	_, err := engine.Calculate(context.Background(), platform.LastDays(30))
	assert.ErrorIs(t, err, boom)

	engine = NewEngine(&stubEmail{}, &stubCommerce{err: boom}, Options{})
	_, err = engine.Calculate(context.Background(), platform.LastDays(30))
	assert.ErrorIs(t, err, boom)
}

func TestNewEngineDefaults(t *testing.T) {
	engine := NewEngine(&stubEmail{}, &stubCommerce{}, Options{})
	assert.Equal(t, 7*24*time.Hour, engine.opts.Window)
	assert.Equal(t, "email", engine.opts.EmailChannel)
}
