// Package attribution correlates email campaigns against commerce
// orders to split platform revenue into directly attributed and
// assisted buckets. Unlike the client layer's display reads, a fetch
// failure here fails the whole calculation: a partially blended figure
// would be worse than "no attribution available".
package attribution

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ignite/commerce-pulse/internal/klaviyo"
	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/ignite/commerce-pulse/internal/triplewhale"
)

// EmailSource supplies campaigns and the email revenue aggregate.
type EmailSource interface {
	FetchCampaigns(ctx context.Context, r platform.DateRange) ([]klaviyo.Campaign, error)
	FetchMetrics(ctx context.Context, r platform.DateRange) (klaviyo.Metrics, error)
}

// CommerceSource supplies orders and the total revenue aggregate.
type CommerceSource interface {
	FetchOrders(ctx context.Context, r platform.DateRange) ([]triplewhale.Order, error)
	FetchMetrics(ctx context.Context, r platform.DateRange) (triplewhale.Metrics, error)
}

// Options holds the attribution business rules. The window and channel
// marker are asserted constants with no derived justification, so they
// stay configurable.
type Options struct {
	// Window is how long after a campaign send an order can still be
	// attributed to it.
	Window time.Duration
	// EmailChannel is the order source tag that marks email-driven orders.
	EmailChannel string
}

// DefaultOptions returns the production attribution rules.
func DefaultOptions() Options {
	return Options{Window: 7 * 24 * time.Hour, EmailChannel: "email"}
}

// CampaignAttribution is the revenue attributed to one campaign.
type CampaignAttribution struct {
	CampaignID   string    `json:"campaign_id"`
	CampaignName string    `json:"campaign_name"`
	SentAt       time.Time `json:"sent_at"`
	Revenue      float64   `json:"revenue"`
	Orders       int       `json:"orders"`
}

// Result is the full revenue attribution for a date range.
type Result struct {
	EmailRevenue float64 `json:"email_revenue"`
	TotalRevenue float64 `json:"total_revenue"`
	// AttributionRate is emailRevenue/totalRevenue as a percentage,
	// zero when there is no platform revenue.
	AttributionRate float64 `json:"attribution_rate"`
	// DirectAttribution is the sum of per-campaign attributed revenue.
	DirectAttribution float64 `json:"direct_attribution"`
	// AssistedAttribution is the platform-reported email revenue not
	// explained by direct attribution. It can go negative when
	// per-campaign matching under-counts against the platform's own
	// figure; that discrepancy is surfaced as-is, not clamped.
	AssistedAttribution float64               `json:"assisted_attribution"`
	Campaigns           []CampaignAttribution `json:"campaigns"`
}

// Engine computes revenue attribution from the two platforms.
type Engine struct {
	email    EmailSource
	commerce CommerceSource
	opts     Options
}

// NewEngine creates an attribution engine. Zero-value Options fields
// fall back to the defaults.
func NewEngine(email EmailSource, commerce CommerceSource, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Window <= 0 {
		opts.Window = def.Window
	}
	if opts.EmailChannel == "" {
		opts.EmailChannel = def.EmailChannel
	}
	return &Engine{email: email, commerce: commerce, opts: opts}
}

// Calculate fetches campaigns, orders and both platform aggregates for
// the range (the two platforms concurrently) and computes the split.
// Any fetch error fails the whole call.
func (e *Engine) Calculate(ctx context.Context, r platform.DateRange) (*Result, error) {
	var (
		wg sync.WaitGroup

		campaigns  []klaviyo.Campaign
		emailStats klaviyo.Metrics
		emailErr   error

		orders        []triplewhale.Order
		commerceStats triplewhale.Metrics
		commerceErr   error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		campaigns, emailErr = e.email.FetchCampaigns(ctx, r)
		if emailErr != nil {
			return
		}
		emailStats, emailErr = e.email.FetchMetrics(ctx, r)
	}()
	go func() {
		defer wg.Done()
		orders, commerceErr = e.commerce.FetchOrders(ctx, r)
		if commerceErr != nil {
			return
		}
		commerceStats, commerceErr = e.commerce.FetchMetrics(ctx, r)
	}()
	wg.Wait()

	if emailErr != nil {
		return nil, fmt.Errorf("email platform fetch failed: %w", emailErr)
	}
	if commerceErr != nil {
		return nil, fmt.Errorf("commerce platform fetch failed: %w", commerceErr)
	}

	perCampaign := AttributeOrders(campaigns, orders, e.opts)

	var direct float64
	for _, ca := range perCampaign {
		direct += ca.Revenue
	}

	result := &Result{
		EmailRevenue:        emailStats.EmailRevenue,
		TotalRevenue:        commerceStats.TotalRevenue,
		DirectAttribution:   direct,
		AssistedAttribution: emailStats.EmailRevenue - direct,
		Campaigns:           perCampaign,
	}
	if commerceStats.TotalRevenue > 0 {
		result.AttributionRate = emailStats.EmailRevenue / commerceStats.TotalRevenue * 100
	}

	logger.Info("attribution calculated",
		"campaigns", len(perCampaign),
		"direct", fmt.Sprintf("%.2f", result.DirectAttribution),
		"assisted", fmt.Sprintf("%.2f", result.AssistedAttribution),
		"rate", fmt.Sprintf("%.1f", result.AttributionRate))

	return result, nil
}

// AttributeOrders matches orders to campaigns: an order counts toward a
// campaign when it was created strictly after the send, within the
// attribution window, and either its source tag is the email channel
// marker or its campaign tag equals the campaign name. An order inside
// two overlapping windows counts toward both campaigns; the per-campaign
// list answers "what did this send drive", not a disjoint partition.
func AttributeOrders(campaigns []klaviyo.Campaign, orders []triplewhale.Order, opts Options) []CampaignAttribution {
	out := make([]CampaignAttribution, 0, len(campaigns))

	for _, c := range campaigns {
		ca := CampaignAttribution{
			CampaignID:   c.ID,
			CampaignName: c.Name,
			SentAt:       c.SentAt,
		}
		windowEnd := c.SentAt.Add(opts.Window)

		for _, o := range orders {
			if !o.CreatedAt.After(c.SentAt) || o.CreatedAt.After(windowEnd) {
				continue
			}
			if !strings.EqualFold(o.Source, opts.EmailChannel) && o.Campaign != c.Name {
				continue
			}
			ca.Revenue += o.Total
			ca.Orders++
		}

		out = append(out, ca)
	}

	return out
}
