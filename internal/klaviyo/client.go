package klaviyo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignite/commerce-pulse/internal/pkg/httpretry"
	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// Config holds the client settings.
type Config struct {
	APIKey   string
	BaseURL  string
	Revision string
	Timeout  time.Duration
}

// Client is the Klaviyo API client. Get* methods are display reads:
// they degrade to the documented fallback dataset instead of failing,
// and tag every response with its provenance. Fetch* methods are the
// raw error-propagating variants used by aggregate computations.
type Client struct {
	baseURL    string
	apiKey     string
	revision   string
	httpClient httpretry.HTTPDoer
}

// NewClient creates a new Klaviyo API client
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		revision: cfg.Revision,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (c *Client) SetHTTPClient(client httpretry.HTTPDoer) {
	c.httpClient = client
}

// doRequest performs an authenticated GET against the Klaviyo API
func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Klaviyo-API-Key "+c.apiKey)
	req.Header.Set("revision", c.revision)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	return body, nil
}

func rangeParams(r platform.DateRange) url.Values {
	params := url.Values{}
	params.Set("filter", fmt.Sprintf("greater-or-equal(datetime,%s),less-or-equal(datetime,%s)",
		r.From.UTC().Format(time.RFC3339), r.To.UTC().Format(time.RFC3339)))
	return params
}

// ========== Raw Fetch Methods ==========

// FetchProfiles retrieves profiles for the date range, propagating errors.
func (c *Client) FetchProfiles(ctx context.Context, r platform.DateRange) ([]Profile, error) {
	body, err := c.doRequest(ctx, "/api/profiles/", rangeParams(r))
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse profiles response: %w", err)
	}

	profiles := make([]Profile, 0, len(resp.Data))
	for _, res := range resp.Data {
		profiles = append(profiles, normalizeProfile(res))
	}
	return profiles, nil
}

// FetchCampaigns retrieves campaigns for the date range, propagating errors.
func (c *Client) FetchCampaigns(ctx context.Context, r platform.DateRange) ([]Campaign, error) {
	body, err := c.doRequest(ctx, "/api/campaigns/", rangeParams(r))
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse campaigns response: %w", err)
	}

	campaigns := make([]Campaign, 0, len(resp.Data))
	for _, res := range resp.Data {
		campaigns = append(campaigns, normalizeCampaign(res))
	}
	return campaigns, nil
}

// FetchFlows retrieves automation flows, propagating errors.
func (c *Client) FetchFlows(ctx context.Context, r platform.DateRange) ([]Flow, error) {
	body, err := c.doRequest(ctx, "/api/flows/", rangeParams(r))
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flows response: %w", err)
	}

	flows := make([]Flow, 0, len(resp.Data))
	for _, res := range resp.Data {
		flows = append(flows, Flow{
			ID:      res.ID,
			Name:    res.Attributes.Name,
			Status:  res.Attributes.Status,
			Revenue: res.Attributes.Revenue,
		})
	}
	return flows, nil
}

// FetchMetrics retrieves the platform-wide email aggregate, propagating errors.
func (c *Client) FetchMetrics(ctx context.Context, r platform.DateRange) (Metrics, error) {
	body, err := c.doRequest(ctx, "/api/metric-aggregates/", rangeParams(r))
	if err != nil {
		return Metrics{}, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Metrics{}, fmt.Errorf("failed to parse metrics response: %w", err)
	}

	var m Metrics
	for _, res := range resp.Data {
		m.EmailRevenue += res.Attributes.EmailRevenue
		m.DeliveredEmails += res.Attributes.DeliveredEmails
		m.TotalOpens += res.Attributes.TotalOpens
		m.TotalClicks += res.Attributes.TotalClicks
	}
	return m, nil
}

// ========== Display Reads (degrade, don't fail) ==========

// GetProfiles retrieves profiles for the date range. On any failure it
// returns the fallback dataset tagged as such; it never errors.
func (c *Client) GetProfiles(ctx context.Context, r platform.DateRange) ProfilesResult {
	profiles, err := c.FetchProfiles(ctx, r)
	if err != nil {
		logger.Warn("klaviyo profiles fetch failed, using fallback", "err", err)
		return ProfilesResult{Profiles: FallbackProfiles(), Meta: platform.FallbackMeta()}
	}
	return ProfilesResult{Profiles: profiles, Meta: platform.LiveMeta()}
}

// GetCampaigns retrieves campaigns with fallback-on-failure semantics.
func (c *Client) GetCampaigns(ctx context.Context, r platform.DateRange) CampaignsResult {
	campaigns, err := c.FetchCampaigns(ctx, r)
	if err != nil {
		logger.Warn("klaviyo campaigns fetch failed, using fallback", "err", err)
		return CampaignsResult{Campaigns: FallbackCampaigns(), Meta: platform.FallbackMeta()}
	}
	return CampaignsResult{Campaigns: campaigns, Meta: platform.LiveMeta()}
}

// GetFlows retrieves flows with fallback-on-failure semantics.
func (c *Client) GetFlows(ctx context.Context, r platform.DateRange) FlowsResult {
	flows, err := c.FetchFlows(ctx, r)
	if err != nil {
		logger.Warn("klaviyo flows fetch failed, using fallback", "err", err)
		return FlowsResult{Flows: FallbackFlows(), Meta: platform.FallbackMeta()}
	}
	return FlowsResult{Flows: flows, Meta: platform.LiveMeta()}
}

// GetMetrics retrieves the email aggregate with fallback-on-failure semantics.
func (c *Client) GetMetrics(ctx context.Context, r platform.DateRange) MetricsResult {
	m, err := c.FetchMetrics(ctx, r)
	if err != nil {
		logger.Warn("klaviyo metrics fetch failed, using fallback", "err", err)
		return MetricsResult{Metrics: FallbackMetrics(), Meta: platform.FallbackMeta()}
	}
	return MetricsResult{Metrics: m, Meta: platform.LiveMeta()}
}

// Ping performs a cheap authenticated call to verify connectivity.
func (c *Client) Ping(ctx context.Context) error {
	params := url.Values{}
	params.Set("page[size]", "1")
	_, err := c.doRequest(ctx, "/api/accounts/", params)
	return err
}

// ========== Normalization ==========

func normalizeProfile(res resource) Profile {
	return Profile{
		ID:        res.ID,
		Email:     res.Attributes.Email,
		FirstName: res.Attributes.FirstName,
		LastName:  res.Attributes.LastName,
		Segments:  res.Attributes.Segments,
		Engagement: Engagement{
			OpenRate:    res.Attributes.OpenRate,
			ClickRate:   res.Attributes.ClickRate,
			LastEngaged: parseTime(res.Attributes.LastEvent),
		},
	}
}

func normalizeCampaign(res resource) Campaign {
	c := Campaign{
		ID:         res.ID,
		Name:       res.Attributes.Name,
		SentAt:     parseTime(res.Attributes.SendTime),
		Status:     res.Attributes.Status,
		Recipients: res.Attributes.Recipients,
		Opens:      res.Attributes.Opens,
		Clicks:     res.Attributes.Clicks,
		Revenue:    res.Attributes.Revenue,
	}
	if c.Recipients > 0 {
		c.OpenRate = float64(c.Opens) / float64(c.Recipients) * 100
		c.ClickRate = float64(c.Clicks) / float64(c.Recipients) * 100
	}
	return c
}

// parseTime parses a vendor timestamp, tolerating the two formats the
// API emits. Unparseable values become the zero time rather than an error.
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	return time.Time{}
}
