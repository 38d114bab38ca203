package triplewhale

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ignite/commerce-pulse/internal/pkg/httpretry"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// DataSource is the transport contract for the commerce platform. The
// REST API and the local Moby subprocess both satisfy it; the client
// layer is indifferent to which one is wired in.
type DataSource interface {
	Customers(ctx context.Context, r platform.DateRange) ([]Customer, error)
	Orders(ctx context.Context, r platform.DateRange) ([]Order, error)
	Metrics(ctx context.Context, r platform.DateRange) (Metrics, error)
	Ping(ctx context.Context) error
}

// Config holds the REST transport settings.
type Config struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

// APISource implements DataSource against the Triple Whale REST API.
type APISource struct {
	baseURL    string
	apiKey     string
	httpClient httpretry.HTTPDoer
}

// NewAPISource creates a REST-backed data source
func NewAPISource(cfg Config) *APISource {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &APISource{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: timeout,
		}, 3),
	}
}

// SetHTTPClient sets a custom HTTP client (useful for testing)
func (s *APISource) SetHTTPClient(client httpretry.HTTPDoer) {
	s.httpClient = client
}

// doRequest performs an authenticated GET against the Triple Whale API
func (s *APISource) doRequest(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := s.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", s.apiKey)

	resp, err := s.httpClient.Do(req)
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
	params.Set("from", r.From.UTC().Format("2006-01-02"))
	params.Set("to", r.To.UTC().Format("2006-01-02"))
	return params
}

// Customers retrieves customers for the date range.
func (s *APISource) Customers(ctx context.Context, r platform.DateRange) ([]Customer, error) {
	body, err := s.doRequest(ctx, "/api/v2/customers", rangeParams(r))
	if err != nil {
		return nil, err
	}

	var resp customersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse customers response: %w", err)
	}

	customers := make([]Customer, 0, len(resp.Data))
	for _, rec := range resp.Data {
		customers = append(customers, normalizeCustomer(rec))
	}
	return customers, nil
}

// Orders retrieves orders for the date range.
func (s *APISource) Orders(ctx context.Context, r platform.DateRange) ([]Order, error) {
	body, err := s.doRequest(ctx, "/api/v2/orders", rangeParams(r))
	if err != nil {
		return nil, err
	}

	var resp ordersResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse orders response: %w", err)
	}

	orders := make([]Order, 0, len(resp.Data))
	for _, rec := range resp.Data {
		orders = append(orders, normalizeOrder(rec))
	}
	return orders, nil
}

// Metrics retrieves the platform-wide commerce aggregate.
func (s *APISource) Metrics(ctx context.Context, r platform.DateRange) (Metrics, error) {
	body, err := s.doRequest(ctx, "/api/v2/metrics", rangeParams(r))
	if err != nil {
		return Metrics{}, err
	}

	var resp metricsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Metrics{}, fmt.Errorf("failed to parse metrics response: %w", err)
	}

	return Metrics{
		TotalRevenue:      resp.Data.TotalRevenue,
		OrderCount:        resp.Data.OrderCount,
		AverageOrderValue: resp.Data.AverageOrderValue,
	}, nil
}

// Ping performs a cheap authenticated call to verify connectivity.
func (s *APISource) Ping(ctx context.Context) error {
	_, err := s.doRequest(ctx, "/api/v2/account", nil)
	return err
}

// ========== Normalization ==========

func normalizeCustomer(rec customerRecord) Customer {
	return Customer{
		ID:               rec.ID,
		Email:            rec.Email,
		FirstName:        rec.FirstName,
		LastName:         rec.LastName,
		Phone:            rec.Phone,
		OrdersCount:      rec.OrdersCount,
		TotalSpent:       rec.TotalSpent,
		CreatedAt:        parseTime(rec.CreatedAt),
		UpdatedAt:        parseTime(rec.UpdatedAt),
		AcceptsMarketing: rec.AcceptsMarketing,
		Tags:             rec.Tags,
	}
}

func normalizeOrder(rec orderRecord) Order {
	return Order{
		ID:         rec.ID,
		CustomerID: rec.CustomerID,
		Email:      rec.Email,
		Total:      rec.Total,
		Currency:   rec.Currency,
		CreatedAt:  parseTime(rec.CreatedAt),
		Source:     rec.Source,
		Campaign:   rec.Campaign,
	}
}

// parseTime tolerates the vendor's timestamp formats; unparseable
// values become the zero time rather than an error.
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
