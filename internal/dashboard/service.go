// Package dashboard orchestrates the platform clients into the three
// operations the API exposes: customer matching, revenue attribution
// and connection testing. The service holds no state between calls;
// every request recomputes its view from the two platforms (through the
// optional short-TTL response cache).
package dashboard

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ignite/commerce-pulse/internal/attribution"
	"github.com/ignite/commerce-pulse/internal/klaviyo"
	"github.com/ignite/commerce-pulse/internal/pkg/logger"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/ignite/commerce-pulse/internal/scoring"
	"github.com/ignite/commerce-pulse/internal/snapshot"
	"github.com/ignite/commerce-pulse/internal/triplewhale"
	"github.com/ignite/commerce-pulse/internal/unify"
)

// ConnectionStatus reports per-platform reachability.
type ConnectionStatus struct {
	EmailPlatform    bool `json:"email_platform"`
	CommercePlatform bool `json:"commerce_platform"`
}

// CustomersResult is the unified customer set plus the provenance of
// the source data that produced it.
type CustomersResult struct {
	Customers []unify.Customer `json:"customers"`
	// Provenance is fallback when either source degraded; the join of
	// placeholder data with live data is still placeholder data.
	Provenance platform.Provenance `json:"source"`
	FetchedAt  time.Time           `json:"fetched_at"`
}

// Overview is the single combined dashboard payload.
type Overview struct {
	GeneratedAt time.Time `json:"generated_at"`

	CustomerCount      int     `json:"customer_count"`
	MatchedCount       int     `json:"matched_count"`
	AvgEngagementScore float64 `json:"avg_engagement_score"`
	AtRiskCount        int     `json:"at_risk_count"`

	TopAtRisk []unify.Customer `json:"top_at_risk"`

	// Attribution is nil when the aggregate computation failed; the
	// rest of the overview still renders.
	Attribution          *attribution.Result `json:"attribution,omitempty"`
	AttributionAvailable bool                `json:"attribution_available"`

	Connections        ConnectionStatus    `json:"connections"`
	CustomerProvenance platform.Provenance `json:"customer_source"`
}

// Service wires the clients, the attribution engine and the optional
// persistence layers together.
type Service struct {
	email    *klaviyo.Client
	commerce *triplewhale.Client
	engine   *attribution.Engine
	weights  scoring.Weights

	// Both optional; nil disables the concern.
	repo  *snapshot.Repo
	cache *snapshot.Cache
}

// New creates the dashboard service. repo and cache may be nil.
func New(email *klaviyo.Client, commerce *triplewhale.Client, engine *attribution.Engine,
	weights scoring.Weights, repo *snapshot.Repo, cache *snapshot.Cache) *Service {
	return &Service{
		email:    email,
		commerce: commerce,
		engine:   engine,
		weights:  weights,
		repo:     repo,
		cache:    cache,
	}
}

// MatchCustomers fetches both platforms concurrently and returns the
// unified customer set. It never fails: each side degrades to its
// fallback dataset independently, and the combined provenance tells the
// caller whether any placeholder data is in the mix.
func (s *Service) MatchCustomers(ctx context.Context, r platform.DateRange) CustomersResult {
	key := snapshot.Key("customers", r)
	if s.cache != nil {
		var cached CustomersResult
		if s.cache.Get(ctx, key, &cached) {
			return cached
		}
	}

	var (
		wg        sync.WaitGroup
		profiles  klaviyo.ProfilesResult
		customers triplewhale.CustomersResult
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		profiles = s.email.GetProfiles(ctx, r)
	}()
	go func() {
		defer wg.Done()
		customers = s.commerce.GetCustomers(ctx, r)
	}()
	wg.Wait()

	provenance := platform.Live
	if profiles.Meta.Provenance == platform.Fallback || customers.Meta.Provenance == platform.Fallback {
		provenance = platform.Fallback
	}

	result := CustomersResult{
		Customers:  unify.MatchWithWeights(profiles.Profiles, customers.Customers, s.weights),
		Provenance: provenance,
		FetchedAt:  time.Now().UTC(),
	}
	logger.Info("customers matched",
		"profiles", len(profiles.Profiles),
		"customers", len(customers.Customers),
		"unified", len(result.Customers),
		"source", provenance)

	// Only live results are worth caching; a transient vendor outage
	// should not pin fallback data for the TTL.
	if s.cache != nil && provenance == platform.Live {
		s.cache.Set(ctx, key, result)
	}
	return result
}

// CalculateRevenueAttribution computes attribution for the range. A
// platform fetch failure propagates; the caller shows "no attribution
// available" instead of a blended figure.
func (s *Service) CalculateRevenueAttribution(ctx context.Context, r platform.DateRange) (*attribution.Result, error) {
	key := snapshot.Key("attribution", r)
	if s.cache != nil {
		var cached attribution.Result
		if s.cache.Get(ctx, key, &cached) {
			return &cached, nil
		}
	}

	result, err := s.engine.Calculate(ctx, r)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, key, *result)
	}
	return result, nil
}

// TestConnections pings both platforms concurrently. It never returns
// an error; an unreachable platform is simply reported false.
func (s *Service) TestConnections(ctx context.Context) ConnectionStatus {
	var (
		wg     sync.WaitGroup
		status ConnectionStatus
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := s.email.Ping(ctx); err != nil {
			logger.Warn("email platform unreachable", "err", err)
		} else {
			status.EmailPlatform = true
		}
	}()
	go func() {
		defer wg.Done()
		if err := s.commerce.Ping(ctx); err != nil {
			logger.Warn("commerce platform unreachable", "err", err)
		} else {
			status.CommercePlatform = true
		}
	}()
	wg.Wait()
	return status
}

// Overview assembles the combined dashboard payload: customer summary,
// top at-risk customers, attribution (when available) and connection
// status. Persistence is left to the Snapshotter so request traffic
// does not multiply snapshot rows.
func (s *Service) Overview(ctx context.Context, r platform.DateRange) Overview {
	customers := s.MatchCustomers(ctx, r)

	o := Overview{
		GeneratedAt:        time.Now().UTC(),
		CustomerCount:      len(customers.Customers),
		CustomerProvenance: customers.Provenance,
		Connections:        s.TestConnections(ctx),
	}

	var engagementTotal int
	for _, c := range customers.Customers {
		if c.KlaviyoID != "" && c.TripleWhaleID != "" {
			o.MatchedCount++
		}
		if c.PredictedChurn {
			o.AtRiskCount++
		}
		engagementTotal += c.EngagementScore
	}
	if len(customers.Customers) > 0 {
		o.AvgEngagementScore = float64(engagementTotal) / float64(len(customers.Customers))
	}
	o.TopAtRisk = topAtRisk(customers.Customers, 10)

	attr, err := s.CalculateRevenueAttribution(ctx, r)
	if err != nil {
		logger.Warn("attribution unavailable for overview", "err", err)
	} else {
		o.Attribution = attr
		o.AttributionAvailable = true
	}

	return o
}

// SaveSnapshot persists an overview as a snapshot row. No-op without a
// configured repo.
func (s *Service) SaveSnapshot(ctx context.Context, o Overview) error {
	if s.repo == nil {
		return nil
	}

	snap := snapshot.Snapshot{
		TakenAt:            o.GeneratedAt,
		CustomerCount:      o.CustomerCount,
		MatchedCount:       o.MatchedCount,
		AvgEngagementScore: o.AvgEngagementScore,
		AtRiskCount:        o.AtRiskCount,
		Provenance:         o.CustomerProvenance,
	}
	if o.Attribution != nil {
		snap.DirectAttribution = o.Attribution.DirectAttribution
		snap.AssistedAttribution = o.Attribution.AssistedAttribution
		snap.AttributionRate = o.Attribution.AttributionRate
	}
	_, err := s.repo.Save(ctx, snap)
	return err
}

// topAtRisk returns up to n churn-predicted customers, highest risk first.
func topAtRisk(customers []unify.Customer, n int) []unify.Customer {
	atRisk := make([]unify.Customer, 0, n)
	for _, c := range customers {
		if c.PredictedChurn {
			atRisk = append(atRisk, c)
		}
	}
	sort.Slice(atRisk, func(i, j int) bool { return atRisk[i].RiskScore > atRisk[j].RiskScore })
	if len(atRisk) > n {
		atRisk = atRisk[:n]
	}
	return atRisk
}
