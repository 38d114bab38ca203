// Package unify joins email-platform profiles and commerce-platform
// customers into a single customer set keyed by email address. The join
// is case-insensitive on email; every distinct email observed in either
// source appears exactly once in the output. The unified set is
// recomputed from scratch on every call; no identity persists between
// runs.
package unify

import (
	"strings"
	"time"

	"github.com/ignite/commerce-pulse/internal/klaviyo"
	"github.com/ignite/commerce-pulse/internal/scoring"
	"github.com/ignite/commerce-pulse/internal/triplewhale"
)

// Engagement is the email engagement attached to a unified customer.
// It is present only when the customer has an email-platform record;
// a commerce-only customer carries nil, never a zeroed struct.
type Engagement struct {
	OpenRate    float64   `json:"open_rate"`
	ClickRate   float64   `json:"click_rate"`
	LastEngaged time.Time `json:"last_engaged"`
}

// Customer is one unified record per distinct email.
type Customer struct {
	Email         string `json:"email"`
	KlaviyoID     string `json:"klaviyo_id,omitempty"`
	TripleWhaleID string `json:"triplewhale_id,omitempty"`

	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`

	EmailEngagement *Engagement `json:"email_engagement,omitempty"`

	TotalSpent        float64 `json:"total_spent"`
	OrderCount        int     `json:"order_count"`
	AverageOrderValue float64 `json:"average_order_value"`
	LifetimeValue     float64 `json:"lifetime_value"`

	EngagementScore int  `json:"engagement_score"`
	RiskScore       int  `json:"risk_score"`
	PredictedChurn  bool `json:"predicted_churn"`
}

// Match produces the unified customer set from both source lists using
// the default scoring weights.
func Match(profiles []klaviyo.Profile, customers []triplewhale.Customer) []Customer {
	return MatchWithWeights(profiles, customers, scoring.DefaultWeights())
}

// MatchWithWeights is Match with injectable scoring constants.
//
// Profiles are merged first: name fields prefer the profile, commerce
// spend fields come from the matched customer or default to zero. Then
// commerce-only customers are appended. Records with an empty email are
// skipped entirely since they cannot be keyed. The email casing of the
// first-seen source is preserved.
func MatchWithWeights(profiles []klaviyo.Profile, customers []triplewhale.Customer, weights scoring.Weights) []Customer {
	byEmail := make(map[string]*triplewhale.Customer, len(customers))
	for i := range customers {
		key := strings.ToLower(customers[i].Email)
		if key == "" {
			continue
		}
		if _, exists := byEmail[key]; !exists {
			byEmail[key] = &customers[i]
		}
	}

	seen := make(map[string]bool, len(profiles))
	unified := make([]Customer, 0, len(profiles)+len(customers))

	for _, p := range profiles {
		key := strings.ToLower(p.Email)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		u := Customer{
			Email:     p.Email,
			KlaviyoID: p.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			EmailEngagement: &Engagement{
				OpenRate:    p.Engagement.OpenRate,
				ClickRate:   p.Engagement.ClickRate,
				LastEngaged: p.Engagement.LastEngaged,
			},
		}

		if c, ok := byEmail[key]; ok {
			u.TripleWhaleID = c.ID
			if u.FirstName == "" {
				u.FirstName = c.FirstName
			}
			if u.LastName == "" {
				u.LastName = c.LastName
			}
			applySpend(&u, c)
		}

		unified = append(unified, u)
	}

	for i := range customers {
		c := &customers[i]
		key := strings.ToLower(c.Email)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true

		u := Customer{
			Email:         c.Email,
			TripleWhaleID: c.ID,
			FirstName:     c.FirstName,
			LastName:      c.LastName,
		}
		applySpend(&u, c)

		unified = append(unified, u)
	}

	for i := range unified {
		score(&unified[i], weights)
	}

	return unified
}

func applySpend(u *Customer, c *triplewhale.Customer) {
	u.TotalSpent = c.TotalSpent
	u.OrderCount = c.OrdersCount
	if c.OrdersCount > 0 {
		u.AverageOrderValue = c.TotalSpent / float64(c.OrdersCount)
	}
	u.LifetimeValue = c.TotalSpent
}

func score(u *Customer, weights scoring.Weights) {
	in := scoring.Input{
		OrderCount:        u.OrderCount,
		TotalSpent:        u.TotalSpent,
		AverageOrderValue: u.AverageOrderValue,
	}
	if u.EmailEngagement != nil {
		in.HasEngagement = true
		in.OpenRate = u.EmailEngagement.OpenRate
		in.ClickRate = u.EmailEngagement.ClickRate
	}

	u.EngagementScore = weights.Engagement(in)
	u.RiskScore = weights.Risk(in)
	u.PredictedChurn = weights.PredictChurn(u.RiskScore)
}
