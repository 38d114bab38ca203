package klaviyo

import (
	"time"

	"github.com/ignite/commerce-pulse/internal/platform"
)

// ========== Vendor API Types ==========

// listResponse is the Klaviyo JSON:API envelope for collection endpoints.
type listResponse struct {
	Data  []resource `json:"data"`
	Links struct {
		Next string `json:"next,omitempty"`
	} `json:"links"`
}

// resource is a single typed resource inside the envelope.
type resource struct {
	Type       string             `json:"type"`
	ID         string             `json:"id"`
	Attributes resourceAttributes `json:"attributes"`
}

// resourceAttributes holds the union of attribute fields we read across
// profile, campaign, flow and metric resources. Fields missing from a
// payload simply unmarshal to their zero values; normalization never
// fails on partial data.
type resourceAttributes struct {
	// Profile fields
	Email     string   `json:"email"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Segments  []string `json:"segments"`
	OpenRate  float64  `json:"open_rate"`
	ClickRate float64  `json:"click_rate"`
	LastEvent string   `json:"last_event_date"`

	// Campaign / flow fields
	Name       string  `json:"name"`
	Status     string  `json:"status"`
	SendTime   string  `json:"send_time"`
	Recipients int64   `json:"num_recipients"`
	Opens      int64   `json:"opens"`
	Clicks     int64   `json:"clicks"`
	Revenue    float64 `json:"revenue"`

	// Metric aggregate fields
	EmailRevenue    float64 `json:"email_revenue"`
	TotalOpens      int64   `json:"total_opens"`
	TotalClicks     int64   `json:"total_clicks"`
	DeliveredEmails int64   `json:"delivered_emails"`
}

// ========== Normalized Types ==========

// Engagement is a profile's email engagement summary. Rates are 0-100.
type Engagement struct {
	OpenRate    float64   `json:"open_rate"`
	ClickRate   float64   `json:"click_rate"`
	LastEngaged time.Time `json:"last_engaged"`
}

// Profile is a normalized Klaviyo profile.
type Profile struct {
	ID         string     `json:"id"`
	Email      string     `json:"email"`
	FirstName  string     `json:"first_name,omitempty"`
	LastName   string     `json:"last_name,omitempty"`
	Segments   []string   `json:"segments,omitempty"`
	Engagement Engagement `json:"engagement"`
}

// Campaign is a normalized email campaign with its send-time stats.
type Campaign struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	SentAt     time.Time `json:"sent_at"`
	Status     string    `json:"status"`
	Recipients int64     `json:"recipients"`
	Opens      int64     `json:"opens"`
	Clicks     int64     `json:"clicks"`
	OpenRate   float64   `json:"open_rate"`
	ClickRate  float64   `json:"click_rate"`
	Revenue    float64   `json:"revenue"`
}

// Flow is a normalized automation flow.
type Flow struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Status  string  `json:"status"`
	Revenue float64 `json:"revenue"`
}

// Metrics is the platform-wide email aggregate for a date range.
type Metrics struct {
	EmailRevenue    float64 `json:"email_revenue"`
	DeliveredEmails int64   `json:"delivered_emails"`
	TotalOpens      int64   `json:"total_opens"`
	TotalClicks     int64   `json:"total_clicks"`
}

// ========== Result Types ==========

// ProfilesResult carries profiles plus fetch provenance.
type ProfilesResult struct {
	Profiles []Profile     `json:"profiles"`
	Meta     platform.Meta `json:"meta"`
}

// CampaignsResult carries campaigns plus fetch provenance.
type CampaignsResult struct {
	Campaigns []Campaign    `json:"campaigns"`
	Meta      platform.Meta `json:"meta"`
}

// FlowsResult carries flows plus fetch provenance.
type FlowsResult struct {
	Flows []Flow        `json:"flows"`
	Meta  platform.Meta `json:"meta"`
}

// MetricsResult carries the email aggregate plus fetch provenance.
type MetricsResult struct {
	Metrics Metrics       `json:"metrics"`
	Meta    platform.Meta `json:"meta"`
}
