package klaviyo

import "time"

// Fallback datasets returned by the Get* display reads when the vendor
// call fails. These are fixed example records, always tagged with
// fallback provenance so callers can tell them apart from live data.

// FallbackProfiles returns the placeholder profile set.
func FallbackProfiles() []Profile {
	return []Profile{
		{
			ID:        "sample-profile-1",
			Email:     "sample.customer@example.com",
			FirstName: "Sample",
			LastName:  "Customer",
			Segments:  []string{"Newsletter", "VIP"},
			Engagement: Engagement{
				OpenRate:    42.5,
				ClickRate:   8.1,
				LastEngaged: time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC),
			},
		},
		{
			ID:        "sample-profile-2",
			Email:     "second.sample@example.com",
			FirstName: "Second",
			LastName:  "Sample",
			Segments:  []string{"Newsletter"},
			Engagement: Engagement{
				OpenRate:    12.0,
				ClickRate:   1.4,
				LastEngaged: time.Date(2024, 1, 2, 17, 0, 0, 0, time.UTC),
			},
		},
	}
}

// FallbackCampaigns returns the placeholder campaign set.
func FallbackCampaigns() []Campaign {
	return []Campaign{
		{
			ID:         "sample-campaign-1",
			Name:       "Welcome Series",
			SentAt:     time.Date(2024, 1, 10, 14, 0, 0, 0, time.UTC),
			Status:     "sent",
			Recipients: 5000,
			Opens:      2100,
			Clicks:     430,
			OpenRate:   42,
			ClickRate:  8.6,
			Revenue:    1250.00,
		},
	}
}

// FallbackFlows returns the placeholder flow set.
func FallbackFlows() []Flow {
	return []Flow{
		{ID: "sample-flow-1", Name: "Abandoned Cart", Status: "live", Revenue: 820.00},
	}
}

// FallbackMetrics returns the placeholder email aggregate.
func FallbackMetrics() Metrics {
	return Metrics{
		EmailRevenue:    2070.00,
		DeliveredEmails: 12500,
		TotalOpens:      5300,
		TotalClicks:     940,
	}
}
