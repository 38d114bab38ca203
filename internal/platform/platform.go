// Package platform holds the small set of types shared by both external
// platform clients: date ranges for fetch windows and provenance tags
// that distinguish live vendor data from fallback placeholder data.
package platform

import (
	"fmt"
	"time"
)

// Provenance records where a client response came from. Callers and
// tests branch on this, so fallback data is never silently passed off
// as live data.
type Provenance string

const (
	// Live means the data came from the vendor API.
	Live Provenance = "live"
	// Fallback means the vendor call failed and the client substituted
	// its fixed placeholder dataset.
	Fallback Provenance = "fallback"
)

// Meta describes a single client fetch: where the data came from and when.
type Meta struct {
	Provenance Provenance `json:"source"`
	FetchedAt  time.Time  `json:"fetched_at"`
}

// LiveMeta returns a Meta tagged as live data fetched now.
func LiveMeta() Meta {
	return Meta{Provenance: Live, FetchedAt: time.Now().UTC()}
}

// FallbackMeta returns a Meta tagged as fallback data.
func FallbackMeta() Meta {
	return Meta{Provenance: Fallback, FetchedAt: time.Now().UTC()}
}

// DateRange is an inclusive [From, To] fetch window.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewDateRange builds a validated date range.
func NewDateRange(from, to time.Time) (DateRange, error) {
	if to.Before(from) {
		return DateRange{}, fmt.Errorf("invalid date range: from %s is after to %s",
			from.Format("2006-01-02"), to.Format("2006-01-02"))
	}
	return DateRange{From: from, To: to}, nil
}

// LastDays returns the trailing n-day range ending now.
func LastDays(n int) DateRange {
	now := time.Now().UTC()
	return DateRange{From: now.AddDate(0, 0, -n), To: now}
}

// Contains reports whether t falls inside the range, inclusive.
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.From) && !t.After(r.To)
}
