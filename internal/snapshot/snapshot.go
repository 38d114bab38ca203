// Package snapshot persists computed dashboard aggregates so the UI can
// render the last known state instantly and chart trends over time. The
// core computation stays stateless; snapshots are written after the
// fact and never feed back into matching or attribution.
package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/commerce-pulse/internal/platform"
)

// ErrNotFound is returned when no snapshot matches a lookup.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is one persisted dashboard aggregate.
type Snapshot struct {
	ID                  string              `json:"id"`
	TakenAt             time.Time           `json:"taken_at"`
	CustomerCount       int                 `json:"customer_count"`
	MatchedCount        int                 `json:"matched_count"`
	AvgEngagementScore  float64             `json:"avg_engagement_score"`
	AtRiskCount         int                 `json:"at_risk_count"`
	DirectAttribution   float64             `json:"direct_attribution"`
	AssistedAttribution float64             `json:"assisted_attribution"`
	AttributionRate     float64             `json:"attribution_rate"`
	Provenance          platform.Provenance `json:"provenance"`
}

// Repo stores snapshots in PostgreSQL.
type Repo struct{ db *sql.DB }

// NewRepo creates a Postgres-backed snapshot repository.
func NewRepo(db *sql.DB) *Repo { return &Repo{db: db} }

// Save persists a snapshot, assigning an ID when it has none.
func (r *Repo) Save(ctx context.Context, s Snapshot) (string, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.TakenAt.IsZero() {
		s.TakenAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO dashboard_snapshots
			(id, taken_at, customer_count, matched_count, avg_engagement_score,
			 at_risk_count, direct_attribution, assisted_attribution,
			 attribution_rate, provenance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, s.ID, s.TakenAt, s.CustomerCount, s.MatchedCount, s.AvgEngagementScore,
		s.AtRiskCount, s.DirectAttribution, s.AssistedAttribution,
		s.AttributionRate, string(s.Provenance))
	if err != nil {
		return "", fmt.Errorf("save snapshot: %w", err)
	}
	return s.ID, nil
}

// Latest returns the most recent snapshot.
func (r *Repo) Latest(ctx context.Context) (*Snapshot, error) {
	s, err := r.scanOne(r.db.QueryRowContext(ctx, `
		SELECT id, taken_at, customer_count, matched_count, avg_engagement_score,
		       at_risk_count, direct_attribution, assisted_attribution,
		       attribution_rate, provenance
		FROM dashboard_snapshots
		ORDER BY taken_at DESC
		LIMIT 1
	`))
	if err != nil {
		return nil, fmt.Errorf("latest snapshot: %w", err)
	}
	return s, nil
}

// ListRange returns snapshots taken inside the range, newest first.
func (r *Repo) ListRange(ctx context.Context, dr platform.DateRange, limit int) ([]Snapshot, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, taken_at, customer_count, matched_count, avg_engagement_score,
		       at_risk_count, direct_attribution, assisted_attribution,
		       attribution_rate, provenance
		FROM dashboard_snapshots
		WHERE taken_at >= $1 AND taken_at <= $2
		ORDER BY taken_at DESC
		LIMIT $3
	`, dr.From, dr.To, limit)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var s Snapshot
		var prov string
		if err := rows.Scan(
			&s.ID, &s.TakenAt, &s.CustomerCount, &s.MatchedCount, &s.AvgEngagementScore,
			&s.AtRiskCount, &s.DirectAttribution, &s.AssistedAttribution,
			&s.AttributionRate, &prov,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		s.Provenance = platform.Provenance(prov)
		out = append(out, s)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *Repo) scanOne(row rowScanner) (*Snapshot, error) {
	var s Snapshot
	var prov string
	err := row.Scan(
		&s.ID, &s.TakenAt, &s.CustomerCount, &s.MatchedCount, &s.AvgEngagementScore,
		&s.AtRiskCount, &s.DirectAttribution, &s.AssistedAttribution,
		&s.AttributionRate, &prov,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Provenance = platform.Provenance(prov)
	return &s, nil
}
