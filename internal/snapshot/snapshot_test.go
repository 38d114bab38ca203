package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotColumns = []string{
	"id", "taken_at", "customer_count", "matched_count", "avg_engagement_score",
	"at_risk_count", "direct_attribution", "assisted_attribution",
	"attribution_rate", "provenance",
}

func TestSaveAssignsID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO dashboard_snapshots").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), 100, 60, 42.5, 12, 700.0, 300.0, 20.0, "live").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepo(db)
	id, err := repo.Save(context.Background(), Snapshot{
		CustomerCount:       100,
		MatchedCount:        60,
		AvgEngagementScore:  42.5,
		AtRiskCount:         12,
		DirectAttribution:   700,
		AssistedAttribution: 300,
		AttributionRate:     20,
		Provenance:          platform.Live,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatest(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	taken := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT (.+) FROM dashboard_snapshots ORDER BY taken_at DESC").
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow("snap-1", taken, 100, 60, 42.5, 12, 700.0, 300.0, 20.0, "live"))

	repo := NewRepo(db)
	s, err := repo.Latest(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "snap-1", s.ID)
	assert.Equal(t, taken, s.TakenAt)
	assert.Equal(t, platform.Live, s.Provenance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLatestNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM dashboard_snapshots").
		WillReturnRows(sqlmock.NewRows(snapshotColumns))

	repo := NewRepo(db)
	_, err = repo.Latest(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	dr := platform.DateRange{
		From: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
	}
	mock.ExpectQuery("SELECT (.+) FROM dashboard_snapshots WHERE taken_at").
		WithArgs(dr.From, dr.To, 10).
		WillReturnRows(sqlmock.NewRows(snapshotColumns).
			AddRow("snap-2", dr.To, 120, 70, 44.0, 10, 800.0, 200.0, 22.0, "live").
			AddRow("snap-1", dr.From, 100, 60, 42.5, 12, 700.0, 300.0, 20.0, "fallback"))

	repo := NewRepo(db)
	snaps, err := repo.ListRange(context.Background(), dr, 10)
	require.NoError(t, err)

	require.Len(t, snaps, 2)
	assert.Equal(t, "snap-2", snaps[0].ID)
	assert.Equal(t, platform.Fallback, snaps[1].Provenance)
	assert.NoError(t, mock.ExpectationsWereMet())
}
