package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/ignite/commerce-pulse/internal/dashboard"
	"github.com/ignite/commerce-pulse/internal/pkg/httputil"
	"github.com/ignite/commerce-pulse/internal/platform"
	"github.com/ignite/commerce-pulse/internal/snapshot"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc       *dashboard.Service
	snapshots *snapshot.Repo
	startedAt time.Time
}

// NewHandlers creates a new Handlers instance. snapshots may be nil when
// no database is configured.
func NewHandlers(svc *dashboard.Service, snapshots *snapshot.Repo) *Handlers {
	return &Handlers{
		svc:       svc,
		snapshots: snapshots,
		startedAt: time.Now(),
	}
}

// ========== Date Range Parsing ==========

const defaultRangeDays = 30

// parseRange extracts the from/to query parameters. Dates accept RFC3339
// or plain YYYY-MM-DD; a date-only "to" is pushed to end of day. With no
// params the trailing 30 days are used.
func parseRange(r *http.Request) (platform.DateRange, error) {
	fromStr := r.URL.Query().Get("from")
	toStr := r.URL.Query().Get("to")

	if fromStr == "" && toStr == "" {
		return platform.LastDays(defaultRangeDays), nil
	}

	now := time.Now().UTC()
	from := now.AddDate(0, 0, -defaultRangeDays)
	to := now

	if fromStr != "" {
		t, _, err := parseParamTime(fromStr)
		if err != nil {
			return platform.DateRange{}, err
		}
		from = t
	}
	if toStr != "" {
		t, dateOnly, err := parseParamTime(toStr)
		if err != nil {
			return platform.DateRange{}, err
		}
		if dateOnly {
			t = t.Add(23*time.Hour + 59*time.Minute + 59*time.Second)
		}
		to = t
	}

	return platform.NewDateRange(from, to)
}

func parseParamTime(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	if t, err = time.Parse("2006-01-02", s); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: use RFC3339 or YYYY-MM-DD", s)
}

// ========== Health ==========

// HealthCheck returns the health status of the API
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// ========== Dashboard ==========

// GetDashboard returns the combined overview: unified customers summary,
// at-risk list, attribution and connection status in one call.
func (h *Handlers) GetDashboard(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.OK(w, h.svc.Overview(r.Context(), dr))
}

// GetUnifiedCustomers returns the email-joined customer list with
// engagement and churn-risk scores.
func (h *Handlers) GetUnifiedCustomers(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	httputil.OK(w, h.svc.MatchCustomers(r.Context(), dr))
}

// GetAttribution returns campaign revenue attribution. Unlike the display
// reads this surfaces upstream failures, since partial attribution numbers
// would be worse than none.
func (h *Handlers) GetAttribution(w http.ResponseWriter, r *http.Request) {
	dr, err := parseRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	result, err := h.svc.CalculateRevenueAttribution(r.Context(), dr)
	if err != nil {
		httputil.BadGateway(w, "attribution unavailable: "+err.Error())
		return
	}

	httputil.OK(w, result)
}

// GetConnections reports reachability of both upstream platforms.
func (h *Handlers) GetConnections(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, h.svc.TestConnections(r.Context()))
}

// ========== Snapshots ==========

// GetLatestSnapshot returns the most recent persisted snapshot, so the
// UI can render last known state before live data arrives.
func (h *Handlers) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "snapshot storage not configured")
		return
	}

	snap, err := h.snapshots.Latest(r.Context())
	if errors.Is(err, snapshot.ErrNotFound) {
		httputil.Error(w, http.StatusNotFound, "no snapshots recorded yet")
		return
	}
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, snap)
}

// GetSnapshots lists persisted dashboard snapshots for the range.
func (h *Handlers) GetSnapshots(w http.ResponseWriter, r *http.Request) {
	if h.snapshots == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "snapshot storage not configured")
		return
	}

	dr, err := parseRange(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil || limit < 0 {
			httputil.BadRequest(w, "limit must be a non-negative integer")
			return
		}
	}

	snaps, err := h.snapshots.ListRange(r.Context(), dr, limit)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	httputil.OK(w, map[string]interface{}{
		"snapshots": snaps,
		"total":     len(snaps),
	})
}
