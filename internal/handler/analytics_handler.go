package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

// defaultSalesWindow applies when /v1/analytics/sales gets no "from".
const defaultSalesWindow = 30 * 24 * time.Hour

// ============================================================
// 6. Analytics
// ============================================================

func salesSummaryHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/sales")
		defer span.End()

		to := time.Now().UTC()
		if v := r.URL.Query().Get("to"); v != "" {
			t, ok := parseDate(v)
			if !ok {
				writeError(w, http.StatusBadRequest, "to must be RFC3339 or YYYY-MM-DD")
				return
			}
			to = t
		}
		from := to.Add(-defaultSalesWindow)
		if v := r.URL.Query().Get("from"); v != "" {
			t, ok := parseDate(v)
			if !ok {
				writeError(w, http.StatusBadRequest, "from must be RFC3339 or YYYY-MM-DD")
				return
			}
			from = t
		}
		if from.After(to) {
			writeError(w, http.StatusBadRequest, "from must not be after to")
			return
		}

		summary, err := svc.SalesSummary(ctx, from, to)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func dashboardHandler(svc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/analytics/dashboard")
		defer span.End()

		d, err := svc.Dashboard(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func datastoreStatsHandler(svc *service.AnalyticsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.DatastoreStats(r.Context()))
	}
}

// parseDate accepts a full RFC3339 instant or a bare date (UTC midnight).
func parseDate(v string) (time.Time, bool) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t, true
	}
	return time.Time{}, false
}
