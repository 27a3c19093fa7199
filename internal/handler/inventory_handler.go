package handler

import (
	"net/http"
	"strconv"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 4. Inventory
// ============================================================

func listInventoryHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory")
		defer span.End()

		items, err := svc.ListItems(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	}
}

func createInventoryHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inventory")
		defer span.End()

		var req domain.CreateInventoryRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		item, err := svc.CreateItem(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, item)
	}
}

func lowStockHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory/low-stock")
		defer span.End()

		items, err := svc.ListLowStock(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "total": len(items)})
	}
}

func getInventoryHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory/{id}")
		defer span.End()

		item, err := svc.GetItem(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func deleteInventoryHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/inventory/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteItem(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "inventory item deleted", ID: id})
	}
}

func updateLevelsHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/inventory/{id}/levels")
		defer span.End()

		var req domain.UpdateLevelsRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		item, err := svc.UpdateLevels(ctx, chi.URLParam(r, "id"), req.StockLevels)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func setStockLevelHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/inventory/{id}/levels/{size}")
		defer span.End()

		var req domain.SetStockLevelRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.CurrentStock == nil {
			writeError(w, http.StatusBadRequest, "currentStock is required")
			return
		}

		item, err := svc.SetStockLevel(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "size"), *req.CurrentStock)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func adjustStockHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/inventory/{id}/adjust")
		defer span.End()

		var req domain.AdjustStockRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(
			attribute.String("stock.size", req.Size),
			attribute.String("stock.movement", string(req.Type)),
			attribute.Int("stock.quantity", req.Quantity),
		)

		res, err := svc.AdjustStock(ctx, chi.URLParam(r, "id"), &req, actorFromContext(ctx))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func forecastHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory/{id}/forecast")
		defer span.End()

		window := 0
		if v := r.URL.Query().Get("days"); v != "" {
			d, err := strconv.Atoi(v)
			if err != nil || d < 1 {
				writeError(w, http.StatusBadRequest, "days must be a positive integer")
				return
			}
			window = d
		}

		fc, err := svc.Forecast(ctx, chi.URLParam(r, "id"), window)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, fc)
	}
}

func listMovementsHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory/{id}/movements")
		defer span.End()

		movements, err := svc.ListMovements(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movements": movements, "total": len(movements)})
	}
}

func recentMovementsHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/inventory/movements/recent")
		defer span.End()

		movements, err := svc.ListRecentMovements(ctx, queryInt(r, "limit", 50))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"movements": movements, "total": len(movements)})
	}
}

// ============================================================
// Stock alerts
// ============================================================

func listAlertsHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/alerts")
		defer span.End()

		var (
			alerts []domain.StockAlert
			err    error
		)
		if productID := r.URL.Query().Get("productId"); productID != "" {
			alerts, err = svc.ListAlertsByProduct(ctx, productID)
		} else {
			unreadOnly := r.URL.Query().Get("unread") == "true"
			alerts, err = svc.ListAlerts(ctx, unreadOnly, queryInt(r, "limit", 50))
		}
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"alerts": alerts, "total": len(alerts)})
	}
}

func markAlertReadHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/alerts/{id}/read")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.MarkAlertRead(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "alert marked as read", ID: id})
	}
}

func markAllAlertsReadHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/alerts/read-all")
		defer span.End()

		n, err := svc.MarkAllAlertsRead(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"marked": n})
	}
}

func deleteAlertHandler(svc *service.InventoryService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/alerts/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteAlert(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "alert deleted", ID: id})
	}
}
