package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// streamKeepAlive is how often an idle order stream sends a comment line.
const streamKeepAlive = 15 * time.Second

// ============================================================
// 3. Orders
// ============================================================

func listOrdersHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders")
		defer span.End()

		if customerID := r.URL.Query().Get("customerId"); customerID != "" {
			orders, err := svc.ListByCustomer(ctx, customerID)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"orders": orders, "total": len(orders)})
			return
		}

		page, pageSize := parsePagination(r)
		status := domain.OrderStatus(r.URL.Query().Get("status"))
		span.SetAttributes(
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
			attribute.String("order.status", string(status)),
		)

		result, err := svc.ListOrders(ctx, page, pageSize, status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

func createOrderHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/orders")
		defer span.End()

		var req domain.CreateOrderRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		order, err := svc.CreateOrder(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, order)
	}
}

func getOrderHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/orders/{id}")
		defer span.End()

		order, err := svc.GetOrder(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func updateOrderStatusHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/orders/{id}/status")
		defer span.End()

		var req domain.UpdateOrderStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		order, err := svc.UpdateStatus(ctx, chi.URLParam(r, "id"), req.Status)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, order)
	}
}

func deleteOrderHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/orders/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteOrder(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "order deleted", ID: id})
	}
}

// orderStreamHandler pushes the full (optionally status-filtered) order list
// as a server-sent event every time it changes. Slow clients only ever see
// the latest snapshot.
func orderStreamHandler(svc *service.OrderService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming unsupported")
			return
		}

		status := domain.OrderStatus(r.URL.Query().Get("status"))
		latest := make(chan []domain.Order, 1)
		deliver := func(orders []domain.Order) {
			select {
			case <-latest:
			default:
			}
			select {
			case latest <- orders:
			default:
			}
		}

		unsubscribe, err := svc.Subscribe(ctx, status, deliver)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		defer unsubscribe()

		// Streams outlive the server's write timeout.
		_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()

		logger.Debug("order stream opened", zap.String("status", string(status)))
		keepAlive := time.NewTicker(streamKeepAlive)
		defer keepAlive.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("order stream closed")
				return
			case <-keepAlive.C:
				fmt.Fprint(w, ": keep-alive\n\n")
				flusher.Flush()
			case orders := <-latest:
				payload, err := json.Marshal(orders)
				if err != nil {
					logger.Error("encode order snapshot", zap.Error(err))
					return
				}
				fmt.Fprintf(w, "event: orders\ndata: %s\n\n", payload)
				flusher.Flush()
			}
		}
	}
}
