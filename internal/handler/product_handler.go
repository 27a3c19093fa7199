package handler

import (
	"net/http"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 2. Products
// ============================================================

func listProductsHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products")
		defer span.End()

		category := domain.ProductCategory(r.URL.Query().Get("category"))
		span.SetAttributes(attribute.String("product.category", string(category)))

		products, err := svc.ListProducts(ctx, category)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"products": products, "total": len(products)})
	}
}

func createProductHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products")
		defer span.End()

		var p domain.Product
		if !decodeJSON(w, r, &p) {
			return
		}

		created, err := svc.CreateProduct(ctx, &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getProductHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{id}")
		defer span.End()

		p, err := svc.GetProduct(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func updateProductHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/products/{id}")
		defer span.End()

		var p domain.Product
		if !decodeJSON(w, r, &p) {
			return
		}

		updated, err := svc.UpdateProduct(ctx, chi.URLParam(r, "id"), &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteProductHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/products/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteProduct(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "product deleted", ID: id})
	}
}

func importLegacyHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products/import-legacy")
		defer span.End()

		res, err := svc.ImportLegacyCatalog(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		logger.Info("legacy catalog imported", zap.Int("imported", res.Imported))
		writeJSON(w, http.StatusOK, res)
	}
}

// ============================================================
// Reviews
// ============================================================

func listReviewsHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/products/{id}/reviews")
		defer span.End()

		summary, err := svc.Reviews(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func createReviewHandler(svc *service.ProductService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/products/{id}/reviews")
		defer span.End()

		var req domain.CreateReviewRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		review, err := svc.AddReview(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, review)
	}
}
