package handler

import (
	"context"
	"net/http"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 5. Users
// ============================================================

func listUsersHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users")
		defer span.End()

		q := r.URL.Query()
		f := domain.UserFilter{
			Status:         domain.UserStatus(q.Get("status")),
			AccountType:    domain.AccountType(q.Get("accountType")),
			MembershipTier: domain.MembershipTier(q.Get("tier")),
			Search:         q.Get("search"),
		}

		users, err := svc.ListUsers(ctx, f)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users, "total": len(users)})
	}
}

func createUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/users")
		defer span.End()

		var req domain.CreateUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		u, err := svc.CreateUser(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, u)
	}
}

func getUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{id}")
		defer span.End()

		u, err := svc.GetUser(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func updateUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{id}")
		defer span.End()

		var req domain.UpdateUserRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		u, err := svc.UpdateUser(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, u)
	}
}

func deleteUserHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/users/{id}")
		defer span.End()

		id := chi.URLParam(r, "id")
		if err := svc.DeleteUser(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "user deleted", ID: id})
	}
}

// loyaltyHandler serves both award and deduct.
func loyaltyHandler(svc *service.UserService, award bool, logger *zap.Logger) http.HandlerFunc {
	op, route := svc.DeductLoyaltyPoints, "POST /v1/users/{id}/loyalty/deduct"
	if award {
		op, route = svc.AwardLoyaltyPoints, "POST /v1/users/{id}/loyalty/award"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		var req domain.LoyaltyRequest
		if !decodeJSON(w, r, &req) {
			return
		}
		span.SetAttributes(attribute.Int("loyalty.points", req.Points))

		u, err := op(ctx, chi.URLParam(r, "id"), req.Points)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if req.Reason != "" {
			logger.Info("loyalty points changed",
				zap.String("user_id", u.ID),
				zap.Int("points", req.Points),
				zap.Bool("award", award),
				zap.String("reason", req.Reason),
			)
		}
		writeJSON(w, http.StatusOK, u)
	}
}

// ============================================================
// Preferences
// ============================================================

func getPreferencesHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/users/{id}/preferences")
		defer span.End()

		p, err := svc.GetPreferences(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}

func savePreferencesHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/users/{id}/preferences")
		defer span.End()

		var p domain.UserPreferences
		if !decodeJSON(w, r, &p) {
			return
		}

		saved, err := svc.SavePreferences(ctx, chi.URLParam(r, "id"), &p)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, saved)
	}
}

func addFavoriteHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return favoriteHandler("POST /v1/users/{id}/favorites/{productId}", svc.AddFavorite, svc, logger)
}

func removeFavoriteHandler(svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return favoriteHandler("DELETE /v1/users/{id}/favorites/{productId}", svc.RemoveFavorite, svc, logger)
}

// favoriteHandler applies edit and responds with the resulting preferences.
func favoriteHandler(route string, edit func(ctx context.Context, userID, productID string) error, svc *service.UserService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), route)
		defer span.End()

		userID := chi.URLParam(r, "id")
		if err := edit(ctx, userID, chi.URLParam(r, "productId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		p, err := svc.GetPreferences(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
