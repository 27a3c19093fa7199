package handler

import (
	"net/http"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// 1. Authentication
// ============================================================

func authLoginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type meResponse struct {
	AdminID string           `json:"adminId"`
	Email   string           `json:"email"`
	Role    domain.AdminRole `json:"role"`
}

func authMeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := ClaimsFromContext(r.Context())
		writeJSON(w, http.StatusOK, meResponse{AdminID: c.AdminID, Email: c.Email, Role: c.Role})
	}
}
