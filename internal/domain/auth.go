package domain

// ============================================================
// Auth: Request / Response types
// ============================================================

// LoginRequest is the body for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body for 200 from POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	ExpiresIn   int       `json:"expiresIn"`
	AdminID     string    `json:"adminId"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	Role        AdminRole `json:"role"`
}

// TokenClaims is what the auth middleware puts in the request context.
type TokenClaims struct {
	AdminID string
	Email   string
	Role    AdminRole
}

// BootstrapAdminRequest provisions the first privileged admin.
type BootstrapAdminRequest struct {
	Email       string
	DisplayName string
	Password    string
	Role        AdminRole
}
