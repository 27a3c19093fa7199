package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

// AuthService authenticates back-office admins and issues access tokens.
type AuthService struct {
	admins    port.AdminRepository
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service.
func NewAuthService(admins port.AdminRepository, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		admins:    admins,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
		now:       time.Now,
	}
}

// ============================================================
// Login: POST /v1/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	span.SetAttributes(attribute.String("email", email))

	admin, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return nil, &domain.ErrUnauthorized{Message: "Invalid credentials"}
	}
	if admin.Disabled {
		s.logger.Warn("login: admin disabled", zap.String("admin_id", admin.ID))
		return nil, &domain.ErrUnauthorized{Message: "Invalid credentials"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("login: wrong password", zap.String("admin_id", admin.ID))
		return nil, &domain.ErrUnauthorized{Message: "Invalid credentials"}
	}

	token, err := s.signAccessToken(admin)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	if err := s.admins.RecordLogin(ctx, admin.ID); err != nil {
		s.logger.Warn("login: record last login failed", zap.String("admin_id", admin.ID), zap.Error(err))
	}

	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID))
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		AdminID:     admin.ID,
		Email:       admin.Email,
		DisplayName: admin.DisplayName,
		Role:        admin.Role,
	}, nil
}

// ============================================================
// Bootstrap: cmd/bootstrap-admin
// ============================================================

// BootstrapAdmin creates an admin and its user profile in one batch.
func (s *AuthService) BootstrapAdmin(ctx context.Context, req *domain.BootstrapAdminRequest) (*domain.Admin, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.BootstrapAdmin")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, &domain.ErrValidation{Field: "email", Message: "Valid email is required"}
	}
	if len(req.Password) < minPasswordLength {
		return nil, &domain.ErrValidation{
			Field:   "password",
			Message: fmt.Sprintf("Password must have at least %d characters", minPasswordLength),
		}
	}
	role := req.Role
	if role == "" {
		role = domain.RoleOwner
	}
	if !role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "unknown role " + string(role)}
	}
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name = email
	}

	existing, err := s.admins.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing admin: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "Admin with this email already exists"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := domain.NewTimestamp(s.now())
	admin := &domain.Admin{
		Email:        email,
		DisplayName:  name,
		Role:         role,
		PasswordHash: string(hash),
	}
	profile := &domain.User{
		DisplayName:    name,
		Status:         domain.UserActive,
		AccountType:    domain.AccountVIP,
		MembershipTier: domain.TierBronze,
		JoinDate:       now,
		LastActiveDate: now,
	}
	if err := s.admins.CreateWithProfile(ctx, admin, profile); err != nil {
		if errors.Is(err, port.ErrDuplicate) {
			return nil, &domain.ErrConflict{Message: "Admin with this email already exists"}
		}
		return nil, fmt.Errorf("create admin: %w", err)
	}

	s.logger.Info("admin bootstrapped",
		zap.String("admin_id", admin.ID),
		zap.String("role", string(role)),
	)
	return admin, nil
}
