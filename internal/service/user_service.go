package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/boddenberg/coffee-admin-bfa-go/internal/domain"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/infra/resilience"
	"github.com/boddenberg/coffee-admin-bfa-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var userTracer = otel.Tracer("service/user")

// DeleteGuardWindow blocks deleting customers who ordered recently.
const DeleteGuardWindow = 30 * 24 * time.Hour

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserService manages customers, their loyalty balance and preferences.
type UserService struct {
	users  port.UserRepository
	prefs  port.PreferencesRepository
	retry  resilience.Config
	logger *zap.Logger
	now    func() time.Time
}

// NewUserService creates a new user service.
func NewUserService(users port.UserRepository, prefs port.PreferencesRepository, retry resilience.Config, logger *zap.Logger) *UserService {
	return &UserService{
		users:  users,
		prefs:  prefs,
		retry:  retry,
		logger: logger,
		now:    time.Now,
	}
}

// ============================================================
// CRUD: /v1/users
// ============================================================

func (s *UserService) CreateUser(ctx context.Context, req *domain.CreateUserRequest) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.CreateUser")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		return nil, &domain.ErrValidation{Field: "email", Message: "Valid email is required"}
	}
	if strings.TrimSpace(req.DisplayName) == "" {
		return nil, &domain.ErrValidation{Field: "displayName", Message: "Display name is required"}
	}
	accountType := req.AccountType
	if accountType == "" {
		accountType = domain.AccountRegular
	}
	if !accountType.Valid() {
		return nil, &domain.ErrValidation{Field: "accountType", Message: "unknown account type " + string(accountType)}
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "User with this email already exists"}
	}

	now := domain.NewTimestamp(s.now())
	u := &domain.User{
		Email:          email,
		DisplayName:    strings.TrimSpace(req.DisplayName),
		PhoneNumber:    req.PhoneNumber,
		Status:         domain.UserActive,
		AccountType:    accountType,
		MembershipTier: domain.TierBronze,
		JoinDate:       now,
		LastActiveDate: now,
	}
	if _, err := s.users.Create(ctx, u); err != nil {
		// Backends with a unique email index close the check-then-create race.
		if errors.Is(err, port.ErrDuplicate) {
			return nil, &domain.ErrConflict{Message: "User with this email already exists"}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.logger.Info("user created", zap.String("user_id", u.ID))
	return u, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.GetUser")
	defer span.End()

	u, err := s.users.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &domain.ErrNotFound{Resource: "user", ID: id}
	}
	return u, nil
}

func (s *UserService) ListUsers(ctx context.Context, f domain.UserFilter) ([]domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.ListUsers")
	defer span.End()

	if f.Status != "" && !f.Status.Valid() {
		return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(f.Status)}
	}
	if f.AccountType != "" && !f.AccountType.Valid() {
		return nil, &domain.ErrValidation{Field: "accountType", Message: "unknown account type " + string(f.AccountType)}
	}
	if f.MembershipTier != "" && !f.MembershipTier.Valid() {
		return nil, &domain.ErrValidation{Field: "membershipTier", Message: "unknown tier " + string(f.MembershipTier)}
	}
	return s.users.List(ctx, f)
}

// UpdateUser edits profile fields. Loyalty and tier are owned by the
// loyalty operations and cannot be set here.
func (s *UserService) UpdateUser(ctx context.Context, id string, req *domain.UpdateUserRequest) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.UpdateUser")
	defer span.End()

	fields := map[string]any{}
	if req.DisplayName != nil {
		name := strings.TrimSpace(*req.DisplayName)
		if name == "" {
			return nil, &domain.ErrValidation{Field: "displayName", Message: "Display name is required"}
		}
		fields["displayName"] = name
	}
	if req.PhoneNumber != nil {
		fields["phoneNumber"] = *req.PhoneNumber
	}
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, &domain.ErrValidation{Field: "status", Message: "unknown status " + string(*req.Status)}
		}
		fields["status"] = *req.Status
	}
	if req.AccountType != nil {
		if !req.AccountType.Valid() {
			return nil, &domain.ErrValidation{Field: "accountType", Message: "unknown account type " + string(*req.AccountType)}
		}
		fields["accountType"] = *req.AccountType
	}

	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}
	if len(fields) > 0 {
		if err := s.users.Update(ctx, id, fields); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}
	return s.GetUser(ctx, id)
}

// SetStatus changes the account status of a customer.
func (s *UserService) SetStatus(ctx context.Context, id string, status domain.UserStatus) (*domain.User, error) {
	return s.UpdateUser(ctx, id, &domain.UpdateUserRequest{Status: &status})
}

// DeleteUser refuses to delete customers with an order in the last 30 days.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	ctx, span := userTracer.Start(ctx, "UserService.DeleteUser")
	defer span.End()

	u, err := s.GetUser(ctx, id)
	if err != nil {
		return err
	}
	if !u.LastOrderDate.IsZero() && s.now().Sub(u.LastOrderDate.Time) < DeleteGuardWindow {
		return &domain.ErrForbidden{
			Action: "delete user",
			Reason: "Cannot delete user with recent orders (within 30 days)",
		}
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}

// ============================================================
// Loyalty: /v1/users/{id}/loyalty
// ============================================================

func (s *UserService) AwardLoyaltyPoints(ctx context.Context, id string, points int) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.AwardLoyaltyPoints")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id), attribute.Int("points", points))

	if points <= 0 {
		return nil, &domain.ErrValidation{Field: "points", Message: "Points must be positive"}
	}
	return s.changePoints(ctx, id, points)
}

// DeductLoyaltyPoints fails with ErrInsufficientPoints, writing nothing,
// when the balance is lower than points.
func (s *UserService) DeductLoyaltyPoints(ctx context.Context, id string, points int) (*domain.User, error) {
	ctx, span := userTracer.Start(ctx, "UserService.DeductLoyaltyPoints")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", id), attribute.Int("points", points))

	if points <= 0 {
		return nil, &domain.ErrValidation{Field: "points", Message: "Points must be positive"}
	}
	return s.changePoints(ctx, id, -points)
}

func (s *UserService) changePoints(ctx context.Context, id string, delta int) (*domain.User, error) {
	var updated *domain.User
	err := withOptimisticRetry(ctx, s.retry, "user", func() error {
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return err
		}
		balance := u.LoyaltyPoints + delta
		if balance < 0 {
			return &domain.ErrInsufficientPoints{Available: u.LoyaltyPoints, Required: -delta}
		}
		tier := domain.TierForPoints(balance)
		err = s.users.UpdateVersioned(ctx, id, u.Version, map[string]any{
			"loyaltyPoints":  balance,
			"membershipTier": tier,
		})
		if err != nil {
			if errors.Is(err, port.ErrConflict) {
				s.logger.Debug("loyalty update lost a race, retrying", zap.String("user_id", id))
			}
			return err
		}
		if tier != u.MembershipTier {
			s.logger.Info("membership tier changed",
				zap.String("user_id", id),
				zap.String("from", string(u.MembershipTier)),
				zap.String("to", string(tier)),
			)
		}
		u.LoyaltyPoints = balance
		u.MembershipTier = tier
		u.Version++
		updated = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordOrder folds a new order into the customer's running statistics.
func (s *UserService) RecordOrder(ctx context.Context, id string, total float64) error {
	ctx, span := userTracer.Start(ctx, "UserService.RecordOrder")
	defer span.End()

	return withOptimisticRetry(ctx, s.retry, "user", func() error {
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return err
		}
		orders := u.TotalOrders + 1
		spent := u.TotalSpent + total
		now := domain.NewTimestamp(s.now())
		return s.users.UpdateVersioned(ctx, id, u.Version, map[string]any{
			"totalOrders":       orders,
			"totalSpent":        spent,
			"averageOrderValue": spent / float64(orders),
			"lastOrderDate":     now,
			"lastActiveDate":    now,
		})
	})
}

// ============================================================
// Preferences: /v1/users/{id}/preferences
// ============================================================

// DefaultPreferences is returned for users who never saved any.
func DefaultPreferences() *domain.UserPreferences {
	return &domain.UserPreferences{
		Favorites:     []string{},
		Notifications: domain.NotificationSettings{Email: true, Push: true},
	}
}

func (s *UserService) GetPreferences(ctx context.Context, userID string) (*domain.UserPreferences, error) {
	ctx, span := userTracer.Start(ctx, "UserService.GetPreferences")
	defer span.End()

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	p, err := s.prefs.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		p = DefaultPreferences()
		p.ID = userID
	}
	return p, nil
}

func (s *UserService) SavePreferences(ctx context.Context, userID string, p *domain.UserPreferences) (*domain.UserPreferences, error) {
	ctx, span := userTracer.Start(ctx, "UserService.SavePreferences")
	defer span.End()

	if _, err := s.GetUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.prefs.Save(ctx, userID, p); err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}
	return s.GetPreferences(ctx, userID)
}

func (s *UserService) AddFavorite(ctx context.Context, userID, productID string) error {
	ctx, span := userTracer.Start(ctx, "UserService.AddFavorite")
	defer span.End()

	if productID == "" {
		return &domain.ErrValidation{Field: "productId", Message: "Product id is required"}
	}
	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.prefs.AddFavorite(ctx, userID, productID)
}

func (s *UserService) RemoveFavorite(ctx context.Context, userID, productID string) error {
	ctx, span := userTracer.Start(ctx, "UserService.RemoveFavorite")
	defer span.End()

	if _, err := s.GetUser(ctx, userID); err != nil {
		return err
	}
	return s.prefs.RemoveFavorite(ctx, userID, productID)
}
