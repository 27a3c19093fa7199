package domain

import "strings"

// ============================================================
// Users & loyalty
// ============================================================

// UserStatus is the account state of a customer.
type UserStatus string

const (
	UserActive              UserStatus = "active"
	UserInactive            UserStatus = "inactive"
	UserSuspended           UserStatus = "suspended"
	UserPendingVerification UserStatus = "pending_verification"
)

// Valid reports whether s is a known status.
func (s UserStatus) Valid() bool {
	switch s {
	case UserActive, UserInactive, UserSuspended, UserPendingVerification:
		return true
	}
	return false
}

// AccountType is the commercial plan of a customer.
type AccountType string

const (
	AccountRegular AccountType = "regular"
	AccountPremium AccountType = "premium"
	AccountVIP     AccountType = "vip"
)

func (a AccountType) Valid() bool {
	switch a {
	case AccountRegular, AccountPremium, AccountVIP:
		return true
	}
	return false
}

// MembershipTier is derived from loyalty points, never set directly.
type MembershipTier string

const (
	TierBronze   MembershipTier = "bronze"
	TierSilver   MembershipTier = "silver"
	TierGold     MembershipTier = "gold"
	TierPlatinum MembershipTier = "platinum"
)

func (t MembershipTier) Valid() bool {
	switch t {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return true
	}
	return false
}

// Loyalty tier thresholds (inclusive lower bounds).
const (
	SilverThreshold   = 2500
	GoldThreshold     = 5000
	PlatinumThreshold = 10000
)

// TierForPoints maps a loyalty balance to its tier. Monotonic in points.
func TierForPoints(points int) MembershipTier {
	switch {
	case points >= PlatinumThreshold:
		return TierPlatinum
	case points >= GoldThreshold:
		return TierGold
	case points >= SilverThreshold:
		return TierSilver
	default:
		return TierBronze
	}
}

// User is a customer of the shop.
type User struct {
	Meta
	Email             string         `json:"email"`
	DisplayName       string         `json:"displayName"`
	PhoneNumber       string         `json:"phoneNumber,omitempty"`
	Status            UserStatus     `json:"status"`
	AccountType       AccountType    `json:"accountType"`
	MembershipTier    MembershipTier `json:"membershipTier"`
	LoyaltyPoints     int            `json:"loyaltyPoints"`
	TotalOrders       int            `json:"totalOrders"`
	TotalSpent        float64        `json:"totalSpent"`
	AverageOrderValue float64        `json:"averageOrderValue"`
	LastOrderDate     Timestamp      `json:"lastOrderDate"`
	JoinDate          Timestamp      `json:"joinDate"`
	LastActiveDate    Timestamp      `json:"lastActiveDate"`
}

// UserFilter narrows ListUsers. Empty fields are ignored.
type UserFilter struct {
	Status         UserStatus
	AccountType    AccountType
	MembershipTier MembershipTier
	Search         string
}

// Matches applies every set criterion. Search is a case-insensitive
// substring match over email and display name.
func (f UserFilter) Matches(u *User) bool {
	if f.Status != "" && u.Status != f.Status {
		return false
	}
	if f.AccountType != "" && u.AccountType != f.AccountType {
		return false
	}
	if f.MembershipTier != "" && u.MembershipTier != f.MembershipTier {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(u.Email), q) &&
			!strings.Contains(strings.ToLower(u.DisplayName), q) {
			return false
		}
	}
	return true
}

// CreateUserRequest is the body for POST /v1/users.
type CreateUserRequest struct {
	Email       string      `json:"email"`
	DisplayName string      `json:"displayName"`
	PhoneNumber string      `json:"phoneNumber,omitempty"`
	AccountType AccountType `json:"accountType,omitempty"`
}

// UpdateUserRequest is the body for PUT /v1/users/{id}. Nil fields are untouched.
type UpdateUserRequest struct {
	DisplayName *string      `json:"displayName,omitempty"`
	PhoneNumber *string      `json:"phoneNumber,omitempty"`
	Status      *UserStatus  `json:"status,omitempty"`
	AccountType *AccountType `json:"accountType,omitempty"`
}

// LoyaltyRequest is the body for the award/deduct endpoints.
type LoyaltyRequest struct {
	Points int    `json:"points"`
	Reason string `json:"reason,omitempty"`
}
