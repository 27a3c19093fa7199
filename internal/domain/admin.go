package domain

// AdminRole is the privilege level of a back-office account.
type AdminRole string

const (
	RoleOwner   AdminRole = "owner"
	RoleManager AdminRole = "manager"
	RoleStaff   AdminRole = "staff"
)

func (r AdminRole) Valid() bool {
	switch r {
	case RoleOwner, RoleManager, RoleStaff:
		return true
	}
	return false
}

// Admin is a back-office account.
type Admin struct {
	Meta
	Email        string    `json:"email"`
	DisplayName  string    `json:"displayName"`
	Role         AdminRole `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	Disabled     bool      `json:"disabled"`
	LastLoginAt  Timestamp `json:"lastLoginAt"`
}
