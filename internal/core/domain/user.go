package domain

import (
	"errors"
	"time"
)

// UserRole determines which API operations a staff member may invoke.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleManager  UserRole = "MANAGER"
	RoleSalesRep UserRole = "SALES_REP"
	RoleSupport  UserRole = "SUPPORT"
)

// ParseUserRole converts a string to a UserRole.
func ParseUserRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleAdmin, RoleManager, RoleSalesRep, RoleSupport:
		return UserRole(s), nil
	}
	return "", errors.New("invalid user role")
}

// UserStatus represents whether a staff member may log in.
type UserStatus string

const (
	UserActive   UserStatus = "ACTIVE"
	UserInactive UserStatus = "INACTIVE"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserNameExists = errors.New("username already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")

// User models a staff member. ManagerID is a weak reference: deleting the
// manager clears the reference on subordinates, it never cascades.
type User struct {
	ID           string     `json:"id"`
	UserName     string     `json:"user_name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"-"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Role         UserRole   `json:"role"`
	Status       UserStatus `json:"status"`
	ManagerID    string     `json:"manager_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
