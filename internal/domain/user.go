package domain

import "time"

// User is a marketplace account. Buyers and sellers are companies; admins
// operate the back office.
type User struct {
	UserID        string    `json:"id" dynamodbav:"user_id"`
	Email         string    `json:"email" dynamodbav:"email"`
	PasswordHash  string    `json:"-" dynamodbav:"password_hash"`
	Role          string    `json:"role" dynamodbav:"role"`
	Status        string    `json:"status" dynamodbav:"status"`
	CompanyName   string    `json:"company_name" dynamodbav:"company_name"`
	ContactPerson string    `json:"contact_person" dynamodbav:"contact_person"`
	Phone         string    `json:"phone" dynamodbav:"phone"`
	Address       string    `json:"address" dynamodbav:"address"`
	LogoURL       string    `json:"logo_url,omitempty" dynamodbav:"logo_url"`
	PushEnabled   bool      `json:"push_enabled" dynamodbav:"push_enabled"`
	Enable        bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt     time.Time `json:"updated" dynamodbav:"updated_at"`
}

// IsAdmin reports whether the account may use the back office.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// Account statuses set by the back office.
const (
	UserStatusPending  = "pending"
	UserStatusVerified = "verified"
	UserStatusRejected = "rejected"
	UserStatusActive   = "active"
	UserStatusBlocked  = "blocked"
)

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
