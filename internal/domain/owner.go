package domain

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleStudent    Role = "student"
	RoleTA         Role = "ta"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
)

// CanManageLabs reports whether the role may create, edit and see solutions of labs.
func (r Role) CanManageLabs() bool {
	return r == RoleInstructor || r == RoleAdmin
}

// Valid reports whether the role may be chosen at signup.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTA, RoleInstructor:
		return true
	}
	return false
}

type Users struct {
	ID           uuid.UUID  `db:"id" json:"user_id"`
	UserName     string     `db:"user_name" json:"username"`
	Email        string     `db:"email" json:"email"`
	FullName     string     `db:"full_name" json:"full_name"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Role         Role       `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"is_active"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastLogin    *time.Time `db:"last_login" json:"last_login,omitempty"`
}

type UsersTable struct {
	ID           string
	UserName     string
	Email        string
	FullName     string
	PasswordHash string
	Role         string
	IsActive     string
	CreatedAt    string
	LastLogin    string
}

func GetUserTable() UsersTable {
	return UsersTable{
		ID:           "id",
		UserName:     "user_name",
		Email:        "email",
		FullName:     "full_name",
		PasswordHash: "password_hash",
		Role:         "role",
		IsActive:     "is_active",
		CreatedAt:    "created_at",
		LastLogin:    "last_login",
	}
}

func (t UsersTable) GetTableName() string {
	return "users"
}

func (t UsersTable) Columns() []string {
	return []string{
		t.ID, t.UserName, t.Email, t.FullName, t.PasswordHash,
		t.Role, t.IsActive, t.CreatedAt, t.LastLogin,
	}
}
