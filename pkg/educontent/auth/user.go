// Package auth is the identity provider of the content service: it stores
// users, hashes passwords with bcrypt and issues HS256 tokens that resolve
// to an educontent.Actor on every request.
package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/edu-content/pkg/educontent"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// User is a registered account.
type User struct {
	ID           uuid.UUID       `json:"id"`
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PasswordHash string          `json:"-"`
	Role         educontent.Role `json:"role"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// Actor returns the actor the user acts as.
func (u *User) Actor() *educontent.Actor {
	return &educontent.Actor{UserID: u.ID, Role: u.Role}
}

// UserStore persists users. Emails are stored lower-cased and are unique.
type UserStore interface {
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id uuid.UUID) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
}
