package identity

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// User is the operator account. The deployment has exactly one, created by
// EnsureUser; there is no API for managing users.
type User struct {
	ID           string    `json:"id" bson:"id"`
	Username     string    `json:"username" bson:"username"`
	Name         string    `json:"name" bson:"name"`
	PasswordHash string    `json:"-" bson:"hashed_password"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}
