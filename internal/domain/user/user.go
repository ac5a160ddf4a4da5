package user

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"mail"`
	Username     string    `json:"username"`
	AvatarURL    string    `json:"avatarUrl,omitempty"`
	PasswordSalt string    `json:"-"`
	PasswordHash string    `json:"-"` // never expose credentials in JSON
	Token        string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the public view of a user.
type Profile struct {
	ID        string `json:"id"`
	Mail      string `json:"mail"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl,omitempty"`
}

// Session is returned by signup and login; it is the only place the token leaves the server.
type Session struct {
	Profile
	Token string `json:"token"`
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Mail:      u.Email,
		Username:  u.Username,
		AvatarURL: u.AvatarURL,
	}
}

func (u User) Session() Session {
	return Session{Profile: u.Profile(), Token: u.Token}
}

var (
	ErrNotFound   = errors.New("user not found")
	ErrEmailTaken = errors.New("email already registered")
)

type SignUpRequest struct {
	Name     string `json:"name" form:"name" binding:"required,max=80"`
	Mail     string `json:"mail" form:"mail" binding:"required,email,max=254"`
	Password string `json:"password" form:"password" binding:"required,max=128"`
}

type LoginRequest struct {
	Mail     string `json:"mail" form:"mail" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// UpdateProfileRequest carries the text fields of PUT /user/update; the avatar arrives as a file.
type UpdateProfileRequest struct {
	Username *string `json:"username" form:"username" binding:"omitempty,max=80"`
}

// NormalizeEmail makes lookups case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type Credentials struct {
	Salt  string
	Hash  string
	Token string
}

func New(req SignUpRequest, creds Credentials) User {
	now := time.Now().UTC()

	return User{
		ID:           uuid.NewString(),
		Email:        NormalizeEmail(req.Mail),
		Username:     strings.TrimSpace(req.Name),
		PasswordSalt: creds.Salt,
		PasswordHash: creds.Hash,
		Token:        creds.Token,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
