package domain

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("account not found")
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Account struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;size:255"`
	PasswordHash string
	Name         string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public view; the credential hash never leaves the service.
type Profile struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

func (a *Account) Profile() Profile {
	return Profile{ID: a.ID, Email: a.Email, Name: a.Name, Phone: a.Phone}
}

// ProfileUpdate applies only the supplied fields.
type ProfileUpdate struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}
