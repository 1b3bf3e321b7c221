package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/you/trip-booking/pkg/auth"
	"github.com/you/trip-booking/services/account-service/internal/domain"
)

type AccountStore interface {
	Create(ctx context.Context, a *domain.Account) error
	ByEmail(ctx context.Context, email string) (*domain.Account, error)
	ByID(ctx context.Context, id string) (*domain.Account, error)
	Update(ctx context.Context, a *domain.Account) error
}

type AccountSvc struct {
	repo     AccountStore
	tokenTTL time.Duration
}

func NewAccountSvc(repo AccountStore, tokenTTL time.Duration) *AccountSvc {
	return &AccountSvc{repo: repo, tokenTTL: tokenTTL}
}

// Register creates the account and issues a session token in one shot.
func (s *AccountSvc) Register(ctx context.Context, email, password, name string) (*domain.Account, string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	a := &domain.Account{Email: email, PasswordHash: string(hash), Name: name}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, "", err
	}
	token, err := auth.CreateAccessToken(a.ID, a.Email, a.Name, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return a, token, nil
}

// Login returns ErrInvalidCredentials for both an unknown email and a
// bad password; callers cannot tell which accounts exist.
func (s *AccountSvc) Login(ctx context.Context, email, password string) (*domain.Account, string, error) {
	a, err := s.repo.ByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)) != nil {
		return nil, "", domain.ErrInvalidCredentials
	}
	token, err := auth.CreateAccessToken(a.ID, a.Email, a.Name, s.tokenTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign token: %w", err)
	}
	return a, token, nil
}

func (s *AccountSvc) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.repo.ByID(ctx, accountID)
}

func (s *AccountSvc) UpdateProfile(ctx context.Context, accountID string, upd domain.ProfileUpdate) (*domain.Account, error) {
	a, err := s.repo.ByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		a.Name = *upd.Name
	}
	if upd.Phone != nil {
		a.Phone = *upd.Phone
	}
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, fmt.Errorf("update account: %w", err)
	}
	return a, nil
}
