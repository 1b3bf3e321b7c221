package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/you/trip-booking/services/account-service/internal/domain"
)

type fakeAccountStore struct {
	byEmail map[string]*domain.Account
	byID    map[string]*domain.Account
}

func newFakeAccountStore() *fakeAccountStore {
	return &fakeAccountStore{
		byEmail: map[string]*domain.Account{},
		byID:    map[string]*domain.Account{},
	}
}

func (s *fakeAccountStore) Create(ctx context.Context, a *domain.Account) error {
	if _, ok := s.byEmail[a.Email]; ok {
		return domain.ErrEmailTaken
	}
	if a.ID == "" {
		a.ID = "acc-" + a.Email
	}
	cp := *a
	s.byEmail[a.Email] = &cp
	s.byID[a.ID] = &cp
	return nil
}

func (s *fakeAccountStore) ByEmail(ctx context.Context, email string) (*domain.Account, error) {
	a, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAccountStore) ByID(ctx context.Context, id string) (*domain.Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeAccountStore) Update(ctx context.Context, a *domain.Account) error {
	cp := *a
	s.byID[a.ID] = &cp
	s.byEmail[a.Email] = &cp
	return nil
}

func newSvc(t *testing.T) (*AccountSvc, *fakeAccountStore) {
	t.Helper()
	t.Setenv("JWT_SECRET", "test-secret")
	store := newFakeAccountStore()
	return NewAccountSvc(store, time.Hour), store
}

func TestRegisterIssuesTokenAndProfile(t *testing.T) {
	svc, _ := newSvc(t)

	a, token, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "a@x.com", a.Email)
	assert.NotEqual(t, "secret1", a.PasswordHash, "password must be stored hashed")
}

func TestRegisterDuplicateEmailConflicts(t *testing.T) {
	svc, store := newSvc(t)

	_, _, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	_, _, err = svc.Register(context.Background(), "a@x.com", "other-pass", "B")
	require.ErrorIs(t, err, domain.ErrEmailTaken)
	assert.Len(t, store.byID, 1, "second registration must not create a second account")
}

func TestLoginWrongPasswordAndUnknownEmailLookAlike(t *testing.T) {
	svc, _ := newSvc(t)

	_, _, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	_, _, errWrongPass := svc.Login(context.Background(), "a@x.com", "nope")
	_, _, errNoAccount := svc.Login(context.Background(), "ghost@x.com", "nope")

	assert.ErrorIs(t, errWrongPass, domain.ErrInvalidCredentials)
	assert.ErrorIs(t, errNoAccount, domain.ErrInvalidCredentials)
}

func TestLoginSuccessReturnsToken(t *testing.T) {
	svc, _ := newSvc(t)

	_, _, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	a, token, err := svc.Login(context.Background(), "a@x.com", "secret1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "A", a.Name)
}

func TestUpdateProfileAppliesOnlySuppliedFields(t *testing.T) {
	svc, _ := newSvc(t)

	a, _, err := svc.Register(context.Background(), "a@x.com", "secret1", "A")
	require.NoError(t, err)

	phone := "555-0100"
	updated, err := svc.UpdateProfile(context.Background(), a.ID, domain.ProfileUpdate{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Name, "unsupplied field keeps old value")
	assert.Equal(t, "555-0100", updated.Phone)
}

func TestUpdateProfileUnknownAccount(t *testing.T) {
	svc, _ := newSvc(t)
	name := "X"
	_, err := svc.UpdateProfile(context.Background(), "missing", domain.ProfileUpdate{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
