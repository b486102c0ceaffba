package customers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

type memStore struct {
	byEmail map[string]*orders.Customer
}

func newMemStore() *memStore {
	return &memStore{byEmail: make(map[string]*orders.Customer)}
}

func (m *memStore) Create(_ context.Context, c *orders.Customer) error {
	if _, ok := m.byEmail[c.Email]; ok {
		return ErrEmailTaken
	}
	cp := *c
	m.byEmail[c.Email] = &cp
	return nil
}

func (m *memStore) ByEmail(_ context.Context, email string) (*orders.Customer, error) {
	c, ok := m.byEmail[email]
	if !ok {
		return nil, orders.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) ByID(_ context.Context, id string) (*orders.Customer, error) {
	for _, c := range m.byEmail {
		if c.ID == id {
			cp := *c
			return &cp, nil
		}
	}
	return nil, orders.ErrNotFound
}

func newTestService() *Service {
	return &Service{
		Store:  newMemStore(),
		Secret: []byte("test-secret"),
		TTL:    time.Hour,
		Log:    zap.NewNop(),
	}
}

func TestRegisterLoginRoundtrip(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	c, err := svc.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)
	assert.NotEqual(t, "correct horse battery", c.PasswordHash)

	token, err := svc.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ParseToken(svc.Secret, token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, claims.CustomerID)
	assert.False(t, claims.Admin)
}

func TestRegisterValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Register(ctx, "", "x@example.com", "longenough")
	assert.ErrorIs(t, err, orders.ErrInvalid)

	_, err = svc.Register(ctx, "Ada", "ada@example.com", "short")
	assert.ErrorIs(t, err, orders.ErrInvalid)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "longenough")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "Other", "ada@example.com", "alsolongenough")
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	_, err := svc.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "ada@example.com", "wrong password")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	_, err := svc.Register(ctx, "Ada", "ada@example.com", "correct horse battery")
	require.NoError(t, err)
	token, err := svc.Login(ctx, "ada@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = ParseToken([]byte("other-secret"), token)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = ParseToken(svc.Secret, token+"x")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = ParseToken(svc.Secret, "not a token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
