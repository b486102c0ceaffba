package customers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mehmetsahinnn/OrderTrackingSystem/internal/orders"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type Service struct {
	Store  Store
	Secret []byte
	TTL    time.Duration
	Log    *zap.Logger
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*orders.Customer, error) {
	if name == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%w: name, email and a password of 8+ chars required", orders.ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	c := &orders.Customer{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.Store.Create(ctx, c); err != nil {
		return nil, err
	}
	s.Log.Info("customer registered", zap.String("customer_id", c.ID))
	return c, nil
}

// Login verifies the password and issues a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	c, err := s.Store.ByEmail(ctx, email)
	if errors.Is(err, orders.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": c.ID,
		"adm": c.Admin,
		"iat": now.Unix(),
		"exp": now.Add(s.TTL).Unix(),
	})
	signed, err := tok.SignedString(s.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ParseToken validates a bearer token and returns the caller's claims.
func ParseToken(secret []byte, token string) (orders.Claims, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		return orders.Claims{}, ErrInvalidCredentials
	}
	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return orders.Claims{}, ErrInvalidCredentials
	}
	sub, _ := mc["sub"].(string)
	if sub == "" {
		return orders.Claims{}, ErrInvalidCredentials
	}
	adm, _ := mc["adm"].(bool)
	return orders.Claims{CustomerID: sub, Admin: adm}, nil
}
