package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/atinyakov/clickshort/internal/storage"
)

// TokenExp is the default lifetime of an admin token.
const TokenExp = 24 * time.Hour

// Claims are the JWT claims of an admin token. The subject is the username.
type Claims struct {
	jwt.RegisteredClaims
	AdminID string `json:"admin_id"`
}

// Auth verifies admin credentials and issues signed, time-limited tokens.
type Auth struct {
	admins AdminStore
	secret []byte
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time
}

func NewAuth(admins AdminStore, secret string, ttl time.Duration, logger *zap.Logger) *Auth {
	if ttl <= 0 {
		ttl = TokenExp
	}
	return &Auth{
		admins: admins,
		secret: []byte(secret),
		ttl:    ttl,
		logger: logger,
		now:    time.Now,
	}
}

// Bootstrap makes sure an admin named username exists. An existing admin
// keeps its password.
func (a *Auth) Bootstrap(ctx context.Context, username, password string) error {
	_, err := a.admins.FindAdmin(ctx, username)
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	err = a.admins.CreateAdmin(ctx, storage.Admin{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    a.now().UTC(),
	})
	if errors.Is(err, storage.ErrConflict) {
		// another instance created it first
		return nil
	}
	if err != nil {
		return err
	}

	a.logger.Info("default admin created", zap.String("username", username))
	return nil
}

// Login checks the credentials and returns a signed token.
func (a *Auth) Login(ctx context.Context, username, password string) (string, error) {
	admin, err := a.admins.FindAdmin(ctx, username)
	if errors.Is(err, storage.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   admin.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		AdminID: admin.ID,
	})

	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", err
	}

	a.logger.Info("admin logged in", zap.String("username", admin.Username))
	return signed, nil
}

// ParseToken verifies the signature, algorithm and expiry of tokenString.
func (a *Auth) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
