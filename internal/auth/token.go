package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/catalog-admin/catalog-admin/internal/db/models"
	"github.com/catalog-admin/catalog-admin/internal/db/tenant"
)

// TokenType tells access and refresh tokens apart.
type TokenType string

// Token types.
const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

const revokedKeyPrefix = "revoked_jti:"

// Claims of both token types. Permissions are not part of them. Schema is
// the tenant schema the token was issued in.
type Claims struct {
	UserID   uint64    `json:"user_id"`
	Username string    `json:"username"`
	Schema   string    `json:"schema,omitempty"`
	Type     TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenPair is returned on login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// UserLoader loads the user a token was issued for. LocalProvider is one.
type UserLoader interface {
	GetUserByID(ctx context.Context, userID uint64) (*models.User, error)
}

// TokenManager issues and verifies HS256 tokens.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	revoked    fiber.Storage
	users      UserLoader
	now        func() time.Time
}

// NewTokenManager creates a token manager. Revoked refresh token ids are
// kept in revoked until the token would have expired anyway. users is asked
// whether the owner of a token still exists and is active.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration,
	revoked fiber.Storage, users UserLoader,
) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		revoked:    revoked,
		users:      users,
		now:        time.Now,
	}
}

// Issue creates an access and a refresh token for user, bound to the tenant
// schema of ctx.
func (m *TokenManager) Issue(ctx context.Context, user *models.User) (TokenPair, error) {
	schema := tenant.Schema(ctx)

	access, err := m.sign(user.ID, user.Username, schema, AccessToken, m.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}

	refresh, err := m.sign(user.ID, user.Username, schema, RefreshToken, m.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}

	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *TokenManager) sign(userID uint64, username, schema string, typ TokenType, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		Schema:   schema,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", typ, err)
	}

	return signed, nil
}

// Verify checks signature, issuer and expiry of a token of either type.
// Revoked refresh tokens are rejected.
func (m *TokenManager) Verify(token string) (*Claims, error) {
	claims := &Claims{}

	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Type != AccessToken && claims.Type != RefreshToken {
		return nil, ErrWrongTokenType
	}

	if claims.Type == RefreshToken {
		revoked, err := m.isRevoked(claims.ID)
		if err != nil {
			return nil, err
		}

		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	return claims, nil
}

// VerifyAccess is Verify restricted to access tokens.
func (m *TokenManager) VerifyAccess(token string) (*Claims, error) {
	return m.verifyType(token, AccessToken)
}

func (m *TokenManager) verifyType(token string, typ TokenType) (*Claims, error) {
	claims, err := m.Verify(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != typ {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}

// Authorize checks that claims were issued in the tenant schema of ctx and
// that their user still exists and is active. It returns that user.
func (m *TokenManager) Authorize(ctx context.Context, claims *Claims) (*models.User, error) {
	if claims.Schema != tenant.Schema(ctx) {
		return nil, ErrTenantMismatch
	}

	user, err := m.users.GetUserByID(ctx, claims.UserID)
	if errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("%w: user %d no longer exists", ErrInvalidToken, claims.UserID)
	}

	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserAccountDisabled
	}

	return user, nil
}

// Refresh issues a new access token for a valid refresh token whose user
// may still log in.
func (m *TokenManager) Refresh(ctx context.Context, refresh string) (string, error) {
	claims, err := m.verifyType(refresh, RefreshToken)
	if err != nil {
		return "", err
	}

	if _, err = m.Authorize(ctx, claims); err != nil {
		return "", err
	}

	return m.sign(claims.UserID, claims.Username, claims.Schema, AccessToken, m.accessTTL)
}

// Revoke blacklists a refresh token until its expiry.
func (m *TokenManager) Revoke(refresh string) error {
	claims, err := m.verifyType(refresh, RefreshToken)
	if err != nil {
		return err
	}

	ttl := claims.ExpiresAt.Sub(m.now())
	if ttl <= 0 {
		return nil
	}

	if err = m.revoked.Set(revokedKeyPrefix+claims.ID, []byte(claims.Subject), ttl); err != nil {
		return fmt.Errorf("failed to store revoked token: %w", err)
	}

	return nil
}

func (m *TokenManager) isRevoked(jti string) (bool, error) {
	if jti == "" {
		return false, ErrInvalidToken
	}

	val, err := m.revoked.Get(revokedKeyPrefix + jti)
	if err != nil && !errors.Is(err, fiber.ErrNotFound) {
		return false, fmt.Errorf("failed to read revoked tokens: %w", err)
	}

	return len(val) > 0, nil
}
