package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sg-semilla/semilla-auth/internal/config"
	"github.com/sg-semilla/semilla-auth/internal/db/models"
)

const bearerScheme = "Bearer"

// Claims is the JWT payload. Permissions holds one entry per granted code.
type Claims struct {
	Name        string   `json:"name"`
	Role        string   `json:"role"`
	RoleID      uint     `json:"roleId"`
	Permissions []string `json:"permission"`
	jwt.RegisteredClaims
}

// Token is a signed token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// TokenIssuer signs and parses HS256 tokens.
type TokenIssuer struct {
	secret   []byte
	issuer   string
	audience string
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenIssuer creates an issuer from the JWT settings of cfg. Outside dev
// mode an empty secret or the built-in dev secret is refused.
func NewTokenIssuer(cfg *config.Config) (*TokenIssuer, error) {
	secret := cfg.SigningSecret()

	if !cfg.DevMode && (secret == "" || secret == config.DefaultDevSecret) {
		return nil, ErrSigningSecretRequired
	}

	lifetime := cfg.JWT.Lifetime()
	if lifetime <= 0 {
		lifetime = config.DefaultTokenLifetimeMinutes * time.Minute
	}

	return &TokenIssuer{
		secret:   []byte(secret),
		issuer:   cfg.JWT.Issuer,
		audience: cfg.JWT.Audience,
		lifetime: lifetime,
		now:      time.Now,
	}, nil
}

// Issue signs a token for user embedding codes as its permission claims.
// user.Role must be loaded.
func (t *TokenIssuer) Issue(user *models.User, codes []string) (Token, error) {
	now := t.now()

	claims := Claims{
		Name:        user.Username,
		Role:        user.Role.Name,
		RoleID:      user.RoleID,
		Permissions: codes,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Username,
			ID:        uuid.NewString(),
			Issuer:    t.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
	}

	if t.audience != "" {
		claims.Audience = jwt.ClaimStrings{t.audience}
	}

	if claims.Permissions == nil {
		claims.Permissions = []string{}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return Token{}, fmt.Errorf("failed to sign token: %w", err)
	}

	return Token{Value: signed, ExpiresAt: claims.ExpiresAt.Time}, nil
}

// Parse validates raw and returns its principal. raw may carry a "Bearer " prefix.
func (t *TokenIssuer) Parse(raw string) (*Principal, error) {
	raw = ExtractToken(raw)
	if raw == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	}

	if t.issuer != "" {
		opts = append(opts, jwt.WithIssuer(t.issuer))
	}

	if t.audience != "" {
		opts = append(opts, jwt.WithAudience(t.audience))
	}

	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	principal := NewPrincipal(claims.Subject, claims.Role, claims.RoleID, claims.Permissions)
	principal.TokenID = claims.ID
	principal.ExpiresAt = claims.ExpiresAt.Time

	return principal, nil
}

// ExtractToken strips an optional case-insensitive "Bearer" scheme from an
// Authorization header value.
func ExtractToken(header string) string {
	header = strings.TrimSpace(header)

	if scheme, rest, ok := strings.Cut(header, " "); ok && strings.EqualFold(scheme, bearerScheme) {
		return strings.TrimSpace(rest)
	}

	if strings.EqualFold(header, bearerScheme) {
		return ""
	}

	return header
}
