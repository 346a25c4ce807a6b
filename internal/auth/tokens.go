package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/shelfside/shelfside/internal/domain"
	"github.com/shelfside/shelfside/internal/id"
)

const (
	tokenIssuer   = "shelfside-server"
	tokenAudience = "shelfside-client"
)

// ErrInvalidToken is returned for tokens that fail decryption or validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// AccessClaims are the claims carried by an encrypted v4.local access token.
type AccessClaims struct {
	UserID     string      `json:"user_id"`
	Name       string      `json:"name"`
	Role       domain.Role `json:"role"`
	Issuer     string      `json:"iss"`
	Subject    string      `json:"sub"`
	Audience   string      `json:"aud"`
	Expiration time.Time   `json:"exp"`
	NotBefore  time.Time   `json:"nbf"`
	IssuedAt   time.Time   `json:"iat"`
	TokenID    string      `json:"jti"`
}

// IsAdmin reports whether the token was issued to an administrator.
func (c *AccessClaims) IsAdmin() bool {
	return c.Role == domain.RoleAdmin
}

// TokenService issues and verifies access tokens.
type TokenService struct {
	key      paseto.V4SymmetricKey
	lifetime time.Duration
	now      func() time.Time
}

// NewTokenService creates a token service from a 32-byte symmetric key.
func NewTokenService(key []byte, lifetime time.Duration) (*TokenService, error) {
	if len(key) != keySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", keySize, len(key))
	}
	if lifetime <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}

	k, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("build paseto key: %w", err)
	}
	return &TokenService{key: k, lifetime: lifetime, now: time.Now}, nil
}

// Lifetime returns how long issued tokens stay valid.
func (s *TokenService) Lifetime() time.Duration { return s.lifetime }

// Issue returns a new access token for user and its expiry time.
func (s *TokenService) Issue(user *domain.User) (string, time.Time, error) {
	now := s.now()
	expires := now.Add(s.lifetime)

	jti, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token id: %w", err)
	}

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetAudience(tokenAudience)
	token.SetSubject(user.ID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)
	token.SetJti(jti)
	for k, v := range map[string]string{"user_id": user.ID, "name": user.Name, "role": string(user.Role)} {
		if err := token.Set(k, v); err != nil {
			return "", time.Time{}, fmt.Errorf("set %s claim: %w", k, err)
		}
	}

	return token.V4Encrypt(s.key, nil), expires, nil
}

// Verify decrypts token and validates issuer, audience and validity window.
func (s *TokenService) Verify(token string) (*AccessClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	parsed, err := parser.ParseV4Local(s.key, token, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(parsed.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: decode claims: %w", ErrInvalidToken, err)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user", ErrInvalidToken)
	}
	return &claims, nil
}
