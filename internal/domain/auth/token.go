package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify a portal user. Tokens are issued by the portal's identity
// provider; this service only verifies them.
type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Name     string `json:"name"`
	RoleName string `json:"role"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrNoSubject    = errors.New("token has no user id")
)

// clockSkew tolerates small drift between the identity provider and this host.
const clockSkew = 30 * time.Second

// GenerateToken signs claims with HS256. The portal only issues tokens in
// tests and local tooling.
func GenerateToken(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	if claims.Subject == "" {
		claims.Subject = claims.UserID
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func ParseToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return []byte(secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(clockSkew),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrNoSubject
	}
	return claims, nil
}

// User converts verified claims into the request identity.
func (c *Claims) User() UserContext {
	return UserContext{
		UserID:   c.UserID,
		Email:    c.Email,
		Name:     c.Name,
		RoleName: c.RoleName,
	}
}

// UserContext is the caller identity attached to a request.
type UserContext struct {
	UserID   string
	Email    string
	Name     string
	RoleName string
}

// Uploader is the identity recorded on bulk upload jobs.
func (u UserContext) Uploader() string {
	if u.Email != "" {
		return u.Email
	}
	return u.UserID
}
