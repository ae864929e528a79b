// Package auth issues and verifies the bearer tokens Internal Committee
// members use to read complaints.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const MemberKey contextKey = "committeeMember"

const (
	issuer        = "posh-assistant-backend"
	RoleCommittee = "committee"
)

var ErrForbidden = errors.New("token does not grant committee access")

// Claims are the registered JWT claims plus the member's role.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// NewCommitteeToken signs an HS256 token for member valid for ttl.
func NewCommitteeToken(member, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now()
	claims := Claims{
		Role: RoleCommittee,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   member,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

// ParseCommitteeToken verifies the signature, expiry, issuer and role of
// tokenString and returns its claims.
func ParseCommitteeToken(tokenString, secret string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if claims.Role != RoleCommittee || claims.Subject == "" {
		return nil, ErrForbidden
	}
	return claims, nil
}

// WithMember stores the authenticated member ID on ctx.
func WithMember(ctx context.Context, member string) context.Context {
	return context.WithValue(ctx, MemberKey, member)
}

// MemberFrom returns the member ID set by WithMember, or "".
func MemberFrom(ctx context.Context) string {
	m, _ := ctx.Value(MemberKey).(string)
	return m
}
