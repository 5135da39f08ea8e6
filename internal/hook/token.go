package hook

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 2 * time.Minute

// Claims identify a webhook notification as originating from the gateway.
type Claims struct {
	SocketID string `json:"socket_id"`
	jwt.RegisteredClaims
}

// Signer mints short-lived HS256 tokens attached to outbound webhook
// requests so the backend can verify their origin.
type Signer struct {
	secret []byte
	issuer string
}

// NewSigner returns nil when no secret is configured; signing is optional.
func NewSigner(secret, issuer string) *Signer {
	if secret == "" {
		return nil
	}
	return &Signer{secret: []byte(secret), issuer: issuer}
}

// Token signs a claim set for one notification.
func (s *Signer) Token(socketID string) (string, error) {
	now := time.Now()
	claims := Claims{
		SocketID: socketID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}
