package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Resham8/SketchFlow/internal/domain"
)

// Verifier checks HMAC-signed handshake tokens and extracts the user
// identity. Token issuance lives in the account service; the relay only
// verifies.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and verifies a token and returns the user id from its
// claims. The issuing service writes the id to a "userId" claim; the
// standard "sub" claim is accepted as a fallback. Any verification failure,
// malformed payload, or missing identity claim yields ErrInvalidToken.
func (v *Verifier) Verify(token string) (string, error) {
	if token == "" {
		return "", domain.ErrInvalidToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", domain.ErrInvalidToken
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", domain.ErrInvalidToken
	}

	if userID, ok := claims["userId"].(string); ok && userID != "" {
		return userID, nil
	}
	if sub, ok := claims["sub"].(string); ok && sub != "" {
		return sub, nil
	}
	return "", domain.ErrInvalidToken
}
