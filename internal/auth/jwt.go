package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Identity is the verified caller resolved from a bearer token.
type Identity struct {
	UserID  string
	Premium bool
}

// Claims defines what is inside the token.
type Claims struct {
	UserID  string `json:"user_id"`
	Premium bool   `json:"premium"`
	jwt.RegisteredClaims
}

// Verifier validates bearer tokens signed with the shared HMAC secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify checks the signature and expiry and returns the caller identity.
func (v *Verifier) Verify(tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return v.secret, nil
	})
	if err != nil {
		return Identity{}, err
	}
	if !token.Valid {
		return Identity{}, errors.New("invalid token")
	}
	if claims.UserID == "" {
		return Identity{}, errors.New("token missing user_id")
	}

	return Identity{UserID: claims.UserID, Premium: claims.Premium}, nil
}

// GenerateToken creates a signed JWT for a user. Used by tooling and tests;
// production tokens come from the identity provider.
func (v *Verifier) GenerateToken(userID string, premium bool, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID:  userID,
		Premium: premium,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}
