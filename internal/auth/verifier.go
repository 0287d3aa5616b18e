package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

const defaultLeeway = 30 * time.Second

// Verifier validates signed JWTs and returns their subject.
type Verifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
}

// NewVerifier builds a verifier. When jwksURL is set, keys are fetched from it
// and asymmetric algorithms are accepted; otherwise tokens must be HS256
// signed with secret.
func NewVerifier(secret, jwksURL string) (*Verifier, error) {
	jwksURL = strings.TrimSpace(jwksURL)
	if jwksURL != "" {
		keyProvider, err := keyfunc.NewDefault([]string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("auth: init JWKS keyfunc: %w", err)
		}
		return &Verifier{
			keyfunc: keyProvider.Keyfunc,
			parser: jwt.NewParser(
				jwt.WithLeeway(defaultLeeway),
				jwt.WithExpirationRequired(),
				jwt.WithValidMethods([]string{
					jwt.SigningMethodRS256.Name,
					jwt.SigningMethodRS384.Name,
					jwt.SigningMethodRS512.Name,
					jwt.SigningMethodES256.Name,
				}),
			),
		}, nil
	}

	if secret == "" {
		return nil, errors.New("auth: a JWT secret or JWKS URL is required")
	}
	key := []byte(secret)
	return &Verifier{
		keyfunc: func(*jwt.Token) (any, error) { return key, nil },
		parser: jwt.NewParser(
			jwt.WithLeeway(defaultLeeway),
			jwt.WithExpirationRequired(),
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		),
	}, nil
}

// Verify parses tokenString and returns its sub claim.
func (v *Verifier) Verify(tokenString string) (string, error) {
	token, err := v.parser.Parse(tokenString, v.keyfunc)
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	sub, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("read sub: %w", err)
	}
	if strings.TrimSpace(sub) == "" {
		return "", errors.New("token missing sub")
	}
	return sub, nil
}
