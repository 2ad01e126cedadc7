// Package session mints and verifies the stateless bearer tokens handed out on login.
package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrTokenExpired = errors.New("Token expired")
	ErrInvalidToken = errors.New("Invalid token")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

func (c Claims) SubjectID() string { return c.Subject }

type Issuer struct {
	key      []byte
	validity time.Duration
	name     string
}

func NewIssuer(secretKey string, validity time.Duration, name string) *Issuer {
	return &Issuer{key: []byte(secretKey), validity: validity, name: name}
}

func (iss *Issuer) Validity() time.Duration { return iss.validity }

// Mint signs a token for subjectID carrying role.
func (iss *Issuer) Mint(subjectID, role string) (string, time.Time, error) {
	now := NowFunc()
	exp := now.Add(iss.validity)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    iss.name,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
		Role: role,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString(iss.key)
	if err != nil {
		return "", time.Time{}, errors.Wrap(err, "signing token")
	}
	return ss, exp, nil
}

// Verify checks signature and expiry; failures are ErrTokenExpired or ErrInvalidToken.
func (iss *Issuer) Verify(tokenStr string) (*Claims, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(
		tokenStr, claims,
		func(token *jwt.Token) (interface{}, error) { return iss.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(NowFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
