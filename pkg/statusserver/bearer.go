package statusserver

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const bearerPrefix = "Bearer "

// cancelClaims is a trimmed BearerMD: one run, one secret, no user or
// repository to look up, so only the registered claims matter.
type cancelClaims struct {
	jwt.RegisteredClaims
}

// GenerateCancelToken signs a bearer token an operator can present to
// POST /cancel, valid for ttl from now. Exported so a caller embedding
// statusserver can mint its own tokens without shelling out.
func GenerateCancelToken(secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("statusserver: cannot sign a cancel token without a secret")
	}
	now := time.Now()
	claims := cancelClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "zeta-subset-cancel",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

func (s *Server) verify(token string) error {
	_, err := jwt.ParseWithClaims(token, &cancelClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	return err
}

func parseBearerToken(auth string) (string, bool) {
	if len(auth) <= len(bearerPrefix) || !strings.EqualFold(auth[:len(bearerPrefix)], bearerPrefix) {
		return "", false
	}
	return auth[len(bearerPrefix):], true
}
