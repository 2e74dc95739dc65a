package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type contextKey string

const UsernameKey contextKey = "username"

// QueryTokenParam is the query parameter read on routes listed in
// JWTConfig.QueryTokenPaths.
const QueryTokenParam = "token"

type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"name,omitempty"`
}

// Issuer signs and verifies HS256 session tokens.
type Issuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{key: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a token whose subject is username.
func (i *Issuer) Issue(username, name string) (string, error) {
	now := i.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		Name: name,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

func (i *Issuer) Verify(tokenStr string) (*Claims, error) {
	return ParseToken(tokenStr, i.key)
}

// ParseToken validates signature, expiry and subject.
func ParseToken(tokenStr string, key []byte) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return claims, nil
}

type JWTConfig struct {
	SigningKey []byte
	// Skipper bypasses authentication when it returns true.
	Skipper func(c echo.Context) bool
	// QueryTokenPaths are route paths (as registered with echo) that also
	// accept the token as ?token=, for links opened outside the app.
	QueryTokenPaths []string
}

func JWTMiddleware(cfg JWTConfig) echo.MiddlewareFunc {
	queryPaths := make(map[string]bool, len(cfg.QueryTokenPaths))
	for _, p := range cfg.QueryTokenPaths {
		queryPaths[p] = true
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper != nil && cfg.Skipper(c) {
				return next(c)
			}

			tokenStr, err := extractToken(c, queryPaths[c.Path()])
			if err != nil {
				return err
			}

			claims, err := ParseToken(tokenStr, cfg.SigningKey)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			ctx := context.WithValue(c.Request().Context(), UsernameKey, claims.Subject)
			c.SetRequest(c.Request().WithContext(ctx))
			c.Set(string(UsernameKey), claims.Subject)

			return next(c)
		}
	}
}

// extractToken prefers the Authorization header and falls back to the query
// parameter when allowQuery is set.
func extractToken(c echo.Context, allowQuery bool) (string, error) {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader == "" {
		if allowQuery {
			if t := c.QueryParam(QueryTokenParam); t != "" {
				return t, nil
			}
		}
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return strings.TrimSpace(parts[1]), nil
}

func UsernameFromContext(ctx context.Context) string {
	u, _ := ctx.Value(UsernameKey).(string)
	return u
}
