// Package auth resolves the board owner of a request from its bearer token.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/keyfunc"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/kandev/kanban/internal/common/config"
	"github.com/kandev/kanban/internal/common/logger"
)

// clockSkew is the leeway in seconds applied to exp and nbf.
const clockSkew = 60

var (
	ErrMissingAuthorization = errors.New("missing authorization header")
	ErrBadAuthorization     = errors.New("bad auth header")
	ErrNotConfigured        = errors.New("token verification not configured")
)

// Verifier checks HS256 tokens against a shared secret, or RS256 tokens
// against a JWKS endpoint when one is configured.
type Verifier struct {
	jwks     *keyfunc.JWKS
	secret   []byte
	audience string
	issuer   string
	parser   *jwt.Parser
}

// NewVerifier builds a verifier from config. With neither a JWKS URL nor a
// secret it returns a verifier that rejects every token.
func NewVerifier(cfg config.AuthConfig, log *logger.Logger) (*Verifier, error) {
	v := &Verifier{audience: cfg.Audience, issuer: cfg.Issuer}
	switch {
	case cfg.JWKSURL != "":
		jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
			RefreshInterval:   time.Hour,
			RefreshRateLimit:  5 * time.Minute,
			RefreshUnknownKID: true,
			RefreshErrorHandler: func(err error) {
				log.Warn("JWKS refresh failed", zap.String("url", cfg.JWKSURL), zap.Error(err))
			},
		})
		if err != nil {
			return nil, fmt.Errorf("jwks: %w", err)
		}
		v.jwks = jwks
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation())
	case cfg.JWTSecret != "":
		v.secret = []byte(cfg.JWTSecret)
		v.parser = jwt.NewParser(jwt.WithValidMethods([]string{"HS256"}), jwt.WithoutClaimsValidation())
	}
	return v, nil
}

// NewJWKSVerifier wraps an already loaded key set.
func NewJWKSVerifier(jwks *keyfunc.JWKS, audience, issuer string) *Verifier {
	return &Verifier{
		jwks:     jwks,
		audience: audience,
		issuer:   issuer,
		parser:   jwt.NewParser(jwt.WithValidMethods([]string{"RS256"}), jwt.WithoutClaimsValidation()),
	}
}

// Close stops the JWKS background refresh.
func (v *Verifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}

// Enabled reports whether tokens can be verified at all.
func (v *Verifier) Enabled() bool {
	return v.parser != nil
}

// OwnerID verifies token and returns its subject.
func (v *Verifier) OwnerID(token string) (string, error) {
	if !v.Enabled() {
		return "", ErrNotConfigured
	}
	if token == "" || strings.Count(token, ".") != 2 {
		return "", ErrBadAuthorization
	}

	parsed, err := v.parser.Parse(token, v.key)
	if err != nil {
		return "", err
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.New("invalid claims")
	}

	now := time.Now().Unix()
	if !claims.VerifyExpiresAt(now-clockSkew, true) {
		return "", errors.New("token expired")
	}
	if !claims.VerifyNotBefore(now+clockSkew, false) {
		return "", errors.New("token not valid yet")
	}
	if v.audience != "" && !claims.VerifyAudience(v.audience, true) {
		return "", errors.New("invalid audience")
	}
	if v.issuer != "" && !claims.VerifyIssuer(v.issuer, true) {
		return "", errors.New("invalid issuer")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", errors.New("missing sub")
	}
	return sub, nil
}

func (v *Verifier) key(t *jwt.Token) (interface{}, error) {
	if v.jwks != nil {
		return v.jwks.Keyfunc(t)
	}
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errors.New("invalid signing method")
	}
	return v.secret, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(h string) (string, error) {
	if h == "" {
		return "", ErrMissingAuthorization
	}
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", ErrBadAuthorization
	}
	return strings.TrimSpace(token), nil
}

const ownerKey = "owner_id"

// Middleware sets the owner id on the gin and request contexts. Requests
// without credentials get cfg.AnonymousOwner unless cfg.Required is set.
// Browsers cannot set headers on WebSocket upgrades, so an access_token
// query parameter is accepted as well.
func Middleware(v *Verifier, cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("Authorization")
		var token string
		var err error
		if raw != "" {
			token, err = BearerToken(raw)
		} else {
			token = c.Query("access_token")
		}

		var owner string
		switch {
		case err != nil:
		case token != "":
			owner, err = v.OwnerID(token)
		case cfg.Required:
			err = ErrMissingAuthorization
		default:
			owner = cfg.AnonymousOwner
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		c.Set(ownerKey, owner)
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), logger.OwnerIDKey, owner))
		c.Next()
	}
}

// OwnerID returns the owner set by Middleware.
func OwnerID(c *gin.Context) string {
	return c.GetString(ownerKey)
}
