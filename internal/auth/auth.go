package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"ideaboard/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrInvalidToken       = errors.New("invalid or expired session token")
)

const issuer = "ideaboard"

// Claims carried by a session token. The JWT ID is the session id.
type Claims struct {
	jwt.RegisteredClaims
}

// Authenticator checks logins against the configured user profiles and
// issues HS256 session tokens.
type Authenticator struct {
	users  map[string]config.UserProfile
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewAuthenticator(cfg config.AuthConfig, users map[string]config.UserProfile, logger *zap.Logger) (*Authenticator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	secret := []byte(cfg.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate signing secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("No JWT secret configured, using a random one; sessions will not survive a restart")
	}

	normalized := make(map[string]config.UserProfile, len(users))
	for name, profile := range users {
		normalized[strings.ToLower(name)] = profile
	}

	a := &Authenticator{
		users:  normalized,
		secret: secret,
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
	a.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return a.now() }),
	)
	return a, nil
}

// Authenticate returns the canonical username when the password matches.
func (a *Authenticator) Authenticate(username, password string) (string, error) {
	name := strings.ToLower(strings.TrimSpace(username))
	profile, ok := a.users[name]
	if !ok {
		return "", ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(profile.Password)) != 1 {
		return "", ErrInvalidCredentials
	}
	return name, nil
}

// Issue signs a token binding username to sessionID.
func (a *Authenticator) Issue(username, sessionID string) (string, time.Time, error) {
	now := a.now()
	expires := now.Add(a.ttl)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   username,
		ID:        sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse validates a token and returns its claims.
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := a.parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" || claims.ID == "" {
		return nil, fmt.Errorf("%w: missing subject or session", ErrInvalidToken)
	}
	return claims, nil
}
