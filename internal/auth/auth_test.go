package auth

import (
	"testing"
	"time"

	"ideaboard/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestAuthenticator(t *testing.T, secret string) *Authenticator {
	t.Helper()
	users := map[string]config.UserProfile{
		"Algo_Trading": {Password: "s3cret", BaseDir: "/tmp", BaselineFile: "/tmp/b.py"},
	}
	a, err := NewAuthenticator(config.AuthConfig{JWTSecret: secret, TokenTTL: time.Hour}, users, zap.NewNop())
	require.NoError(t, err)
	return a
}

func TestAuthenticate(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")

	name, err := a.Authenticate("algo_trading", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "algo_trading", name)

	name, err = a.Authenticate("  ALGO_TRADING ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "algo_trading", name)

	_, err = a.Authenticate("algo_trading", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = a.Authenticate("nobody", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestIssueAndParse(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")

	token, expires, err := a.Issue("algo_trading", "session-1")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expires, 5*time.Second)

	claims, err := a.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "algo_trading", claims.Subject)
	assert.Equal(t, "session-1", claims.ID)
}

func TestParse_Rejects(t *testing.T) {
	a := newTestAuthenticator(t, "test-secret")

	t.Run("garbage", func(t *testing.T) {
		_, err := a.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := newTestAuthenticator(t, "another-secret")
		token, _, err := other.Issue("algo_trading", "s")
		require.NoError(t, err)
		_, err = a.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		token, _, err := a.Issue("algo_trading", "s")
		require.NoError(t, err)
		a.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		defer func() { a.now = time.Now }()
		_, err = a.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong algorithm", func(t *testing.T) {
		claims := jwt.MapClaims{"iss": issuer, "sub": "algo_trading", "jti": "s", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = a.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing session id", func(t *testing.T) {
		claims := jwt.MapClaims{"iss": issuer, "sub": "algo_trading", "exp": time.Now().Add(time.Hour).Unix()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)
		_, err = a.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewAuthenticator_RandomSecret(t *testing.T) {
	a := newTestAuthenticator(t, "")
	assert.NotEmpty(t, a.secret)

	token, _, err := a.Issue("algo_trading", "s")
	require.NoError(t, err)
	_, err = a.Parse(token)
	assert.NoError(t, err)
}
