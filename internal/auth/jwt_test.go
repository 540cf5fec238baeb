package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignVerify(t *testing.T) {
	svc := NewService([]byte("secret"), time.Hour)

	token, err := svc.Sign("ops")
	require.NoError(t, err)

	claims, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestSign_EmptySubject(t *testing.T) {
	_, err := NewService([]byte("secret"), time.Hour).Sign("")
	require.ErrorIs(t, err, ErrEmptySubject)
}

func TestVerify_Rejects(t *testing.T) {
	svc := NewService([]byte("secret"), time.Hour)
	good, err := svc.Sign("ops")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := NewService([]byte("other"), time.Hour).Verify(good)
		require.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := NewService([]byte("secret"), time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Verify(good)
		require.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Verify("not-a-token")
		require.Error(t, err)
	})

	t.Run("unsigned", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
			Role:             RoleAdmin,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = svc.Verify(raw)
		require.Error(t, err)
	})

	t.Run("missing role", func(t *testing.T) {
		tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
			RegisteredClaims: jwt.RegisteredClaims{Subject: "ops", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		})
		raw, err := tok.SignedString([]byte("secret"))
		require.NoError(t, err)
		_, err = svc.Verify(raw)
		require.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
	})
}
