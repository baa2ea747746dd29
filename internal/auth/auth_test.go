package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123"

func TestTokenManager(t *testing.T) {
	m := NewTokenManager(testSecret, time.Hour, "spotbnb")

	t.Run("IssueAndParse", func(t *testing.T) {
		raw, issued, err := m.Issue(42)
		require.NoError(t, err)
		assert.NotEmpty(t, issued.ID)

		claims, err := m.Parse(raw)
		require.NoError(t, err)
		id, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, int64(42), id)
		assert.Equal(t, issued.ID, claims.ID)
		assert.InDelta(t, time.Hour.Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
		assert.Equal(t, m.TTL(), issued.ExpiresAt.Sub(issued.IssuedAt.Time))
	})

	t.Run("UniqueTokenIDs", func(t *testing.T) {
		_, a, err := m.Issue(1)
		require.NoError(t, err)
		_, b, err := m.Issue(1)
		require.NoError(t, err)
		assert.NotEqual(t, a.ID, b.ID)
	})

	t.Run("Expired", func(t *testing.T) {
		expiring := NewTokenManager(testSecret, time.Minute, "spotbnb")
		raw, _, err := expiring.Issue(1)
		require.NoError(t, err)

		expiring.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
		_, err = expiring.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		raw, _, err := NewTokenManager("another-secret-of-length", time.Hour, "spotbnb").Issue(1)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("WrongIssuer", func(t *testing.T) {
		raw, _, err := NewTokenManager(testSecret, time.Hour, "elsewhere").Issue(1)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("NoneAlgorithmRejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "1",
			ID:        "x",
			Issuer:    "spotbnb",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("BadSubject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "not-a-number",
			ID:        "x",
			Issuer:    "spotbnb",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		require.NoError(t, err)
		_, err = m.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("Garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestPasswords(t *testing.T) {
	hash, err := HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotEqual(t, "password", hash)

	ok, err := CheckPassword(hash, "password")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = CheckPassword(hash, "wrong")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = CheckPassword("not-a-hash", "password")
	assert.Error(t, err)
}
