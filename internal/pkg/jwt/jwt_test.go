package jwt

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "scheduler-jwt-secret"

func signed(t *testing.T, method jwt.SigningMethod, key interface{}, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestRoundTrip(t *testing.T) {
	for _, userID := range []int64{1, 42, 9223372036854775807} {
		token, err := GenerateToken(userID, testSecret, 24)
		require.NoError(t, err)

		claims, err := ParseToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, 5*time.Second)
	}
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken(7, testSecret, 1)
	require.NoError(t, err)

	past := time.Now().Add(-2 * time.Hour)
	expired := signed(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(past),
			ExpiresAt: jwt.NewNumericDate(past.Add(time.Hour)),
		},
	})
	notYet := signed(t, jwt.SigningMethodHS256, []byte(testSecret), Claims{
		UserID: 7,
		RegisteredClaims: jwt.RegisteredClaims{
			NotBefore: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(2 * time.Hour)),
		},
	})
	unsigned := signed(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, Claims{UserID: 7})

	tests := []struct {
		name    string
		token   string
		secret  string
		wantErr error
	}{
		{"wrong secret", valid, "another-secret", ErrInvalidToken},
		{"garbage", "not-a-jwt", testSecret, ErrInvalidToken},
		{"empty", "", testSecret, ErrInvalidToken},
		{"tampered", valid + "x", testSecret, ErrInvalidToken},
		{"expired", expired, testSecret, ErrExpiredToken},
		{"not yet valid", notYet, testSecret, ErrInvalidToken},
		{"alg none", unsigned, testSecret, ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := ParseToken(tt.token, tt.secret)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, claims)
		})
	}
}

func TestGenerateToken_DistinctPerUser(t *testing.T) {
	a, err := GenerateToken(1, testSecret, 24)
	require.NoError(t, err)
	b, err := GenerateToken(2, testSecret, 24)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
