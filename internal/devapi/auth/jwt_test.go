package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/homefinder/internal/common"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, issued, err := GenerateToken("user-123", "agent", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	require.Equal(t, "user-123", claims.UserID)
	require.Equal(t, "agent", claims.Role)
	require.Equal(t, issued.ID, claims.ID)
	require.NotEmpty(t, claims.ID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestGenerateToken_UniqueIDs(t *testing.T) {
	t.Parallel()

	_, a, err := GenerateToken("u", "user", []byte("s"), time.Hour)
	require.NoError(t, err)
	_, b, err := GenerateToken("u", "user", []byte("s"), time.Hour)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, _, err := GenerateToken("u1", "user", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.ErrorIs(t, err, common.ErrTokenExpired)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, _, err := GenerateToken("u2", "user", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_Garbage(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not-a-jwt", []byte("s"))
	require.ErrorIs(t, err, common.ErrInvalidToken)

	_, err = ParseToken(strings.Repeat("a.", 2)+"a", []byte("s"))
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_RejectsOtherAlgorithms(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{ID: "j", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
		UserID:           "u",
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestParseToken_MissingUserID(t *testing.T) {
	t.Parallel()

	secret := []byte("s")
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{ID: "j", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	require.ErrorIs(t, err, common.ErrInvalidToken)
}
