package cryptox

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDeriveKey_Deterministic(t *testing.T) {
	a := DeriveKey([]byte("pw"), []byte("salt"))
	b := DeriveKey([]byte("pw"), []byte("salt"))
	c := DeriveKey([]byte("pw"), []byte("other"))

	require.Len(t, a, argonKeyLen)
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
}

func TestDeriveKey_KnownVector(t *testing.T) {
	key := DeriveKey([]byte("secret-password"), []byte("fixed-salt"))
	require.Equal(t, "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39", hex.EncodeToString(key))
}

func TestHashAndVerify(t *testing.T) {
	h := HashPassword([]byte("correct horse"))
	require.True(t, strings.HasPrefix(h, "argon2id$"))

	ok, err := VerifyPassword([]byte("correct horse"), h)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = VerifyPassword([]byte("wrong"), h)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	require.NotEqual(t, HashPassword([]byte("pw")), HashPassword([]byte("pw")))
}

func TestVerifyPassword_Malformed(t *testing.T) {
	for _, h := range []string{"", "plain", "bcrypt$a$b", "argon2id$!!$AAAA", "argon2id$AAAA$!!"} {
		_, err := VerifyPassword([]byte("pw"), h)
		require.ErrorIs(t, err, ErrMalformedHash, h)
	}
}
