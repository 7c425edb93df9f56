package auth_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/internal/auth"
)

// cheapArgon keeps the tests fast; production uses DefaultArgon2idParams.
var cheapArgon = auth.Argon2idParams{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestArgon2idHasher_HashVerify(t *testing.T) {
	h := auth.NewArgon2idHasher(cheapArgon)

	encoded, err := h.Hash("Secret1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.True(t, h.Recognizes(encoded))

	ok, err := h.Verify(encoded, "Secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "secret1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2idHasher_SaltedHashesDiffer(t *testing.T) {
	h := auth.NewArgon2idHasher(cheapArgon)

	a, err := h.Hash("Secret1")
	require.NoError(t, err)
	b, err := h.Hash("Secret1")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestArgon2idHasher_Verify_Malformed(t *testing.T) {
	h := auth.NewArgon2idHasher(cheapArgon)

	_, err := h.Verify("$argon2id$v=19$garbage", "x")

	assert.Error(t, err)
}

func TestBcryptHasher_HashVerify(t *testing.T) {
	h := auth.NewBcryptHasher(4)

	encoded, err := h.Hash("Secret1")
	require.NoError(t, err)
	assert.True(t, h.Recognizes(encoded))

	ok, err := h.Verify(encoded, "Secret1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.Verify(encoded, "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

// PHP's password_hash writes "$2y$" hashes; they must still verify.
func TestBcryptHasher_Verify_PHPVariant(t *testing.T) {
	h := auth.NewBcryptHasher(4)
	encoded, err := h.Hash("Secret1")
	require.NoError(t, err)
	phpStyle := "$2y$" + encoded[4:]

	ok, err := h.Verify(phpStyle, "Secret1")

	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMultiHasher_VerifiesEitherFormat(t *testing.T) {
	argon := auth.NewArgon2idHasher(cheapArgon)
	bc := auth.NewBcryptHasher(4)
	m := auth.NewMultiHasher(argon, bc)

	fromPrimary, err := m.Hash("Secret1")
	require.NoError(t, err)
	assert.True(t, argon.Recognizes(fromPrimary), "primary hasher should produce new hashes")

	legacy, err := bc.Hash("Secret1")
	require.NoError(t, err)

	for _, encoded := range []string{fromPrimary, legacy} {
		ok, err := m.Verify(encoded, "Secret1")
		require.NoError(t, err)
		assert.True(t, ok)
	}
}

func TestMultiHasher_UnknownFormat(t *testing.T) {
	m := auth.NewMultiHasher(auth.NewArgon2idHasher(cheapArgon))

	_, err := m.Verify("md5:abcdef", "x")

	assert.ErrorIs(t, err, auth.ErrUnknownHashFormat)
}

func TestNewHasher(t *testing.T) {
	for _, name := range []string{"", "argon2id", "bcrypt"} {
		_, err := auth.NewHasher(name)
		assert.NoError(t, err, name)
	}
	_, err := auth.NewHasher("md5")
	assert.Error(t, err)
}
