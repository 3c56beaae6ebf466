package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestPasswordHasherRoundTrip(t *testing.T) {
	hasher := testHasher()

	digest, err := hasher.Hash("correct horse")
	require.NoError(t, err)
	assert.NotContains(t, digest, "correct horse")
	assert.True(t, strings.HasPrefix(digest, "$2"))

	assert.True(t, hasher.Verify("correct horse", digest))
	assert.False(t, hasher.Verify("correct horsE", digest))
}

func TestPasswordHasherSalts(t *testing.T) {
	hasher := testHasher()

	first, err := hasher.Hash("same")
	require.NoError(t, err)
	second, err := hasher.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, hasher.Verify("same", first))
	assert.True(t, hasher.Verify("same", second))
}

func TestPasswordHasherRejectsBadDigests(t *testing.T) {
	hasher := testHasher()

	assert.False(t, hasher.Verify("anything", ""))
	assert.False(t, hasher.Verify("anything", "not-a-bcrypt-digest"))
	assert.False(t, hasher.Verify("", "$2a$04$abcdefghijklmnopqrstuu"))

	_, err := hasher.Hash("")
	assert.Error(t, err)
}

func TestNewPasswordHasherClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(0).cost)
	assert.Equal(t, bcrypt.DefaultCost, NewPasswordHasher(99).cost)
	assert.Equal(t, bcrypt.MinCost, NewPasswordHasher(bcrypt.MinCost).cost)
}

func TestPasswordHasherRejectsOverlongInput(t *testing.T) {
	hasher := testHasher()

	_, err := hasher.Hash(strings.Repeat("a", 73))
	require.ErrorIs(t, err, ErrPasswordTooLong)
	assert.ErrorIs(t, err, ErrInvalidInput)

	digest, err := hasher.Hash(strings.Repeat("a", 72))
	require.NoError(t, err)
	assert.True(t, hasher.Verify(strings.Repeat("a", 72), digest))
	assert.False(t, hasher.Verify(strings.Repeat("a", 73), digest))
}
