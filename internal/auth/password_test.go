package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestBcryptHasher_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	for _, pw := range []string{
		"s3cret",
		"",
		"pässwörd with ünïcode",
		strings.Repeat("a", 72),
		strings.Repeat("b", 500),
	} {
		hash, err := h.Hash(pw)
		require.NoError(t, err)
		assert.NotEqual(t, pw, hash)
		assert.True(t, h.Verify(pw, hash), "password of length %d should verify", len(pw))
	}
}

func TestBcryptHasher_Mismatch(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	hash, err := h.Hash("s3cret")
	require.NoError(t, err)

	assert.False(t, h.Verify("wrong", hash))
	assert.False(t, h.Verify("", hash))
	assert.False(t, h.Verify("s3cret ", hash))
}

func TestBcryptHasher_LongPasswordSuffixMatters(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	prefix := strings.Repeat("x", 100)

	hash, err := h.Hash(prefix + "1")
	require.NoError(t, err)

	assert.True(t, h.Verify(prefix+"1", hash))
	assert.False(t, h.Verify(prefix+"2", hash))
}

func TestBcryptHasher_Salted(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same", a))
	assert.True(t, h.Verify("same", b))
}

func TestBcryptHasher_MalformedHash(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(bcrypt.MinCost)
	for _, hash := range []string{"", "plaintext", "$2a$10$short", "$2a$99$" + strings.Repeat("x", 53)} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("s3cret", hash))
		})
	}
}

func TestNewBcryptHasher_CostFallback(t *testing.T) {
	t.Parallel()

	h := NewBcryptHasher(1)
	hash, err := h.Hash("pw")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	assert.Equal(t, bcrypt.DefaultCost, cost)
}
