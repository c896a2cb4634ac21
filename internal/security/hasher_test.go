package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash_Deterministic(t *testing.T) {
	salt, err := GenerateSalt(8)
	require.NoError(t, err)

	first := Hash("1234", salt)
	second := Hash("1234", salt)
	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // 32 bytes hex-encoded
}

func TestHash_SaltDependent(t *testing.T) {
	saltA, err := GenerateSalt(8)
	require.NoError(t, err)
	saltB, err := GenerateSalt(8)
	require.NoError(t, err)
	require.NotEqual(t, saltA, saltB)

	assert.NotEqual(t, Hash("1234", saltA), Hash("1234", saltB))
}

func TestHash_SecretDependent(t *testing.T) {
	salt, err := GenerateSalt(8)
	require.NoError(t, err)

	assert.NotEqual(t, Hash("1234", salt), Hash("1235", salt))
}

func TestGenerateSalt_FreshEachCall(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		salt, err := GenerateSalt(8)
		require.NoError(t, err)
		assert.Len(t, salt, 16)
		assert.False(t, seen[salt], "salt repeated")
		seen[salt] = true
	}
}
