package tokenhash

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIterations = 1000

func TestHashAndVerify_RoundTrip(t *testing.T) {
	t.Parallel()

	h := NewWithIterations(testIterations)

	encoded, err := h.Hash("some.raw.jwt-value")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(encoded, "pbkdf2-sha256$"))

	assert.True(t, h.Verify("some.raw.jwt-value", encoded))
	assert.False(t, h.Verify("some.other.value", encoded))
}

func TestHash_SaltsDiffer(t *testing.T) {
	t.Parallel()

	h := NewWithIterations(testIterations)

	a, err := h.Hash("token")
	require.NoError(t, err)
	b, err := h.Hash("token")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("token", a))
	assert.True(t, h.Verify("token", b))
}

func TestVerify_AcceptsLongInput(t *testing.T) {
	t.Parallel()

	// A signed JWT is far longer than bcrypt's 72-byte cap; the token
	// hasher must handle the full value.
	raw := strings.Repeat("header.payload.signature", 20)

	h := NewWithIterations(testIterations)
	encoded, err := h.Hash(raw)
	require.NoError(t, err)

	assert.True(t, h.Verify(raw, encoded))
	assert.False(t, h.Verify(raw[:len(raw)-1], encoded))
}

func TestVerify_RejectsGarbage(t *testing.T) {
	t.Parallel()

	h := New()

	tests := []struct {
		name    string
		encoded string
	}{
		{name: "empty", encoded: ""},
		{name: "wrong prefix", encoded: "bcrypt$10$aa$bb"},
		{name: "missing parts", encoded: "pbkdf2-sha256$1000$aabb"},
		{name: "bad iterations", encoded: "pbkdf2-sha256$zero$aabb$ccdd"},
		{name: "bad salt hex", encoded: "pbkdf2-sha256$1000$zz$ccdd"},
		{name: "bad key hex", encoded: "pbkdf2-sha256$1000$aabb$zz"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.False(t, h.Verify("token", tt.encoded))
		})
	}
}
