package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureKeyPairCreatesThenLoads(t *testing.T) {
	dir := t.TempDir()

	pub, priv, created, err := EnsureKeyPair(dir)
	require.NoError(t, err)
	assert.True(t, created)

	pub2, priv2, created, err := EnsureKeyPair(dir)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, pub, pub2)
	assert.Equal(t, priv, priv2)
}

func TestSignAndVerify(t *testing.T) {
	pub, priv, err := GenerateKeyPair()
	require.NoError(t, err)

	sig := SignData(priv, []byte("hash"))

	ok, err := VerifySignatureFromHex(EncodePublicKey(pub), []byte("hash"), sig)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifySignatureFromHex(EncodePublicKey(pub), []byte("other"), sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyRejectsShortKey(t *testing.T) {
	_, err := VerifySignatureFromHex("abcd", []byte("x"), "00")
	assert.Error(t, err)
}
