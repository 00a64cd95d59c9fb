package crypto_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mindburn-Labs/covenant/pkg/crypto"
)

func TestSignVerify_RoundTrip(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	msg := []byte("hello world")
	sig, err := crypto.Sign(msg, kp.PrivateKey.Seed())
	require.NoError(t, err)

	assert.True(t, crypto.Verify(msg, sig, kp.PublicKey))
}

func TestVerify_RejectsTampering(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	sig, err := crypto.Sign([]byte("hello world"), kp.PrivateKey.Seed())
	require.NoError(t, err)

	assert.False(t, crypto.Verify([]byte("hello world!"), sig, kp.PublicKey))
}

func TestVerify_NeverPanicsOnMalformedInput(t *testing.T) {
	cases := []struct {
		name      string
		signature []byte
		publicKey []byte
	}{
		{"empty both", nil, nil},
		{"short key", []byte("sig"), []byte("short")},
		{"short sig", []byte("x"), make([]byte, 32)},
		{"oversize key", make([]byte, 64), make([]byte, 128)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, crypto.Verify([]byte("msg"), tc.signature, tc.publicKey))
			})
		})
	}
}

func TestVerifyHex_RejectsMalformedHex(t *testing.T) {
	assert.False(t, crypto.VerifyHex([]byte("msg"), "not-hex!!", "also-not-hex"))
}

func TestKeyPairFromPrivateKey_Accepts32And64Bytes(t *testing.T) {
	kp, err := crypto.GenerateKeyPair()
	require.NoError(t, err)

	seed := kp.PrivateKey.Seed()
	fromSeed, err := crypto.KeyPairFromPrivateKey(seed)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, fromSeed.PublicHex)

	// 64-byte seed||public form: only the first 32 bytes (the seed) matter.
	fromFull, err := crypto.KeyPairFromPrivateKey(kp.PrivateKey)
	require.NoError(t, err)
	assert.Equal(t, kp.PublicHex, fromFull.PublicHex)
}

func TestKeyPairFromPrivateKey_RejectsWrongLength(t *testing.T) {
	_, err := crypto.KeyPairFromPrivateKey(make([]byte, 31))
	assert.Error(t, err)
}

func TestSHA256Object_OrderIndependent(t *testing.T) {
	m1 := map[string]interface{}{"a": 1, "b": 2}
	m2 := map[string]interface{}{"b": 2, "a": 1}

	h1, err := crypto.SHA256Object(m1)
	require.NoError(t, err)
	h2, err := crypto.SHA256Object(m2)
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
}

func TestGenerateNonce_Is32BytesAndRandom(t *testing.T) {
	n1, err := crypto.GenerateNonce()
	require.NoError(t, err)
	n2, err := crypto.GenerateNonce()
	require.NoError(t, err)

	assert.Len(t, n1, 32)
	assert.NotEqual(t, n1, n2)
}

func TestConstantTimeEqual(t *testing.T) {
	assert.True(t, crypto.ConstantTimeEqual([]byte("abc"), []byte("abc")))
	assert.False(t, crypto.ConstantTimeEqual([]byte("abc"), []byte("abd")))
	assert.False(t, crypto.ConstantTimeEqual([]byte("abc"), []byte("ab")))
}

func TestFormatTimestamp_FixedMillisecondForm(t *testing.T) {
	when, err := time.Parse(time.RFC3339Nano, "2025-01-15T12:00:00.1Z")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-15T12:00:00.100Z", crypto.FormatTimestamp(when))
}
