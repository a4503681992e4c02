package secure

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAESKey  = "0123456789abcdef0123456789abcdef"
	testHMACKey = "fingerprint-key"
)

func TestCipherRoundTrip(t *testing.T) {
	c, err := NewCipher(testAESKey, testHMACKey)
	require.NoError(t, err)

	ct, err := c.Encrypt("PL61109010140000071219812874")
	require.NoError(t, err)
	assert.NotEqual(t, "PL61109010140000071219812874", ct)

	plain, err := c.Decrypt(ct)
	require.NoError(t, err)
	assert.Equal(t, "PL61109010140000071219812874", plain)
}

func TestCipherRandomizedNonce(t *testing.T) {
	c, err := NewCipher(testAESKey, testHMACKey)
	require.NoError(t, err)

	a, err := c.Encrypt("same input")
	require.NoError(t, err)
	b, err := c.Encrypt("same input")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestCipherRejectsTamperedCiphertext(t *testing.T) {
	c, err := NewCipher(testAESKey, testHMACKey)
	require.NoError(t, err)

	_, err = c.Decrypt("not base64!!")
	assert.Error(t, err)
	_, err = c.Decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestCipherRejectsBadKeyLength(t *testing.T) {
	_, err := NewCipher("too-short", testHMACKey)
	assert.Error(t, err)
}

func TestFingerprintDeterministicAndKeyed(t *testing.T) {
	c, err := NewCipher(testAESKey, testHMACKey)
	require.NoError(t, err)
	other, err := NewCipher(testAESKey, "different-key")
	require.NoError(t, err)

	assert.Equal(t, c.Fingerprint("PL61"), c.Fingerprint("PL61"))
	assert.NotEqual(t, c.Fingerprint("PL61"), c.Fingerprint("PL62"))
	assert.NotEqual(t, c.Fingerprint("PL61"), other.Fingerprint("PL61"))
}

func TestStamperSignVerify(t *testing.T) {
	s := NewStamper("stamp-key", 15*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	stamp := s.Sign("token-abc", now)
	assert.NoError(t, s.Verify("token-abc", stamp, now))
	assert.NoError(t, s.Verify("token-abc", stamp, now.Add(14*time.Minute)))

	// Expired, wrong token, wrong key, malformed.
	assert.Error(t, s.Verify("token-abc", stamp, now.Add(16*time.Minute)))
	assert.Error(t, s.Verify("token-xyz", stamp, now))
	assert.Error(t, NewStamper("other-key", 15*time.Minute).Verify("token-abc", stamp, now))
	assert.Error(t, s.Verify("token-abc", "garbage", now))
	assert.Error(t, s.Verify("token-abc", "1748779200", now))
	assert.Error(t, s.Verify("token-abc", ":", now))
}

func TestStamperRejectsFutureStamp(t *testing.T) {
	s := NewStamper("stamp-key", 15*time.Minute)
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	stamp := s.Sign("token-abc", now.Add(5*time.Minute))
	assert.Error(t, s.Verify("token-abc", stamp, now))
}
