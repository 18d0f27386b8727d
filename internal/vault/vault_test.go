package vault

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betswarm/betswarm/internal/domain"
)

func TestNewRequiresPassword(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)
}

func TestSealOpenRoundtrip(t *testing.T) {
	v, err := New("master-password")
	require.NoError(t, err)

	cipherBytes, err := v.Seal("site-login-secret")
	require.NoError(t, err)
	assert.NotContains(t, string(cipherBytes), "site-login-secret")

	plain, err := v.OpenCipher(cipherBytes)
	require.NoError(t, err)
	assert.Equal(t, "site-login-secret", plain)
}

func TestSealProducesFreshEnvelopes(t *testing.T) {
	v, err := New("master-password")
	require.NoError(t, err)

	a, err := v.Seal("secret")
	require.NoError(t, err)
	b, err := v.Seal("secret")
	require.NoError(t, err)

	// Random salt and nonce: same plaintext, different ciphertext.
	assert.NotEqual(t, a, b)
}

func TestOpenWithWrongPassword(t *testing.T) {
	v, err := New("right")
	require.NoError(t, err)
	cipherBytes, err := v.Seal("secret")
	require.NoError(t, err)

	wrong, err := New("wrong")
	require.NoError(t, err)
	_, err = wrong.OpenCipher(cipherBytes)
	assert.Error(t, err)
}

func TestOpenRejectsGarbage(t *testing.T) {
	v, err := New("master")
	require.NoError(t, err)

	_, err = v.OpenCipher([]byte("not json"))
	assert.Error(t, err)

	_, err = v.OpenCipher([]byte(`{"v":99,"salt":"","nonce":"","ct":""}`))
	assert.Error(t, err)
}

func TestOpenAccount(t *testing.T) {
	v, err := New("master")
	require.NoError(t, err)

	cipherBytes, err := v.Seal("hunter2")
	require.NoError(t, err)

	creds, err := v.Open(domain.Account{
		ID:           "acct-1",
		Username:     "alice@example",
		SecretCipher: cipherBytes,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example", creds.Username)
	assert.Equal(t, "hunter2", creds.Password)
}

func TestOpenAccountWithoutSecret(t *testing.T) {
	v, err := New("master")
	require.NoError(t, err)

	_, err = v.Open(domain.Account{ID: "acct-1"})
	assert.Error(t, err)
}
