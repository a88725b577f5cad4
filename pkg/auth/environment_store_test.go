package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvironmentStoreRetrieve(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "env-id")
	t.Setenv("REDDIT_CLIENT_SECRET", "env-secret")
	t.Setenv("REDDIT_USER_AGENT", "env-agent")

	store := NewEnvironmentStore()
	creds, err := store.Retrieve("anything")
	require.NoError(t, err)
	assert.Equal(t, "environment", creds.Name)
	assert.Equal(t, "env-id", creds.ClientID)
	assert.Equal(t, "env-secret", creds.ClientSecret)
	assert.Equal(t, "env-agent", creds.UserAgent)
	assert.True(t, store.Exists(""))
}

func TestEnvironmentStoreMissingCredentials(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")

	store := NewEnvironmentStore()
	_, err := store.Retrieve("")
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
	assert.False(t, store.Exists(""))
}

func TestEnvironmentStoreIsReadOnly(t *testing.T) {
	store := NewEnvironmentStore()
	assert.ErrorIs(t, store.Store(&Credentials{Name: "x"}), ErrStoreUnavailable)
	assert.ErrorIs(t, store.Delete("x"), ErrStoreUnavailable)
}

func TestMaskString(t *testing.T) {
	assert.Equal(t, "********", maskString("short"))
	assert.Equal(t, "abcd...wxyz", maskString("abcdefghijklmnopqrstuvwxyz"))
}

func TestSanitize(t *testing.T) {
	creds := &Credentials{
		Name:         "default",
		ClientID:     "id",
		ClientSecret: "supersecretvalue",
	}

	clean := Sanitize(creds)
	assert.Equal(t, "default", clean.Name)
	assert.NotEqual(t, creds.ClientSecret, clean.ClientSecret)
	assert.Nil(t, Sanitize(nil))
}
