package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("REDDITDL_PASSPHRASE", "test-passphrase")

	manager, err := NewManager()
	require.NoError(t, err)
	return manager
}

func TestManagerStoreAndRetrieve(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	manager := newTestManager(t)

	creds := &Credentials{
		Name:         "default",
		ClientID:     "stored-id",
		ClientSecret: "stored-secret",
		UserAgent:    "stored-agent",
	}
	require.NoError(t, manager.Store(creds))

	loaded, err := manager.Retrieve("default")
	require.NoError(t, err)
	assert.Equal(t, "stored-id", loaded.ClientID)
	assert.Equal(t, "stored-secret", loaded.ClientSecret)
}

func TestManagerRetrieveDefaultFallsBackToStore(t *testing.T) {
	// No environment credentials; the stored set is the default. This is
	// the path taken when the CLI starts with an empty configuration.
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	manager := newTestManager(t)

	require.NoError(t, manager.Store(&Credentials{
		Name:         "default",
		ClientID:     "stored-id",
		ClientSecret: "stored-secret",
	}))

	creds, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "stored-id", creds.ClientID)
	assert.Equal(t, "stored-secret", creds.ClientSecret)
}

func TestManagerRetrieveDefaultPrefersEnvironment(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "env-id")
	t.Setenv("REDDIT_CLIENT_SECRET", "env-secret")
	manager := newTestManager(t)

	creds, err := manager.RetrieveDefault()
	require.NoError(t, err)
	assert.Equal(t, "env-id", creds.ClientID)
}

func TestManagerRetrieveDefaultEmpty(t *testing.T) {
	t.Setenv("REDDIT_CLIENT_ID", "")
	t.Setenv("REDDIT_CLIENT_SECRET", "")
	manager := newTestManager(t)

	_, err := manager.RetrieveDefault()
	assert.ErrorIs(t, err, ErrCredentialsNotFound)
}

func TestManagerStoreRejectsIncomplete(t *testing.T) {
	manager := newTestManager(t)

	assert.Error(t, manager.Store(&Credentials{ClientID: "id", ClientSecret: "s"}))
	assert.Error(t, manager.Store(&Credentials{Name: "x", ClientSecret: "s"}))
	assert.Error(t, manager.Store(&Credentials{Name: "x", ClientID: "id"}))
}
