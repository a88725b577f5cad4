package auth

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "redditdl"
	keyringPrefix  = "reddit_"
)

// KeyringStore implements CredentialStore using the system keyring
type KeyringStore struct{}

// NewKeyringStore creates a new keyring-based credential store
func NewKeyringStore() (*KeyringStore, error) {
	// Probe the keyring so an unavailable backend surfaces here rather
	// than on first use.
	testKey := keyringPrefix + "availability_probe"
	if err := keyring.Set(keyringService, testKey, "probe"); err != nil {
		return nil, fmt.Errorf("keyring not available: %w", err)
	}
	_ = keyring.Delete(keyringService, testKey)

	return &KeyringStore{}, nil
}

// Store saves credentials to the system keyring
func (k *KeyringStore) Store(creds *Credentials) error {
	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	key := keyringPrefix + creds.Name
	if err := keyring.Set(keyringService, key, string(data)); err != nil {
		return fmt.Errorf("failed to store in keyring: %w", err)
	}

	return k.updateIndex(creds.Name, true)
}

// Retrieve gets credentials from the system keyring
func (k *KeyringStore) Retrieve(name string) (*Credentials, error) {
	key := keyringPrefix + name
	data, err := keyring.Get(keyringService, key)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, ErrCredentialsNotFound
		}
		return nil, fmt.Errorf("failed to retrieve from keyring: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal([]byte(data), &creds); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credentials: %w", err)
	}

	return &creds, nil
}

// List returns all credentials stored in the keyring
func (k *KeyringStore) List() ([]*Credentials, error) {
	names, err := k.readIndex()
	if err != nil {
		return nil, err
	}

	var result []*Credentials
	for _, name := range names {
		if creds, err := k.Retrieve(name); err == nil {
			result = append(result, creds)
		}
	}

	return result, nil
}

// Delete removes credentials from the keyring
func (k *KeyringStore) Delete(name string) error {
	key := keyringPrefix + name
	if err := keyring.Delete(keyringService, key); err != nil {
		if err == keyring.ErrNotFound {
			return ErrCredentialsNotFound
		}
		return fmt.Errorf("failed to delete from keyring: %w", err)
	}

	return k.updateIndex(name, false)
}

// Exists checks if credentials exist in the keyring
func (k *KeyringStore) Exists(name string) bool {
	key := keyringPrefix + name
	_, err := keyring.Get(keyringService, key)
	return err == nil
}

// The keyring has no enumeration API, so an index entry tracks which
// credential names exist.
const indexKey = keyringPrefix + "index"

func (k *KeyringStore) readIndex() ([]string, error) {
	data, err := keyring.Get(keyringService, indexKey)
	if err != nil {
		if err == keyring.ErrNotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read keyring index: %w", err)
	}
	if data == "" {
		return nil, nil
	}
	return strings.Split(data, "\n"), nil
}

func (k *KeyringStore) updateIndex(name string, add bool) error {
	names, err := k.readIndex()
	if err != nil {
		return err
	}

	var updated []string
	for _, n := range names {
		if n != name && n != "" {
			updated = append(updated, n)
		}
	}
	if add {
		updated = append(updated, name)
	}

	if err := keyring.Set(keyringService, indexKey, strings.Join(updated, "\n")); err != nil {
		return fmt.Errorf("failed to update keyring index: %w", err)
	}
	return nil
}
