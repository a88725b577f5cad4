package auth

import (
	"os"
	"time"
)

// EnvironmentStore implements CredentialStore backed by environment
// variables. It is read only.
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (s *EnvironmentStore) Store(creds *Credentials) error {
	return ErrStoreUnavailable
}

// Retrieve gets credentials from environment variables. The name is
// ignored because the environment holds at most one set.
func (s *EnvironmentStore) Retrieve(name string) (*Credentials, error) {
	clientID := os.Getenv("REDDIT_CLIENT_ID")
	clientSecret := os.Getenv("REDDIT_CLIENT_SECRET")

	if clientID == "" || clientSecret == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credentials{
		Name:         "environment",
		ClientID:     clientID,
		ClientSecret: clientSecret,
		UserAgent:    os.Getenv("REDDIT_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

// List returns the environment credentials when present
func (s *EnvironmentStore) List() ([]*Credentials, error) {
	creds, err := s.Retrieve("")
	if err != nil {
		return nil, nil
	}
	return []*Credentials{creds}, nil
}

// Delete is not supported for environment variables
func (s *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists checks if environment credentials are set
func (s *EnvironmentStore) Exists(name string) bool {
	creds, err := s.Retrieve(name)
	return err == nil && creds != nil
}
