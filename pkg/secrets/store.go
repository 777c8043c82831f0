// Package secrets provides the SecretStore backing a workflow run's
// KeyResolver: on-demand resolution of named credentials, kept out of
// persisted run state until a block actually needs the material.
package secrets

import (
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/blockrun/blockrun/pkg/errors"
)

// Store resolves a named secret to its current value.
type Store interface {
	Get(name string) (string, error)
	Set(name, value string) error
	Delete(name string) error
}

// KeyringStore backs Store with the OS-native credential store (macOS
// Keychain, the Secret Service on Linux, Windows Credential Manager) via
// github.com/zalando/go-keyring, scoped under one service namespace per
// organization so two orgs' secrets of the same name never collide.
type KeyringStore struct {
	service string
}

// NewKeyringStore scopes a KeyringStore to orgID.
func NewKeyringStore(orgID string) *KeyringStore {
	return &KeyringStore{service: "blockrun/" + orgID}
}

func (s *KeyringStore) Get(name string) (string, error) {
	v, err := keyring.Get(s.service, name)
	if err != nil {
		if err == keyring.ErrNotFound {
			return "", &errors.NotFoundError{Resource: "secret", ID: name}
		}
		return "", fmt.Errorf("read secret %q: %w", name, err)
	}
	return v, nil
}

func (s *KeyringStore) Set(name, value string) error {
	if err := keyring.Set(s.service, name, value); err != nil {
		return fmt.Errorf("write secret %q: %w", name, err)
	}
	return nil
}

func (s *KeyringStore) Delete(name string) error {
	if err := keyring.Delete(s.service, name); err != nil {
		if err == keyring.ErrNotFound {
			return nil
		}
		return fmt.Errorf("delete secret %q: %w", name, err)
	}
	return nil
}
