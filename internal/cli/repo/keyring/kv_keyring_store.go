// Package keyring stores session values in the OS credential store
// (macOS Keychain, Windows Credential Manager, Secret Service, KWallet or pass).
package keyring

import (
	"context"
	"errors"

	"github.com/99designs/keyring"

	"BookmarkAdmin/internal/cli/repo"
)

// ServiceName identifies our namespace in the credential store.
const ServiceName = "bookmark-admin"

// Store adapts a keyring.Keyring to repo.KVStore.
type Store struct {
	ring keyring.Keyring
}

var _ repo.KVStore = (*Store)(nil)

// New wraps an already opened keyring. Tests pass keyring.NewArrayKeyring.
func New(ring keyring.Keyring) *Store {
	return &Store{ring: ring}
}

// Open opens the native credential store. The encrypted-file backend is excluded
// because it would prompt for a passphrase on every command.
func Open() (*Store, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: ServiceName,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.WinCredBackend,
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.PassBackend,
		},
		KeychainName:             "login",
		KeychainTrustApplication: true,
		WinCredPrefix:            ServiceName,
		PassPrefix:               ServiceName,
		LibSecretCollectionName:  "login",
	})
	if err != nil {
		return nil, err
	}
	return New(ring), nil
}

func (s *Store) Get(_ context.Context, key string) (string, error) {
	if key == "" {
		return "", repo.ErrEmptyKey
	}
	it, err := s.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(it.Data), nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	return s.ring.Set(keyring.Item{
		Key:         key,
		Data:        []byte(value),
		Label:       ServiceName + " " + key,
		Description: "bookmark admin console session",
	})
}

func (s *Store) Remove(_ context.Context, key string) error {
	if key == "" {
		return repo.ErrEmptyKey
	}
	if err := s.ring.Remove(key); err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
		return err
	}
	return nil
}
