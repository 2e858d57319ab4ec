package wallet

import (
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/99designs/keyring"
)

const keychainService = "happyvote"

// KeyStore holds named hex private keys for local wallets.
type KeyStore interface {
	Names() ([]string, error)
	Get(name string) (string, error)
	Put(name, hexKey string) error
	Delete(name string) error
}

// KeyringStore is a KeyStore backed by the OS keychain.
type KeyringStore struct {
	ring keyring.Keyring
}

// DefaultKeyStore returns a keystore backed by the OS keychain, falling back
// to file-based storage on headless Linux.
func DefaultKeyStore() *KeyringStore {
	cfg := keyring.Config{
		ServiceName:              keychainService,
		KeychainTrustApplication: true,
	}
	if runtime.GOOS == "linux" {
		cfg.AllowedBackends = []keyring.BackendType{
			keyring.SecretServiceBackend,
			keyring.KWalletBackend,
			keyring.FileBackend,
		}
	}

	ring, err := keyring.Open(cfg)
	if err != nil {
		ring, _ = keyring.Open(keyring.Config{
			ServiceName:     keychainService,
			AllowedBackends: []keyring.BackendType{keyring.FileBackend},
		})
	}
	return &KeyringStore{ring: ring}
}

// Names lists stored wallet names, sorted.
func (k *KeyringStore) Names() ([]string, error) {
	if k.ring == nil {
		return nil, nil
	}
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("keychain list: %w", err)
	}
	names := make([]string, 0, len(keys))
	for _, key := range keys {
		if name, ok := strings.CutPrefix(key, keychainService+"."); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Get fetches the hex private key stored under name.
func (k *KeyringStore) Get(name string) (string, error) {
	if k.ring == nil {
		return "", fmt.Errorf("keystore not available")
	}
	item, err := k.ring.Get(keychainService + "." + name)
	if err != nil {
		return "", fmt.Errorf("keychain retrieve: %w", err)
	}
	return string(item.Data), nil
}

// Put stores a hex private key under name.
func (k *KeyringStore) Put(name, hexKey string) error {
	if k.ring == nil {
		return fmt.Errorf("keystore not available")
	}
	err := k.ring.Set(keyring.Item{
		Key:  keychainService + "." + name,
		Data: []byte(hexKey),
	})
	if err != nil {
		return fmt.Errorf("keychain store: %w", err)
	}
	return nil
}

// Delete removes a stored key.
func (k *KeyringStore) Delete(name string) error {
	if k.ring == nil {
		return nil
	}
	return k.ring.Remove(keychainService + "." + name)
}

// MemoryKeyStore is an in-memory KeyStore for tests.
type MemoryKeyStore struct {
	keys map[string]string
}

// NewMemoryKeyStore creates an empty in-memory keystore.
func NewMemoryKeyStore() *MemoryKeyStore {
	return &MemoryKeyStore{keys: make(map[string]string)}
}

func (m *MemoryKeyStore) Names() ([]string, error) {
	names := make([]string, 0, len(m.keys))
	for name := range m.keys {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MemoryKeyStore) Get(name string) (string, error) {
	key, ok := m.keys[name]
	if !ok {
		return "", fmt.Errorf("wallet %q not found", name)
	}
	return key, nil
}

func (m *MemoryKeyStore) Put(name, hexKey string) error {
	m.keys[name] = hexKey
	return nil
}

func (m *MemoryKeyStore) Delete(name string) error {
	delete(m.keys, name)
	return nil
}
