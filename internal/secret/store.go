package secret

import "sync"

// CredentialKey holds the bearer credential sent to the Document Store.
const CredentialKey = "auth_token"

// SecretStore provides a pluggable interface for storing sensitive data
// such as the Document Store credential. The desktop app and the headless
// MCP server share the macOS Keychain; tests use MemoryStore.
type SecretStore interface {
	// Set stores a secret value under the given key.
	Set(key string, value []byte) error

	// Get retrieves the secret value for the given key.
	// Returns empty slice and nil error if key does not exist.
	Get(key string) ([]byte, error)

	// Delete removes the secret for the given key.
	Delete(key string) error
}

// MemoryStore is a process-local SecretStore.
type MemoryStore struct {
	mu      sync.RWMutex
	secrets map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{secrets: make(map[string][]byte)}
}

func (m *MemoryStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secrets[key] = append([]byte(nil), value...)
	return nil
}

func (m *MemoryStore) Get(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]byte(nil), m.secrets[key]...), nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.secrets, key)
	return nil
}

// Token returns the Document Store credential, or "" when none is stored.
func Token(s SecretStore) string {
	v, err := s.Get(CredentialKey)
	if err != nil {
		return ""
	}
	return string(v)
}
