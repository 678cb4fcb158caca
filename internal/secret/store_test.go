package secret_test

import (
	"testing"

	"docedit/internal/secret"
)

func TestMemoryStore(t *testing.T) {
	s := secret.NewMemoryStore()
	if got := secret.Token(s); got != "" {
		t.Errorf("expected no token, got %q", got)
	}

	if err := s.Set(secret.CredentialKey, []byte("abc")); err != nil {
		t.Fatal(err)
	}
	if got := secret.Token(s); got != "abc" {
		t.Errorf("expected abc, got %q", got)
	}

	v, _ := s.Get(secret.CredentialKey)
	v[0] = 'x'
	if got := secret.Token(s); got != "abc" {
		t.Errorf("Get must return a copy, stored value became %q", got)
	}

	if err := s.Delete(secret.CredentialKey); err != nil {
		t.Fatal(err)
	}
	if got := secret.Token(s); got != "" {
		t.Errorf("expected token removed, got %q", got)
	}
}
