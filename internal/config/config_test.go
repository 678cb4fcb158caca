package config

import (
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "ENV", "READ_TIMEOUT", "DOCSTORE_URL", "DOCSTORE_DRIVER", "DOCSTORE_DSN"} {
		t.Setenv(k, "")
	}
	t.Setenv("DOCEDIT_DATA_DIR", "/tmp/docedit-test")

	cfg := Load()
	if cfg.Port != "3000" || cfg.Environment != "development" || cfg.ReadTimeout != 10 {
		t.Errorf("unexpected listener defaults: %+v", cfg)
	}
	if cfg.StoreDriver != "sqlite3" || cfg.StoreDSN != filepath.Join("/tmp/docedit-test", "docstore.db") {
		t.Errorf("unexpected store defaults: %+v", cfg)
	}
	if cfg.DraftDBPath() != filepath.Join("/tmp/docedit-test", "docedit.db") {
		t.Errorf("unexpected draft db path %q", cfg.DraftDBPath())
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("READ_TIMEOUT", "not-a-number")
	t.Setenv("DOCSTORE_DRIVER", "postgres")
	t.Setenv("DOCEDIT_AUTOSAVE", "")

	cfg := Load()
	if cfg.Port != "8080" || cfg.StoreDriver != "postgres" {
		t.Errorf("overrides ignored: %+v", cfg)
	}
	if cfg.ReadTimeout != 10 {
		t.Errorf("bad int should fall back to default, got %d", cfg.ReadTimeout)
	}
	if cfg.Autosave != "" {
		t.Errorf("empty DOCEDIT_AUTOSAVE should disable autosave, got %q", cfg.Autosave)
	}
}
