package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dropDatabas3/sessionbridge/internal/settings"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Server.Addr)
	}
	if cfg.Cache.Kind != "memory" {
		t.Fatalf("expected memory cache default, got %q", cfg.Cache.Kind)
	}
	if cfg.Session.CookieName != "sid" {
		t.Fatalf("expected sid cookie default, got %q", cfg.Session.CookieName)
	}
	if cfg.SessionTTL().Hours() != 12 {
		t.Fatalf("expected 12h session ttl, got %v", cfg.SessionTTL())
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: ":9999"
bridge:
  secret: from-yaml
  name: myApp
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	t.Setenv("BRIDGE_SECRET", "from-env")
	t.Setenv("SESSION_TTL", "1h")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Fatalf("yaml addr not applied: %q", cfg.Server.Addr)
	}
	// Env pisa yaml.
	if cfg.Bridge.Secret != "from-env" {
		t.Fatalf("expected env override, got %q", cfg.Bridge.Secret)
	}
	if cfg.SessionTTL().Hours() != 1 {
		t.Fatalf("expected 1h ttl, got %v", cfg.SessionTTL())
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("SESSION_TTL", "not-a-duration")
	if _, err := Load(""); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestBridgeSeed_OmitsEmpties(t *testing.T) {
	var c Config
	c.Bridge.Secret = "s3cret"
	c.Bridge.Name = "myApp"

	seed := c.BridgeSeed()
	if len(seed) != 2 {
		t.Fatalf("expected only non-empty keys, got %v", seed)
	}
	if seed[settings.KeySecret] != "s3cret" || seed[settings.KeyName] != "myApp" {
		t.Fatalf("unexpected seed: %v", seed)
	}

	// La semilla usa las mismas claves que el settings store.
	merged := settings.Defaults().Merge(seed)
	if merged.Secret != "s3cret" || merged.Name != "myApp" {
		t.Fatalf("seed keys must round-trip through Merge: %+v", merged)
	}
}
