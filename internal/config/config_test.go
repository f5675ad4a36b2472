package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadParsesDurationStrings(t *testing.T) {
	path := writeConfig(t, `
nodeInfo:
  fqdn: registry.example.com
server:
  listen: ":9000"
  tokenTTL: "24h"
  storeTimeout: "1500ms"
`)

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if time.Duration(conf.Server.TokenTTL) != 24*time.Hour {
		t.Fatalf("tokenTTL: got %v", time.Duration(conf.Server.TokenTTL))
	}
	if time.Duration(conf.Server.StoreTimeout) != 1500*time.Millisecond {
		t.Fatalf("storeTimeout: got %v", time.Duration(conf.Server.StoreTimeout))
	}
	if conf.Server.Listen != ":9000" {
		t.Fatalf("listen: got %q", conf.Server.Listen)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	path := writeConfig(t, `
server:
  tokenTTL: "one day"
`)

	if _, err := Load(path); err == nil {
		t.Fatal("expected malformed duration to fail")
	}
}

func TestLoadDefaults(t *testing.T) {
	conf, err := Load("")
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if conf.Server.Listen != ":8000" {
		t.Fatalf("listen default: got %q", conf.Server.Listen)
	}
	if conf.NodeInfo.Registration != "open" {
		t.Fatalf("registration default: got %q", conf.NodeInfo.Registration)
	}
	if time.Duration(conf.Server.TokenTTL) != 24*time.Hour {
		t.Fatalf("tokenTTL default: got %v", time.Duration(conf.Server.TokenTTL))
	}
	if time.Duration(conf.Server.StoreTimeout) != 3*time.Second {
		t.Fatalf("storeTimeout default: got %v", time.Duration(conf.Server.StoreTimeout))
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  tokenTTL: "24h"
`)

	t.Setenv("REGISTRY_TOKEN_TTL", "1h")
	t.Setenv("REGISTRY_LISTEN", ":7000")

	conf, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if time.Duration(conf.Server.TokenTTL) != time.Hour {
		t.Fatalf("env override lost: got %v", time.Duration(conf.Server.TokenTTL))
	}
	if conf.Server.Listen != ":7000" {
		t.Fatalf("env override lost: got %q", conf.Server.Listen)
	}
}
