package irc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	doc := "" +
		"server: irc.example.net\n" +
		"nick: testbot\n" +
		"sasl: true\n" +
		"capabilities: [multi-prefix, away-notify]\n" +
		"webirc:\n" +
		"  pass: secret\n" +
		"  ip: 127.0.0.1\n" +
		"  user: gateway\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	opt, err := LoadOptions(path)
	if err != nil {
		t.Fatalf("LoadOptions: %v", err)
	}

	if opt.Server != "irc.example.net" || opt.Nick != "testbot" {
		t.Fatalf("server/nick = %q/%q", opt.Server, opt.Nick)
	}
	if !opt.SASL {
		t.Error("expected SASL to be true")
	}
	if len(opt.Capabilities) != 2 || opt.Capabilities[0] != "multi-prefix" {
		t.Errorf("capabilities = %v", opt.Capabilities)
	}
	if opt.WebIRC.Pass != "secret" || opt.WebIRC.IP != "127.0.0.1" || opt.WebIRC.User != "gateway" {
		t.Errorf("webirc = %+v", opt.WebIRC)
	}
	// File-level defaults (port, userName, etc.) still apply on the way through.
	if opt.Port != 6667 {
		t.Errorf("port = %d, want 6667", opt.Port)
	}
	if opt.UserName != "nodebot" {
		t.Errorf("userName = %q, want nodebot", opt.UserName)
	}
}

func TestLoadOptionsMissingFile(t *testing.T) {
	if _, err := LoadOptions("/nonexistent/session.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
