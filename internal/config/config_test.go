package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	doc := "server: irc.example.net\nnick: testbot\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Server != "irc.example.net" || f.Nick != "testbot" {
		t.Fatalf("server/nick = %q/%q", f.Server, f.Nick)
	}
	if f.UserName != "nodebot" {
		t.Errorf("userName default = %q, want nodebot", f.UserName)
	}
	if f.Port != 6667 {
		t.Errorf("port default = %d, want 6667", f.Port)
	}
	if f.ChannelPrefixes != "&#" {
		t.Errorf("channelPrefixes default = %q, want &#", f.ChannelPrefixes)
	}
}

func TestLoadHonorsExplicitValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "session.yaml")
	doc := "server: irc.example.net\nnick: testbot\nport: 6697\nuserName: mybot\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	f, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if f.Port != 6697 {
		t.Errorf("port = %d, want 6697", f.Port)
	}
	if f.UserName != "mybot" {
		t.Errorf("userName = %q, want mybot", f.UserName)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/session.yaml"); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
