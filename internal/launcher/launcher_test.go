package launcher

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFindClientPath_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "client")
	if err := os.WriteFile(exe, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	l := New(exe, []string{"client"}, nil)
	got, ok := l.FindClientPath()
	if !ok || got != exe {
		t.Fatalf("FindClientPath = %q, %v; want %q", got, ok, exe)
	}
}

func TestFindClientPath_EnvOverride(t *testing.T) {
	dir := t.TempDir()
	exe := filepath.Join(dir, "client-from-env")
	if err := os.WriteFile(exe, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Setenv(clientPathEnv, exe)

	l := New("", []string{"client"}, nil)
	got, ok := l.FindClientPath()
	if !ok || got != exe {
		t.Fatalf("FindClientPath = %q, %v; want %q", got, ok, exe)
	}
}

func TestFindClientPath_MissingEverywhere(t *testing.T) {
	t.Setenv(clientPathEnv, filepath.Join(t.TempDir(), "nope"))

	l := New(filepath.Join(t.TempDir(), "also-nope"), []string{"client"}, nil)
	if _, ok := l.FindClientPath(); ok {
		t.Fatalf("expected no client path")
	}
}

func TestFindClientPath_RejectsDirectory(t *testing.T) {
	dir := t.TempDir()

	l := New(dir, []string{"client"}, nil)
	if _, ok := l.FindClientPath(); ok {
		t.Fatalf("a directory must not count as the client executable")
	}
}

func TestMatches(t *testing.T) {
	l := New("", []string{"steam", "steamwebhelper"}, nil)

	for name, want := range map[string]bool{
		"steam":          true,
		"Steam":          true,
		"steam.exe":      true,
		"steamwebhelper": true,
		"steamy":         false,
		"notsteam":       false,
	} {
		if got := l.matches(name); got != want {
			t.Fatalf("matches(%q) = %v, want %v", name, got, want)
		}
	}
}
