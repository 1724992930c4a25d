package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/user")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/home/user", ".cache", "drawbridge"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheDirXDG(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join("/xdg/cache", "drawbridge"); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCacheClearCommand(t *testing.T) {
	env := newTestEnv(t)

	if err := env.execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), "Cache is empty") {
		t.Errorf("output = %q", env.out.String())
	}

	dir, _ := cacheDir()
	sub := filepath.Join(dir, "ab")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"ab12.json", "ab34.json"} {
		if err := os.WriteFile(filepath.Join(sub, name), []byte("{}"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	env.out.Reset()
	if err := env.execute(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(env.out.String(), "Cleared") || !strings.Contains(env.out.String(), "2") {
		t.Errorf("output = %q", env.out.String())
	}
	if _, err := os.Stat(sub); !os.IsNotExist(err) {
		t.Errorf("subdirectory should be removed, stat err = %v", err)
	}
}

func TestCachePathCommand(t *testing.T) {
	env := newTestEnv(t)

	if err := env.execute(t, "cache", "path"); err != nil {
		t.Fatal(err)
	}
	want := filepath.Join(env.dir, "cache", "drawbridge")
	if got := strings.TrimSpace(env.out.String()); got != want {
		t.Errorf("cache path = %q, want %q", got, want)
	}
}
