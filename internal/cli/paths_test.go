package cli

import (
	"io"
	"path/filepath"
	"runtime"
	"testing"
)

func TestCacheDirLocation(t *testing.T) {
	home := t.TempDir()
	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"HomeDefault", "", filepath.Join(home, ".cache", "graphopt")},
		{"XDG", "/srv/cache", filepath.Join("/srv/cache", "graphopt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("HOME", home)
			t.Setenv("XDG_CACHE_HOME", tt.xdg)

			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCLICacheDirPrefersConfig(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/srv/cache")

	c := New(io.Discard, LogInfo)
	got, err := c.cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/srv/cache", appName); got != want {
		t.Errorf("cacheDir() without config = %q, want %q", got, want)
	}

	c.cfg.Cache.Dir = "/var/lib/graphopt"
	if got, _ := c.cacheDir(); got != "/var/lib/graphopt" {
		t.Errorf("cacheDir() with [cache] dir = %q, want /var/lib/graphopt", got)
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only drives os.UserConfigDir on Linux")
	}
	t.Setenv("XDG_CONFIG_HOME", "/etc/xdg-test")

	got, err := defaultConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := "/etc/xdg-test/graphopt/config.toml"; got != want {
		t.Errorf("defaultConfigPath() = %q, want %q", got, want)
	}
	if hint := defaultConfigHint(); hint != filepath.Join("$XDG_CONFIG_HOME", "graphopt", "config.toml") {
		t.Errorf("defaultConfigHint() = %q", hint)
	}
}
