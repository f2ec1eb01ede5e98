package bakery

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(20 * time.Millisecond)
	}
	return cond()
}

func TestBuilder_Watch(t *testing.T) {
	if testing.Short() {
		t.Skip("uses OS file notifications")
	}
	t.Parallel()

	dir := t.TempDir()
	fsys := afero.NewOsFs()
	writeFiles(t, fsys, dir, testSite)

	b := New(WithFs(fsys), WithStyleCompiler(&mockCompiler{}), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, dir, false) }()

	about := filepath.Join(dir, "target", "about", "index.html")
	contains := func(want string) func() bool {
		return func() bool {
			data, err := os.ReadFile(about)
			return err == nil && strings.Contains(string(data), want)
		}
	}

	if !waitFor(t, 5*time.Second, contains("About")) {
		t.Fatal("initial build did not run")
	}

	// Give the watcher time to register before editing.
	time.Sleep(200 * time.Millisecond)
	edited := "+++\ntitle = \"About Us\"\ntemplate = \"page.html\"\n+++\nChanged.\n"
	if err := os.WriteFile(filepath.Join(dir, "content", "about.md"), []byte(edited), 0o644); err != nil {
		t.Fatal(err)
	}
	if !waitFor(t, 5*time.Second, contains("About Us")) {
		t.Error("edit did not trigger a rebuild")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}

func TestBuilder_WatchOutputDir(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, "site", withSite(testSite, map[string]string{
		"bakery.toml": "base_url = \"https://example.com/\"\ntitle = \"T\"\noutput_dir = \"public\"\n",
	}))
	b := New(WithFs(fsys))

	if got, err := b.watchOutputDir("site"); err != nil || got != filepath.Join("site", "public") {
		t.Errorf("watchOutputDir() = %q, %v", got, err)
	}
	if _, err := b.watchOutputDir("missing"); err == nil {
		t.Error("watchOutputDir(missing) expected error")
	}
}

func TestBuilder_WatchFollowsOutputDirChange(t *testing.T) {
	if testing.Short() {
		t.Skip("uses OS file notifications")
	}
	t.Parallel()

	dir := t.TempDir()
	fsys := afero.NewOsFs()
	writeFiles(t, fsys, dir, testSite)

	// One stylesheet target: one compile per build.
	compiler := &mockCompiler{}
	builds := compiler.calls
	b := New(WithFs(fsys), WithStyleCompiler(compiler), WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Watch(ctx, dir, false) }()

	if !waitFor(t, 5*time.Second, func() bool { return builds() >= 1 }) {
		t.Fatal("initial build did not run")
	}
	time.Sleep(200 * time.Millisecond)

	cfgPath := filepath.Join(dir, "bakery.toml")
	cfg, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	moved := "output_dir = \"public\"\n" + string(cfg)
	if err := os.WriteFile(cfgPath, []byte(moved), 0o644); err != nil {
		t.Fatal(err)
	}

	index := filepath.Join(dir, "public", "index.html")
	if !waitFor(t, 5*time.Second, func() bool { _, err := os.Stat(index); return err == nil }) {
		t.Fatal("build into the new output directory did not run")
	}

	// Writes into the new output directory must not trigger more builds.
	time.Sleep(500 * time.Millisecond)
	settled := builds()
	time.Sleep(500 * time.Millisecond)
	if got := builds(); got != settled {
		t.Errorf("builds kept running after the output move: %d -> %d", settled, got)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch() did not return after cancel")
	}
}
