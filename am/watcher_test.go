package am

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestWatcherReloadsOnExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	writeConfigFile(t, path, "[pipeline]\nmax_rounds = 3\n")

	reloaded := make(chan *Config, 1)
	w, err := newWatcher(path, 10*time.Millisecond, func(cfg *Config) {
		select {
		case reloaded <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	writeConfigFile(t, path, "[pipeline]\nmax_rounds = 5\n")

	select {
	case cfg := <-reloaded:
		assert.Equal(t, 5, cfg.Pipeline.MaxRounds)
	case <-time.After(5 * time.Second):
		t.Fatal("external edit never triggered a reload")
	}
}

func TestWatcherSkipsOwnWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	writeConfigFile(t, path, "[pipeline]\nmax_rounds = 3\n")

	reloads := make(chan *Config, 4)
	w, err := newWatcher(path, 10*time.Millisecond, func(cfg *Config) { reloads <- cfg })
	require.NoError(t, err)
	defer w.Close()

	// What saveUserConfig does right before persisting
	noteOwnWrite()
	writeConfigFile(t, path, "[pipeline]\nmax_rounds = 4\n")

	select {
	case <-reloads:
		t.Fatal("own write must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "am.toml")
	writeConfigFile(t, path, "[pipeline]\nmax_rounds = 3\n")

	reloads := make(chan *Config, 4)
	w, err := newWatcher(path, 10*time.Millisecond, func(cfg *Config) { reloads <- cfg })
	require.NoError(t, err)
	defer w.Close()

	// Backup rotation writes siblings into the watched directory
	writeConfigFile(t, path+".back1", "[pipeline]\nmax_rounds = 99\n")
	writeConfigFile(t, filepath.Join(dir, "notes.txt"), "unrelated")

	select {
	case <-reloads:
		t.Fatal("sibling file writes must not trigger a reload")
	case <-time.After(300 * time.Millisecond):
	}
}
