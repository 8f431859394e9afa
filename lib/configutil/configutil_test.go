package configutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port   int      `json:"port"`
	Name   string   `json:"name"`
	Denied []string `json:"denied"`
	Nested struct {
		Retries int `json:"retries"`
	} `json:"nested"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// defaults
		port: 8080,
		name: "mightstone",
		nested: {retries: 2},
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{port: 9090, denied: ["Budget"]}`), 0600))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "mightstone", cfg.Name)
	require.Equal(t, 2, cfg.Nested.Retries)
	require.Equal(t, []string{"Budget"}, cfg.Denied)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "denylist.txt")
	require.NoError(t, os.WriteFile(path, []byte("Budget\n"), 0600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan struct{}, 4)
	require.NoError(t, WatchFile(ctx, path, func() {
		changed <- struct{}{}
	}))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0600))
	require.NoError(t, os.WriteFile(path, []byte("Budget\nCreatures\n"), 0600))

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("no change notification")
	}
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, "conf/config.local.json5", LocalPath("conf/config.json5"))
	require.Equal(t, "config.local", LocalPath("config"))
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "mightstone.json5"), []byte(`{port: 7000}`), 0600))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { os.Chdir(wd) })

	cfg, err := ReadRecursively[testConfig]("mightstone.json5")
	require.NoError(t, err)
	require.Equal(t, 7000, cfg.Port)
}
