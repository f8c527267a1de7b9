package config

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHolder(t *testing.T) {
	cfg := DefaultConfig()
	h := NewHolder(cfg, "/etc/sharepoint-go/config.toml")

	require.NotNil(t, h)
	assert.Same(t, cfg, h.Config())
	assert.Equal(t, "/etc/sharepoint-go/config.toml", h.Path())
}

func TestHolder_Update(t *testing.T) {
	cfg1 := DefaultConfig()
	h := NewHolder(cfg1, "/tmp/config.toml")

	cfg2 := DefaultConfig()
	cfg2.Crawl.MaxDepth = 3
	h.Update(cfg2)

	assert.Same(t, cfg2, h.Config())
}

func TestHolder_ConcurrentReadWrite(t *testing.T) {
	h := NewHolder(DefaultConfig(), "/tmp/config.toml")

	var wg sync.WaitGroup

	for range 10 {
		wg.Add(2)

		go func() {
			defer wg.Done()

			for range 100 {
				assert.NotNil(t, h.Config())
			}
		}()

		go func() {
			defer wg.Done()

			for range 100 {
				h.Update(DefaultConfig())
			}
		}()
	}

	wg.Wait()
}

func TestReload_RejectsInvalidConfig(t *testing.T) {
	path := writeTestConfig(t, "[crawl]\nmax_depth = 4\n")
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path)
	require.NoError(t, os.WriteFile(path, []byte("[crawl]\nmax_depth = 0\n"), 0o600))

	reload(h, EnvOverrides{}, slog.New(slog.DiscardHandler))

	assert.Same(t, initial, h.Config())
}

func TestReload_KeepsServerSection(t *testing.T) {
	path := writeTestConfig(t, "[server]\ntransport = \"http\"\n")
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path)
	require.NoError(t, os.WriteFile(path, []byte("[server]\ntransport = \"stdio\"\n[crawl]\nmax_depth = 9\n"), 0o600))

	reload(h, EnvOverrides{}, slog.New(slog.DiscardHandler))

	assert.Equal(t, 9, h.Config().Crawl.MaxDepth)
	assert.Equal(t, "http", h.Config().Server.Transport)
}

func TestWatch_PicksUpFileChange(t *testing.T) {
	path := writeTestConfig(t, "[crawl]\nmax_depth = 4\n")
	initial, err := Load(path)
	require.NoError(t, err)

	h := NewHolder(initial, path)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() { done <- Watch(ctx, h, EnvOverrides{}, slog.New(slog.DiscardHandler)) }()

	// Give the watcher time to register before writing.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte("[crawl]\nmax_depth = 8\n"), 0o600))

	assert.Eventually(t, func() bool {
		return h.Config().Crawl.MaxDepth == 8
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_EmptyPathReturnsImmediately(t *testing.T) {
	h := NewHolder(DefaultConfig(), "")
	assert.NoError(t, Watch(t.Context(), h, EnvOverrides{}, slog.New(slog.DiscardHandler)))
}
