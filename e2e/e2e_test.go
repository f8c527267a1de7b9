//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/sharepoint-go/testutil"
)

var binaryPath string

func TestMain(m *testing.M) {
	root := testutil.FindModuleRoot(".")
	testutil.LoadDotEnv(filepath.Join(root, ".env"))
	testutil.ValidateAllowlist("SHP_SITE_URL")

	tmpDir, err := os.MkdirTemp("", "sharepoint-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}

	binaryPath = filepath.Join(tmpDir, "sharepoint-go")

	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Dir = root
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "building binary: %v\n", err)
		os.RemoveAll(tmpDir)
		os.Exit(1)
	}

	code := m.Run()

	os.RemoveAll(tmpDir)
	os.Exit(code)
}

// isolatedEnv points config and journal at a temp dir so the suite never
// reads or writes the developer's real files.
func isolatedEnv(t *testing.T) []string {
	t.Helper()

	dir := t.TempDir()

	return append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"XDG_DATA_HOME="+filepath.Join(dir, "data"),
		"SHAREPOINT_GO_CONFIG="+filepath.Join(dir, "config.toml"),
	)
}

func runCLI(t *testing.T, env []string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := exec.Command(binaryPath, args...)
	cmd.Env = env
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, env []string, args ...string) string {
	t.Helper()

	stdout, stderr, err := runCLI(t, env, args...)
	require.NoError(t, err, "sharepoint-go %v failed\nstderr: %s", args, stderr)

	return stdout
}

func TestE2E_DocumentLifecycle(t *testing.T) {
	env := isolatedEnv(t)
	folder := fmt.Sprintf("e2e-%d", time.Now().UnixNano())

	mustRun(t, env, "mkdir", folder)
	t.Cleanup(func() {
		runCLI(t, env, "rm", folder, "hello.txt")
		runCLI(t, env, "rmdir", folder)
	})

	local := filepath.Join(t.TempDir(), "hello.txt")
	require.NoError(t, os.WriteFile(local, []byte("hello from e2e"), 0o600))

	mustRun(t, env, "put", local, folder)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, env, "--json", "docs", folder)), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "hello.txt", docs[0]["name"])

	assert.Equal(t, "hello from e2e\n", mustRun(t, env, "cat", folder, "hello.txt"))

	dest := filepath.Join(t.TempDir(), "nested", "copy.txt")
	mustRun(t, env, "get", folder, "hello.txt", dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "hello from e2e", string(got))

	mustRun(t, env, "meta", folder, "hello.txt", "Title=e2e")

	var meta map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, env, "--json", "meta", folder, "hello.txt")), &meta))
	assert.Equal(t, true, meta["success"])

	// Non-empty folder is refused.
	_, _, err = runCLI(t, env, "rmdir", folder)
	assert.Error(t, err)

	mustRun(t, env, "rm", folder, "hello.txt")
	mustRun(t, env, "rmdir", folder)

	var entries []map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, env, "--json", "history", "--limit", "3")), &entries))
	require.NotEmpty(t, entries)
	assert.Equal(t, "delete_folder", entries[0]["operation"])
}

func TestE2E_TreeOfLibraryRoot(t *testing.T) {
	env := isolatedEnv(t)

	var tree map[string]any
	require.NoError(t, json.Unmarshal([]byte(mustRun(t, env, "--json", "tree")), &tree))

	assert.Equal(t, "folder", tree["type"])
	assert.NotContains(t, tree, "error")
}

func TestE2E_ServeHTTPHealth(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	env := append(isolatedEnv(t), "HTTP_HOST=127.0.0.1", "HTTP_PORT="+strconv.Itoa(port))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "serve", "--transport", "http")
	cmd.Env = env
	require.NoError(t, cmd.Start())

	t.Cleanup(func() {
		cmd.Process.Signal(os.Interrupt)
		cmd.Wait()
	})

	url := fmt.Sprintf("http://127.0.0.1:%d/health", port)

	var health map[string]any

	require.Eventually(t, func() bool {
		resp, getErr := http.Get(url)
		if getErr != nil {
			return false
		}
		defer resp.Body.Close()

		return resp.StatusCode == http.StatusOK && json.NewDecoder(resp.Body).Decode(&health) == nil
	}, 30*time.Second, 250*time.Millisecond)

	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "http", health["transport"])
	assert.InDelta(t, 14, health["tools"], 0)
}
