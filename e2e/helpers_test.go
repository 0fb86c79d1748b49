//go:build e2e

package e2e_test

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sagarc03/gallery/clientcli"
)

var (
	binaries      = map[string]*builtBinary{}
	binariesMu    sync.Mutex
	sharedTempDir string
)

type builtBinary struct {
	once sync.Once
	path string
	err  error
}

// TestMain sets up and tears down shared test resources.
func TestMain(m *testing.M) {
	var err error
	sharedTempDir, err = os.MkdirTemp("", "gallery-e2e-*")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create temp dir: %v\n", err)
		os.Exit(1)
	}

	code := m.Run()

	_ = os.RemoveAll(sharedTempDir)

	os.Exit(code)
}

// ServerConfig holds configuration for starting the gallery server.
type ServerConfig struct {
	Port          int
	StoragePath   string
	IndexType     string // memory, sqlite, postgres, redis
	IndexDSN      string
	MaxUploadSize int64
}

// buildBinary compiles ./cmd/<name> once per test run.
func buildBinary(t *testing.T, name string) string {
	t.Helper()

	binariesMu.Lock()
	b, ok := binaries[name]
	if !ok {
		b = &builtBinary{}
		binaries[name] = b
	}
	binariesMu.Unlock()

	b.once.Do(func() {
		b.path = filepath.Join(sharedTempDir, name)

		cmd := exec.Command("go", "build", "-o", b.path, "./cmd/"+name)
		cmd.Dir = getProjectRoot(t)
		output, err := cmd.CombinedOutput()
		if err != nil {
			b.err = fmt.Errorf("build %s: %w\nOutput: %s", name, err, output)
		}
	})

	if b.err != nil {
		t.Fatalf("failed to build binary: %v", b.err)
	}

	return b.path
}

// getProjectRoot returns the directory holding go.mod.
func getProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// createConfigFile writes a server config file and returns its path.
func createConfigFile(t *testing.T, cfg ServerConfig) string {
	t.Helper()

	indexType := cfg.IndexType
	if indexType == "" {
		indexType = "memory"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `server:
  port: %d
  max_upload_size: %d

storage:
  type: filesystem
  path: "%s"

index:
  type: %s
  dsn: "%s"

log:
  level: error
`,
		cfg.Port,
		cfg.MaxUploadSize,
		cfg.StoragePath,
		indexType,
		cfg.IndexDSN,
	)

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	err := os.WriteFile(configPath, []byte(sb.String()), 0o600)
	require.NoError(t, err, "write config file")

	return configPath
}

// runGallery runs a one-shot gallery subcommand and returns its output.
func runGallery(t *testing.T, cfg ServerConfig, args ...string) (string, error) {
	t.Helper()

	binary := buildBinary(t, "gallery")
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(binary, append(args, "--config", configPath)...)
	cmd.Dir = t.TempDir()
	output, err := cmd.CombinedOutput()
	return string(output), err
}

// startServer starts the gallery binary with the given configuration and
// waits until the startup recovery has finished.
// Returns the base URL and a cleanup function that must be called to stop the server.
func startServer(t *testing.T, cfg ServerConfig) (string, func()) {
	t.Helper()

	binary := buildBinary(t, "gallery")
	configPath := createConfigFile(t, cfg)

	cmd := exec.Command(binary, "serve", "--config", configPath)
	// Keep a stray .env or config.yaml out of the picture
	cmd.Dir = t.TempDir()
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Start()
	require.NoError(t, err, "start server")

	baseURL := fmt.Sprintf("http://localhost:%d", cfg.Port)

	cleanup := func() {
		if cmd.Process != nil {
			_ = cmd.Process.Signal(syscall.SIGTERM)
			_ = cmd.Wait()
		}
	}

	if !waitForReady(baseURL, 10*time.Second) {
		cleanup()
		t.Fatalf("server failed to become ready within 10s")
	}

	return baseURL, cleanup
}

// waitForReady polls /readyz until it answers 200 or times out.
func waitForReady(baseURL string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/readyz")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	return false
}

// getOpenPort finds an available TCP port.
func getOpenPort(t *testing.T) int {
	t.Helper()

	l, err := net.Listen("tcp", ":0")
	require.NoError(t, err, "find open port")

	addr := l.Addr().(*net.TCPAddr)
	port := addr.Port

	err = l.Close()
	require.NoError(t, err, "close port")

	return port
}

// newClient returns a clientcli.Client for baseURL.
func newClient(t *testing.T, baseURL string) *clientcli.Client {
	t.Helper()

	client, err := clientcli.New(&clientcli.Config{Endpoint: baseURL})
	require.NoError(t, err)
	return client
}

// writeFile creates a file under dir and returns its path.
func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

func testContext(t *testing.T) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}
