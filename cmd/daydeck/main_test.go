package main_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectRoot returns the absolute path to the project root directory.
func projectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err, "failed to get working directory")

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (no go.mod found in any parent directory)")
		}
		dir = parent
	}
}

// buildBinary compiles the daydeck binary into a temp dir and returns its
// path.
func buildBinary(t *testing.T) string {
	t.Helper()

	root := projectRoot(t)
	binPath := filepath.Join(t.TempDir(), "daydeck")

	cmd := exec.Command("go", "build", "-o", binPath, "./cmd/daydeck/")
	cmd.Dir = root
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "go build failed: %s", string(output))
	return binPath
}

func TestBuild_Compiles(t *testing.T) {
	binPath := buildBinary(t)

	info, err := os.Stat(binPath)
	require.NoError(t, err, "binary was not created at %s", binPath)
	assert.Greater(t, info.Size(), int64(0), "binary must not be empty")
}

func TestVersion_Runs(t *testing.T) {
	binPath := buildBinary(t)

	output, err := exec.Command(binPath, "version").CombinedOutput()
	require.NoError(t, err, "daydeck version failed with output: %s", string(output))

	outputStr := strings.TrimSpace(string(output))
	assert.True(t, strings.HasPrefix(outputStr, "daydeck v"),
		"version output must start with the binary name, got %q", outputStr)
}

func TestHelp_ListsCommands(t *testing.T) {
	binPath := buildBinary(t)

	output, err := exec.Command(binPath, "--help").CombinedOutput()
	require.NoError(t, err, "daydeck --help failed with output: %s", string(output))

	for _, sub := range []string{"show", "add", "update", "move", "push", "watch", "history"} {
		assert.Contains(t, string(output), sub, "help must list the %s command", sub)
	}
}

func TestGoVet_Passes(t *testing.T) {
	root := projectRoot(t)

	cmd := exec.Command("go", "vet", "./...")
	cmd.Dir = root

	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "go vet failed with output: %s", string(output))
}
