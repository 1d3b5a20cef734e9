package e2e_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// binaryPath is set once by TestMain for all tests in this package.
var binaryPath string

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "daydeck-e2e")
	if err != nil {
		fmt.Fprintf(os.Stderr, "creating temp dir: %v\n", err)
		os.Exit(1)
	}
	binaryPath = filepath.Join(dir, "daydeck")

	build := exec.Command("go", "build", "-o", binaryPath, "../../cmd/daydeck")
	build.Env = append(os.Environ(), "CGO_ENABLED=0")
	if out, err := build.CombinedOutput(); err != nil {
		fmt.Fprintf(os.Stderr, "go build failed: %v\n%s", err, out)
		os.RemoveAll(dir)
		os.Exit(1)
	}

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

// storedRow is one upserted day document as the fake server keeps it.
type storedRow struct {
	Date      string          `json:"date"`
	Tasks     json.RawMessage `json:"tasks"`
	Summary   json.RawMessage `json:"summary"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// fakeStore is an in-memory stand-in for the PostgREST endpoint: one row
// per date, supporting the select, upsert, and preconditioned-update
// requests the client issues.
type fakeStore struct {
	mu   sync.Mutex
	rows map[string]storedRow
	srv  *httptest.Server
}

func newFakeStore(t *testing.T) *fakeStore {
	t.Helper()

	fs := &fakeStore{rows: make(map[string]storedRow)}
	fs.srv = httptest.NewServer(http.HandlerFunc(fs.handle))
	t.Cleanup(fs.srv.Close)
	return fs
}

func (fs *fakeStore) URL() string { return fs.srv.URL }

// Close stops the server early so tests can simulate an unreachable store.
func (fs *fakeStore) Close() { fs.srv.Close() }

func (fs *fakeStore) handle(w http.ResponseWriter, r *http.Request) {
	if !strings.HasSuffix(r.URL.Path, "/daily_tasks") {
		http.NotFound(w, r)
		return
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	switch r.Method {
	case http.MethodGet:
		date := strings.TrimPrefix(r.URL.Query().Get("date"), "eq.")
		row, ok := fs.rows[date]
		w.Header().Set("Content-Type", "application/json")
		if !ok {
			fmt.Fprint(w, "[]")
			return
		}
		_ = json.NewEncoder(w).Encode([]storedRow{row})

	case http.MethodPost:
		var incoming storedRow
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		now := time.Now().UTC()
		if prev, ok := fs.rows[incoming.Date]; ok {
			incoming.CreatedAt = prev.CreatedAt
		} else {
			incoming.CreatedAt = now
		}
		incoming.UpdatedAt = now
		fs.rows[incoming.Date] = incoming
		w.WriteHeader(http.StatusCreated)

	case http.MethodPatch:
		date := strings.TrimPrefix(r.URL.Query().Get("date"), "eq.")
		wantStamp := strings.TrimPrefix(r.URL.Query().Get("updated_at"), "eq.")
		w.Header().Set("Content-Type", "application/json")

		prev, ok := fs.rows[date]
		if !ok || prev.UpdatedAt.UTC().Format(time.RFC3339Nano) != wantStamp {
			fmt.Fprint(w, "[]")
			return
		}
		var incoming storedRow
		if err := json.NewDecoder(r.Body).Decode(&incoming); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		incoming.CreatedAt = prev.CreatedAt
		incoming.UpdatedAt = time.Now().UTC()
		fs.rows[date] = incoming
		_ = json.NewEncoder(w).Encode([]storedRow{incoming})

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// newProject creates an isolated working directory with a daydeck.toml
// pointing at the given store URL, a private cache dir, and fast retries.
func newProject(t *testing.T, storeURL string) string {
	t.Helper()

	dir := t.TempDir()
	cfg := fmt.Sprintf(`[store]
url = %q
api_key = "test-key"

[retry]
base_delay = "20ms"
max_retries = 2

[realtime]
transport = "off"

[cache]
enabled = true
dir = %q
`, storeURL, filepath.Join(dir, "cache"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "daydeck.toml"), []byte(cfg), 0o644))
	return dir
}

// runDaydeck executes the binary in dir and returns combined output.
func runDaydeck(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command(binaryPath, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "NO_COLOR=1")
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// mustRun executes the binary and fails the test on a non-zero exit.
func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()

	out, err := runDaydeck(t, dir, args...)
	require.NoError(t, err, "daydeck %s failed: %s", strings.Join(args, " "), out)
	return out
}
