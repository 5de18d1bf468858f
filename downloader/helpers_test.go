package downloader

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/handsomefox/threaddl/api"
)

func testConfig() Config {
	return Config{
		Attempts:    3,
		Backoff:     time.Millisecond,
		IdleTimeout: 2 * time.Second,
		ChunkSize:   16,
	}
}

// newTestClient serves every request made by the returned client with handler.
func newTestClient(t *testing.T, handler http.Handler) *api.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	return api.DefaultClient().WithBaseURL(u).WithUserAgent(api.StaticUserAgent("threaddl-test"))
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

type progressEvent struct {
	done, total int
}

// recorder is a Hooks implementation that keeps everything it receives.
type recorder struct {
	mu       sync.Mutex
	logs     []string
	progress []progressEvent
	statuses []string
	done     int

	onLog func(string)
}

func (r *recorder) Log(message string) {
	r.mu.Lock()
	r.logs = append(r.logs, message)
	onLog := r.onLog
	r.mu.Unlock()

	if onLog != nil {
		onLog(message)
	}
}

func (r *recorder) Progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, progressEvent{done, total})
}

func (r *recorder) Status(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses = append(r.statuses, message)
}

func (r *recorder) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.done++
}

func (r *recorder) Logs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.logs...)
}
