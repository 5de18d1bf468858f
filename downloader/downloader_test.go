package downloader

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/handsomefox/threaddl/api"
	"github.com/handsomefox/threaddl/internal/metrics"
)

const threadURL = "https://2ch.su/b/res/312345678.html"

// threadHandler serves a thread page with five images and three videos,
// listed out of posting order, and answers every other path with the path itself.
func threadHandler(fileRequests *atomic.Int64) http.Handler {
	page := `<html><body>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000004.jpg">4</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000000.png">0</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000002.webm">v2</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000003.webp">3</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000001.jpeg">1</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000000.mp4">v0</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000005.png">5</a></figure></div>
<div class="post"><figure class="file"><a href="/b/src/312345678/1700000001.mp4">v1</a></figure></div>
</body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/b/res/312345678.html", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})
	mux.HandleFunc("/b/src/", func(w http.ResponseWriter, r *http.Request) {
		fileRequests.Add(1)
		_, _ = w.Write([]byte(r.URL.Path))
	})
	return mux
}

func TestDownloadAllMediaSequential(t *testing.T) {
	t.Parallel()
	var files atomic.Int64
	client := newTestClient(t, threadHandler(&files))
	base := t.TempDir()
	m := metrics.New()
	rec := new(recorder)

	summary, err := New(client, testConfig(), m).Download(context.TODO(), Request{
		URL:     threadURL,
		BaseDir: base,
		Mode:    ModeAllMedia,
		Workers: 1,
	}, rec)
	require.NoError(t, err)

	assert.Equal(t, int64(8), summary.Saved)
	assert.False(t, summary.Stopped)
	assert.Equal(t, 1, rec.done)
	assert.Equal(t, []progressEvent{
		{0, 5}, {1, 5}, {2, 5}, {3, 5}, {4, 5}, {5, 5},
		{0, 3}, {1, 3}, {2, 3}, {3, 3},
	}, rec.progress)

	threadDir := filepath.Join(base, "312345678")
	assert.Equal(t, []string{
		"1700000000.png", "1700000001.jpeg", "1700000003.webp", "1700000004.jpg", "1700000005.png",
	}, dirEntries(t, filepath.Join(threadDir, "images")))
	assert.Equal(t, []string{
		"1700000000.mp4", "1700000001.mp4", "1700000002.webm",
	}, dirEntries(t, filepath.Join(threadDir, "videos")))

	var saved []string
	for _, l := range rec.Logs() {
		if strings.HasPrefix(l, "Saved: ") {
			saved = append(saved, strings.TrimPrefix(l, "Saved: "))
		}
	}
	assert.Equal(t, []string{
		"1700000000.png", "1700000001.jpeg", "1700000003.webp", "1700000004.jpg", "1700000005.png",
		"1700000000.mp4", "1700000001.mp4", "1700000002.webm",
	}, saved, "files are reported in post order")

	logs := rec.Logs()
	assert.Equal(t, "Starting download with User-Agent: threaddl-test", logs[0])
	assert.Equal(t, "Source: 2ch, Thread ID: 312345678", logs[1])
	assert.Contains(t, logs, "Images found: 5")
	assert.Contains(t, logs, "Videos found: 3")
	assert.Equal(t, "Download complete!", logs[len(logs)-1])
	assert.Equal(t, "Fetching file list…", rec.statuses[0])
	assert.Equal(t, "Download complete!", rec.statuses[len(rec.statuses)-1])

	assert.Equal(t, 8.0, testutil.ToFloat64(m.FilesTotal.WithLabelValues("saved")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.LinksFound.WithLabelValues("2ch", "images")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
}

func TestDownloadSkipExistingTwice(t *testing.T) {
	t.Parallel()
	var files atomic.Int64
	client := newTestClient(t, threadHandler(&files))
	base := t.TempDir()
	d := New(client, testConfig(), nil)
	req := Request{URL: threadURL, BaseDir: base, Mode: ModeAllImages, Workers: 3, SkipExisting: true}

	first, err := d.Download(context.TODO(), req, nil)
	require.NoError(t, err)
	second, err := d.Download(context.TODO(), req, nil)
	require.NoError(t, err)

	assert.Equal(t, int64(5), first.Saved)
	assert.Equal(t, int64(5), second.Skipped)
	assert.Zero(t, second.Saved)
	assert.Equal(t, int64(5), files.Load())
	assert.Len(t, dirEntries(t, filepath.Join(base, "312345678", "images")), 5)
}

func TestDownloadSingleExtension(t *testing.T) {
	t.Parallel()
	tests := []struct {
		mode  MediaMode
		files []string
		logs  []string
	}{
		{
			mode:  "png",
			files: []string{"1700000000.png", "1700000005.png"},
			logs:  []string{"Files found (png): 2"},
		},
		{
			mode: "gif",
			logs: []string{"Files found (gif): 0", "No files with the specified extension found."},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(string(tt.mode), func(t *testing.T) {
			t.Parallel()
			var files atomic.Int64
			client := newTestClient(t, threadHandler(&files))
			base := t.TempDir()
			rec := new(recorder)

			_, err := New(client, testConfig(), nil).Download(context.TODO(), Request{
				URL: threadURL, BaseDir: base, Mode: tt.mode, Workers: 2,
			}, rec)
			require.NoError(t, err)

			assert.Equal(t, tt.files, dirEntries(t, filepath.Join(base, "312345678", string(tt.mode))))
			for _, l := range tt.logs {
				assert.Contains(t, rec.Logs(), l)
			}
			assert.Equal(t, 1, rec.done)
		})
	}
}

func TestDownloadInvalidURL(t *testing.T) {
	t.Parallel()
	rec := new(recorder)
	base := t.TempDir()

	_, err := New(api.DefaultClient(), testConfig(), nil).Download(context.TODO(), Request{
		URL: "https://example.com/b/res/1.html", BaseDir: base,
	}, rec)

	var ve *api.ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, api.ErrUnsupportedHost)
	assert.Equal(t, 1, rec.done)
	assert.Empty(t, dirEntries(t, base), "nothing is created for an invalid url")
	assert.True(t, strings.HasPrefix(rec.Logs()[0], "Download error: "))
}

func TestDownloadStop(t *testing.T) {
	t.Parallel()
	var files atomic.Int64
	client := newTestClient(t, threadHandler(&files))
	base := t.TempDir()
	d := New(client, testConfig(), nil)
	assert.False(t, d.Stop(), "nothing to stop yet")

	rec := &recorder{onLog: func(msg string) {
		if strings.HasPrefix(msg, "Saved: ") {
			d.Stop()
		}
	}}
	summary, err := d.Download(context.TODO(), Request{URL: threadURL, BaseDir: base, Mode: ModeAllMedia, Workers: 1}, rec)
	require.NoError(t, err)

	assert.True(t, summary.Stopped)
	assert.Equal(t, int64(1), summary.Saved)
	assert.Equal(t, int64(1), files.Load())
	assert.Equal(t, 1, rec.done)
	assert.Contains(t, rec.Logs(), "Stop requested…")
	assert.Equal(t, "Download stopped by user.", rec.Logs()[len(rec.Logs())-1])
	assert.Equal(t, "Download stopped by user", rec.statuses[len(rec.statuses)-1])
	assert.Empty(t, dirEntries(t, filepath.Join(base, "312345678", "videos")), "videos are not started after a stop")
}

func TestDownloadBusy(t *testing.T) {
	t.Parallel()
	var files atomic.Int64
	client := newTestClient(t, threadHandler(&files))
	d := New(client, testConfig(), nil)

	inner := new(recorder)
	var innerErr error
	rec := &recorder{}
	rec.onLog = func(msg string) {
		if msg == "Images found: 5" {
			_, innerErr = d.Download(context.TODO(), Request{URL: threadURL, BaseDir: t.TempDir()}, inner)
		}
	}

	_, err := d.Download(context.TODO(), Request{URL: threadURL, BaseDir: t.TempDir(), Mode: ModeAllImages, Workers: 1}, rec)
	require.NoError(t, err)
	assert.ErrorIs(t, innerErr, ErrBusy)
	assert.Equal(t, 1, inner.done)
	assert.Equal(t, 1, rec.done)
}

func TestCheck(t *testing.T) {
	t.Parallel()
	var files atomic.Int64
	client := newTestClient(t, threadHandler(&files))
	var logs []string

	images, videos, err := New(client, testConfig(), nil).Check(context.TODO(), threadURL, func(s string) { logs = append(logs, s) })
	require.NoError(t, err)

	assert.Equal(t, 5, images)
	assert.Equal(t, 3, videos)
	assert.Equal(t, fmt.Sprintf("Checking URL: %s", threadURL), logs[0])
	assert.Zero(t, files.Load())

	_, _, err = New(client, testConfig(), nil).Check(context.TODO(), "ftp://2ch.su/b/res/1.html", nil)
	assert.ErrorIs(t, err, api.ErrInvalidURL)
}

func TestParseMediaMode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    MediaMode
		wantErr bool
	}{
		{in: "all_media", want: ModeAllMedia},
		{in: "ALL_IMAGES", want: ModeAllImages},
		{in: "all_videos", want: ModeAllVideos},
		{in: ".webm", want: "webm"},
		{in: "png", want: "png"},
		{in: "", wantErr: true},
		{in: "../x", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParseMediaMode(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidMode, tt.in)
			continue
		}
		assert.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}
