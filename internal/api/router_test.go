package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fatihx64/yt-dlp-gui/internal/api/controllers"
	"github.com/Fatihx64/yt-dlp-gui/internal/app"
	"github.com/Fatihx64/yt-dlp-gui/internal/cache"
	"github.com/Fatihx64/yt-dlp-gui/internal/config"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/engine"
	"github.com/Fatihx64/yt-dlp-gui/internal/events"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
	"github.com/Fatihx64/yt-dlp-gui/internal/ws"
	"github.com/Fatihx64/yt-dlp-gui/internal/ytdlp"
)

// stubRunner blocks until released or cancelled, standing in for the real
// process supervisor.
type stubRunner struct {
	release chan struct{}
	cancel  chan struct{}
	once    sync.Once
}

func newStubRunner() *stubRunner {
	return &stubRunner{release: make(chan struct{}), cancel: make(chan struct{})}
}

func (r *stubRunner) Run(ctx context.Context, job ytdlp.Job, onProgress func(domain.DownloadProgress)) (string, error) {
	select {
	case <-r.release:
		return job.OutputDir, nil
	case <-r.cancel:
		return "", domain.ErrCancelled
	case <-ctx.Done():
		return "", domain.ErrCancelled
	}
}

func (r *stubRunner) Cancel() { r.once.Do(func() { close(r.cancel) }) }

type testAPI struct {
	e     *echo.Echo
	app   *app.Context
	store *queue.Store

	mu      sync.Mutex
	runners []*stubRunner
}

func (a *testAPI) runner(i int) *stubRunner {
	a.mu.Lock()
	defer a.mu.Unlock()
	if i >= len(a.runners) {
		return nil
	}
	return a.runners[i]
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	stateDir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: 8080},
		Download: config.DownloadConfig{
			OutputPath:          t.TempDir(),
			ConcurrentDownloads: 2,
			DefaultFormat:       "video_audio",
			DefaultQuality:      "1080",
			SubtitleLanguages:   []string{"en"},
		},
		Store:   config.StoreConfig{StateDir: stateDir},
		History: config.HistoryConfig{RetentionDays: 90, PruneHours: 24},
	}

	bus := events.NewBus()
	store, err := queue.Open(cfg.QueueFile(), bus, zerolog.Nop())
	require.NoError(t, err)

	hist, err := history.Open(filepath.Join(stateDir, "history.db"), zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { hist.Close() })

	a := &testAPI{store: store}
	factory := func() engine.Runner {
		r := newStubRunner()
		a.mu.Lock()
		a.runners = append(a.runners, r)
		a.mu.Unlock()
		return r
	}

	orch := engine.New(cfg, store, bus, factory, func() bool { return true }, zerolog.Nop())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		orch.Shutdown(ctx)
	})

	appCtx := app.NewContext(cfg, zerolog.Nop(), "test")
	appCtx.Bus = bus
	appCtx.Queue = store
	appCtx.History = hist
	appCtx.Engine = orch
	appCtx.Hub = ws.NewHub(bus, zerolog.Nop())
	appCtx.InfoCache = cache.NewInfoCache(filepath.Join(stateDir, "info"), 0)

	e := echo.New()
	RegisterRoutes(e, appCtx)

	a.e = e
	a.app = appCtx
	return a
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) addItem(t *testing.T, url string) string {
	t.Helper()

	rec := a.do(t, http.MethodPost, "/api/queue", `{"url":"`+url+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp controllers.AddResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.IDs, 1)
	return resp.IDs[0]
}

func (a *testAPI) waitStatus(t *testing.T, id string, want domain.Status) {
	t.Helper()

	require.Eventually(t, func() bool {
		item, ok := a.store.Get(id)
		return ok && item.Status == want
	}, 5*time.Second, 10*time.Millisecond, "item %s never reached %s", id, want)
}

func TestAddAndListQueue(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue",
		`{"url":"https://example.com/v1","quality":"720","title":"First"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp controllers.AddResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.IDs, 1)

	rec = a.do(t, http.MethodGet, "/api/queue", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var items []domain.QueueItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "First", items[0].Title)
	assert.Equal(t, domain.StatusPending, items[0].Status)
	assert.Equal(t, "bestvideo[height<=720]+bestaudio/best[height<=720]", items[0].FormatSpec)
	assert.Equal(t, "720", items[0].Quality)
}

func TestAddBatchURLs(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue",
		`{"urls":["https://example.com/a","https://example.com/b","https://example.com/c"]}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp controllers.AddResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.IDs, 3)
	assert.Len(t, a.store.List(), 3)
}

func TestAddAudioFormatCarriesExtraArgs(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue",
		`{"url":"https://example.com/song","format":"audio_mp3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	items := a.store.List()
	require.Len(t, items, 1)
	assert.Equal(t, "bestaudio", items[0].FormatSpec)
	assert.Contains(t, items[0].Options.ExtraArgs, "--extract-audio")
	assert.Contains(t, items[0].Options.ExtraArgs, "mp3")
}

func TestAddRejectsMissingURL(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue", `{"title":"nothing"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAddRejectsBadOptions(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue",
		`{"url":"https://example.com/v","options":{"rate_limit":"fast"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQueueItem(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/v1")

	rec := a.do(t, http.MethodGet, "/api/queue/"+id, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var item domain.QueueItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, id, item.ID)

	rec = a.do(t, http.MethodGet, "/api/queue/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemoveQueueItem(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/v1")

	rec := a.do(t, http.MethodDelete, "/api/queue/"+id, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, a.store.List())

	rec = a.do(t, http.MethodDelete, "/api/queue/"+id, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMoveQueueItem(t *testing.T) {
	a := newTestAPI(t)
	first := a.addItem(t, "https://example.com/1")
	second := a.addItem(t, "https://example.com/2")
	third := a.addItem(t, "https://example.com/3")

	rec := a.do(t, http.MethodPost, "/api/queue/"+third+"/move", `{"delta":-2}`)
	require.Equal(t, http.StatusOK, rec.Code)

	items := a.store.List()
	require.Len(t, items, 3)
	assert.Equal(t, []string{third, first, second}, []string{items[0].ID, items[1].ID, items[2].ID})

	rec = a.do(t, http.MethodPost, "/api/queue/"+first+"/move", `{"delta":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/queue/nope/move", `{"delta":1}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestClearCompletedKeepsOthers(t *testing.T) {
	a := newTestAPI(t)
	done := a.addItem(t, "https://example.com/done")
	kept := a.addItem(t, "https://example.com/kept")

	a.store.Update(done, func(it *domain.QueueItem) { it.Status = domain.StatusCompleted })

	rec := a.do(t, http.MethodDelete, "/api/queue/completed", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	items := a.store.List()
	require.Len(t, items, 1)
	assert.Equal(t, kept, items[0].ID)
}

func TestClearAllRefusedWhileActive(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/busy")

	rec := a.do(t, http.MethodPost, "/api/queue/"+id+"/start", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	a.waitStatus(t, id, domain.StatusDownloading)

	rec = a.do(t, http.MethodDelete, "/api/queue", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/queue/"+id+"/cancel", "")
	require.Equal(t, http.StatusAccepted, rec.Code)
	a.waitStatus(t, id, domain.StatusCancelled)
	require.Eventually(t, func() bool {
		return a.app.Engine.ActiveCount() == 0
	}, 5*time.Second, 10*time.Millisecond)

	rec = a.do(t, http.MethodDelete, "/api/queue", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, a.store.List())
}

func TestEngineStartStopStatus(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/downloads/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var st controllers.EngineStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Running)

	id := a.addItem(t, "https://example.com/v1")

	rec = a.do(t, http.MethodPost, "/api/downloads/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.True(t, st.Running)

	a.waitStatus(t, id, domain.StatusDownloading)

	rec = a.do(t, http.MethodPost, "/api/downloads/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &st))
	assert.False(t, st.Running)
	assert.Equal(t, 1, st.Active)

	close(a.runner(0).release)
	a.waitStatus(t, id, domain.StatusCompleted)
}

func TestEnginePauseCancelsActive(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/v1")

	rec := a.do(t, http.MethodPost, "/api/downloads/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	a.waitStatus(t, id, domain.StatusDownloading)

	rec = a.do(t, http.MethodPost, "/api/downloads/pause", "")
	require.Equal(t, http.StatusOK, rec.Code)
	a.waitStatus(t, id, domain.StatusCancelled)
}

func TestStartOneUnknownItem(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/queue/nope/start", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCancelInactiveItemRejected(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/v1")

	rec := a.do(t, http.MethodPost, "/api/queue/"+id+"/cancel", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/api/queue/nope/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRetryFailedItem(t *testing.T) {
	a := newTestAPI(t)
	id := a.addItem(t, "https://example.com/v1")

	rec := a.do(t, http.MethodPost, "/api/queue/"+id+"/retry", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "pending items are not retryable")

	a.store.Update(id, func(it *domain.QueueItem) {
		it.Status = domain.StatusFailed
		it.ErrorMessage = "boom"
	})

	rec = a.do(t, http.MethodPost, "/api/queue/"+id+"/retry", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var item domain.QueueItem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &item))
	assert.Equal(t, domain.StatusPending, item.Status)
	assert.Equal(t, "boom", item.ErrorMessage, "message stays readable until the next outcome")
}

func TestHistoryEndpoints(t *testing.T) {
	a := newTestAPI(t)

	require.NoError(t, a.app.History.Record(history.Entry{
		ItemID: "q-1", URL: "https://example.com/old", Title: "Old",
		Status: "completed", FinishedAt: time.Now().Add(-time.Hour),
	}))
	require.NoError(t, a.app.History.Record(history.Entry{
		ItemID: "q-2", URL: "https://example.com/new", Title: "New",
		Status: "failed", ErrorMessage: "boom", FinishedAt: time.Now(),
	}))

	rec := a.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []history.Entry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "New", entries[0].Title)

	rec = a.do(t, http.MethodGet, "/api/history?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Len(t, entries, 1)

	rec = a.do(t, http.MethodGet, "/api/history?limit=-2", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodDelete, "/api/history", "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/history", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Empty(t, entries)
}

func TestMediaInfoFromCache(t *testing.T) {
	a := newTestAPI(t)

	url := "https://example.com/watch?v=1"
	require.NoError(t, a.app.InfoCache.Put(url, &ytdlp.VideoInfo{
		URL: url, Title: "Cached Video", Duration: 90,
	}))

	rec := a.do(t, http.MethodGet, "/api/media/info?url="+url, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var info ytdlp.VideoInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &info))
	assert.Equal(t, "Cached Video", info.Title)
}

func TestMediaInfoWithoutTool(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/media/info?url=https://example.com/v", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/media/info", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFormatsListing(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/formats", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp controllers.FormatsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Qualities)
	assert.NotEmpty(t, resp.Formats)
	assert.Equal(t, "best", resp.Qualities[0].Key)
}

func TestToolsReportsMissingBinary(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/tools", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp controllers.ToolsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "test", resp.AppVersion)
	require.Len(t, resp.Tools, 2)
	assert.Equal(t, "yt-dlp", resp.Tools[0].Name)
	assert.True(t, resp.Tools[0].Required)
	assert.Equal(t, "ffmpeg", resp.Tools[1].Name)
	assert.False(t, resp.Tools[1].Required)
}
