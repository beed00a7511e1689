package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Fatihx64/yt-dlp-gui/internal/api/controllers"
	"github.com/Fatihx64/yt-dlp-gui/internal/client"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
)

func TestNewNormalizesBareHostPort(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(controllers.EngineStatus{Running: true})
	}))
	defer srv.Close()

	c, err := client.New(srv.Listener.Addr().String())
	require.NoError(t, err)

	require.NoError(t, c.Ping(context.Background()))
	assert.Equal(t, "/api/downloads/status", gotPath)
}

func TestNewRejectsEmptyAddress(t *testing.T) {
	_, err := client.New("   ")
	require.Error(t, err)
}

func TestAddPostsRequestBody(t *testing.T) {
	var gotMethod string
	var gotReq controllers.AddRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(controllers.AddResponse{IDs: []string{"q-1"}})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	resp, err := c.Add(context.Background(), controllers.AddRequest{
		URL:     "https://example.com/watch?v=1",
		Format:  "audio_only",
		Quality: "720",
	})
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "https://example.com/watch?v=1", gotReq.URL)
	assert.Equal(t, "audio_only", gotReq.Format)
	assert.Equal(t, []string{"q-1"}, resp.IDs)
}

func TestQueueDecodesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]domain.QueueItem{
			{ID: "q-1", URL: "https://example.com/a", Status: domain.StatusPending},
			{ID: "q-2", URL: "https://example.com/b", Status: domain.StatusCompleted},
		})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	items, err := c.Queue(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "q-1", items[0].ID)
	assert.Equal(t, domain.StatusCompleted, items[1].Status)
}

func TestHistoryBuildsLimitQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	_, err = c.History(context.Background(), 25)
	require.NoError(t, err)
	assert.Equal(t, "limit=25", gotQuery)

	_, err = c.History(context.Background(), 0)
	require.NoError(t, err)
	assert.Empty(t, gotQuery)
}

func TestMoveEscapesID(t *testing.T) {
	var gotPath string
	var gotReq controllers.MoveRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.EscapedPath()
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	require.NoError(t, c.Move(context.Background(), "q/1", -2))
	assert.Equal(t, "/api/queue/q%2F1/move", gotPath)
	assert.Equal(t, -2, gotReq.Delta)
}

func TestErrorBodySurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"message":"item is not active"}`))
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	err = c.CancelItem(context.Background(), "q-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "item is not active")
	assert.False(t, client.IsUnreachable(err))
}

func TestStatusWithoutBodyReportsCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := srv.URL
	srv.Close()

	c, err := client.New(addr)
	require.NoError(t, err)

	err = c.Ping(context.Background())
	require.Error(t, err)
	assert.True(t, client.IsUnreachable(err))

	_, statsErr := c.Stats(context.Background())
	assert.True(t, client.IsUnreachable(statsErr))
}

func TestNoContentResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Remove(ctx, "q-1"))
	require.NoError(t, c.ClearCompleted(ctx))
	require.NoError(t, c.ClearAll(ctx))
	require.NoError(t, c.ClearHistory(ctx))
}

func TestStatsDecodes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(queue.Stats{Total: 4, Downloading: 1, Completed: 2, Failed: 1})
	}))
	defer srv.Close()

	c, err := client.New(srv.URL)
	require.NoError(t, err)

	st, err := c.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, st.Total)
	assert.Equal(t, 1, st.Downloading)
}
