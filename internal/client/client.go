// Package client drives a running daemon over its HTTP API. The CLI uses
// it whenever a daemon owns the state dir; commands fall back to direct
// store access when no daemon is reachable.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Fatihx64/yt-dlp-gui/internal/api/controllers"
	"github.com/Fatihx64/yt-dlp-gui/internal/domain"
	"github.com/Fatihx64/yt-dlp-gui/internal/history"
	"github.com/Fatihx64/yt-dlp-gui/internal/queue"
)

type Client struct {
	base *url.URL
	http *http.Client
}

// New builds a client for bind, a host:port or full URL. Media-info probes
// can shell out to yt-dlp on the daemon side, so the timeout is generous.
func New(bind string) (*Client, error) {
	bind = strings.TrimSpace(bind)
	if bind == "" {
		return nil, errors.New("empty server address")
	}
	if !strings.Contains(bind, "://") {
		bind = "http://" + bind
	}
	base, err := url.Parse(bind)
	if err != nil {
		return nil, err
	}
	base.Path = ""
	base.RawQuery = ""
	base.Fragment = ""

	return &Client{
		base: base,
		http: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

// IsUnreachable reports whether err means no daemon answered at all, as
// opposed to a daemon that answered with an error.
func IsUnreachable(err error) bool {
	if err == nil {
		return false
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		err = urlErr.Err
	}
	var opErr *net.OpError
	return errors.As(err, &opErr)
}

// Ping checks that a daemon is answering.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/api/downloads/status", nil, nil)
}

func (c *Client) Queue(ctx context.Context) ([]domain.QueueItem, error) {
	var items []domain.QueueItem
	err := c.do(ctx, http.MethodGet, "/api/queue", nil, &items)
	return items, err
}

func (c *Client) Add(ctx context.Context, req controllers.AddRequest) (controllers.AddResponse, error) {
	var resp controllers.AddResponse
	err := c.do(ctx, http.MethodPost, "/api/queue", req, &resp)
	return resp, err
}

func (c *Client) Remove(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/queue/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Move(ctx context.Context, id string, delta int) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/move",
		controllers.MoveRequest{Delta: delta}, nil)
}

func (c *Client) Retry(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/retry", nil, nil)
}

func (c *Client) CancelItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/cancel", nil, nil)
}

func (c *Client) StartItem(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(id)+"/start", nil, nil)
}

func (c *Client) Start(ctx context.Context) (controllers.EngineStatus, error) {
	var st controllers.EngineStatus
	err := c.do(ctx, http.MethodPost, "/api/downloads/start", nil, &st)
	return st, err
}

func (c *Client) Stop(ctx context.Context) (controllers.EngineStatus, error) {
	var st controllers.EngineStatus
	err := c.do(ctx, http.MethodPost, "/api/downloads/stop", nil, &st)
	return st, err
}

func (c *Client) Pause(ctx context.Context) (controllers.EngineStatus, error) {
	var st controllers.EngineStatus
	err := c.do(ctx, http.MethodPost, "/api/downloads/pause", nil, &st)
	return st, err
}

func (c *Client) Status(ctx context.Context) (controllers.EngineStatus, error) {
	var st controllers.EngineStatus
	err := c.do(ctx, http.MethodGet, "/api/downloads/status", nil, &st)
	return st, err
}

func (c *Client) Stats(ctx context.Context) (queue.Stats, error) {
	var st queue.Stats
	err := c.do(ctx, http.MethodGet, "/api/queue/stats", nil, &st)
	return st, err
}

func (c *Client) ClearCompleted(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/queue/completed", nil, nil)
}

func (c *Client) ClearAll(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/queue", nil, nil)
}

func (c *Client) History(ctx context.Context, limit int) ([]history.Entry, error) {
	path := "/api/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var entries []history.Entry
	err := c.do(ctx, http.MethodGet, path, nil, &entries)
	return entries, err
}

func (c *Client) ClearHistory(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/api/history", nil, nil)
}

func (c *Client) Tools(ctx context.Context) (controllers.ToolsResponse, error) {
	var resp controllers.ToolsResponse
	err := c.do(ctx, http.MethodGet, "/api/tools", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	ref, err := url.Parse(path)
	if err != nil {
		return err
	}
	endpoint := c.base.ResolveReference(ref)

	var body *bytes.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var problem struct {
			Message any `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&problem) == nil && problem.Message != nil {
			return fmt.Errorf("daemon: %v", problem.Message)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
