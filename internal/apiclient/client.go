// Package apiclient talks to the habit JSON API.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"habitgrid/internal/calendar"
	"habitgrid/internal/model"
)

// APIError is a non-2xx reply or an {"ok":false} body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("habit api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	user, pass string
	httpClient *http.Client
}

type Option func(*Client)

func WithBasicAuth(user, pass string) Option {
	return func(c *Client) { c.user, c.pass = user, pass }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type habitsReply struct {
	envelope
	Habits []model.Habit `json:"habits"`
}

type logsReply struct {
	envelope
	Logs []struct {
		HabitID int64        `json:"habitId"`
		LogDate string       `json:"logDate"`
		Status  model.Status `json:"status"`
	} `json:"logs"`
}

type setLogBody struct {
	HabitID int64  `json:"habitId"`
	Date    string `json:"date"`
	Status  string `json:"status,omitempty"`
}

func (c *Client) ListHabits(ctx context.Context) ([]model.Habit, error) {
	var reply habitsReply
	if err := c.do(ctx, http.MethodGet, "/api/habits", nil, &reply, &reply.envelope); err != nil {
		return nil, err
	}
	return reply.Habits, nil
}

func (c *Client) ListLogs(ctx context.Context, start, end time.Time) ([]model.LogEntry, error) {
	q := url.Values{}
	q.Set("start", calendar.FormatDate(start))
	q.Set("end", calendar.FormatDate(end))

	var reply logsReply
	if err := c.do(ctx, http.MethodGet, "/api/logs?"+q.Encode(), nil, &reply, &reply.envelope); err != nil {
		return nil, err
	}

	entries := make([]model.LogEntry, 0, len(reply.Logs))
	for _, row := range reply.Logs {
		d, err := calendar.ParseDate(row.LogDate)
		if err != nil {
			return nil, fmt.Errorf("habit api: log row: %w", err)
		}
		entries = append(entries, model.LogEntry{HabitID: row.HabitID, LogDate: d, Status: row.Status})
	}
	return entries, nil
}

// SetStatus records status; StatusUnmarked clears the entry.
func (c *Client) SetStatus(ctx context.Context, habitID int64, date time.Time, status model.Status) error {
	body := setLogBody{HabitID: habitID, Date: calendar.FormatDate(date), Status: status.String()}
	var reply envelope
	return c.do(ctx, http.MethodPost, "/api/logs", body, &reply, &reply)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}, env *envelope) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("habit api: encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("habit api: build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("habit api: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("habit api: read response: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
		}
		return fmt.Errorf("habit api: decode response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest || !env.OK {
		msg := env.Error
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return nil
}
