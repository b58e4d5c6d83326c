package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	matchpush_errors "matchpush/pkg/errors"
)

// Client is the remote messaging platform. Create/cancel/list are the
// only operations the core depends on; everything else about the
// platform's send pipeline is opaque.
type Client interface {
	CreateSchedule(ctx context.Context, req CreateScheduleRequest) (CreateScheduleResponse, error)
	// CancelSchedule confirms the schedule is gone: a platform 404 is a
	// success, not an error.
	CancelSchedule(ctx context.Context, scheduleID string, msgType MessageType) error
	ListUpcomingSchedules(ctx context.Context, until time.Time) ([]Schedule, error)
}

type httpClient struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, timeout time.Duration) Client {
	return &httpClient{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *httpClient) CreateSchedule(ctx context.Context, req CreateScheduleRequest) (CreateScheduleResponse, error) {
	var resp CreateScheduleResponse
	if err := c.do(ctx, http.MethodPost, "/v1/schedules", req, &resp); err != nil {
		return CreateScheduleResponse{}, fmt.Errorf("create schedule: %w", err)
	}
	if resp.ScheduleID == "" {
		return CreateScheduleResponse{}, fmt.Errorf("create schedule: platform returned no schedule id")
	}
	return resp, nil
}

func (c *httpClient) CancelSchedule(ctx context.Context, scheduleID string, msgType MessageType) error {
	path := "/v1/schedules/" + url.PathEscape(scheduleID)
	if msgType == TypeFlow {
		path = "/v1/flows/" + url.PathEscape(scheduleID) + "/schedule"
	}
	err := c.do(ctx, http.MethodDelete, path, nil, nil)
	if err == nil || isNotFound(err) {
		// Already gone counts as cancelled.
		return nil
	}
	return fmt.Errorf("cancel schedule %s: %w", scheduleID, err)
}

func (c *httpClient) ListUpcomingSchedules(ctx context.Context, until time.Time) ([]Schedule, error) {
	path := "/v1/schedules?until=" + url.QueryEscape(until.UTC().Format(time.RFC3339))
	var resp listSchedulesResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list schedules: %w", err)
	}
	return resp.Schedules, nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("platform returned %d: %s", e.status, e.body)
}

func isNotFound(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusNotFound
}

func (c *httpClient) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", matchpush_errors.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{status: resp.StatusCode, body: string(raw)}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
