package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/okian/prospect/internal/domain/model"
)

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client talks to the scoring API.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client with the given request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s body: %w", path, err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// Health checks /healthz.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

// PutAthlete registers or updates an athlete profile.
func (c *Client) PutAthlete(ctx context.Context, a model.Athlete) error {
	body := map[string]string{
		"name":               a.Name,
		"sport":              string(a.Sport),
		"birth_date":         a.BirthDate.Format(model.DateLayout),
		"tier":               a.Tier,
		"position":           a.Position,
		"primary_pitch_type": a.PrimaryPitchType,
	}
	return c.do(ctx, http.MethodPut, "/athletes/"+url.PathEscape(a.ID), body, nil)
}

// PutDailyLog records one day for an athlete.
func (c *Client) PutDailyLog(ctx context.Context, e model.DailyLogEntry) error {
	body := map[string]any{
		"status":        e.Status,
		"rest_reason":   e.RestReason,
		"injury":        e.Injury,
		"sleep_hours":   e.SleepHours,
		"sleep_quality": e.SleepQuality,
		"stress_level":  e.StressLevel,
	}
	path := "/athletes/" + url.PathEscape(e.AthleteID) + "/daily-logs/" + e.Date.Format(model.DateLayout)
	return c.do(ctx, http.MethodPut, path, body, nil)
}

// PostSession records a session and returns the stored copy.
func (c *Client) PostSession(ctx context.Context, s model.PerformanceSession) (model.PerformanceSession, error) {
	body := map[string]any{
		"session_type": s.Type,
		"date":         s.Date.Format(model.DateLayout),
		"sport":        s.Sport,
		"blocks":       s.Blocks,
		"grades":       s.Grades,
	}
	var out model.PerformanceSession
	err := c.do(ctx, http.MethodPost, "/athletes/"+url.PathEscape(s.AthleteID)+"/sessions", body, &out)
	return out, err
}

// Recompute computes the athlete's MPI synchronously.
func (c *Client) Recompute(ctx context.Context, athleteID string) (model.CompositeScoreSnapshot, error) {
	var out model.CompositeScoreSnapshot
	err := c.do(ctx, http.MethodPost, "/athletes/"+url.PathEscape(athleteID)+"/recompute?sync=true", nil, &out)
	return out, err
}

// Leaderboard fetches the top n entries.
func (c *Client) Leaderboard(ctx context.Context, n int) ([]Entry, error) {
	var out []Entry
	err := c.do(ctx, http.MethodGet, "/leaderboard?limit="+strconv.Itoa(n), nil, &out)
	return out, err
}

// Rank fetches one athlete's live rank.
func (c *Client) Rank(ctx context.Context, athleteID string) (Entry, error) {
	var out Entry
	err := c.do(ctx, http.MethodGet, "/rank/"+url.PathEscape(athleteID), nil, &out)
	return out, err
}
