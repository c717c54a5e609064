// Package client talks to the trialwatch HTTP API. It backs task views in
// front-end processes and the trialctl operator commands.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"trialwatch.app/engine/internal/http/dto"
	"trialwatch.app/engine/internal/http/middleware"
	"trialwatch.app/engine/internal/model"
	"trialwatch.app/engine/internal/taskview"
	"trialwatch.app/engine/internal/viewcache"
)

var _ taskview.Backend = (*Client)(nil)

// ErrNotMarked means the server accepted a mark-read call but did not mark
// every requested notification for the calling user.
var ErrNotMarked = errors.New("notifications not marked read")

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// IsStatus reports whether err is an APIError with the given status code.
func IsStatus(err error, code int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == code
}

type Config struct {
	BaseURL string
	// UserID is sent on every user-scoped call.
	UserID string
	// AdminAPIKey is required for the admin calls only.
	AdminAPIKey string
	Timeout     time.Duration
}

type Client struct {
	baseURL     string
	userID      string
	adminAPIKey string
	httpClient  *http.Client
}

func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/") + "/api/v1",
		userID:      cfg.UserID,
		adminAPIKey: cfg.AdminAPIKey,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

func (c *Client) MarkRead(ctx context.Context, notificationIDs []int64) error {
	req := dto.MarkReadRequest{IDs: make([]string, 0, len(notificationIDs))}
	for _, id := range notificationIDs {
		req.IDs = append(req.IDs, strconv.FormatInt(id, 10))
	}
	var resp dto.MarkReadResponse
	if err := c.do(ctx, http.MethodPost, "/notifications/mark-read", nil, req, &resp, false); err != nil {
		return err
	}
	if len(resp.NotFound) > 0 {
		return fmt.Errorf("%w: %s", ErrNotMarked, strings.Join(resp.NotFound, ", "))
	}
	return nil
}

// FetchComments loads a task thread. A non-empty buster bypasses the server
// cache for this read.
func (c *Client) FetchComments(ctx context.Context, taskID int64, partition viewcache.Partition, buster string) ([]model.TaskComment, error) {
	query := url.Values{}
	query.Set("from", string(partition))
	if buster != "" {
		query.Set("t", buster)
	}

	var resp []dto.CommentResponse
	if err := c.do(ctx, http.MethodGet, taskPath(taskID)+"/comments", query, nil, &resp, false); err != nil {
		return nil, err
	}
	comments := make([]model.TaskComment, 0, len(resp))
	for _, r := range resp {
		comments = append(comments, dto.ToTaskComment(r))
	}
	return comments, nil
}

func (c *Client) PostComment(ctx context.Context, taskID int64, text string) (*model.TaskComment, error) {
	var resp dto.CommentResponse
	if err := c.do(ctx, http.MethodPost, taskPath(taskID)+"/comments", nil, dto.AddCommentRequest{Comment: text}, &resp, false); err != nil {
		return nil, err
	}
	comment := dto.ToTaskComment(resp)
	return &comment, nil
}

func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]dto.NotificationResponse, error) {
	query := url.Values{}
	if unreadOnly {
		query.Set("unread", "true")
	}
	var resp []dto.NotificationResponse
	if err := c.do(ctx, http.MethodGet, "/notifications", query, nil, &resp, false); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) PutThresholdRule(ctx context.Context, metric string, req dto.PutThresholdRuleRequest) (*dto.ThresholdRuleResponse, error) {
	var resp dto.ThresholdRuleResponse
	if err := c.do(ctx, http.MethodPut, "/threshold-rules/"+url.PathEscape(metric), nil, req, &resp, false); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Repair(ctx context.Context, role string) (*dto.RepairResponse, error) {
	var resp dto.RepairResponse
	if err := c.do(ctx, http.MethodPost, "/admin/notifications/repair", nil, dto.RepairRequest{Role: role}, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListMembers(ctx context.Context, role string) ([]dto.MemberResponse, error) {
	var resp []dto.MemberResponse
	if err := c.do(ctx, http.MethodGet, membersPath(role), nil, nil, &resp, true); err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *Client) AddMember(ctx context.Context, role string, req dto.AddMemberRequest) error {
	return c.do(ctx, http.MethodPost, membersPath(role), nil, req, nil, true)
}

func (c *Client) RemoveMember(ctx context.Context, role, userID string) error {
	return c.do(ctx, http.MethodDelete, membersPath(role)+"/"+url.PathEscape(userID), nil, nil, nil, true)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, result any, admin bool) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if admin {
		req.Header.Set(middleware.AdminKeyHeader, c.adminAPIKey)
	} else {
		req.Header.Set(middleware.UserHeader, c.userID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Error != "" {
			apiErr.Message = payload.Error
		} else {
			apiErr.Message = strings.TrimSpace(string(respBody))
		}
		return apiErr
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

func taskPath(taskID int64) string {
	return "/tasks/" + strconv.FormatInt(taskID, 10)
}

func membersPath(role string) string {
	return "/admin/roles/" + url.PathEscape(role) + "/members"
}
