// Package client is the API client and synchronization layer.
//
// The server has no push channel: clients keep their view of request lists
// and open conversations fresh by polling on a fixed cadence and replacing
// local state wholesale with each successful response (see Syncer). Client
// is the typed HTTP surface those loops — and explicit user actions — call.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sakif/quantum-link/internal/model"
	"github.com/sakif/quantum-link/internal/service"
)

// Client talks to a quantum-link server as one authenticated user.
// The session token is sent as the HttpOnly cookie the server issued.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates a Client for the given server and session token.
func New(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx response decoded from the server's uniform error
// shape.
type APIError struct {
	StatusCode int
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
}

// do issues a request with the session cookie and decodes the JSON response
// into out (skipped when out is nil).
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("client: encoding request body: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("client: building request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: "token", Value: c.token})

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("client: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Code = "unknown"
			apiErr.Message = resp.Status
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("client: decoding response: %w", err)
	}
	return nil
}

// Me returns the acting user's record.
func (c *Client) Me(ctx context.Context) (*model.User, error) {
	var user model.User
	if err := c.do(ctx, http.MethodGet, "/api/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RenameHandle sets a user-chosen quantum ID.
func (c *Client) RenameHandle(ctx context.Context, handle string) (*model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	body := map[string]string{"handle": handle}
	if err := c.do(ctx, http.MethodPatch, "/api/user/handle", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Search resolves a handle (optionally "@"-prefixed) to a public profile.
func (c *Client) Search(ctx context.Context, handle string) (*model.Profile, error) {
	var out struct {
		User model.Profile `json:"user"`
	}
	body := map[string]string{"handle": handle}
	if err := c.do(ctx, http.MethodPost, "/api/friends/search", body, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// CreateRequest sends a connection request.
func (c *Client) CreateRequest(ctx context.Context, toHandle string, categories []string, note string) (*model.FriendRequest, error) {
	var out struct {
		Request model.FriendRequest `json:"request"`
	}
	body := map[string]any{
		"toHandle":   toHandle,
		"categories": categories,
		"note":       note,
	}
	if err := c.do(ctx, http.MethodPost, "/api/friends/request", body, &out); err != nil {
		return nil, err
	}
	return &out.Request, nil
}

// Outgoing lists requests the acting user has sent, newest first.
func (c *Client) Outgoing(ctx context.Context) ([]model.RequestView, error) {
	return c.listRequests(ctx, "/api/friends/outgoing")
}

// Incoming lists requests addressed to the acting user, newest first.
func (c *Client) Incoming(ctx context.Context) ([]model.RequestView, error) {
	return c.listRequests(ctx, "/api/friends/incoming")
}

func (c *Client) listRequests(ctx context.Context, path string) ([]model.RequestView, error) {
	var out struct {
		Requests []model.RequestView `json:"requests"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Requests, nil
}

// Decide accepts or rejects an incoming request.
func (c *Client) Decide(ctx context.Context, requestID string, action service.DecideAction) (*model.FriendRequest, error) {
	var out struct {
		Request model.FriendRequest `json:"request"`
	}
	body := map[string]string{"requestId": requestID, "action": string(action)}
	if err := c.do(ctx, http.MethodPost, "/api/friends/decide", body, &out); err != nil {
		return nil, err
	}
	return &out.Request, nil
}

// Send appends a message to the conversation with the peer.
func (c *Client) Send(ctx context.Context, toHandle, content string) (*model.Message, error) {
	var out struct {
		Message model.Message `json:"message"`
	}
	body := map[string]string{"toHandle": toHandle, "content": content}
	if err := c.do(ctx, http.MethodPost, "/api/chat/send", body, &out); err != nil {
		return nil, err
	}
	return &out.Message, nil
}

// History fetches the full conversation with the peer.
func (c *Client) History(ctx context.Context, peerHandle string) (*service.History, error) {
	var out service.History
	path := "/api/chat/history?peerHandle=" + url.QueryEscape(peerHandle)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
