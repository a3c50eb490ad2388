package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/session"
)

// Client wraps the EWS backend REST API. It attaches the bearer token from
// the current session when one is present; with no session the header is
// simply omitted and the server enforces auth.
type Client struct {
	baseURL string
	http    *http.Client
	sess    *session.Session
	logger  *zap.Logger
}

// New builds a client for the backend at baseURL. Pass a nil logger to
// disable request logging.
func New(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// SetSession installs the login context used for subsequent calls.
func (c *Client) SetSession(s *session.Session) { c.sess = s }

// Session returns the current login context, nil when logged out.
func (c *Client) Session() *session.Session { return c.sess }

// Logout destroys the login context.
func (c *Client) Logout() { c.sess = nil }

// do issues one JSON request and returns the raw response body. Non-2xx
// statuses become RemoteCallError carrying the server's message.
func (c *Client) do(ctx context.Context, method, path string, body any) ([]byte, error) {
	op := method + " " + path

	var payload io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &apperrors.RemoteCallError{Op: op, Err: fmt.Errorf("encode request: %w", err)}
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, &apperrors.RemoteCallError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sess != nil && c.sess.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.sess.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperrors.RemoteCallError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)

	c.logger.Debug("backend request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	if err != nil {
		return nil, &apperrors.RemoteCallError{Op: op, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, &apperrors.RemoteCallError{Op: op, Status: resp.StatusCode, Err: apperrors.ErrNotFound}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &apperrors.RemoteCallError{
			Op:     op,
			Status: resp.StatusCode,
			Err:    errors.New(serverMessage(data, resp.StatusCode)),
		}
	}

	return data, nil
}

// serverMessage pulls a human-readable message out of an error body, falling
// back to the status text.
func serverMessage(body []byte, status int) string {
	var parsed struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		if parsed.Error != "" {
			return parsed.Error
		}
	}
	return http.StatusText(status)
}
