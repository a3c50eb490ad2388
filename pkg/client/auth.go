package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/riskdesk/ews-console/pkg/apperrors"
	"github.com/riskdesk/ews-console/pkg/session"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login authenticates against the backend and installs the resulting session
// on the client. A rejected login returns AuthError and leaves any existing
// session untouched.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	payload, err := json.Marshal(loginRequest{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	// Login bypasses do(): it must not carry a stale bearer header, and its
	// failure shape is the form-level AuthError rather than RemoteCallError.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/login", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &apperrors.RemoteCallError{Op: "POST /auth/login", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &apperrors.RemoteCallError{Op: "POST /auth/login", Status: resp.StatusCode, Err: err}
	}

	var parsed loginResponse
	_ = json.Unmarshal(body, &parsed)

	if resp.StatusCode < 200 || resp.StatusCode > 299 || parsed.Token == "" {
		msg := parsed.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &apperrors.AuthError{Message: msg}
	}

	sess := session.New(parsed.Token, email)
	c.sess = sess
	return sess, nil
}
