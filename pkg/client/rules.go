package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/riskdesk/ews-console/pkg/jsonutil"
	"github.com/riskdesk/ews-console/pkg/models"
)

// ListRules loads the full rule catalog. The backend may answer with a bare
// array or a {data: [...]} envelope; both are accepted.
func (c *Client) ListRules(ctx context.Context) ([]*models.RuleRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/rules", nil)
	if err != nil {
		return nil, err
	}
	rules, err := jsonutil.DecodeList[*models.RuleRecord](body)
	if err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return rules, nil
}

// CreateRule persists one new rule and returns the created record with its
// server-assigned identifier and code.
func (c *Client) CreateRule(ctx context.Context, rec *models.RuleRecord) (*models.RuleRecord, error) {
	body, err := c.do(ctx, http.MethodPost, "/rules", rec)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.RuleRecord](body)
}

// CreateRules persists a batch of new rules in one call.
func (c *Client) CreateRules(ctx context.Context, recs []*models.RuleRecord) ([]*models.RuleRecord, error) {
	body, err := c.do(ctx, http.MethodPost, "/rules", recs)
	if err != nil {
		return nil, err
	}
	created, err := jsonutil.DecodeList[*models.RuleRecord](body)
	if err != nil {
		return nil, fmt.Errorf("decode created rules: %w", err)
	}
	return created, nil
}

// UpdateRule replaces the rule identified by the server id.
func (c *Client) UpdateRule(ctx context.Context, serverID string, rec *models.RuleRecord) error {
	_, err := c.do(ctx, http.MethodPut, "/rules/"+serverID, rec)
	return err
}

// DeleteRule removes the rule identified by the server id.
func (c *Client) DeleteRule(ctx context.Context, serverID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/rules/"+serverID, nil)
	return err
}

// decodeOne accepts either a single created object or a one-element array
// (some backend versions echo batch-shaped responses for single creates).
func decodeOne[T any](body []byte) (*T, error) {
	var single T
	if err := json.Unmarshal(body, &single); err == nil {
		return &single, nil
	}
	list, err := jsonutil.DecodeList[*T](body)
	if err != nil || len(list) == 0 {
		return nil, fmt.Errorf("decode created record: unexpected response shape")
	}
	return list[0], nil
}
