package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskdesk/ews-console/pkg/jsonutil"
	"github.com/riskdesk/ews-console/pkg/models"
)

// ListEvents loads all persisted events.
func (c *Client) ListEvents(ctx context.Context) ([]*models.EventRecord, error) {
	body, err := c.do(ctx, http.MethodGet, "/events", nil)
	if err != nil {
		return nil, err
	}
	events, err := jsonutil.DecodeList[*models.EventRecord](body)
	if err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}
	return events, nil
}

// CreateEvent persists one new event. The endpoint takes arrays, so the
// record rides in a one-element batch; this keeps per-row saves independent.
func (c *Client) CreateEvent(ctx context.Context, rec *models.EventRecord) (*models.EventRecord, error) {
	body, err := c.do(ctx, http.MethodPost, "/events", []*models.EventRecord{rec})
	if err != nil {
		return nil, err
	}
	return decodeOne[models.EventRecord](body)
}

// UpdateEvent replaces the event identified by the server id.
func (c *Client) UpdateEvent(ctx context.Context, serverID string, rec *models.EventRecord) error {
	_, err := c.do(ctx, http.MethodPut, "/events/"+serverID, rec)
	return err
}

// DeleteEvent removes the event identified by the server id.
func (c *Client) DeleteEvent(ctx context.Context, serverID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/events/"+serverID, nil)
	return err
}
