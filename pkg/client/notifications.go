package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/riskdesk/ews-console/pkg/jsonutil"
	"github.com/riskdesk/ews-console/pkg/models"
)

// ListNotifications fetches the operator's notifications.
func (c *Client) ListNotifications(ctx context.Context) ([]*models.Notification, error) {
	body, err := c.do(ctx, http.MethodGet, "/notifications", nil)
	if err != nil {
		return nil, err
	}
	notes, err := jsonutil.DecodeList[*models.Notification](body)
	if err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return notes, nil
}

// MarkNotificationRead flags one notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodPatch, "/notifications/"+id+"/read", nil)
	return err
}
