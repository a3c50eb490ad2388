package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/riskdesk/ews-console/pkg/jsonutil"
	"github.com/riskdesk/ews-console/pkg/models"
)

// AlertQuery narrows an alert listing.
type AlertQuery struct {
	Text     string // free-text q
	Severity string
	Limit    int
}

// CreateAlerts posts a batch of derived alert payloads. The call is
// independent of the event save that preceded it; a failure here never
// undoes already-saved events.
func (c *Client) CreateAlerts(ctx context.Context, payloads []models.AlertPayload) ([]*models.Alert, error) {
	body, err := c.do(ctx, http.MethodPost, "/alerts", payloads)
	if err != nil {
		return nil, err
	}
	created, err := jsonutil.DecodeList[*models.Alert](body)
	if err != nil {
		return nil, fmt.Errorf("decode created alerts: %w", err)
	}
	return created, nil
}

// ListAlerts fetches alerts matching the query.
func (c *Client) ListAlerts(ctx context.Context, q AlertQuery) ([]*models.Alert, error) {
	params := url.Values{}
	if q.Text != "" {
		params.Set("q", q.Text)
	}
	if q.Severity != "" {
		params.Set("severity", q.Severity)
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	path := "/alerts"
	if encoded := params.Encode(); encoded != "" {
		path += "?" + encoded
	}

	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	alerts, err := jsonutil.DecodeList[*models.Alert](body)
	if err != nil {
		return nil, fmt.Errorf("decode alerts: %w", err)
	}
	return alerts, nil
}

// GetAlert fetches one alert by server id.
func (c *Client) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	body, err := c.do(ctx, http.MethodGet, "/alerts/"+id, nil)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Alert](body)
}

// ActOnAlert records a reviewer decision (approve/reject/close) with an
// optional comment.
func (c *Client) ActOnAlert(ctx context.Context, id string, action models.AlertAction) (*models.Alert, error) {
	body, err := c.do(ctx, http.MethodPatch, "/alerts/"+id, action)
	if err != nil {
		return nil, err
	}
	return decodeOne[models.Alert](body)
}
