// Package store talks to the spreadsheet/Drive backed remote store. Every
// logical operation is a POST to one endpoint discriminated by "action".
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"credit-workflow/internal/common/errors"
	commonhttp "credit-workflow/internal/common/http"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/observability"
)

// Actions understood by the store.
const (
	ActionUpload          = "UPLOAD"
	ActionGetAll          = "GET_ALL"
	ActionSaveState       = "SAVE_STATE"
	ActionLoadState       = "LOAD_STATE"
	ActionFetchFilesForAI = "FETCH_FILES_FOR_AI"
	ActionUpdateSheet     = "UPDATE_SHEET"
	ActionCheckPIN        = "CHECK_PIN"
	ActionUpdatePIN       = "UPDATE_PIN"
)

// Notification types sent with UPLOAD; the store picks the email template.
const (
	NotifyCommercialUpload = "COMMERCIAL_UPLOAD"
	NotifyRiskUpload       = "RISK_UPLOAD"
)

type Config struct {
	URL     string
	Timeout time.Duration
}

type Client struct {
	http   *commonhttp.Client
	url    string
	logger logger.Logger
	obs    *observability.Observability
}

func New(cfg Config, log logger.Logger, obs *observability.Observability) *Client {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Client{
		http:   commonhttp.NewClient(cfg.Timeout),
		url:    cfg.URL,
		logger: log,
		obs:    obs,
	}
}

// envelope is the store's response wrapper.
type envelope struct {
	Success     bool            `json:"success"`
	Error       string          `json:"error,omitempty"`
	IsStaleData bool            `json:"isStaleData,omitempty"`
	Data        json.RawMessage `json:"data,omitempty"`
}

// call posts {action, ...payload} and decodes data into out when out is
// non-nil. A success=false envelope with isStaleData is reported as
// STORE_STALE_DATA, everything else as STORE_REQUEST_FAILED.
func (c *Client) call(ctx context.Context, action string, payload map[string]interface{}, out interface{}) (err error) {
	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = string(errors.Normalize(err).Code)
		}
		c.obs.RecordGatewayCall(ctx, "store", action, status, time.Since(start))
	}()

	body := map[string]interface{}{"action": action}
	for k, v := range payload {
		body[k] = v
	}

	resp, err := c.http.PostJSON(ctx, c.url, nil, body)
	if err != nil {
		return errors.NewStoreRequestError(action, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewStoreRequestError(action, fmt.Errorf("http status %d", resp.StatusCode))
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return errors.NewStoreRequestError(action, fmt.Errorf("decode envelope: %w", err))
	}

	if !env.Success {
		if env.IsStaleData {
			c.logger.Warn("remote store reported stale data", map[string]interface{}{
				"action": action,
				"error":  env.Error,
			})
			return errors.NewStaleDataError(action, env.Error)
		}
		msg := env.Error
		if msg == "" {
			msg = "store returned success=false"
		}
		return errors.NewStoreRequestError(action, fmt.Errorf("%s", msg))
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return errors.NewStoreRequestError(action, fmt.Errorf("decode data: %w", err))
	}
	return nil
}
