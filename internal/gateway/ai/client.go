// Package ai is the boundary to the generative document-analysis service.
// Every answer is checked against a JSON schema before it is decoded into
// a typed result.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"credit-workflow/internal/common/errors"
	commonhttp "credit-workflow/internal/common/http"
	"credit-workflow/internal/common/logger"
	"credit-workflow/internal/common/observability"
	"credit-workflow/internal/common/validation"
	"credit-workflow/internal/models"
)

const generatePath = "/api/ai/generate"

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

type Client struct {
	config Config
	http   *commonhttp.Client
	logger logger.Logger
	obs    *observability.Observability
	now    func() time.Time
}

func New(cfg Config, log logger.Logger, obs *observability.Observability) *Client {
	if obs == nil {
		obs = observability.NewNoop()
	}
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout),
		logger: log,
		obs:    obs,
		now:    time.Now,
	}
}

// WithClock replaces the clock used for document age checks.
func (c *Client) WithClock(now func() time.Time) *Client {
	c.now = now
	return c
}

type generateRequest struct {
	Model          string              `json:"model"`
	Prompt         string              `json:"prompt"`
	Files          []models.Attachment `json:"files"`
	ResponseFormat string              `json:"response_format"`
	Temperature    float64             `json:"temperature"`
}

type generateResponse struct {
	Text string `json:"text"`
}

// generate sends one prompt with inline files and decodes the JSON answer
// into out after validating it against schema.
func (c *Client) generate(ctx context.Context, operation, prompt string, files []models.Attachment, schema *validation.Schema, out interface{}) (err error) {
	if c.config.APIKey == "" {
		return errors.NewAICredentialMissingError()
	}

	start := time.Now()
	defer func() {
		status := "ok"
		if err != nil {
			status = string(errors.Normalize(err).Code)
		}
		c.obs.RecordGatewayCall(ctx, "ai", operation, status, time.Since(start))
	}()

	resp, err := c.http.PostJSON(ctx, strings.TrimRight(c.config.BaseURL, "/")+generatePath,
		map[string]string{"X-API-Key": c.config.APIKey},
		generateRequest{
			Model:          c.config.Model,
			Prompt:         prompt,
			Files:          files,
			ResponseFormat: "json",
			Temperature:    0,
		})
	if err != nil {
		return errors.NewAIGatewayError(operation, err)
	}
	if resp.StatusCode != 200 {
		return errors.NewAIGatewayError(operation, fmt.Errorf("http status %d: %s", resp.StatusCode, truncate(string(resp.Body), 200)))
	}

	var gen generateResponse
	if err := json.Unmarshal(resp.Body, &gen); err != nil {
		return errors.NewAIResponseInvalidError(operation, "response envelope is not JSON")
	}

	payload := stripFences(gen.Text)
	if payload == "" {
		return errors.NewAIResponseInvalidError(operation, "empty answer")
	}

	result := schema.ValidateJSON([]byte(payload))
	if !result.Valid {
		c.logger.Warn("AI answer failed schema", map[string]interface{}{
			"operation": operation,
			"errors":    result.GetErrorMessages(),
		})
		return errors.NewAIResponseInvalidError(operation, strings.Join(result.GetErrorMessages(), "; "))
	}

	if err := json.Unmarshal([]byte(payload), out); err != nil {
		return errors.NewAIResponseInvalidError(operation, err.Error())
	}
	return nil
}

// stripFences removes a surrounding ```json block the model sometimes adds.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
