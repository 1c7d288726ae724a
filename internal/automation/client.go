package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/streamingpro/backend/internal/config"
	"github.com/streamingpro/backend/internal/logging"
)

// Callback paths the external engine is asked to answer on.
const (
	GenerationCallbackPath  = "/api/webhooks/content-generated"
	ApprovalCallbackPath    = "/api/webhooks/approval-response"
	PublicationCallbackPath = "/api/webhooks/publicacion-response"
)

// StatusError reports a non-2xx response from the automation engine.
type StatusError struct {
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("automation webhook %s: status %d", e.Path, e.Status)
}

// Client dispatches lifecycle webhooks to the external automation engine.
type Client struct {
	baseURL         string
	generatePath    string
	approvalPath    string
	publishPath     string
	callbackBaseURL string
	http            *http.Client
}

// NewClient builds a webhook client from configuration.
func NewClient(cfg config.AutomationConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		generatePath:    cfg.GeneratePath,
		approvalPath:    cfg.ApprovalPath,
		publishPath:     cfg.PublishPath,
		callbackBaseURL: strings.TrimRight(cfg.CallbackBaseURL, "/"),
		http:            &http.Client{Timeout: timeout},
	}
}

// CallbackURL returns the absolute callback URL for the given path.
func (c *Client) CallbackURL(path string) string {
	return c.callbackBaseURL + path
}

// RequestGeneration submits a content-generation request.
func (c *Client) RequestGeneration(ctx context.Context, req GenerationRequest) error {
	req.CallbackURL = c.CallbackURL(GenerationCallbackPath)
	if req.Timestamp.IsZero() {
		req.Timestamp = time.Now().UTC()
	}
	return c.post(ctx, c.generatePath, req)
}

// RequestApproval submits a draft for the email approval loop.
func (c *Client) RequestApproval(ctx context.Context, req ApprovalRequest) error {
	req.CallbackURL = c.CallbackURL(ApprovalCallbackPath)
	return c.post(ctx, c.approvalPath, req)
}

// RequestPublication submits an approved video for publication.
func (c *Client) RequestPublication(ctx context.Context, req PublishRequest) error {
	req.CallbackURL = c.CallbackURL(PublicationCallbackPath)
	return c.post(ctx, c.publishPath, req)
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal webhook payload: %w", err)
	}

	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logger := logging.FromContext(ctx)
	logger.Info("dispatching automation webhook", "path", path, "bytes", len(body))

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("send webhook %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logger.Warn("automation webhook rejected", "path", path, "status", resp.StatusCode)
		return &StatusError{Path: path, Status: resp.StatusCode, Body: string(snippet)}
	}

	return nil
}
