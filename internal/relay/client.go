// Package relay delivers submission payloads to external marketing webhooks.
// Remote failures are classified and returned as data, never as Go errors:
// a lead captured locally must survive a dead webhook.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"edpulse_backend/platform/config"
	"edpulse_backend/platform/logger"
)

// EndpointPabbly is the registered name of the marketing webhook target.
const EndpointPabbly = "pabbly"

// Endpoint is one named webhook target with its own timeout.
type Endpoint struct {
	URL     string
	Timeout time.Duration
}

// Registry maps webhook names to endpoints. It is plain injected
// configuration; there is no global client state.
type Registry map[string]Endpoint

// NewRegistry builds the registry from configuration.
func NewRegistry(cfg config.RelayConfig) Registry {
	return Registry{
		EndpointPabbly: {
			URL:     cfg.GetPabblyWebhookURL(),
			Timeout: cfg.GetPabblyTimeout(),
		},
	}
}

// Result is the structured outcome of one relay attempt.
// Error marks transport failures and non-2xx responses alike; Status is zero
// when the request never reached the remote.
type Result struct {
	Error   bool
	Message string
	Status  int
	Data    string
}

// Serialize renders the result for storage on the submission row.
func (r Result) Serialize() string {
	encoded, err := json.Marshal(map[string]interface{}{
		"error":   r.Error,
		"message": r.Message,
		"status":  r.Status,
		"data":    r.Data,
	})
	if err != nil {
		return fmt.Sprintf(`{"error":true,"message":%q}`, r.Message)
	}
	return string(encoded)
}

// Client posts JSON payloads to registered webhooks.
type Client struct {
	registry       Registry
	defaultTimeout time.Duration
	httpClient     *http.Client
	log            *logger.Logger
}

// NewClient creates a relay client over the given registry.
func NewClient(registry Registry, cfg config.RelayConfig, log *logger.Logger) *Client {
	return &Client{
		registry:       registry,
		defaultTimeout: cfg.GetRelayDefaultTimeout(),
		httpClient:     &http.Client{},
		log:            log,
	}
}

// Post sends the payload to the named webhook and classifies the outcome.
// Unknown names, encoding failures, transport errors, and non-2xx responses
// all come back as a Result with Error=true.
func (c *Client) Post(ctx context.Context, name string, payload interface{}) Result {
	endpoint, ok := c.registry[name]
	if !ok || endpoint.URL == "" {
		return Result{Error: true, Message: fmt.Sprintf("webhook %q is not configured", name)}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{Error: true, Message: "failed to encode payload: " + err.Error()}
	}

	timeout := endpoint.Timeout
	if timeout <= 0 {
		timeout = c.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: true, Message: "failed to build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Transport-level failure: DNS, refused connection, timeout.
		result := Result{Error: true, Message: "no response from webhook: " + err.Error()}
		c.logOutcome(name, result)
		return result
	}
	defer resp.Body.Close()

	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if readErr != nil {
		raw = nil
	}

	result := Result{Status: resp.StatusCode, Data: string(raw)}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		result.Error = true
		result.Message = fmt.Sprintf("webhook responded with status %d", resp.StatusCode)
	}

	c.logOutcome(name, result)
	return result
}

func (c *Client) logOutcome(name string, result Result) {
	if c.log == nil {
		return
	}
	c.log.RelayOutcome(name, result.Status, result.Error, result.Message)
}
