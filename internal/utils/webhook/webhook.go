package webhook

import (
	"context"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/dwarvesf/swap-history/internal/utils/logger"
)

// Client pings uptime monitors after scheduled passes succeed
type Client struct {
	client *resty.Client
	logger *logger.Logger
}

// New creates a webhook client with a 10s timeout
func New(logger *logger.Logger) *Client {
	return &Client{
		client: resty.New().SetTimeout(10 * time.Second),
		logger: logger,
	}
}

// Close releases the underlying transport
func (c *Client) Close() error {
	return c.client.Close()
}

// CallUptimeWebhook sends a GET to webhookURL. Failures are logged, never returned,
// a missing ping is the signal the monitor acts on.
func (c *Client) CallUptimeWebhook(ctx context.Context, webhookURL string) {
	if webhookURL == "" {
		return
	}

	resp, err := c.client.R().SetContext(ctx).Get(webhookURL)
	if err != nil {
		c.logger.Error("[CallUptimeWebhook] failed to call uptime webhook", map[string]string{
			"url":   webhookURL,
			"error": err.Error(),
		})
		return
	}

	if resp.StatusCode() >= 400 {
		c.logger.Warn("[CallUptimeWebhook] uptime webhook rejected ping", map[string]string{
			"url":         webhookURL,
			"status_code": strconv.Itoa(resp.StatusCode()),
		})
		return
	}

	c.logger.Debug("[CallUptimeWebhook] uptime webhook called", map[string]string{
		"url":         webhookURL,
		"status_code": strconv.Itoa(resp.StatusCode()),
	})
}
