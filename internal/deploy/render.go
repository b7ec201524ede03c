package deploy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"mamos/internal/log"
	"mamos/internal/poll"
)

// Render deploy states that end polling.
const (
	StatusLive        = "live"
	StatusBuildFailed = "build_failed"
	StatusDeactivated = "deactivated"
	StatusCanceled    = "canceled"
)

// Terminal reports whether status ends a deploy.
func Terminal(status string) bool {
	switch status {
	case StatusLive, StatusBuildFailed, StatusDeactivated, StatusCanceled:
		return true
	}
	return false
}

// Environment is a deploy target declared by a project.
type Environment struct {
	Name         string `yaml:"environment"`
	ServiceID    string `yaml:"service_id"`
	APIKeySecret string `yaml:"api_key_secret"`
}

type Outcome struct {
	Environment string
	Success     bool
	DeployID    string
	FinalStatus string
	Error       string
}

// SecretLookup resolves a secret by name, like os.LookupEnv.
type SecretLookup func(name string) (string, bool)

type Client struct {
	BaseURL string
	HTTP    *http.Client
	Secrets SecretLookup
	Poll    poll.Policy
}

func NewClient(baseURL string, policy poll.Policy, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
		Secrets: os.LookupEnv,
		Poll:    policy,
	}
}

type deployResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Deploy triggers a deploy of env and blocks until it reaches a terminal
// state or the poll budget runs out. Failures never escape as errors.
func (c *Client) Deploy(ctx context.Context, env Environment) Outcome {
	l := log.FromContext(ctx).With("environment", env.Name, "service", env.ServiceID)
	out := Outcome{Environment: env.Name}

	key, ok := c.Secrets(env.APIKeySecret)
	if !ok || key == "" {
		out.Error = fmt.Sprintf("missing API key: secret %s is not set", env.APIKeySecret)
		return out
	}

	triggered, err := c.trigger(ctx, env.ServiceID, key)
	if err != nil {
		out.Error = err.Error()
		return out
	}
	if triggered.ID == "" {
		out.Error = "no deploy id returned"
		return out
	}
	out.DeployID = triggered.ID
	l.Info("deploy triggered", "deploy", triggered.ID)

	status, err := poll.Until(ctx, c.Poll, func(ctx context.Context, attempt uint) (string, error) {
		d, err := c.status(ctx, env.ServiceID, triggered.ID, key)
		if err != nil {
			return "", err
		}
		l.Debug("deploy status", "deploy", triggered.ID, "status", d.Status, "attempt", attempt)
		return d.Status, nil
	}, Terminal)
	out.FinalStatus = status

	switch {
	case errors.Is(err, poll.ErrExhausted):
		out.Error = fmt.Sprintf("deploy %s did not finish: %v, last status %q", triggered.ID, err, status)
	case err != nil:
		out.Error = fmt.Sprintf("poll deploy %s: %v", triggered.ID, err)
	case status != StatusLive:
		out.Error = fmt.Sprintf("deploy %s ended with status %s", triggered.ID, status)
	default:
		out.Success = true
	}
	return out
}

func (c *Client) trigger(ctx context.Context, serviceID, key string) (*deployResponse, error) {
	body, _ := json.Marshal(map[string]string{"clearCache": "do_not_clear"})
	url := fmt.Sprintf("%s/services/%s/deploys", c.BaseURL, serviceID)
	d, err := c.do(ctx, http.MethodPost, url, key, body)
	if err != nil {
		return nil, fmt.Errorf("trigger deploy: %w", err)
	}
	return d, nil
}

func (c *Client) status(ctx context.Context, serviceID, deployID, key string) (*deployResponse, error) {
	url := fmt.Sprintf("%s/services/%s/deploys/%s", c.BaseURL, serviceID, deployID)
	return c.do(ctx, http.MethodGet, url, key, nil)
}

func (c *Client) do(ctx context.Context, method, url, key string, body []byte) (*deployResponse, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: %s: %s", method, url, resp.Status, truncate(string(raw), 512))
	}

	var d deployResponse
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &d, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
