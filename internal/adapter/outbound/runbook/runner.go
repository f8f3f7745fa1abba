package runbook

import (
	"alertflow/internal/application/common/slogger"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Config holds the configuration for the runbook automation service client.
type Config struct {
	BaseURL   string        `json:"base_url"`
	AuthToken string        `json:"auth_token"`
	Timeout   time.Duration `json:"timeout"`
}

// Validate validates the runner configuration.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL cannot be empty")
	}
	if _, err := url.Parse(c.BaseURL); err != nil || !strings.HasPrefix(c.BaseURL, "http") {
		return errors.New("invalid base URL")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Runner executes remediation actions against the runbook automation
// service. Strategies call it through the ActionRunner port.
type Runner struct {
	config     *Config
	httpClient *http.Client
}

// NewRunner creates a runbook runner with the provided configuration.
func NewRunner(config *Config) (*Runner, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	finalConfig := *config
	if finalConfig.Timeout == 0 {
		finalConfig.Timeout = defaultTimeout
	}

	return &Runner{
		config:     &finalConfig,
		httpClient: &http.Client{Timeout: finalConfig.Timeout},
	}, nil
}

type actionRequest struct {
	Params map[string]string `json:"params,omitempty"`
}

type actionResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// Run executes one named action with its parameters and returns the service
// message.
func (r *Runner) Run(ctx context.Context, action string, params map[string]string) (string, error) {
	if action == "" {
		return "", errors.New("action cannot be empty")
	}

	body, err := json.Marshal(actionRequest{Params: params})
	if err != nil {
		return "", fmt.Errorf("failed to marshal action request: %w", err)
	}

	endpoint := strings.TrimSuffix(r.config.BaseURL, "/") + "/actions/" + url.PathEscape(action)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create action request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.config.AuthToken != "" {
		req.Header.Set("Authorization", "Bearer "+r.config.AuthToken)
	}

	slogger.Info(ctx, "Executing runbook action", slogger.Fields{"action": action})

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("runbook request failed: %w", err)
	}
	defer resp.Body.Close()

	var decoded actionResponse
	if decodeErr := json.NewDecoder(resp.Body).Decode(&decoded); decodeErr != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("failed to decode runbook response: %w", decodeErr)
	}

	if resp.StatusCode != http.StatusOK {
		if decoded.Error != "" {
			return "", fmt.Errorf("runbook action %s failed with status %d: %s", action, resp.StatusCode, decoded.Error)
		}
		return "", fmt.Errorf("runbook service returned status %d", resp.StatusCode)
	}

	return decoded.Message, nil
}
