package sentry

import (
	"alertflow/internal/application/common/slogger"
	"alertflow/internal/domain/entity"
	"alertflow/internal/domain/valueobject"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// Config holds the configuration for the Sentry issue API client.
type Config struct {
	BaseURL      string        `json:"base_url"`
	AuthToken    string        `json:"auth_token"`
	Organization string        `json:"organization"`
	Project      string        `json:"project"`
	Environment  string        `json:"environment"`
	Timeout      time.Duration `json:"timeout"`
}

// Validate validates the client configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.AuthToken) == "" {
		return errors.New("auth token cannot be empty")
	}
	if c.Organization == "" {
		return errors.New("organization cannot be empty")
	}
	if c.Project == "" {
		return errors.New("project cannot be empty")
	}
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil || !strings.HasPrefix(c.BaseURL, "http") {
			return errors.New("invalid base URL")
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// Client fetches grouped error events from the Sentry issue API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a Sentry API client with the provided configuration.
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	finalConfig := *config
	if finalConfig.BaseURL == "" {
		finalConfig.BaseURL = "https://sentry.io"
	}
	if finalConfig.Environment == "" {
		finalConfig.Environment = "production"
	}
	if finalConfig.Timeout == 0 {
		finalConfig.Timeout = defaultTimeout
	}

	return &Client{
		config:     &finalConfig,
		httpClient: &http.Client{Timeout: finalConfig.Timeout},
	}, nil
}

// apiIssue is the subset of the Sentry issue payload the engine consumes.
type apiIssue struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Level     string    `json:"level"`
	Count     string    `json:"count"`
	FirstSeen time.Time `json:"firstSeen"`
	LastSeen  time.Time `json:"lastSeen"`
}

// ListRecentEvents returns issues seen within the lookback window at or above
// the minimum severity.
func (c *Client) ListRecentEvents(
	ctx context.Context,
	lookback time.Duration,
	minLevel valueobject.EventLevel,
) ([]*entity.ErrorEvent, error) {
	endpoint := fmt.Sprintf("api/0/projects/%s/%s/issues/",
		url.PathEscape(c.config.Organization), url.PathEscape(c.config.Project))

	query := url.Values{}
	query.Set("statsPeriod", formatStatsPeriod(lookback))
	query.Set("environment", c.config.Environment)
	query.Set("query", "is:unresolved")

	var issues []apiIssue
	if err := c.getJSON(ctx, endpoint+"?"+query.Encode(), &issues); err != nil {
		return nil, err
	}

	events := make([]*entity.ErrorEvent, 0, len(issues))
	for _, issue := range issues {
		event, err := c.toEvent(issue)
		if err != nil {
			slogger.Warn(ctx, "Skipping malformed issue", slogger.Fields2(
				"issue_id", issue.ID,
				"error", err.Error(),
			))
			continue
		}
		if !event.Level().AtLeast(minLevel) {
			continue
		}
		events = append(events, event)
	}

	slogger.Debug(ctx, "Listed recent issues", slogger.Fields2(
		"fetched", len(issues),
		"kept", len(events),
	))
	return events, nil
}

// GetEventDetail fetches the current state of a single issue.
func (c *Client) GetEventDetail(ctx context.Context, id string) (*entity.ErrorEvent, error) {
	if id == "" {
		return nil, errors.New("issue id cannot be empty")
	}

	var issue apiIssue
	if err := c.getJSON(ctx, fmt.Sprintf("api/0/issues/%s/", url.PathEscape(id)), &issue); err != nil {
		return nil, err
	}
	return c.toEvent(issue)
}

func (c *Client) toEvent(issue apiIssue) (*entity.ErrorEvent, error) {
	level, err := valueobject.NewEventLevel(issue.Level)
	if err != nil {
		return nil, fmt.Errorf("issue %s: %w", issue.ID, err)
	}

	count, err := strconv.Atoi(issue.Count)
	if err != nil {
		return nil, fmt.Errorf("issue %s: invalid count %q", issue.ID, issue.Count)
	}

	return entity.NewErrorEvent(
		issue.ID, issue.Title, level, c.config.Environment,
		issue.FirstSeen, issue.LastSeen, count)
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	fullURL := strings.TrimSuffix(c.config.BaseURL, "/") + "/" + strings.TrimPrefix(endpoint, "/")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.AuthToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sentry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("sentry API returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode sentry response: %w", err)
	}
	return nil
}

// formatStatsPeriod renders a lookback window in the short form the issue API
// accepts, such as "15m" or "24h".
func formatStatsPeriod(lookback time.Duration) string {
	if lookback <= 0 {
		return "24h"
	}
	if lookback < time.Hour {
		return fmt.Sprintf("%dm", int(lookback.Minutes()))
	}
	return fmt.Sprintf("%dh", int((lookback + time.Hour - 1).Hours()))
}
