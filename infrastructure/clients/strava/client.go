package strava

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"strava-kudos-bot/domain/model"
	"strava-kudos-bot/domain/repository"
	"strava-kudos-bot/infrastructure/logger"
	"strava-kudos-bot/infrastructure/utils"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL  = "https://www.strava.com/api/v3"
	DefaultTokenURL = "https://www.strava.com/oauth/token"
)

// Config represents Strava API client configuration
type Config struct {
	BaseURL       string        `json:"base_url"`
	TokenURL      string        `json:"token_url"`
	MaxRetries    int           `json:"max_retries"`
	RetryInterval time.Duration `json:"retry_interval"`
	RateLimitWait time.Duration `json:"rate_limit_wait"`
	Timeout       time.Duration `json:"timeout"`
}

// Client performs authenticated Strava API calls, refreshing the access token
// on 401 and waiting out 429 responses.
type Client struct {
	baseURL       string
	oauthConfig   *oauth2.Config
	credentials   *model.Credentials
	httpClient    *http.Client
	tokenClient   *http.Client
	rateLimitWait time.Duration
}

var _ repository.IStrava = (*Client)(nil)

// NewStravaClient creates a new Strava API client around the given credentials
func NewStravaClient(config *Config, credentials *model.Credentials) (*Client, error) {
	if credentials == nil {
		return nil, errors.New("strava credentials are required")
	}
	baseURL := strings.TrimRight(config.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	tokenURL := config.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	rateLimitWait := config.RateLimitWait
	if rateLimitWait <= 0 {
		rateLimitWait = time.Minute
	}

	httpClient := &http.Client{
		Timeout: config.Timeout,
		Transport: &RetryTransport{
			Base:            http.DefaultTransport,
			MaxRetries:      config.MaxRetries,
			InitialInterval: config.RetryInterval,
		},
	}

	// token refresh is a single attempt, so it bypasses RetryTransport
	tokenClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: http.DefaultTransport,
	}

	return &Client{
		baseURL: baseURL,
		oauthConfig: &oauth2.Config{
			ClientID:     credentials.ClientID,
			ClientSecret: credentials.ClientSecret,
			Endpoint: oauth2.Endpoint{
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		credentials:   credentials,
		httpClient:    httpClient,
		tokenClient:   tokenClient,
		rateLimitWait: rateLimitWait,
	}, nil
}

// Credentials exposes the credential set the client mutates on refresh
func (c *Client) Credentials() *model.Credentials {
	return c.credentials
}

// Request performs an authenticated call and returns the decoded JSON body.
// An empty body decodes to an empty object.
func (c *Client) Request(ctx context.Context, method, url string, body interface{}) (interface{}, error) {
	raw, err := c.do(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]interface{}{}, nil
	}
	var out interface{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decoding %s %s response: %w", method, url, err)
	}
	return out, nil
}

// requestInto is Request with the body decoded into out
func (c *Client) requestInto(ctx context.Context, method, url string, body interface{}, out interface{}) error {
	raw, err := c.do(ctx, method, url, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, url, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, url string, body interface{}) ([]byte, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("encoding %s %s body: %w", method, url, err)
		}
	}

	rateLimit := backoff.WithContext(backoff.NewConstantBackOff(c.rateLimitWait), ctx)
	refreshed := false
	for {
		status, raw, err := c.send(ctx, method, url, payload)
		if err != nil {
			if ctx.Err() != nil {
				logger.GetLogger().WithFields(map[string]interface{}{
					"method": method,
					"url":    url,
				}).Debug("API request cancelled")
				return nil, err
			}
			logger.GetLogger().WithFields(map[string]interface{}{
				"error":  err,
				"method": method,
				"url":    url,
			}).Error("API request failed")
			return nil, err
		}

		switch {
		case status == http.StatusTooManyRequests:
			wait := rateLimit.NextBackOff()
			if wait == backoff.Stop {
				return nil, ctx.Err()
			}
			logger.GetLogger().WithField("retryIn", wait.String()).Warn("Rate limit exceeded, sleeping")
			if err := utils.Sleep(ctx, wait); err != nil {
				return nil, err
			}
		case status == http.StatusUnauthorized:
			httpErr := &HTTPError{Method: method, URL: url, StatusCode: status, Body: string(raw)}
			if refreshed {
				return nil, fmt.Errorf("%w: still unauthorized after token refresh: %w", ErrAuthentication, httpErr)
			}
			logger.GetLogger().Info("Token expired, refreshing")
			if err := c.RefreshAccessToken(ctx); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrAuthentication, err)
			}
			refreshed = true
		case status < 200 || status > 299:
			return nil, &HTTPError{Method: method, URL: url, StatusCode: status, Body: string(raw)}
		default:
			return raw, nil
		}
	}
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("building %s %s: %w", method, url, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.credentials.AccessToken())
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%s %s: %w", method, url, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("reading %s %s response: %w", method, url, err)
	}
	return resp.StatusCode, raw, nil
}

// RefreshAccessToken exchanges the current refresh token for a new token pair.
// Tokens are left untouched when the exchange fails.
func (c *Client) RefreshAccessToken(ctx context.Context) error {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.tokenClient)
	token, err := c.oauthConfig.TokenSource(ctx, &oauth2.Token{
		RefreshToken: c.credentials.RefreshToken(),
	}).Token()
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Failed to refresh access token")
		return fmt.Errorf("refreshing access token: %w", err)
	}
	if token.AccessToken == "" {
		return errors.New("refreshing access token: empty access token in response")
	}

	c.credentials.Replace(token.AccessToken, token.RefreshToken)
	logger.GetLogger().WithField("expiry", token.Expiry).Info("Access token refreshed successfully")
	return nil
}
