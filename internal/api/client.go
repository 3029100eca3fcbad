package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/chatsweep/chatsweep/internal/constants"
	"github.com/chatsweep/chatsweep/internal/logging"
	"github.com/chatsweep/chatsweep/internal/models"
)

// TokenProvider supplies the bearer credential for backend calls. The token
// is requested per call so providers can rotate or refresh underneath.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// StaticToken is a TokenProvider backed by a fixed token string.
type StaticToken string

// AccessToken returns the fixed token, or an AuthError when empty.
func (t StaticToken) AccessToken(context.Context) (string, error) {
	if t == "" {
		return "", &AuthError{Err: fmt.Errorf("no access token configured")}
	}
	return string(t), nil
}

// retryLogger adapts retryablehttp's leveled logger to zerolog.
type retryLogger struct {
	logger *logging.Logger
}

func (l *retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(fieldMap(keysAndValues)).Msg(msg)
}

func (l *retryLogger) Info(string, ...interface{}) {}

func (l *retryLogger) Debug(string, ...interface{}) {}

func fieldMap(keysAndValues []interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		fields[key] = keysAndValues[i+1]
	}
	return fields
}

// Client talks to the chat backend's private API.
type Client struct {
	httpClient *nethttp.Client
	baseURL    string
	tokens     TokenProvider
	logger     *logging.Logger
}

// NewClient creates a backend API client. base is the underlying transport
// client (proxy/TLS configured); it is wrapped with retry logic for transient
// failures. The retry policy lives entirely in the transport: callers above
// see each logical call fail at most once.
func NewClient(baseURL string, tokens TokenProvider, base *nethttp.Client, logger *logging.Logger) *Client {
	if base == nil {
		base = &nethttp.Client{Timeout: constants.HTTPRequestTimeout}
	}
	if logger == nil {
		logger = logging.NewDefaultLogger()
	}

	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient = base
	retryClient.RetryMax = constants.RetryMax
	retryClient.RetryWaitMin = constants.RetryWaitMin
	retryClient.RetryWaitMax = constants.RetryWaitMax
	retryClient.Logger = &retryLogger{logger: logger}

	return &Client{
		httpClient: retryClient.StandardClient(),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		tokens:     tokens,
		logger:     logger,
	}
}

// doRequest performs an HTTP request with bearer authentication.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}) (*nethttp.Response, error) {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		var authErr *AuthError
		if errors.As(err, &authErr) {
			return nil, err
		}
		return nil, &AuthError{Err: err}
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug().Str("method", method).Str("path", path).Err(err).Msg("API call failed")
		return nil, fmt.Errorf("request failed: %w", err)
	}

	return resp, nil
}

// ListConversations retrieves one page of the user's conversations.
// A returned page shorter than limit signals the end of the data.
func (c *Client) ListConversations(ctx context.Context, offset, limit int) ([]models.Conversation, error) {
	if offset < 0 {
		return nil, fmt.Errorf("offset must be >= 0, got %d", offset)
	}
	if limit < 1 {
		return nil, fmt.Errorf("limit must be >= 1, got %d", limit)
	}
	if limit > constants.MaxPageLimit {
		limit = constants.MaxPageLimit
	}

	path := fmt.Sprintf("/backend-api/conversations?%s", url.Values{
		"offset": {fmt.Sprintf("%d", offset)},
		"limit":  {fmt.Sprintf("%d", limit)},
	}.Encode())

	resp, err := c.doRequest(ctx, "GET", path, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, &StatusError{Status: resp.StatusCode, Body: string(body)}
	}

	var page models.WireConversationPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("failed to decode conversations page: %w", err)
	}

	now := time.Now()
	conversations := make([]models.Conversation, 0, len(page.Items))
	for _, item := range page.Items {
		conversations = append(conversations, models.ConversationFromWire(item, now))
	}

	return conversations, nil
}

// DeleteConversation removes a conversation from the user's listing. The
// backend models deletion as flipping visibility off, so this is a PATCH,
// not an HTTP DELETE.
func (c *Client) DeleteConversation(ctx context.Context, id string) error {
	return c.patchConversation(ctx, id, map[string]interface{}{"is_visible": false})
}

// SetConversationArchived flips a conversation's archived flag.
func (c *Client) SetConversationArchived(ctx context.Context, id string, archived bool) error {
	return c.patchConversation(ctx, id, map[string]interface{}{"is_archived": archived})
}

func (c *Client) patchConversation(ctx context.Context, id string, body map[string]interface{}) error {
	if id == "" {
		return fmt.Errorf("conversation id must not be empty")
	}

	path := fmt.Sprintf("/backend-api/conversation/%s", url.PathEscape(id))

	resp, err := c.doRequest(ctx, "PATCH", path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != nethttp.StatusOK && resp.StatusCode != nethttp.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: string(respBody)}
	}

	return nil
}
