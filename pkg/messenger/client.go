package messenger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/papercomputeco/studybot/pkg/logger"
	"github.com/papercomputeco/studybot/pkg/utils"
)

const (
	// DefaultAPIURL is the Graph API base the Send API lives under.
	DefaultAPIURL = "https://graph.facebook.com/v2.6"

	// DefaultMessageLimit is the platform's maximum text length in runes.
	DefaultMessageLimit = 2000

	defaultTimeout = 10 * time.Second
)

// Config is the Messenger client configuration.
type Config struct {
	// APIURL is the Graph API base URL (defaults to DefaultAPIURL).
	APIURL string

	// PageAccessToken authenticates every call for the page.
	PageAccessToken string

	// MessageLimit is the maximum runes per message (defaults to 2000).
	MessageLimit int

	// Timeout bounds each HTTP call (defaults to 10s).
	Timeout time.Duration

	// HTTPClient overrides the HTTP client, mostly for tests.
	HTTPClient *http.Client

	// Logger is the provided slog logger
	Logger *slog.Logger
}

// APIError is returned when the Graph API answers with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("messenger api returned %d: %s", e.StatusCode, e.Body)
}

// Client implements Transport over the Graph API. Calls pass through a
// circuit breaker so an unavailable platform fails fast.
type Client struct {
	apiURL  string
	token   string
	limit   int
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	logger  *slog.Logger
}

// NewClient creates a Messenger client.
func NewClient(c *Config) (*Client, error) {
	if c.PageAccessToken == "" {
		return nil, errors.New("messenger page access token is required")
	}

	client := &Client{
		apiURL: strings.TrimRight(c.APIURL, "/"),
		token:  c.PageAccessToken,
		limit:  c.MessageLimit,
		http:   c.HTTPClient,
		logger: c.Logger,
	}
	if client.apiURL == "" {
		client.apiURL = DefaultAPIURL
	}
	if client.limit <= 0 {
		client.limit = DefaultMessageLimit
	}
	if client.logger == nil {
		client.logger = logger.Nop()
	}
	if client.http == nil {
		timeout := c.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client.http = &http.Client{Timeout: timeout}
	}

	client.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "messenger",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			client.logger.Warn("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})

	return client, nil
}

type recipient struct {
	ID string `json:"id"`
}

type textMessage struct {
	Text string `json:"text"`
}

type sendRequest struct {
	MessagingType MessageType  `json:"messaging_type,omitempty"`
	Recipient     recipient    `json:"recipient"`
	Message       *textMessage `json:"message,omitempty"`
	SenderAction  string       `json:"sender_action,omitempty"`
}

// SendMessage sends text as one or more ordered messages.
func (c *Client) SendMessage(ctx context.Context, recipientID, text string, messageType MessageType) error {
	chunks := SplitText(text, c.limit)
	for i, chunk := range chunks {
		req := sendRequest{
			MessagingType: messageType,
			Recipient:     recipient{ID: recipientID},
			Message:       &textMessage{Text: chunk},
		}
		if err := c.post(ctx, "/me/messages", req); err != nil {
			return fmt.Errorf("sending message part %d/%d: %w", i+1, len(chunks), err)
		}
	}

	c.logger.Debug("message sent",
		"recipient", recipientID,
		"messaging_type", string(messageType),
		"parts", len(chunks),
		"preview", utils.Truncate(text, 40),
	)
	return nil
}

// SetTypingIndicator turns the typing bubble on or off.
func (c *Client) SetTypingIndicator(ctx context.Context, recipientID string, on bool) error {
	action := "typing_off"
	if on {
		action = "typing_on"
	}

	req := sendRequest{
		Recipient:    recipient{ID: recipientID},
		SenderAction: action,
	}
	if err := c.post(ctx, "/me/messages", req); err != nil {
		return fmt.Errorf("setting typing indicator: %w", err)
	}
	return nil
}

// FirstName looks up the first name of a page-scoped user id.
func (c *Client) FirstName(ctx context.Context, userID string) (string, error) {
	query := url.Values{}
	query.Set("fields", "first_name")

	body, err := c.do(ctx, http.MethodGet, "/"+url.PathEscape(userID), query, nil)
	if err != nil {
		return "", fmt.Errorf("fetching profile: %w", err)
	}

	var profile struct {
		FirstName string `json:"first_name"`
	}
	if err := json.Unmarshal(body, &profile); err != nil {
		return "", fmt.Errorf("decoding profile: %w", err)
	}
	return profile.FirstName, nil
}

func (c *Client) post(ctx context.Context, path string, payload sendRequest) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	_, err = c.do(ctx, http.MethodPost, path, nil, data)
	return err
}

// do performs one Graph API call through the breaker and returns the body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, payload []byte) ([]byte, error) {
	if query == nil {
		query = url.Values{}
	}
	query.Set("access_token", c.token)
	endpoint := c.apiURL + path + "?" + query.Encode()

	result, err := c.breaker.Execute(func() (any, error) {
		var body io.Reader
		if payload != nil {
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", utils.UserAgent())
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
		}
		return respBody, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}
