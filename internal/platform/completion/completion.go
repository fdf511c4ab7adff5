// Package completion is the client for the hosted chat-completion service
// used to turn transcripts into structured notes. One request, one response;
// failures are classified into a fixed taxonomy and never retried here.
package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrorKind classifies a failed completion call.
type ErrorKind string

const (
	KindTimeout     ErrorKind = "timeout"
	KindAuth        ErrorKind = "auth"
	KindNotFound    ErrorKind = "deployment_not_found"
	KindRateLimited ErrorKind = "rate_limited"
	KindMalformed   ErrorKind = "malformed_response"
	KindNetwork     ErrorKind = "network"
)

// Error is a classified upstream failure with a user-facing message.
type Error struct {
	Kind    ErrorKind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("completion %s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("completion %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// KindOf returns the error kind, or "" when err is not a completion error.
func KindOf(err error) ErrorKind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}

// Message is a role-tagged chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Config holds the upstream endpoint parameters.
type Config struct {
	Endpoint    string
	APIKey      string
	Deployment  string
	APIVersion  string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

// Client calls the chat-completion deployment.
type Client struct {
	cfg  Config
	http *http.Client
}

// New creates a completion client. A zero timeout defaults to 60s.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: timeout},
	}
}

// Configured reports whether the client has endpoint, key, and deployment.
func (c *Client) Configured() bool {
	return c.cfg.Endpoint != "" && c.cfg.APIKey != "" && c.cfg.Deployment != ""
}

type chatRequest struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the messages and returns the single completion string.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	url := fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
		c.cfg.Endpoint, c.cfg.Deployment, c.cfg.APIVersion)

	body, err := json.Marshal(chatRequest{
		Messages:    messages,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", &Error{Kind: KindMalformed, Message: "could not encode request", cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "could not build request", cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", &Error{Kind: KindTimeout, Message: "note generation timed out", cause: err}
		}
		return "", &Error{Kind: KindNetwork, Message: "could not reach the note service", cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &Error{Kind: KindNetwork, Message: "could not read response", cause: err}
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", &Error{Kind: KindAuth, Message: "note service rejected the API key"}
	case resp.StatusCode == http.StatusNotFound:
		return "", &Error{Kind: KindNotFound, Message: "note service deployment not found"}
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", &Error{Kind: KindRateLimited, Message: "note service is rate limiting requests"}
	case resp.StatusCode != http.StatusOK:
		return "", &Error{Kind: KindNetwork,
			Message: fmt.Sprintf("note service returned status %d", resp.StatusCode)}
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", &Error{Kind: KindMalformed, Message: "note service returned an unreadable response", cause: err}
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", &Error{Kind: KindMalformed, Message: "note service returned an empty completion"}
	}

	return parsed.Choices[0].Message.Content, nil
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
