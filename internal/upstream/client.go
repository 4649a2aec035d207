// Package upstream implements C2: the Qwen HTTP client. It performs
// the three upstream operations spec.md §4.2 names — list models,
// create chat, send message (blocking or streaming) — and owns the
// transient-failure retry/backoff policy.
package upstream

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/chriscoletech/qwen-gateway/internal/apperrors"
	"github.com/chriscoletech/qwen-gateway/internal/config"
	"github.com/chriscoletech/qwen-gateway/internal/credentials"
	"github.com/chriscoletech/qwen-gateway/internal/metrics"
)

// Client is a Go-native HTTP client for Qwen's web-chat wire
// protocol, modeled on the teacher's internal/infrastructure/llm/openai
// Provider: a single http.Client with a tuned Transport, an injected
// logger, and explicit marshal/unmarshal helpers rather than a
// generated SDK.
type Client struct {
	baseURL string
	creds   *credentials.Holder
	http    *http.Client
	retry   config.RetryConfig
	logger  *zap.Logger
}

// New constructs a Client. Dialing and the TLS handshake are each
// bounded at 15s; cfg.Timeout() bounds only the wait for response
// headers, so a long streaming body is not cut off by total duration.
func New(cfg config.UpstreamConfig, retry config.RetryConfig, creds *credentials.Holder, logger *zap.Logger) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ResponseHeaderTimeout: cfg.Timeout(),
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
	}

	return &Client{
		baseURL: baseURL,
		creds:   creds,
		http:    &http.Client{Transport: transport},
		retry:   retry,
		logger:  logger.With(zap.String("component", "upstream-client")),
	}
}

// backOff builds a fresh exponential backoff sequence from the
// configured retry policy (spec.md §4.2: multiplier 2, initial 1s,
// cap 10s, max 3 attempts total).
func (c *Client) backOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = time.Duration(c.retry.InitialMS) * time.Millisecond
	eb.Multiplier = c.retry.Multiplier
	eb.MaxInterval = time.Duration(c.retry.CapMS) * time.Millisecond
	eb.MaxElapsedTime = 0 // bounded by attempt count instead, below
	attempts := c.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	return backoff.WithMaxRetries(eb, uint64(attempts-1))
}

// doWithRetry executes op, retrying on transient AppErrors per the
// configured backoff policy. Non-transient AppErrors (4xx, auth,
// semantic) are never retried, per spec.md §4.2.
func (c *Client) doWithRetry(ctx context.Context, opName string, op func() error) error {
	timer := prometheusTimer(opName)
	defer timer()

	attempt := 0
	wrapped := func() error {
		attempt++
		err := op()
		if err == nil {
			return nil
		}
		ae := apperrors.As(err)
		metrics.UpstreamErrorsTotal.WithLabelValues(string(ae.Kind)).Inc()
		if ae.Kind != apperrors.KindUpstreamTransient {
			return backoff.Permanent(err)
		}
		c.logger.Warn("upstream call failed, will retry",
			zap.String("op", opName),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		return err
	}

	err := backoff.Retry(wrapped, backoff.WithContext(c.backOff(), ctx))
	if err == nil {
		return nil
	}
	return err
}

func prometheusTimer(opName string) func() {
	observer := metrics.UpstreamCallDuration.WithLabelValues(opName)
	start := time.Now()
	return func() { observer.Observe(time.Since(start).Seconds()) }
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.KindInternal, "marshal upstream request", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindInternal, "build upstream request", err)
	}
	for k, v := range c.creds.Headers() {
		req.Header.Set(k, v)
	}
	return req, nil
}

// classifyTransportErr tags network-level failures (timeouts, resets,
// connection refused) as transient, per spec.md §4.2.
func classifyTransportErr(err error) *apperrors.AppError {
	msg := err.Error()
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "connection reset") || strings.Contains(lower, "connection refused") ||
		strings.Contains(lower, "eof") {
		return apperrors.Wrap(apperrors.KindUpstreamTransient, "upstream network error", err)
	}
	return apperrors.Wrap(apperrors.KindUpstreamTransient, "upstream request failed", err)
}

// ListModels performs GET /api/models, returning Qwen's native model
// list unreshaped (C9 reshapes it).
func (c *Client) ListModels(ctx context.Context) ([]QwenModel, error) {
	var result ModelsListResponse
	err := c.doWithRetry(ctx, "list_models", func() error {
		req, err := c.newRequest(ctx, http.MethodGet, "/api/models", nil)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return classifyTransportErr(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return classifyHTTPError(resp.StatusCode, string(body))
		}
		return json.Unmarshal(body, &result)
	})
	if err != nil {
		return nil, err
	}
	return result.Data, nil
}

// CreateChat performs POST /api/v2/chats/new and returns the fresh
// upstream chat id (spec.md §4.2, §6).
func (c *Client) CreateChat(ctx context.Context, title string, models []string) (string, error) {
	reqBody := NewChatRequest{
		Title:     title,
		Models:    models,
		ChatMode:  "guest",
		ChatType:  "t2t",
		Timestamp: time.Now().Unix(),
	}

	var result NewChatResponse
	err := c.doWithRetry(ctx, "create_chat", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, "/api/v2/chats/new", reqBody)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return classifyTransportErr(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return classifyHTTPError(resp.StatusCode, string(body))
		}
		return json.Unmarshal(body, &result)
	})
	if err != nil {
		return "", err
	}
	if result.Data.ID == "" {
		return "", apperrors.New(apperrors.KindUpstreamTransient, "upstream returned an empty chat id")
	}
	return result.Data.ID, nil
}

// SendMessageBlocking sends env with stream=false and returns the
// decoded reply. Retried per the transient-failure policy.
func (c *Client) SendMessageBlocking(ctx context.Context, env *Envelope) (*BlockingReply, error) {
	env.Stream = false
	var result BlockingReply
	err := c.doWithRetry(ctx, "send_message", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v2/chat/completions?chat_id=%s", env.ChatID), env)
		if err != nil {
			return err
		}
		resp, err := c.http.Do(req)
		if err != nil {
			return classifyTransportErr(err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return classifyHTTPError(resp.StatusCode, string(body))
		}
		return json.Unmarshal(body, &result)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// SendMessageStream sends env with stream=true and returns the open
// response body positioned at the start of the SSE stream. The
// initial connect is subject to the same retry policy; once the body
// is handed back, the caller (the streaming relay) owns it and no
// further retries occur for mid-stream failures (spec.md §4.2, §4.6).
func (c *Client) SendMessageStream(ctx context.Context, env *Envelope) (io.ReadCloser, error) {
	env.Stream = true
	env.IncrementalOutput = true

	var body io.ReadCloser
	err := c.doWithRetry(ctx, "send_message_stream", func() error {
		req, err := c.newRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v2/chat/completions?chat_id=%s", env.ChatID), env)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "text/event-stream")
		resp, err := c.http.Do(req)
		if err != nil {
			return classifyTransportErr(err)
		}
		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return classifyHTTPError(resp.StatusCode, string(respBody))
		}
		body = resp.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}
