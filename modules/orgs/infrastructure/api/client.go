package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/iota-uz/orgadmin/pkg/configuration"
	"github.com/iota-uz/orgadmin/pkg/httpapi"
)

const tracerName = "github.com/iota-uz/orgadmin/modules/orgs/infrastructure/api"

// Client speaks JSON to the orgs REST API. It owns transport concerns only:
// request ids, auth, retries of idempotent reads, rate limiting, metrics and spans.
type Client struct {
	baseURL         *url.URL
	authorization   string
	httpClient      *http.Client
	requestIDHeader string
	maxRetries      int
	maxBackoff      time.Duration
	limiter         *limiter.Limiter
	log             *logrus.Logger
	tracer          trace.Tracer

	randMu sync.Mutex
	rand   *rand.Rand
}

func NewClient(opts configuration.APIOptions, rl configuration.RateLimitOptions, log *logrus.Logger) (*Client, error) {
	baseURL := strings.TrimSpace(opts.BaseURL)
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("invalid orgs api base url: %q", baseURL)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Client{
		baseURL:         u,
		authorization:   authorizationHeader(opts.Token),
		httpClient:      &http.Client{Timeout: opts.Timeout},
		requestIDHeader: opts.RequestHeader,
		maxRetries:      opts.MaxRetries,
		maxBackoff:      opts.MaxBackoff,
		log:             log,
		tracer:          otel.Tracer(tracerName),
		rand:            rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec
	}
	if rl.Enabled {
		c.limiter = limiter.New(memory.NewStore(), limiter.Rate{
			Period: time.Second,
			Limit:  int64(rl.RPS),
		})
	}
	return c, nil
}

func authorizationHeader(token string) string {
	token = strings.TrimSpace(token)
	if token == "" || strings.Contains(token, " ") {
		return token
	}
	return "Bearer " + token
}

// doJSON issues one logical call. GETs that fail with a transport error, 429 or
// 5xx are retried up to maxRetries times with exponential backoff.
func (c *Client) doJSON(ctx context.Context, endpoint, method, path string, query url.Values, reqBody any, out any) error {
	ctx, span := c.tracer.Start(ctx, "orgs.api "+endpoint,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("orgs.endpoint", endpoint),
		),
	)
	defer span.End()

	var body []byte
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return errors.Wrap(err, "json marshal request")
		}
		body = b
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.maxRetries
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			apiRetries.WithLabelValues(endpoint).Inc()
			if err := sleepCtx(ctx, c.retryDelay(attempt-1)); err != nil {
				lastErr = httpapi.TransportError(err)
				break
			}
		}
		status, err := c.roundTrip(ctx, endpoint, method, path, query, body, out)
		span.SetAttributes(attribute.Int("http.status_code", status))
		if err == nil {
			span.SetStatus(codes.Ok, "")
			return nil
		}
		lastErr = err
		var apiErr *httpapi.Error
		if !errors.As(err, &apiErr) || !apiErr.Temporary() || ctx.Err() != nil {
			break
		}
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, lastErr.Error())
	return lastErr
}

func (c *Client) roundTrip(ctx context.Context, endpoint, method, path string, query url.Values, body []byte, out any) (int, error) {
	if err := c.wait(ctx); err != nil {
		return 0, httpapi.TransportError(err)
	}

	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return 0, errors.Wrap(err, "http request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID := uuid.NewString()
	if c.requestIDHeader != "" {
		req.Header.Set(c.requestIDHeader, requestID)
	}
	if c.authorization != "" {
		req.Header.Set("Authorization", c.authorization)
	}

	start := time.Now()
	entry := c.log.WithFields(logrus.Fields{
		"endpoint":   endpoint,
		"method":     method,
		"url":        u.String(),
		"request_id": requestID,
	})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		observe(endpoint, 0, time.Since(start))
		entry.WithError(err).Debug("orgs api request failed")
		return 0, httpapi.TransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	observe(endpoint, resp.StatusCode, time.Since(start))
	entry = entry.WithFields(logrus.Fields{
		"status":   resp.StatusCode,
		"duration": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Debug("orgs api read failed")
		return resp.StatusCode, httpapi.TransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		entry.Debug("orgs api request rejected")
		return resp.StatusCode, httpapi.DecodeError(resp.StatusCode, respBody)
	}
	entry.Debug("orgs api request")

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return resp.StatusCode, nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return resp.StatusCode, errors.Wrap(err, "json unmarshal response")
	}
	return resp.StatusCode, nil
}

// wait blocks until the client side rate limit admits one more request.
func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	for {
		lctx, err := c.limiter.Get(ctx, c.baseURL.Host)
		if err != nil {
			return errors.Wrap(err, "rate limiter")
		}
		if !lctx.Reached {
			return nil
		}
		delay := time.Until(time.Unix(lctx.Reset, 0))
		if delay <= 0 {
			delay = 10 * time.Millisecond
		}
		if err := sleepCtx(ctx, delay); err != nil {
			return err
		}
	}
}

func (c *Client) retryDelay(retry int) time.Duration {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	return backoff(retry, c.maxBackoff) + jitter(c.rand, c.maxBackoff/4)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
