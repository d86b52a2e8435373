package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-provider-gateway/internal/pkg/logger"
)

const maxErrorMessage = 256

var (
	errServerError = errors.New("server error")
	errCircuitOpen = errors.New("circuit breaker open")
	// errCallerDone marks failures caused by the caller's context, which say
	// nothing about the upstream's health.
	errCallerDone = errors.New("caller context done")
)

// Request is a GET against a resource path relative to the client's base URL.
type Request struct {
	Resource string
	Query    map[string]string
}

// Response carries the outcome of a request that reached the provider.
type Response struct {
	Success      bool
	Body         string
	StatusCode   int
	ErrorMessage string
}

// Client is the narrow HTTP contract provider adapters depend on. An error is
// returned only when no response was received; HTTP error statuses come back
// as an unsuccessful Response.
type Client interface {
	Execute(ctx context.Context, req Request) (Response, error)
}

// Config controls a RestyClient.
type Config struct {
	Name    string
	BaseURL string
	Timeout time.Duration
	Headers map[string]string
}

// RestyClient implements Client on top of resty, guarded by a circuit breaker
// that opens on network failures and 5xx answers. It never retries.
type RestyClient struct {
	name    string
	client  *resty.Client
	circuit *gobreaker.CircuitBreaker
	log     logger.Logger
}

// NewRestyClient builds a client for one upstream with its own breaker.
func NewRestyClient(cfg Config, log logger.Logger) *RestyClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeaders(cfg.Headers)

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:         cfg.Name,
		MaxRequests:  5,
		Interval:     1 * time.Minute,
		Timeout:      2 * time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerDone)
		},
	})

	return &RestyClient{
		name:    cfg.Name,
		client:  client,
		circuit: cb,
		log:     logger.Component(log, "transport").WithField("provider", cfg.Name),
	}
}

// Execute sends req as a GET. Client-side errors come back as an unsuccessful
// Response; network failures, caller cancellation and an open breaker come
// back as errors.
func (c *RestyClient) Execute(ctx context.Context, req Request) (Response, error) {
	requestID := uuid.NewString()

	result, err := c.circuit.Execute(func() (interface{}, error) {
		resp, execErr := c.client.R().
			SetContext(ctx).
			SetHeader("X-Request-ID", requestID).
			SetQueryParams(req.Query).
			Get(req.Resource)
		if execErr != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: %w", errCallerDone, execErr)
			}
			return nil, execErr
		}
		if resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServerError
		}
		return resp, nil
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return Response{}, fmt.Errorf("%w: %v", errCircuitOpen, err)
	}

	resp, ok := result.(*resty.Response)
	if !ok || resp == nil {
		if err == nil {
			err = fmt.Errorf("unexpected result type from circuit breaker")
		}
		c.log.WithFields(map[string]interface{}{
			"resource":   req.Resource,
			"request_id": requestID,
		}).WithError(err).Warn("request failed")
		return Response{}, err
	}

	out := Response{
		Success:    resp.IsSuccess(),
		Body:       resp.String(),
		StatusCode: resp.StatusCode(),
	}
	if !out.Success {
		out.ErrorMessage = errorMessage(resp)
	}

	c.log.WithFields(map[string]interface{}{
		"resource":   req.Resource,
		"status":     out.StatusCode,
		"duration":   resp.Time().String(),
		"request_id": requestID,
	}).Debug("request completed")

	return out, nil
}

func errorMessage(resp *resty.Response) string {
	body := resp.String()
	if body == "" {
		return resp.Status()
	}
	return truncate(body, maxErrorMessage)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
