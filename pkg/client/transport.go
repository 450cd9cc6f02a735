package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/kanoloa/cbclient/pkg/shape"
)

// response is a decoded JSON body with its status code. Non-2xx responses
// are returned like any other; their bodies are validated by the caller.
type response struct {
	status int
	raw    json.RawMessage
	value  any
}

// call names one request for logs, metrics and errors.
type call struct {
	op       string // operation, e.g. "list_projects"
	endpoint string // path template, e.g. "/items/{id}"
	method   string
	path     string // concrete path appended to the base URL
	body     any
}

// send performs one HTTP request and decodes the JSON body.
// It never logs request headers.
func (c *Client) send(ctx context.Context, cl call) (*response, error) {
	startTime := time.Now()
	defer func() {
		cbRequestDuration.WithLabelValues(cl.endpoint).Observe(time.Since(startTime).Seconds())
	}()

	var reader io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return nil, c.preconditionError(cl.op, fmt.Errorf("encode request body: %w", err))
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.conn.BaseURL+cl.path, reader)
	if err != nil {
		return nil, c.transportError(cl, 0, nil, fmt.Errorf("create request: %w", err))
	}
	c.conn.applyHeaders(req.Header)
	if c.config.UserAgent != "" {
		req.Header.Set("User-Agent", c.config.UserAgent)
	}

	c.logger.Debug().
		Str("op", cl.op).
		Str("endpoint", cl.endpoint).
		Str("method", cl.method).
		Bool("authenticated", c.conn.Authenticated()).
		Msg("Executing Codebeamer request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		cbRequestsTotal.WithLabelValues(cl.endpoint, cl.method, "network_error").Inc()
		return nil, c.transportError(cl, 0, nil, err)
	}
	defer resp.Body.Close()

	status := strconv.Itoa(resp.StatusCode)
	cbRequestsTotal.WithLabelValues(cl.endpoint, cl.method, status).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.transportError(cl, resp.StatusCode, nil, fmt.Errorf("read response body: %w", err))
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return nil, c.transportError(cl, resp.StatusCode, data, fmt.Errorf("decode response body: %w", err))
	}

	c.logger.Debug().
		Str("op", cl.op).
		Str("endpoint", cl.endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(startTime)).
		Msg("Codebeamer response received")

	if resp.StatusCode >= 400 {
		c.logger.Warn().
			Str("op", cl.op).
			Str("endpoint", cl.endpoint).
			Int("status", resp.StatusCode).
			Msg("Codebeamer request error")
	}

	return &response{
		status: resp.StatusCode,
		raw:    data,
		value:  value,
	}, nil
}

// decode validates resp with classify and decodes it into T.
func decode[T any](c *Client, op string, resp *response, classify func(any) shape.Class) (T, error) {
	var out T

	class := classify(resp.value)
	if class != shape.Valid {
		return out, c.shapeError(op, resp, class, nil)
	}

	if err := json.Unmarshal(resp.raw, &out); err != nil {
		return out, c.shapeError(op, resp, shape.Invalid, err)
	}
	return out, nil
}

// predicate turns a boolean validator into a classifier.
func predicate(valid func(any) bool) func(any) shape.Class {
	return func(v any) shape.Class {
		if valid(v) {
			return shape.Valid
		}
		return shape.Invalid
	}
}

func (c *Client) transportError(cl call, status int, raw []byte, err error) error {
	cbErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()

	event := c.logger.Error().
		Err(err).
		Str("op", cl.op).
		Str("endpoint", cl.endpoint).
		Str("method", cl.method)
	if status != 0 {
		event = event.Int("status", status)
	}
	if raw != nil {
		event = event.Str("payload", logging.Payload(raw, c.config.PayloadLogLimit))
	}
	event.Msg("Codebeamer request failed")

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("request aborted: %w", err)
	}

	return &Error{
		Op:         cl.op,
		Class:      ErrorClassTransport,
		StatusCode: status,
		Raw:        raw,
		Err:        err,
	}
}

func (c *Client) shapeError(op string, resp *response, class shape.Class, cause error) error {
	errClass := ErrorClassShape
	if class == shape.Empty {
		errClass = ErrorClassEmpty
	}
	cbErrorsTotal.WithLabelValues(string(errClass)).Inc()

	cbErr := &Error{
		Op:         op,
		Class:      errClass,
		StatusCode: resp.status,
		Raw:        resp.raw,
		Err:        cause,
	}
	if shape.IsErrorResponse(resp.value) {
		cbErr.Message = resp.value.(map[string]any)["message"].(string)
	}

	c.logger.Warn().
		Err(cause).
		Str("op", op).
		Str("class", string(errClass)).
		Int("status", resp.status).
		Str("server_message", cbErr.Message).
		Str("payload", logging.Payload(resp.raw, c.config.PayloadLogLimit)).
		Msg("Unexpected Codebeamer response")

	return cbErr
}

func (c *Client) preconditionError(op string, err error) error {
	cbErrorsTotal.WithLabelValues(string(ErrorClassPrecondition)).Inc()

	c.logger.Warn().
		Err(err).
		Str("op", op).
		Msg("Request rejected before sending")

	return &Error{
		Op:    op,
		Class: ErrorClassPrecondition,
		Err:   err,
	}
}
