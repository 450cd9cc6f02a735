// Package client provides a typed client for the Codebeamer REST API with
// response shape validation, query aggregation, and error classification.
package client

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/kanoloa/cbclient/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Prometheus metrics for Codebeamer client operations.
var (
	factory = promauto.With(metrics.Registry)

	cbRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "requests_total",
		Help:      "Total Codebeamer requests by endpoint, method and status",
	}, []string{"endpoint", "method", "status"})

	cbRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metrics.Namespace,
		Name:      "request_duration_seconds",
		Help:      "Codebeamer request duration in seconds by endpoint",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	cbErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "errors_total",
		Help:      "Total client failures by class",
	}, []string{"class"})
)

// Client is the Codebeamer REST client. It is immutable and safe for
// concurrent use.
type Client struct {
	httpClient *http.Client
	conn       Connection
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Connection is the base URL and credentials (REQUIRED: BaseURL)
	Connection Connection

	// HTTPClient replaces the default HTTP client. Timeout, ProxyURL and
	// Tracing are ignored when it is set.
	HTTPClient *http.Client

	// Timeout bounds each request; 0 means no timeout
	Timeout time.Duration

	// ProxyURL routes requests through a proxy; empty falls back to the
	// HTTP_PROXY/HTTPS_PROXY/NO_PROXY environment
	ProxyURL string

	// Tracing wraps the transport with OpenTelemetry instrumentation
	Tracing bool

	// UserAgent is sent when non-empty
	UserAgent string

	// Logger is the parent logger; the global logger is used when nil
	Logger *zerolog.Logger

	// PayloadLogLimit caps logged response bodies in bytes
	PayloadLogLimit int
}

// DefaultConfig returns the configuration used when only a connection is known.
func DefaultConfig(conn Connection) Config {
	return Config{
		Connection:      conn,
		PayloadLogLimit: logging.DefaultPayloadLimit,
	}
}

// New creates a new Codebeamer client.
func New(cfg Config) (*Client, error) {
	if cfg.Connection.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	if cfg.PayloadLogLimit <= 0 {
		cfg.PayloadLogLimit = logging.DefaultPayloadLimit
	}

	var logger zerolog.Logger
	if cfg.Logger != nil {
		logger = logging.WithComponent(*cfg.Logger, logging.ComponentClient)
	} else {
		logger = logging.NewLogger(logging.ComponentClient)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
	}

	if !cfg.Connection.Authenticated() {
		logger.Warn().
			Str("base_url", cfg.Connection.BaseURL).
			Msg("No credentials configured, requests will be sent unauthenticated")
	}

	return &Client{
		httpClient: httpClient,
		conn:       cfg.Connection,
		config:     cfg,
		logger:     logger,
	}, nil
}

func newHTTPClient(cfg Config) (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = http.ProxyFromEnvironment

	if cfg.ProxyURL != "" {
		proxy, err := url.Parse(cfg.ProxyURL)
		if err != nil || proxy.Host == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyURL, cfg.ProxyURL)
		}
		transport.Proxy = http.ProxyURL(proxy)
	}

	var rt http.RoundTripper = transport
	if cfg.Tracing {
		rt = otelhttp.NewTransport(rt)
	}

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.Timeout,
	}, nil
}

// WithConnection returns a copy of the client bound to conn. The receiver is
// not modified.
func (c *Client) WithConnection(conn Connection) *Client {
	clone := *c
	clone.conn = conn
	clone.config.Connection = conn
	return &clone
}

// Connection returns the connection the client sends requests on.
func (c *Client) Connection() Connection {
	return c.conn
}

// Close releases idle connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}
