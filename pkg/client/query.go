package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/kanoloa/cbclient/pkg/pagination"
	"github.com/kanoloa/cbclient/pkg/shape"
)

// QueryOption configures QueryItems.
type QueryOption func(*pagination.Config)

// WithStartPage sets the first page requested (1-based).
func WithStartPage(page int) QueryOption {
	return func(cfg *pagination.Config) {
		cfg.StartPage = page
	}
}

// WithPageSize sets the number of items requested per page.
func WithPageSize(size int) QueryOption {
	return func(cfg *pagination.Config) {
		cfg.PageSize = size
	}
}

// QueryItems runs a cBQL query and returns all matching items, fetching pages
// until the declared total is read.
//
// A query without matches is not an error. On failure the items read so far
// are returned together with the error.
func (c *Client) QueryItems(ctx context.Context, cbql string, opts ...QueryOption) (*model.TrackerItemSearchResult, error) {
	result, _, err := c.QueryItemsWithReport(ctx, cbql, opts...)
	return result, err
}

// QueryItemsWithReport is QueryItems that also returns the aggregation report.
func (c *Client) QueryItemsWithReport(ctx context.Context, cbql string, opts ...QueryOption) (*model.TrackerItemSearchResult, pagination.Report, error) {
	cfg := pagination.DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	fetcher := &queryFetcher{client: c, cbql: cbql}
	agg := pagination.NewAggregator(fetcher, cfg, c.logger)

	result, report, err := agg.Run(ctx)
	if err == nil {
		return result, report, nil
	}

	// Transport failures are already classified by send.
	var cbErr *Error
	if errors.As(err, &cbErr) {
		return result, report, err
	}

	if errors.Is(err, pagination.ErrShapeMismatch) {
		cbErrorsTotal.WithLabelValues(string(ErrorClassShape)).Inc()
		return result, report, &Error{
			Op:         OpQueryItems,
			Class:      ErrorClassShape,
			StatusCode: fetcher.lastStatus,
			Message:    errorMessage(report.Payload),
			Raw:        report.Payload,
			Err:        err,
		}
	}

	cbErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
	return result, report, &Error{
		Op:    OpQueryItems,
		Class: ErrorClassTransport,
		Err:   err,
	}
}

// QueryPage fetches a single page of a cBQL query. A page without items is an
// ErrEmptyResult failure.
func (c *Client) QueryPage(ctx context.Context, cbql string, page, pageSize int) (*model.TrackerItemSearchResult, error) {
	resp, err := c.send(ctx, queryCall(cbql, page, pageSize))
	if err != nil {
		return nil, err
	}

	result, err := decode[model.TrackerItemSearchResult](c, OpQueryItems, resp, shape.ClassifyTrackerItemSearchResult)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// queryFetcher serves query pages to the aggregator and remembers the status
// of the last response.
type queryFetcher struct {
	client     *Client
	cbql       string
	lastStatus int
}

// FetchPage implements pagination.PageFetcher.
func (f *queryFetcher) FetchPage(ctx context.Context, page, pageSize int) (json.RawMessage, error) {
	resp, err := f.client.send(ctx, queryCall(f.cbql, page, pageSize))
	if err != nil {
		f.lastStatus = 0
		return nil, err
	}
	f.lastStatus = resp.status
	return resp.raw, nil
}

func queryCall(cbql string, page, pageSize int) call {
	return call{
		op:       OpQueryItems,
		endpoint: "/items/query",
		method:   http.MethodGet,
		path:     QueryPath(cbql, page, pageSize),
	}
}

// QueryPath returns the /items/query path for one page. Parameters are
// emitted in the order page, pageSize, queryString; spaces in the query are
// sent as %20.
func QueryPath(cbql string, page, pageSize int) string {
	query := strings.ReplaceAll(url.QueryEscape(cbql), "+", "%20")
	return "/items/query?page=" + strconv.Itoa(page) +
		"&pageSize=" + strconv.Itoa(pageSize) +
		"&queryString=" + query
}

func errorMessage(raw json.RawMessage) string {
	var body model.ErrorResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Message
}
