package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/kanoloa/cbclient/pkg/logging"
	"github.com/kanoloa/cbclient/pkg/metrics"
	"github.com/kanoloa/cbclient/pkg/model"
	"github.com/kanoloa/cbclient/pkg/shape"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// Prometheus metrics for query aggregation.
var (
	factory = promauto.With(metrics.Registry)

	queryPagesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "query_pages_total",
		Help:      "Total query pages accepted by the aggregator",
	})

	queryStopsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: metrics.Namespace,
		Name:      "query_stops_total",
		Help:      "Total query aggregations by stop reason",
	}, []string{"reason"})
)

// Defaults applied by NewAggregator.
const (
	DefaultStartPage = 1
	DefaultPageSize  = 100
)

// ErrShapeMismatch is returned when a page does not have the search-result shape.
var ErrShapeMismatch = errors.New("query page shape mismatch")

// StopReason tells why an aggregation ended.
type StopReason string

const (
	StopComplete      StopReason = "complete"
	StopTotalZero     StopReason = "total_zero"
	StopEmptyPage     StopReason = "empty_page"
	StopShapeMismatch StopReason = "shape_mismatch"
	StopTransport     StopReason = "transport"
	StopCancelled     StopReason = "cancelled"
)

// Normal reports whether the reason is a regular end of data.
func (r StopReason) Normal() bool {
	return r == StopComplete || r == StopTotalZero || r == StopEmptyPage
}

// Config holds aggregator configuration.
type Config struct {
	// StartPage is the first page requested (1-based).
	StartPage int
	// PageSize is passed through to the server; the server enforces its own maximum.
	PageSize int
}

// DefaultConfig returns the page settings used when the caller gives none.
func DefaultConfig() Config {
	return Config{
		StartPage: DefaultStartPage,
		PageSize:  DefaultPageSize,
	}
}

// PageFetcher fetches one page of a query and returns its raw JSON body.
type PageFetcher interface {
	FetchPage(ctx context.Context, page, pageSize int) (json.RawMessage, error)
}

// PageFetcherFunc adapts a function to PageFetcher.
type PageFetcherFunc func(ctx context.Context, page, pageSize int) (json.RawMessage, error)

// FetchPage implements PageFetcher.
func (f PageFetcherFunc) FetchPage(ctx context.Context, page, pageSize int) (json.RawMessage, error) {
	return f(ctx, page, pageSize)
}

// Report describes how an aggregation went.
type Report struct {
	// QueryID correlates the log lines of one aggregation.
	QueryID string
	// Requests is the number of FetchPage calls made.
	Requests int
	// Pages is the number of pages whose items were accepted.
	Pages int
	// Stop is why the loop ended.
	Stop StopReason
	// LastPage is the page number of the final request.
	LastPage int
	// Payload holds the rejected page body when Stop is StopShapeMismatch.
	Payload json.RawMessage
}

// Aggregator walks a paged query sequentially.
type Aggregator struct {
	fetcher PageFetcher
	config  Config
	logger  zerolog.Logger
}

// NewAggregator creates a new aggregator. Non-positive config values fall
// back to the defaults.
func NewAggregator(fetcher PageFetcher, config Config, logger zerolog.Logger) *Aggregator {
	if config.StartPage <= 0 {
		config.StartPage = DefaultStartPage
	}
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}

	return &Aggregator{
		fetcher: fetcher,
		config:  config,
		logger:  logging.WithComponent(logger, logging.ComponentPagination),
	}
}

// Run fetches pages until a stop condition is met and returns the
// concatenated items. Total, Page and PageSize come from the first
// well-formed page. On abnormal stops the accumulated items are returned
// together with the error.
func (a *Aggregator) Run(ctx context.Context) (*model.TrackerItemSearchResult, Report, error) {
	start := time.Now()

	result := &model.TrackerItemSearchResult{
		Page:     a.config.StartPage,
		PageSize: a.config.PageSize,
		Items:    []model.TrackerItem{},
	}
	report := Report{QueryID: uuid.NewString()}
	logger := a.logger.With().Str("query_id", report.QueryID).Logger()

	var (
		total       int
		currentRead int
		page        = a.config.StartPage
		pageCount   int
	)

	finish := func(reason StopReason, err error) (*model.TrackerItemSearchResult, Report, error) {
		report.Stop = reason
		queryStopsTotal.WithLabelValues(string(reason)).Inc()

		event := logger.Info()
		if !reason.Normal() {
			event = logger.Warn().Err(err)
		}
		event.
			Str("stop", string(reason)).
			Int("items", len(result.Items)).
			Int("total", total).
			Int("pages", report.Pages).
			Int("requests", report.Requests).
			Dur("duration", time.Since(start)).
			Msg("Query aggregation finished")

		return result, report, err
	}

	for {
		if err := ctx.Err(); err != nil {
			return finish(StopCancelled, fmt.Errorf("query cancelled before page %d: %w", page, err))
		}

		logger.Debug().
			Int("page", page).
			Int("page_size", a.config.PageSize).
			Msg("Fetching query page")

		report.Requests++
		report.LastPage = page
		raw, err := a.fetcher.FetchPage(ctx, page, a.config.PageSize)
		if err != nil {
			if ctx.Err() != nil {
				return finish(StopCancelled, fmt.Errorf("fetch page %d: %w", page, err))
			}
			return finish(StopTransport, fmt.Errorf("fetch page %d: %w", page, err))
		}

		chunk, class := decodePage(raw)
		switch class {
		case shape.Invalid:
			report.Payload = raw
			return finish(StopShapeMismatch, fmt.Errorf("page %d: %w", page, ErrShapeMismatch))
		case shape.Empty:
			if pageCount == 0 {
				copyMeta(result, chunk)
				total = chunk.Total
				if total == 0 {
					return finish(StopTotalZero, nil)
				}
			}
			return finish(StopEmptyPage, nil)
		}

		if pageCount == 0 {
			copyMeta(result, chunk)
			total = chunk.Total
			if total == 0 {
				return finish(StopTotalZero, nil)
			}
		}

		result.Items = append(result.Items, chunk.Items...)
		currentRead += len(chunk.Items)
		report.Pages++
		queryPagesTotal.Inc()

		page++
		pageCount++

		if currentRead >= total {
			return finish(StopComplete, nil)
		}
	}
}

// decodePage classifies a raw page and, unless it is invalid, decodes it.
// A page whose fields have the wrong JSON types is invalid.
func decodePage(raw json.RawMessage) (model.TrackerItemSearchResult, shape.Class) {
	var chunk model.TrackerItemSearchResult

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return chunk, shape.Invalid
	}

	class := shape.ClassifyTrackerItemSearchResult(decoded)
	if class == shape.Invalid {
		return chunk, class
	}
	if err := json.Unmarshal(raw, &chunk); err != nil {
		return chunk, shape.Invalid
	}
	return chunk, class
}

func copyMeta(dst *model.TrackerItemSearchResult, src model.TrackerItemSearchResult) {
	dst.Total = src.Total
	dst.Page = src.Page
	dst.PageSize = src.PageSize
}
