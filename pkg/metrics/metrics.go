// Package metrics provides the Prometheus registry used by the Codebeamer
// client. Metrics are defined in their respective packages (client,
// pagination) to keep those packages self-contained.
package metrics

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every metric exported by this module.
const Namespace = "cbclient"

// Registry is where the client and pagination packages register their
// metrics through promauto.With.
var Registry = prometheus.DefaultRegisterer

// Gatherer reads back what Registry collected.
var Gatherer prometheus.Gatherer = prometheus.DefaultGatherer

// WriteText writes every metric family in the cbclient namespace to w using
// the Prometheus text exposition format.
func WriteText(w io.Writer) error {
	families, err := Gatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - cbclient_requests_total{endpoint, method, status} (Counter): requests by
//     endpoint template, HTTP method and status ("network_error" on failure)
//   - cbclient_request_duration_seconds{endpoint} (Histogram): request latency
//   - cbclient_errors_total{class} (Counter): failures by class (transport,
//     shape_mismatch, empty_result, precondition)
//
// Query Metrics (pkg/pagination):
//   - cbclient_query_pages_total (Counter): pages accepted by the aggregator
//   - cbclient_query_stops_total{reason} (Counter): aggregator terminations by
//     reason (complete, total_zero, empty_page, shape_mismatch, transport,
//     cancelled)
//
// Example Prometheus Queries:
//
//	# Shape mismatch rate
//	rate(cbclient_errors_total{class="shape_mismatch"}[5m])
//
//	# Queries that ended early
//	sum by (reason) (rate(cbclient_query_stops_total{reason!="complete"}[5m]))
//
//	# P95 request latency
//	histogram_quantile(0.95, rate(cbclient_request_duration_seconds_bucket[5m]))
