package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errNetwork = errors.New("connection reset by peer")

// pagedSource serves a fixed list of page bodies and records every request.
type pagedSource struct {
	pages    []string
	failAt   int // 1-based call index that returns errNetwork, 0 = never
	calls    int
	requests [][2]int
}

func (s *pagedSource) FetchPage(_ context.Context, page, pageSize int) (json.RawMessage, error) {
	s.calls++
	s.requests = append(s.requests, [2]int{page, pageSize})
	if s.failAt == s.calls {
		return nil, errNetwork
	}
	if s.calls > len(s.pages) {
		return nil, fmt.Errorf("unexpected call %d", s.calls)
	}
	return json.RawMessage(s.pages[s.calls-1]), nil
}

func item(id int, name string) string {
	return fmt.Sprintf(`{"id":%d,"name":%q}`, id, name)
}

func page(total, pageNo, pageSize int, items ...string) string {
	body := "["
	for i, it := range items {
		if i > 0 {
			body += ","
		}
		body += it
	}
	body += "]"
	return fmt.Sprintf(`{"page":%d,"pageSize":%d,"total":%d,"items":%s}`, pageNo, pageSize, total, body)
}

func itemNames(t *testing.T, agg *Aggregator) ([]string, Report, error) {
	t.Helper()

	result, report, err := agg.Run(context.Background())
	require.NotNil(t, result)

	names := make([]string, 0, len(result.Items))
	for _, it := range result.Items {
		names = append(names, it.Name)
	}
	return names, report, err
}

func newTestAggregator(src PageFetcher, pageSize int) *Aggregator {
	return NewAggregator(src, Config{StartPage: 1, PageSize: pageSize}, zerolog.Nop())
}

func TestRun_ConcatenatesAllPages(t *testing.T) {
	src := &pagedSource{pages: []string{
		page(5, 1, 2, item(1, "a"), item(2, "b")),
		page(5, 2, 2, item(3, "c"), item(4, "d")),
		page(5, 3, 2, item(5, "e")),
	}}

	agg := newTestAggregator(src, 2)
	result, report, err := agg.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, src.calls)
	assert.Equal(t, 5, result.Total)
	assert.Equal(t, 1, result.Page)
	assert.Equal(t, 2, result.PageSize)
	require.Len(t, result.Items, 5)
	assert.Equal(t, "e", result.Items[4].Name)

	assert.Equal(t, StopComplete, report.Stop)
	assert.Equal(t, 3, report.Pages)
	assert.Equal(t, 3, report.Requests)
	assert.Equal(t, 3, report.LastPage)
	assert.NotEmpty(t, report.QueryID)
	assert.Equal(t, [][2]int{{1, 2}, {2, 2}, {3, 2}}, src.requests)
}

func TestRun_ItemsWithTableFields(t *testing.T) {
	table := `{"id":1,"name":"a","customFields":[{"fieldId":1000000,"type":"TableFieldValue",` +
		`"values":[[{"fieldId":1000001,"type":"TextFieldValue","value":"x"}]]}]}`
	src := &pagedSource{pages: []string{page(2, 1, 10, table, item(2, "b"))}}

	agg := newTestAggregator(src, 10)
	result, report, err := agg.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StopComplete, report.Stop)
	require.Len(t, result.Items, 2)
	assert.Equal(t, "b", result.Items[1].Name)

	require.Len(t, result.Items[0].CustomFields, 1)
	rows := result.Items[0].CustomFields[0].Rows
	require.Len(t, rows, 1)
	assert.Equal(t, "x", rows[0][0].Value)
}

func TestRun_TotalZero(t *testing.T) {
	src := &pagedSource{pages: []string{page(0, 1, 100)}}

	names, report, err := itemNames(t, newTestAggregator(src, 100))

	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, StopTotalZero, report.Stop)
}

func TestRun_TotalZeroWithItems(t *testing.T) {
	// A declared total of zero ends the query even if items were sent.
	src := &pagedSource{pages: []string{page(0, 1, 100, item(1, "a"))}}

	names, report, err := itemNames(t, newTestAggregator(src, 100))

	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Equal(t, 1, src.calls)
	assert.Equal(t, StopTotalZero, report.Stop)
}

func TestRun_MalformedSecondPage(t *testing.T) {
	src := &pagedSource{pages: []string{
		page(5, 1, 2, item(1, "a"), item(2, "b")),
		`{"message":"Internal Server Error"}`,
	}}

	names, report, err := itemNames(t, newTestAggregator(src, 2))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, StopShapeMismatch, report.Stop)
	assert.JSONEq(t, `{"message":"Internal Server Error"}`, string(report.Payload))
}

func TestRun_EmptySecondPage(t *testing.T) {
	src := &pagedSource{pages: []string{
		page(5, 1, 2, item(1, "a"), item(2, "b")),
		page(5, 2, 2),
	}}

	names, report, err := itemNames(t, newTestAggregator(src, 2))

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, names)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, StopEmptyPage, report.Stop)
}

func TestRun_TransportFailureMidStream(t *testing.T) {
	src := &pagedSource{
		pages: []string{
			page(6, 1, 2, item(1, "a"), item(2, "b")),
			page(6, 2, 2, item(3, "c"), item(4, "d")),
		},
		failAt: 2,
	}

	agg := newTestAggregator(src, 2)
	result, report, err := agg.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, errNetwork)
	require.NotNil(t, result)
	require.Len(t, result.Items, 2)
	assert.Equal(t, 6, result.Total)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, StopTransport, report.Stop)
	assert.Equal(t, 2, report.LastPage)
}

func TestRun_TransportFailureFirstPage(t *testing.T) {
	src := &pagedSource{failAt: 1}

	agg := NewAggregator(src, Config{StartPage: 3, PageSize: 50}, zerolog.Nop())
	result, report, err := agg.Run(context.Background())

	require.Error(t, err)
	require.NotNil(t, result)
	assert.Empty(t, result.Items)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 3, result.Page)
	assert.Equal(t, 50, result.PageSize)
	assert.Equal(t, StopTransport, report.Stop)
}

func TestRun_InvalidPages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `<html>Bad gateway</html>`},
		{"array", `[{"id":1}]`},
		{"null", `null`},
		{"missing total", `{"items":[{"id":1,"name":"a"}]}`},
		{"items object", `{"total":1,"items":{"id":1}}`},
		{"wrong total type", `{"total":"many","items":[{"id":1,"name":"a"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &pagedSource{pages: []string{tt.body}}

			names, report, err := itemNames(t, newTestAggregator(src, 10))

			assert.ErrorIs(t, err, ErrShapeMismatch)
			assert.Empty(t, names)
			assert.Equal(t, 1, src.calls)
			assert.Equal(t, StopShapeMismatch, report.Stop)
		})
	}
}

func TestRun_TotalComesFromFirstPage(t *testing.T) {
	// Later pages may report a different total; only the first one counts.
	src := &pagedSource{pages: []string{
		page(3, 1, 2, item(1, "a"), item(2, "b")),
		page(100, 2, 2, item(3, "c")),
	}}

	agg := newTestAggregator(src, 2)
	result, report, err := agg.Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, result.Total)
	assert.Len(t, result.Items, 3)
	assert.Equal(t, 2, src.calls)
	assert.Equal(t, StopComplete, report.Stop)
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls int
	fetcher := PageFetcherFunc(func(_ context.Context, p, _ int) (json.RawMessage, error) {
		calls++
		cancel()
		return json.RawMessage(page(10, p, 2, item(p, "x"), item(p+100, "y"))), nil
	})

	agg := newTestAggregator(fetcher, 2)
	result, report, err := agg.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
	assert.Len(t, result.Items, 2)
	assert.Equal(t, StopCancelled, report.Stop)
}

func TestNewAggregator_Defaults(t *testing.T) {
	agg := NewAggregator(&pagedSource{}, Config{}, zerolog.Nop())

	assert.Equal(t, DefaultStartPage, agg.config.StartPage)
	assert.Equal(t, DefaultPageSize, agg.config.PageSize)
	assert.Equal(t, Config{StartPage: 1, PageSize: 100}, DefaultConfig())
}

func TestStopReason_Normal(t *testing.T) {
	assert.True(t, StopComplete.Normal())
	assert.True(t, StopTotalZero.Normal())
	assert.True(t, StopEmptyPage.Normal())
	assert.False(t, StopShapeMismatch.Normal())
	assert.False(t, StopTransport.Normal())
	assert.False(t, StopCancelled.Normal())
}
