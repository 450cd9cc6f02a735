// Package pagination aggregates the pages of a Codebeamer cBQL query into a
// single result.
//
// Codebeamer's /items/query endpoint is page-numbered and declares the total
// number of matching items on every page. The aggregator walks the pages
// strictly in order, because page N decides whether page N+1 exists:
//
//	agg := pagination.NewAggregator(fetcher, pagination.DefaultConfig(), logger)
//	result, report, err := agg.Run(ctx)
//
// The loop stops when:
//   - the declared total has been read (complete)
//   - the first page declares a total of zero (total_zero)
//   - a page carries an empty items array (empty_page)
//   - a page does not have the search-result shape (shape_mismatch)
//   - the fetcher fails (transport) or the context ends (cancelled)
//
// The first three are normal terminations and return a nil error. The others
// return the items accumulated so far together with an error. The result is
// never nil. Failed pages are not retried.
package pagination
