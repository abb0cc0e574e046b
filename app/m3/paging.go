package m3

import (
	"context"
	"fmt"

	"gridview/app/rows"
)

// QueryPageSize is how many rows one query page requests.
const QueryPageSize = 5000

// PageFunc reports paging progress: rows fetched so far and the expected
// total (0 when the count is unknown).
type PageFunc func(fetched, total int64)

// QueryPaged runs a query in pages and stitches the TSV pages together,
// returning the header once plus all data records. The context cancels
// between pages.
func QueryPaged(ctx context.Context, client *AnnosaurusClient, req QueryRequest, progress PageFunc) ([]string, [][]string, error) {
	var header []string
	var records [][]string

	total, err := client.Count(ctx, req)
	if err != nil {
		// The count is advisory; paging still terminates on a short page
		total = 0
	}

	offset := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		page, err := client.Query(ctx, req.WithPage(QueryPageSize, offset))
		if err != nil {
			return nil, nil, fmt.Errorf("query page at offset %d failed: %w", offset, err)
		}

		pageHeader, pageRecords, err := rows.ParseTSV(page)
		if err != nil {
			return nil, nil, fmt.Errorf("query page at offset %d: %w", offset, err)
		}
		if header == nil {
			header = pageHeader
		}
		records = append(records, pageRecords...)

		if progress != nil {
			progress(int64(len(records)), total)
		}

		if len(pageRecords) < QueryPageSize {
			return header, records, nil
		}
		offset += QueryPageSize
	}
}
