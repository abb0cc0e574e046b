package m3

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestConstraintSerialization(t *testing.T) {
	isNull := false
	tests := []struct {
		name       string
		constraint Constraint
		want       string
	}{
		{
			"equals",
			ConstraintEquals("concept", "Grimpoteuthis"),
			`{"column":"concept","equals":"Grimpoteuthis"}`,
		},
		{
			"in",
			ConstraintIn("video_sequence_name", []string{"Doc Ricketts 1234", "Doc Ricketts 1235"}),
			`{"column":"video_sequence_name","in":["Doc Ricketts 1234","Doc Ricketts 1235"]}`,
		},
		{
			"in with one value collapses to equals",
			ConstraintIn("video_sequence_name", []string{"Doc Ricketts 1234"}),
			`{"column":"video_sequence_name","equals":"Doc Ricketts 1234"}`,
		},
		{
			"like",
			ConstraintLike("concept", "%aurelia%"),
			`{"column":"concept","like":"%aurelia%"}`,
		},
		{
			"between",
			ConstraintBetween("index_recorded_timestamp", "2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z"),
			`{"between":["2024-01-01T00:00:00Z","2024-02-01T00:00:00Z"],"column":"index_recorded_timestamp"}`,
		},
		{
			"isnull",
			Constraint{Column: "depth_meters", IsNull: &isNull},
			`{"column":"depth_meters","isnull":false}`,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := QueryRequest{Where: []Constraint{test.constraint}}
			got := req.JSON()
			want := fmt.Sprintf(`{"where":[%s]}`, test.want)
			if got != want {
				t.Errorf("Expected %s, got %s", want, got)
			}
		})
	}
}

func TestQueryRequestSerialization(t *testing.T) {
	strict := true
	req := QueryRequest{
		Select:   []string{"concept", "observation_uuid"},
		Distinct: true,
		OrderBy:  []string{"concept"},
		Strict:   &strict,
	}
	got := req.WithPage(100, 200).JSON()
	want := `{"distinct":true,"limit":100,"offset":200,"orderby":["concept"],"select":["concept","observation_uuid"],"strict":true}`
	if got != want {
		t.Errorf("Expected %s, got %s", want, got)
	}
}

func TestQueryRequestOmitsUnset(t *testing.T) {
	got := QueryRequest{}.JSON()
	if got != "{}" {
		t.Errorf("Expected empty object, got %s", got)
	}
}

// pagedServer serves /query/count and /query/run for a fixed record set,
// honoring the limit/offset of each request.
func pagedServer(t *testing.T, total int) (*httptest.Server, *int32) {
	t.Helper()
	records := make([]string, total)
	for i := range records {
		records[i] = fmt.Sprintf("rec-%d\tconcept-%d", i, i)
	}

	var pages int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/query/count":
			fmt.Fprintf(w, `{"count": %d}`, total)
		case "/query/run":
			pages++
			var req struct {
				Limit  int `json:"limit"`
				Offset int `json:"offset"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Errorf("Bad query body: %v", err)
			}
			end := req.Offset + req.Limit
			if end > total {
				end = total
			}
			lines := []string{"observation_uuid\tconcept"}
			if req.Offset < total {
				lines = append(lines, records[req.Offset:end]...)
			}
			fmt.Fprint(w, strings.Join(lines, "\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	return srv, &pages
}

func TestQueryPaged(t *testing.T) {
	total := QueryPageSize + 250
	srv, pages := pagedServer(t, total)
	defer srv.Close()

	c := NewAnnosaurusClient(srv.URL, "")
	var progressCalls int
	var lastFetched, lastTotal int64
	header, records, err := QueryPaged(context.Background(), c, QueryRequest{}, func(fetched, count int64) {
		progressCalls++
		lastFetched, lastTotal = fetched, count
	})
	if err != nil {
		t.Fatalf("QueryPaged failed: %v", err)
	}
	if len(header) != 2 || header[0] != "observation_uuid" {
		t.Errorf("Unexpected header: %v", header)
	}
	if len(records) != total {
		t.Errorf("Expected %d records, got %d", total, len(records))
	}
	if *pages != 2 {
		t.Errorf("Expected 2 pages, got %d", *pages)
	}
	if progressCalls != 2 || lastFetched != int64(total) || lastTotal != int64(total) {
		t.Errorf("Unexpected progress: calls=%d fetched=%d total=%d", progressCalls, lastFetched, lastTotal)
	}
}

func TestQueryPagedShortFirstPage(t *testing.T) {
	srv, pages := pagedServer(t, 3)
	defer srv.Close()

	c := NewAnnosaurusClient(srv.URL, "")
	_, records, err := QueryPaged(context.Background(), c, QueryRequest{}, nil)
	if err != nil {
		t.Fatalf("QueryPaged failed: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("Expected 3 records, got %d", len(records))
	}
	if *pages != 1 {
		t.Errorf("Expected 1 page, got %d", *pages)
	}
}

func TestQueryPagedCancellation(t *testing.T) {
	srv, _ := pagedServer(t, 10)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewAnnosaurusClient(srv.URL, "")
	_, _, err := QueryPaged(ctx, c, QueryRequest{}, nil)
	if err == nil {
		t.Fatal("Expected cancellation error")
	}
}
