package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/compiler"
	"github.com/kailas-cloud/mediadex/internal/db/memory"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	contentrepo "github.com/kailas-cloud/mediadex/internal/repository/content"
	"github.com/kailas-cloud/mediadex/internal/repository/schedule"
	topicrepo "github.com/kailas-cloud/mediadex/internal/repository/topic"
	"github.com/kailas-cloud/mediadex/internal/schema"
	healthuc "github.com/kailas-cloud/mediadex/internal/usecase/health"
	indexinguc "github.com/kailas-cloud/mediadex/internal/usecase/indexing"
	searchuc "github.com/kailas-cloud/mediadex/internal/usecase/search"
	topicuc "github.com/kailas-cloud/mediadex/internal/usecase/topic"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	logger := zap.NewNop()
	names := schema.NewScheduleNames("")

	contents := contentrepo.New(store, "content", logger)
	indexing := indexinguc.New(contents, schedule.NewRegistry(store, names),
		document.NewBuilder(contents, names, logger), logger)
	topics := topicuc.New(topicrepo.New(store, "topics"), contents,
		compiler.New(attribute.Topics, schema.Topics("topics")), logger)
	if err := indexing.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := topics.Start(ctx); err != nil {
		t.Fatal(err)
	}

	srv := NewServer(
		indexing,
		searchuc.New(contents, compiler.New(attribute.Content, schema.Content("content"))),
		topics,
		healthuc.New(store, store, "content", "topics"),
		logger,
	)
	r := chi.NewRouter()
	srv.Routes(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body == "" {
		rdr = bytes.NewReader(nil)
	} else {
		rdr = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rdr)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeIDs(t *testing.T, rr *httptest.ResponseRecorder) []content.ID {
	t.Helper()
	var resp IDsResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp.IDs
}

const (
	brandBody = `{"container":{"id":1,"uri":"http://example.com/1","title":"Top Gear",
		"publisher":"bbc.co.uk","children":[{"id":2}]}}`
	episodeBody = `{"item":{"id":2,"uri":"http://example.com/2","title":"Episode One",
		"publisher":"bbc.co.uk","parent":{"id":1},
		"topics":[{"topic":7,"supervised":true,"weighting":1.5}],
		"versions":[{"broadcasts":[{"channel":"bbcone","activelyPublished":true,
			"transmissionTime":"2024-03-01T20:00:00Z","transmissionEndTime":"2024-03-01T21:00:00Z"}]}]}}`
)

func TestServer_IndexAndSearch(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/content", brandBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("index container: %d %s", rr.Code, rr.Body)
	}
	rr = do(t, h, http.MethodPost, "/content", episodeBody)
	if rr.Code != http.StatusOK {
		t.Fatalf("index item: %d %s", rr.Code, rr.Body)
	}
	var indexed IndexedResponse
	if err := json.NewDecoder(rr.Body).Decode(&indexed); err != nil {
		t.Fatal(err)
	}
	if indexed.Kind != schema.KindChildItem || indexed.ID != 2 {
		t.Errorf("unexpected ack %+v", indexed)
	}

	rr = do(t, h, http.MethodPost, "/content/search", `{"query":[
		{"attribute":"parentFlattenedTitle","operator":"beginning","values":["topg"]},
		{"attribute":"broadcasts.channel","operator":"equals","values":["bbcone"]}
	],"publishers":["bbc.co.uk"]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("search: %d %s", rr.Code, rr.Body)
	}
	if ids := decodeIDs(t, rr); !slices.Equal(ids, []content.ID{2}) {
		t.Errorf("expected [2], got %v", ids)
	}

	rr = do(t, h, http.MethodGet, "/topics/popular?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("popular: %d %s", rr.Code, rr.Body)
	}
	if ids := decodeIDs(t, rr); !slices.Equal(ids, []content.ID{7}) {
		t.Errorf("expected [7], got %v", ids)
	}

	rr = do(t, h, http.MethodGet,
		"/topics/popular?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z&offset=1&limit=5", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("popular page: %d %s", rr.Code, rr.Body)
	}
	if ids := decodeIDs(t, rr); len(ids) != 0 {
		t.Errorf("expected empty page, got %v", ids)
	}
}

func TestServer_Explain(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodPost, "/content/explain",
		`{"query":[{"attribute":"topics.id","operator":"equals","values":["7","8"]}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("explain: %d %s", rr.Code, rr.Body)
	}
	var got map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	want := map[string]any{"query": map[string]any{"nested": map[string]any{
		"path":  "topics",
		"query": map[string]any{"terms": map[string]any{"topics.id": []any{7.0, 8.0}}},
	}}}
	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if !bytes.Equal(gotJSON, wantJSON) {
		t.Errorf("explain:\n got  %s\n want %s", gotJSON, wantJSON)
	}
}

func TestServer_Topics(t *testing.T) {
	h := newTestRouter(t)

	rr := do(t, h, http.MethodPost, "/topics",
		`{"id":5,"source":"dbpedia.org","title":"Motoring","aliases":[{"namespace":"dbpedia","value":"Car"}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("index topic: %d %s", rr.Code, rr.Body)
	}
	rr = do(t, h, http.MethodPost, "/topics/search",
		`{"query":[{"attribute":"aliases.value","operator":"equals","values":["Car"]}]}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("search topics: %d %s", rr.Code, rr.Body)
	}
	var resp struct {
		Topics []struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"topics"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Topics) != 1 || resp.Topics[0].ID != 5 || resp.Topics[0].Title != "Motoring" {
		t.Errorf("unexpected topics %+v", resp.Topics)
	}
}

func TestServer_Errors(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
		code   ErrorCode
	}{
		{"malformed body", http.MethodPost, "/content", `{`, http.StatusBadRequest, CodeBadRequest},
		{"empty content", http.MethodPost, "/content", `{}`, http.StatusBadRequest, CodeValidationFailed},
		{"both kinds", http.MethodPost, "/content", `{"container":{"id":1},"item":{"id":2}}`,
			http.StatusBadRequest, CodeValidationFailed},
		{"unknown attribute", http.MethodPost, "/content/search",
			`{"query":[{"attribute":"nope","operator":"equals","values":["x"]}]}`,
			http.StatusBadRequest, CodeCompilationFailed},
		{"unsupported operator", http.MethodPost, "/content/search",
			`{"query":[{"attribute":"id","operator":"beginning","values":["1"]}]}`,
			http.StatusBadRequest, CodeCompilationFailed},
		{"bad operand", http.MethodPost, "/content/explain",
			`{"query":[{"attribute":"topics.weighting","operator":"greater_than","values":["heavy"]}]}`,
			http.StatusBadRequest, CodeCompilationFailed},
		{"topic without source", http.MethodPost, "/topics", `{"id":1}`,
			http.StatusBadRequest, CodeValidationFailed},
		{"inverted interval", http.MethodGet,
			"/topics/popular?from=2024-03-02T00:00:00Z&to=2024-03-01T00:00:00Z", "",
			http.StatusBadRequest, CodeValidationFailed},
		{"missing from", http.MethodGet, "/topics/popular?to=2024-03-01T00:00:00Z", "",
			http.StatusBadRequest, CodeValidationFailed},
		{"malformed from", http.MethodGet, "/topics/popular?from=yesterday&to=2024-03-01T00:00:00Z", "",
			http.StatusBadRequest, CodeValidationFailed},
		{"non-numeric offset", http.MethodGet,
			"/topics/popular?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z&offset=two", "",
			http.StatusBadRequest, CodeValidationFailed},
		{"negative offset", http.MethodGet,
			"/topics/popular?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z&offset=-1", "",
			http.StatusBadRequest, CodeValidationFailed},
		{"bad limit", http.MethodGet,
			"/topics/popular?from=2024-03-01T00:00:00Z&to=2024-03-02T00:00:00Z&limit=0", "",
			http.StatusBadRequest, CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, h, tt.method, tt.path, tt.body)
			if rr.Code != tt.status {
				t.Fatalf("status: got %d, want %d (%s)", rr.Code, tt.status, rr.Body)
			}
			var resp ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatal(err)
			}
			if resp.Code != tt.code {
				t.Errorf("code: got %s, want %s", resp.Code, tt.code)
			}
		})
	}
}

func TestServer_Health(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, http.MethodGet, "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("health: %d %s", rr.Code, rr.Body)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Checks["index:content"] != "ok" {
		t.Errorf("unexpected health %+v", resp)
	}
}
