package topic

import (
	"context"
	"errors"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/mediadex/internal/compiler"
	"github.com/kailas-cloud/mediadex/internal/db/memory"
	"github.com/kailas-cloud/mediadex/internal/document"
	"github.com/kailas-cloud/mediadex/internal/domain"
	"github.com/kailas-cloud/mediadex/internal/domain/attribute"
	"github.com/kailas-cloud/mediadex/internal/domain/content"
	domtopic "github.com/kailas-cloud/mediadex/internal/domain/topic"
	"github.com/kailas-cloud/mediadex/internal/query"
	contentrepo "github.com/kailas-cloud/mediadex/internal/repository/content"
	topicrepo "github.com/kailas-cloud/mediadex/internal/repository/topic"
	"github.com/kailas-cloud/mediadex/internal/schema"
)

// --- Mocks ---

type mockAggregator struct {
	ranked []content.ID
	err    error
	q      query.Node
	size   int
}

func (m *mockAggregator) TopTerms(_ context.Context, q query.Node, _ string, size int) ([]content.ID, error) {
	m.q, m.size = q, size
	if m.err != nil {
		return nil, m.err
	}
	return m.ranked[:min(size, len(m.ranked))], nil
}

// --- Fixtures ---

func day(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }

func newService(t *testing.T) (*Service, *contentrepo.Repo) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	logger := zap.NewNop()
	contents := contentrepo.New(store, "content", logger)
	if _, err := contents.EnsureIndex(ctx); err != nil {
		t.Fatal(err)
	}
	svc := New(topicrepo.New(store, "topics"), contents,
		compiler.New(attribute.Topics, schema.Topics("topics")), logger)
	if err := svc.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return svc, contents
}

func aired(id int64, start time.Time, topics ...int64) document.Write {
	doc := document.Content{
		Kind: schema.KindTopItem, ID: id,
		Broadcasts: []document.Broadcast{{
			Channel: "bbcone", TransmissionTime: start, TransmissionEndTime: start.Add(time.Hour),
		}},
	}
	for _, tp := range topics {
		doc.Topics = append(doc.Topics, document.TopicMapping{ID: tp})
	}
	return document.Write{Doc: doc}
}

// --- Tests ---

func TestPopularTopics_CountsOverlappingBroadcasts(t *testing.T) {
	svc, contents := newService(t)
	ctx := context.Background()

	failures, err := contents.Write(ctx, []document.Write{
		aired(1, day(1, 20), 11, 12, 13),
		aired(2, day(1, 21), 11, 12),
		aired(3, day(1, 22), 11),
		aired(4, day(10, 20), 14, 14),
		// Ends exactly at the interval start.
		aired(5, day(1, 9), 15),
	})
	if err != nil || len(failures) > 0 {
		t.Fatalf("write: %v %v", err, failures)
	}

	interval, err := domain.NewInterval(day(1, 10), day(2, 0))
	if err != nil {
		t.Fatal(err)
	}

	ids, err := svc.PopularTopics(ctx, interval, domain.Selection{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if want := []content.ID{11, 12, 13, 15}; !slices.Equal(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}

	ids, err = svc.PopularTopics(ctx, interval, domain.Selection{Offset: 1, Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if want := []content.ID{12, 13}; !slices.Equal(ids, want) {
		t.Errorf("expected page %v, got %v", want, ids)
	}
}

func TestPopularTopics_CountsOpenEndedBroadcasts(t *testing.T) {
	svc, contents := newService(t)
	ctx := context.Background()

	openEnded := func(id int64, start time.Time, topic int64) document.Write {
		return document.Write{Doc: document.Content{
			Kind: schema.KindTopItem, ID: id,
			Broadcasts: []document.Broadcast{{Channel: "bbcone", TransmissionTime: start}},
			Topics:     []document.TopicMapping{{ID: topic}},
		}}
	}
	failures, err := contents.Write(ctx, []document.Write{
		openEnded(1, day(1, 12), 77),
		openEnded(2, day(2, 0), 78),
		// Starts before the interval with no end to prove overlap.
		openEnded(3, day(1, 9), 79),
		openEnded(4, day(5, 12), 80),
	})
	if err != nil || len(failures) > 0 {
		t.Fatalf("write: %v %v", err, failures)
	}

	interval, err := domain.NewInterval(day(1, 10), day(2, 0))
	if err != nil {
		t.Fatal(err)
	}
	ids, err := svc.PopularTopics(ctx, interval, domain.Selection{Limit: 10})
	if err != nil {
		t.Fatal(err)
	}
	if want := []content.ID{77, 78}; !slices.Equal(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestPopularTopics_Pagination(t *testing.T) {
	agg := &mockAggregator{ranked: []content.ID{5, 4, 3, 2, 1}}
	svc := New(nil, agg, nil, zap.NewNop())
	interval := domain.Interval{Start: day(1, 0), End: day(2, 0)}

	tests := []struct {
		name     string
		sel      domain.Selection
		wantSize int
		want     []content.ID
	}{
		{"first page", domain.Selection{Limit: 2}, 2, []content.ID{5, 4}},
		{"second page", domain.Selection{Offset: 2, Limit: 2}, 4, []content.ID{3, 2}},
		{"short last page", domain.Selection{Offset: 4, Limit: 2}, 6, []content.ID{1}},
		{"past the end", domain.Selection{Offset: 9, Limit: 2}, 11, []content.ID{}},
		{"default limit", domain.Selection{}, domain.DefaultLimit, []content.ID{5, 4, 3, 2, 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.PopularTopics(context.Background(), interval, tt.sel)
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
			if agg.size != tt.wantSize {
				t.Errorf("expected aggregation size %d, got %d", tt.wantSize, agg.size)
			}
		})
	}

	nested, ok := agg.q.(query.Nested)
	if !ok || nested.Path != schema.PathBroadcasts {
		t.Fatalf("expected one nested broadcast scope, got %#v", agg.q)
	}
}

func TestPopularTopics_AggregationError(t *testing.T) {
	boom := errors.New("boom")
	svc := New(nil, &mockAggregator{err: boom}, nil, zap.NewNop())
	_, err := svc.PopularTopics(context.Background(), domain.Interval{}, domain.All)
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}

func TestIndexAndQuery(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	for _, tp := range []domtopic.Topic{
		{ID: 3, Source: "dbpedia.org", Title: "Motoring",
			Aliases: []domtopic.Alias{{Namespace: "dbpedia", Value: "Car"}}},
		{ID: 1, Source: "dbpedia.org", Title: "Cooking",
			Aliases: []domtopic.Alias{{Namespace: "dbpedia", Value: "Food"}, {Namespace: "wiki", Value: "Car"}}},
		{ID: 2, Source: "bbc.co.uk", Title: "Cars",
			Aliases: []domtopic.Alias{{Namespace: "dbpedia", Value: "Car"}}},
	} {
		if err := svc.Index(ctx, tp); err != nil {
			t.Fatalf("index %d: %v", tp.ID, err)
		}
	}

	// Namespace and value must hold on the same alias: topic 1 has "Car"
	// only under wiki.
	got, err := svc.Query(ctx, attribute.NewQuerySet(
		attribute.AliasNamespace.Equals("dbpedia"),
		attribute.AliasValue.Equals("Car"),
	), nil, domain.All)
	if err != nil {
		t.Fatal(err)
	}
	if ids := topicIDs(got); !slices.Equal(ids, []content.ID{2, 3}) {
		t.Errorf("expected [2 3], got %v", ids)
	}

	got, err = svc.Query(ctx, attribute.NewQuerySet(attribute.AliasValue.Equals("Car")),
		[]content.Publisher{"dbpedia.org"}, domain.All)
	if err != nil {
		t.Fatal(err)
	}
	if ids := topicIDs(got); !slices.Equal(ids, []content.ID{1, 3}) {
		t.Errorf("expected [1 3], got %v", ids)
	}
	if got[1].Title != "Motoring" {
		t.Errorf("unexpected topic %+v", got[1])
	}
}

func TestIndex_RequiresSource(t *testing.T) {
	svc, _ := newService(t)
	err := svc.Index(context.Background(), domtopic.Topic{ID: 9})
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func topicIDs(ts []domtopic.Topic) []content.ID {
	out := make([]content.ID, len(ts))
	for i, tp := range ts {
		out[i] = tp.ID
	}
	return out
}
