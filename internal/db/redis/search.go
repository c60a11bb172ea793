package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/mediadex/internal/db"
	"github.com/kailas-cloud/mediadex/internal/db/match"
)

// scanPageSize bounds the documents fetched per FT.SEARCH round-trip.
const scanPageSize = 1000

// Search narrows each index with an FT.SEARCH prefilter derived from the
// request, then evaluates the exact query, sort, aggregation and paging over
// the retrieved documents.
func (s *Store) Search(ctx context.Context, req *db.SearchRequest) (*db.SearchResult, error) {
	if len(req.Indexes) == 0 {
		return nil, fmt.Errorf("at least one index is required")
	}

	var candidates []match.Candidate
	for _, index := range req.Indexes {
		def, _ := s.definition(index)
		q := prefilter(def, req)
		found, err := s.scan(ctx, index, q)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, found...)
	}
	return match.Execute(req, candidates), nil
}

// scan pages through every document of index matching the FT query.
func (s *Store) scan(ctx context.Context, index, q string) ([]match.Candidate, error) {
	var out []match.Candidate
	for offset := 0; ; offset += scanPageSize {
		cmd := s.b().Arbitrary("FT.SEARCH").Args(
			s.ftName(index), q,
			"RETURN", "1", "$",
			"LIMIT", strconv.Itoa(offset), strconv.Itoa(scanPageSize),
			"DIALECT", "2",
		).Build()
		raw, err := s.do(ctx, cmd).ToArray()
		if err != nil {
			if isRedisErr(err, "no such index") || isRedisErr(err, "unknown index name") {
				return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("%w: %s", db.ErrIndexNotFound, index)}
			}
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}

		total, page, err := s.parseSearchResult(index, raw)
		if err != nil {
			return nil, &db.Error{Op: db.OpSearch, Err: err}
		}
		out = append(out, page...)
		if len(page) == 0 || offset+scanPageSize >= total {
			return out, nil
		}
	}
}

// parseSearchResult reads the RESP2 reply [total, key1, [$, json1], ...].
func (s *Store) parseSearchResult(index string, raw []rueidis.RedisMessage) (int, []match.Candidate, error) {
	if len(raw) == 0 {
		return 0, nil, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, nil, fmt.Errorf("parse total: %w", err)
	}

	out := make([]match.Candidate, 0, (len(raw)-1)/2)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}
		body, ok := parseFieldPairs(fields)["$"]
		if !ok {
			continue
		}

		var env envelope
		if err := json.Unmarshal([]byte(body), &env); err != nil {
			return 0, nil, fmt.Errorf("decode %s: %w", key, err)
		}
		typ, id, ok := s.splitKey(index, key)
		if !ok {
			typ, id = env.Type, env.ID
		}
		doc, err := match.Decode(env.Source)
		if err != nil {
			return 0, nil, fmt.Errorf("decode %s: %w", key, err)
		}
		out = append(out, match.Candidate{
			Hit: db.Hit{Index: index, Type: typ, ID: id, Parent: env.Parent, Source: env.Source},
			Doc: doc,
		})
	}
	return int(total), out, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, err := fields[j+1].ToString()
		if err != nil {
			continue
		}
		m[name] = value
	}
	return m
}

// --- Query helpers ---

var tagEscaper = strings.NewReplacer(
	`\`, `\\`,
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"|", "\\|",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"[", "\\[",
	"]", "\\]",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"/", "\\/",
	" ", "\\ ",
)
