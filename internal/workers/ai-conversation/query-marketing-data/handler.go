package querymarketingdata

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"morvo-assistant/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "query-marketing-data"

	cacheKeyPrefix = "ai:lookup:"
	maxValueRunes  = 140
)

var (
	ErrLookupInvalidInput = errors.New("LOOKUP_INVALID_INPUT")
	ErrLookupUnavailable  = errors.New("LOOKUP_UNAVAILABLE")
)

// preferredKeys are rendered in this order when present on a row.
var preferredKeys = []string{"title", "keyword", "content", "text", "summary", "source", "platform", "sentiment"}

// Logger interface definition
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Handler reads the newest rows of a marketing table. Postgres is primary;
// Elasticsearch is consulted when Postgres is absent or fails. Any of the
// three clients may be nil.
type Handler struct {
	config      *Config
	db          *sql.DB
	esClient    *elasticsearch.Client
	redisClient *redis.Client
	logger      Logger
}

func NewHandler(config *Config, db *sql.DB, esClient *elasticsearch.Client, redisClient *redis.Client, log Logger) *Handler {
	return &Handler{
		config:      config,
		db:          db,
		esClient:    esClient,
		redisClient: redisClient,
		logger: log.With(map[string]interface{}{
			"taskType": TaskType,
		}),
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if h.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.config.Timeout)
		defer cancel()
	}
	return h.execute(ctx, input)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.Table == "" {
		return nil, ErrLookupInvalidInput
	}

	if cached := h.readCache(ctx, input.Table); cached != nil {
		return &Output{Result: cached, Source: "cache"}, nil
	}

	rows, source, err := h.fetch(ctx, input.Table)
	if err != nil {
		h.logger.Warn("lookup failed", map[string]interface{}{
			"table":  input.Table,
			"source": source,
			"error":  err.Error(),
		})
		return &Output{Result: transportError(ctx, err), Source: source}, nil
	}

	displayName := input.DisplayName
	if displayName == "" {
		displayName = input.Table
	}
	result := formatRows(displayName, rows)

	if result.Kind == models.LookupOK {
		h.writeCache(ctx, input.Table, result)
	}

	h.logger.Info("lookup completed", map[string]interface{}{
		"table":    input.Table,
		"source":   source,
		"rowCount": len(rows),
		"kind":     string(result.Kind),
	})

	return &Output{Result: result, Source: source}, nil
}

func (h *Handler) fetch(ctx context.Context, table string) ([]row, string, error) {
	if h.db == nil && h.esClient == nil {
		return nil, "none", ErrLookupUnavailable
	}

	if h.db != nil {
		rows, err := h.queryPostgreSQL(ctx, table)
		if err == nil {
			return rows, "postgres", nil
		}
		if h.esClient == nil || ctx.Err() != nil {
			return nil, "postgres", err
		}
		h.logger.Warn("postgres lookup failed, trying elasticsearch", map[string]interface{}{
			"table": table,
			"error": err.Error(),
		})
	}

	rows, err := h.queryElasticsearch(ctx, table)
	return rows, "elasticsearch", err
}

func (h *Handler) queryPostgreSQL(ctx context.Context, table string) ([]row, error) {
	query := `SELECT * FROM ` + pq.QuoteIdentifier(table) + ` ORDER BY created_at DESC LIMIT $1`

	rs, err := h.db.QueryContext(ctx, query, h.config.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}

	var out []row
	for rs.Next() {
		raw := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range raw {
			ptrs[i] = &raw[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, &decodeError{err: err}
		}
		r := row{columns: columns, values: make(map[string]interface{}, len(columns))}
		for i, col := range columns {
			if b, ok := raw[i].([]byte); ok {
				r.values[col] = string(b)
				continue
			}
			r.values[col] = raw[i]
		}
		out = append(out, r)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	return out, nil
}

func (h *Handler) queryElasticsearch(ctx context.Context, table string) ([]row, error) {
	queryBody := map[string]interface{}{
		"size":  h.config.MaxResults,
		"query": map[string]interface{}{"match_all": map[string]interface{}{}},
		"sort": []interface{}{
			map[string]interface{}{"created_at": map[string]interface{}{"order": "desc", "unmapped_type": "date"}},
		},
	}

	body, _ := json.Marshal(queryBody)
	req := esapi.SearchRequest{
		Index: []string{table},
		Body:  strings.NewReader(string(body)),
	}

	res, err := req.Do(ctx, h.esClient)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch: search failed: %s", res.Status())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source map[string]interface{} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, &decodeError{err: err}
	}

	out := make([]row, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if hit.Source == nil {
			continue
		}
		cols := make([]string, 0, len(hit.Source))
		for k := range hit.Source {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		out = append(out, row{columns: cols, values: hit.Source})
	}
	return out, nil
}

type cachedResult struct {
	Text string                   `json:"text"`
	Rows []map[string]interface{} `json:"rows,omitempty"`
}

func (h *Handler) readCache(ctx context.Context, table string) *models.LookupResult {
	if h.redisClient == nil {
		return nil
	}
	val, err := h.redisClient.Get(ctx, cacheKeyPrefix+table).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			h.logger.Warn("lookup cache read failed", map[string]interface{}{"table": table, "error": err.Error()})
		}
		return nil
	}
	var c cachedResult
	if err := json.Unmarshal([]byte(val), &c); err != nil || strings.TrimSpace(c.Text) == "" {
		return nil
	}
	return &models.LookupResult{Kind: models.LookupOK, Text: c.Text, Rows: c.Rows}
}

func (h *Handler) writeCache(ctx context.Context, table string, result *models.LookupResult) {
	if h.redisClient == nil || h.config.CacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(cachedResult{Text: result.Text, Rows: result.Rows})
	if err != nil {
		return
	}
	if err := h.redisClient.Set(ctx, cacheKeyPrefix+table, data, h.config.CacheTTL).Err(); err != nil {
		h.logger.Warn("lookup cache write failed", map[string]interface{}{"table": table, "error": err.Error()})
	}
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

func transportError(ctx context.Context, err error) *models.LookupResult {
	kind := models.LookupErrQuery
	var de *decodeError
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		kind = models.LookupErrTimeout
	case errors.Is(err, ErrLookupUnavailable):
		kind = models.LookupErrUnavailable
	case errors.As(err, &de):
		kind = models.LookupErrDecode
	}
	return &models.LookupResult{Kind: models.LookupTransportError, ErrorKind: kind, Err: err}
}

// IsPlaceholder reports whether s is an empty-looking serialisation such as
// "[]", "{}", "null", "None" or an empty quoted string.
func IsPlaceholder(s string) bool {
	switch strings.TrimSpace(s) {
	case "", "[]", "{}", "null", "None", `""`, "''":
		return true
	}
	return false
}

// formatRows renders at most five rows as a one-line Arabic summary. Rows
// that render to nothing are skipped; if none remain the result is empty.
func formatRows(displayName string, rows []row) *models.LookupResult {
	snippets := make([]string, 0, len(rows))
	plain := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		if s := formatRow(r); s != "" {
			snippets = append(snippets, s)
			plain = append(plain, r.values)
		}
		if len(snippets) >= 5 {
			break
		}
	}
	if len(snippets) == 0 {
		return &models.LookupResult{Kind: models.LookupEmpty}
	}
	return &models.LookupResult{
		Kind: models.LookupOK,
		Text: "ملخص سريع من " + displayName + ": " + strings.Join(snippets, "; "),
		Rows: plain,
	}
}

func formatRow(r row) string {
	var parts []string
	for _, key := range preferredKeys {
		v, ok := r.values[key]
		if !ok {
			continue
		}
		s := stringify(v)
		if IsPlaceholder(s) {
			continue
		}
		parts = append(parts, truncate(s, maxValueRunes))
	}
	if len(parts) == 0 {
		for _, col := range r.columns {
			s := stringify(r.values[col])
			if IsPlaceholder(s) {
				continue
			}
			parts = append(parts, col+": "+s)
			if len(parts) == 3 {
				break
			}
		}
	}
	return strings.Join(parts, " — ")
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
