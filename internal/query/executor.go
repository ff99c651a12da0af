package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aetherxhub/ferridyn-memory/internal/kv"
	"github.com/aetherxhub/ferridyn-memory/internal/merr"
	"go.opentelemetry.io/otel/metric"

	"github.com/aetherxhub/ferridyn-memory/internal/telemetry"
)

// Backend is the subset of internal/backend.Backend the executor needs.
type Backend interface {
	GetItem(ctx context.Context, table, category, key string) (kv.Item, bool, error)
	Query(ctx context.Context, table, category string, prefix *string, limit int) ([]kv.Item, error)
	QueryIndex(ctx context.Context, table, indexName string, keyValue any, limit int) ([]kv.Item, error)
}

var broadenedCounter metric.Int64Counter

func init() {
	c, _ := telemetry.Meter("github.com/aetherxhub/ferridyn-memory/query").Int64Counter(
		"fmemory.query.broadened",
		metric.WithDescription("number of resolved queries that fell back to an unbounded category scan"),
	)
	broadenedCounter = c
}

// Execute runs q against backend within table, applying the single
// broadening fallback from SPEC_FULL.md §4.6: an empty non-unbounded-scan
// result retries once as an unbounded scan of the plan's category.
func Execute(ctx context.Context, backend Backend, table string, q ResolvedQuery, limit int) (items []kv.Item, broadened bool, err error) {
	items, err = run(ctx, backend, table, q, limit)
	if err != nil {
		return nil, false, err
	}
	if len(items) > 0 {
		return items, false, nil
	}
	if q.IsUnboundedScan() {
		return items, false, nil
	}

	broadenItems, err := backend.Query(ctx, table, q.Category, nil, limit)
	if err != nil {
		return nil, false, err
	}
	if broadenedCounter != nil {
		broadenedCounter.Add(ctx, 1)
	}
	slog.Default().Debug("query broadened to unbounded scan", "category", q.Category, "original_kind", q.Kind)
	return broadenItems, len(broadenItems) > 0, nil
}

func run(ctx context.Context, backend Backend, table string, q ResolvedQuery, limit int) ([]kv.Item, error) {
	switch q.Kind {
	case KindExactLookup:
		item, ok, err := backend.GetItem(ctx, table, q.Category, q.Key)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, nil
		}
		return []kv.Item{item}, nil
	case KindPartitionScan:
		return backend.Query(ctx, table, q.Category, q.KeyPrefix, limit)
	case KindIndexLookup:
		return backend.QueryIndex(ctx, table, q.IndexName, q.KeyValue, limit)
	default:
		return nil, merr.Internal(fmt.Sprintf("unknown resolved query kind %q", q.Kind), nil)
	}
}
