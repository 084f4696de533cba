// Package postgres is the optional `mrtcat snapshot` sink: it upserts
// decoded elements into a day-partitioned Postgres table for ad hoc
// querying. It lives outside the core decoder packages entirely — the core
// (internal/mrt, internal/bgpelem) never imports this package, mirroring
// the teacher's split between its pure internal/bgp/internal/bmp parsers
// and its internal/history DB-writing layer.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
	"github.com/bgpstream-go/mrt/internal/metrics"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type Writer struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewWriter(pool *pgxpool.Pool, logger *zap.Logger) *Writer {
	return &Writer{pool: pool, logger: logger}
}

// FlushBatch upserts a batch of elements into rib_elements. Returns the
// number of rows actually inserted (after dedup on element_id/event_time).
func (w *Writer) FlushBatch(ctx context.Context, elems []bgpelem.Element) (int64, error) {
	if len(elems) == 0 {
		return 0, nil
	}

	start := time.Now()

	tx, err := w.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("sink/postgres: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const insertSQL = `
		INSERT INTO rib_elements (element_id, event_time, kind, peer_addr, peer_asn,
			prefix, next_hop, as_path, origin_asn, communities, aggregator_asn, aggregator_addr,
			old_state, new_state)
		VALUES ($1, to_timestamp($2), $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (element_id, event_time) DO NOTHING`

	batch := &pgx.Batch{}
	for _, e := range elems {
		var prefix, nextHop any
		if e.Prefix.Addr().IsValid() {
			prefix = e.Prefix.String()
		}
		if e.HasNextHop {
			nextHop = e.NextHop.String()
		}

		var asPath any
		var origin any
		if e.ASPath != nil {
			asPath = e.ASPath.String()
			if o, ok := e.ASPath.OriginASN(); ok {
				origin = o
			}
		}

		var communities []string
		if e.Communities != nil {
			for _, c := range e.Communities.Values() {
				communities = append(communities, c.String())
			}
		}

		var oldState, newState any
		if e.Kind == bgpelem.PeerState {
			oldState, newState = e.OldState, e.NewState
		}

		var aggASN, aggAddr any
		if e.HasAggregator {
			aggASN = e.AggregatorASN
			aggAddr = e.AggregatorAddr.String()
		}

		batch.Queue(insertSQL,
			ElementID(e), e.Timestamp, e.Kind.String(), e.PeerAddr.String(), e.PeerASN,
			prefix, nextHop, asPath, origin, communities, aggASN, aggAddr, oldState, newState,
		)
	}

	results := tx.SendBatch(ctx, batch)
	var totalInserted int64
	for i := range elems {
		tag, err := results.Exec()
		if err != nil {
			results.Close()
			return 0, fmt.Errorf("sink/postgres: insert rib_elements[%d]: %w", i, err)
		}
		totalInserted += tag.RowsAffected()
	}
	if err := results.Close(); err != nil {
		return 0, fmt.Errorf("sink/postgres: closing batch results: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("sink/postgres: commit tx: %w", err)
	}

	dur := time.Since(start).Seconds()
	metrics.DBWriteDuration.WithLabelValues("insert").Observe(dur)
	metrics.DBRowsAffectedTotal.WithLabelValues("rib_elements", "insert").Add(float64(totalInserted))
	metrics.BatchSize.WithLabelValues("postgres").Observe(float64(len(elems)))

	return totalInserted, nil
}

func (w *Writer) Ping(ctx context.Context) error {
	return w.pool.Ping(ctx)
}
