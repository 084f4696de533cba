// Package kafka publishes decoded BGP elements to a Kafka topic for
// downstream consumption. It is the inverse of the teacher's
// internal/kafka consumers: a producer, not a consumer group member.
package kafka

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
	"github.com/bgpstream-go/mrt/internal/metrics"
	"github.com/twmb/franz-go/pkg/kgo"
	"github.com/twmb/franz-go/pkg/sasl"
	"go.uber.org/zap"
)

// elementJSON is the wire shape published for each element. Field names are
// deliberately stable across releases since downstream consumers parse them.
type elementJSON struct {
	Kind           string   `json:"kind"`
	Timestamp      uint32   `json:"timestamp"`
	PeerAddr       string   `json:"peer_addr"`
	PeerASN        uint32   `json:"peer_asn"`
	Prefix         string   `json:"prefix,omitempty"`
	NextHop        string   `json:"next_hop,omitempty"`
	ASPath         string   `json:"as_path,omitempty"`
	Communities    []string `json:"communities,omitempty"`
	AggregatorASN  uint32   `json:"aggregator_asn,omitempty"`
	AggregatorAddr string   `json:"aggregator_addr,omitempty"`
	OldState       uint16   `json:"old_state,omitempty"`
	NewState       uint16   `json:"new_state,omitempty"`
}

func toElementJSON(e bgpelem.Element) elementJSON {
	out := elementJSON{
		Kind:      e.Kind.String(),
		Timestamp: e.Timestamp,
		PeerAddr:  e.PeerAddr.String(),
		PeerASN:   e.PeerASN,
	}
	if e.Prefix.Addr().IsValid() {
		out.Prefix = e.Prefix.String()
	}
	if e.HasNextHop {
		out.NextHop = e.NextHop.String()
	}
	if e.ASPath != nil {
		out.ASPath = e.ASPath.String()
	}
	if e.Communities != nil {
		for _, c := range e.Communities.Values() {
			out.Communities = append(out.Communities, c.String())
		}
	}
	if e.HasAggregator {
		out.AggregatorASN = e.AggregatorASN
		out.AggregatorAddr = e.AggregatorAddr.String()
	}
	if e.Kind == bgpelem.PeerState {
		out.OldState = e.OldState
		out.NewState = e.NewState
	}
	return out
}

// Publisher produces JSON-encoded elements onto a fixed Kafka topic.
type Publisher struct {
	client *kgo.Client
	topic  string
	logger *zap.Logger
}

func NewPublisher(brokers []string, topic, clientID string, tlsCfg *tls.Config, saslMech sasl.Mechanism, logger *zap.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID(clientID),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchMaxBytes(1_000_000),
	}
	if tlsCfg != nil {
		opts = append(opts, kgo.DialTLSConfig(tlsCfg))
	}
	if saslMech != nil {
		opts = append(opts, kgo.SASL(saslMech))
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("sink/kafka: creating producer: %w", err)
	}
	return &Publisher{client: client, topic: topic, logger: logger}, nil
}

// PublishBatch produces one record per element and blocks until every
// record in the batch has been acknowledged or failed.
func (p *Publisher) PublishBatch(ctx context.Context, elems []bgpelem.Element) error {
	if len(elems) == 0 {
		return nil
	}

	start := time.Now()

	var mu sync.Mutex
	var firstErr error
	var wg sync.WaitGroup
	wg.Add(len(elems))

	for _, e := range elems {
		payload, err := json.Marshal(toElementJSON(e))
		if err != nil {
			wg.Done()
			return fmt.Errorf("sink/kafka: marshaling element: %w", err)
		}
		rec := &kgo.Record{Topic: p.topic, Value: payload}
		p.client.Produce(ctx, rec, func(r *kgo.Record, err error) {
			defer wg.Done()
			if err != nil {
				p.logger.Error("sink/kafka: produce failed", zap.Error(err))
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	metrics.KafkaPublishDuration.WithLabelValues(p.topic).Observe(time.Since(start).Seconds())
	metrics.BatchSize.WithLabelValues("kafka").Observe(float64(len(elems)))
	if firstErr != nil {
		metrics.KafkaPublishErrorsTotal.WithLabelValues(p.topic).Inc()
		return fmt.Errorf("sink/kafka: publish batch: %w", firstErr)
	}

	return nil
}

func (p *Publisher) Close() {
	p.client.Close()
}
