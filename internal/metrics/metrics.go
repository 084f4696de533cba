package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RecordsDecodedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_records_decoded_total",
			Help: "MRT records decoded, by type and outcome.",
		},
		[]string{"type", "outcome"},
	)

	ElementsEmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_elements_emitted_total",
			Help: "Elements produced by the generator, by kind.",
		},
		[]string{"kind"},
	)

	KafkaPublishDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtcat_kafka_publish_duration_seconds",
			Help:    "Kafka produce latency for published elements.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"topic"},
	)

	KafkaPublishErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_kafka_publish_errors_total",
			Help: "Kafka produce failures.",
		},
		[]string{"topic"},
	)

	DBWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtcat_db_write_duration_seconds",
			Help:    "Postgres write latency for the RIB snapshot sink.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
		},
		[]string{"op"},
	)

	DBRowsAffectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_db_rows_affected_total",
			Help: "Rows written by the RIB snapshot sink.",
		},
		[]string{"table", "op"},
	)

	ParseErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_parse_errors_total",
			Help: "Decode failures by stage and reason.",
		},
		[]string{"stage", "reason"},
	)

	LastRecordTimestamp = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mrtcat_last_record_timestamp_seconds",
			Help: "MRT timestamp of the last successfully decoded record.",
		},
		[]string{"source"},
	)

	BatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mrtcat_batch_size",
			Help:    "Batch sizes flushed downstream (Kafka produce / DB upsert).",
			Buckets: []float64{1, 10, 50, 100, 250, 500, 1000, 2000, 5000},
		},
		[]string{"sink"},
	)

	PartitionsMaintainedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mrtcat_partitions_maintained_total",
			Help: "Partition maintenance actions (created, dropped) by the retention job.",
		},
		[]string{"action"},
	)
)

var registerOnce sync.Once

func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			RecordsDecodedTotal,
			ElementsEmittedTotal,
			KafkaPublishDuration,
			KafkaPublishErrorsTotal,
			DBWriteDuration,
			DBRowsAffectedTotal,
			ParseErrorsTotal,
			LastRecordTimestamp,
			BatchSize,
			PartitionsMaintainedTotal,
		)
	})
}
