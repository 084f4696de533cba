// Command mrtcat decodes MRT-framed BGP routing dumps and feeds the
// resulting element stream to a Kafka topic or a Postgres snapshot table.
// Its subcommand shape and flag/config/logger wiring follow
// cmd/rib-ingester/main.go; unlike that always-on ingestion service,
// mrtcat is a batch tool that decodes one input file per invocation.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/bgpstream-go/mrt/internal/bgpelem"
	"github.com/bgpstream-go/mrt/internal/config"
	"github.com/bgpstream-go/mrt/internal/db"
	ribhttp "github.com/bgpstream-go/mrt/internal/http"
	"github.com/bgpstream-go/mrt/internal/metrics"
	"github.com/bgpstream-go/mrt/internal/mrt"
	sinkkafka "github.com/bgpstream-go/mrt/internal/sink/kafka"
	sinkpostgres "github.com/bgpstream-go/mrt/internal/sink/postgres"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "publish":
		runPublish()
	case "snapshot":
		runSnapshot()
	case "migrate":
		runMigrate()
	case "maintenance":
		runMaintenance()
	case "--help", "-h", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: mrtcat <command> [options] <mrt-file>")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  publish       Decode an MRT file and publish its elements to Kafka")
	fmt.Println("  snapshot      Decode an MRT file and upsert its elements into Postgres")
	fmt.Println("  migrate       Run database migrations")
	fmt.Println("  maintenance   Run partition maintenance (create new, drop old)")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --config <path>   Path to configuration YAML file")
	fmt.Println("  --log-level <lvl> Override log level (debug, info, warn, error)")
	fmt.Println("  --http-listen <addr> Override the /healthz and /metrics listen address")
}

type flags struct {
	configPath string
	logLevel   string
	httpListen string
	inputPath  string
}

func parseFlags(args []string) flags {
	var f flags
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--config":
			if i+1 < len(args) {
				f.configPath = args[i+1]
				i++
			}
		case "--log-level":
			if i+1 < len(args) {
				f.logLevel = args[i+1]
				i++
			}
		case "--http-listen":
			if i+1 < len(args) {
				f.httpListen = args[i+1]
				i++
			}
		default:
			if !strings.HasPrefix(args[i], "--") {
				f.inputPath = args[i]
			}
		}
	}
	return f
}

func loadConfig(args []string) (*config.Config, flags, *zap.Logger) {
	f := parseFlags(args)

	cfg, err := config.Load(f.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if f.logLevel != "" {
		cfg.Service.LogLevel = f.logLevel
	}
	if f.httpListen != "" {
		cfg.Service.HTTPListen = f.httpListen
	}

	logger := initLogger(cfg.Service.LogLevel)
	return cfg, f, logger
}

func initLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zap.DebugLevel
	case "warn":
		zapLevel = zap.WarnLevel
	case "error":
		zapLevel = zap.ErrorLevel
	default:
		zapLevel = zap.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(zapLevel)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zapCfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}

func migrationsDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(filepath.Dir(exe), "migrations")
}

// openMRTInput opens path and transparently wraps it in a gzip reader when
// the stream starts with the gzip magic bytes (RouteViews/RIS dumps are
// almost always distributed gzipped).
func openMRTInput(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	br := bufio.NewReader(f)
	magic, err := br.Peek(2)
	if err == nil && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream %s: %w", path, err)
		}
		return gzipReadCloser{gz, f}, nil
	}
	return rawReadCloser{br, f}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	f *os.File
}

func (g gzipReadCloser) Close() error {
	g.Reader.Close()
	return g.f.Close()
}

type rawReadCloser struct {
	*bufio.Reader
	f *os.File
}

func (r rawReadCloser) Close() error { return r.f.Close() }

// decodeAndDispatch drains the MRT stream, expanding each record into
// elements and invoking flush whenever the pending batch has reached
// batchSize elements after a record (so one batch can exceed batchSize),
// and once more at end of stream for the remainder.
func decodeAndDispatch(ctx context.Context, r io.Reader, batchSize int, logger *zap.Logger, flush func(context.Context, []bgpelem.Element) error) error {
	dec := mrt.NewDecoder(r)
	gen := bgpelem.New()

	var batch []bgpelem.Element
	for {
		rec, err := dec.Next()
		if err != nil {
			if err == mrt.ErrEndOfStream {
				break
			}
			metrics.ParseErrorsTotal.WithLabelValues("decode", "stream_error").Inc()
			logger.Error("decode error", zap.Error(err))
			break
		}

		metrics.RecordsDecodedTotal.WithLabelValues(recordTypeLabel(rec.Type), "ok").Inc()
		metrics.LastRecordTimestamp.WithLabelValues("file").Set(float64(rec.Time))

		if rec.Unsupported {
			continue
		}

		for _, e := range gen.Populate(rec, dec.PeerIndexTable()) {
			metrics.ElementsEmittedTotal.WithLabelValues(e.Kind.String()).Inc()
			batch = append(batch, e)
		}

		if len(batch) >= batchSize {
			if err := flush(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}

	if len(batch) > 0 {
		return flush(ctx, batch)
	}
	return nil
}

func recordTypeLabel(t uint16) string {
	switch t {
	case mrt.TypeTableDump:
		return "table_dump"
	case mrt.TypeTableDumpV2:
		return "table_dump_v2"
	case mrt.TypeBGP4MP:
		return "bgp4mp"
	default:
		return fmt.Sprintf("type_%d", t)
	}
}

func startHTTPServer(addr string, dbChecker ribhttp.DBChecker, logger *zap.Logger) *ribhttp.Server {
	srv := ribhttp.NewServer(addr, dbChecker, logger.Named("http"))
	if err := srv.Start(); err != nil {
		logger.Fatal("failed to start HTTP server", zap.Error(err))
	}
	return srv
}

func waitForShutdownOrDone(done <-chan struct{}, shutdownTimeout time.Duration, srv *ribhttp.Server, logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case <-done:
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}
}

func runPublish() {
	cfg, f, logger := loadConfig(os.Args[2:])
	defer logger.Sync()
	metrics.Register()

	if f.inputPath == "" {
		logger.Fatal("publish requires an input MRT file path")
	}

	tlsCfg, err := cfg.Kafka.BuildTLSConfig()
	if err != nil {
		logger.Fatal("failed to build TLS config", zap.Error(err))
	}
	saslMech := cfg.Kafka.BuildSASLMechanism()

	pub, err := sinkkafka.NewPublisher(cfg.Kafka.Brokers, cfg.Kafka.Publish.Topic, cfg.Kafka.ClientID, tlsCfg, saslMech, logger.Named("sink.kafka"))
	if err != nil {
		logger.Fatal("failed to create kafka publisher", zap.Error(err))
	}
	defer pub.Close()

	srv := startHTTPServer(cfg.Service.HTTPListen, nil, logger)
	done := make(chan struct{})

	go func() {
		defer close(done)
		in, err := openMRTInput(f.inputPath)
		if err != nil {
			logger.Fatal("failed to open input", zap.Error(err))
		}
		defer in.Close()

		ctx := context.Background()
		if err := decodeAndDispatch(ctx, in, cfg.Ingest.BatchSize, logger, pub.PublishBatch); err != nil {
			logger.Error("publish failed", zap.Error(err))
		}
		logger.Info("publish complete", zap.String("file", f.inputPath), zap.String("topic", cfg.Kafka.Publish.Topic))
	}()

	shutdownTimeout := time.Duration(cfg.Service.ShutdownTimeoutSeconds) * time.Second
	waitForShutdownOrDone(done, shutdownTimeout, srv, logger)
}

func runSnapshot() {
	cfg, f, logger := loadConfig(os.Args[2:])
	defer logger.Sync()
	metrics.Register()

	if f.inputPath == "" {
		logger.Fatal("snapshot requires an input MRT file path")
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	pm := sinkpostgres.NewPartitionManager(pool, cfg.Retention.Days, cfg.Retention.Timezone, logger.Named("sink.postgres.partitions"))
	if err := pm.CreatePartitions(ctx); err != nil {
		logger.Fatal("failed to create partitions on startup", zap.Error(err))
	}

	writer := sinkpostgres.NewWriter(pool, logger.Named("sink.postgres"))

	srv := startHTTPServer(cfg.Service.HTTPListen, writer, logger)
	done := make(chan struct{})

	go func() {
		defer close(done)
		in, err := openMRTInput(f.inputPath)
		if err != nil {
			logger.Fatal("failed to open input", zap.Error(err))
		}
		defer in.Close()

		flush := func(ctx context.Context, batch []bgpelem.Element) error {
			_, err := writer.FlushBatch(ctx, batch)
			return err
		}

		if err := decodeAndDispatch(context.Background(), in, cfg.Ingest.BatchSize, logger, flush); err != nil {
			logger.Error("snapshot failed", zap.Error(err))
		}
		logger.Info("snapshot complete", zap.String("file", f.inputPath))
	}()

	shutdownTimeout := time.Duration(cfg.Service.ShutdownTimeoutSeconds) * time.Second
	waitForShutdownOrDone(done, shutdownTimeout, srv, logger)
}

func runMigrate() {
	cfg, _, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	logger.Info("running migrations", zap.String("dsn", redactDSN(cfg.Postgres.DSN)))

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, pool, migrationsDir(), logger); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	logger.Info("migrations complete")
}

func runMaintenance() {
	cfg, _, logger := loadConfig(os.Args[2:])
	defer logger.Sync()

	logger.Info("running partition maintenance",
		zap.Int("retention_days", cfg.Retention.Days),
		zap.String("timezone", cfg.Retention.Timezone),
	)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.MinConns)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	pm := sinkpostgres.NewPartitionManager(pool, cfg.Retention.Days, cfg.Retention.Timezone, logger)
	if err := pm.Run(ctx); err != nil {
		logger.Fatal("maintenance failed", zap.Error(err))
	}

	logger.Info("partition maintenance complete")
}

func redactDSN(dsn string) string {
	if !strings.Contains(dsn, "://") {
		re := regexp.MustCompile(`password\s*=\s*\S+`)
		return re.ReplaceAllString(dsn, "password=***")
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
