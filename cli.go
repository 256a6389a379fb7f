package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/streadway/amqp"
	"go.uber.org/zap"

	appconfig "github.com/muhammadolammi/jobrank/internal/config"
	"github.com/muhammadolammi/jobrank/internal/database"
	"github.com/muhammadolammi/jobrank/internal/extract"
	logpkg "github.com/muhammadolammi/jobrank/internal/logger"
	"github.com/muhammadolammi/jobrank/internal/metrics"
	"github.com/muhammadolammi/jobrank/internal/nlp"
	"github.com/muhammadolammi/jobrank/internal/rank"
	"github.com/muhammadolammi/jobrank/internal/report"
	"github.com/muhammadolammi/jobrank/internal/screening"
)

var rootCmd = &cobra.Command{
	Use:           "jobrank",
	Short:         "Rank resumes against a job description",
	Long:          `Ranks PDF and DOCX resumes against a job description by TF-IDF cosine similarity.`,
	SilenceUsage:  true,
	SilenceErrors: false,
}

var (
	rankJobFile        string
	rankJobText        string
	rankCSVPath        string
	rankSkipUnreadable bool
)

var rankCmd = &cobra.Command{
	Use:   "rank [resume files...]",
	Short: "Rank local resume files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRank,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Consume ranking sessions from RabbitMQ",
	Args:  cobra.NoArgs,
	RunE:  runWorker,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the ranking HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rankCmd.Flags().StringVarP(&rankJobFile, "job", "j", "", "file holding the job description")
	rankCmd.Flags().StringVar(&rankJobText, "job-text", "", "job description text")
	rankCmd.Flags().StringVar(&rankCSVPath, "csv", "", "write the ranking as CSV to this path")
	rankCmd.Flags().BoolVar(&rankSkipUnreadable, "skip-unreadable", false, "rank the readable resumes when some cannot be read")

	rootCmd.AddCommand(rankCmd, workerCmd, serveCmd)
}

// loadModel loads the process-wide language model; the process cannot
// rank anything without it.
func loadModel(logger *zap.Logger) (*nlp.Model, error) {
	start := time.Now()
	model, err := nlp.Default()
	if err != nil {
		return nil, err
	}
	logger.Info("language model loaded", zap.Duration("took", time.Since(start)))
	return model, nil
}

func newScreener(model *nlp.Model, skip bool, logger *zap.Logger) *screening.Screener {
	s := screening.New(model, logger)
	if skip {
		s.WithPolicy(screening.PolicySkip)
	}
	return s
}

func runRank(cmd *cobra.Command, args []string) error {
	jobDesc := rankJobText
	if rankJobFile != "" {
		data, err := os.ReadFile(filepath.Clean(rankJobFile))
		if err != nil {
			return fmt.Errorf("read job description: %w", err)
		}
		jobDesc = string(data)
	}

	req := screening.Request{JobDescription: jobDesc}
	for _, path := range args {
		format, err := extract.FormatFromFilename(path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return fmt.Errorf("read resume: %w", err)
		}
		req.Documents = append(req.Documents, screening.Document{
			ID:      filepath.Base(path),
			Content: data,
			Format:  format,
		})
	}
	if err := screening.Validate(req); err != nil {
		return err
	}

	logger := zap.NewNop()
	model, err := loadModel(logger)
	if err != nil {
		return err
	}

	outcome, err := newScreener(model, rankSkipUnreadable, logger).Rank(cmd.Context(), req)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Ranked Candidates:")
	if err := report.WriteTable(out, outcome.Results); err != nil {
		return err
	}
	for _, f := range outcome.Failures {
		fmt.Fprintf(out, "skipped %s: %s\n", f.ID, f.Error)
	}

	if rankCSVPath != "" {
		return writeCSVFile(rankCSVPath, outcome.Results)
	}
	return nil
}

// writeCSVFile writes the CSV export to path. A failed close loses
// buffered rows, so it is reported like a failed write.
func writeCSVFile(path string, results []rank.ScoredResult) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := report.WriteCSV(f, results); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close csv: %w", err)
	}
	return nil
}

func setup() (appconfig.Config, *zap.Logger, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logpkg.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		return cfg, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	metrics.RegisterRankingMetrics()
	return cfg, logger, nil
}

func runWorker(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateWorker(); err != nil {
		return err
	}

	model, err := loadModel(logger)
	if err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.DBURL)
	if err != nil {
		return fmt.Errorf("error opening db: %w", err)
	}
	defer db.Close()

	awsConfig, err := config.LoadDefaultConfig(cmd.Context(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.R2.AccessKey, cfg.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return fmt.Errorf("error creating aws config: %w", err)
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return fmt.Errorf("error connecting to RabbitMQ: %w", err)
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsPort > 0 {
		go serveMetrics(ctx, cfg.MetricsPort, logger)
	}

	workerConfig := &WorkerConfig{
		DB:             database.New(db),
		Objects:        newR2Fetcher(awsConfig, cfg.R2.AccountID, cfg.R2.Bucket),
		Updates:        &amqpPublisher{conn: conn},
		Screener:       newScreener(model, cfg.SkipUnreadable, logger),
		SkipUnreadable: cfg.SkipUnreadable,
		RABBITMQUrl:    cfg.RabbitMQURL,
		RetryWait:      500 * time.Millisecond,
		Logger:         logger,
	}

	logger.Info("starting consumer pool", zap.Int("workers", cfg.WorkerCount))
	workerConfig.StartConsumerWorkerPool(ctx, cfg.WorkerCount)
	logger.Info("worker stopped")
	return nil
}

func serveMetrics(ctx context.Context, port int, logger *zap.Logger) {
	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: r, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("metrics server error", zap.Error(err))
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	model, err := loadModel(logger)
	if err != nil {
		return err
	}

	handler := newRouter(&rankingServer{
		screener:  newScreener(model, cfg.SkipUnreadable, logger),
		maxUpload: int64(cfg.MaxUploadMB) << 20,
		logger:    logger,
	})

	addr := fmt.Sprintf(":%d", cfg.HTTPPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	logger.Info("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}
	logger.Info("server stopped gracefully")
	return nil
}
