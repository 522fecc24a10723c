package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"readlater/internal/api"
	"readlater/internal/articles"
	"readlater/internal/config"
	"readlater/internal/db"
	"readlater/internal/digest"
	"readlater/internal/email"
	"readlater/internal/logging"
	"readlater/internal/mirror"
	"readlater/internal/scrape"
	"readlater/internal/storage"
)

var cfgFile string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "readlater",
		Short:         "Personal read-it-later article archiver.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional; env vars otherwise)")
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDigestCmd())
	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (ingest, listing, page-image, digest trigger).",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()
			return a.serve(cmd.Context())
		},
	}
}

func newDigestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digest",
		Short: "Assemble and send the digest once, then exit.",
		Long: `digest runs one digest invocation: query the most recent articles, render
the email, send it, exit. Intended to be run from cron; a non-zero exit code
is the failure signal for the scheduler.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := buildApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.digest.Send(cmd.Context())
			if err != nil {
				return err
			}
			if !res.Sent {
				a.logger.Info("no articles found, nothing sent")
				return nil
			}
			a.logger.Info("digest sent", zap.Int("articles", res.Count))
			return nil
		},
	}
}

type app struct {
	cfg    config.Config
	logger *zap.Logger
	mongo  *mongo.Client
	repo   articles.Repository
	store  *storage.MinioStore
	digest *digest.Service
	server *api.Server
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, err := db.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	repo, err := articles.NewMongoRepository(mongoClient.Database(cfg.Mongo.Database), logger)
	if err != nil {
		return nil, fmt.Errorf("init repository: %w", err)
	}

	store, err := storage.NewMinioStore(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("minio connect: %w", err)
	}

	loc, err := time.LoadLocation(cfg.Digest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone: %w", err)
	}

	fetchClient := &http.Client{Timeout: cfg.FetchTimeout()}
	m := mirror.New(store, fetchClient, cfg.Storage.Prefix, cfg.HTTP.UserAgent, logger)
	scraper := scrape.New(fetchClient, cfg.HTTP.UserAgent)

	mail := email.NewClient(cfg.Email.BaseURL, cfg.Email.APIKey, cfg.Email.From, cfg.FetchTimeout())
	digestSvc := digest.NewService(repo, mail, cfg.Digest.Limit, cfg.Digest.Timeframe, cfg.Digest.Subject, cfg.Email.To, loc, logger)

	return &app{
		cfg:    cfg,
		logger: logger,
		mongo:  mongoClient,
		repo:   repo,
		store:  store,
		digest: digestSvc,
		server: api.NewServer(repo, m, scraper, digestSvc, store, logger),
	}, nil
}

func (a *app) serve(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler: a.server.Router(),
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.mongo.Disconnect(ctx); err != nil {
		a.logger.Warn("mongo disconnect", zap.Error(err))
	}
	_ = a.logger.Sync()
}
