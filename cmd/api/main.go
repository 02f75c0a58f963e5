package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/go-socfony/internal/application/accesstoken"
	"github.com/go-socfony/internal/application/moment"
	"github.com/go-socfony/internal/application/storage"
	"github.com/go-socfony/internal/application/user"
	"github.com/go-socfony/internal/application/verification"
	"github.com/go-socfony/internal/config"
	"github.com/go-socfony/internal/infrastructure/dynamo"
	jwtinfra "github.com/go-socfony/internal/infrastructure/jwt"
	s3infra "github.com/go-socfony/internal/infrastructure/s3"
	"github.com/go-socfony/internal/infrastructure/sns"
	"github.com/go-socfony/internal/telemetry"
	"github.com/go-socfony/internal/transport/grpcapi"
	transporthttp "github.com/go-socfony/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Info("no .env file found, reading from environment")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Info("starting socfony",
		"env", cfg.AppEnv,
		"http_port", cfg.AppPort,
		"grpc_addr", cfg.GRPCAddr,
		"metrics_addr", cfg.MetricsAddr,
	)

	ctx, cancelBackground := context.WithCancel(context.Background())
	defer cancelBackground()

	shutdownTracing, err := telemetry.InitTracing(ctx, telemetry.TracingConfig{
		Enabled:      cfg.Tracing.Enabled,
		ServiceName:  cfg.Tracing.ServiceName,
		OTLPEndpoint: cfg.Tracing.OTLPEndpoint,
		Insecure:     cfg.Tracing.Insecure,
		SampleRatio:  cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("shutdown tracing failed", "error", err)
		}
	}()

	metrics := telemetry.NewMetrics(nil)

	awsCfg, err := cfg.AWS(ctx, cfg.AWSRegion)
	if err != nil {
		return err
	}
	snsCfg, err := cfg.AWS(ctx, cfg.SNSRegion)
	if err != nil {
		return err
	}

	dynamoClient := dynamo.NewClient(awsCfg, cfg.AWSEndpointURL)
	dynamo.Bootstrap(ctx, dynamoClient, cfg.DynamoTables)

	tables := cfg.DynamoTables
	userRepo := dynamo.NewUserRepo(dynamoClient, tables.Users, metrics)
	verificationRepo := dynamo.NewVerificationRepo(dynamoClient, tables.Verifications, metrics)
	tokenRepo := dynamo.NewAccessTokenRepo(dynamoClient, tables.AccessTokens, metrics)
	momentRepo := dynamo.NewMomentRepo(dynamoClient, tables.Moments, metrics)
	likeRepo := dynamo.NewLikeRepo(dynamoClient, tables.MomentLikes, metrics)
	commentRepo := dynamo.NewCommentRepo(dynamoClient, tables.Comments, metrics)
	storageRepo := dynamo.NewStorageRepo(dynamoClient, tables.Storages, metrics)

	objectStore := s3infra.NewStore(s3infra.NewClient(awsCfg, cfg.AWSEndpointURL), cfg.S3BucketName)
	smsSender := sns.NewSender(snsCfg, cfg.AWSEndpointURL)

	jwtProvider, err := jwtinfra.NewProvider(cfg)
	if err != nil {
		return fmt.Errorf("jwt provider: %w", err)
	}

	verificationSvc := verification.NewService(verificationRepo, smsSender)
	tokenSvc := accesstoken.NewService(accesstoken.ServiceDeps{
		Tokens:          tokenRepo,
		Users:           userRepo,
		Verification:    verificationSvc,
		Signer:          jwtProvider,
		RefreshTokenDur: cfg.RefreshTokenExpiry,
	})
	userSvc := user.NewService(user.ServiceDeps{
		UserRepo:     userRepo,
		Verification: verificationSvc,
	})
	momentSvc := moment.NewService(moment.ServiceDeps{
		MomentRepo:  momentRepo,
		LikeRepo:    likeRepo,
		CommentRepo: commentRepo,
		UserRepo:    userRepo,
	})
	storageSvc := storage.NewService(storage.ServiceDeps{
		Signer:      objectStore,
		StorageRepo: storageRepo,
		Metrics:     metrics,
	})

	router := transporthttp.NewRouter(ctx, cfg, &transporthttp.Deps{
		Verification: verificationSvc,
		AccessTokens: tokenSvc,
		Users:        userSvc,
		Moments:      momentSvc,
		Storage:      storageSvc,
		Metrics:      metrics,
	})
	httpSrv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	grpcSrv, healthSrv := grpcapi.NewGRPCServer(grpcapi.NewServer(tokenSvc, userSvc, storageSvc, logger), metrics, logger)

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{
		Addr:    cfg.MetricsAddr,
		Handler: metricsMux,
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		return fmt.Errorf("listen grpc: %w", err)
	}
	defer lis.Close()

	errCh := make(chan error, 3)

	go func() {
		logger.Info("metrics server listening", "addr", cfg.MetricsAddr)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()

	go func() {
		logger.Info("http server listening", "addr", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		logger.Info("grpc server listening", "addr", cfg.GRPCAddr)
		if err := grpcSrv.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc serve: %w", err)
		}
	}()

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
		logger.Info("shutdown signal received")
	}

	healthSrv.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	httpErrCh := make(chan error, 1)
	go func() {
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			httpErrCh <- fmt.Errorf("shutdown http server: %w", err)
			return
		}
		httpErrCh <- nil
	}()

	metricsErrCh := make(chan error, 1)
	go func() {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			metricsErrCh <- fmt.Errorf("shutdown metrics server: %w", err)
			return
		}
		metricsErrCh <- nil
	}()

	grpcDone := make(chan struct{})
	go func() {
		grpcSrv.GracefulStop()
		close(grpcDone)
	}()

	select {
	case <-grpcDone:
		logger.Info("grpc server stopped gracefully")
	case <-shutdownCtx.Done():
		logger.Warn("grpc graceful shutdown timed out, forcing stop")
		grpcSrv.Stop()
	}

	if err := errors.Join(<-httpErrCh, <-metricsErrCh); err != nil {
		return err
	}

	logger.Info("shutdown complete")
	return nil
}
